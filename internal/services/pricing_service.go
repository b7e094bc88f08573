package services

import (
	"backend/internal/clients/maps"
	"backend/internal/domain/models"
	"backend/internal/utils"
)

// PricingService computes fares in öre from verified route legs and the
// latest pricing settings. It holds no mutable state; quoting the same leg
// twice always yields the same result.
type PricingService struct {
	Airport string
	Zone    []string
}

// Quote prices a full itinerary. Each leg is priced independently and the
// legs are summed; zone eligibility is judged per leg on that leg's own
// endpoints, so a middle leg between two non-airport stops never gets the
// flat fee even when the overall trip touches the airport.
func (s PricingService) Quote(legs []maps.Leg, cfg models.TaxiSettings) int64 {
	var total int64
	for _, leg := range legs {
		total += s.LegPrice(leg, cfg)
	}
	return total
}

// LegPrice returns startFee + km*kmRate + minutes*minuteRate, replaced by the
// flat zone fee when the leg is zone-eligible and metered exceeds the flat fee.
func (s PricingService) LegPrice(leg maps.Leg, cfg models.TaxiSettings) int64 {
	metered := cfg.StartFeeOre +
		utils.RoundOre(leg.DistanceKm*float64(cfg.KmRateOre)) +
		utils.RoundOre(leg.DurationMin*float64(cfg.MinuteRateOre))

	if s.zoneEligible(leg.FromAddress, leg.ToAddress) && metered > cfg.ZoneFeeOre {
		return cfg.ZoneFeeOre
	}
	return metered
}

// zoneEligible: one endpoint is the airport, the other lies in the
// metropolitan zone list (substring match, case-insensitive).
func (s PricingService) zoneEligible(from, to string) bool {
	if utils.ContainsFold(from, s.Airport) && utils.AnyContainsFold(to, s.Zone) {
		return true
	}
	if utils.ContainsFold(to, s.Airport) && utils.AnyContainsFold(from, s.Zone) {
		return true
	}
	return false
}
