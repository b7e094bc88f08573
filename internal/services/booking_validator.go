package services

import (
	"context"
	"fmt"
	"time"

	"backend/internal/clients/maps"
	"backend/internal/domain"
	"backend/internal/repositories"
	"backend/internal/utils"
)

// StopInput is one itinerary point supplied by the client.
type StopInput struct {
	Address string  `json:"address" binding:"required"`
	Lat     float64 `json:"lat" binding:"required"`
	Lng     float64 `json:"lng" binding:"required"`
}

// CreateBookingInput is the creation request body. ExpectedPrice, when set,
// is used only for mismatch detection, never for storage.
type CreateBookingInput struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Phone     string `json:"phone" binding:"required"`

	PickupAt string     `json:"pickupAt" binding:"required"` // "YYYY-MM-DD HH:MM:SS" or RFC3339, UTC
	Pickup   StopInput  `json:"pickup" binding:"required"`
	Stop1    *StopInput `json:"stop1,omitempty"`
	Stop2    *StopInput `json:"stop2,omitempty"`
	Dropoff  StopInput  `json:"dropoff" binding:"required"`

	FlightNumber  string `json:"flightNumber"`
	Comment       string `json:"comment"`
	ExpectedPrice string `json:"expectedPrice"` // kronor, e.g. "545.00"
}

// Itinerary returns addresses in trip order.
func (in CreateBookingInput) Itinerary() []string {
	out := []string{in.Pickup.Address}
	if in.Stop1 != nil {
		out = append(out, in.Stop1.Address)
	}
	if in.Stop2 != nil {
		out = append(out, in.Stop2.Address)
	}
	return append(out, in.Dropoff.Address)
}

func (in CreateBookingInput) coordinates() []maps.Coordinate {
	out := []maps.Coordinate{{Lat: in.Pickup.Lat, Lng: in.Pickup.Lng}}
	if in.Stop1 != nil {
		out = append(out, maps.Coordinate{Lat: in.Stop1.Lat, Lng: in.Stop1.Lng})
	}
	if in.Stop2 != nil {
		out = append(out, maps.Coordinate{Lat: in.Stop2.Lat, Lng: in.Stop2.Lng})
	}
	return append(out, maps.Coordinate{Lat: in.Dropoff.Lat, Lng: in.Dropoff.Lng})
}

// BookingValidator runs the creation checks in order, short-circuiting on the
// first failure: pickup window, route verification, airport flight-number
// rule, price computation, optional client-price reconciliation.
type BookingValidator struct {
	Routes       maps.RouteLookup
	SettingsRepo repositories.SettingsRepository
	Pricing      PricingService

	LeadTime     time.Duration
	ToleranceOre int64
	Airport      string

	Now       func() time.Time
	RequestID string
}

func (v BookingValidator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return utils.NowUTC()
}

// Validate returns the verified pickup time, route and computed price, or a
// typed error. The route provider is never called when the pickup window
// check fails.
func (v BookingValidator) Validate(ctx context.Context, in CreateBookingInput) (time.Time, maps.RouteInfo, int64, error) {
	pickupAt, err := utils.ParseDateTime(in.PickupAt)
	if err != nil {
		return time.Time{}, maps.RouteInfo{}, 0, domain.ValidationError{Field: "pickupAt", Msg: "invalid pickup time format", Err: err}
	}

	earliest := v.now().Add(v.LeadTime)
	if pickupAt.Before(earliest) {
		return time.Time{}, maps.RouteInfo{}, 0, domain.ValidationError{
			Field: "pickupAt",
			Msg:   fmt.Sprintf("pickup must be at least %s from now", v.LeadTime),
		}
	}

	route, err := v.Routes.Route(ctx, in.coordinates(), in.Itinerary())
	if err != nil {
		utils.LogError(v.RequestID, "booking", "route_verify", err)
		return time.Time{}, maps.RouteInfo{}, 0, domain.ValidationError{Msg: "could not verify route"}
	}

	// Flight number is required when the pickup itself is the airport.
	if utils.ContainsFold(in.Pickup.Address, v.Airport) && utils.TrimOrEmpty(in.FlightNumber) == "" {
		return time.Time{}, maps.RouteInfo{}, 0, domain.ValidationError{
			Field: "flightNumber",
			Msg:   fmt.Sprintf("flight number is required for pickups at %s", v.Airport),
		}
	}

	cfg, err := v.SettingsRepo.Latest()
	if err != nil {
		return time.Time{}, maps.RouteInfo{}, 0, domain.InternalError{Msg: "pricing configuration unavailable", Err: err}
	}

	price := v.Pricing.Quote(route.Legs, cfg)

	if utils.TrimOrEmpty(in.ExpectedPrice) != "" {
		expected, err := utils.ParseSEKToOre(in.ExpectedPrice)
		if err != nil {
			return time.Time{}, maps.RouteInfo{}, 0, domain.ValidationError{Field: "expectedPrice", Msg: "invalid amount", Err: err}
		}
		if utils.AbsOre(expected, price) > v.ToleranceOre {
			return time.Time{}, maps.RouteInfo{}, 0, domain.ValidationError{
				Field: "expectedPrice",
				Msg:   fmt.Sprintf("price mismatch: expected %s, calculated %s", utils.FormatSEK(expected), utils.FormatSEK(price)),
			}
		}
	}

	return pickupAt, route, price, nil
}
