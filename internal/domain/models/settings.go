package models

import "time"

// TaxiSettings is versioned pricing configuration. All amounts are öre.
// Only the most recently updated row is authoritative; history is retained.
type TaxiSettings struct {
	ID            int64     `json:"id"`
	KmRateOre     int64     `json:"kmRateOre"`
	MinuteRateOre int64     `json:"minuteRateOre"`
	StartFeeOre   int64     `json:"startFeeOre"`
	ZoneFeeOre    int64     `json:"zoneFeeOre"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
