package models

import "time"

// IdempotencyRecord is a dedup entry for a retried mutating request.
// At most one record exists per key; a race on insert resolves to the
// existing record rather than a uniqueness failure.
type IdempotencyRecord struct {
	ID         int64     `json:"id"`
	IdemKey    string    `json:"key"`
	BookingID  int64     `json:"bookingId"`
	Response   []byte    `json:"-"`
	StatusCode int       `json:"statusCode"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

func (r IdempotencyRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
