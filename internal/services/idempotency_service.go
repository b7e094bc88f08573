package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"backend/internal/domain/models"
	"backend/internal/repositories"
	"backend/internal/utils"
)

// IdempotencyService backs the idempotency middleware with keyed records and
// runs the periodic expiry sweep.
type IdempotencyService struct {
	Repo repositories.IdempotencyRepository
	TTL  time.Duration
	Now  func() time.Time
}

func (s IdempotencyService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

// Lookup returns a non-expired record for the key.
func (s IdempotencyService) Lookup(key string) (models.IdempotencyRecord, bool, error) {
	return s.Repo.Get(key, s.now())
}

// Store persists the first response for a key. On a duplicate-key race the
// winning record is returned with raced=true so the caller can replay it.
func (s IdempotencyService) Store(key string, bookingID int64, body []byte, statusCode int) (models.IdempotencyRecord, bool, error) {
	now := s.now()
	rec := models.IdempotencyRecord{
		IdemKey:    key,
		BookingID:  bookingID,
		Response:   body,
		StatusCode: statusCode,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.TTL),
	}
	return s.Repo.Insert(&rec)
}

// SweepOnce purges expired records.
func (s IdempotencyService) SweepOnce() (int64, error) {
	return s.Repo.DeleteExpired(s.now())
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s IdempotencyService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	utils.LogEvent("", "idempotency", "start", fmt.Sprintf("interval=%s ttl=%s", interval, s.TTL))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.SweepOnce(); err != nil {
				utils.LogError("", "idempotency", "sweep", err)
			} else if n > 0 {
				utils.LogEvent("", "idempotency", "sweep", fmt.Sprintf("purged=%d", n))
			}
		}
	}
}

// ExtractBookingID searches a JSON response body recursively for a field
// named "bookingId" (case-insensitive) and returns its integer value.
func ExtractBookingID(body []byte) (int64, bool) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return 0, false
	}
	return findBookingID(doc)
}

func findBookingID(node any) (int64, bool) {
	switch v := node.(type) {
	case map[string]any:
		for key, val := range v {
			if strings.EqualFold(key, "bookingId") {
				if id, ok := asInt64(val); ok {
					return id, true
				}
			}
		}
		for _, val := range v {
			if id, ok := findBookingID(val); ok {
				return id, true
			}
		}
	case []any:
		for _, item := range v {
			if id, ok := findBookingID(item); ok {
				return id, true
			}
		}
	}
	return 0, false
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	case string:
		var i int64
		if _, err := fmt.Sscanf(n, "%d", &i); err == nil {
			return i, true
		}
	}
	return 0, false
}
