package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"backend/internal/clients/maps"
	"backend/internal/domain"
	"backend/internal/domain/models"
	"backend/internal/repositories"
	"backend/internal/utils"
)

// DriverService handles drivers claiming available bookings, including the
// travel-feasibility check between two consecutive jobs.
type DriverService struct {
	BookingRepo repositories.BookingRepository
	UserRepo    repositories.UserRepository
	Routes      maps.RouteLookup
	RequestID   string
}

// Assign lets the authenticated driver claim an available booking. Before
// claiming we check the driver can plausibly travel from their previous job:
// previous pickup + previous trip duration + transfer duration must not pass
// the new booking's pickup time.
func (s DriverService) Assign(ctx context.Context, bookingID int64, rc domain.RequestContext) error {
	driver, err := s.UserRepo.GetDriverByUserID(rc.UserID)
	if err == sql.ErrNoRows {
		return domain.ForbiddenError{Msg: "driver profile required"}
	}
	if err != nil {
		return domain.InternalError{Msg: "driver lookup failed", Err: err}
	}

	b, err := s.BookingRepo.GetByID(bookingID)
	if err == sql.ErrNoRows {
		return domain.NotFoundError{Resource: "booking"}
	}
	if err != nil {
		return domain.InternalError{Msg: "booking lookup failed", Err: err}
	}

	if err := s.checkTravelFeasibility(ctx, driver, b); err != nil {
		return err
	}

	ok, err := s.BookingRepo.AssignDriver(b.ID, driver.ID)
	if err != nil {
		return domain.InternalError{Msg: "could not assign driver", Err: err}
	}
	if !ok {
		return domain.ConflictError{Resource: "booking", Msg: "booking is no longer available"}
	}
	utils.LogEvent(s.RequestID, "driver", "assign", fmt.Sprintf("booking_id=%d driver_id=%d", b.ID, driver.ID))
	return nil
}

func (s DriverService) checkTravelFeasibility(ctx context.Context, driver models.Driver, next models.Booking) error {
	prev, err := s.BookingRepo.LatestForDriverBefore(driver.ID, next.PickupAt)
	if err == sql.ErrNoRows {
		return nil // no earlier job, nothing to reconcile
	}
	if err != nil {
		return domain.InternalError{Msg: "could not load previous booking", Err: err}
	}

	transfer, err := s.Routes.Route(ctx,
		[]maps.Coordinate{
			{Lat: prev.DropoffLat, Lng: prev.DropoffLng},
			{Lat: next.PickupLat, Lng: next.PickupLng},
		},
		[]string{prev.DropoffAddress, next.PickupAddress},
	)
	if err != nil {
		utils.LogError(s.RequestID, "driver", "transfer_route", err)
		return domain.InternalError{Msg: "could not verify transfer route", Err: err}
	}

	freeAt := prev.PickupAt.
		Add(time.Duration(prev.DurationMin * float64(time.Minute))).
		Add(time.Duration(transfer.DurationMin * float64(time.Minute)))
	if freeAt.After(next.PickupAt) {
		return domain.ConflictError{
			Resource: "booking",
			Msg:      fmt.Sprintf("driver cannot reach the pickup in time (free at %s)", utils.FormatDateTime(freeAt)),
		}
	}
	return nil
}
