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

// BookingService orchestrates the booking lifecycle: validate, build, persist,
// notify, respond. Email delivery is best-effort and never rolls a persisted
// booking back.
type BookingService struct {
	BookingRepo repositories.BookingRepository
	UserRepo    repositories.UserRepository
	Validator   BookingValidator
	Outbox      OutboxService

	TokenTTL       time.Duration
	ConfirmBaseURL string

	Now       func() time.Time
	NewToken  func() (string, error)
	RequestID string
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

func (s BookingService) newToken() (string, error) {
	if s.NewToken != nil {
		return s.NewToken()
	}
	return utils.NewConfirmationToken()
}

// CreateBookingResult distinguishes the guest and registered flows.
type CreateBookingResult struct {
	Booking models.Booking `json:"booking"`
	Guest   bool           `json:"guest"`
	Message string         `json:"message"`
}

// Create runs validator → factory → persistence → notification.
func (s BookingService) Create(ctx context.Context, in CreateBookingInput) (CreateBookingResult, error) {
	pickupAt, route, price, err := s.Validator.Validate(ctx, in)
	if err != nil {
		return CreateBookingResult{}, err
	}

	user, registered, err := s.UserRepo.GetByEmail(utils.TrimOrEmpty(in.Email))
	if err != nil {
		return CreateBookingResult{}, domain.InternalError{Msg: "user lookup failed", Err: err}
	}

	booking, err := s.buildBooking(in, pickupAt, route, price, user, registered)
	if err != nil {
		return CreateBookingResult{}, err
	}

	if err := s.BookingRepo.Create(&booking); err != nil {
		return CreateBookingResult{}, domain.InternalError{Msg: "could not save booking", Err: err}
	}
	utils.LogEvent(s.RequestID, "booking", "create", fmt.Sprintf("booking_id=%d guest=%t", booking.ID, !registered))

	result := CreateBookingResult{Booking: booking, Guest: !registered}
	if registered {
		result.Message = "Booking confirmed."
		s.Outbox.Deliver(booking.ID, user.Email, models.MailBookingConfirmed, s.confirmedMailVars(booking))
	} else {
		result.Message = "Booking created. Please confirm it via the link sent to your email."
		s.Outbox.Deliver(booking.ID, *booking.GuestEmail, models.MailGuestConfirm, s.guestMailVars(booking))
	}
	return result, nil
}

// buildBooking is the factory: guest vs registered shape is decided purely by
// whether a user record matched the request email.
func (s BookingService) buildBooking(in CreateBookingInput, pickupAt time.Time, route maps.RouteInfo, price int64, user models.User, registered bool) (models.Booking, error) {
	b := models.Booking{
		PickupAt:       pickupAt,
		PickupAddress:  utils.NormalizeSpace(in.Pickup.Address),
		PickupLat:      in.Pickup.Lat,
		PickupLng:      in.Pickup.Lng,
		DropoffAddress: utils.NormalizeSpace(in.Dropoff.Address),
		DropoffLat:     in.Dropoff.Lat,
		DropoffLng:     in.Dropoff.Lng,
		DistanceKm:     route.DistanceKm,
		DurationMin:    route.DurationMin,
		PriceOre:       price,
	}
	if in.Stop1 != nil {
		addr := utils.NormalizeSpace(in.Stop1.Address)
		b.Stop1Address, b.Stop1Lat, b.Stop1Lng = &addr, &in.Stop1.Lat, &in.Stop1.Lng
	}
	if in.Stop2 != nil {
		addr := utils.NormalizeSpace(in.Stop2.Address)
		b.Stop2Address, b.Stop2Lat, b.Stop2Lng = &addr, &in.Stop2.Lat, &in.Stop2.Lng
	}
	if fn := utils.TrimOrEmpty(in.FlightNumber); fn != "" {
		b.FlightNumber = &fn
	}
	if cm := utils.TrimOrEmpty(in.Comment); cm != "" {
		b.Comment = &cm
	}

	if registered {
		b.UserID = &user.ID
		b.Status = models.StatusConfirmed
		b.IsConfirmed = true
		b.IsAvailable = true
		return b, nil
	}

	email := utils.TrimOrEmpty(in.Email)
	first := utils.TrimOrEmpty(in.FirstName)
	last := utils.TrimOrEmpty(in.LastName)
	phone := utils.TrimOrEmpty(in.Phone)
	b.GuestEmail, b.GuestFirstName, b.GuestLastName, b.GuestPhone = &email, &first, &last, &phone

	token, err := s.newToken()
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "could not generate confirmation token", Err: err}
	}
	expires := s.now().Add(s.TokenTTL)
	b.ConfirmationToken, b.TokenExpiresAt = &token, &expires
	b.Status = models.StatusPendingEmailConfirmation
	b.IsConfirmed = false
	b.IsAvailable = false
	return b, nil
}

// Confirm converts a pending guest booking. An expired token deletes the
// booking outright and reports the deletion.
func (s BookingService) Confirm(ctx context.Context, token string) (models.Booking, error) {
	token = utils.TrimOrEmpty(token)
	if token == "" {
		return models.Booking{}, domain.ValidationError{Field: "token", Msg: "token is required"}
	}

	b, err := s.BookingRepo.GetByToken(token)
	if err == sql.ErrNoRows {
		return models.Booking{}, domain.ValidationError{Msg: "invalid or already used confirmation token"}
	}
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "token lookup failed", Err: err}
	}

	if b.TokenExpiresAt != nil && !s.now().Before(*b.TokenExpiresAt) {
		if err := s.BookingRepo.Delete(b.ID); err != nil {
			return models.Booking{}, domain.InternalError{Msg: "could not remove expired booking", Err: err}
		}
		utils.LogEvent(s.RequestID, "booking", "confirm_expired", fmt.Sprintf("booking_id=%d deleted", b.ID))
		return models.Booking{}, domain.ValidationError{Msg: "confirmation token expired; the booking has been removed"}
	}

	if b.IsConfirmed {
		return models.Booking{}, domain.ValidationError{Msg: "booking is already confirmed"}
	}

	ok, err := s.BookingRepo.Confirm(b.ID)
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "could not confirm booking", Err: err}
	}
	if !ok {
		// A concurrent confirm won the conditional update.
		return models.Booking{}, domain.ValidationError{Msg: "booking is already confirmed"}
	}
	utils.LogEvent(s.RequestID, "booking", "confirm", fmt.Sprintf("booking_id=%d", b.ID))

	confirmed, err := s.BookingRepo.GetByID(b.ID)
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "could not reload booking", Err: err}
	}
	if confirmed.GuestEmail != nil {
		s.Outbox.Deliver(confirmed.ID, *confirmed.GuestEmail, models.MailBookingConfirmed, s.confirmedMailVars(confirmed))
	}
	return confirmed, nil
}

// Cancel is owner-only for registered bookings.
func (s BookingService) Cancel(ctx context.Context, bookingID int64, rc domain.RequestContext) error {
	b, err := s.getBooking(bookingID)
	if err != nil {
		return err
	}
	if rc.Role != domain.RoleAdmin {
		if b.UserID == nil || *b.UserID != rc.UserID {
			return domain.ForbiddenError{Msg: "only the booking owner may cancel"}
		}
	}
	return s.cancel(b)
}

// CancelGuest cancels a guest booking identified by id plus guest email.
func (s BookingService) CancelGuest(ctx context.Context, bookingID int64, email string) error {
	b, err := s.BookingRepo.GetGuest(bookingID, utils.TrimOrEmpty(email))
	if err == sql.ErrNoRows {
		return domain.NotFoundError{Resource: "booking"}
	}
	if err != nil {
		return domain.InternalError{Msg: "booking lookup failed", Err: err}
	}
	return s.cancel(b)
}

func (s BookingService) cancel(b models.Booking) error {
	ok, err := s.BookingRepo.Cancel(b.ID)
	if err != nil {
		return domain.InternalError{Msg: "could not cancel booking", Err: err}
	}
	if !ok {
		return domain.ConflictError{Resource: "booking", Msg: "booking can no longer be cancelled"}
	}
	utils.LogEvent(s.RequestID, "booking", "cancel", fmt.Sprintf("booking_id=%d", b.ID))

	if addr := s.recipient(b); addr != "" {
		s.Outbox.Deliver(b.ID, addr, models.MailBookingCancelled, map[string]string{
			"BookingID": fmt.Sprintf("%d", b.ID),
			"Pickup":    b.PickupAddress,
			"Dropoff":   b.DropoffAddress,
		})
	}
	return nil
}

// Complete transitions confirmed → completed. Driver or admin only; the
// handler enforces the role, ownership of the job is checked here.
func (s BookingService) Complete(ctx context.Context, bookingID int64, rc domain.RequestContext) error {
	b, err := s.getBooking(bookingID)
	if err != nil {
		return err
	}
	if rc.Role == domain.RoleDriver {
		driver, err := s.UserRepo.GetDriverByUserID(rc.UserID)
		if err != nil || b.DriverID == nil || *b.DriverID != driver.ID {
			return domain.ForbiddenError{Msg: "booking is not assigned to this driver"}
		}
	}
	ok, err := s.BookingRepo.Complete(bookingID)
	if err != nil {
		return domain.InternalError{Msg: "could not complete booking", Err: err}
	}
	if !ok {
		return domain.ConflictError{Resource: "booking", Msg: "only confirmed bookings can be completed"}
	}
	utils.LogEvent(s.RequestID, "booking", "complete", fmt.Sprintf("booking_id=%d", bookingID))
	return nil
}

// GetForUser returns a booking to its owner (or an admin).
func (s BookingService) GetForUser(ctx context.Context, bookingID int64, rc domain.RequestContext) (models.Booking, error) {
	b, err := s.getBooking(bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if rc.Role != domain.RoleAdmin {
		if b.UserID == nil || *b.UserID != rc.UserID {
			return models.Booking{}, domain.ForbiddenError{Msg: "not your booking"}
		}
	}
	return b, nil
}

// GetGuest returns a guest booking when id and email match.
func (s BookingService) GetGuest(ctx context.Context, bookingID int64, email string) (models.Booking, error) {
	b, err := s.BookingRepo.GetGuest(bookingID, utils.TrimOrEmpty(email))
	if err == sql.ErrNoRows {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "booking lookup failed", Err: err}
	}
	return b, nil
}

func (s BookingService) ListMine(ctx context.Context, rc domain.RequestContext, p domain.Pagination) ([]models.Booking, domain.Pagination, error) {
	p = p.Normalized()
	out, err := s.BookingRepo.ListByUser(rc.UserID, p.PageSize, p.Offset())
	if err != nil {
		return nil, p, domain.InternalError{Msg: "could not list bookings", Err: err}
	}
	p.Total, err = s.BookingRepo.CountByUser(rc.UserID)
	if err != nil {
		return nil, p, domain.InternalError{Msg: "could not count bookings", Err: err}
	}
	return out, p, nil
}

func (s BookingService) ListAvailable(ctx context.Context, p domain.Pagination) ([]models.Booking, domain.Pagination, error) {
	p = p.Normalized()
	out, err := s.BookingRepo.ListAvailable(p.PageSize, p.Offset())
	if err != nil {
		return nil, p, domain.InternalError{Msg: "could not list available bookings", Err: err}
	}
	p.Total, err = s.BookingRepo.CountAvailable()
	if err != nil {
		return nil, p, domain.InternalError{Msg: "could not count available bookings", Err: err}
	}
	return out, p, nil
}

func (s BookingService) getBooking(id int64) (models.Booking, error) {
	b, err := s.BookingRepo.GetByID(id)
	if err == sql.ErrNoRows {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "booking lookup failed", Err: err}
	}
	return b, nil
}

func (s BookingService) recipient(b models.Booking) string {
	if b.GuestEmail != nil {
		return *b.GuestEmail
	}
	if b.UserID != nil {
		if u, err := s.UserRepo.GetByID(*b.UserID); err == nil {
			return u.Email
		}
	}
	return ""
}

func (s BookingService) guestMailVars(b models.Booking) map[string]string {
	name := ""
	if b.GuestFirstName != nil {
		name = *b.GuestFirstName
	}
	return map[string]string{
		"Name":       name,
		"BookingID":  fmt.Sprintf("%d", b.ID),
		"Pickup":     b.PickupAddress,
		"Dropoff":    b.DropoffAddress,
		"PickupAt":   utils.FormatDateTime(b.PickupAt),
		"Price":      utils.FormatSEK(b.PriceOre),
		"ConfirmURL": fmt.Sprintf("%s?token=%s", s.ConfirmBaseURL, *b.ConfirmationToken),
	}
}

func (s BookingService) confirmedMailVars(b models.Booking) map[string]string {
	return map[string]string{
		"BookingID": fmt.Sprintf("%d", b.ID),
		"Pickup":    b.PickupAddress,
		"Dropoff":   b.DropoffAddress,
		"PickupAt":  utils.FormatDateTime(b.PickupAt),
		"Price":     utils.FormatSEK(b.PriceOre),
	}
}
