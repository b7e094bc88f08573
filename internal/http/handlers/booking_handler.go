package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"backend/internal/clients/maps"
	intconfig "backend/internal/config"
	"backend/internal/domain"
	"backend/internal/domain/models"
	"backend/internal/http/middleware"
	"backend/internal/mail"
	"backend/internal/repositories"
	"backend/internal/services"
	"backend/internal/utils"
)

type BookingHandler struct {
	Env    intconfig.Env
	DB     *sql.DB
	Routes maps.RouteLookup
	Mailer mail.Sender
}

func (h BookingHandler) svc(c *gin.Context) services.BookingService {
	reqID := middleware.GetRequestID(c)
	return services.BookingService{
		BookingRepo: repositories.BookingRepository{DB: h.DB},
		UserRepo:    repositories.UserRepository{DB: h.DB},
		Validator: services.BookingValidator{
			Routes:       h.Routes,
			SettingsRepo: repositories.SettingsRepository{DB: h.DB},
			Pricing: services.PricingService{
				Airport: h.Env.AirportName,
				Zone:    h.Env.ZoneMunicipalities,
			},
			LeadTime:     h.Env.BookingLeadTime,
			ToleranceOre: h.Env.PriceTolerance,
			Airport:      h.Env.AirportName,
			RequestID:    reqID,
		},
		Outbox: services.OutboxService{
			Repo:      repositories.OutboxRepository{DB: h.DB},
			Mailer:    h.Mailer,
			BatchSize: h.Env.OutboxBatchSize,
			RequestID: reqID,
		},
		TokenTTL:       h.Env.ConfirmTokenTTL,
		ConfirmBaseURL: h.Env.ConfirmBaseURL,
		RequestID:      reqID,
	}
}

func (h BookingHandler) driverSvc(c *gin.Context) services.DriverService {
	return services.DriverService{
		BookingRepo: repositories.BookingRepository{DB: h.DB},
		UserRepo:    repositories.UserRepository{DB: h.DB},
		Routes:      h.Routes,
		RequestID:   middleware.GetRequestID(c),
	}
}

// bookingPayload shapes a booking for the JSON envelope; money is formatted
// to two decimals, never exposed as floating point.
func bookingPayload(b models.Booking) gin.H {
	out := gin.H{
		"bookingId":      b.ID,
		"status":         b.Status,
		"pickupAt":       utils.FormatDateTime(b.PickupAt),
		"pickupAddress":  b.PickupAddress,
		"dropoffAddress": b.DropoffAddress,
		"distanceKm":     b.DistanceKm,
		"durationMin":    b.DurationMin,
		"price":          utils.FormatSEK(b.PriceOre),
		"isConfirmed":    b.IsConfirmed,
		"isAvailable":    b.IsAvailable,
	}
	if b.Stop1Address != nil {
		out["stop1Address"] = *b.Stop1Address
	}
	if b.Stop2Address != nil {
		out["stop2Address"] = *b.Stop2Address
	}
	if b.FlightNumber != nil {
		out["flightNumber"] = *b.FlightNumber
	}
	if b.Comment != nil {
		out["comment"] = *b.Comment
	}
	if b.DriverID != nil {
		out["driverId"] = *b.DriverID
	}
	return out
}

func bookingListPayload(list []models.Booking) []gin.H {
	out := make([]gin.H, 0, len(list))
	for _, b := range list {
		out = append(out, bookingPayload(b))
	}
	return out
}

// POST /api/booking/create
func (h BookingHandler) Create(c *gin.Context) {
	var req services.CreateBookingInput
	if !BindJSONOrError(c, &req) {
		return
	}

	result, err := h.svc(c).Create(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	payload := bookingPayload(result.Booking)
	payload["guest"] = result.Guest
	Respond(c, http.StatusCreated, payload, result.Message)
}

// GET /api/booking/confirm?token=...
func (h BookingHandler) Confirm(c *gin.Context) {
	booking, err := h.svc(c).Confirm(c.Request.Context(), c.Query("token"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	Respond(c, http.StatusOK, bookingPayload(booking), "booking confirmed")
}

// GET /api/booking/:id (authenticated owner or admin)
func (h BookingHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	booking, err := h.svc(c).GetForUser(c.Request.Context(), id, middleware.RequestContext(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	Respond(c, http.StatusOK, bookingPayload(booking), "")
}

// GET /api/booking/guest/:id?email=...
func (h BookingHandler) GetGuest(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	email := utils.TrimOrEmpty(c.Query("email"))
	if email == "" {
		RespondError(c, http.StatusBadRequest, "email query parameter is required", nil)
		return
	}
	booking, err := h.svc(c).GetGuest(c.Request.Context(), id, email)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	Respond(c, http.StatusOK, bookingPayload(booking), "")
}

// GET /api/booking/my-bookings?page=&pageSize= (authenticated)
func (h BookingHandler) MyBookings(c *gin.Context) {
	list, page, err := h.svc(c).ListMine(c.Request.Context(), middleware.RequestContext(c), queryPagination(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	Respond(c, http.StatusOK, gin.H{"bookings": bookingListPayload(list), "pagination": page}, "")
}

// GET /api/booking/available?page=&pageSize= (driver/admin)
func (h BookingHandler) Available(c *gin.Context) {
	list, page, err := h.svc(c).ListAvailable(c.Request.Context(), queryPagination(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	Respond(c, http.StatusOK, gin.H{"bookings": bookingListPayload(list), "pagination": page}, "")
}

// DELETE /api/booking/:id/cancel (authenticated owner)
func (h BookingHandler) Cancel(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.svc(c).Cancel(c.Request.Context(), id, middleware.RequestContext(c)); err != nil {
		RespondDomainError(c, err)
		return
	}
	Respond(c, http.StatusOK, gin.H{"bookingId": id}, "booking cancelled")
}

// DELETE /api/booking/guest/:id/cancel?email=...
func (h BookingHandler) CancelGuest(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	email := utils.TrimOrEmpty(c.Query("email"))
	if email == "" {
		RespondError(c, http.StatusBadRequest, "email query parameter is required", nil)
		return
	}
	if err := h.svc(c).CancelGuest(c.Request.Context(), id, email); err != nil {
		RespondDomainError(c, err)
		return
	}
	Respond(c, http.StatusOK, gin.H{"bookingId": id}, "booking cancelled")
}

// POST /api/booking/:id/assign (driver)
func (h BookingHandler) Assign(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.driverSvc(c).Assign(c.Request.Context(), id, middleware.RequestContext(c)); err != nil {
		RespondDomainError(c, err)
		return
	}
	Respond(c, http.StatusOK, gin.H{"bookingId": id}, "booking assigned")
}

// POST /api/booking/:id/complete (driver/admin)
func (h BookingHandler) Complete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.svc(c).Complete(c.Request.Context(), id, middleware.RequestContext(c)); err != nil {
		RespondDomainError(c, err)
		return
	}
	Respond(c, http.StatusOK, gin.H{"bookingId": id}, "booking completed")
}

// GET /api/booking/:id/receipt (authenticated owner or admin)
func (h BookingHandler) Receipt(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	// Ownership check reuses the booking lookup rules.
	if _, err := h.svc(c).GetForUser(c.Request.Context(), id, middleware.RequestContext(c)); err != nil {
		RespondDomainError(c, err)
		return
	}

	svc := services.ReceiptService{
		BookingRepo: repositories.BookingRepository{DB: h.DB},
		UserRepo:    repositories.UserRepository{DB: h.DB},
		RequestID:   middleware.GetRequestID(c),
	}
	pdf, filename, err := svc.Generate(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func queryPagination(c *gin.Context) domain.Pagination {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("pageSize"))
	return domain.Pagination{Page: page, PageSize: size}
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondDomainError(c, domain.ValidationError{Field: "id", Msg: "invalid id"})
		return 0, false
	}
	return id, true
}
