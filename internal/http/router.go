package api

import (
	"database/sql"
	"log"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"

	"backend/internal/clients/maps"
	intconfig "backend/internal/config"
	"backend/internal/domain"
	h "backend/internal/http/handlers"
	"backend/internal/http/middleware"
	"backend/internal/mail"
	"backend/internal/services"
)

// NewRouter wires the full HTTP surface. Collaborators are injected so tests
// can swap the route provider and the mailer.
func NewRouter(env intconfig.Env, db *sql.DB, routes maps.RouteLookup, mailer mail.Sender, idem services.IdempotencyService) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS())

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"message": "route not found",
			"path":    c.Request.URL.Path,
			"method":  c.Request.Method,
		})
	})

	authH := h.AuthHandler{Env: env, DB: db}
	bookingH := h.BookingHandler{Env: env, DB: db, Routes: routes, Mailer: mailer}
	settingsH := h.SettingsHandler{Env: env, DB: db}

	requireAuth := middleware.RequireAuth(env.JWTSecret)
	rateLimit := middleware.RateLimit(env.RateLimit)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)

		auth := api.Group("/auth")
		auth.Use(rateLimit)
		auth.POST("/login", authH.Login)
		auth.POST("/register", authH.Register)

		booking := api.Group("/booking")
		{
			booking.POST("/create", rateLimit, middleware.Idempotency(idem), bookingH.Create)
			booking.GET("/confirm", bookingH.Confirm)

			booking.GET("/guest/:id", bookingH.GetGuest)
			booking.DELETE("/guest/:id/cancel", bookingH.CancelGuest)

			booking.GET("/my-bookings", requireAuth, bookingH.MyBookings)
			booking.GET("/:id", requireAuth, bookingH.Get)
			booking.DELETE("/:id/cancel", requireAuth, bookingH.Cancel)
			booking.GET("/:id/receipt", requireAuth, bookingH.Receipt)

			booking.GET("/available", requireAuth, middleware.RequireRoles(domain.RoleDriver, domain.RoleAdmin), bookingH.Available)
			booking.POST("/:id/assign", requireAuth, middleware.RequireRoles(domain.RoleDriver), bookingH.Assign)
			booking.POST("/:id/complete", requireAuth, middleware.RequireRoles(domain.RoleDriver, domain.RoleAdmin), bookingH.Complete)
		}

		admin := api.Group("/admin")
		admin.Use(requireAuth, middleware.RequireRoles(domain.RoleAdmin))
		admin.GET("/settings", settingsH.Get)
		admin.PUT("/settings", settingsH.Update)
		admin.GET("/settings/history", settingsH.History)
	}

	return r
}
