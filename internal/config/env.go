package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Env holds all externally supplied configuration. Components receive the
// values they need at construction time instead of reading globals.
type Env struct {
	AppAddr string
	GinMode string

	DBUser string
	DBPass string
	DBHost string
	DBName string

	JWTSecret string
	JWTTTL    time.Duration

	// Booking rules
	BookingLeadTime    time.Duration
	PriceTolerance     int64 // öre
	ConfirmTokenTTL    time.Duration
	AirportName        string
	ZoneMunicipalities []string

	// Idempotency
	IdempotencyTTL           time.Duration
	IdempotencySweepInterval time.Duration

	// Email outbox
	OutboxSweepInterval time.Duration
	OutboxBatchSize     int

	// Mail
	SMTPHost        string
	SMTPPort        int
	SMTPUser        string
	SMTPPass        string
	MailFrom        string
	MailTemplateDir string
	ConfirmBaseURL  string

	// Route provider
	RouteBaseURL string
	RouteTimeout time.Duration

	// Rate limit in ulule/limiter notation, e.g. "30-M"
	RateLimit string

	LogFile string
}

func LoadEnv() Env {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return Env{
		AppAddr: getString("APP_ADDR", ":8080"),
		GinMode: strings.TrimSpace(os.Getenv("GIN_MODE")),

		DBUser: getString("DB_USER", "root"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: getString("DB_HOST", "127.0.0.1:3306"),
		DBName: getString("DB_NAME", "taxi_app"),

		JWTSecret: getString("JWT_SECRET", "super-secret-key-change-me"),
		JWTTTL:    getDuration("JWT_TTL", 24*time.Hour),

		BookingLeadTime:    getDuration("BOOKING_LEAD_TIME", 24*time.Hour),
		PriceTolerance:     getInt64("PRICE_TOLERANCE_ORE", 500),
		ConfirmTokenTTL:    getDuration("CONFIRM_TOKEN_TTL", 24*time.Hour),
		AirportName:        getString("AIRPORT_NAME", "Arlanda"),
		ZoneMunicipalities: getList("ZONE_MUNICIPALITIES", []string{"Stockholm", "Solna", "Sundbyberg", "Danderyd", "Lidingö"}),

		IdempotencyTTL:           getDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		IdempotencySweepInterval: getDuration("IDEMPOTENCY_SWEEP_INTERVAL", 10*time.Minute),

		OutboxSweepInterval: getDuration("OUTBOX_SWEEP_INTERVAL", time.Minute),
		OutboxBatchSize:     int(getInt64("OUTBOX_BATCH_SIZE", 20)),

		SMTPHost:        getString("SMTP_HOST", "localhost"),
		SMTPPort:        int(getInt64("SMTP_PORT", 587)),
		SMTPUser:        os.Getenv("SMTP_USERNAME"),
		SMTPPass:        os.Getenv("SMTP_PASSWORD"),
		MailFrom:        getString("MAIL_FROM", "noreply@taxi.example"),
		MailTemplateDir: getString("MAIL_TEMPLATE_DIR", "templates/email"),
		ConfirmBaseURL:  getString("CONFIRM_BASE_URL", "http://localhost:8080/api/booking/confirm"),

		RouteBaseURL: getString("ROUTE_BASE_URL", "https://router.project-osrm.org"),
		RouteTimeout: getDuration("ROUTE_TIMEOUT", 10*time.Second),

		RateLimit: getString("RATE_LIMIT", "30-M"),

		LogFile: strings.TrimSpace(os.Getenv("LOG_FILE")),
	}
}

func getString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func getList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
