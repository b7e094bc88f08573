package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"backend/internal/repositories"
	"backend/internal/services"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func newIdempotencyRouter(t *testing.T, handler gin.HandlerFunc) (*gin.Engine, sqlmock.Sqlmock, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	mock.MatchExpectationsInOrder(false)

	svc := services.IdempotencyService{
		Repo: repositories.IdempotencyRepository{DB: db},
		TTL:  24 * time.Hour,
		Now:  fixedNow,
	}

	r := gin.New()
	r.Use(RequestID(), gin.Recovery())
	r.POST("/create", Idempotency(svc), handler)
	return r, mock, func() { db.Close() }
}

func TestIdempotencyRequiresKey(t *testing.T) {
	r, _, closeDB := newIdempotencyRouter(t, func(c *gin.Context) {
		t.Fatalf("handler must not run without an idempotency key")
	})
	defer closeDB()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/create", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestIdempotencyStoresFirstResponse(t *testing.T) {
	r, mock, closeDB := newIdempotencyRouter(t, func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"bookingId": 42, "status": "confirmed"})
	})
	defer closeDB()

	mock.ExpectQuery("FROM idempotency_records").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "idem_key", "booking_id", "response_body", "status_code", "created_at", "expires_at"}))
	mock.ExpectExec("INSERT INTO idempotency_records").
		WillReturnResult(sqlmock.NewResult(1, 1))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/create", nil)
	req.Header.Set(IdempotencyKeyHeader, "key-1")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"bookingId":42`) {
		t.Fatalf("body = %q", w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("response was not stored: %v", err)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	r, mock, closeDB := newIdempotencyRouter(t, func(c *gin.Context) {
		t.Fatalf("handler must not run on a replayed key")
	})
	defer closeDB()

	stored := `{"data":{"bookingId":42},"message":"Booking confirmed."}`
	mock.ExpectQuery("FROM idempotency_records").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "idem_key", "booking_id", "response_body", "status_code", "created_at", "expires_at"}).
			AddRow(1, "key-1", 42, []byte(stored), 201, fixedNow(), fixedNow().Add(24*time.Hour)))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/create", nil)
	req.Header.Set(IdempotencyKeyHeader, "key-1")
	r.ServeHTTP(w, req)

	if w.Code != 201 {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if w.Body.String() != stored {
		t.Fatalf("replay is not byte-for-byte: %q", w.Body.String())
	}
	if w.Header().Get("X-Idempotency-Replay") != "true" {
		t.Fatalf("replay header missing")
	}
}

func TestIdempotencyPanickingHandlerStillReturns500(t *testing.T) {
	r, mock, closeDB := newIdempotencyRouter(t, func(c *gin.Context) {
		panic("boom")
	})
	defer closeDB()

	mock.ExpectQuery("FROM idempotency_records").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "idem_key", "booking_id", "response_body", "status_code", "created_at", "expires_at"}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/create", nil)
	req.Header.Set(IdempotencyKeyHeader, "key-3")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("panicking handler returned status %d, want 500", w.Code)
	}
}

func TestIdempotencySkipsStoreOnFailure(t *testing.T) {
	r, mock, closeDB := newIdempotencyRouter(t, func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "pickup must be at least 24h0m0s from now"})
	})
	defer closeDB()

	// Only the lookup runs; failed responses are never recorded.
	mock.ExpectQuery("FROM idempotency_records").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "idem_key", "booking_id", "response_body", "status_code", "created_at", "expires_at"}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/create", nil)
	req.Header.Set(IdempotencyKeyHeader, "key-2")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected store on failure: %v", err)
	}
}
