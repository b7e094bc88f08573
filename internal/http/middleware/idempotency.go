package middleware

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"backend/internal/services"
	"backend/internal/utils"
)

// IdempotencyKeyHeader is supplied by clients on retried mutating requests.
const IdempotencyKeyHeader = "Idempotency-Key"

// bufferedWriter holds back both status and body so the middleware can decide
// what actually reaches the client after the handler ran.
type bufferedWriter struct {
	gin.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (w *bufferedWriter) WriteHeader(code int) {
	w.status = code
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	return w.buf.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.buf.WriteString(s)
}

func (w *bufferedWriter) Status() int {
	if w.status != 0 {
		return w.status
	}
	return http.StatusOK
}

// Idempotency deduplicates retried creation requests. A replayed key returns
// the stored response byte-for-byte without re-invoking the handler; a
// concurrent duplicate insert resolves to the winning record.
func Idempotency(svc services.IdempotencyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := GetRequestID(c)

		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if key == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"message": IdempotencyKeyHeader + " header is required",
			})
			return
		}

		if rec, found, err := svc.Lookup(key); err != nil {
			utils.LogError(reqID, "idempotency", "lookup", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "something went wrong"})
			return
		} else if found {
			c.Header("X-Idempotency-Replay", "true")
			c.Data(rec.StatusCode, "application/json; charset=utf-8", rec.Response)
			c.Abort()
			return
		}

		original := c.Writer
		w := &bufferedWriter{ResponseWriter: original}
		c.Writer = w
		// Restored in a defer so a panicking handler unwinds with the real
		// writer in place and the recovery middleware's 500 reaches the client.
		defer func() { c.Writer = original }()

		c.Next()

		status := w.Status()
		body := w.buf.Bytes()

		if status >= 200 && status < 300 {
			if bookingID, ok := services.ExtractBookingID(body); ok {
				winner, raced, err := svc.Store(key, bookingID, body, status)
				if err != nil {
					utils.LogError(reqID, "idempotency", "store", err)
				} else if raced {
					status = winner.StatusCode
					body = winner.Response
					c.Header("X-Idempotency-Replay", "true")
				}
			} else {
				// The operation succeeded; only dedup-on-retry is lost.
				utils.LogEvent(reqID, "idempotency", "extract", "no bookingId in response body")
			}
		}

		original.WriteHeader(status)
		if len(body) > 0 {
			if _, err := original.Write(body); err != nil {
				utils.LogError(reqID, "idempotency", "write", err)
			}
		}
	}
}
