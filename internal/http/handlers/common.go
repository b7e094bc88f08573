package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backend/internal/http/middleware"
)

// Respond sends the standard success envelope {data, message} with
// request_id included.
func Respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"data":       data,
		"message":    message,
		"request_id": middleware.GetRequestID(c),
	})
}

// RespondError sends the standard error payload with request_id included.
func RespondError(c *gin.Context, status int, message string, err error) {
	payload := gin.H{
		"message":    message,
		"request_id": middleware.GetRequestID(c),
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	c.JSON(status, payload)
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil {
		RespondError(c, http.StatusBadRequest, "empty body", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid payload", err)
		return false
	}
	return true
}
