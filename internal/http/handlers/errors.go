package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backend/internal/domain"
	"backend/internal/http/middleware"
	"backend/internal/utils"
)

// RespondDomainError maps domain errors to HTTP responses. Validation and
// ownership failures surface their message; anything unexpected is logged and
// becomes a generic 500 so raw errors never reach the client.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		RespondError(c, http.StatusBadRequest, err.Error(), nil)
	case domain.IsNotFound(err):
		RespondError(c, http.StatusNotFound, err.Error(), nil)
	case domain.IsConflict(err):
		RespondError(c, http.StatusConflict, err.Error(), nil)
	case domain.IsUnauthorized(err):
		RespondError(c, http.StatusUnauthorized, err.Error(), nil)
	case domain.IsForbidden(err):
		RespondError(c, http.StatusForbidden, err.Error(), nil)
	default:
		utils.LogError(middleware.GetRequestID(c), "http", "internal_error", err)
		RespondError(c, http.StatusInternalServerError, "something went wrong", nil)
	}
}
