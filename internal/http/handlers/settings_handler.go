package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	intconfig "backend/internal/config"
	"backend/internal/domain/models"
	"backend/internal/http/middleware"
	"backend/internal/repositories"
	"backend/internal/services"
	"backend/internal/utils"
)

type SettingsHandler struct {
	Env intconfig.Env
	DB  *sql.DB
}

func (h SettingsHandler) svc(c *gin.Context) services.SettingsService {
	return services.SettingsService{
		Repo:      repositories.SettingsRepository{DB: h.DB},
		RequestID: middleware.GetRequestID(c),
	}
}

func settingsPayload(s models.TaxiSettings) gin.H {
	return gin.H{
		"id":         s.ID,
		"kmRate":     utils.FormatSEK(s.KmRateOre),
		"minuteRate": utils.FormatSEK(s.MinuteRateOre),
		"startFee":   utils.FormatSEK(s.StartFeeOre),
		"zoneFee":    utils.FormatSEK(s.ZoneFeeOre),
		"updatedAt":  utils.FormatDateTime(s.UpdatedAt),
	}
}

// GET /api/admin/settings
func (h SettingsHandler) Get(c *gin.Context) {
	cfg, err := h.svc(c).Current()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	Respond(c, http.StatusOK, settingsPayload(cfg), "")
}

// PUT /api/admin/settings
func (h SettingsHandler) Update(c *gin.Context) {
	var req services.UpdateSettingsInput
	if !BindJSONOrError(c, &req) {
		return
	}
	cfg, err := h.svc(c).Update(req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	Respond(c, http.StatusOK, settingsPayload(cfg), "pricing settings updated")
}

// GET /api/admin/settings/history?limit=
func (h SettingsHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.svc(c).History(limit)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, s := range list {
		out = append(out, settingsPayload(s))
	}
	Respond(c, http.StatusOK, out, "")
}
