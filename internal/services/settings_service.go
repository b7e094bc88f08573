package services

import (
	"database/sql"
	"fmt"

	"backend/internal/domain"
	"backend/internal/domain/models"
	"backend/internal/repositories"
	"backend/internal/utils"
)

// SettingsService manages versioned pricing configuration. Updates append a
// new row; the latest row is authoritative.
type SettingsService struct {
	Repo      repositories.SettingsRepository
	RequestID string
}

// UpdateSettingsInput carries amounts in kronor strings, parsed to öre.
type UpdateSettingsInput struct {
	KmRate     string `json:"kmRate" binding:"required"`
	MinuteRate string `json:"minuteRate" binding:"required"`
	StartFee   string `json:"startFee" binding:"required"`
	ZoneFee    string `json:"zoneFee" binding:"required"`
}

func (s SettingsService) Current() (models.TaxiSettings, error) {
	cfg, err := s.Repo.Latest()
	if err == sql.ErrNoRows {
		return models.TaxiSettings{}, domain.NotFoundError{Resource: "pricing settings"}
	}
	if err != nil {
		return models.TaxiSettings{}, domain.InternalError{Msg: "could not load settings", Err: err}
	}
	return cfg, nil
}

func (s SettingsService) Update(in UpdateSettingsInput) (models.TaxiSettings, error) {
	cfg := models.TaxiSettings{}
	fields := []struct {
		name string
		raw  string
		dst  *int64
	}{
		{"kmRate", in.KmRate, &cfg.KmRateOre},
		{"minuteRate", in.MinuteRate, &cfg.MinuteRateOre},
		{"startFee", in.StartFee, &cfg.StartFeeOre},
		{"zoneFee", in.ZoneFee, &cfg.ZoneFeeOre},
	}
	for _, f := range fields {
		ore, err := utils.ParseSEKToOre(f.raw)
		if err != nil {
			return models.TaxiSettings{}, domain.ValidationError{Field: f.name, Msg: "invalid amount", Err: err}
		}
		if ore < 0 {
			return models.TaxiSettings{}, domain.ValidationError{Field: f.name, Msg: "must not be negative"}
		}
		*f.dst = ore
	}

	if err := s.Repo.Insert(&cfg); err != nil {
		return models.TaxiSettings{}, domain.InternalError{Msg: "could not save settings", Err: err}
	}
	utils.LogEvent(s.RequestID, "settings", "update", fmt.Sprintf("settings_id=%d", cfg.ID))
	return cfg, nil
}

func (s SettingsService) History(limit int) ([]models.TaxiSettings, error) {
	out, err := s.Repo.History(limit)
	if err != nil {
		return nil, domain.InternalError{Msg: "could not load settings history", Err: err}
	}
	return out, nil
}
