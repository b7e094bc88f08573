package repositories

import (
	"database/sql"

	"backend/internal/domain/models"
)

type SettingsRepository struct {
	DB *sql.DB
}

// Latest returns the authoritative pricing row. History is retained but only
// the most recently updated row is ever queried.
func (r SettingsRepository) Latest() (models.TaxiSettings, error) {
	var s models.TaxiSettings
	err := r.DB.QueryRow(`
		SELECT id, km_rate_ore, minute_rate_ore, start_fee_ore, zone_fee_ore, updated_at
		FROM taxi_settings
		ORDER BY updated_at DESC, id DESC
		LIMIT 1`).
		Scan(&s.ID, &s.KmRateOre, &s.MinuteRateOre, &s.StartFeeOre, &s.ZoneFeeOre, &s.UpdatedAt)
	return s, err
}

// Insert appends a new settings version instead of updating in place.
func (r SettingsRepository) Insert(s *models.TaxiSettings) error {
	res, err := r.DB.Exec(`
		INSERT INTO taxi_settings (km_rate_ore, minute_rate_ore, start_fee_ore, zone_fee_ore, updated_at)
		VALUES (?,?,?,?,NOW())`,
		s.KmRateOre, s.MinuteRateOre, s.StartFeeOre, s.ZoneFeeOre)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

// History lists retained versions, newest first.
func (r SettingsRepository) History(limit int) ([]models.TaxiSettings, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.DB.Query(`
		SELECT id, km_rate_ore, minute_rate_ore, start_fee_ore, zone_fee_ore, updated_at
		FROM taxi_settings
		ORDER BY updated_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.TaxiSettings{}
	for rows.Next() {
		var s models.TaxiSettings
		if err := rows.Scan(&s.ID, &s.KmRateOre, &s.MinuteRateOre, &s.StartFeeOre, &s.ZoneFeeOre, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
