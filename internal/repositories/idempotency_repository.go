package repositories

import (
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"backend/internal/domain/models"
)

type IdempotencyRepository struct {
	DB *sql.DB
}

const mysqlDuplicateEntry = 1062

// Get returns the unexpired record for key, if any.
func (r IdempotencyRepository) Get(key string, now time.Time) (models.IdempotencyRecord, bool, error) {
	var rec models.IdempotencyRecord
	err := r.DB.QueryRow(`
		SELECT id, idem_key, booking_id, response_body, status_code, created_at, expires_at
		FROM idempotency_records
		WHERE idem_key=? AND expires_at > ?
		LIMIT 1`, key, now).
		Scan(&rec.ID, &rec.IdemKey, &rec.BookingID, &rec.Response, &rec.StatusCode, &rec.CreatedAt, &rec.ExpiresAt)
	if err == sql.ErrNoRows {
		return models.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return models.IdempotencyRecord{}, false, err
	}
	return rec, true, nil
}

// Insert stores a new record. A duplicate-key race resolves by re-reading the
// winning row instead of surfacing the uniqueness error.
func (r IdempotencyRepository) Insert(rec *models.IdempotencyRecord) (models.IdempotencyRecord, bool, error) {
	res, err := r.DB.Exec(`
		INSERT INTO idempotency_records (idem_key, booking_id, response_body, status_code, created_at, expires_at)
		VALUES (?,?,?,?,?,?)`,
		rec.IdemKey, rec.BookingID, rec.Response, rec.StatusCode, rec.CreatedAt, rec.ExpiresAt)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			winner, found, getErr := r.Get(rec.IdemKey, rec.CreatedAt)
			if getErr != nil {
				return models.IdempotencyRecord{}, false, getErr
			}
			if found {
				return winner, true, nil
			}
		}
		return models.IdempotencyRecord{}, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.IdempotencyRecord{}, false, err
	}
	rec.ID = id
	return *rec, false, nil
}

// DeleteExpired purges records past their expiry; returns rows removed.
func (r IdempotencyRepository) DeleteExpired(now time.Time) (int64, error) {
	res, err := r.DB.Exec(`DELETE FROM idempotency_records WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
