package repositories

import (
	"database/sql"

	"backend/internal/domain/models"
)

type OutboxRepository struct {
	DB *sql.DB
}

func (r OutboxRepository) Enqueue(e *models.EmailOutbox) error {
	res, err := r.DB.Exec(`
		INSERT INTO email_outbox (booking_id, recipient, kind, vars, status, attempts, created_at)
		VALUES (?,?,?,?,?,0,NOW())`,
		e.BookingID, e.Recipient, e.Kind, e.Vars, models.OutboxPending)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id
	e.Status = models.OutboxPending
	return nil
}

// ListPending fetches a batch of undelivered entries, oldest first.
func (r OutboxRepository) ListPending(limit int) ([]models.EmailOutbox, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.DB.Query(`
		SELECT id, booking_id, recipient, kind, vars, status, attempts, last_error, created_at, sent_at
		FROM email_outbox
		WHERE status=?
		ORDER BY created_at ASC
		LIMIT ?`, models.OutboxPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.EmailOutbox{}
	for rows.Next() {
		var e models.EmailOutbox
		if err := rows.Scan(&e.ID, &e.BookingID, &e.Recipient, &e.Kind, &e.Vars, &e.Status, &e.Attempts, &e.LastError, &e.CreatedAt, &e.SentAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r OutboxRepository) MarkSent(id int64) error {
	_, err := r.DB.Exec(`
		UPDATE email_outbox SET status=?, sent_at=NOW() WHERE id=?`,
		models.OutboxSent, id)
	return err
}

// MarkAttempt records a failed delivery. After maxAttempts the entry is
// parked as failed so the sweep stops retrying it.
func (r OutboxRepository) MarkAttempt(id int64, attempts, maxAttempts int, sendErr string) error {
	status := models.OutboxPending
	if attempts >= maxAttempts {
		status = models.OutboxFailed
	}
	_, err := r.DB.Exec(`
		UPDATE email_outbox SET attempts=?, last_error=?, status=? WHERE id=?`,
		attempts, sendErr, status, id)
	return err
}
