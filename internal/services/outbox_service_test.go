package services

import (
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"backend/internal/domain/models"
	"backend/internal/repositories"
)

func newOutboxService(t *testing.T, sender *fakeSender) (OutboxService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	mock.MatchExpectationsInOrder(false)
	svc := OutboxService{
		Repo:      repositories.OutboxRepository{DB: db},
		Mailer:    sender,
		BatchSize: 20,
	}
	return svc, mock, func() { db.Close() }
}

func TestDeliverSendsImmediately(t *testing.T) {
	sender := &fakeSender{}
	svc, mock, closeDB := newOutboxService(t, sender)
	defer closeDB()

	mock.ExpectExec("INSERT INTO email_outbox").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE email_outbox SET status").
		WillReturnResult(sqlmock.NewResult(1, 1))

	svc.Deliver(7, "anna@example.com", models.MailGuestConfirm, map[string]string{"Name": "Anna"})

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(sender.sent))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("outbox not updated: %v", err)
	}
}

func TestDeliverFailureLeavesEntryPending(t *testing.T) {
	sender := &fakeSender{err: fmt.Errorf("smtp down")}
	svc, mock, closeDB := newOutboxService(t, sender)
	defer closeDB()

	mock.ExpectExec("INSERT INTO email_outbox").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec("UPDATE email_outbox SET attempts").
		WillReturnResult(sqlmock.NewResult(2, 1))

	// Must not panic or propagate; the sweep retries later.
	svc.Deliver(7, "anna@example.com", models.MailGuestConfirm, map[string]string{"Name": "Anna"})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("failed attempt not recorded: %v", err)
	}
}

func TestSweepOnceRetriesPending(t *testing.T) {
	sender := &fakeSender{}
	svc, mock, closeDB := newOutboxService(t, sender)
	defer closeDB()

	mock.ExpectQuery("FROM email_outbox").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "booking_id", "recipient", "kind", "vars", "status", "attempts", "last_error", "created_at", "sent_at"}).
			AddRow(3, 7, "anna@example.com", string(models.MailGuestConfirm), []byte(`{"Name":"Anna"}`), string(models.OutboxPending), 1, "smtp down", fixedNow(), nil).
			AddRow(4, 8, "bo@example.com", string(models.MailBookingConfirmed), []byte(`{"BookingID":"8"}`), string(models.OutboxPending), 0, nil, fixedNow(), nil))
	mock.ExpectExec("UPDATE email_outbox SET status").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec("UPDATE email_outbox SET status").
		WillReturnResult(sqlmock.NewResult(4, 1))

	sent, err := svc.SweepOnce()
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if sent != 2 {
		t.Fatalf("sent = %d, want 2", sent)
	}
	if sender.sent[0].Vars["Name"] != "Anna" {
		t.Fatalf("vars not decoded: %+v", sender.sent[0].Vars)
	}
}

func TestSweepParksEntryAfterMaxAttempts(t *testing.T) {
	sender := &fakeSender{err: fmt.Errorf("smtp still down")}
	svc, mock, closeDB := newOutboxService(t, sender)
	defer closeDB()
	svc.MaxAttempts = 3

	mock.ExpectQuery("FROM email_outbox").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "booking_id", "recipient", "kind", "vars", "status", "attempts", "last_error", "created_at", "sent_at"}).
			AddRow(5, 7, "anna@example.com", string(models.MailGuestConfirm), []byte(`{}`), string(models.OutboxPending), 2, "smtp down", fixedNow(), nil))
	mock.ExpectExec("UPDATE email_outbox SET attempts").
		WithArgs(3, "smtp still down", string(models.OutboxFailed), 5).
		WillReturnResult(sqlmock.NewResult(5, 1))

	if _, err := svc.SweepOnce(); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("entry not parked as failed: %v", err)
	}
}
