package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/domain/models"
	"backend/internal/mail"
	"backend/internal/repositories"
	"backend/internal/utils"
)

// OutboxService gives transactional email at-least-once delivery: every mail
// is recorded first, sent best-effort right away, and retried by the
// background sweep until it succeeds or runs out of attempts.
type OutboxService struct {
	Repo   repositories.OutboxRepository
	Mailer mail.Sender

	BatchSize   int
	MaxAttempts int
	RequestID   string
}

func (s OutboxService) maxAttempts() int {
	if s.MaxAttempts > 0 {
		return s.MaxAttempts
	}
	return 5
}

// Deliver records the mail and attempts an immediate send. A send failure is
// logged and left for the sweep; it never propagates to the caller.
func (s OutboxService) Deliver(bookingID int64, recipient string, kind models.MailKind, vars map[string]string) {
	raw, err := json.Marshal(vars)
	if err != nil {
		utils.LogError(s.RequestID, "outbox", "marshal_vars", err)
		return
	}
	entry := models.EmailOutbox{
		BookingID: bookingID,
		Recipient: recipient,
		Kind:      kind,
		Vars:      raw,
	}
	if err := s.Repo.Enqueue(&entry); err != nil {
		utils.LogError(s.RequestID, "outbox", "enqueue", err)
		// Fall through to a direct send attempt; losing the retry record is
		// better than losing the mail entirely.
		if sendErr := s.Mailer.Send(recipient, kind, vars); sendErr != nil {
			utils.LogError(s.RequestID, "outbox", "send", sendErr)
		}
		return
	}

	if err := s.Mailer.Send(recipient, kind, vars); err != nil {
		utils.LogError(s.RequestID, "outbox", "send", err)
		_ = s.Repo.MarkAttempt(entry.ID, 1, s.maxAttempts(), err.Error())
		return
	}
	if err := s.Repo.MarkSent(entry.ID); err != nil {
		utils.LogError(s.RequestID, "outbox", "mark_sent", err)
	}
}

// SweepOnce retries a batch of pending entries. Returns how many were sent.
func (s OutboxService) SweepOnce() (int, error) {
	pending, err := s.Repo.ListPending(s.BatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, e := range pending {
		var vars map[string]string
		if err := json.Unmarshal(e.Vars, &vars); err != nil {
			_ = s.Repo.MarkAttempt(e.ID, s.maxAttempts(), s.maxAttempts(), fmt.Sprintf("bad vars: %v", err))
			continue
		}
		if err := s.Mailer.Send(e.Recipient, e.Kind, vars); err != nil {
			utils.LogError(s.RequestID, "outbox", "sweep_send", err)
			_ = s.Repo.MarkAttempt(e.ID, e.Attempts+1, s.maxAttempts(), err.Error())
			continue
		}
		if err := s.Repo.MarkSent(e.ID); err != nil {
			utils.LogError(s.RequestID, "outbox", "sweep_mark_sent", err)
			continue
		}
		sent++
	}
	return sent, nil
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s OutboxService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	utils.LogEvent("", "outbox", "start", fmt.Sprintf("interval=%s batch=%d", interval, s.BatchSize))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.SweepOnce(); err != nil {
				utils.LogError("", "outbox", "sweep", err)
			} else if n > 0 {
				utils.LogEvent("", "outbox", "sweep", fmt.Sprintf("sent=%d", n))
			}
		}
	}
}
