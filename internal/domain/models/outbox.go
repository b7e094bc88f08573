package models

import "time"

// OutboxStatus enumerates email outbox entry states.
type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
)

// MailKind selects an email template. The kind-to-template mapping lives in
// the mail package registry, not in the sender.
type MailKind string

const (
	MailGuestConfirm     MailKind = "guest_confirm"
	MailBookingConfirmed MailKind = "booking_confirmed"
	MailBookingCancelled MailKind = "booking_cancelled"
)

// EmailOutbox is an at-least-once delivery record. Failed sends stay pending
// and are retried by the background sweep.
type EmailOutbox struct {
	ID        int64        `json:"id"`
	BookingID int64        `json:"bookingId"`
	Recipient string       `json:"recipient"`
	Kind      MailKind     `json:"kind"`
	Vars      []byte       `json:"-"` // JSON-encoded template variables
	Status    OutboxStatus `json:"status"`
	Attempts  int          `json:"attempts"`
	LastError *string      `json:"-"`
	CreatedAt time.Time    `json:"createdAt"`
	SentAt    *time.Time   `json:"sentAt,omitempty"`
}
