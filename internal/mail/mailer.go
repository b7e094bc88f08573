package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"

	gomail "gopkg.in/gomail.v2"

	"backend/internal/config"
	"backend/internal/domain/models"
)

// Template describes one mail kind. The kind-to-template mapping is a finite
// registry built at construction time, not a switch inside the sender.
type Template struct {
	Subject string
	File    string
}

// DefaultRegistry maps every mail kind the service sends.
func DefaultRegistry() map[models.MailKind]Template {
	return map[models.MailKind]Template{
		models.MailGuestConfirm:     {Subject: "Confirm your taxi booking", File: "guest_confirm.html"},
		models.MailBookingConfirmed: {Subject: "Your taxi booking is confirmed", File: "booking_confirmed.html"},
		models.MailBookingCancelled: {Subject: "Your taxi booking was cancelled", File: "booking_cancelled.html"},
	}
}

// Sender delivers transactional email over SMTP.
type Sender interface {
	Send(to string, kind models.MailKind, vars map[string]string) error
}

type Mailer struct {
	dialer      *gomail.Dialer
	from        string
	templateDir string
	registry    map[models.MailKind]Template
}

func NewMailer(env config.Env) *Mailer {
	return &Mailer{
		dialer:      gomail.NewDialer(env.SMTPHost, env.SMTPPort, env.SMTPUser, env.SMTPPass),
		from:        env.MailFrom,
		templateDir: env.MailTemplateDir,
		registry:    DefaultRegistry(),
	}
}

func (m *Mailer) Send(to string, kind models.MailKind, vars map[string]string) error {
	tpl, ok := m.registry[kind]
	if !ok {
		return fmt.Errorf("unknown mail kind %q", kind)
	}

	t, err := template.ParseFiles(filepath.Join(m.templateDir, tpl.File))
	if err != nil {
		return fmt.Errorf("parse mail template %s: %w", tpl.File, err)
	}
	var body bytes.Buffer
	if err := t.Execute(&body, vars); err != nil {
		return fmt.Errorf("execute mail template %s: %w", tpl.File, err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", tpl.Subject)
	msg.SetBody("text/html", body.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
