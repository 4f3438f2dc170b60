// Package mailer sends personalized attendance summary emails. Missing
// credentials degrade the feature to a reported "not configured" state
// instead of failing startup.
package mailer

import (
	"context"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/imayankmani/attendance-management-system/internal/model"
)

// Summary is the per-student payload rendered into one email.
type Summary struct {
	Name    string
	Email   string
	Total   int
	Present int
	Rate    float64
}

// Mailer sends attendance summaries through SendGrid.
type Mailer struct {
	client *sendgrid.Client
	from   string
}

// New returns a mailer, or nil when credentials are absent.
func New(apiKey, from string) *Mailer {
	if apiKey == "" || from == "" {
		return nil
	}
	return &Mailer{client: sendgrid.NewSendClient(apiKey), from: from}
}

// Configured reports whether email can be sent; safe on a nil receiver.
func (m *Mailer) Configured() bool { return m != nil }

// SendSummary emails one student their attendance summary.
func (m *Mailer) SendSummary(ctx context.Context, s Summary) error {
	if m == nil {
		return model.ErrNotConfigured
	}
	if s.Email == "" {
		return fmt.Errorf("%w: student has no email", model.ErrInvalid)
	}

	subject := "Your attendance summary"
	body := fmt.Sprintf(
		"Hello %s,\n\nYou attended %d of %d classes (%.0f%%).\n\nAttendance Office",
		s.Name, s.Present, s.Total, s.Rate*100)
	html := fmt.Sprintf(
		"<p>Hello %s,</p><p>You attended <b>%d of %d</b> classes (%.0f%%).</p><p>Attendance Office</p>",
		s.Name, s.Present, s.Total, s.Rate*100)

	msg := sgmail.NewSingleEmail(
		sgmail.NewEmail("Attendance System", m.from), subject,
		sgmail.NewEmail(s.Name, s.Email), body, html)

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("send to %s: %w", s.Email, err)
	}
	if resp.StatusCode >= 300 {
		log.Printf("sendgrid rejected mail to %s: %d %s", s.Email, resp.StatusCode, resp.Body)
		return fmt.Errorf("send to %s: status %d", s.Email, resp.StatusCode)
	}
	return nil
}
