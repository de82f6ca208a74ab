// Package notify handles the outbound side channels: ticket email delivery
// and QR image rendering. Nothing here is allowed to fail a registration.
package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Attachment is an optional binary part of an outbound email.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Mailer dispatches a single email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string, attachment *Attachment) error
}

// MailgunMailer sends mail through the Mailgun API.
type MailgunMailer struct {
	Domain string
	APIKey string
	Sender string
}

// NewMailgunMailer creates a Mailgun-backed mailer.
func NewMailgunMailer(domain, apiKey, sender string) *MailgunMailer {
	return &MailgunMailer{Domain: domain, APIKey: apiKey, Sender: sender}
}

// Send sends an email via Mailgun with a bounded timeout.
func (m *MailgunMailer) Send(ctx context.Context, to, subject, htmlBody string, attachment *Attachment) error {
	client := mg.NewMailgun(m.Domain, m.APIKey)
	msg := client.NewMessage(m.Sender, subject, "", to)
	msg.SetHtml(htmlBody)
	if attachment != nil {
		msg.AddBufferAttachment(attachment.Filename, attachment.Data)
	}
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := client.Send(c, msg)
	if err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	return nil
}

// PickupMailer writes messages to a local directory instead of sending them,
// for development and test environments without a mail account.
type PickupMailer struct {
	Dir string
}

// NewPickupMailer creates a pickup-directory mailer.
func NewPickupMailer(dir string) *PickupMailer {
	return &PickupMailer{Dir: dir}
}

// Send writes the message as an .eml file in the pickup directory.
func (m *PickupMailer) Send(ctx context.Context, to, subject, htmlBody string, attachment *Attachment) error {
	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return fmt.Errorf("create pickup dir: %w", err)
	}

	name := fmt.Sprintf("%d-%s.eml", time.Now().UnixNano(), sanitizeFilename(to))
	body := fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", to, subject, htmlBody)
	if err := os.WriteFile(filepath.Join(m.Dir, name), []byte(body), 0o644); err != nil {
		return fmt.Errorf("write pickup mail: %w", err)
	}

	if attachment != nil {
		attName := fmt.Sprintf("%d-%s", time.Now().UnixNano(), sanitizeFilename(attachment.Filename))
		if err := os.WriteFile(filepath.Join(m.Dir, attName), attachment.Data, 0o644); err != nil {
			return fmt.Errorf("write pickup attachment: %w", err)
		}
	}
	return nil
}

func sanitizeFilename(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
