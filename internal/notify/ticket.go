package notify

import (
	"context"
	"fmt"

	"eventhub/internal/model"
)

// TicketIssuer dispatches a ticket for a confirmed registration.
type TicketIssuer interface {
	IssueTicket(ctx context.Context, user *model.User, event *model.Event) error
}

// EmailTicketIssuer renders a QR ticket and emails it to the participant.
type EmailTicketIssuer struct {
	mailer Mailer
	qr     *QRCodeClient
}

// NewEmailTicketIssuer creates a ticket issuer over the given mailer and QR client.
func NewEmailTicketIssuer(mailer Mailer, qr *QRCodeClient) *EmailTicketIssuer {
	return &EmailTicketIssuer{mailer: mailer, qr: qr}
}

// IssueTicket generates the machine-readable ticket payload, renders it as a
// QR image and emails it. Callers treat any error as a logged side-channel
// failure, never as a registration failure.
func (i *EmailTicketIssuer) IssueTicket(ctx context.Context, user *model.User, event *model.Event) error {
	payload := fmt.Sprintf("eventhub:ticket:event=%d:user=%d:start=%s",
		event.ID, user.ID, event.StartTime.UTC().Format("2006-01-02T15:04:05Z"))

	var attachment *Attachment
	png, err := i.qr.Generate(ctx, payload)
	if err != nil {
		// Still send the confirmation without the QR image.
		attachment = nil
	} else {
		attachment = &Attachment{
			Filename:    fmt.Sprintf("ticket-%d.png", event.ID),
			ContentType: "image/png",
			Data:        png,
		}
	}

	subject := fmt.Sprintf("Your ticket for %s", event.Title)
	body := fmt.Sprintf(
		"<h2>You're registered!</h2><p>Hi %s,</p><p>Your registration for <strong>%s</strong> on %s at %s is confirmed.</p><p>Show the attached QR code at the entrance.</p>",
		user.FullName, event.Title,
		event.StartTime.Format("Jan 2, 2006 15:04"), event.Location)

	if err := i.mailer.Send(ctx, user.Email, subject, body, attachment); err != nil {
		return fmt.Errorf("send ticket mail: %w", err)
	}
	return nil
}
