package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"eventhub/internal/model"
)

// recordingMailer captures the last message passed to Send.
type recordingMailer struct {
	to         string
	subject    string
	body       string
	attachment *Attachment
	err        error
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, htmlBody string, attachment *Attachment) error {
	m.to = to
	m.subject = subject
	m.body = htmlBody
	m.attachment = attachment
	return m.err
}

func testEvent() *model.Event {
	return &model.Event{
		ID:        12,
		Title:     "Quarterly Review",
		Location:  "Main Auditorium",
		StartTime: time.Date(2026, 10, 1, 14, 0, 0, 0, time.UTC),
	}
}

func TestEmailTicketIssuer_IssueTicket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("data"), "event=12")
		assert.Contains(t, r.URL.Query().Get("data"), "user=3")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	mailer := &recordingMailer{}
	issuer := NewEmailTicketIssuer(mailer, NewQRCodeClient(server.URL))

	user := &model.User{ID: 3, Email: "user@example.com", FullName: "User"}
	err := issuer.IssueTicket(context.Background(), user, testEvent())

	assert.NoError(t, err)
	assert.Equal(t, "user@example.com", mailer.to)
	assert.Equal(t, "Your ticket for Quarterly Review", mailer.subject)
	assert.Contains(t, mailer.body, "Quarterly Review")
	assert.NotNil(t, mailer.attachment)
	assert.Equal(t, "ticket-12.png", mailer.attachment.Filename)
	assert.Equal(t, []byte("png-bytes"), mailer.attachment.Data)
}

func TestEmailTicketIssuer_SendsWithoutQRWhenRenderingFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	mailer := &recordingMailer{}
	issuer := NewEmailTicketIssuer(mailer, NewQRCodeClient(server.URL))

	user := &model.User{ID: 3, Email: "user@example.com", FullName: "User"}
	err := issuer.IssueTicket(context.Background(), user, testEvent())

	assert.NoError(t, err)
	assert.Equal(t, "user@example.com", mailer.to)
	assert.Nil(t, mailer.attachment)
}

func TestQRCodeClient_Generate_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := NewQRCodeClient(server.URL).Generate(context.Background(), "payload")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestPickupMailer_Send(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pickup")
	mailer := NewPickupMailer(dir)

	attachment := &Attachment{Filename: "ticket-1.png", ContentType: "image/png", Data: []byte{1, 2, 3}}
	err := mailer.Send(context.Background(), "user@example.com", "Your ticket", "<p>hello</p>", attachment)
	assert.NoError(t, err)

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 2)

	var emlFound, attFound bool
	for _, entry := range entries {
		switch {
		case strings.HasSuffix(entry.Name(), ".eml"):
			emlFound = true
			data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			assert.NoError(t, err)
			assert.Contains(t, string(data), "To: user@example.com")
			assert.Contains(t, string(data), "Subject: Your ticket")
			assert.Contains(t, string(data), "<p>hello</p>")
		case strings.HasSuffix(entry.Name(), ".png"):
			attFound = true
		}
	}
	assert.True(t, emlFound)
	assert.True(t, attFound)
}
