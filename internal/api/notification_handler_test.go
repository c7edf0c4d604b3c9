package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/phrazzld/taskpulse-api/internal/mocks"
	"github.com/phrazzld/taskpulse-api/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedMail struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (c *capturedMail) Send(_ context.Context, msg notify.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *capturedMail) messages() []notify.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notify.Message(nil), c.sent...)
}

func newMailAPI(t *testing.T) (*testAPI, *capturedMail) {
	t.Helper()
	transport := &capturedMail{}
	renderer, err := notify.NewRenderer()
	require.NoError(t, err)
	dispatcher, err := notify.NewMailDispatcher(transport, renderer, "no-reply@taskpulse.local", discardLogger())
	require.NoError(t, err)
	return newTestAPIWithDispatcher(t, dispatcher), transport
}

func TestSendEmailRendersTemplate(t *testing.T) {
	t.Parallel()
	a, transport := newMailAPI(t)
	admin := a.registerAdmin(t, "admin@example.com")
	before := len(transport.messages())

	rr := a.do(t, http.MethodPost, "/api/notification/email", admin.AccessToken, SendEmailRequest{
		To:       "ada@example.com",
		Subject:  "Hello",
		Template: notify.TemplateWelcome,
		Data:     map[string]any{"name": "Ada"},
	})
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	sent := transport.messages()
	require.Len(t, sent, before+1)
	msg := sent[len(sent)-1]
	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "Hello", msg.Subject)
	assert.Equal(t, "no-reply@taskpulse.local", msg.From)
	assert.Contains(t, msg.HTMLBody, "Ada")
}

func TestSendEmailRejectsUnknownTemplate(t *testing.T) {
	t.Parallel()
	a, transport := newMailAPI(t)
	admin := a.registerAdmin(t, "admin@example.com")
	before := len(transport.messages())

	rr := a.do(t, http.MethodPost, "/api/notification/email", admin.AccessToken, SendEmailRequest{
		To: "ada@example.com", Subject: "Hello", Template: "does-not-exist",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Unknown template", errorMessage(t, rr))
	assert.Len(t, transport.messages(), before)
}

func TestSendEmailValidation(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)
	admin := a.registerAdmin(t, "admin@example.com")

	rr := a.do(t, http.MethodPost, "/api/notification/email", admin.AccessToken, SendEmailRequest{
		To: "not-an-email", Subject: "Hello", Template: notify.TemplateWelcome,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid to: invalid email format", errorMessage(t, rr))
}

func TestSendEmailWithoutTemplateCheck(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)
	admin := a.registerAdmin(t, "admin@example.com")

	rr := a.do(t, http.MethodPost, "/api/notification/email", admin.AccessToken, SendEmailRequest{
		To: "ada@example.com", Subject: "Hi", Template: "custom",
	})
	require.Equal(t, http.StatusAccepted, rr.Code)

	calls := a.dispatcher.EmailsWithTemplate("custom")
	require.Len(t, calls, 1)
	assert.Equal(t, map[string]any{}, calls[0].Data)
}

func TestSendEmailSurvivesClientDisconnect(t *testing.T) {
	t.Parallel()
	var sendErr error
	dispatcher := &mocks.MockDispatcher{
		SendEmailFn: func(ctx context.Context, _, _, _ string, _ map[string]any) {
			sendErr = ctx.Err()
		},
	}
	h := NewNotificationHandler(dispatcher, discardLogger())

	body, err := json.Marshal(SendEmailRequest{To: "ada@example.com", Subject: "Hi", Template: "custom"})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/notification/email", bytes.NewReader(body)).WithContext(ctx)
	rr := httptest.NewRecorder()

	h.SendEmail(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	require.Len(t, dispatcher.Emails(), 1)
	assert.NoError(t, sendErr)
}
