package notify

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountEventHandler(t *testing.T) {
	t.Parallel()

	t.Run("welcome email on registration", func(t *testing.T) {
		transport := &recordingTransport{}
		d, _ := newDispatcher(t, transport)
		h := NewAccountEventHandler(d)

		event, err := events.New(events.TypeUserRegistered, events.UserRegistered{
			UserID: uuid.New(), Email: "ada@example.com", Name: "Ada",
		})
		require.NoError(t, err)
		require.NoError(t, h.HandleEvent(context.Background(), event))

		require.Len(t, transport.sent, 1)
		assert.Equal(t, "ada@example.com", transport.sent[0].To)
		assert.Equal(t, SubjectWelcome, transport.sent[0].Subject)
		assert.Contains(t, transport.sent[0].HTMLBody, "Welcome to Task Manager, Ada!")
	})

	t.Run("reset link on password reset request", func(t *testing.T) {
		transport := &recordingTransport{}
		d, _ := newDispatcher(t, transport)
		h := NewAccountEventHandler(d)

		event, err := events.New(events.TypePasswordResetRequested, events.PasswordResetRequested{
			Email:          "ada@example.com",
			Name:           "Ada",
			ResetURL:       "http://localhost:3000/auth/reset-password?token=abc123",
			ExpiresMinutes: 10,
		})
		require.NoError(t, err)
		require.NoError(t, h.HandleEvent(context.Background(), event))

		require.Len(t, transport.sent, 1)
		assert.Equal(t, SubjectPasswordReset, transport.sent[0].Subject)
		assert.Contains(t, transport.sent[0].HTMLBody, "token=abc123")
		assert.Contains(t, transport.sent[0].HTMLBody, "within 10 minutes")
	})

	t.Run("unknown types are ignored", func(t *testing.T) {
		transport := &recordingTransport{}
		d, _ := newDispatcher(t, transport)
		h := NewAccountEventHandler(d)

		event, err := events.New("task.created", map[string]string{"id": "1"})
		require.NoError(t, err)
		require.NoError(t, h.HandleEvent(context.Background(), event))
		assert.Empty(t, transport.sent)
	})

	t.Run("malformed payload", func(t *testing.T) {
		d, _ := newDispatcher(t, &recordingTransport{})
		h := NewAccountEventHandler(d)

		event := &events.Event{Type: events.TypeUserRegistered, Payload: []byte(`"not an object"`)}
		assert.Error(t, h.HandleEvent(context.Background(), event))
	})
}
