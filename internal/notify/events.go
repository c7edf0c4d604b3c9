package notify

import (
	"context"
	"fmt"

	"github.com/phrazzld/taskpulse-api/internal/events"
)

// Account email subjects
const (
	SubjectWelcome       = "Welcome to Task Manager"
	SubjectPasswordReset = "Password reset request"
)

// AccountEventHandler turns account events into emails.
type AccountEventHandler struct {
	dispatcher Dispatcher
}

var _ events.Handler = (*AccountEventHandler)(nil)

// NewAccountEventHandler creates a handler that sends through dispatcher.
func NewAccountEventHandler(dispatcher Dispatcher) *AccountEventHandler {
	return &AccountEventHandler{dispatcher: dispatcher}
}

// HandleEvent implements events.Handler. Unknown event types are ignored.
func (h *AccountEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	switch event.Type {
	case events.TypeUserRegistered:
		var p events.UserRegistered
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
		}
		h.dispatcher.SendEmail(ctx, p.Email, SubjectWelcome, TemplateWelcome, map[string]any{
			"name": p.Name,
		})

	case events.TypePasswordResetRequested:
		var p events.PasswordResetRequested
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
		}
		h.dispatcher.SendEmail(ctx, p.Email, SubjectPasswordReset, TemplatePasswordReset, map[string]any{
			"name":           p.Name,
			"resetURL":       p.ResetURL,
			"expiresMinutes": p.ExpiresMinutes,
		})
	}
	return nil
}
