// Package notify delivers user notifications. Email goes through a Transport
// after rendering one of the embedded HTML templates; push notifications are
// a logged placeholder until a push provider is wired in.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
)

// Template names
const (
	TemplateTaskReminder  = "task-reminder"
	TemplateTaskOverdue   = "task-overdue"
	TemplateWelcome       = "welcome"
	TemplatePasswordReset = "password-reset"
)

// Dispatcher sends notifications. Implementations catch and log their own
// failures; callers are never handed an error.
type Dispatcher interface {
	SendEmail(ctx context.Context, to, subject, template string, data map[string]any)
	SendPush(ctx context.Context, userID uuid.UUID, title, body string)
}

// Message is a rendered email ready for delivery.
type Message struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
}

// Transport hands a rendered message to a mail system.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// MailDispatcher renders templates and sends them through a Transport.
type MailDispatcher struct {
	transport Transport
	renderer  *Renderer
	from      string
	logger    *slog.Logger
}

var _ Dispatcher = (*MailDispatcher)(nil)

// NewMailDispatcher creates a MailDispatcher that sends from the given address.
func NewMailDispatcher(transport Transport, renderer *Renderer, from string, logger *slog.Logger) (*MailDispatcher, error) {
	if transport == nil {
		return nil, errors.New("transport cannot be nil")
	}
	if renderer == nil {
		return nil, errors.New("renderer cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MailDispatcher{
		transport: transport,
		renderer:  renderer,
		from:      from,
		logger:    logger.With(slog.String("component", "notification_dispatcher")),
	}, nil
}

// SendEmail renders template with data and sends it to the recipient.
func (d *MailDispatcher) SendEmail(ctx context.Context, to, subject, template string, data map[string]any) {
	log := logger.FromContextOrDefault(ctx, d.logger).With(
		slog.String("to", to),
		slog.String("template", template),
	)
	log.Info("sending email", slog.String("subject", subject))

	body, err := d.renderer.Render(template, data)
	if err != nil {
		log.Error("failed to render email", slog.String("error", err.Error()))
		return
	}

	err = d.transport.Send(ctx, Message{
		From:     d.from,
		To:       to,
		Subject:  subject,
		HTMLBody: body,
	})
	if err != nil {
		log.Error("failed to send email", slog.String("error", err.Error()))
		return
	}

	log.Info("email sent", slog.String("subject", subject))
}

// SendPush logs the notification; no push provider is configured.
func (d *MailDispatcher) SendPush(ctx context.Context, userID uuid.UUID, title, body string) {
	logger.FromContextOrDefault(ctx, d.logger).Info("push notification",
		slog.String("user_id", userID.String()),
		slog.String("title", title),
		slog.String("body", body))
}

// HasTemplate reports whether an email template with this name exists.
func (d *MailDispatcher) HasTemplate(name string) bool {
	return d.renderer.Has(name)
}
