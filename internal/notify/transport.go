package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskpulse-api/internal/config"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/wneessen/go-mail"
)

// SMTPTransport delivers messages over SMTP.
type SMTPTransport struct {
	client *mail.Client
}

var _ Transport = (*SMTPTransport)(nil)

// NewSMTPTransport creates a transport for the configured SMTP server.
func NewSMTPTransport(cfg config.MailConfig) (*SMTPTransport, error) {
	policy, err := tlsPolicy(cfg.TLSPolicy)
	if err != nil {
		return nil, err
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(policy),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return &SMTPTransport{client: client}, nil
}

// Send implements Transport.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return fmt.Errorf("invalid sender %q: %w", msg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)

	if err := t.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp delivery failed: %w", err)
	}
	return nil
}

func tlsPolicy(name string) (mail.TLSPolicy, error) {
	switch name {
	case "", "opportunistic":
		return mail.TLSOpportunistic, nil
	case "mandatory":
		return mail.TLSMandatory, nil
	case "none":
		return mail.NoTLS, nil
	default:
		return mail.TLSOpportunistic, fmt.Errorf("unknown tls policy %q", name)
	}
}

// LogTransport writes messages to the log instead of sending them.
// It backs the "log" mail transport used in development.
type LogTransport struct {
	logger *slog.Logger
}

var _ Transport = (*LogTransport)(nil)

// NewLogTransport creates a LogTransport.
func NewLogTransport(logger *slog.Logger) *LogTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogTransport{logger: logger.With(slog.String("component", "log_mail_transport"))}
}

// Send implements Transport.
func (t *LogTransport) Send(ctx context.Context, msg Message) error {
	logger.FromContextOrDefault(ctx, t.logger).Info("email delivered to log",
		slog.String("from", msg.From),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Int("body_bytes", len(msg.HTMLBody)))
	return nil
}

// NewTransport builds the transport selected by cfg.Transport.
func NewTransport(cfg config.MailConfig, logger *slog.Logger) (Transport, error) {
	switch cfg.Transport {
	case config.MailTransportSMTP:
		return NewSMTPTransport(cfg)
	case config.MailTransportLog, "":
		return NewLogTransport(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
	}
}
