package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskpulse-api/internal/api/shared"
	"github.com/phrazzld/taskpulse-api/internal/notify"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
)

// templateChecker is implemented by dispatchers that can tell whether a
// template exists before sending.
type templateChecker interface {
	HasTemplate(name string) bool
}

// NotificationHandler exposes the dispatcher to administrators.
type NotificationHandler struct {
	dispatcher notify.Dispatcher
	logger     *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(dispatcher notify.Dispatcher, logger *slog.Logger) *NotificationHandler {
	if dispatcher == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("dispatcher cannot be nil for NotificationHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{
		dispatcher: dispatcher,
		logger:     logger.With(slog.String("component", "notification_handler")),
	}
}

// SendEmail handles POST /notification/email. Delivery failures are logged
// by the dispatcher and do not change the response. Delivery is detached
// from the request so a client disconnect does not abort it.
func (h *NotificationHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req SendEmailRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	if checker, ok := h.dispatcher.(templateChecker); ok && !checker.HasTemplate(req.Template) {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Unknown template")
		return
	}
	if req.Data == nil {
		req.Data = map[string]any{}
	}

	h.dispatcher.SendEmail(context.WithoutCancel(r.Context()), req.To, req.Subject, req.Template, req.Data)
	log.Info("email dispatched", "template", req.Template)

	shared.RespondWithJSON(w, r, http.StatusAccepted, shared.MessageResponse{Message: "Email dispatched"})
}
