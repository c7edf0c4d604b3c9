package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/notify"
)

// EmailCall records one SendEmail invocation.
type EmailCall struct {
	To       string
	Subject  string
	Template string
	Data     map[string]any
}

// PushCall records one SendPush invocation.
type PushCall struct {
	UserID uuid.UUID
	Title  string
	Body   string
}

// MockDispatcher implements notify.Dispatcher and records every call.
type MockDispatcher struct {
	// Custom behavior functions, called after the call is recorded
	SendEmailFn func(ctx context.Context, to, subject, template string, data map[string]any)
	SendPushFn  func(ctx context.Context, userID uuid.UUID, title, body string)

	mu     sync.Mutex
	emails []EmailCall
	pushes []PushCall
}

var _ notify.Dispatcher = (*MockDispatcher)(nil)

// SendEmail implements notify.Dispatcher.
func (m *MockDispatcher) SendEmail(ctx context.Context, to, subject, template string, data map[string]any) {
	m.mu.Lock()
	m.emails = append(m.emails, EmailCall{To: to, Subject: subject, Template: template, Data: data})
	m.mu.Unlock()

	if m.SendEmailFn != nil {
		m.SendEmailFn(ctx, to, subject, template, data)
	}
}

// SendPush implements notify.Dispatcher.
func (m *MockDispatcher) SendPush(ctx context.Context, userID uuid.UUID, title, body string) {
	m.mu.Lock()
	m.pushes = append(m.pushes, PushCall{UserID: userID, Title: title, Body: body})
	m.mu.Unlock()

	if m.SendPushFn != nil {
		m.SendPushFn(ctx, userID, title, body)
	}
}

// Emails returns a copy of the recorded email calls.
func (m *MockDispatcher) Emails() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]EmailCall(nil), m.emails...)
}

// EmailsWithTemplate returns the recorded email calls for one template.
func (m *MockDispatcher) EmailsWithTemplate(template string) []EmailCall {
	var out []EmailCall
	for _, call := range m.Emails() {
		if call.Template == template {
			out = append(out, call)
		}
	}
	return out
}

// Pushes returns a copy of the recorded push calls.
func (m *MockDispatcher) Pushes() []PushCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PushCall(nil), m.pushes...)
}

// Reset forgets all recorded calls.
func (m *MockDispatcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = nil
	m.pushes = nil
}
