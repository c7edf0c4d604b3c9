package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/taskpulse-api/internal/events"
)

// MockEmitter implements events.Emitter and records emitted events.
type MockEmitter struct {
	EmitEventFn func(ctx context.Context, event *events.Event) error

	mu      sync.Mutex
	emitted []*events.Event
}

var _ events.Emitter = (*MockEmitter)(nil)

// EmitEvent implements events.Emitter.
func (m *MockEmitter) EmitEvent(ctx context.Context, event *events.Event) error {
	m.mu.Lock()
	m.emitted = append(m.emitted, event)
	m.mu.Unlock()

	if m.EmitEventFn != nil {
		return m.EmitEventFn(ctx, event)
	}
	return nil
}

// Events returns the emitted events of the given type, in order.
func (m *MockEmitter) Events(eventType string) []*events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*events.Event
	for _, e := range m.emitted {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
