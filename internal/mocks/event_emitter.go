package mocks

import (
	"context"
	"sync"

	"github.com/taskdeck/taskdeck-api/internal/events"
)

// MockEventEmitter implements events.EventEmitter for testing. It records
// every emitted event so tests can assert on count and content.
type MockEventEmitter struct {
	mu sync.Mutex

	// EmitEventFn overrides the default recording behavior
	EmitEventFn func(ctx context.Context, event *events.NotificationEvent) error

	// Err is returned by the default implementation when set
	Err error

	// Emitted holds every event passed to EmitEvent
	Emitted []*events.NotificationEvent
}

// EmitEvent implements the EventEmitter interface
func (m *MockEventEmitter) EmitEvent(ctx context.Context, event *events.NotificationEvent) error {
	if m.EmitEventFn != nil {
		return m.EmitEventFn(ctx, event)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.Emitted = append(m.Emitted, event)
	return nil
}

// EventsOfType returns the recorded events with the given type.
func (m *MockEventEmitter) EventsOfType(eventType events.EventType) []*events.NotificationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*events.NotificationEvent
	for _, e := range m.Emitted {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
