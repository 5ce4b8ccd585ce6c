package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/taskdeck/taskdeck-api/internal/notify"
)

// MockSender implements notify.Sender for testing. It records every
// message handed to it and can be configured to fail all sends, or only
// the first few, to exercise retry behavior.
type MockSender struct {
	mu sync.Mutex

	// SendFn overrides the default behavior
	SendFn func(ctx context.Context, msg notify.Message) error

	// Err is the error returned by failing sends. Defaults to a generic
	// delivery error when unset.
	Err error

	// AlwaysFail makes every send fail
	AlwaysFail bool

	// FailFirst makes the first N sends fail before succeeding
	FailFirst int

	// Sent holds every message passed to Send (including failed attempts)
	Sent []notify.Message
}

// Send implements the Sender interface
func (m *MockSender) Send(ctx context.Context, msg notify.Message) error {
	if m.SendFn != nil {
		return m.SendFn(ctx, msg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Sent = append(m.Sent, msg)

	if m.AlwaysFail {
		return m.sendErr()
	}
	if m.FailFirst > 0 {
		m.FailFirst--
		return m.sendErr()
	}
	return nil
}

func (m *MockSender) sendErr() error {
	if m.Err != nil {
		return m.Err
	}
	return errors.New("delivery failed")
}

// SendCount returns the number of Send calls observed.
func (m *MockSender) SendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
