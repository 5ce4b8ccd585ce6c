package events

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// handlerFunc adapts a function to the EventHandler interface.
type handlerFunc func(ctx context.Context, event *NotificationEvent) error

func (f handlerFunc) HandleEvent(ctx context.Context, event *NotificationEvent) error {
	return f(ctx, event)
}

func TestInMemoryEventEmitter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("dispatches to every handler", func(t *testing.T) {
		t.Parallel()

		emitter := NewInMemoryEventEmitter(slog.Default())

		var first, second []*NotificationEvent
		emitter.RegisterHandler(handlerFunc(func(ctx context.Context, e *NotificationEvent) error {
			first = append(first, e)
			return nil
		}))
		emitter.RegisterHandler(handlerFunc(func(ctx context.Context, e *NotificationEvent) error {
			second = append(second, e)
			return nil
		}))

		event := NewNotificationEvent(EventTaskAssigned, uuid.New(), uuid.New(), "review budget")
		require.NoError(t, emitter.EmitEvent(ctx, event))

		require.Len(t, first, 1)
		require.Len(t, second, 1)
		assert.Equal(t, event.ID, first[0].ID)
		assert.Equal(t, event.ID, second[0].ID)
	})

	t.Run("a failing handler does not block the others", func(t *testing.T) {
		t.Parallel()

		emitter := NewInMemoryEventEmitter(slog.Default())
		handlerErr := errors.New("downstream unavailable")

		var reached bool
		emitter.RegisterHandler(handlerFunc(func(ctx context.Context, e *NotificationEvent) error {
			return handlerErr
		}))
		emitter.RegisterHandler(handlerFunc(func(ctx context.Context, e *NotificationEvent) error {
			reached = true
			return nil
		}))

		err := emitter.EmitEvent(ctx, NewNotificationEvent(EventTaskCompleted, uuid.New(), uuid.New(), "x"))
		assert.ErrorIs(t, err, handlerErr)
		assert.True(t, reached, "later handlers still run")
	})

	t.Run("no handlers is not an error", func(t *testing.T) {
		t.Parallel()

		emitter := NewInMemoryEventEmitter(slog.Default())
		err := emitter.EmitEvent(ctx, NewNotificationEvent(EventTaskDueSoon, uuid.New(), uuid.New(), "x"))
		assert.NoError(t, err)
	})
}

func TestNewNotificationEvent(t *testing.T) {
	t.Parallel()

	recipient := uuid.New()
	taskID := uuid.New()

	event := NewNotificationEvent(EventTaskAssigned, recipient, taskID, "prepare slides")

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, EventTaskAssigned, event.Type)
	assert.Equal(t, recipient, event.RecipientID)
	assert.Equal(t, taskID, event.TaskID)
	assert.Equal(t, "prepare slides", event.TaskTitle)
	assert.False(t, event.CreatedAt.IsZero())
}
