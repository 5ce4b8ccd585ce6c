package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType identifies what happened to a task.
type EventType string

// Notification event types.
const (
	// EventTaskAssigned is emitted to the new assignee when a task is
	// assigned to them.
	EventTaskAssigned EventType = "task.assigned"

	// EventTaskCompleted is emitted to the task's creator when the task
	// is completed.
	EventTaskCompleted EventType = "task.completed"

	// EventTaskDueSoon is emitted to the assignee (or creator, when
	// unassigned) when a task's due time is inside the reminder window.
	EventTaskDueSoon EventType = "task.due_soon"
)

// NotificationEvent is a notification intent record: who should hear
// about which task event. Delivery happens asynchronously; the event
// only references the task, it does not embed its mutable state.
type NotificationEvent struct {
	// ID is a unique identifier for this event.
	ID uuid.UUID `json:"id"`

	// Type indicates what happened to the task.
	Type EventType `json:"type"`

	// RecipientID is the user who should be notified.
	RecipientID uuid.UUID `json:"recipient_id"`

	// TaskID references the task the event is about.
	TaskID uuid.UUID `json:"task_id"`

	// TaskTitle is carried for message rendering so delivery does not
	// need to read the task back.
	TaskTitle string `json:"task_title"`

	// CreatedAt is the timestamp when the event was created.
	CreatedAt time.Time `json:"created_at"`
}

// NewNotificationEvent creates a notification event of the given type
// for the given recipient and task.
func NewNotificationEvent(eventType EventType, recipientID, taskID uuid.UUID, taskTitle string) *NotificationEvent {
	return &NotificationEvent{
		ID:          uuid.New(),
		Type:        eventType,
		RecipientID: recipientID,
		TaskID:      taskID,
		TaskTitle:   taskTitle,
		CreatedAt:   time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle
// notification events. Handlers are responsible for processing events
// and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *NotificationEvent) error
}

// EventEmitter defines an interface for components that can emit
// events. This allows services to publish events without direct
// knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *NotificationEvent) error
}
