package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/events"
	"github.com/taskdeck/taskdeck-api/internal/notify"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// NotificationPayload is the persisted form of a notification job.
type NotificationPayload struct {
	EventID     uuid.UUID        `json:"event_id"`
	EventType   events.EventType `json:"event_type"`
	RecipientID uuid.UUID        `json:"recipient_id"`
	TaskID      uuid.UUID        `json:"task_id"`
	TaskTitle   string           `json:"task_title"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NotificationJob delivers one notification event to its recipient.
// Delivery is attempted a bounded number of times; after the final
// failure the error is returned to the runner, which marks the job
// failed and logs a delivery-failed observation. The failure is never
// surfaced to the request that caused the notification.
type NotificationJob struct {
	id          uuid.UUID
	payload     NotificationPayload
	rawPayload  []byte
	status      JobStatus
	users       store.UserStore
	sender      notify.Sender
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// Ensure NotificationJob implements the Job interface
var _ Job = (*NotificationJob)(nil)

// ID returns the job's unique identifier.
func (j *NotificationJob) ID() uuid.UUID {
	return j.id
}

// Type returns the job type identifier.
func (j *NotificationJob) Type() string {
	return JobTypeNotification
}

// Payload returns the job data as a byte slice.
func (j *NotificationJob) Payload() []byte {
	return j.rawPayload
}

// Status returns the current job status.
func (j *NotificationJob) Status() JobStatus {
	return j.status
}

// Execute looks up the recipient, renders the message, and delivers it
// with bounded retries.
func (j *NotificationJob) Execute(ctx context.Context) error {
	logger := j.logger.With(
		"job_id", j.id,
		"event_type", j.payload.EventType,
		"recipient_id", j.payload.RecipientID,
		"task_id", j.payload.TaskID,
	)

	recipient, err := j.users.GetByID(ctx, j.payload.RecipientID)
	if err != nil {
		return fmt.Errorf("failed to look up notification recipient: %w", err)
	}

	msg := renderMessage(j.payload, recipient.Email, recipient.DisplayName)

	var lastErr error
	for attempt := 1; attempt <= j.maxAttempts; attempt++ {
		if err := j.sender.Send(ctx, msg); err != nil {
			lastErr = err
			logger.Warn("notification delivery attempt failed",
				"attempt", attempt,
				"max_attempts", j.maxAttempts,
				"error", err)

			if attempt < j.maxAttempts {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(j.retryDelay * time.Duration(attempt)):
				}
			}
			continue
		}

		logger.Info("notification delivered", "attempt", attempt)
		return nil
	}

	return fmt.Errorf("delivery failed after %d attempts: %w", j.maxAttempts, lastErr)
}

// renderMessage turns a notification payload into a deliverable
// message for the given recipient address.
func renderMessage(p NotificationPayload, email, displayName string) notify.Message {
	var subject, body string

	switch p.EventType {
	case events.EventTaskAssigned:
		subject = fmt.Sprintf("Task assigned to you: %s", p.TaskTitle)
		body = fmt.Sprintf(
			"Hi %s,\n\nThe task %q has been assigned to you.\n\nTask ID: %s\n",
			displayName, p.TaskTitle, p.TaskID,
		)
	case events.EventTaskCompleted:
		subject = fmt.Sprintf("Task completed: %s", p.TaskTitle)
		body = fmt.Sprintf(
			"Hi %s,\n\nThe task %q you created has been completed.\n\nTask ID: %s\n",
			displayName, p.TaskTitle, p.TaskID,
		)
	case events.EventTaskDueSoon:
		subject = fmt.Sprintf("Task due soon: %s", p.TaskTitle)
		body = fmt.Sprintf(
			"Hi %s,\n\nThe task %q is due soon.\n\nTask ID: %s\n",
			displayName, p.TaskTitle, p.TaskID,
		)
	default:
		subject = fmt.Sprintf("Task update: %s", p.TaskTitle)
		body = fmt.Sprintf(
			"Hi %s,\n\nThere is an update on the task %q.\n\nTask ID: %s\n",
			displayName, p.TaskTitle, p.TaskID,
		)
	}

	return notify.Message{
		To:      email,
		Subject: subject,
		Body:    body,
	}
}

// NotificationJobFactory creates NotificationJob instances from events
// and rehydrates them from persisted rows.
type NotificationJobFactory struct {
	users       store.UserStore
	sender      notify.Sender
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// NewNotificationJobFactory creates a new NotificationJobFactory.
func NewNotificationJobFactory(
	users store.UserStore,
	sender notify.Sender,
	maxAttempts int,
	logger *slog.Logger,
) *NotificationJobFactory {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	return &NotificationJobFactory{
		users:       users,
		sender:      sender,
		maxAttempts: maxAttempts,
		retryDelay:  2 * time.Second,
		logger:      logger.With("component", "notification_job"),
	}
}

// CreateJob builds a new pending NotificationJob for the given event.
func (f *NotificationJobFactory) CreateJob(event *events.NotificationEvent) (Job, error) {
	payload := NotificationPayload{
		EventID:     event.ID,
		EventType:   event.Type,
		RecipientID: event.RecipientID,
		TaskID:      event.TaskID,
		TaskTitle:   event.TaskTitle,
		CreatedAt:   event.CreatedAt,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	return &NotificationJob{
		id:          uuid.New(),
		payload:     payload,
		rawPayload:  raw,
		status:      JobStatusPending,
		users:       f.users,
		sender:      f.sender,
		maxAttempts: f.maxAttempts,
		retryDelay:  f.retryDelay,
		logger:      f.logger,
	}, nil
}

// RehydrateJob rebuilds an executable NotificationJob from a persisted
// row. Used by the runner's recovery pass.
func (f *NotificationJobFactory) RehydrateJob(jobType string, id uuid.UUID, rawPayload []byte) (Job, error) {
	if jobType != JobTypeNotification {
		return nil, fmt.Errorf("unsupported job type %q", jobType)
	}

	var payload NotificationPayload
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification payload: %w", err)
	}

	return &NotificationJob{
		id:          id,
		payload:     payload,
		rawPayload:  rawPayload,
		status:      JobStatusPending,
		users:       f.users,
		sender:      f.sender,
		maxAttempts: f.maxAttempts,
		retryDelay:  f.retryDelay,
		logger:      f.logger,
	}, nil
}
