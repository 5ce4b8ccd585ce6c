package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/events"
	"github.com/taskdeck/taskdeck-api/internal/mocks"
)

func newJobFixture(t *testing.T, sender *mocks.MockSender) (*NotificationJobFactory, *domain.User) {
	t.Helper()

	users := mocks.NewMockUserStore()
	recipient, err := domain.NewUser(fmt.Sprintf("%s@example.com", uuid.New()), "Recipient", "correct-horse-battery")
	require.NoError(t, err)
	users.AddUser(recipient)

	factory := NewNotificationJobFactory(users, sender, 3, slog.Default())
	factory.retryDelay = time.Millisecond
	return factory, recipient
}

func TestNotificationJobExecute(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("delivers on first attempt", func(t *testing.T) {
		t.Parallel()

		sender := &mocks.MockSender{}
		factory, recipient := newJobFixture(t, sender)

		event := events.NewNotificationEvent(events.EventTaskAssigned, recipient.ID, uuid.New(), "write postmortem")
		job, err := factory.CreateJob(event)
		require.NoError(t, err)

		require.NoError(t, job.Execute(ctx))
		require.Equal(t, 1, sender.SendCount())
		assert.Equal(t, recipient.Email, sender.Sent[0].To)
		assert.Contains(t, sender.Sent[0].Subject, "write postmortem")
	})

	t.Run("retries transient failures and succeeds on the third attempt", func(t *testing.T) {
		t.Parallel()

		sender := &mocks.MockSender{FailFirst: 2}
		factory, recipient := newJobFixture(t, sender)

		event := events.NewNotificationEvent(events.EventTaskCompleted, recipient.ID, uuid.New(), "close sprint")
		job, err := factory.CreateJob(event)
		require.NoError(t, err)

		require.NoError(t, job.Execute(ctx))
		assert.Equal(t, 3, sender.SendCount(), "two failures then one success")
	})

	t.Run("gives up after the attempt budget", func(t *testing.T) {
		t.Parallel()

		sender := &mocks.MockSender{AlwaysFail: true}
		factory, recipient := newJobFixture(t, sender)

		event := events.NewNotificationEvent(events.EventTaskAssigned, recipient.ID, uuid.New(), "x")
		job, err := factory.CreateJob(event)
		require.NoError(t, err)

		err = job.Execute(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after 3 attempts")
		assert.Equal(t, 3, sender.SendCount())
	})

	t.Run("unknown recipient fails without a send attempt", func(t *testing.T) {
		t.Parallel()

		sender := &mocks.MockSender{}
		factory, _ := newJobFixture(t, sender)

		event := events.NewNotificationEvent(events.EventTaskAssigned, uuid.New(), uuid.New(), "x")
		job, err := factory.CreateJob(event)
		require.NoError(t, err)

		require.Error(t, job.Execute(ctx))
		assert.Zero(t, sender.SendCount())
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		t.Parallel()

		sender := &mocks.MockSender{AlwaysFail: true}
		factory, recipient := newJobFixture(t, sender)
		factory.retryDelay = time.Minute

		event := events.NewNotificationEvent(events.EventTaskAssigned, recipient.ID, uuid.New(), "x")
		job, err := factory.CreateJob(event)
		require.NoError(t, err)

		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, job.Execute(cancelCtx), context.Canceled)
	})
}

func TestRenderMessage(t *testing.T) {
	t.Parallel()

	taskID := uuid.New()
	base := NotificationPayload{
		TaskID:    taskID,
		TaskTitle: "draft proposal",
	}

	cases := []struct {
		name        string
		eventType   events.EventType
		wantSubject string
		wantInBody  string
	}{
		{
			name:        "assigned",
			eventType:   events.EventTaskAssigned,
			wantSubject: "Task assigned to you: draft proposal",
			wantInBody:  "has been assigned to you",
		},
		{
			name:        "completed",
			eventType:   events.EventTaskCompleted,
			wantSubject: "Task completed: draft proposal",
			wantInBody:  "has been completed",
		},
		{
			name:        "due soon",
			eventType:   events.EventTaskDueSoon,
			wantSubject: "Task due soon: draft proposal",
			wantInBody:  "is due soon",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			payload := base
			payload.EventType = tc.eventType

			msg := renderMessage(payload, "dana@example.com", "Dana")
			assert.Equal(t, "dana@example.com", msg.To)
			assert.Equal(t, tc.wantSubject, msg.Subject)
			assert.Contains(t, msg.Body, "Hi Dana")
			assert.Contains(t, msg.Body, tc.wantInBody)
			assert.Contains(t, msg.Body, taskID.String())
		})
	}
}

func TestRehydrateJob(t *testing.T) {
	t.Parallel()

	sender := &mocks.MockSender{}
	factory, recipient := newJobFixture(t, sender)

	event := events.NewNotificationEvent(events.EventTaskAssigned, recipient.ID, uuid.New(), "restore backups")
	created, err := factory.CreateJob(event)
	require.NoError(t, err)

	restored, err := factory.RehydrateJob(JobTypeNotification, created.ID(), created.Payload())
	require.NoError(t, err)
	assert.Equal(t, created.ID(), restored.ID())
	assert.Equal(t, JobTypeNotification, restored.Type())
	assert.Equal(t, JobStatusPending, restored.Status())

	// The restored job is still executable.
	require.NoError(t, restored.Execute(context.Background()))
	assert.Equal(t, 1, sender.SendCount())

	_, err = factory.RehydrateJob("unknown", uuid.New(), []byte("{}"))
	assert.Error(t, err)
}
