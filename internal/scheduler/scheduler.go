// Package scheduler runs the periodic background sweeps: due-soon
// reminder notifications and retention archiving of old completed
// tasks. It owns a single ticker goroutine; each tick runs both
// sweeps sequentially.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taskdeck/taskdeck-api/internal/config"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/events"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// Scheduler periodically emits reminder events for tasks approaching
// their due time and archives completed tasks past the retention
// window.
type Scheduler struct {
	tasks   store.TaskStore
	emitter events.EventEmitter
	logger  *slog.Logger

	sweepInterval time.Duration
	reminderLead  time.Duration
	retention     time.Duration

	timeFunc func() time.Time // Injectable for testing

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a Scheduler from the given configuration.
func New(
	tasks store.TaskStore,
	emitter events.EventEmitter,
	cfg config.SchedulerConfig,
	logger *slog.Logger,
) (*Scheduler, error) {
	if tasks == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}
	if emitter == nil {
		return nil, fmt.Errorf("event emitter cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SweepIntervalMinutes <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive")
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		tasks:         tasks,
		emitter:       emitter,
		logger:        logger.With("component", "scheduler"),
		sweepInterval: time.Duration(cfg.SweepIntervalMinutes) * time.Minute,
		reminderLead:  time.Duration(cfg.ReminderLeadHours) * time.Hour,
		retention:     time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		timeFunc:      time.Now,
		ctx:           ctx,
		cancelFunc:    cancel,
	}, nil
}

// Start launches the sweep loop in a background goroutine.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		s.logger.Info("scheduler started",
			"sweep_interval", s.sweepInterval,
			"reminder_lead", s.reminderLead,
			"retention", s.retention)

		for {
			select {
			case <-s.ctx.Done():
				s.logger.Info("scheduler stopped")
				return
			case <-ticker.C:
				s.Sweep(s.ctx)
			}
		}
	}()
}

// Stop terminates the sweep loop and waits for an in-flight sweep to
// finish.
func (s *Scheduler) Stop() {
	s.cancelFunc()
	s.wg.Wait()
}

// Sweep runs the reminder and retention passes once. Exported so a
// sweep can also be triggered directly.
func (s *Scheduler) Sweep(ctx context.Context) {
	if err := s.sweepReminders(ctx); err != nil {
		s.logger.Error("reminder sweep failed", "error", err)
	}
	if err := s.sweepRetention(ctx); err != nil {
		s.logger.Error("retention sweep failed", "error", err)
	}
}

// sweepReminders emits a due-soon event for every incomplete task whose
// due time falls within the reminder lead window. Each task is marked
// as reminded so the next sweep skips it.
func (s *Scheduler) sweepReminders(ctx context.Context) error {
	now := s.timeFunc().UTC()
	cutoff := now.Add(s.reminderLead)

	due, err := s.tasks.ListDueSoon(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list due tasks: %w", err)
	}

	for _, task := range due {
		// The reminder goes to whoever is responsible for the task:
		// the assignee when there is one, the creator otherwise.
		recipient := task.CreatorID
		if task.AssigneeID != nil {
			recipient = *task.AssigneeID
		}

		event := events.NewNotificationEvent(events.EventTaskDueSoon, recipient, task.ID, task.Title)
		if err := s.emitter.EmitEvent(ctx, event); err != nil {
			s.logger.Error("failed to emit due-soon event",
				"error", err,
				"task_id", task.ID)
			continue
		}

		if err := s.tasks.MarkReminderSent(ctx, task.ID, now); err != nil {
			s.logger.Error("failed to mark reminder sent",
				"error", err,
				"task_id", task.ID)
			continue
		}

		s.logger.Debug("due-soon reminder emitted",
			"task_id", task.ID,
			"recipient_id", recipient)
	}

	return nil
}

// sweepRetention archives completed tasks whose completion time is
// older than the retention window.
func (s *Scheduler) sweepRetention(ctx context.Context) error {
	cutoff := s.timeFunc().UTC().Add(-s.retention)

	expired, err := s.tasks.ListCompletedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list expired tasks: %w", err)
	}

	for _, task := range expired {
		expected := task.Status
		task.Status = domain.TaskStatusArchived

		if err := s.tasks.Update(ctx, task, expected); err != nil {
			// A concurrent mutation moved the task; the next sweep will
			// reconsider it.
			s.logger.Warn("failed to archive expired task",
				"error", err,
				"task_id", task.ID)
			continue
		}

		s.logger.Info("archived expired task",
			"task_id", task.ID,
			"completed_at", task.CompletedAt)
	}

	return nil
}
