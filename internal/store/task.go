package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
)

// TaskFilter narrows task list queries. A nil field means "no filter".
type TaskFilter struct {
	// Status restricts results to tasks with this status.
	Status *domain.TaskStatus

	// VisibleTo restricts results to tasks the given user created or is
	// assigned to. Nil means no visibility restriction (admin/manager
	// scope).
	VisibleTo *uuid.UUID
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns ErrInvalidEntity if the creator or assignee does not
	// exist (foreign key violation).
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update persists changes to an existing task, but only if the
	// task's status in the store still equals expectedStatus. This is
	// the re-validation step for concurrent mutations: a caller that
	// read the task, applied a transition in memory, and lost a race
	// gets ErrStatusConflict instead of silently overwriting.
	// Returns ErrTaskNotFound if the task no longer exists.
	Update(ctx context.Context, task *domain.Task, expectedStatus domain.TaskStatus) error

	// Delete removes a task from the store by its ID. Comments are
	// removed by the schema's ON DELETE CASCADE constraint.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves tasks matching the filter, ordered by most
	// recently updated first, ties broken by ID ascending.
	List(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)

	// ListDueSoon retrieves tasks whose due time falls before the given
	// cutoff, that are neither completed nor archived, and that have
	// not yet had a reminder sent. Used by the scheduler's reminder
	// sweep.
	ListDueSoon(ctx context.Context, dueBefore time.Time) ([]*domain.Task, error)

	// MarkReminderSent records that a due-soon reminder was emitted for
	// the task, so a later sweep does not emit it again.
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error

	// ListCompletedBefore retrieves completed tasks whose completion
	// time precedes the given cutoff. Used by the scheduler's retention
	// sweep to archive old completed tasks.
	ListCompletedBefore(ctx context.Context, completedBefore time.Time) ([]*domain.Task, error)

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) TaskStore
}
