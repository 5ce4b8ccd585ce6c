package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common task validation errors
var (
	ErrEmptyTaskID        = errors.New("task ID cannot be empty")
	ErrEmptyTitle         = errors.New("task title cannot be empty")
	ErrTitleTooLong       = errors.New("task title cannot exceed 500 characters")
	ErrEmptyCreatorID     = errors.New("task creator ID cannot be empty")
	ErrDueTimeInPast      = errors.New("task due time cannot be in the past")
	ErrCompletedAtMissing = errors.New("completed task must have a completion time")
	ErrCompletedAtSet     = errors.New("only completed tasks may have a completion time")
)

// maxTitleLength is the upper bound on task titles.
const maxTitleLength = 500

// TaskStatus represents where a task is in its lifecycle. Transitions
// are linear: pending -> in_progress -> completed -> archived, and
// archived is terminal.
type TaskStatus string

// Possible task status values.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusArchived   TaskStatus = "archived"
)

// IsValid reports whether the status is one of the known statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusArchived:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is permitted from
// this status.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusArchived
}

// TaskPriority represents the urgency of a task.
type TaskPriority string

// Possible task priority values.
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// IsValid reports whether the priority is one of the known priorities.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// Task represents a unit of work created by a user and optionally
// assigned to another. It references exactly one creator and at most
// one assignee.
type Task struct {
	ID             uuid.UUID    `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	CreatorID      uuid.UUID    `json:"creator_id"`
	AssigneeID     *uuid.UUID   `json:"assignee_id,omitempty"`
	DueAt          *time.Time   `json:"due_at,omitempty"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	ReminderSentAt *time.Time   `json:"-"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NewTask creates a new pending Task owned by the given creator.
// Returns a validation error if the title is empty or the due time
// precedes the current time.
func NewTask(creatorID uuid.UUID, title, description string, priority TaskPriority, dueAt *time.Time) (*Task, error) {
	if priority == "" {
		priority = TaskPriorityMedium
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(title),
		Description: description,
		Status:      TaskStatusPending,
		Priority:    priority,
		CreatorID:   creatorID,
		DueAt:       dueAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if dueAt != nil && dueAt.Before(now) {
		return nil, fmt.Errorf("%w: %s", ErrDueTimeInPast, dueAt.Format(time.RFC3339))
	}

	return task, nil
}

// Validate checks the task's structural invariants. The completion
// time must be set if and only if the task is completed or archived
// (an archived task keeps the completion time it was archived with).
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}

	if len(t.Title) > maxTitleLength {
		return ErrTitleTooLong
	}

	if t.CreatorID == uuid.Nil {
		return ErrEmptyCreatorID
	}

	if !t.Status.IsValid() {
		return ErrInvalidStatus
	}

	if !t.Priority.IsValid() {
		return ErrInvalidPriority
	}

	switch t.Status {
	case TaskStatusCompleted, TaskStatusArchived:
		if t.CompletedAt == nil {
			return ErrCompletedAtMissing
		}
	default:
		if t.CompletedAt != nil {
			return ErrCompletedAtSet
		}
	}

	return nil
}

// IsOwnedBy reports whether the given user is the creator or the
// assignee of the task.
func (t *Task) IsOwnedBy(userID uuid.UUID) bool {
	if t.CreatorID == userID {
		return true
	}
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// IsOverdue reports whether the task's due time has passed without the
// task reaching a completed or archived state.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueAt == nil {
		return false
	}
	if t.Status == TaskStatusCompleted || t.Status == TaskStatusArchived {
		return false
	}
	return t.DueAt.Before(now)
}
