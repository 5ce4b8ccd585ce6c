package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/authz"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/events"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// Actor identifies the authenticated user performing a request. The
// authentication middleware supplies it; the service trusts it as
// given.
type Actor struct {
	ID   uuid.UUID
	Role domain.Role
}

// CreateTaskInput holds the caller-supplied fields for a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    domain.TaskPriority
	DueAt       *time.Time
}

// EditTaskInput holds the fields an edit may change. Nil pointers
// leave the current value untouched.
type EditTaskInput struct {
	Title       *string
	Description *string
	Priority    *domain.TaskPriority
	DueAt       *time.Time
}

// TaskService is the task lifecycle manager. It is the only path
// through which tasks are mutated: every operation authorizes the
// actor, validates the transition against the task's current state,
// persists the change, and emits the notification events the
// transition produces.
type TaskService interface {
	// CreateTask creates a new pending task owned by the actor.
	CreateTask(ctx context.Context, actor Actor, input CreateTaskInput) (*domain.Task, error)

	// GetTask retrieves a task the actor is allowed to view.
	GetTask(ctx context.Context, actor Actor, taskID uuid.UUID) (*domain.Task, error)

	// ListTasks retrieves the tasks visible to the actor, optionally
	// filtered by status.
	ListTasks(ctx context.Context, actor Actor, status *domain.TaskStatus) ([]*domain.Task, error)

	// EditTask updates a task's fields.
	EditTask(ctx context.Context, actor Actor, taskID uuid.UUID, input EditTaskInput) (*domain.Task, error)

	// AssignTask assigns the task to the given user. Idempotent when
	// the assignee is unchanged: no state change, no notification.
	AssignTask(ctx context.Context, actor Actor, taskID, assigneeID uuid.UUID) (*domain.Task, error)

	// CompleteTask marks the task completed. Idempotent when already
	// completed: the completion time does not drift.
	CompleteTask(ctx context.Context, actor Actor, taskID uuid.UUID) (*domain.Task, error)

	// ArchiveTask archives a completed task. Terminal and irreversible.
	ArchiveTask(ctx context.Context, actor Actor, taskID uuid.UUID) (*domain.Task, error)

	// DeleteTask permanently removes a task and its comments.
	DeleteTask(ctx context.Context, actor Actor, taskID uuid.UUID) error

	// AddComment attaches a comment to a task the actor can view.
	AddComment(ctx context.Context, actor Actor, taskID uuid.UUID, body string) (*domain.Comment, error)

	// ListComments retrieves the comments on a task the actor can view.
	ListComments(ctx context.Context, actor Actor, taskID uuid.UUID) ([]*domain.Comment, error)

	// DeleteComment removes a comment. Allowed to the comment's author
	// and to roles with the delete permission.
	DeleteComment(ctx context.Context, actor Actor, commentID uuid.UUID) error
}

// taskServiceImpl implements the TaskService interface.
type taskServiceImpl struct {
	db       *sql.DB
	tasks    store.TaskStore
	comments store.CommentStore
	users    store.UserStore
	emitter  events.EventEmitter
	logger   *slog.Logger
	timeFunc func() time.Time // Injectable for testing
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	db *sql.DB,
	tasks store.TaskStore,
	comments store.CommentStore,
	users store.UserStore,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (TaskService, error) {
	if tasks == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "tasks store cannot be nil"}
	}
	if comments == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "comments store cannot be nil"}
	}
	if users == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "users store cannot be nil"}
	}
	if emitter == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		db:       db,
		tasks:    tasks,
		comments: comments,
		users:    users,
		emitter:  emitter,
		logger:   logger.With("component", "task_service"),
		timeFunc: time.Now,
	}, nil
}

// CreateTask implements TaskService.CreateTask.
func (s *taskServiceImpl) CreateTask(ctx context.Context, actor Actor, input CreateTaskInput) (*domain.Task, error) {
	if !authz.Authorize(actor.Role, authz.ActionCreate, true) {
		return nil, fmt.Errorf("%w: role %q may not create tasks", domain.ErrUnauthorized, actor.Role)
	}

	task, err := domain.NewTask(actor.ID, input.Title, input.Description, input.Priority, input.DueAt)
	if err != nil {
		return nil, asValidation(err)
	}

	if s.db != nil {
		err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			return s.tasks.WithTx(tx).Create(ctx, task)
		})
	} else {
		err = s.tasks.Create(ctx, task)
	}
	if err != nil {
		s.logger.Error("failed to create task",
			"error", err,
			"actor_id", actor.ID)
		return nil, newTaskServiceError("create_task", "failed to save task", err)
	}

	s.logger.Info("task created",
		"task_id", task.ID,
		"creator_id", actor.ID)
	return task, nil
}

// GetTask implements TaskService.GetTask.
func (s *taskServiceImpl) GetTask(ctx context.Context, actor Actor, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if !authz.Authorize(actor.Role, authz.ActionView, task.IsOwnedBy(actor.ID)) {
		return nil, fmt.Errorf("%w: task is not visible to actor", domain.ErrUnauthorized)
	}

	return task, nil
}

// ListTasks implements TaskService.ListTasks.
func (s *taskServiceImpl) ListTasks(ctx context.Context, actor Actor, status *domain.TaskStatus) ([]*domain.Task, error) {
	if !actor.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role", domain.ErrUnauthorized)
	}

	filter := store.TaskFilter{Status: status}
	if !authz.CanViewAll(actor.Role) {
		id := actor.ID
		filter.VisibleTo = &id
	}

	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, newTaskServiceError("list_tasks", "failed to list tasks", err)
	}

	return tasks, nil
}

// EditTask implements TaskService.EditTask.
func (s *taskServiceImpl) EditTask(ctx context.Context, actor Actor, taskID uuid.UUID, input EditTaskInput) (*domain.Task, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.Status.IsTerminal() {
		return nil, ErrTaskArchived
	}

	if !authz.Authorize(actor.Role, authz.ActionEdit, task.IsOwnedBy(actor.ID)) {
		return nil, fmt.Errorf("%w: actor may not edit this task", domain.ErrUnauthorized)
	}

	expected := task.Status

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.DueAt != nil {
		if input.DueAt.Before(s.timeFunc()) {
			return nil, asValidation(domain.ErrDueTimeInPast)
		}
		task.DueAt = input.DueAt
		// The due time moved, so an already-sent reminder no longer
		// covers it.
		task.ReminderSentAt = nil
	}

	if err := task.Validate(); err != nil {
		return nil, asValidation(err)
	}

	if err := s.tasks.Update(ctx, task, expected); err != nil {
		return nil, s.mapUpdateError("edit_task", err)
	}

	s.logger.Info("task edited", "task_id", task.ID, "actor_id", actor.ID)
	return task, nil
}

// AssignTask implements TaskService.AssignTask.
func (s *taskServiceImpl) AssignTask(ctx context.Context, actor Actor, taskID, assigneeID uuid.UUID) (*domain.Task, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.Status.IsTerminal() {
		return nil, ErrTaskArchived
	}

	if !authz.Authorize(actor.Role, authz.ActionAssign, task.IsOwnedBy(actor.ID)) {
		return nil, fmt.Errorf("%w: actor may not assign this task", domain.ErrUnauthorized)
	}

	// Idempotent: re-assigning the same assignee is a no-op with no
	// notification.
	if task.AssigneeID != nil && *task.AssigneeID == assigneeID {
		return task, nil
	}

	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAssigneeNotFound
		}
		return nil, newTaskServiceError("assign_task", "failed to look up assignee", err)
	}

	expected := task.Status
	task.AssigneeID = &assignee.ID
	if task.Status == domain.TaskStatusPending {
		// Assignment moves a pending task into work.
		task.Status = domain.TaskStatusInProgress
	}

	if err := s.tasks.Update(ctx, task, expected); err != nil {
		return nil, s.mapUpdateError("assign_task", err)
	}

	s.logger.Info("task assigned",
		"task_id", task.ID,
		"assignee_id", assignee.ID,
		"actor_id", actor.ID)

	s.emit(ctx, events.NewNotificationEvent(events.EventTaskAssigned, assignee.ID, task.ID, task.Title))

	return task, nil
}

// CompleteTask implements TaskService.CompleteTask.
func (s *taskServiceImpl) CompleteTask(ctx context.Context, actor Actor, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.Status.IsTerminal() {
		return nil, ErrTaskArchived
	}

	// Completion is allowed to the task's creator, its assignee, or a
	// role that may edit any task.
	if !task.IsOwnedBy(actor.ID) && !authz.CanEditAny(actor.Role) {
		return nil, fmt.Errorf("%w: actor may not complete this task", domain.ErrUnauthorized)
	}

	// Idempotent: completing a completed task changes nothing; the
	// completion time keeps its original value.
	if task.Status == domain.TaskStatusCompleted {
		return task, nil
	}

	expected := task.Status
	now := s.timeFunc().UTC()
	task.Status = domain.TaskStatusCompleted
	task.CompletedAt = &now

	if err := s.tasks.Update(ctx, task, expected); err != nil {
		return nil, s.mapUpdateError("complete_task", err)
	}

	s.logger.Info("task completed",
		"task_id", task.ID,
		"actor_id", actor.ID)

	s.emit(ctx, events.NewNotificationEvent(events.EventTaskCompleted, task.CreatorID, task.ID, task.Title))

	return task, nil
}

// ArchiveTask implements TaskService.ArchiveTask.
func (s *taskServiceImpl) ArchiveTask(ctx context.Context, actor Actor, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	// Archived is terminal: a second archive is an illegal transition,
	// not an idempotent no-op.
	if task.Status == domain.TaskStatusArchived {
		return nil, ErrTaskArchived
	}

	if task.Status != domain.TaskStatusCompleted {
		return nil, ErrTaskNotCompleted
	}

	if !authz.Authorize(actor.Role, authz.ActionEdit, task.IsOwnedBy(actor.ID)) {
		return nil, fmt.Errorf("%w: actor may not archive this task", domain.ErrUnauthorized)
	}

	expected := task.Status
	task.Status = domain.TaskStatusArchived

	if err := s.tasks.Update(ctx, task, expected); err != nil {
		return nil, s.mapUpdateError("archive_task", err)
	}

	s.logger.Info("task archived", "task_id", task.ID, "actor_id", actor.ID)
	return task, nil
}

// DeleteTask implements TaskService.DeleteTask.
func (s *taskServiceImpl) DeleteTask(ctx context.Context, actor Actor, taskID uuid.UUID) error {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return err
	}

	// Terminal-state rule: archived tasks refuse deletion too.
	if task.Status.IsTerminal() {
		return ErrTaskArchived
	}

	if !authz.Authorize(actor.Role, authz.ActionDelete, task.IsOwnedBy(actor.ID)) {
		return fmt.Errorf("%w: actor may not delete tasks", domain.ErrUnauthorized)
	}

	// Comments cascade with the task row.
	if s.db != nil {
		err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			return s.tasks.WithTx(tx).Delete(ctx, task.ID)
		})
	} else {
		err = s.tasks.Delete(ctx, task.ID)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTaskNotFound
		}
		return newTaskServiceError("delete_task", "failed to delete task", err)
	}

	s.logger.Info("task deleted", "task_id", task.ID, "actor_id", actor.ID)
	return nil
}

// AddComment implements TaskService.AddComment.
func (s *taskServiceImpl) AddComment(ctx context.Context, actor Actor, taskID uuid.UUID, body string) (*domain.Comment, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if !authz.Authorize(actor.Role, authz.ActionView, task.IsOwnedBy(actor.ID)) {
		return nil, fmt.Errorf("%w: task is not visible to actor", domain.ErrUnauthorized)
	}

	comment, err := domain.NewComment(task.ID, actor.ID, body)
	if err != nil {
		return nil, asValidation(err)
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, newTaskServiceError("add_comment", "failed to save comment", err)
	}

	return comment, nil
}

// ListComments implements TaskService.ListComments.
func (s *taskServiceImpl) ListComments(ctx context.Context, actor Actor, taskID uuid.UUID) ([]*domain.Comment, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if !authz.Authorize(actor.Role, authz.ActionView, task.IsOwnedBy(actor.ID)) {
		return nil, fmt.Errorf("%w: task is not visible to actor", domain.ErrUnauthorized)
	}

	comments, err := s.comments.ListByTask(ctx, task.ID)
	if err != nil {
		return nil, newTaskServiceError("list_comments", "failed to list comments", err)
	}

	return comments, nil
}

// DeleteComment implements TaskService.DeleteComment.
func (s *taskServiceImpl) DeleteComment(ctx context.Context, actor Actor, commentID uuid.UUID) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCommentNotFound
		}
		return newTaskServiceError("delete_comment", "failed to load comment", err)
	}

	if comment.AuthorID != actor.ID && !authz.Authorize(actor.Role, authz.ActionDelete, false) {
		return fmt.Errorf("%w: actor may not delete this comment", domain.ErrUnauthorized)
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCommentNotFound
		}
		return newTaskServiceError("delete_comment", "failed to delete comment", err)
	}

	return nil
}

// loadTask reads a task, mapping absence to the service sentinel.
func (s *taskServiceImpl) loadTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, newTaskServiceError("load_task", "failed to load task", err)
	}
	return task, nil
}

// mapUpdateError classifies a conditional-update failure. A lost race
// is a state error: the caller's read is stale and the transition must
// be re-validated against the task's new state.
func (s *taskServiceImpl) mapUpdateError(operation string, err error) error {
	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		return ErrTaskNotFound
	case errors.Is(err, store.ErrStatusConflict):
		return fmt.Errorf("%w: %v", domain.ErrInvalidState, err)
	default:
		return newTaskServiceError(operation, "failed to update task", err)
	}
}

// emit hands a notification event to the emitter. Emit failures are
// logged and swallowed: the task mutation is already durable and does
// not depend on notification outcome.
func (s *taskServiceImpl) emit(ctx context.Context, event *events.NotificationEvent) {
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit notification event",
			"error", err,
			"event_id", event.ID,
			"event_type", event.Type,
			"task_id", event.TaskID)
	}
}
