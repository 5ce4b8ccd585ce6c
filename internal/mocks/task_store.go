package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// MockTaskStore implements store.TaskStore for testing. The default
// implementation is an in-memory map that honors the conditional-update
// contract, so lifecycle tests exercise the same conflict semantics as the
// real store.
type MockTaskStore struct {
	mu sync.Mutex

	// Function fields for customizable behavior
	CreateFn              func(ctx context.Context, task *domain.Task) error
	GetByIDFn             func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	UpdateFn              func(ctx context.Context, task *domain.Task, expectedStatus domain.TaskStatus) error
	DeleteFn              func(ctx context.Context, id uuid.UUID) error
	ListFn                func(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error)
	ListDueSoonFn         func(ctx context.Context, dueBefore time.Time) ([]*domain.Task, error)
	MarkReminderSentFn    func(ctx context.Context, id uuid.UUID, at time.Time) error
	ListCompletedBeforeFn func(ctx context.Context, completedBefore time.Time) ([]*domain.Task, error)

	// Data for default implementation
	Tasks map[uuid.UUID]*domain.Task

	// UpdateCount tracks how many conditional updates succeeded.
	UpdateCount int
}

// NewMockTaskStore creates a new mock store with initialized defaults
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		Tasks: make(map[uuid.UUID]*domain.Task),
	}
}

// AddTask registers a task in the default in-memory map.
func (m *MockTaskStore) AddTask(task *domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *task
	m.Tasks[task.ID] = &copy
}

// Create implements the TaskStore interface
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copy := *task
	m.Tasks[task.ID] = &copy
	return nil
}

// GetByID implements the TaskStore interface
func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	task, exists := m.Tasks[id]
	if !exists {
		return nil, store.ErrTaskNotFound
	}
	copy := *task
	return &copy, nil
}

// Update implements the TaskStore interface, including the conditional
// status check.
func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task, expectedStatus domain.TaskStatus) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, task, expectedStatus)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.Tasks[task.ID]
	if !exists {
		return store.ErrTaskNotFound
	}
	if current.Status != expectedStatus {
		return fmt.Errorf("%w: expected %s, found %s",
			store.ErrStatusConflict, expectedStatus, current.Status)
	}

	task.UpdatedAt = time.Now().UTC()
	copy := *task
	m.Tasks[task.ID] = &copy
	m.UpdateCount++
	return nil
}

// Delete implements the TaskStore interface
func (m *MockTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.Tasks[id]; !exists {
		return store.ErrTaskNotFound
	}
	delete(m.Tasks, id)
	return nil
}

// List implements the TaskStore interface
func (m *MockTaskStore) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Task
	for _, task := range m.Tasks {
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if filter.VisibleTo != nil && !task.IsOwnedBy(*filter.VisibleTo) {
			continue
		}
		copy := *task
		out = append(out, &copy)
	}
	return out, nil
}

// ListDueSoon implements the TaskStore interface
func (m *MockTaskStore) ListDueSoon(ctx context.Context, dueBefore time.Time) ([]*domain.Task, error) {
	if m.ListDueSoonFn != nil {
		return m.ListDueSoonFn(ctx, dueBefore)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Task
	for _, task := range m.Tasks {
		if task.DueAt == nil || task.DueAt.After(dueBefore) {
			continue
		}
		if task.Status == domain.TaskStatusCompleted || task.Status == domain.TaskStatusArchived {
			continue
		}
		if task.ReminderSentAt != nil {
			continue
		}
		copy := *task
		out = append(out, &copy)
	}
	return out, nil
}

// MarkReminderSent implements the TaskStore interface
func (m *MockTaskStore) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	if m.MarkReminderSentFn != nil {
		return m.MarkReminderSentFn(ctx, id, at)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	task, exists := m.Tasks[id]
	if !exists {
		return store.ErrTaskNotFound
	}
	if task.ReminderSentAt == nil {
		t := at
		task.ReminderSentAt = &t
	}
	return nil
}

// ListCompletedBefore implements the TaskStore interface
func (m *MockTaskStore) ListCompletedBefore(ctx context.Context, completedBefore time.Time) ([]*domain.Task, error) {
	if m.ListCompletedBeforeFn != nil {
		return m.ListCompletedBeforeFn(ctx, completedBefore)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Task
	for _, task := range m.Tasks {
		if task.Status != domain.TaskStatusCompleted {
			continue
		}
		if task.CompletedAt == nil || !task.CompletedAt.Before(completedBefore) {
			continue
		}
		copy := *task
		out = append(out, &copy)
	}
	return out, nil
}

// WithTx implements the TaskStore interface; the mock has no transaction
// state, so it returns itself.
func (m *MockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return m
}
