package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
)

// MockDashboardStore implements store.DashboardStore for testing
type MockDashboardStore struct {
	// Function fields for customizable behavior
	CountByStatusFn          func(ctx context.Context, visibleTo *uuid.UUID) (map[domain.TaskStatus]int, error)
	CountOverdueFn           func(ctx context.Context, visibleTo *uuid.UUID, now time.Time) (int, error)
	ListAssignedIncompleteFn func(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)
	ListRecentFn             func(ctx context.Context, visibleTo *uuid.UUID, limit int) ([]*domain.Task, error)

	// Default response values
	Counts   map[domain.TaskStatus]int
	Overdue  int
	Assigned []*domain.Task
	Recent   []*domain.Task
	Err      error
}

// CountByStatus implements the DashboardStore interface
func (m *MockDashboardStore) CountByStatus(ctx context.Context, visibleTo *uuid.UUID) (map[domain.TaskStatus]int, error) {
	if m.CountByStatusFn != nil {
		return m.CountByStatusFn(ctx, visibleTo)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Counts == nil {
		return map[domain.TaskStatus]int{}, nil
	}
	return m.Counts, nil
}

// CountOverdue implements the DashboardStore interface
func (m *MockDashboardStore) CountOverdue(ctx context.Context, visibleTo *uuid.UUID, now time.Time) (int, error) {
	if m.CountOverdueFn != nil {
		return m.CountOverdueFn(ctx, visibleTo, now)
	}
	return m.Overdue, m.Err
}

// ListAssignedIncomplete implements the DashboardStore interface
func (m *MockDashboardStore) ListAssignedIncomplete(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	if m.ListAssignedIncompleteFn != nil {
		return m.ListAssignedIncompleteFn(ctx, userID)
	}
	return m.Assigned, m.Err
}

// ListRecent implements the DashboardStore interface
func (m *MockDashboardStore) ListRecent(ctx context.Context, visibleTo *uuid.UUID, limit int) ([]*domain.Task, error) {
	if m.ListRecentFn != nil {
		return m.ListRecentFn(ctx, visibleTo, limit)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if limit < len(m.Recent) {
		return m.Recent[:limit], nil
	}
	return m.Recent, nil
}
