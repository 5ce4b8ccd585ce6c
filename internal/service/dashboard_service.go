package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/authz"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// recentActivityLimit caps the recent-activity window on the dashboard.
const recentActivityLimit = 10

// DashboardSummary is the aggregate view a viewer sees of their
// visible tasks.
type DashboardSummary struct {
	CountsByStatus     map[domain.TaskStatus]int `json:"counts_by_status"`
	OverdueCount       int                       `json:"overdue_count"`
	AssignedIncomplete []*domain.Task            `json:"assigned_incomplete"`
	RecentActivity     []*domain.Task            `json:"recent_activity"`
}

// DashboardService produces read-only aggregate summaries. It applies
// the same visibility scoping as task reads: members see only tasks
// they created or are assigned to.
type DashboardService interface {
	Summarize(ctx context.Context, viewer Actor) (*DashboardSummary, error)
}

type dashboardServiceImpl struct {
	dashboards store.DashboardStore
	logger     *slog.Logger
	timeFunc   func() time.Time // Injectable for testing
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(dashboards store.DashboardStore, logger *slog.Logger) (DashboardService, error) {
	if dashboards == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "dashboard store cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &dashboardServiceImpl{
		dashboards: dashboards,
		logger:     logger.With("component", "dashboard_service"),
		timeFunc:   time.Now,
	}, nil
}

// Summarize implements DashboardService.Summarize.
func (s *dashboardServiceImpl) Summarize(ctx context.Context, viewer Actor) (*DashboardSummary, error) {
	if !viewer.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role", domain.ErrUnauthorized)
	}

	var visibleTo *uuid.UUID
	if !authz.CanViewAll(viewer.Role) {
		id := viewer.ID
		visibleTo = &id
	}

	counts, err := s.dashboards.CountByStatus(ctx, visibleTo)
	if err != nil {
		return nil, newTaskServiceError("summarize", "failed to count tasks by status", err)
	}
	// Every status appears in the map, zero or not, so clients never
	// have to special-case missing keys.
	for _, status := range []domain.TaskStatus{
		domain.TaskStatusPending,
		domain.TaskStatusInProgress,
		domain.TaskStatusCompleted,
		domain.TaskStatusArchived,
	} {
		if _, ok := counts[status]; !ok {
			counts[status] = 0
		}
	}

	overdue, err := s.dashboards.CountOverdue(ctx, visibleTo, s.timeFunc().UTC())
	if err != nil {
		return nil, newTaskServiceError("summarize", "failed to count overdue tasks", err)
	}

	assigned, err := s.dashboards.ListAssignedIncomplete(ctx, viewer.ID)
	if err != nil {
		return nil, newTaskServiceError("summarize", "failed to list assigned tasks", err)
	}

	recent, err := s.dashboards.ListRecent(ctx, visibleTo, recentActivityLimit)
	if err != nil {
		return nil, newTaskServiceError("summarize", "failed to list recent activity", err)
	}

	return &DashboardSummary{
		CountsByStatus:     counts,
		OverdueCount:       overdue,
		AssignedIncomplete: assigned,
		RecentActivity:     recent,
	}, nil
}
