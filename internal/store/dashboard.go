package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
)

// DashboardStore defines the read-only aggregate queries backing the
// dashboard. Every method takes an optional visibility scope: a nil
// visibleTo means the viewer sees all tasks (admin/manager), a non-nil
// one restricts to tasks the user created or is assigned to.
type DashboardStore interface {
	// CountByStatus returns the number of visible tasks per status.
	// Statuses with no tasks are absent from the map.
	CountByStatus(ctx context.Context, visibleTo *uuid.UUID) (map[domain.TaskStatus]int, error)

	// CountOverdue returns the number of visible tasks whose due time
	// precedes now and whose status is neither completed nor archived.
	CountOverdue(ctx context.Context, visibleTo *uuid.UUID, now time.Time) (int, error)

	// ListAssignedIncomplete returns the viewer's assigned tasks that
	// are not yet completed or archived, most urgent due time first.
	ListAssignedIncomplete(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// ListRecent returns the limit most recently created or updated
	// visible tasks, ordered by recency descending, ties broken by ID
	// ascending for determinism.
	ListRecent(ctx context.Context, visibleTo *uuid.UUID, limit int) ([]*domain.Task, error)
}
