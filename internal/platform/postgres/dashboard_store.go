package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/platform/logger"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// PostgresDashboardStore implements the store.DashboardStore interface
// with aggregate queries over the tasks table.
type PostgresDashboardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDashboardStore creates a new PostgresDashboardStore.
func NewPostgresDashboardStore(db store.DBTX, logger *slog.Logger) *PostgresDashboardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDashboardStore{
		db:     db,
		logger: logger.With(slog.String("component", "dashboard_store")),
	}
}

// Ensure PostgresDashboardStore implements store.DashboardStore interface
var _ store.DashboardStore = (*PostgresDashboardStore)(nil)

// CountByStatus implements store.DashboardStore.CountByStatus.
func (s *PostgresDashboardStore) CountByStatus(ctx context.Context, visibleTo *uuid.UUID) (map[domain.TaskStatus]int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT status, COUNT(*) FROM tasks`
	var args []any
	if visibleTo != nil {
		query += ` WHERE creator_id = $1 OR assignee_id = $1`
		args = append(args, *visibleTo)
	}
	query += ` GROUP BY status`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to count tasks by status", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[domain.TaskStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count row: %w", err)
		}
		counts[domain.TaskStatus(status)] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status count rows: %w", err)
	}

	return counts, nil
}

// CountOverdue implements store.DashboardStore.CountOverdue.
func (s *PostgresDashboardStore) CountOverdue(ctx context.Context, visibleTo *uuid.UUID, now time.Time) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COUNT(*)
		FROM tasks
		WHERE due_at IS NOT NULL
		  AND due_at < $1
		  AND status NOT IN ($2, $3)
	`
	args := []any{now, domain.TaskStatusCompleted, domain.TaskStatusArchived}

	if visibleTo != nil {
		query += ` AND (creator_id = $4 OR assignee_id = $4)`
		args = append(args, *visibleTo)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		log.Error("failed to count overdue tasks", slog.String("error", err.Error()))
		return 0, MapError(err)
	}

	return count, nil
}

// ListAssignedIncomplete implements store.DashboardStore.ListAssignedIncomplete.
func (s *PostgresDashboardStore) ListAssignedIncomplete(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE assignee_id = $1
		  AND status NOT IN ($2, $3)
		ORDER BY due_at ASC NULLS LAST, id ASC`

	rows, err := s.db.QueryContext(ctx, query, userID,
		domain.TaskStatusCompleted, domain.TaskStatusArchived)
	if err != nil {
		log.Error("failed to list assigned incomplete tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectTasks(rows)
}

// ListRecent implements store.DashboardStore.ListRecent.
// Ordered by recency descending; ties broken by ID ascending so the
// result is deterministic.
func (s *PostgresDashboardStore) ListRecent(ctx context.Context, visibleTo *uuid.UUID, limit int) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []any
	if visibleTo != nil {
		query += ` WHERE creator_id = $1 OR assignee_id = $1`
		args = append(args, *visibleTo)
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY updated_at DESC, id ASC LIMIT $%d`, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list recent tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectTasks(rows)
}
