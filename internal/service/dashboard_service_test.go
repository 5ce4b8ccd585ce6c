package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/mocks"
)

func TestDashboardSummarize(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("counts include every status, zero-filled", func(t *testing.T) {
		t.Parallel()

		dashboards := &mocks.MockDashboardStore{
			Counts: map[domain.TaskStatus]int{
				domain.TaskStatusPending:   3,
				domain.TaskStatusCompleted: 1,
			},
			Overdue: 2,
		}
		svc, err := NewDashboardService(dashboards, slog.Default())
		require.NoError(t, err)

		summary, err := svc.Summarize(ctx, Actor{ID: uuid.New(), Role: domain.RoleManager})
		require.NoError(t, err)

		assert.Equal(t, map[domain.TaskStatus]int{
			domain.TaskStatusPending:    3,
			domain.TaskStatusInProgress: 0,
			domain.TaskStatusCompleted:  1,
			domain.TaskStatusArchived:   0,
		}, summary.CountsByStatus)
		assert.Equal(t, 2, summary.OverdueCount)
	})

	t.Run("member queries are scoped, manager queries are not", func(t *testing.T) {
		t.Parallel()

		member := Actor{ID: uuid.New(), Role: domain.RoleMember}
		manager := Actor{ID: uuid.New(), Role: domain.RoleManager}

		var scopes []*uuid.UUID
		dashboards := &mocks.MockDashboardStore{
			CountByStatusFn: func(ctx context.Context, visibleTo *uuid.UUID) (map[domain.TaskStatus]int, error) {
				scopes = append(scopes, visibleTo)
				return map[domain.TaskStatus]int{}, nil
			},
		}
		svc, err := NewDashboardService(dashboards, slog.Default())
		require.NoError(t, err)

		_, err = svc.Summarize(ctx, member)
		require.NoError(t, err)
		_, err = svc.Summarize(ctx, manager)
		require.NoError(t, err)

		require.Len(t, scopes, 2)
		require.NotNil(t, scopes[0])
		assert.Equal(t, member.ID, *scopes[0])
		assert.Nil(t, scopes[1])
	})

	t.Run("recent activity is capped at ten", func(t *testing.T) {
		t.Parallel()

		viewer := Actor{ID: uuid.New(), Role: domain.RoleAdmin}
		tasks := make([]*domain.Task, 15)
		for i := range tasks {
			task, err := domain.NewTask(viewer.ID, "padding", "", domain.TaskPriorityLow, nil)
			require.NoError(t, err)
			tasks[i] = task
		}

		dashboards := &mocks.MockDashboardStore{Recent: tasks}
		svc, err := NewDashboardService(dashboards, slog.Default())
		require.NoError(t, err)

		summary, err := svc.Summarize(ctx, viewer)
		require.NoError(t, err)
		assert.Len(t, summary.RecentActivity, 10)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		t.Parallel()

		svc, err := NewDashboardService(&mocks.MockDashboardStore{}, slog.Default())
		require.NoError(t, err)

		_, err = svc.Summarize(ctx, Actor{ID: uuid.New(), Role: "contractor"})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("store errors propagate", func(t *testing.T) {
		t.Parallel()

		storeErr := errors.New("connection reset")
		svc, err := NewDashboardService(&mocks.MockDashboardStore{Err: storeErr}, slog.Default())
		require.NoError(t, err)

		_, err = svc.Summarize(ctx, Actor{ID: uuid.New(), Role: domain.RoleAdmin})
		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("nil store is rejected at construction", func(t *testing.T) {
		t.Parallel()

		_, err := NewDashboardService(nil, slog.Default())
		assert.Error(t, err)
	})
}
