package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck/taskdeck-api/internal/api/shared"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/mocks"
	"github.com/taskdeck/taskdeck-api/internal/service"
)

// apiFixture wires the task, comment, and dashboard handlers behind a
// chi router, with an identity-injecting middleware standing in for
// JWT authentication.
type apiFixture struct {
	router *chi.Mux
	tasks  *mocks.MockTaskStore
	users  *mocks.MockUserStore
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	f := &apiFixture{
		tasks: mocks.NewMockTaskStore(),
		users: mocks.NewMockUserStore(),
	}

	taskService, err := service.NewTaskService(nil, f.tasks, mocks.NewMockCommentStore(), f.users, &mocks.MockEventEmitter{}, slog.Default())
	require.NoError(t, err)

	taskHandler := NewTaskHandler(taskService)
	commentHandler := NewCommentHandler(taskService)

	r := chi.NewRouter()
	r.Post("/tasks", taskHandler.CreateTask)
	r.Get("/tasks", taskHandler.ListTasks)
	r.Get("/tasks/{id}", taskHandler.GetTask)
	r.Put("/tasks/{id}", taskHandler.UpdateTask)
	r.Delete("/tasks/{id}", taskHandler.DeleteTask)
	r.Post("/tasks/{id}/assign", taskHandler.AssignTask)
	r.Post("/tasks/{id}/complete", taskHandler.CompleteTask)
	r.Post("/tasks/{id}/archive", taskHandler.ArchiveTask)
	r.Post("/tasks/{id}/comments", commentHandler.CreateComment)
	r.Get("/tasks/{id}/comments", commentHandler.ListComments)
	r.Delete("/comments/{id}", commentHandler.DeleteComment)

	f.router = r
	return f
}

func (f *apiFixture) addUser(t *testing.T, role domain.Role) *domain.User {
	t.Helper()

	user, err := domain.NewUser(fmt.Sprintf("%s@example.com", uuid.New()), "API User", "a-long-enough-password")
	require.NoError(t, err)
	user.Role = role
	f.users.AddUser(user)
	return user
}

func (f *apiFixture) addTask(t *testing.T, creatorID uuid.UUID, status domain.TaskStatus) *domain.Task {
	t.Helper()

	task, err := domain.NewTask(creatorID, "prepare onboarding", "", domain.TaskPriorityMedium, nil)
	require.NoError(t, err)
	task.Status = status
	f.tasks.AddTask(task)
	return task
}

// do performs a request with the given user injected into the context,
// the way the auth middleware would after validating a token.
func (f *apiFixture) do(t *testing.T, user *domain.User, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	if user != nil {
		ctx := context.WithValue(req.Context(), shared.UserIDContextKey, user.ID)
		ctx = context.WithValue(ctx, shared.RoleContextKey, user.Role)
		req = req.WithContext(ctx)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestTaskEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("create", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)
		member := f.addUser(t, domain.RoleMember)

		rec := f.do(t, member, http.MethodPost, "/tasks", CreateTaskRequest{Title: "draft roadmap"})
		require.Equal(t, http.StatusCreated, rec.Code)

		var task domain.Task
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
		assert.Equal(t, "draft roadmap", task.Title)
		assert.Equal(t, domain.TaskStatusPending, task.Status)
		assert.Equal(t, domain.TaskPriorityMedium, task.Priority, "priority defaults to medium")
	})

	t.Run("create without identity", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)

		rec := f.do(t, nil, http.MethodPost, "/tasks", CreateTaskRequest{Title: "x"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("create with invalid body", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)
		member := f.addUser(t, domain.RoleMember)

		rec := f.do(t, member, http.MethodPost, "/tasks", map[string]string{"title": ""})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = f.do(t, member, http.MethodPost, "/tasks", map[string]string{"title": "ok", "bogus_field": "x"})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")
	})

	t.Run("get visibility", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)
		creator := f.addUser(t, domain.RoleMember)
		stranger := f.addUser(t, domain.RoleMember)
		task := f.addTask(t, creator.ID, domain.TaskStatusPending)

		assert.Equal(t, http.StatusOK, f.do(t, creator, http.MethodGet, "/tasks/"+task.ID.String(), nil).Code)
		assert.Equal(t, http.StatusForbidden, f.do(t, stranger, http.MethodGet, "/tasks/"+task.ID.String(), nil).Code)
		assert.Equal(t, http.StatusNotFound, f.do(t, creator, http.MethodGet, "/tasks/"+uuid.NewString(), nil).Code)
		assert.Equal(t, http.StatusBadRequest, f.do(t, creator, http.MethodGet, "/tasks/not-a-uuid", nil).Code)
	})

	t.Run("list with status filter", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)
		member := f.addUser(t, domain.RoleMember)
		f.addTask(t, member.ID, domain.TaskStatusPending)
		f.addTask(t, member.ID, domain.TaskStatusCompleted)

		rec := f.do(t, member, http.MethodGet, "/tasks?status=pending", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var tasks []*domain.Task
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
		require.Len(t, tasks, 1)
		assert.Equal(t, domain.TaskStatusPending, tasks[0].Status)

		assert.Equal(t, http.StatusBadRequest, f.do(t, member, http.MethodGet, "/tasks?status=bogus", nil).Code)
	})

	t.Run("assign", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)
		creator := f.addUser(t, domain.RoleMember)
		manager := f.addUser(t, domain.RoleManager)
		assignee := f.addUser(t, domain.RoleMember)
		task := f.addTask(t, creator.ID, domain.TaskStatusPending)

		path := "/tasks/" + task.ID.String() + "/assign"

		rec := f.do(t, manager, http.MethodPost, path, AssignTaskRequest{AssigneeID: assignee.ID})
		require.Equal(t, http.StatusOK, rec.Code)

		var updated domain.Task
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, domain.TaskStatusInProgress, updated.Status)

		// Members may not assign, unknown assignees map to 404.
		assert.Equal(t, http.StatusForbidden, f.do(t, creator, http.MethodPost, path, AssignTaskRequest{AssigneeID: assignee.ID}).Code)
		assert.Equal(t, http.StatusNotFound, f.do(t, manager, http.MethodPost, path, AssignTaskRequest{AssigneeID: uuid.New()}).Code)
	})

	t.Run("complete and archive", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)
		creator := f.addUser(t, domain.RoleMember)
		task := f.addTask(t, creator.ID, domain.TaskStatusInProgress)

		base := "/tasks/" + task.ID.String()

		// Archive before completion conflicts.
		assert.Equal(t, http.StatusConflict, f.do(t, creator, http.MethodPost, base+"/archive", nil).Code)

		require.Equal(t, http.StatusOK, f.do(t, creator, http.MethodPost, base+"/complete", nil).Code)
		require.Equal(t, http.StatusOK, f.do(t, creator, http.MethodPost, base+"/archive", nil).Code)

		// Everything after archival conflicts.
		assert.Equal(t, http.StatusConflict, f.do(t, creator, http.MethodPost, base+"/archive", nil).Code)
		assert.Equal(t, http.StatusConflict, f.do(t, creator, http.MethodPost, base+"/complete", nil).Code)
	})

	t.Run("update", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)
		creator := f.addUser(t, domain.RoleMember)
		task := f.addTask(t, creator.ID, domain.TaskStatusPending)

		title := "narrow the scope"
		rec := f.do(t, creator, http.MethodPut, "/tasks/"+task.ID.String(), UpdateTaskRequest{Title: &title})
		require.Equal(t, http.StatusOK, rec.Code)

		var updated domain.Task
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "narrow the scope", updated.Title)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)
		creator := f.addUser(t, domain.RoleMember)
		admin := f.addUser(t, domain.RoleAdmin)
		task := f.addTask(t, creator.ID, domain.TaskStatusPending)

		path := "/tasks/" + task.ID.String()

		assert.Equal(t, http.StatusForbidden, f.do(t, creator, http.MethodDelete, path, nil).Code)
		assert.Equal(t, http.StatusNoContent, f.do(t, admin, http.MethodDelete, path, nil).Code)
		assert.Equal(t, http.StatusNotFound, f.do(t, admin, http.MethodDelete, path, nil).Code)
	})
}

func TestCommentEndpoints(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	creator := f.addUser(t, domain.RoleMember)
	stranger := f.addUser(t, domain.RoleMember)
	admin := f.addUser(t, domain.RoleAdmin)
	task := f.addTask(t, creator.ID, domain.TaskStatusPending)

	base := "/tasks/" + task.ID.String() + "/comments"

	rec := f.do(t, creator, http.MethodPost, base, CreateCommentRequest{Body: "looks good"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var comment domain.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &comment))
	assert.Equal(t, task.ID, comment.TaskID)

	// Visibility applies to comments the same as to the task.
	assert.Equal(t, http.StatusForbidden, f.do(t, stranger, http.MethodPost, base, CreateCommentRequest{Body: "mine too"}).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, stranger, http.MethodGet, base, nil).Code)

	rec = f.do(t, creator, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var comments []*domain.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &comments))
	require.Len(t, comments, 1)

	// Only the author or an admin may delete.
	commentPath := "/comments/" + comment.ID.String()
	assert.Equal(t, http.StatusForbidden, f.do(t, stranger, http.MethodDelete, commentPath, nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, admin, http.MethodDelete, commentPath, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, admin, http.MethodDelete, commentPath, nil).Code)
}

func TestDashboardEndpoint(t *testing.T) {
	t.Parallel()

	dashboards := &mocks.MockDashboardStore{
		Counts:  map[domain.TaskStatus]int{domain.TaskStatusPending: 4},
		Overdue: 1,
	}
	dashboardService, err := service.NewDashboardService(dashboards, slog.Default())
	require.NoError(t, err)

	handler := NewDashboardHandler(dashboardService)

	r := chi.NewRouter()
	r.Get("/dashboard", handler.GetSummary)

	viewer, err := domain.NewUser("viewer@example.com", "Viewer", "a-long-enough-password")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	ctx := context.WithValue(req.Context(), shared.UserIDContextKey, viewer.ID)
	ctx = context.WithValue(ctx, shared.RoleContextKey, viewer.Role)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req.WithContext(ctx))

	require.Equal(t, http.StatusOK, rec.Code)

	var summary service.DashboardSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 4, summary.CountsByStatus[domain.TaskStatusPending])
	assert.Equal(t, 0, summary.CountsByStatus[domain.TaskStatusArchived])
	assert.Equal(t, 1, summary.OverdueCount)

	// No identity on the context means no summary.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
