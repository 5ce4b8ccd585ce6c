package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck/taskdeck-api/internal/domain"
	"github.com/taskdeck/taskdeck-api/internal/mocks"
	"github.com/taskdeck/taskdeck-api/internal/service/auth"
)

func newAuthFixture() (*AuthHandler, *mocks.MockUserStore, *mocks.MockJWTService) {
	users := mocks.NewMockUserStore()
	jwtService := &mocks.MockJWTService{Token: "signed-token"}
	handler := NewAuthHandler(users, jwtService, auth.NewBcryptVerifier())
	return handler, users, jwtService
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("creates a member account and returns tokens", func(t *testing.T) {
		t.Parallel()
		handler, users, _ := newAuthFixture()

		rec := postJSON(t, handler.Register, "/auth/register", RegisterRequest{
			Email:       "new@example.com",
			DisplayName: "New User",
			Password:    "a-long-enough-password",
		})

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, string(domain.RoleMember), resp.Role)
		assert.Equal(t, "signed-token", resp.AccessToken)

		stored, err := users.GetByEmail(context.Background(), "new@example.com")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleMember, stored.Role)
		assert.NotEqual(t, "a-long-enough-password", stored.HashedPassword)
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()
		handler, _, _ := newAuthFixture()

		body := RegisterRequest{
			Email:       "dup@example.com",
			DisplayName: "First",
			Password:    "a-long-enough-password",
		}
		require.Equal(t, http.StatusCreated, postJSON(t, handler.Register, "/auth/register", body).Code)
		assert.Equal(t, http.StatusConflict, postJSON(t, handler.Register, "/auth/register", body).Code)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		t.Parallel()
		handler, _, _ := newAuthFixture()

		cases := []struct {
			name string
			req  RegisterRequest
		}{
			{"malformed email", RegisterRequest{Email: "not-an-email", DisplayName: "X", Password: "a-long-enough-password"}},
			{"short password", RegisterRequest{Email: "ok@example.com", DisplayName: "X", Password: "short"}},
			{"blank display name", RegisterRequest{Email: "ok@example.com", DisplayName: "", Password: "a-long-enough-password"}},
		}
		for _, tc := range cases {
			rec := postJSON(t, handler.Register, "/auth/register", tc.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, tc.name)
		}
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	registered := func(t *testing.T) (*AuthHandler, *mocks.MockUserStore) {
		t.Helper()
		handler, users, _ := newAuthFixture()
		rec := postJSON(t, handler.Register, "/auth/register", RegisterRequest{
			Email:       "login@example.com",
			DisplayName: "Login User",
			Password:    "a-long-enough-password",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		return handler, users
	}

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()
		handler, _ := registered(t)

		rec := postJSON(t, handler.Login, "/auth/login", LoginRequest{
			Email:    "login@example.com",
			Password: "a-long-enough-password",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		handler, _ := registered(t)

		rec := postJSON(t, handler.Login, "/auth/login", LoginRequest{
			Email:    "login@example.com",
			Password: "wrong-password-entirely",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()
		handler, _, _ := newAuthFixture()

		rec := postJSON(t, handler.Login, "/auth/login", LoginRequest{
			Email:    "ghost@example.com",
			Password: "a-long-enough-password",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	t.Run("re-reads the role from the user record", func(t *testing.T) {
		t.Parallel()
		handler, users, jwtService := newAuthFixture()

		user, err := domain.NewUser("refresh@example.com", "Refresher", "a-long-enough-password")
		require.NoError(t, err)
		users.AddUser(user)

		// The stale claim says member, but the stored user has since been
		// promoted; the new tokens must carry the current role.
		user.Role = domain.RoleManager
		users.AddUser(user)
		jwtService.Claims = &auth.Claims{UserID: user.ID, Role: domain.RoleMember, TokenType: "refresh"}

		var issuedRoles []domain.Role
		jwtService.GenerateTokenFn = func(ctx context.Context, userID uuid.UUID, role domain.Role) (string, error) {
			issuedRoles = append(issuedRoles, role)
			return "fresh-token", nil
		}

		rec := postJSON(t, handler.RefreshToken, "/auth/refresh", RefreshTokenRequest{RefreshToken: "some-refresh-token"})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, issuedRoles, 1)
		assert.Equal(t, domain.RoleManager, issuedRoles[0])
	})

	t.Run("invalid refresh token", func(t *testing.T) {
		t.Parallel()
		handler, _, jwtService := newAuthFixture()
		jwtService.Err = auth.ErrInvalidRefreshToken

		rec := postJSON(t, handler.RefreshToken, "/auth/refresh", RefreshTokenRequest{RefreshToken: "garbage"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
