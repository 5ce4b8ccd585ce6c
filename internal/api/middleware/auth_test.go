package middleware

import (
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

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	newFixture := func(jwtService *mocks.MockJWTService) (http.Handler, *bool, *uuid.UUID, *domain.Role) {
		var called bool
		var gotID uuid.UUID
		var gotRole domain.Role

		mw := NewAuthMiddleware(jwtService)
		handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			gotID, _ = GetUserID(r)
			gotRole, _ = GetRole(r)
			w.WriteHeader(http.StatusOK)
		}))
		return handler, &called, &gotID, &gotRole
	}

	t.Run("valid token reaches the handler with identity", func(t *testing.T) {
		t.Parallel()

		jwtService := &mocks.MockJWTService{
			Claims: &auth.Claims{UserID: userID, Role: domain.RoleManager, TokenType: "access"},
		}
		handler, called, gotID, gotRole := newFixture(jwtService)

		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, *called)
		assert.Equal(t, userID, *gotID)
		assert.Equal(t, domain.RoleManager, *gotRole)
	})

	t.Run("rejections never reach the handler", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			name       string
			authHeader string
			err        error
			wantStatus int
		}{
			{"missing header", "", nil, http.StatusUnauthorized},
			{"not bearer", "Basic dXNlcjpwYXNz", nil, http.StatusUnauthorized},
			{"expired token", "Bearer stale", auth.ErrExpiredToken, http.StatusUnauthorized},
			{"invalid token", "Bearer garbage", auth.ErrInvalidToken, http.StatusUnauthorized},
			{"refresh token on an access route", "Bearer refresh", auth.ErrWrongTokenType, http.StatusUnauthorized},
		}

		for _, tc := range cases {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				jwtService := &mocks.MockJWTService{Err: tc.err}
				handler, called, _, _ := newFixture(jwtService)

				req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
				if tc.authHeader != "" {
					req.Header.Set("Authorization", tc.authHeader)
				}
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)

				assert.Equal(t, tc.wantStatus, rec.Code)
				assert.False(t, *called)
			})
		}
	})
}
