package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck/taskdeck-api/internal/config"
	"github.com/taskdeck/taskdeck-api/internal/domain"
)

const testSecret = "test-jwt-secret-at-least-32-characters-long"

func newTestJWTService(t *testing.T) *hmacJWTService {
	t.Helper()

	svc, err := NewJWTService(config.AuthConfig{
		JWTSecret:                   testSecret,
		TokenLifetimeMinutes:        15,
		RefreshTokenLifetimeMinutes: 60 * 24,
	})
	require.NoError(t, err)
	return svc.(*hmacJWTService)
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	t.Run("rejects short secret", func(t *testing.T) {
		t.Parallel()

		_, err := NewJWTService(config.AuthConfig{
			JWTSecret:            "too-short",
			TokenLifetimeMinutes: 15,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newTestJWTService(t)
	userID := uuid.New()

	token, err := svc.GenerateToken(ctx, userID, domain.RoleManager)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, domain.RoleManager, claims.Role)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newTestJWTService(t)
	userID := uuid.New()

	token, err := svc.GenerateRefreshToken(ctx, userID, domain.RoleMember)
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "refresh", claims.TokenType)
}

func TestTokenTypeConfusion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newTestJWTService(t)
	userID := uuid.New()

	access, err := svc.GenerateToken(ctx, userID, domain.RoleMember)
	require.NoError(t, err)
	refresh, err := svc.GenerateRefreshToken(ctx, userID, domain.RoleMember)
	require.NoError(t, err)

	// A refresh token must not pass access validation, and vice versa.
	_, err = svc.ValidateToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = svc.ValidateRefreshToken(ctx, access)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestExpiredToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newTestJWTService(t)
	userID := uuid.New()

	issuedAt := time.Now().UTC()
	svc.timeFunc = func() time.Time { return issuedAt }

	access, err := svc.GenerateToken(ctx, userID, domain.RoleMember)
	require.NoError(t, err)
	refresh, err := svc.GenerateRefreshToken(ctx, userID, domain.RoleMember)
	require.NoError(t, err)

	// Jump past the access lifetime plus the clock skew allowance.
	svc.timeFunc = func() time.Time { return issuedAt.Add(20 * time.Minute) }

	_, err = svc.ValidateToken(ctx, access)
	assert.ErrorIs(t, err, ErrExpiredToken)

	// The refresh token is still inside its own lifetime.
	_, err = svc.ValidateRefreshToken(ctx, refresh)
	assert.NoError(t, err)

	svc.timeFunc = func() time.Time { return issuedAt.Add(25 * time.Hour) }
	_, err = svc.ValidateRefreshToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrExpiredRefreshToken)
}

func TestClockSkewTolerance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newTestJWTService(t)
	userID := uuid.New()

	issuedAt := time.Now().UTC()
	svc.timeFunc = func() time.Time { return issuedAt }

	token, err := svc.GenerateToken(ctx, userID, domain.RoleMember)
	require.NoError(t, err)

	// One minute past expiry is inside the two-minute skew window.
	svc.timeFunc = func() time.Time { return issuedAt.Add(16 * time.Minute) }

	_, err = svc.ValidateToken(ctx, token)
	assert.NoError(t, err)
}

func TestTamperedToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newTestJWTService(t)

	token, err := svc.GenerateToken(ctx, uuid.New(), domain.RoleMember)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	t.Run("modified payload", func(t *testing.T) {
		t.Parallel()

		tampered := parts[0] + "." + parts[1][:len(parts[1])-2] + "xx" + "." + parts[2]
		_, err := svc.ValidateToken(ctx, tampered)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("signed with a different key", func(t *testing.T) {
		t.Parallel()

		other, err := NewJWTService(config.AuthConfig{
			JWTSecret:                   "another-secret-also-32-characters-or-more",
			TokenLifetimeMinutes:        15,
			RefreshTokenLifetimeMinutes: 60,
		})
		require.NoError(t, err)

		foreign, err := other.GenerateToken(ctx, uuid.New(), domain.RoleAdmin)
		require.NoError(t, err)

		_, err = svc.ValidateToken(ctx, foreign)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage input", func(t *testing.T) {
		t.Parallel()

		_, err := svc.ValidateToken(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
