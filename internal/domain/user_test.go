package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	t.Run("new users are members", func(t *testing.T) {
		t.Parallel()

		user, err := NewUser("ada@example.com", "Ada", "correct-horse-battery")
		require.NoError(t, err)
		assert.Equal(t, RoleMember, user.Role)
		assert.Equal(t, "ada@example.com", user.Email)
	})

	t.Run("rejects short password", func(t *testing.T) {
		t.Parallel()

		_, err := NewUser("ada@example.com", "Ada", "short")
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("rejects password beyond bcrypt limit", func(t *testing.T) {
		t.Parallel()

		_, err := NewUser("ada@example.com", "Ada", strings.Repeat("p", 73))
		assert.ErrorIs(t, err, ErrPasswordTooLong)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		t.Parallel()

		for _, email := range []string{"no-at-sign", "@nodomain.com", "user@", "user@nodot"} {
			_, err := NewUser(email, "Ada", "correct-horse-battery")
			assert.ErrorIs(t, err, ErrInvalidEmail, "email %q", email)
		}
	})

	t.Run("rejects blank display name", func(t *testing.T) {
		t.Parallel()

		_, err := NewUser("ada@example.com", "  ", "correct-horse-battery")
		assert.ErrorIs(t, err, ErrEmptyDisplayName)
	})
}

func TestUserValidateLoadedFromStore(t *testing.T) {
	t.Parallel()

	// Users read back from the database carry only the hash.
	user, err := NewUser("ada@example.com", "Ada", "correct-horse-battery")
	require.NoError(t, err)

	user.Password = ""
	user.HashedPassword = "$2a$10$abcdefghijklmnopqrstuv"
	assert.NoError(t, user.Validate())

	user.HashedPassword = ""
	assert.ErrorIs(t, user.Validate(), ErrEmptyPassword)
}

func TestRoleIsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, RoleAdmin.IsValid())
	assert.True(t, RoleManager.IsValid())
	assert.True(t, RoleMember.IsValid())
	assert.False(t, Role("owner").IsValid())
	assert.False(t, Role("").IsValid())
}
