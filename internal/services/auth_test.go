package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, "test-secret")

	token, err := svc.Register("alice", "alice@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.ValidateToken(token)
	require.NoError(t, err)

	user, err := svc.GetUser(userID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Name)
	assert.False(t, user.IsAdmin)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register("imposter", "alice@example.com", "hunter2")
		assert.Error(t, err)
	})

	t.Run("login with right password", func(t *testing.T) {
		token, err := svc.Login("alice@example.com", "password123")
		require.NoError(t, err)
		id, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, id)
	})

	t.Run("login with wrong password", func(t *testing.T) {
		_, err := svc.Login("alice@example.com", "wrong")
		assert.Error(t, err)
	})
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db, "test-secret")
	other := NewAuthService(db, "another-secret")

	token, err := svc.GenerateToken(42)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)

	_, err = svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}
