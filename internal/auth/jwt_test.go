package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volunteer_backend/internal/models"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)
	role := models.UserRoleNGO
	u := &models.User{Email: "ngo@example.org", Role: &role}
	u.ID = "5d1c6a0e-3a3c-4a55-9d8f-1f5c2d1a0b11"

	token, err := m.GenerateToken(u)
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "ngo@example.org", claims.Email)
	assert.True(t, claims.HasRole(models.UserRoleNGO))
	require.NotNil(t, claims.UserRole())
	assert.Equal(t, models.UserRoleNGO, *claims.UserRole())
}

func TestManager_NoRoleYet(t *testing.T) {
	m := NewManager("secret", time.Hour)
	u := &models.User{Email: "new@example.org"}
	u.ID = "id-1"

	token, err := m.GenerateToken(u)
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Nil(t, claims.UserRole())
}

func TestManager_Rejects(t *testing.T) {
	m := NewManager("secret", time.Minute)
	u := &models.User{}
	u.ID = "id-1"
	token, err := m.GenerateToken(u)
	require.NoError(t, err)

	_, err = NewManager("other", time.Minute).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ParseToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.ParseToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
