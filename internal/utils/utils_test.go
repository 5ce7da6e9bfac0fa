package utils

import (
	"testing"
	"time"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", 7*24*time.Hour, 24*time.Hour)
	id := models.Identity{Kind: models.KindAdmin, ID: 3, Name: "Ops", Email: "ops@example.com", Role: models.RoleAdmin}

	token, exp, err := m.Generate(id, 4)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), exp, time.Minute)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.Identity())
	assert.Equal(t, 4, claims.TokenVersion)
}

func TestTokenManager_StudentTTL(t *testing.T) {
	m := NewTokenManager("secret", 7*24*time.Hour, 24*time.Hour)
	_, exp, err := m.Generate(models.Identity{Kind: models.KindStudent, ID: 1}, 1)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), exp, time.Minute)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, time.Hour)
	id := models.Identity{Kind: models.KindStudent, ID: 1}

	other := NewTokenManager("other", time.Hour, time.Hour)
	token, _, err := other.Generate(id, 1)
	require.NoError(t, err)
	_, err = m.Parse(token)
	assert.Error(t, err, "wrong secret")

	expired := NewTokenManager("secret", time.Hour, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err = expired.Generate(id, 1)
	require.NoError(t, err)
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, models.UserClaims{UserID: 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Parse(none)
	assert.Error(t, err, "none algorithm")

	_, _, err = NewTokenManager("", time.Hour, time.Hour).Generate(id, 1)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		page, limit      string
		wantPage, wantLn int
		wantOffset       int
	}{
		{"", "", 1, 20, 0},
		{"3", "10", 3, 10, 20},
		{"0", "-5", 1, 20, 0},
		{"2", "500", 2, 100, 100},
		{"x", "y", 1, 20, 0},
	}
	for _, tt := range tests {
		p := NewPagination(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, p.Page)
		assert.Equal(t, tt.wantLn, p.Limit)
		assert.Equal(t, tt.wantOffset, p.Offset)
	}

	p := NewPagination("1", "20")
	p.SetTotal(41)
	assert.Equal(t, 3, p.TotalPages)
}
