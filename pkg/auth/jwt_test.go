package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockdesk/pkg/apperr"
	"github.com/shashiranjanraj/stockdesk/pkg/auth"
)

func sign(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID:   7,
		Username: "clerk",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}).SignedString([]byte("not-our-secret"))
	require.NoError(t, err)
	return tok
}

func TestInspectReadsClaimsWithoutKey(t *testing.T) {
	now := time.Now()
	claims, err := auth.Inspect("Bearer " + sign(t, now.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "clerk", claims.Username)
}

func TestEnsureFresh(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.NoError(t, auth.EnsureFresh(sign(t, now.Add(time.Hour)), now, time.Minute))
	assert.NoError(t, auth.EnsureFresh("opaque-token", now, time.Minute))

	err := auth.EnsureFresh(sign(t, now.Add(30*time.Second)), now, time.Minute)
	assert.True(t, apperr.Is(err, apperr.Unauthorized))

	err = auth.EnsureFresh("", now, 0)
	assert.True(t, apperr.Is(err, apperr.Unauthorized))

	err = auth.EnsureFresh("a.b.c", now, 0)
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
}
