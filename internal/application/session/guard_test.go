package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edurisk/atrisk-tracker/pkg/logger"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestSetSession_ParsesIdentityClaims(t *testing.T) {
	g := NewGuard(nil, logger.Discard())

	tok := signedToken(t, jwt.MapClaims{
		"sub":  "u-17",
		"name": "Dr. Sattar",
		"role": "faculty",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, g.SetSession(tok))

	assert.True(t, g.IsAuthenticated())
	user := g.CurrentUser()
	assert.Equal(t, "u-17", user.ID)
	assert.Equal(t, "Dr. Sattar", user.Name)
	assert.Equal(t, RoleFaculty, user.Role)
	assert.Equal(t, tok, g.Token())
}

func TestSetSession_OpaqueTokenStillAuthenticates(t *testing.T) {
	g := NewGuard(nil, logger.Discard())
	require.NoError(t, g.SetSession("opaque-session-token"))

	assert.True(t, g.IsAuthenticated())
	assert.Equal(t, Identity{}, g.CurrentUser())
}

func TestSetSession_EmptyTokenRejected(t *testing.T) {
	g := NewGuard(nil, logger.Discard())
	assert.Error(t, g.SetSession("  "))
	assert.False(t, g.IsAuthenticated())
}

func TestClear_FiresTeardownOnce(t *testing.T) {
	g := NewGuard(nil, logger.Discard())
	teardowns := 0
	g.OnTeardown(func() { teardowns++ })

	require.NoError(t, g.SetSession("tok"))
	g.Clear()
	g.Clear() // already unauthenticated, no second teardown

	assert.Equal(t, 1, teardowns)
	assert.False(t, g.IsAuthenticated())
	assert.Equal(t, "", g.Token())
}

func TestExpiredTokenCountsAsAbsent(t *testing.T) {
	current := time.Now()
	g := NewGuard(nil, logger.Discard()).WithClock(func() time.Time { return current })

	teardowns := 0
	g.OnTeardown(func() { teardowns++ })

	tok := signedToken(t, jwt.MapClaims{
		"sub": "u-1",
		"exp": current.Add(10 * time.Minute).Unix(),
	})
	require.NoError(t, g.SetSession(tok))
	require.True(t, g.IsAuthenticated())

	// Advance past expiry: the guard notices and tears the session down.
	current = current.Add(11 * time.Minute)
	assert.False(t, g.IsAuthenticated())
	assert.Equal(t, "", g.Token())
	assert.Equal(t, 1, teardowns)
}
