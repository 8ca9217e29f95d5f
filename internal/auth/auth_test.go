package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm, err := NewTokenManager("test-secret", "mealplan", time.Hour)
	require.NoError(t, err)

	token, err := tm.GenerateToken("user-1", RoleVendor)
	require.NoError(t, err)

	p, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.UserID)
	assert.Equal(t, RoleVendor, p.Role)
	assert.NotEmpty(t, p.TokenJTI)
}

func TestTokenManager_DefaultsToCustomer(t *testing.T) {
	tm, err := NewTokenManager("test-secret", "", 0)
	require.NoError(t, err)

	token, err := tm.GenerateToken("user-1", "")
	require.NoError(t, err)
	p, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, RoleCustomer, p.Role)
}

func TestTokenManager_Rejects(t *testing.T) {
	tm, err := NewTokenManager("test-secret", "mealplan", time.Hour)
	require.NoError(t, err)
	other, err := NewTokenManager("other-secret", "mealplan", time.Hour)
	require.NoError(t, err)
	foreign, err := NewTokenManager("test-secret", "someone-else", time.Hour)
	require.NoError(t, err)

	wrongKey, _ := other.GenerateToken("user-1", RoleCustomer)
	wrongIssuer, _ := foreign.GenerateToken("user-1", RoleCustomer)

	past := time.Now().Add(-2 * time.Hour)
	expiredMgr, _ := NewTokenManager("test-secret", "mealplan", time.Hour)
	expiredMgr.now = func() time.Time { return past }
	expired, _ := expiredMgr.GenerateToken("user-1", RoleCustomer)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, token := range map[string]string{
		"wrong key":    wrongKey,
		"wrong issuer": wrongIssuer,
		"expired":      expired,
		"alg none":     unsigned,
		"garbage":      "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tm.ValidateToken(token)
			assert.Error(t, err)
		})
	}
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	_, err := NewTokenManager("", "", time.Hour)
	assert.Error(t, err)
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", UserID(ctx))
	_, err := RequireUser(ctx)
	assert.Error(t, err)

	ctx = WithPrincipal(ctx, &Principal{UserID: "u1", Role: RoleCustomer})
	id, err := RequireUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	p, ok := PrincipalFrom(ctx)
	require.True(t, ok)
	assert.False(t, p.HasRole(RoleVendor))
	assert.True(t, p.HasRole(RoleVendor, RoleCustomer))
	assert.True(t, (&Principal{Role: RoleAdmin}).HasRole(RoleVendor))

	ctx = WithRequestID(ctx, "req-1")
	assert.Equal(t, "req-1", GetRequestID(ctx))
}
