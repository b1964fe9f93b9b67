package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me/showrunner/internal/auth"
	"github.com/me/showrunner/pkg/model"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	clock := newFakeClock()
	issuer := auth.NewTokenIssuer("test-secret", 0).WithClock(clock.Now)
	u := &model.User{ID: "usr_1", Username: "rick", Role: model.RoleAdmin}

	token, expiresAt, err := issuer.Issue(u)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(auth.APITokenTTL), expiresAt)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "usr_1", claims.Subject)
	assert.Equal(t, "rick", claims.Username)
	assert.Equal(t, "admin", claims.Role)
}

func TestTokenIssuer_Expired(t *testing.T) {
	clock := newFakeClock()
	issuer := auth.NewTokenIssuer("test-secret", time.Hour).WithClock(clock.Now)

	token, _, err := issuer.Issue(&model.User{ID: "usr_1", Username: "rick"})
	require.NoError(t, err)

	clock.Advance(time.Hour + time.Second)
	_, err = issuer.Parse(token)
	require.Error(t, err)
	assert.Equal(t, auth.CodeInvalidOrExpiredToken, auth.Code(err))
}

func TestTokenIssuer_Rejects(t *testing.T) {
	clock := newFakeClock()
	issuer := auth.NewTokenIssuer("test-secret", 0).WithClock(clock.Now)
	other := auth.NewTokenIssuer("other-secret", 0).WithClock(clock.Now)

	foreign, _, err := other.Issue(&model.User{ID: "usr_1"})
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "usr_1",
		Issuer:    "showrunner",
		ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "usr_1",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "usr_1",
		Issuer:  "showrunner",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"wrong secret": foreign,
		"alg none":     none,
		"wrong issuer": wrongIssuer,
		"no expiry":    noExpiry,
		"garbage":      "not.a.jwt",
		"empty":        "",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Parse(token)
			require.Error(t, err)
			assert.Equal(t, auth.CodeInvalidOrExpiredToken, auth.Code(err))
		})
	}
}
