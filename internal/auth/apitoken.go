package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"

	"github.com/me/showrunner/pkg/model"
)

// APITokenTTL is the lifetime of bearer tokens issued by the JSON login.
const APITokenTTL = time.Hour

const apiTokenIssuer = "showrunner"

// APIClaims holds JWT claims for bearer tokens.
type APIClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

// TokenIssuer issues and validates HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns a TokenIssuer signing with secret.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = APITokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the issuer using now as its time source.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	c := *t
	c.now = now
	return &c
}

// Issue returns a signed token for u and its expiry.
func (t *TokenIssuer) Issue(u *model.User) (string, time.Time, error) {
	now := t.now().UTC()
	expiresAt := now.Add(t.ttl)
	claims := APIClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    apiTokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: u.Username,
		Role:     string(u.Role),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, oops.Code("API_TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, expiresAt, nil
}

// Parse validates signature, issuer and expiry and returns the claims.
func (t *TokenIssuer) Parse(token string) (*APIClaims, error) {
	claims := &APIClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(apiTokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, jwt.ErrTokenExpired) {
			reason = "expired"
		}
		return nil, oops.Code(CodeInvalidOrExpiredToken).With("reason", reason).Wrap(err)
	}
	if claims.Subject == "" {
		return nil, oops.Code(CodeInvalidOrExpiredToken).Errorf("token has no subject")
	}
	return claims, nil
}
