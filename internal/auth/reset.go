package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/samber/oops"
)

// Reset token configuration.
const (
	ResetTokenBytes  = 32        // 32 bytes = 64 hex chars
	ResetTokenExpiry = time.Hour // valid while now < issuedAt+expiry
)

// GenerateResetToken creates a secure random token and its hash.
// The plaintext token goes into the reset link; only the hash is stored.
func GenerateResetToken() (token, hash string, err error) {
	tokenBytes := make([]byte, ResetTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("RESET_TOKEN_GENERATE_FAILED").Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	return token, hashResetToken(token), nil
}

// VerifyResetToken checks if the plaintext token matches the stored hash
// in constant time.
func VerifyResetToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	computed := hashResetToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

func hashResetToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
