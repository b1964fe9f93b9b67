package auth

import (
	"github.com/samber/oops"

	"github.com/me/showrunner/internal/apperr"
	"github.com/me/showrunner/pkg/model"
)

// Error codes carried by errors returned from this package.
const (
	CodeDuplicateIdentity     = "DUPLICATE_IDENTITY"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeAccountBlocked        = "ACCOUNT_BLOCKED"
	CodeForbidden             = "FORBIDDEN"
	CodeSelfActionForbidden   = "SELF_ACTION_FORBIDDEN"
	CodeInvalidOrExpiredToken = "INVALID_OR_EXPIRED_TOKEN"
	CodePasswordMismatch      = "PASSWORD_MISMATCH"
	CodePasswordTooShort      = "PASSWORD_TOO_SHORT"
	CodeValidationFailed      = apperr.CodeValidationFailed
	CodeStoreUnavailable      = apperr.CodeStoreUnavailable
	CodeNotFound              = apperr.CodeNotFound
	CodeResetRequired         = "PASSWORD_RESET_REQUIRED"
)

// Code returns the oops code attached to err, or "" for foreign errors.
func Code(err error) string {
	return apperr.Code(err)
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return apperr.Is(err, code)
}

// FieldErrors returns the per-field messages of a VALIDATION_FAILED error.
func FieldErrors(err error) []model.FieldError {
	return apperr.FieldErrors(err)
}

func errInvalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Errorf("invalid username or password")
}

func errInvalidToken() error {
	return oops.Code(CodeInvalidOrExpiredToken).Errorf("invalid or expired reset token")
}

func errNotFound(userID string) error {
	return oops.Code(CodeNotFound).With("user_id", userID).Errorf("user not found")
}

func errSelfAction(op, userID string) error {
	return oops.Code(CodeSelfActionForbidden).
		With("operation", op).
		With("user_id", userID).
		Errorf("administrators cannot %s their own account", op)
}

// storeErr codes a persistence failure at the service boundary.
func storeErr(op string, err error) error {
	return apperr.Store(op, err)
}
