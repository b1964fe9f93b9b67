// Package apperr reads the codes and field errors carried by samber/oops
// errors and maps them onto HTTP statuses.
package apperr

import (
	"net/http"

	"github.com/samber/oops"

	"github.com/me/showrunner/pkg/model"
)

// Shared codes. Packages define their own domain codes alongside these.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
)

// Code returns the oops code attached to err, or "" for foreign errors.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	return codeString(oopsErr.Code())
}

func codeString(v any) string {
	s, _ := v.(string)
	return s
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && Code(err) == code
}

// FieldErrors returns the per-field messages attached under "fields".
func FieldErrors(err error) []model.FieldError {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}
	fields, _ := oopsErr.Context()["fields"].([]model.FieldError)
	return fields
}

// Validation builds a VALIDATION_FAILED error listing fields.
func Validation(msg string, fields []model.FieldError) error {
	return oops.Code(CodeValidationFailed).With("fields", fields).Errorf("%s", msg)
}

// NotFound builds a NOT_FOUND error for a resource id.
func NotFound(resource string, id any) error {
	return oops.Code(CodeNotFound).With("resource", resource).With("id", id).Errorf("%s not found", resource)
}

// Store codes a persistence failure.
func Store(op string, err error) error {
	return oops.Code(CodeStoreUnavailable).With("operation", op).Wrap(err)
}

// HTTPStatus maps an error code onto a response status.
func HTTPStatus(code string) int {
	switch code {
	case CodeValidationFailed, "PASSWORD_MISMATCH", "PASSWORD_TOO_SHORT", "DUPLICATE_IDENTITY":
		return http.StatusBadRequest
	case "INVALID_CREDENTIALS", "INVALID_OR_EXPIRED_TOKEN":
		return http.StatusUnauthorized
	case "ACCOUNT_BLOCKED", "FORBIDDEN", "SELF_ACTION_FORBIDDEN", "PASSWORD_RESET_REQUIRED":
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
