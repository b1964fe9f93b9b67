package auth

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"

	"github.com/me/showrunner/pkg/model"
)

// Password length limits. bcrypt ignores input past 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Registration is the input to Service.Register.
type Registration struct {
	Username string `json:"username" validate:"required,min=3,max=32,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// registrationMessages maps field and failed tag to the message shown to the user.
var registrationMessages = map[string]map[string]string{
	"username": {
		"required": "Username must be at least 3 characters",
		"min":      "Username must be at least 3 characters",
		"max":      "Username must be at most 32 characters",
		"username": "Username can only contain letters, numbers, and underscores",
	},
	"email": {
		"required": "Must be a valid email address",
		"email":    "Must be a valid email address",
		"max":      "Must be a valid email address",
	},
	"password": {
		"required": "Password must be at least 6 characters",
		"min":      "Password must be at least 6 characters",
		"max":      "Password must be at most 72 characters",
	},
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Normalize trims the username and normalizes the email in place.
func (r *Registration) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = NormalizeEmail(r.Email)
}

// Validate returns a VALIDATION_FAILED error listing every invalid field, or nil.
func (r *Registration) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return oops.Code(CodeValidationFailed).Wrap(err)
	}

	fields := make([]model.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg := registrationMessages[fe.Field()][fe.Tag()]
		if msg == "" {
			msg = fe.Error()
		}
		fields = append(fields, model.FieldError{Field: fe.Field(), Message: msg})
	}
	return oops.Code(CodeValidationFailed).
		With("fields", fields).
		Errorf("registration input invalid")
}

// ValidateNewPassword checks a password and its confirmation, in that order.
func ValidateNewPassword(password, confirm string) error {
	if password != confirm {
		return oops.Code(CodePasswordMismatch).Errorf("passwords do not match")
	}
	return checkPasswordLength(password)
}

func checkPasswordLength(password string) error {
	if len(password) < MinPasswordLength {
		return oops.Code(CodePasswordTooShort).Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return oops.Code(CodeValidationFailed).
			With("fields", []model.FieldError{{Field: "password", Message: "Password must be at most 72 characters"}}).
			Errorf("password too long")
	}
	return nil
}
