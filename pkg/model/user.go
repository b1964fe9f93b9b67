package model

import "time"

// UserRole represents the role of a user in the system.
type UserRole string

const (
	// RoleUser is a standard registered user.
	RoleUser UserRole = "user"
	// RoleAdmin may manage other users.
	RoleAdmin UserRole = "admin"
)

// User represents a registered account.
type User struct {
	ID                     string     `json:"id"`
	Username               string     `json:"username"`
	Email                  string     `json:"email"`
	PasswordHash           string     `json:"-"`
	Role                   UserRole   `json:"role"`
	IsBlocked              bool       `json:"is_blocked"`
	RequirePasswordReset   bool       `json:"require_password_reset"`
	ResetPasswordTokenHash string     `json:"-"`
	ResetPasswordExpiresAt *time.Time `json:"-"`
	CreatedAt              time.Time  `json:"created_at"`
	LastLoginAt            *time.Time `json:"last_login_at,omitempty"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ClearResetToken drops any outstanding reset token.
func (u *User) ClearResetToken() {
	u.ResetPasswordTokenHash = ""
	u.ResetPasswordExpiresAt = nil
}
