package model

import "time"

// Session represents a browser session. A session with MustResetPassword set
// may only reach the reset page named by ResetToken.
type Session struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Username          string    `json:"username"`
	Role              string    `json:"role"`
	MustResetPassword bool      `json:"must_reset_password"`
	ResetToken        string    `json:"-"`
	FlashSuccess      string    `json:"-"`
	FlashError        string    `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// IsExpired reports whether the session has expired.
func (s *Session) IsExpired() bool {
	return s.ExpiredAt(time.Now())
}

// ExpiredAt reports whether the session is expired at the given instant.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// IsAdmin reports whether the session has admin role.
func (s *Session) IsAdmin() bool {
	return s.Role == string(RoleAdmin)
}

// IsAuthenticated reports whether the session is bound to a user.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != ""
}
