package ui

import (
	"net/http"
	"strings"

	"github.com/me/showrunner/internal/auth"
	"github.com/me/showrunner/internal/metrics"
	"github.com/me/showrunner/internal/session"
	"github.com/me/showrunner/pkg/model"
)

// guardExempt reports whether path is served regardless of a pending reset.
func guardExempt(path string) bool {
	return strings.HasPrefix(path, "/auth/") || strings.HasPrefix(path, "/static/")
}

// Guard is the single pending-reset check for HTML routes. A session flagged
// for reset is sent to its reset page. Otherwise the user record is re-read:
// deleted or blocked users lose the session, and a reset forced since login
// upgrades the session and redirects. Must be used after session.Middleware.
func (ui *UI) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if sess == nil || guardExempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if sess.MustResetPassword && sess.ResetToken != "" {
			http.Redirect(w, r, resetPath(sess.ResetToken), http.StatusSeeOther)
			return
		}

		u, err := ui.auth.GetUser(r.Context(), sess.UserID)
		switch {
		case auth.Is(err, auth.CodeNotFound):
			ui.endSession(w, r, sess, "user no longer exists")
			return
		case err != nil:
			ui.fail(w, r, err)
			return
		case u.IsBlocked:
			ui.endSession(w, r, sess, "user is blocked")
			return
		case u.RequirePasswordReset || sess.MustResetPassword:
			ui.beginPendingReset(w, r, sess)
			return
		}

		if sess.Role != string(u.Role) {
			sess.Role = string(u.Role)
			if err := ui.sessions.Save(r.Context(), sess); err != nil {
				ui.logger.Warn("refresh session role failed", "user_id", u.ID, "error", err)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// beginPendingReset mints a reset token for the session's user, binds it to
// the session and redirects to its reset page.
func (ui *UI) beginPendingReset(w http.ResponseWriter, r *http.Request, sess *model.Session) {
	token, err := ui.auth.IssueResetToken(r.Context(), sess.UserID)
	if err != nil {
		ui.fail(w, r, err)
		return
	}
	if err := ui.sessions.MarkPendingReset(r.Context(), sess, token); err != nil {
		ui.logger.Error("mark pending reset failed", "user_id", sess.UserID, "error", err)
		ui.renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again later.")
		return
	}
	ui.metrics.RecordReset(metrics.ResetRequested)
	ui.logger.Info("password reset required", "user_id", sess.UserID)
	http.Redirect(w, r, resetPath(token), http.StatusSeeOther)
}

func (ui *UI) endSession(w http.ResponseWriter, r *http.Request, sess *model.Session, reason string) {
	if err := ui.sessions.Destroy(r.Context(), sess.ID); err != nil {
		ui.logger.Warn("destroy session failed", "user_id", sess.UserID, "error", err)
	}
	ui.sessions.ClearCookie(w)
	ui.logger.Info("session ended", "user_id", sess.UserID, "reason", reason)
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

// RequireAdmin ensures the user has the admin role.
// Must be used after Guard.
func (ui *UI) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if sess == nil {
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}

		if !sess.IsAdmin() {
			ui.renderError(w, r, http.StatusForbidden, "You do not have permission to access this page. Admin access required.")
			return
		}

		next.ServeHTTP(w, r)
	})
}
