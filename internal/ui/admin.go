package ui

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/me/showrunner/internal/auth"
	"github.com/me/showrunner/internal/metrics"
	"github.com/me/showrunner/internal/session"
)

// HandleAdminDashboard lists all users, newest first.
func (ui *UI) HandleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	users, err := ui.auth.ListUsers(r.Context())
	if err != nil {
		ui.fail(w, r, err)
		return
	}
	ui.render(w, r, http.StatusOK, "admin/index", map[string]any{
		"Title": "Admin Dashboard",
		"Users": users,
	})
}

// HandleAdminToggleBlock blocks or unblocks a user. Blocking ends the
// user's sessions.
func (ui *UI) HandleAdminToggleBlock(w http.ResponseWriter, r *http.Request) {
	actor := session.FromContext(r.Context())
	u, err := ui.auth.ToggleBlocked(r.Context(), actor.UserID, chi.URLParam(r, "id"))
	switch {
	case auth.Is(err, auth.CodeSelfActionForbidden):
		ui.flash(w, r, session.FlashError, "You cannot block yourself.", "/admin")
		return
	case auth.Is(err, auth.CodeNotFound):
		ui.flash(w, r, session.FlashError, "User not found.", "/admin")
		return
	case err != nil:
		ui.logger.Error("toggle block failed", "error", err)
		ui.flash(w, r, session.FlashError, "Failed to update user status.", "/admin")
		return
	}

	state := "unblocked"
	if u.IsBlocked {
		state = "blocked"
		if _, err := ui.sessions.DestroyUser(r.Context(), u.ID); err != nil {
			ui.logger.Error("destroy sessions of blocked user failed", "user_id", u.ID, "error", err)
		}
	}
	ui.logger.Info("user block toggled", "actor", actor.UserID, "user_id", u.ID, "blocked", u.IsBlocked)
	ui.flash(w, r, session.FlashSuccess, fmt.Sprintf("User %q has been %s.", u.Username, state), "/admin")
}

// HandleAdminForceReset requires a user to choose a new password. Live
// sessions of that user are redirected by Guard on their next request.
func (ui *UI) HandleAdminForceReset(w http.ResponseWriter, r *http.Request) {
	actor := session.FromContext(r.Context())
	u, err := ui.auth.ForceReset(r.Context(), chi.URLParam(r, "id"))
	switch {
	case auth.Is(err, auth.CodeNotFound):
		ui.flash(w, r, session.FlashError, "User not found.", "/admin")
		return
	case err != nil:
		ui.logger.Error("force reset failed", "error", err)
		ui.flash(w, r, session.FlashError, "Failed to force password reset.", "/admin")
		return
	}

	ui.metrics.RecordReset(metrics.ResetForced)
	ui.logger.Info("password reset forced", "actor", actor.UserID, "user_id", u.ID)
	ui.flash(w, r, session.FlashSuccess,
		fmt.Sprintf("User %q will be required to reset their password on next login.", u.Username), "/admin")
}

// HandleAdminDelete removes a user and ends their sessions.
func (ui *UI) HandleAdminDelete(w http.ResponseWriter, r *http.Request) {
	actor := session.FromContext(r.Context())
	u, err := ui.auth.Delete(r.Context(), actor.UserID, chi.URLParam(r, "id"))
	switch {
	case auth.Is(err, auth.CodeSelfActionForbidden):
		ui.flash(w, r, session.FlashError, "You cannot delete yourself.", "/admin")
		return
	case auth.Is(err, auth.CodeNotFound):
		ui.flash(w, r, session.FlashError, "User not found.", "/admin")
		return
	case err != nil:
		ui.logger.Error("delete user failed", "error", err)
		ui.flash(w, r, session.FlashError, "Failed to delete user.", "/admin")
		return
	}

	if _, err := ui.sessions.DestroyUser(r.Context(), u.ID); err != nil {
		ui.logger.Error("destroy sessions of deleted user failed", "user_id", u.ID, "error", err)
	}
	ui.logger.Info("user deleted", "actor", actor.UserID, "user_id", u.ID)
	ui.flash(w, r, session.FlashSuccess, fmt.Sprintf("User %q has been deleted.", u.Username), "/admin")
}
