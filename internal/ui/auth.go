package ui

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/me/showrunner/internal/auth"
	"github.com/me/showrunner/internal/metrics"
	"github.com/me/showrunner/internal/session"
)

const (
	msgInvalidLogin  = "Invalid username or password"
	msgBlockedLogin  = "Your account has been blocked. Please contact an administrator."
	msgResetSent     = "If that email exists, a reset link has been sent."
	msgResetSendFail = "Error sending reset email. Please try again."
	msgInvalidToken  = "Invalid or expired reset token. Please request a new one."
	msgDuplicateUser = "User with this email or username already exists"
)

// HandleLogin renders the login page.
func (ui *UI) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ui.render(w, r, http.StatusOK, "auth/login", map[string]any{
		"Title": "Login",
	})
}

// HandleLoginPost processes the login form.
func (ui *UI) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ui.renderError(w, r, http.StatusBadRequest, "Invalid request")
		return
	}

	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	data := map[string]any{
		"Title":    "Login",
		"Username": username,
	}

	errs := map[string]string{}
	if username == "" {
		errs["username"] = "Username is required"
	}
	if password == "" {
		errs["password"] = "Password is required"
	}
	if len(errs) > 0 {
		data["Errors"] = errs
		ui.render(w, r, http.StatusBadRequest, "auth/login", data)
		return
	}

	u, err := ui.auth.Login(r.Context(), username, password)
	switch {
	case auth.Is(err, auth.CodeInvalidCredentials):
		ui.metrics.RecordLogin("html", metrics.LoginInvalid)
		ui.logger.Info("login failed", "username", username)
		data["Error"] = msgInvalidLogin
		ui.render(w, r, http.StatusBadRequest, "auth/login", data)
		return
	case auth.Is(err, auth.CodeAccountBlocked):
		ui.metrics.RecordLogin("html", metrics.LoginBlocked)
		ui.logger.Info("blocked user login rejected", "username", username)
		data["Error"] = msgBlockedLogin
		ui.render(w, r, http.StatusForbidden, "auth/login", data)
		return
	case err != nil:
		ui.fail(w, r, err)
		return
	}

	// A login replaces whatever session the browser had.
	if old := session.FromContext(r.Context()); old != nil {
		if err := ui.sessions.Destroy(r.Context(), old.ID); err != nil {
			ui.logger.Warn("destroy previous session failed", "error", err)
		}
	}

	sess, err := ui.sessions.Create(r.Context(), u)
	if err != nil {
		ui.logger.Error("create session failed", "user_id", u.ID, "error", err)
		ui.renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again later.")
		return
	}
	ui.sessions.SetCookie(w, sess)

	if u.RequirePasswordReset {
		ui.metrics.RecordLogin("html", metrics.LoginResetRequired)
		ui.beginPendingReset(w, r.WithContext(session.NewContext(r.Context(), sess)), sess)
		return
	}

	ui.metrics.RecordLogin("html", metrics.LoginSuccess)
	ui.logger.Info("user logged in", "user_id", u.ID, "username", u.Username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout destroys the session, if any, and redirects home.
func (ui *UI) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := session.FromContext(r.Context()); sess != nil {
		if err := ui.sessions.Destroy(r.Context(), sess.ID); err != nil {
			ui.logger.Warn("destroy session failed", "error", err)
		}
		ui.logger.Info("user logged out", "user_id", sess.UserID)
	}
	ui.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleRegister renders the registration form.
func (ui *UI) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ui.render(w, r, http.StatusOK, "auth/register", map[string]any{
		"Title": "Register",
	})
}

// HandleRegisterPost creates an account. The new user is not logged in.
func (ui *UI) HandleRegisterPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ui.renderError(w, r, http.StatusBadRequest, "Invalid request")
		return
	}

	in := auth.Registration{
		Username: r.PostForm.Get("username"),
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}
	data := map[string]any{
		"Title":    "Register",
		"Username": strings.TrimSpace(in.Username),
		"Email":    strings.TrimSpace(in.Email),
	}

	u, err := ui.auth.Register(r.Context(), in)
	switch {
	case auth.Is(err, auth.CodeValidationFailed):
		data["Errors"] = fieldMap(err)
		ui.render(w, r, http.StatusBadRequest, "auth/register", data)
		return
	case auth.Is(err, auth.CodeDuplicateIdentity):
		data["Error"] = msgDuplicateUser
		ui.render(w, r, http.StatusBadRequest, "auth/register", data)
		return
	case err != nil:
		ui.fail(w, r, err)
		return
	}

	ui.render(w, r, http.StatusOK, "auth/register-success", map[string]any{
		"Title":    "Registration Successful",
		"Username": u.Username,
	})
}

// HandleForgotPassword renders the forgot-password form.
func (ui *UI) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	ui.render(w, r, http.StatusOK, "auth/forgot-password", map[string]any{
		"Title": "Forgot Password",
	})
}

// HandleForgotPasswordPost issues and delivers a reset link. The response is
// the same whether or not the email is registered.
func (ui *UI) HandleForgotPasswordPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ui.renderError(w, r, http.StatusBadRequest, "Invalid request")
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	data := map[string]any{
		"Title": "Forgot Password",
		"Email": email,
	}
	if email == "" {
		data["Errors"] = map[string]string{"email": "Email is required"}
		ui.render(w, r, http.StatusBadRequest, "auth/forgot-password", data)
		return
	}

	u, token, err := ui.auth.RequestPasswordReset(r.Context(), email)
	if err != nil {
		ui.fail(w, r, err)
		return
	}
	if u != nil {
		link := ui.origin(r) + resetPath(token)
		if err := ui.mailer.SendPasswordReset(r.Context(), u.Email, u.Username, link); err != nil {
			ui.metrics.RecordReset(metrics.ResetDeliveryFailed)
			ui.logger.Error("send reset email failed", "user_id", u.ID, "error", err)
			if err := ui.auth.ClearResetToken(r.Context(), u.ID); err != nil {
				ui.logger.Error("clear reset token failed", "user_id", u.ID, "error", err)
			}
			data["Error"] = msgResetSendFail
			ui.render(w, r, http.StatusInternalServerError, "auth/forgot-password", data)
			return
		}
		ui.metrics.RecordReset(metrics.ResetRequested)
	}

	ui.render(w, r, http.StatusOK, "auth/forgot-password", map[string]any{
		"Title":   "Forgot Password",
		"Success": msgResetSent,
	})
}

// HandleResetPassword renders the reset form for a valid token. A session
// bound to an expired token gets a fresh one.
func (ui *UI) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	u, err := ui.auth.ValidateResetToken(r.Context(), token)
	if auth.Is(err, auth.CodeInvalidOrExpiredToken) {
		if sess := session.FromContext(r.Context()); sess != nil && sess.MustResetPassword && sess.ResetToken == token {
			ui.beginPendingReset(w, r, sess)
			return
		}
		ui.metrics.RecordReset(metrics.ResetInvalidToken)
		ui.render(w, r, http.StatusBadRequest, "auth/forgot-password", map[string]any{
			"Title": "Forgot Password",
			"Error": msgInvalidToken,
		})
		return
	}
	if err != nil {
		ui.fail(w, r, err)
		return
	}

	ui.render(w, r, http.StatusOK, "auth/reset-password", map[string]any{
		"Title":    "Reset Password",
		"Token":    token,
		"Username": u.Username,
		"Forced":   u.RequirePasswordReset,
	})
}

// HandleResetPasswordPost sets the new password. On success every session of
// the user ends and they must log in again.
func (ui *UI) HandleResetPasswordPost(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if err := r.ParseForm(); err != nil {
		ui.renderError(w, r, http.StatusBadRequest, "Invalid request")
		return
	}
	password := r.PostForm.Get("password")
	confirm := r.PostForm.Get("confirmPassword")

	invalidToken := func() {
		ui.metrics.RecordReset(metrics.ResetInvalidToken)
		ui.render(w, r, http.StatusBadRequest, "auth/forgot-password", map[string]any{
			"Title": "Forgot Password",
			"Error": msgInvalidToken,
		})
	}

	u, err := ui.auth.ValidateResetToken(r.Context(), token)
	if auth.Is(err, auth.CodeInvalidOrExpiredToken) {
		invalidToken()
		return
	}
	if err != nil {
		ui.fail(w, r, err)
		return
	}

	if err := auth.ValidateNewPassword(password, confirm); err != nil {
		msg := "Password must be at least 6 characters."
		if auth.Is(err, auth.CodePasswordMismatch) {
			msg = "Passwords do not match."
		}
		ui.render(w, r, http.StatusBadRequest, "auth/reset-password", map[string]any{
			"Title":    "Reset Password",
			"Token":    token,
			"Username": u.Username,
			"Forced":   u.RequirePasswordReset,
			"Error":    msg,
		})
		return
	}

	u, err = ui.auth.ConsumeResetToken(r.Context(), token, password)
	if auth.Is(err, auth.CodeInvalidOrExpiredToken) {
		invalidToken()
		return
	}
	if err != nil {
		ui.fail(w, r, err)
		return
	}

	n, err := ui.sessions.DestroyUser(r.Context(), u.ID)
	if err != nil {
		ui.logger.Error("destroy user sessions failed", "user_id", u.ID, "error", err)
	}
	if sess := session.FromContext(r.Context()); sess != nil && sess.UserID != u.ID {
		_ = ui.sessions.Destroy(r.Context(), sess.ID)
	}
	ui.sessions.ClearCookie(w)
	ui.metrics.RecordReset(metrics.ResetCompleted)
	ui.logger.Info("password reset, sessions ended", "user_id", u.ID, "sessions", n)

	// The browser's session is gone; render without it.
	r = r.WithContext(session.NewContext(r.Context(), nil))
	ui.render(w, r, http.StatusOK, "auth/reset-success", map[string]any{
		"Title": "Password Reset",
	})
}
