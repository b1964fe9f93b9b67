package ui

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestLogin_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	h := newHarness(t)
	h.register("alice", "alice@example.com")

	unknown := h.browser().login("nobody", testPassword)
	wrong := h.browser().login("alice", "wrong-password")

	for _, res := range []response{unknown, wrong} {
		res.expectStatus(t, http.StatusBadRequest)
		res.expectBody(t, msgInvalidLogin)
	}
	if unknown.body != strings.Replace(wrong.body, `value="alice"`, `value="nobody"`, 1) {
		t.Error("unknown user and wrong password pages differ")
	}
}

func TestLogin_RequiredFields(t *testing.T) {
	h := newHarness(t)
	res := h.browser().login("", "")
	res.expectStatus(t, http.StatusBadRequest)
	res.expectBody(t, "Username is required")
	res.expectBody(t, "Password is required")
}

func TestLogin_EmailIsNotAccepted(t *testing.T) {
	h := newHarness(t)
	h.register("alice", "alice@example.com")
	h.browser().login("alice@example.com", testPassword).expectStatus(t, http.StatusBadRequest)
}

func TestLogin_Success(t *testing.T) {
	h := newHarness(t)
	h.register("alice", "alice@example.com")

	b := h.browser()
	b.login("alice", testPassword).expectRedirect(t, "/")
	if b.cookie == nil {
		t.Fatal("expected session cookie")
	}
	if !b.cookie.HttpOnly || b.cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie attributes: HttpOnly=%v SameSite=%v", b.cookie.HttpOnly, b.cookie.SameSite)
	}

	home := b.get("/")
	home.expectStatus(t, http.StatusOK)
	home.expectBody(t, "Welcome back, alice")
}

func TestLogin_RepeatedFailuresDoNotLock(t *testing.T) {
	h := newHarness(t)
	h.register("alice", "alice@example.com")

	b := h.browser()
	for range 3 {
		res := b.login("alice", "wrong-password")
		res.expectStatus(t, http.StatusBadRequest)
		res.expectBody(t, msgInvalidLogin)
	}
	b.login("alice", testPassword).expectRedirect(t, "/")
}

func TestLogin_Blocked(t *testing.T) {
	h := newHarness(t)
	admin := h.register("admin", "admin@example.com")
	alice := h.register("alice", "alice@example.com")
	if _, err := h.auth.SetBlocked(context.Background(), admin.ID, alice.ID, true); err != nil {
		t.Fatalf("SetBlocked: %v", err)
	}

	b := h.browser()
	res := b.login("alice", testPassword)
	res.expectStatus(t, http.StatusForbidden)
	res.expectBody(t, "blocked")
	if b.cookie != nil {
		t.Error("blocked login must not create a session")
	}

	// A wrong password on a blocked account still reads as invalid credentials.
	h.browser().login("alice", "nope").expectStatus(t, http.StatusBadRequest)
}

func TestLogout_Idempotent(t *testing.T) {
	h := newHarness(t)
	h.register("alice", "alice@example.com")

	anon := h.browser()
	anon.get("/auth/logout").expectRedirect(t, "/")
	anon.post("/auth/logout", nil).expectRedirect(t, "/")

	b := h.browser()
	b.login("alice", testPassword)
	stale := *b.cookie
	b.post("/auth/logout", nil).expectRedirect(t, "/")
	if b.cookie != nil {
		t.Error("logout should clear the cookie")
	}

	replay := h.browser()
	replay.cookie = &stale
	replay.get("/").expectNoBody(t, "Welcome back")
}

func TestRegister(t *testing.T) {
	h := newHarness(t)
	b := h.browser()

	res := b.post("/auth/register", url.Values{
		"username": {"alice"}, "email": {"Alice@Example.com"}, "password": {testPassword},
	})
	res.expectStatus(t, http.StatusOK)
	res.expectBody(t, "Registration successful")
	if b.cookie != nil {
		t.Error("registration must not log the user in")
	}

	dup := b.post("/auth/register", url.Values{
		"username": {"alice2"}, "email": {"alice@example.com"}, "password": {testPassword},
	})
	dup.expectStatus(t, http.StatusBadRequest)
	dup.expectBody(t, msgDuplicateUser)

	bad := b.post("/auth/register", url.Values{
		"username": {"al"}, "email": {"not-an-email"}, "password": {"123"},
	})
	bad.expectStatus(t, http.StatusBadRequest)
	bad.expectBody(t, "Username must be at least 3 characters")
	bad.expectBody(t, "Must be a valid email address")
	bad.expectBody(t, "Password must be at least 6 characters")
}

// loginPendingReset logs alice in while a reset is forced and returns the
// reset page she was sent to.
func loginPendingReset(t *testing.T, h *harness, b *browser) string {
	t.Helper()
	res := b.login("alice", testPassword)
	res.expectStatus(t, http.StatusSeeOther)
	if !strings.HasPrefix(res.location, "/auth/reset-password/") {
		t.Fatalf("login redirected to %q, want reset page", res.location)
	}
	return res.location
}

func TestPendingReset_EveryRequestRedirects(t *testing.T) {
	h := newHarness(t)
	alice := h.register("alice", "alice@example.com")
	if _, err := h.auth.ForceReset(context.Background(), alice.ID); err != nil {
		t.Fatalf("ForceReset: %v", err)
	}

	b := h.browser()
	resetURL := loginPendingReset(t, h, b)

	for _, path := range []string{"/", "/characters", "/episodes?season=S01", "/locations/1", "/admin", "/characters/create"} {
		b.get(path).expectRedirect(t, resetURL)
	}

	// Auth pages stay reachable.
	b.get("/auth/login").expectStatus(t, http.StatusOK)
	page := b.get(resetURL)
	page.expectStatus(t, http.StatusOK)
	page.expectBody(t, "An administrator requires you to reset your password")
}

func TestPendingReset_Completion(t *testing.T) {
	h := newHarness(t)
	alice := h.register("alice", "alice@example.com")
	if _, err := h.auth.ForceReset(context.Background(), alice.ID); err != nil {
		t.Fatalf("ForceReset: %v", err)
	}

	other := h.browser()
	loginPendingReset(t, h, other)

	b := h.browser()
	resetURL := loginPendingReset(t, h, b)

	mismatch := b.post(resetURL, url.Values{"password": {"newpass1"}, "confirmPassword": {"newpass2"}})
	mismatch.expectStatus(t, http.StatusBadRequest)
	mismatch.expectBody(t, "Passwords do not match.")

	short := b.post(resetURL, url.Values{"password": {"abc"}, "confirmPassword": {"abc"}})
	short.expectStatus(t, http.StatusBadRequest)
	short.expectBody(t, "Password must be at least 6 characters.")

	done := b.post(resetURL, url.Values{"password": {"newpass1"}, "confirmPassword": {"newpass1"}})
	done.expectStatus(t, http.StatusOK)
	done.expectBody(t, "Password updated")
	if b.cookie != nil {
		t.Error("reset should clear the session cookie")
	}

	// Every session of alice ended, including the one in the other browser.
	other.get("/").expectStatus(t, http.StatusOK)
	other.get("/").expectNoBody(t, "Welcome back")

	// The token works once.
	reuse := h.browser().post(resetURL, url.Values{"password": {"another1"}, "confirmPassword": {"another1"}})
	reuse.expectStatus(t, http.StatusBadRequest)
	reuse.expectBody(t, msgInvalidToken)

	h.browser().login("alice", testPassword).expectStatus(t, http.StatusBadRequest)
	h.browser().login("alice", "newpass1").expectRedirect(t, "/")
}

func TestPendingReset_ForcedMidSession(t *testing.T) {
	h := newHarness(t)
	h.register("admin", "admin@example.com")
	alice := h.register("alice", "alice@example.com")

	b := h.browser()
	b.login("alice", testPassword).expectRedirect(t, "/")
	b.get("/characters").expectStatus(t, http.StatusOK)

	admin := h.browser()
	admin.login("admin", testPassword).expectRedirect(t, "/")
	admin.post("/admin/reset-password/"+alice.ID, nil).expectRedirect(t, "/admin")

	res := b.get("/characters")
	res.expectStatus(t, http.StatusSeeOther)
	if !strings.HasPrefix(res.location, "/auth/reset-password/") {
		t.Fatalf("redirected to %q, want reset page", res.location)
	}
	b.get("/episodes").expectRedirect(t, res.location)
}

func TestPendingReset_ExpiredTokenIsReplaced(t *testing.T) {
	h := newHarness(t)
	alice := h.register("alice", "alice@example.com")
	if _, err := h.auth.ForceReset(context.Background(), alice.ID); err != nil {
		t.Fatalf("ForceReset: %v", err)
	}

	b := h.browser()
	first := loginPendingReset(t, h, b)
	h.clock.Advance(time.Hour)

	res := b.get(first)
	res.expectStatus(t, http.StatusSeeOther)
	if res.location == first || !strings.HasPrefix(res.location, "/auth/reset-password/") {
		t.Fatalf("expected a fresh reset page, got %q", res.location)
	}
	b.get(res.location).expectStatus(t, http.StatusOK)
	b.get("/").expectRedirect(t, res.location)
}

func TestForgotPassword(t *testing.T) {
	h := newHarness(t)
	h.register("alice", "alice@example.com")
	b := h.browser()

	unknown := b.post("/auth/forgot-password", url.Values{"email": {"nobody@example.com"}})
	unknown.expectStatus(t, http.StatusOK)
	unknown.expectBody(t, msgResetSent)
	if len(h.mailer.sent) != 0 {
		t.Fatalf("mail sent for unknown email")
	}

	known := b.post("/auth/forgot-password", url.Values{"email": {"ALICE@example.com"}})
	known.expectStatus(t, http.StatusOK)
	known.expectBody(t, msgResetSent)

	mail := h.mailer.last(t)
	if mail.to != "alice@example.com" || mail.username != "alice" {
		t.Errorf("mail = %+v", mail)
	}
	const prefix = "http://cms.test/auth/reset-password/"
	if !strings.HasPrefix(mail.link, prefix) {
		t.Fatalf("link = %q", mail.link)
	}
	path := strings.TrimPrefix(mail.link, "http://cms.test")

	b.get(path).expectStatus(t, http.StatusOK)
	b.post(path, url.Values{"password": {"fresh-pass"}, "confirmPassword": {"fresh-pass"}}).expectStatus(t, http.StatusOK)
	h.browser().login("alice", "fresh-pass").expectRedirect(t, "/")
}

func TestForgotPassword_DeliveryFailureClearsToken(t *testing.T) {
	h := newHarness(t)
	h.register("alice", "alice@example.com")
	h.mailer.err = errMailDown

	res := h.browser().post("/auth/forgot-password", url.Values{"email": {"alice@example.com"}})
	res.expectStatus(t, http.StatusInternalServerError)
	res.expectBody(t, msgResetSendFail)

	path := strings.TrimPrefix(h.mailer.last(t).link, "http://cms.test")
	invalid := h.browser().get(path)
	invalid.expectStatus(t, http.StatusBadRequest)
	invalid.expectBody(t, msgInvalidToken)
}

func TestResetPassword_TokenExpiry(t *testing.T) {
	h := newHarness(t)
	alice := h.register("alice", "alice@example.com")
	token, err := h.auth.IssueResetToken(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("IssueResetToken: %v", err)
	}

	h.clock.Advance(time.Hour - time.Second)
	h.browser().get(resetPath(token)).expectStatus(t, http.StatusOK)

	h.clock.Advance(time.Second)
	res := h.browser().get(resetPath(token))
	res.expectStatus(t, http.StatusBadRequest)
	res.expectBody(t, msgInvalidToken)
}

func TestGuard_DeletedUserLosesSession(t *testing.T) {
	h := newHarness(t)
	alice := h.register("alice", "alice@example.com")

	b := h.browser()
	b.login("alice", testPassword).expectRedirect(t, "/")
	if err := h.st.DeleteUser(context.Background(), alice.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	b.get("/characters").expectRedirect(t, "/auth/login")
	if b.cookie != nil {
		t.Error("cookie should be cleared")
	}
}
