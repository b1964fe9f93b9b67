// Package session manages browser sessions: creation, signed cookies,
// per-request loading, flash messages and the pending-reset markers.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/me/showrunner/pkg/model"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "showrunner_session"
	// Duration is the absolute session lifetime.
	Duration = 24 * time.Hour
)

// Store persists sessions. GetSession returns (nil, nil) for an unknown id.
type Store interface {
	CreateSession(ctx context.Context, sess *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	UpdateSession(ctx context.Context, sess *model.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
	DeleteSessionsByUserID(ctx context.Context, userID string) (int64, error)
}

// Options configures a Manager.
type Options struct {
	Secret string
	Secure bool
	Now    func() time.Time
	Logger *slog.Logger
}

// Manager handles session creation, validation, and cleanup.
type Manager struct {
	store  Store
	signer signer
	secure bool
	now    func() time.Time
	logger *slog.Logger
}

// NewManager creates a session manager backed by st.
func NewManager(st Store, opts Options) *Manager {
	m := &Manager{
		store:  st,
		signer: newSigner(opts.Secret),
		secure: opts.Secure,
		now:    opts.Now,
		logger: opts.Logger,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.logger = m.logger.With("component", "session")
	return m
}

// Create starts a session for u.
func (m *Manager) Create(ctx context.Context, u *model.User) (*model.Session, error) {
	id, err := generateID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	now := m.now()
	sess := &model.Session{
		ID:        id,
		UserID:    u.ID,
		Username:  u.Username,
		Role:      string(u.Role),
		CreatedAt: now,
		ExpiresAt: now.Add(Duration),
	}
	if err := m.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	m.logger.Debug("session created", "user_id", u.ID)
	return sess, nil
}

// Get returns the live session with the given id. Expired sessions are
// deleted and reported as nil.
func (m *Manager) Get(ctx context.Context, id string) (*model.Session, error) {
	sess, err := m.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return nil, nil
	}
	if sess.ExpiredAt(m.now()) {
		if err := m.store.DeleteSession(ctx, id); err != nil {
			m.logger.Warn("delete expired session", "error", err)
		}
		return nil, nil
	}
	return sess, nil
}

// FromRequest loads the session named by the request cookie. A missing,
// forged or expired cookie yields (nil, nil).
func (m *Manager) FromRequest(r *http.Request) (*model.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, nil
	}
	id, ok := m.signer.verify(cookie.Value)
	if !ok {
		return nil, nil
	}
	return m.Get(r.Context(), id)
}

// Save persists changes to the mutable fields of sess.
func (m *Manager) Save(ctx context.Context, sess *model.Session) error {
	if err := m.store.UpdateSession(ctx, sess); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Destroy deletes the session. Deleting an unknown id is not an error.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if err := m.store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DestroyUser deletes every session of userID.
func (m *Manager) DestroyUser(ctx context.Context, userID string) (int64, error) {
	n, err := m.store.DeleteSessionsByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	if n > 0 {
		m.logger.Info("user sessions destroyed", "user_id", userID, "count", n)
	}
	return n, nil
}

// Cleanup removes expired sessions from the store.
func (m *Manager) Cleanup(ctx context.Context) (int64, error) {
	return m.store.DeleteExpiredSessions(ctx)
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.Cleanup(ctx)
			if err != nil {
				m.logger.Error("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				m.logger.Info("expired sessions removed", "count", n)
			}
		}
	}
}

// MarkPendingReset binds sess to the reset page of token.
func (m *Manager) MarkPendingReset(ctx context.Context, sess *model.Session, token string) error {
	sess.MustResetPassword = true
	sess.ResetToken = token
	return m.Save(ctx, sess)
}

// ClearPendingReset removes the reset markers from sess.
func (m *Manager) ClearPendingReset(ctx context.Context, sess *model.Session) error {
	sess.MustResetPassword = false
	sess.ResetToken = ""
	return m.Save(ctx, sess)
}

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// AddFlash stores a one-shot message shown on the next rendered page.
func (m *Manager) AddFlash(ctx context.Context, sess *model.Session, kind, msg string) error {
	switch kind {
	case FlashSuccess:
		sess.FlashSuccess = msg
	case FlashError:
		sess.FlashError = msg
	default:
		return fmt.Errorf("unknown flash kind %q", kind)
	}
	return m.Save(ctx, sess)
}

// TakeFlash returns and clears the pending flash messages.
func (m *Manager) TakeFlash(ctx context.Context, sess *model.Session) (success, failure string) {
	if sess == nil || (sess.FlashSuccess == "" && sess.FlashError == "") {
		return "", ""
	}
	success, failure = sess.FlashSuccess, sess.FlashError
	sess.FlashSuccess, sess.FlashError = "", ""
	if err := m.Save(ctx, sess); err != nil {
		m.logger.Warn("clear flash", "session_user", sess.UserID, "error", err)
	}
	return success, failure
}

// SetCookie writes the signed session cookie.
func (m *Manager) SetCookie(w http.ResponseWriter, sess *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    m.signer.sign(sess.ID),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})
}

// ClearCookie removes the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// Middleware attaches the request's session, if any, to the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.FromRequest(r)
		if err != nil {
			m.logger.Error("session lookup failed", "error", err)
		}
		if sess != nil {
			r = r.WithContext(NewContext(r.Context(), sess))
		}
		next.ServeHTTP(w, r)
	})
}

func generateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "sess_" + hex.EncodeToString(b), nil
}
