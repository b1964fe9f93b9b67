package ui

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/me/showrunner/internal/auth"
	"github.com/me/showrunner/internal/catalog"
	"github.com/me/showrunner/internal/logging"
	"github.com/me/showrunner/internal/session"
	"github.com/me/showrunner/internal/store"
	"github.com/me/showrunner/pkg/model"
)

const testPassword = "secret123"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentMail struct {
	to, username, link string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, to, username, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, username: username, link: link})
	return m.err
}

func (m *recordingMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no mail sent")
	}
	return m.sent[len(m.sent)-1]
}

type harness struct {
	t       *testing.T
	st      *store.SQLiteStore
	auth    *auth.Service
	mailer  *recordingMailer
	clock   *testClock
	handler http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:", logging.Discard())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	clk := &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	authSvc := auth.NewService(st,
		auth.WithHasher(auth.NewBcryptHasher(4)),
		auth.WithClock(clk.Now),
		auth.WithAdmins([]string{"admin"}),
		auth.WithLogger(logging.Discard()),
	)
	sessions := session.NewManager(st, session.Options{
		Secret: "test-session-secret",
		Now:    clk.Now,
		Logger: logging.Discard(),
	})
	cat := catalog.NewService(st, logging.Discard()).WithClock(clk.Now)
	mailer := &recordingMailer{}

	u := New(authSvc, cat, sessions, mailer, logging.Discard(), Config{BaseURL: "http://cms.test"})
	r := chi.NewRouter()
	u.RegisterRoutes(r)

	return &harness{t: t, st: st, auth: authSvc, mailer: mailer, clock: clk, handler: r}
}

func (h *harness) register(username, email string) *model.User {
	h.t.Helper()
	u, err := h.auth.Register(context.Background(), auth.Registration{
		Username: username, Email: email, Password: testPassword,
	})
	if err != nil {
		h.t.Fatalf("Register(%s): %v", username, err)
	}
	return u
}

// browser keeps the session cookie between requests.
type browser struct {
	h      *harness
	cookie *http.Cookie
}

func (h *harness) browser() *browser { return &browser{h: h} }

type response struct {
	status   int
	location string
	body     string
}

func (b *browser) do(method, path string, form url.Values) response {
	b.h.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}

	rec := httptest.NewRecorder()
	b.h.handler.ServeHTTP(rec, req)
	res := rec.Result()
	defer res.Body.Close()

	for _, c := range res.Cookies() {
		if c.Name != session.CookieName {
			continue
		}
		if c.MaxAge < 0 {
			b.cookie = nil
		} else {
			b.cookie = c
		}
	}
	data, _ := io.ReadAll(res.Body)
	return response{status: res.StatusCode, location: res.Header.Get("Location"), body: string(data)}
}

func (b *browser) get(path string) response { return b.do(http.MethodGet, path, nil) }

func (b *browser) post(path string, form url.Values) response {
	if form == nil {
		form = url.Values{}
	}
	return b.do(http.MethodPost, path, form)
}

func (b *browser) login(username, password string) response {
	return b.post("/auth/login", url.Values{"username": {username}, "password": {password}})
}

func (r response) expectStatus(t *testing.T, want int) {
	t.Helper()
	if r.status != want {
		t.Fatalf("status = %d, want %d (location %q)\n%s", r.status, want, r.location, r.body)
	}
}

func (r response) expectRedirect(t *testing.T, to string) {
	t.Helper()
	r.expectStatus(t, http.StatusSeeOther)
	if r.location != to {
		t.Fatalf("redirect to %q, want %q", r.location, to)
	}
}

func (r response) expectBody(t *testing.T, substr string) {
	t.Helper()
	if !strings.Contains(r.body, substr) {
		t.Fatalf("body does not contain %q:\n%s", substr, r.body)
	}
}

func (r response) expectNoBody(t *testing.T, substr string) {
	t.Helper()
	if strings.Contains(r.body, substr) {
		t.Fatalf("body unexpectedly contains %q", substr)
	}
}

var errMailDown = errors.New("smtp: connection refused")
