package ui

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/me/showrunner/internal/apperr"
	"github.com/me/showrunner/internal/auth"
	"github.com/me/showrunner/internal/catalog"
	"github.com/me/showrunner/internal/metrics"
	"github.com/me/showrunner/internal/session"
)

// UI handles the web user interface.
type UI struct {
	auth     *auth.Service
	catalog  *catalog.Service
	sessions *session.Manager
	mailer   auth.Mailer
	metrics  *metrics.Metrics
	baseURL  string // Public origin for reset links; empty means derive from the request
	logger   *slog.Logger
}

// Config holds UI configuration.
type Config struct {
	BaseURL string
}

// New creates a new UI handler.
func New(authSvc *auth.Service, cat *catalog.Service, sessions *session.Manager, mailer auth.Mailer, logger *slog.Logger, cfg Config) *UI {
	return &UI{
		auth:     authSvc,
		catalog:  cat,
		sessions: sessions,
		mailer:   mailer,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:   logger.With("component", "ui"),
	}
}

// WithMetrics sets the collector for login and password reset outcomes.
func (ui *UI) WithMetrics(m *metrics.Metrics) {
	ui.metrics = m
}

// HandleHome renders the landing page.
func (ui *UI) HandleHome(w http.ResponseWriter, r *http.Request) {
	ui.render(w, r, http.StatusOK, "home", map[string]any{
		"Title": "Showrunner's CMS - Rick and Morty",
	})
}

// --- Helper Methods ---

// render writes the named page. The session and its pending flash messages
// are added to data; reading the flash clears it.
func (ui *UI) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	sess := session.FromContext(r.Context())
	data["Session"] = sess
	if sess != nil {
		success, failure := ui.sessions.TakeFlash(r.Context(), sess)
		data["FlashSuccess"] = success
		data["FlashError"] = failure
	}

	var buf bytes.Buffer
	if err := renderTemplate(&buf, name, data); err != nil {
		ui.logger.Error("template render failed", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (ui *UI) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	ui.render(w, r, status, "error", map[string]any{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
	})
}

// fail renders err as an error page. Store failures are logged and shown
// generically.
func (ui *UI) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.Code(err)
	status := apperr.HTTPStatus(code)
	switch {
	case code == apperr.CodeNotFound:
		ui.renderError(w, r, status, "The page you are looking for does not exist.")
	case status >= http.StatusInternalServerError:
		ui.logger.Error("request failed", "path", r.URL.Path, "code", code, "error", err)
		ui.renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again later.")
	default:
		ui.renderError(w, r, status, err.Error())
	}
}

// flash stores a message for the next page and redirects there.
func (ui *UI) flash(w http.ResponseWriter, r *http.Request, kind, msg, to string) {
	if sess := session.FromContext(r.Context()); sess != nil {
		if err := ui.sessions.AddFlash(r.Context(), sess, kind, msg); err != nil {
			ui.logger.Warn("store flash failed", "error", err)
		}
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// fieldMap indexes the field errors of err by field name for the form templates.
func fieldMap(err error) map[string]string {
	fields := apperr.FieldErrors(err)
	if len(fields) == 0 {
		return nil
	}
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		if _, ok := m[f.Field]; !ok {
			m[f.Field] = f.Message
		}
	}
	return m
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// parsePage reads the "page" query parameter. Absent means page 1.
func parsePage(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

// buildPagination returns the pager links for a listing, keeping the other
// query parameters of r.
func buildPagination(r *http.Request, page, totalPages int) map[string]any {
	link := func(p int) string {
		q := url.Values{}
		for k, v := range r.URL.Query() {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(p))
		return r.URL.Path + "?" + q.Encode()
	}
	p := map[string]any{
		"Page":       page,
		"TotalPages": totalPages,
		"HasPrev":    page > 1,
		"HasNext":    page < totalPages,
	}
	if page > 1 {
		p["PrevURL"] = link(page - 1)
	}
	if page < totalPages {
		p["NextURL"] = link(page + 1)
	}
	return p
}

// origin returns the public origin reset links point at.
func (ui *UI) origin(r *http.Request) string {
	if ui.baseURL != "" {
		return ui.baseURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func resetPath(token string) string {
	return "/auth/reset-password/" + url.PathEscape(token)
}
