package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/me/showrunner/internal/apperr"
	"github.com/me/showrunner/internal/auth"
	"github.com/me/showrunner/internal/metrics"
	"github.com/me/showrunner/pkg/model"
)

const ctxKeyUserAuth ctxKey = "user_auth"

// UserContext holds the authenticated bearer of a request.
type UserContext struct {
	User   *model.User
	Expiry time.Time // Token expiration time
}

// UserFromContext extracts the UserContext from request context.
func UserFromContext(ctx context.Context) *UserContext {
	if uc, ok := ctx.Value(ctxKeyUserAuth).(*UserContext); ok {
		return uc
	}
	return nil
}

// bearerAuth admits requests carrying a valid token for a live account.
// A missing header is 401, a header that is not "Bearer <token>" is 400
// and a bad or expired token is 401. Accounts that are gone, blocked or
// awaiting a forced reset are refused even with a valid token.
func (s *Server) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := RequestIDFromContext(r.Context())

		header := r.Header.Get("Authorization")
		if header == "" {
			respondError(w, reqID, http.StatusUnauthorized,
				model.NewUnauthorizedError("authorization header required"))
			return
		}
		token, ok := extractToken(header)
		if !ok {
			respondError(w, reqID, http.StatusBadRequest, &model.APIError{
				Code:    model.ErrBadRequest,
				Message: "malformed authorization header, expected 'Bearer <token>'",
			})
			return
		}

		claims, err := s.tokens.Parse(token)
		if err != nil {
			respondError(w, reqID, http.StatusUnauthorized,
				model.NewUnauthorizedError("invalid or expired token"))
			return
		}

		user, err := s.auth.GetUser(r.Context(), claims.Subject)
		switch {
		case apperr.Is(err, apperr.CodeNotFound):
			respondError(w, reqID, http.StatusUnauthorized, model.NewUnauthorizedError("account no longer exists"))
			return
		case err != nil:
			s.respondErr(w, r, err)
			return
		case user.IsBlocked:
			respondError(w, reqID, http.StatusUnauthorized, model.NewUnauthorizedError("account is blocked"))
			return
		case user.RequirePasswordReset:
			respondError(w, reqID, http.StatusForbidden, &model.APIError{
				Code:    model.ErrResetRequired,
				Message: "password reset required",
			})
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserAuth, &UserContext{
			User:   user,
			Expiry: claims.ExpiresAt.Time,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken returns the token of a "Bearer <token>" header value.
func extractToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

func (s *Server) handleAPIRegister(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := s.auth.Register(r.Context(), auth.Registration{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondCreated(w, reqID, u)
}

func (s *Server) handleAPILogin(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("username and password are required",
			model.FieldError{Field: "username", Message: "Username is required"},
			model.FieldError{Field: "password", Message: "Password is required"},
		))
		return
	}

	u, err := s.auth.Login(r.Context(), req.Username, req.Password)
	switch {
	case auth.Is(err, auth.CodeInvalidCredentials):
		s.metrics.RecordLogin("api", metrics.LoginInvalid)
		s.respondErr(w, r, err)
		return
	case auth.Is(err, auth.CodeAccountBlocked):
		s.metrics.RecordLogin("api", metrics.LoginBlocked)
		s.respondErr(w, r, err)
		return
	case err != nil:
		s.respondErr(w, r, err)
		return
	}

	// Tokens are not issued while a reset is pending; the HTML flow handles it.
	if u.RequirePasswordReset {
		s.metrics.RecordLogin("api", metrics.LoginResetRequired)
		respondError(w, reqID, http.StatusForbidden, &model.APIError{
			Code:    model.ErrResetRequired,
			Message: "password reset required, complete it through the web interface",
		})
		return
	}

	token, expiresAt, err := s.tokens.Issue(u)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.metrics.RecordLogin("api", metrics.LoginSuccess)
	s.logger.Info("api token issued", "user_id", u.ID, "expires_at", expiresAt)
	respondOK(w, reqID, loginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		User:      u,
	})
}

// handleAPILogout acknowledges a logout. Tokens are stateless, so the client
// discards its copy and the token lapses at expiry.
func (s *Server) handleAPILogout(w http.ResponseWriter, r *http.Request) {
	respondMessage(w, RequestIDFromContext(r.Context()), "logout successful, delete the token on the client side")
}
