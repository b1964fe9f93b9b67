package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/me/showrunner/internal/store"
	"github.com/me/showrunner/pkg/model"
)

// UserStore is the persistence the Service needs. Get methods return
// (nil, nil) for a missing user.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByResetTokenHash(ctx context.Context, hash string) (*model.User, error)
	FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	DeleteUser(ctx context.Context, id string) error
}

// Service implements the credential store operations.
type Service struct {
	users  UserStore
	hasher PasswordHasher
	admins map[string]bool
	now    func() time.Time
	logger *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// Option configures a Service.
type Option func(*Service)

// WithHasher overrides the default bcrypt hasher.
func WithHasher(h PasswordHasher) Option {
	return func(s *Service) { s.hasher = h }
}

// WithClock overrides time.Now, used for token expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAdmins sets the usernames that receive the admin role.
func WithAdmins(usernames []string) Option {
	return func(s *Service) {
		for _, u := range usernames {
			s.admins[u] = true
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service backed by users.
func NewService(users UserStore, opts ...Option) *Service {
	s := &Service{
		users:  users,
		admins: map[string]bool{},
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hasher == nil {
		s.hasher = NewBcryptHasher(0)
	}
	s.logger = s.logger.With("component", "auth")
	return s
}

func newUserID() string {
	return "usr_" + uuid.New().String()
}

// Register creates a user with role "user", or "admin" for bootstrap admin usernames.
func (s *Service) Register(ctx context.Context, in Registration) (*model.User, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.users.FindUserByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return nil, storeErr("FindUserByUsernameOrEmail", err)
	}
	if existing != nil {
		return nil, errDuplicate(in.Username)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code(CodeStoreUnavailable).With("operation", "Hash").Wrap(err)
	}

	role := model.RoleUser
	if s.admins[in.Username] {
		role = model.RoleAdmin
	}
	u := &model.User{
		ID:           newUserID(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, errDuplicate(in.Username)
		}
		return nil, storeErr("CreateUser", err)
	}

	s.logger.Info("user registered", "user_id", u.ID, "username", u.Username, "role", u.Role)
	return u, nil
}

func errDuplicate(username string) error {
	return oops.Code(CodeDuplicateIdentity).
		With("username", username).
		Errorf("user with this email or username already exists")
}

// VerifyCredentials looks the user up by username and checks the password.
// A missing user and a wrong password fail identically.
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, storeErr("GetUserByUsername", err)
	}
	if u == nil {
		_, _ = s.hasher.Verify(password, s.dummy())
		return nil, errInvalidCredentials()
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		s.logger.Warn("stored password hash unusable", "user_id", u.ID, "error", err)
		return nil, errInvalidCredentials()
	}
	if !ok {
		return nil, errInvalidCredentials()
	}
	return u, nil
}

// dummy returns a hash compared against when the user does not exist,
// so both failure paths cost one bcrypt comparison.
func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("showrunner-no-such-user")
	})
	return s.dummyHash
}

// Login verifies credentials, rejects blocked accounts and records the login time.
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.VerifyCredentials(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if u.IsBlocked {
		return nil, oops.Code(CodeAccountBlocked).With("user_id", u.ID).Errorf("account is blocked")
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		return nil, storeErr("TouchLastLogin", err)
	}
	u.LastLoginAt = &now
	return u, nil
}

// GetUser returns the user or a NOT_FOUND error.
func (s *Service) GetUser(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeErr("GetUserByID", err)
	}
	if u == nil {
		return nil, errNotFound(userID)
	}
	return u, nil
}

// GetUserByUsername returns the user or a NOT_FOUND error.
func (s *Service) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, storeErr("GetUserByUsername", err)
	}
	if u == nil {
		return nil, oops.Code(CodeNotFound).With("username", username).Errorf("user not found")
	}
	return u, nil
}

// ListUsers returns all users, newest first.
func (s *Service) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, storeErr("ListUsers", err)
	}
	return users, nil
}

// SetBlocked blocks or unblocks userID on behalf of actorID.
func (s *Service) SetBlocked(ctx context.Context, actorID, userID string, blocked bool) (*model.User, error) {
	if actorID == userID {
		return nil, errSelfAction("block", userID)
	}
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.IsBlocked = blocked
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, storeErr("UpdateUser", err)
	}
	s.logger.Info("user block state changed", "actor_id", actorID, "user_id", userID, "blocked", blocked)
	return u, nil
}

// ToggleBlocked flips the blocked flag of userID.
func (s *Service) ToggleBlocked(ctx context.Context, actorID, userID string) (*model.User, error) {
	if actorID == userID {
		return nil, errSelfAction("block", userID)
	}
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.SetBlocked(ctx, actorID, userID, !u.IsBlocked)
}

// Delete removes userID on behalf of actorID and returns the removed user.
func (s *Service) Delete(ctx context.Context, actorID, userID string) (*model.User, error) {
	if actorID == userID {
		return nil, errSelfAction("delete", userID)
	}
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errNotFound(userID)
		}
		return nil, storeErr("DeleteUser", err)
	}
	s.logger.Info("user deleted", "actor_id", actorID, "user_id", userID, "username", u.Username)
	return u, nil
}

// ForceReset obliges userID to choose a new password at the next request.
func (s *Service) ForceReset(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.RequirePasswordReset = true
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, storeErr("UpdateUser", err)
	}
	s.logger.Info("password reset forced", "user_id", userID)
	return u, nil
}

// SetRole changes the role of userID.
func (s *Service) SetRole(ctx context.Context, userID string, role model.UserRole) (*model.User, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Role = role
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, storeErr("UpdateUser", err)
	}
	return u, nil
}

// SyncAdmins promotes existing users whose usernames are configured as admins.
// Returns the number of users promoted.
func (s *Service) SyncAdmins(ctx context.Context) (int, error) {
	promoted := 0
	for username := range s.admins {
		u, err := s.users.GetUserByUsername(ctx, username)
		if err != nil {
			return promoted, storeErr("GetUserByUsername", err)
		}
		if u == nil || u.Role == model.RoleAdmin {
			continue
		}
		u.Role = model.RoleAdmin
		if err := s.users.UpdateUser(ctx, u); err != nil {
			return promoted, storeErr("UpdateUser", err)
		}
		s.logger.Info("bootstrap admin promoted", "user_id", u.ID, "username", u.Username)
		promoted++
	}
	return promoted, nil
}

// IssueResetToken mints a reset token for userID, replacing any previous one,
// and returns it in clear. Only its hash is persisted.
func (s *Service) IssueResetToken(ctx context.Context, userID string) (string, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.issueFor(ctx, u)
}

func (s *Service) issueFor(ctx context.Context, u *model.User) (string, error) {
	token, hash, err := GenerateResetToken()
	if err != nil {
		return "", err
	}
	expires := s.now().Add(ResetTokenExpiry)
	u.ResetPasswordTokenHash = hash
	u.ResetPasswordExpiresAt = &expires
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return "", storeErr("UpdateUser", err)
	}
	s.logger.Info("reset token issued", "user_id", u.ID, "expires_at", expires)
	return token, nil
}

// RequestPasswordReset issues a token for the account registered under email.
// An unknown email yields (nil, "", nil) so callers respond identically.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (*model.User, string, error) {
	u, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, "", storeErr("GetUserByEmail", err)
	}
	if u == nil {
		return nil, "", nil
	}
	token, err := s.issueFor(ctx, u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// ClearResetToken drops any outstanding reset token of userID.
func (s *Service) ClearResetToken(ctx context.Context, userID string) error {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	u.ClearResetToken()
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return storeErr("UpdateUser", err)
	}
	return nil
}

// ValidateResetToken returns the user owning token if it exists and has not expired.
// It does not consume the token.
func (s *Service) ValidateResetToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, errInvalidToken()
	}
	u, err := s.users.GetUserByResetTokenHash(ctx, hashResetToken(token))
	if err != nil {
		return nil, storeErr("GetUserByResetTokenHash", err)
	}
	if u == nil || u.ResetPasswordExpiresAt == nil {
		return nil, errInvalidToken()
	}
	if !VerifyResetToken(token, u.ResetPasswordTokenHash) {
		return nil, errInvalidToken()
	}
	if !s.now().Before(*u.ResetPasswordExpiresAt) {
		return nil, errInvalidToken()
	}
	return u, nil
}

// ConsumeResetToken sets a new password for the owner of token. The token,
// its expiry and any forced-reset obligation are cleared, so the token works once.
func (s *Service) ConsumeResetToken(ctx context.Context, token, newPassword string) (*model.User, error) {
	if err := checkPasswordLength(newPassword); err != nil {
		return nil, err
	}
	u, err := s.ValidateResetToken(ctx, token)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, oops.Code(CodeStoreUnavailable).With("operation", "Hash").Wrap(err)
	}
	u.PasswordHash = hash
	u.ClearResetToken()
	u.RequirePasswordReset = false
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, storeErr("UpdateUser", err)
	}

	s.logger.Info("password reset completed", "user_id", u.ID)
	return u, nil
}
