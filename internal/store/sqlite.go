package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/showrunner/pkg/model"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// isUniqueViolation reports whether err comes from a UNIQUE or PRIMARY KEY constraint.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scanner interface {
	Scan(dest ...any) error
}

// --- User operations ---

const userColumns = `id, username, email, password_hash, role, is_blocked, require_password_reset,
	reset_token_hash, reset_expires_at, created_at, last_login_at`

func (s *SQLiteStore) CreateUser(ctx context.Context, u *model.User) error {
	s.logger.Debug("sql", "op", "insert", "table", "users", "id", u.ID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, is_blocked, require_password_reset,
		 reset_token_hash, reset_expires_at, created_at, last_login_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, string(u.Role),
		boolToInt(u.IsBlocked), boolToInt(u.RequirePasswordReset),
		u.ResetPasswordTokenHash, nullableUnixNano(u.ResetPasswordExpiresAt),
		u.CreatedAt.Format(time.RFC3339Nano), nullableRFC3339(u.LastLoginAt),
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.logger.Debug("sql", "op", "select", "table", "users", "id", id)
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.logger.Debug("sql", "op", "select", "table", "users", "username", username)
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

// GetUserByEmail matches email case-insensitively.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.logger.Debug("sql", "op", "select", "table", "users", "by", "email")
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email))
}

func (s *SQLiteStore) GetUserByResetTokenHash(ctx context.Context, hash string) (*model.User, error) {
	s.logger.Debug("sql", "op", "select", "table", "users", "by", "reset_token_hash")
	if hash == "" {
		return nil, nil
	}
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_token_hash = ?`, hash))
}

// FindUserByUsernameOrEmail returns any user holding either identity.
func (s *SQLiteStore) FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	s.logger.Debug("sql", "op", "select", "table", "users", "by", "username_or_email")
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? OR email = ? COLLATE NOCASE LIMIT 1`,
		username, email))
}

// ListUsers returns all users, newest first.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	s.logger.Debug("sql", "op", "list", "table", "users")

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, username ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := s.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) UpdateUser(ctx context.Context, u *model.User) error {
	s.logger.Debug("sql", "op", "update", "table", "users", "id", u.ID)

	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET username=?, email=?, password_hash=?, role=?, is_blocked=?, require_password_reset=?,
		 reset_token_hash=?, reset_expires_at=?, last_login_at=? WHERE id=?`,
		u.Username, u.Email, u.PasswordHash, string(u.Role),
		boolToInt(u.IsBlocked), boolToInt(u.RequirePasswordReset),
		u.ResetPasswordTokenHash, nullableUnixNano(u.ResetPasswordExpiresAt),
		nullableRFC3339(u.LastLoginAt), u.ID,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("user %s: %w", u.ID, ErrNotFound)
	}
	return nil
}

// TouchLastLogin records a successful login without rewriting the rest of the row.
func (s *SQLiteStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	s.logger.Debug("sql", "op", "update", "table", "users", "id", id, "column", "last_login_at")

	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`,
		at.Format(time.RFC3339Nano), id)
	return err
}

func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "delete", "table", "users", "id", id)

	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) scanUser(row scanner) (*model.User, error) {
	var u model.User
	var role, createdAt string
	var blocked, mustReset int
	var resetExpires sql.NullInt64
	var lastLogin sql.NullString

	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &blocked, &mustReset,
		&u.ResetPasswordTokenHash, &resetExpires, &createdAt, &lastLogin)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	u.Role = model.UserRole(role)
	u.IsBlocked = blocked != 0
	u.RequirePasswordReset = mustReset != 0
	if resetExpires.Valid {
		t := time.Unix(0, resetExpires.Int64)
		u.ResetPasswordExpiresAt = &t
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if lastLogin.Valid {
		t, _ := time.Parse(time.RFC3339Nano, lastLogin.String)
		u.LastLoginAt = &t
	}
	return &u, nil
}

func nullableUnixNano(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}

func nullableRFC3339(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

// --- Session operations ---

func (s *SQLiteStore) CreateSession(ctx context.Context, sess *model.Session) error {
	s.logger.Debug("sql", "op", "insert", "table", "sessions", "id", sess.ID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, username, role, must_reset_password, reset_token,
		 flash_success, flash_error, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.Username, sess.Role,
		boolToInt(sess.MustResetPassword), sess.ResetToken,
		sess.FlashSuccess, sess.FlashError,
		sess.CreatedAt.Unix(), sess.ExpiresAt.Unix(),
	)
	return err
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	s.logger.Debug("sql", "op", "select", "table", "sessions", "id", id)

	var sess model.Session
	var mustReset int
	var createdAt, expiresAt int64

	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, username, role, must_reset_password, reset_token,
		 flash_success, flash_error, created_at, expires_at
		 FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.UserID, &sess.Username, &sess.Role, &mustReset, &sess.ResetToken,
		&sess.FlashSuccess, &sess.FlashError, &createdAt, &expiresAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sess.MustResetPassword = mustReset != 0
	sess.CreatedAt = time.Unix(createdAt, 0)
	sess.ExpiresAt = time.Unix(expiresAt, 0)

	return &sess, nil
}

// UpdateSession rewrites the mutable fields of a session. Expiry is not extended.
func (s *SQLiteStore) UpdateSession(ctx context.Context, sess *model.Session) error {
	s.logger.Debug("sql", "op", "update", "table", "sessions", "id", sess.ID)

	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET username=?, role=?, must_reset_password=?, reset_token=?,
		 flash_success=?, flash_error=? WHERE id=?`,
		sess.Username, sess.Role, boolToInt(sess.MustResetPassword), sess.ResetToken,
		sess.FlashSuccess, sess.FlashError, sess.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("session %s: %w", sess.ID, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "delete", "table", "sessions", "id", id)

	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	s.logger.Debug("sql", "op", "delete_expired", "table", "sessions")

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *SQLiteStore) DeleteSessionsByUserID(ctx context.Context, userID string) (int64, error) {
	s.logger.Debug("sql", "op", "delete_by_user", "table", "sessions", "user_id", userID)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
