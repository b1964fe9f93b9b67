package auth_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/me/showrunner/internal/store"
	"github.com/me/showrunner/pkg/model"
)

// memUsers is an in-memory auth.UserStore with the same uniqueness rules as
// the SQLite schema: unique username, unique case-insensitive email.
type memUsers struct {
	mu    sync.Mutex
	users map[string]model.User
	fail  error
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]model.User{}}
}

func (m *memUsers) find(match func(u *model.User) bool) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	for _, u := range m.users {
		if match(&u) {
			c := u
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memUsers) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	for _, existing := range m.users {
		if existing.Username == u.Username || strings.EqualFold(existing.Email, u.Email) {
			return store.ErrConflict
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.ID == id })
}

func (m *memUsers) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Username == username })
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *memUsers) GetUserByResetTokenHash(_ context.Context, hash string) (*model.User, error) {
	if hash == "" {
		return nil, nil
	}
	return m.find(func(u *model.User) bool { return u.ResetPasswordTokenHash == hash })
}

func (m *memUsers) FindUserByUsernameOrEmail(_ context.Context, username, email string) (*model.User, error) {
	return m.find(func(u *model.User) bool {
		return u.Username == username || strings.EqualFold(u.Email, email)
	})
}

func (m *memUsers) ListUsers(_ context.Context) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.User
	for _, u := range m.users {
		c := u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memUsers) UpdateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if _, ok := m.users[u.ID]; !ok {
		return fmt.Errorf("user %s: %w", u.ID, store.ErrNotFound)
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	u.LastLoginAt = &at
	m.users[id] = u
	return nil
}

func (m *memUsers) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	delete(m.users, id)
	return nil
}

// get returns the stored copy of a user, bypassing the service.
func (m *memUsers) get(id string) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
