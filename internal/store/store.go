package store

import (
	"context"
	"errors"
	"time"

	"github.com/me/showrunner/pkg/model"
)

var (
	// ErrNotFound is returned by update and delete operations that match no row.
	ErrNotFound = errors.New("store: record not found")
	// ErrConflict is returned when a write violates a unique constraint.
	ErrConflict = errors.New("store: unique constraint violated")
)

// Store defines the persistence layer for showrunner entities.
// Get methods return (nil, nil) when the record does not exist.
type Store interface {
	// Users
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

	// Sessions
	CreateSession(ctx context.Context, sess *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	UpdateSession(ctx context.Context, sess *model.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
	DeleteSessionsByUserID(ctx context.Context, userID string) (int64, error)

	// Characters
	ListCharacters(ctx context.Context, f model.CharacterFilter, opts model.ListOptions) ([]*model.Character, int, error)
	GetCharacter(ctx context.Context, id int) (*model.Character, error)
	GetCharactersByIDs(ctx context.Context, ids []int) ([]*model.Character, error)
	NextCharacterID(ctx context.Context) (int, error)
	CreateCharacter(ctx context.Context, c *model.Character) error
	UpdateCharacter(ctx context.Context, c *model.Character) error
	DeleteCharacter(ctx context.Context, id int) error

	// Episodes
	ListEpisodes(ctx context.Context, f model.EpisodeFilter, opts model.ListOptions) ([]*model.Episode, int, error)
	ListSeasons(ctx context.Context) ([]string, error)
	GetEpisode(ctx context.Context, id int) (*model.Episode, error)
	CreateEpisode(ctx context.Context, e *model.Episode) error
	UpdateEpisode(ctx context.Context, e *model.Episode) error
	DeleteEpisode(ctx context.Context, id int) error

	// Locations
	ListLocations(ctx context.Context, f model.LocationFilter, opts model.ListOptions) ([]*model.Location, int, error)
	ListLocationTypes(ctx context.Context) ([]string, error)
	ListLocationDimensions(ctx context.Context) ([]string, error)
	ListLocationRefs(ctx context.Context) ([]model.PlaceRef, error)
	GetLocation(ctx context.Context, id int) (*model.Location, error)
	CreateLocation(ctx context.Context, l *model.Location) error
	UpdateLocation(ctx context.Context, l *model.Location) error
	DeleteLocation(ctx context.Context, id int) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
}
