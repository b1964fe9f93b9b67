// Package catalog implements the character, episode and location
// operations shared by the HTML controllers and the JSON API.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/me/showrunner/internal/apperr"
	"github.com/me/showrunner/internal/store"
	"github.com/me/showrunner/pkg/model"
)

// Store is the persistence the catalog needs. Get methods return (nil, nil)
// for a missing record.
type Store interface {
	ListCharacters(ctx context.Context, f model.CharacterFilter, opts model.ListOptions) ([]*model.Character, int, error)
	GetCharacter(ctx context.Context, id int) (*model.Character, error)
	GetCharactersByIDs(ctx context.Context, ids []int) ([]*model.Character, error)
	NextCharacterID(ctx context.Context) (int, error)
	CreateCharacter(ctx context.Context, c *model.Character) error
	UpdateCharacter(ctx context.Context, c *model.Character) error
	DeleteCharacter(ctx context.Context, id int) error

	ListEpisodes(ctx context.Context, f model.EpisodeFilter, opts model.ListOptions) ([]*model.Episode, int, error)
	ListSeasons(ctx context.Context) ([]string, error)
	GetEpisode(ctx context.Context, id int) (*model.Episode, error)
	CreateEpisode(ctx context.Context, e *model.Episode) error
	UpdateEpisode(ctx context.Context, e *model.Episode) error
	DeleteEpisode(ctx context.Context, id int) error

	ListLocations(ctx context.Context, f model.LocationFilter, opts model.ListOptions) ([]*model.Location, int, error)
	ListLocationTypes(ctx context.Context) ([]string, error)
	ListLocationDimensions(ctx context.Context) ([]string, error)
	ListLocationRefs(ctx context.Context) ([]model.PlaceRef, error)
	GetLocation(ctx context.Context, id int) (*model.Location, error)
	CreateLocation(ctx context.Context, l *model.Location) error
	UpdateLocation(ctx context.Context, l *model.Location) error
	DeleteLocation(ctx context.Context, id int) error
}

// Page is one page of a listing.
type Page[T any] struct {
	Items      []T
	Total      int
	Page       int
	TotalPages int
}

func newPage[T any](items []T, total, page int) Page[T] {
	return Page[T]{Items: items, Total: total, Page: page, TotalPages: model.TotalPages(total, model.PageSize)}
}

// Service implements the catalog operations.
type Service struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a Service backed by st.
func NewService(st Store, logger *slog.Logger) *Service {
	return &Service{store: st, now: time.Now, logger: logger.With("component", "catalog")}
}

// WithClock overrides the time source used for created/updated stamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) stamp() time.Time {
	return s.now().UTC()
}

func errDuplicate(resource string, id int) error {
	return oops.Code(apperr.CodeConflict).
		With("resource", resource).
		With("id", id).
		Errorf("%s ID already exists", resource)
}

// writeErr codes a store write failure for resource id.
func writeErr(op, resource string, id int, err error) error {
	switch {
	case errors.Is(err, store.ErrConflict):
		return errDuplicate(resource, id)
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(resource, id)
	default:
		return apperr.Store(op, err)
	}
}
