package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/me/showrunner/internal/apperr"
	"github.com/me/showrunner/pkg/model"
)

// ListCharacters returns one page of characters matching f, ordered by id.
func (s *Service) ListCharacters(ctx context.Context, f model.CharacterFilter, page int) (Page[*model.Character], error) {
	if page < 1 {
		page = 1
	}
	items, total, err := s.store.ListCharacters(ctx, f, model.PageOptions(page))
	if err != nil {
		return Page[*model.Character]{}, apperr.Store("ListCharacters", err)
	}
	return newPage(items, total, page), nil
}

// GetCharacter returns the character or NOT_FOUND.
func (s *Service) GetCharacter(ctx context.Context, id int) (*model.Character, error) {
	c, err := s.store.GetCharacter(ctx, id)
	if err != nil {
		return nil, apperr.Store("GetCharacter", err)
	}
	if c == nil {
		return nil, apperr.NotFound("Character", id)
	}
	return c, nil
}

// LocationChoices lists locations for the location and origin selectors.
func (s *Service) LocationChoices(ctx context.Context) ([]model.PlaceRef, error) {
	refs, err := s.store.ListLocationRefs(ctx)
	if err != nil {
		return nil, apperr.Store("ListLocationRefs", err)
	}
	return refs, nil
}

// resolvePlace maps a submitted location id to its reference. Unknown or
// blank ids resolve to UnknownPlace.
func (s *Service) resolvePlace(ctx context.Context, raw string) (model.PlaceRef, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return model.UnknownPlace, nil
	}
	l, err := s.store.GetLocation(ctx, id)
	if err != nil {
		return model.PlaceRef{}, apperr.Store("GetLocation", err)
	}
	if l == nil {
		return model.UnknownPlace, nil
	}
	return l.Ref(), nil
}

func (s *Service) applyCharacter(ctx context.Context, c *model.Character, in CharacterInput) error {
	loc, err := s.resolvePlace(ctx, in.LocationID)
	if err != nil {
		return err
	}
	origin, err := s.resolvePlace(ctx, in.OriginID)
	if err != nil {
		return err
	}
	c.Name = in.Name
	c.IsAlive = in.IsAlive == "true"
	c.Species = in.Species
	c.Type = in.Type
	c.Gender = in.Gender
	c.Image = in.Image
	c.Location = loc
	c.Origin = origin
	c.Episodes = ParseIDList(in.Episode)
	return nil
}

// CreateCharacter validates in and stores a new character with id max+1.
func (s *Service) CreateCharacter(ctx context.Context, in CharacterInput) (*model.Character, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	id, err := s.store.NextCharacterID(ctx)
	if err != nil {
		return nil, apperr.Store("NextCharacterID", err)
	}

	now := s.stamp()
	c := &model.Character{CharacterID: id, Created: now, Updated: now}
	if err := s.applyCharacter(ctx, c, in); err != nil {
		return nil, err
	}
	if err := s.store.CreateCharacter(ctx, c); err != nil {
		return nil, writeErr("CreateCharacter", "Character", id, err)
	}
	s.logger.Info("character created", "character_id", id, "name", c.Name)
	return c, nil
}

// UpdateCharacter validates in and rewrites character id.
func (s *Service) UpdateCharacter(ctx context.Context, id int, in CharacterInput) (*model.Character, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	c, err := s.GetCharacter(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyCharacter(ctx, c, in); err != nil {
		return nil, err
	}
	c.Updated = s.stamp()
	if err := s.store.UpdateCharacter(ctx, c); err != nil {
		return nil, writeErr("UpdateCharacter", "Character", id, err)
	}
	s.logger.Info("character updated", "character_id", id)
	return c, nil
}

// DeleteCharacter removes character id.
func (s *Service) DeleteCharacter(ctx context.Context, id int) error {
	if err := s.store.DeleteCharacter(ctx, id); err != nil {
		return writeErr("DeleteCharacter", "Character", id, err)
	}
	s.logger.Info("character deleted", "character_id", id)
	return nil
}
