package catalog

import (
	"context"
	"strconv"

	"github.com/me/showrunner/internal/apperr"
	"github.com/me/showrunner/pkg/model"
)

// LocationListing is a page of locations plus the filter selector values.
type LocationListing struct {
	Page[*model.Location]
	Types      []string
	Dimensions []string
}

// ListLocations returns one page of locations matching f.
func (s *Service) ListLocations(ctx context.Context, f model.LocationFilter, page int) (LocationListing, error) {
	if page < 1 {
		page = 1
	}
	items, total, err := s.store.ListLocations(ctx, f, model.PageOptions(page))
	if err != nil {
		return LocationListing{}, apperr.Store("ListLocations", err)
	}
	types, err := s.store.ListLocationTypes(ctx)
	if err != nil {
		return LocationListing{}, apperr.Store("ListLocationTypes", err)
	}
	dims, err := s.store.ListLocationDimensions(ctx)
	if err != nil {
		return LocationListing{}, apperr.Store("ListLocationDimensions", err)
	}
	return LocationListing{Page: newPage(items, total, page), Types: types, Dimensions: dims}, nil
}

// GetLocation returns the location or NOT_FOUND.
func (s *Service) GetLocation(ctx context.Context, id int) (*model.Location, error) {
	l, err := s.store.GetLocation(ctx, id)
	if err != nil {
		return nil, apperr.Store("GetLocation", err)
	}
	if l == nil {
		return nil, apperr.NotFound("Location", id)
	}
	return l, nil
}

// LocationResidents returns the location and its resident characters.
// Resident ids without a character record are logged and skipped.
func (s *Service) LocationResidents(ctx context.Context, id int) (*model.Location, []*model.Character, error) {
	l, err := s.GetLocation(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	chars, err := s.store.GetCharactersByIDs(ctx, l.Residents)
	if err != nil {
		return nil, nil, apperr.Store("GetCharactersByIDs", err)
	}
	if missing := len(l.Residents) - len(chars); missing > 0 {
		s.logger.Warn("location residents without character records", "location_id", id, "missing", missing)
	}
	return l, chars, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// CreateLocation validates in and stores a new location with no residents.
func (s *Service) CreateLocation(ctx context.Context, in LocationInput) (*model.Location, error) {
	err := in.Validate()
	if err = requireID(err, "locationId", "Location ID is required", in.LocationID); err != nil {
		return nil, err
	}
	id, _ := strconv.Atoi(in.LocationID)

	now := s.stamp()
	l := &model.Location{
		LocationID: id,
		Name:       in.Name,
		Type:       orUnknown(in.Type),
		Dimension:  orUnknown(in.Dimension),
		Residents:  []int{},
		Created:    now,
		Updated:    now,
	}
	if err := s.store.CreateLocation(ctx, l); err != nil {
		return nil, writeErr("CreateLocation", "Location", id, err)
	}
	s.logger.Info("location created", "location_id", id, "name", l.Name)
	return l, nil
}

// UpdateLocation rewrites name, type and dimension of location id. Residents
// and coordinates are kept.
func (s *Service) UpdateLocation(ctx context.Context, id int, in LocationInput) (*model.Location, error) {
	l, err := s.GetLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	l.Name = in.Name
	l.Type = orUnknown(in.Type)
	l.Dimension = orUnknown(in.Dimension)
	l.Updated = s.stamp()
	if err := s.store.UpdateLocation(ctx, l); err != nil {
		return nil, writeErr("UpdateLocation", "Location", id, err)
	}
	s.logger.Info("location updated", "location_id", id)
	return l, nil
}

// DeleteLocation removes location id and returns it.
func (s *Service) DeleteLocation(ctx context.Context, id int) (*model.Location, error) {
	l, err := s.GetLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteLocation(ctx, id); err != nil {
		return nil, writeErr("DeleteLocation", "Location", id, err)
	}
	s.logger.Info("location deleted", "location_id", id)
	return l, nil
}
