package catalog

import (
	"context"
	"strconv"

	"github.com/me/showrunner/internal/apperr"
	"github.com/me/showrunner/pkg/model"
)

// EpisodeListing is a page of episodes plus the season selector values.
type EpisodeListing struct {
	Page[*model.Episode]
	Seasons []string
}

// ListEpisodes returns one page of episodes of season ("" or "all" for every season).
func (s *Service) ListEpisodes(ctx context.Context, season string, page int) (EpisodeListing, error) {
	if page < 1 {
		page = 1
	}
	items, total, err := s.store.ListEpisodes(ctx, model.EpisodeFilter{Season: season}, model.PageOptions(page))
	if err != nil {
		return EpisodeListing{}, apperr.Store("ListEpisodes", err)
	}
	seasons, err := s.store.ListSeasons(ctx)
	if err != nil {
		return EpisodeListing{}, apperr.Store("ListSeasons", err)
	}
	return EpisodeListing{Page: newPage(items, total, page), Seasons: seasons}, nil
}

// GetEpisode returns the episode or NOT_FOUND.
func (s *Service) GetEpisode(ctx context.Context, id int) (*model.Episode, error) {
	e, err := s.store.GetEpisode(ctx, id)
	if err != nil {
		return nil, apperr.Store("GetEpisode", err)
	}
	if e == nil {
		return nil, apperr.NotFound("Episode", id)
	}
	return e, nil
}

// EpisodeCast returns the episode and the characters appearing in it.
func (s *Service) EpisodeCast(ctx context.Context, id int) (*model.Episode, []*model.Character, error) {
	e, err := s.GetEpisode(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	chars, err := s.store.GetCharactersByIDs(ctx, e.Characters)
	if err != nil {
		return nil, nil, apperr.Store("GetCharactersByIDs", err)
	}
	return e, chars, nil
}

// CreateEpisode validates in and stores a new episode under in.EpisodeID.
func (s *Service) CreateEpisode(ctx context.Context, in EpisodeInput) (*model.Episode, error) {
	err := in.Validate()
	if err = requireID(err, "episodeId", "Episode ID must be a positive number", in.EpisodeID); err != nil {
		return nil, err
	}
	id, _ := strconv.Atoi(in.EpisodeID)

	now := s.stamp()
	e := &model.Episode{
		EpisodeID:  id,
		Name:       in.Name,
		AirDate:    in.AirDate,
		Code:       in.Code,
		Characters: ParseIDList(in.Characters),
		Created:    now,
		Updated:    now,
	}
	if err := s.store.CreateEpisode(ctx, e); err != nil {
		return nil, writeErr("CreateEpisode", "Episode", id, err)
	}
	s.logger.Info("episode created", "episode_id", id, "code", e.Code)
	return e, nil
}

// UpdateEpisode validates in and rewrites episode id. The id itself is not changed.
func (s *Service) UpdateEpisode(ctx context.Context, id int, in EpisodeInput) (*model.Episode, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	e, err := s.GetEpisode(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Name = in.Name
	e.AirDate = in.AirDate
	e.Code = in.Code
	e.Characters = ParseIDList(in.Characters)
	e.Updated = s.stamp()
	if err := s.store.UpdateEpisode(ctx, e); err != nil {
		return nil, writeErr("UpdateEpisode", "Episode", id, err)
	}
	s.logger.Info("episode updated", "episode_id", id)
	return e, nil
}

// DeleteEpisode removes episode id and returns it.
func (s *Service) DeleteEpisode(ctx context.Context, id int) (*model.Episode, error) {
	e, err := s.GetEpisode(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteEpisode(ctx, id); err != nil {
		return nil, writeErr("DeleteEpisode", "Episode", id, err)
	}
	s.logger.Info("episode deleted", "episode_id", id)
	return e, nil
}
