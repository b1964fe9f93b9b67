package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me/showrunner/internal/apperr"
	"github.com/me/showrunner/internal/logging"
	"github.com/me/showrunner/internal/store"
	"github.com/me/showrunner/pkg/model"
)

var fixedNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:", logging.Discard())
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	svc := NewService(st, logging.Discard()).WithClock(func() time.Time { return fixedNow })
	return svc, st
}

func seedLocation(t *testing.T, st *store.SQLiteStore, id int, name string, residents ...int) {
	t.Helper()
	require.NoError(t, st.CreateLocation(context.Background(), &model.Location{
		LocationID: id, Name: name, Type: "Planet", Dimension: "C-137", Residents: residents,
		Created: fixedNow, Updated: fixedNow,
	}))
}

func validCharacter() CharacterInput {
	return CharacterInput{
		Name:       "Rick Sanchez",
		IsAlive:    "true",
		Species:    "Human",
		Gender:     "Male",
		Image:      "https://example.com/rick.png",
		Episode:    "1, 2,, 3",
		LocationID: "1",
		OriginID:   "99",
	}
}

func TestCreateCharacter(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	seedLocation(t, st, 1, "Earth (C-137)")

	c, err := svc.CreateCharacter(ctx, validCharacter())
	require.NoError(t, err)
	assert.Equal(t, 1, c.CharacterID)
	assert.True(t, c.IsAlive)
	assert.Equal(t, model.PlaceRef{ID: 1, Name: "Earth (C-137)"}, c.Location)
	assert.Equal(t, model.UnknownPlace, c.Origin, "missing origin resolves to Unknown")
	assert.Equal(t, []int{1, 2, 3}, c.Episodes)

	second, err := svc.CreateCharacter(ctx, validCharacter())
	require.NoError(t, err)
	assert.Equal(t, 2, second.CharacterID, "new ids are max+1")
}

func TestCreateCharacter_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	in := validCharacter()
	in.Name = "R"
	in.IsAlive = "maybe"
	in.Image = "not a url"
	in.Episode = "1;2"
	in.LocationID = ""

	_, err := svc.CreateCharacter(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeValidationFailed, apperr.Code(err))

	got := map[string]string{}
	for _, f := range apperr.FieldErrors(err) {
		got[f.Field] = f.Message
	}
	assert.Equal(t, map[string]string{
		"name":       "Name must be at least 2 chars",
		"isAlive":    "Invalid status value",
		"image":      "Must be a valid URL",
		"episode":    "Episodes must be numbers separated by commas (e.g. 1, 2)",
		"locationId": "Last Known Location is required",
	}, got)
}

func TestUpdateDeleteCharacter(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	seedLocation(t, st, 1, "Earth (C-137)")
	seedLocation(t, st, 2, "Citadel of Ricks")

	c, err := svc.CreateCharacter(ctx, validCharacter())
	require.NoError(t, err)

	in := CharacterInputFrom(c)
	in.IsAlive = "false"
	in.OriginID = "2"
	updated, err := svc.UpdateCharacter(ctx, c.CharacterID, in)
	require.NoError(t, err)
	assert.False(t, updated.IsAlive)
	assert.Equal(t, "Citadel of Ricks", updated.Origin.Name)

	_, err = svc.UpdateCharacter(ctx, 404, in)
	assert.Equal(t, apperr.CodeNotFound, apperr.Code(err))

	require.NoError(t, svc.DeleteCharacter(ctx, c.CharacterID))
	assert.Equal(t, apperr.CodeNotFound, apperr.Code(svc.DeleteCharacter(ctx, c.CharacterID)))
	_, err = svc.GetCharacter(ctx, c.CharacterID)
	assert.Equal(t, apperr.CodeNotFound, apperr.Code(err))
}

func TestListCharacters_Pages(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for i := 0; i < 13; i++ {
		_, err := svc.CreateCharacter(ctx, validCharacter())
		require.NoError(t, err)
	}

	p1, err := svc.ListCharacters(ctx, model.CharacterFilter{}, 0)
	require.NoError(t, err)
	assert.Len(t, p1.Items, model.PageSize)
	assert.Equal(t, 1, p1.Page)
	assert.Equal(t, 13, p1.Total)
	assert.Equal(t, 2, p1.TotalPages)

	p2, err := svc.ListCharacters(ctx, model.CharacterFilter{}, 2)
	require.NoError(t, err)
	require.Len(t, p2.Items, 1)
	assert.Equal(t, 13, p2.Items[0].CharacterID)
}

func TestEpisodes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rick, err := svc.CreateCharacter(ctx, validCharacter())
	require.NoError(t, err)

	e, err := svc.CreateEpisode(ctx, EpisodeInput{
		EpisodeID: "1", Name: "Pilot", AirDate: "December 2, 2013", Code: "S01E01", Characters: "1, 77",
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 77}, e.Characters)

	_, err = svc.CreateEpisode(ctx, EpisodeInput{EpisodeID: "1", Name: "Dup", AirDate: "x", Code: "S01E02"})
	assert.Equal(t, apperr.CodeConflict, apperr.Code(err))

	_, err = svc.CreateEpisode(ctx, EpisodeInput{EpisodeID: "2", Name: "Bad", AirDate: "x", Code: "1x01"})
	require.Error(t, err)
	fields := apperr.FieldErrors(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "Episode code must follow the pattern S##E## (e.g., S01E01, S02E10)", fields[0].Message)

	_, err = svc.CreateEpisode(ctx, EpisodeInput{Name: "No id", AirDate: "x", Code: "S02E01"})
	assert.Equal(t, apperr.CodeValidationFailed, apperr.Code(err))

	_, err = svc.CreateEpisode(ctx, EpisodeInput{EpisodeID: "3", Name: "Season two", AirDate: "x", Code: "S02E01"})
	require.NoError(t, err)

	listing, err := svc.ListEpisodes(ctx, "S01", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, listing.Total)
	assert.Equal(t, []string{"S01", "S02"}, listing.Seasons)

	all, err := svc.ListEpisodes(ctx, "all", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)

	ep, cast, err := svc.EpisodeCast(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Pilot", ep.Name)
	require.Len(t, cast, 1, "unknown character ids are skipped")
	assert.Equal(t, rick.CharacterID, cast[0].CharacterID)

	deleted, err := svc.DeleteEpisode(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Pilot", deleted.Name)
	_, err = svc.DeleteEpisode(ctx, 1)
	assert.Equal(t, apperr.CodeNotFound, apperr.Code(err))
}

func TestLocations(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	l, err := svc.CreateLocation(ctx, LocationInput{LocationID: "1", Name: "Earth (C-137)", Type: "Planet"})
	require.NoError(t, err)
	assert.Equal(t, "Unknown", l.Dimension, "blank dimension defaults to Unknown")
	assert.Empty(t, l.Residents)

	_, err = svc.CreateLocation(ctx, LocationInput{LocationID: "1", Name: "Again"})
	assert.Equal(t, apperr.CodeConflict, apperr.Code(err))

	_, err = svc.CreateLocation(ctx, LocationInput{LocationID: "0", Name: "Zero"})
	assert.Equal(t, apperr.CodeValidationFailed, apperr.Code(err))

	_, err = svc.UpdateLocation(ctx, 1, LocationInput{Name: "E"})
	assert.Equal(t, apperr.CodeValidationFailed, apperr.Code(err))

	updated, err := svc.UpdateLocation(ctx, 1, LocationInput{Name: "Earth (Replacement Dimension)", Type: "Planet", Dimension: "Replacement Dimension"})
	require.NoError(t, err)
	assert.Equal(t, "Replacement Dimension", updated.Dimension)

	_, err = svc.UpdateLocation(ctx, 9, LocationInput{Name: "Nowhere"})
	assert.Equal(t, apperr.CodeNotFound, apperr.Code(err))

	listing, err := svc.ListLocations(ctx, model.LocationFilter{Type: "Planet"}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, listing.Total)
	assert.Equal(t, []string{"Planet"}, listing.Types)
	assert.Equal(t, []string{"Replacement Dimension"}, listing.Dimensions)
}

func TestLocationResidents(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	c, err := svc.CreateCharacter(ctx, validCharacter())
	require.NoError(t, err)
	seedLocation(t, st, 5, "Citadel of Ricks", c.CharacterID, 500)

	l, residents, err := svc.LocationResidents(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Citadel of Ricks", l.Name)
	require.Len(t, residents, 1)
	assert.Equal(t, c.CharacterID, residents[0].CharacterID)
}

func TestParseIDList(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, ParseIDList(" 1, 2,,3 "))
	assert.Nil(t, ParseIDList(""))
	assert.Equal(t, "1, 2", FormatIDList([]int{1, 2}))
}
