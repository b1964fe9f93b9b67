package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/me/showrunner/pkg/model"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
	st, err := NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleUser(id, username, email string) *model.User {
	return &model.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$10$hash",
		Role:         model.RoleUser,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

func sampleCharacter(id int, name string) *model.Character {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.Character{
		CharacterID: id,
		Name:        name,
		IsAlive:     true,
		Species:     "Human",
		Gender:      model.GenderMale,
		Image:       "https://example.com/1.jpeg",
		Location:    model.PlaceRef{ID: 3, Name: "Citadel of Ricks"},
		Origin:      model.PlaceRef{ID: 1, Name: "Earth (C-137)"},
		Episodes:    []int{1, 2, 3},
		Created:     now,
		Updated:     now,
	}
}

// --- Migration tests ---

func TestMigrate_Idempotent(t *testing.T) {
	st := testStore(t)
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

// --- User tests ---

func TestCreateAndGetUser(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	u := sampleUser("usr_1", "alice", "alice@example.com")

	if err := st.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := st.GetUserByID(ctx, "usr_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("got nil user")
	}
	if got.Username != "alice" || got.Email != "alice@example.com" {
		t.Errorf("got %q/%q", got.Username, got.Email)
	}
	if got.Role != model.RoleUser {
		t.Errorf("role = %q, want user", got.Role)
	}
	if !got.CreatedAt.Equal(u.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, u.CreatedAt)
	}
	if got.ResetPasswordExpiresAt != nil || got.LastLoginAt != nil {
		t.Error("optional timestamps should be nil")
	}
}

func TestGetUser_NotFound(t *testing.T) {
	st := testStore(t)
	got, err := st.GetUserByUsername(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	if err := st.CreateUser(ctx, sampleUser("usr_1", "alice", "alice@example.com")); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := st.CreateUser(ctx, sampleUser("usr_2", "alice", "other@example.com"))
	if !errors.Is(err, ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestCreateUser_DuplicateEmailCaseInsensitive(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	if err := st.CreateUser(ctx, sampleUser("usr_1", "alice", "alice@example.com")); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := st.CreateUser(ctx, sampleUser("usr_2", "alice2", "ALICE@example.com"))
	if !errors.Is(err, ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	st.CreateUser(ctx, sampleUser("usr_1", "alice", "alice@example.com"))

	got, err := st.GetUserByEmail(ctx, "Alice@Example.COM")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ID != "usr_1" {
		t.Errorf("got %+v, want usr_1", got)
	}
}

func TestFindUserByUsernameOrEmail(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	st.CreateUser(ctx, sampleUser("usr_1", "alice", "alice@example.com"))

	tests := []struct {
		name     string
		username string
		email    string
		want     bool
	}{
		{"username match", "alice", "new@example.com", true},
		{"email match", "bob", "ALICE@example.com", true},
		{"no match", "bob", "bob@example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := st.FindUserByUsernameOrEmail(ctx, tt.username, tt.email)
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			if (got != nil) != tt.want {
				t.Errorf("found = %v, want %v", got != nil, tt.want)
			}
		})
	}
}

func TestUpdateUser_ResetTokenRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	u := sampleUser("usr_1", "alice", "alice@example.com")
	st.CreateUser(ctx, u)

	expires := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	u.ResetPasswordTokenHash = "abc123"
	u.ResetPasswordExpiresAt = &expires
	u.RequirePasswordReset = true
	u.IsBlocked = true
	if err := st.UpdateUser(ctx, u); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := st.GetUserByResetTokenHash(ctx, "abc123")
	if err != nil {
		t.Fatalf("get by hash: %v", err)
	}
	if got == nil {
		t.Fatal("user not found by reset hash")
	}
	if got.ResetPasswordExpiresAt == nil || !got.ResetPasswordExpiresAt.Equal(expires) {
		t.Errorf("expires = %v, want %v", got.ResetPasswordExpiresAt, expires)
	}
	if !got.RequirePasswordReset || !got.IsBlocked {
		t.Errorf("flags not persisted: %+v", got)
	}

	got.ClearResetToken()
	if err := st.UpdateUser(ctx, got); err != nil {
		t.Fatalf("clear: %v", err)
	}
	again, _ := st.GetUserByResetTokenHash(ctx, "abc123")
	if again != nil {
		t.Error("cleared hash should not match")
	}
}

func TestGetUserByResetTokenHash_Empty(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	st.CreateUser(ctx, sampleUser("usr_1", "alice", "alice@example.com"))

	got, err := st.GetUserByResetTokenHash(ctx, "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("empty hash must never match a user")
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	st := testStore(t)
	err := st.UpdateUser(context.Background(), sampleUser("usr_missing", "x", "x@example.com"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListUsers_NewestFirst(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		u := sampleUser(fmt.Sprintf("usr_%d", i), fmt.Sprintf("user%d", i), fmt.Sprintf("u%d@example.com", i))
		u.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		st.CreateUser(ctx, u)
	}

	users, err := st.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("len = %d, want 3", len(users))
	}
	if users[0].ID != "usr_2" || users[2].ID != "usr_0" {
		t.Errorf("order = %s,%s,%s", users[0].ID, users[1].ID, users[2].ID)
	}
}

func TestDeleteUser(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	st.CreateUser(ctx, sampleUser("usr_1", "alice", "alice@example.com"))

	if err := st.DeleteUser(ctx, "usr_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := st.GetUserByID(ctx, "usr_1")
	if got != nil {
		t.Error("user should be gone")
	}
	if err := st.DeleteUser(ctx, "usr_1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

// --- Session tests ---

func TestSessionLifecycle(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)
	sess := &model.Session{
		ID:        "sess_1",
		UserID:    "usr_1",
		Username:  "alice",
		Role:      "user",
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
	if err := st.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}

	sess.MustResetPassword = true
	sess.ResetToken = "deadbeef"
	sess.FlashSuccess = "Welcome"
	if err := st.UpdateSession(ctx, sess); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := st.GetSession(ctx, "sess_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("session not found")
	}
	if !got.MustResetPassword || got.ResetToken != "deadbeef" || got.FlashSuccess != "Welcome" {
		t.Errorf("session fields not persisted: %+v", got)
	}
	if !got.ExpiresAt.Equal(sess.ExpiresAt) {
		t.Errorf("expires = %v, want %v", got.ExpiresAt, sess.ExpiresAt)
	}

	if err := st.DeleteSession(ctx, "sess_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ = st.GetSession(ctx, "sess_1")
	if got != nil {
		t.Error("session should be deleted")
	}
}

func TestDeleteSessionsByUserID(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now()
	for i, uid := range []string{"usr_1", "usr_1", "usr_2"} {
		st.CreateSession(ctx, &model.Session{
			ID: fmt.Sprintf("sess_%d", i), UserID: uid, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
		})
	}

	n, err := st.DeleteSessionsByUserID(ctx, "usr_1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
	if got, _ := st.GetSession(ctx, "sess_2"); got == nil {
		t.Error("other user's session should survive")
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now()
	st.CreateSession(ctx, &model.Session{ID: "old", UserID: "u", CreatedAt: now.Add(-48 * time.Hour), ExpiresAt: now.Add(-24 * time.Hour)})
	st.CreateSession(ctx, &model.Session{ID: "new", UserID: "u", CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour)})

	n, err := st.DeleteExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
}

// --- Character tests ---

func TestCharacterCRUD(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	next, err := st.NextCharacterID(ctx)
	if err != nil {
		t.Fatalf("next id: %v", err)
	}
	if next != 1 {
		t.Errorf("next id on empty table = %d, want 1", next)
	}

	c := sampleCharacter(1, "Rick Sanchez")
	if err := st.CreateCharacter(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.CreateCharacter(ctx, sampleCharacter(1, "Dup")); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate id err = %v, want ErrConflict", err)
	}

	next, _ = st.NextCharacterID(ctx)
	if next != 2 {
		t.Errorf("next id = %d, want 2", next)
	}

	got, err := st.GetCharacter(ctx, 1)
	if err != nil || got == nil {
		t.Fatalf("get: %v, %v", got, err)
	}
	if len(got.Episodes) != 3 || got.Location.Name != "Citadel of Ricks" || got.Origin.ID != 1 {
		t.Errorf("got %+v", got)
	}

	got.IsAlive = false
	got.Episodes = nil
	if err := st.UpdateCharacter(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = st.GetCharacter(ctx, 1)
	if got.IsAlive || len(got.Episodes) != 0 {
		t.Errorf("update not persisted: %+v", got)
	}

	if err := st.DeleteCharacter(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.DeleteCharacter(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestListCharacters_Filters(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	rick := sampleCharacter(1, "Rick Sanchez")
	morty := sampleCharacter(2, "Morty Smith")
	summer := sampleCharacter(3, "Summer Smith")
	summer.Gender = model.GenderFemale
	birdperson := sampleCharacter(4, "Birdperson")
	birdperson.Species = "Bird-Person"
	birdperson.IsAlive = false
	birdperson.Origin = model.PlaceRef{ID: 15, Name: "Bird World"}
	for _, c := range []*model.Character{rick, morty, summer, birdperson} {
		if err := st.CreateCharacter(ctx, c); err != nil {
			t.Fatalf("create %s: %v", c.Name, err)
		}
	}

	tests := []struct {
		name   string
		filter model.CharacterFilter
		want   []int
	}{
		{"no filter", model.CharacterFilter{}, []int{1, 2, 3, 4}},
		{"name substring case-insensitive", model.CharacterFilter{Name: "smith"}, []int{2, 3}},
		{"species", model.CharacterFilter{Species: "bird"}, []int{4}},
		{"gender exact", model.CharacterFilter{Gender: model.GenderFemale}, []int{3}},
		{"status dead", model.CharacterFilter{Status: "dead"}, []int{4}},
		{"status alive", model.CharacterFilter{Status: "alive"}, []int{1, 2, 3}},
		{"origin", model.CharacterFilter{Origin: "bird world"}, []int{4}},
		{"location", model.CharacterFilter{Location: "citadel"}, []int{1, 2, 3, 4}},
		{"combined", model.CharacterFilter{Name: "smith", Gender: model.GenderMale}, []int{2}},
		{"like metacharacters are literal", model.CharacterFilter{Name: "%"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chars, total, err := st.ListCharacters(ctx, tt.filter, model.DefaultListOptions())
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if total != len(tt.want) {
				t.Errorf("total = %d, want %d", total, len(tt.want))
			}
			var ids []int
			for _, c := range chars {
				ids = append(ids, c.CharacterID)
			}
			if fmt.Sprint(ids) != fmt.Sprint(tt.want) {
				t.Errorf("ids = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestListCharacters_Pagination(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	for i := 1; i <= 30; i++ {
		st.CreateCharacter(ctx, sampleCharacter(i, fmt.Sprintf("Character %d", i)))
	}

	page, total, err := st.ListCharacters(ctx, model.CharacterFilter{}, model.PageOptions(3))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 30 {
		t.Errorf("total = %d, want 30", total)
	}
	if len(page) != 6 {
		t.Fatalf("page 3 len = %d, want 6", len(page))
	}
	if page[0].CharacterID != 25 {
		t.Errorf("first on page 3 = %d, want 25", page[0].CharacterID)
	}
}

func TestGetCharactersByIDs(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		st.CreateCharacter(ctx, sampleCharacter(i, fmt.Sprintf("C%d", i)))
	}

	got, err := st.GetCharactersByIDs(ctx, []int{4, 2, 99})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 || got[0].CharacterID != 2 || got[1].CharacterID != 4 {
		t.Errorf("got %d characters", len(got))
	}

	none, err := st.GetCharactersByIDs(ctx, nil)
	if err != nil || none != nil {
		t.Errorf("empty ids: %v, %v", none, err)
	}
}

// --- Episode tests ---

func TestEpisodes_SeasonFilterAndSeasons(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	codes := []string{"S01E01", "S01E02", "S02E01", "S03E01"}
	for i, code := range codes {
		if err := st.CreateEpisode(ctx, &model.Episode{
			EpisodeID: i + 1, Name: "Ep " + code, AirDate: "December 2, 2013", Code: code,
			Characters: []int{1, 2}, Created: now, Updated: now,
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	eps, total, err := st.ListEpisodes(ctx, model.EpisodeFilter{Season: "S01"}, model.DefaultListOptions())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(eps) != 2 {
		t.Errorf("S01 total = %d, len = %d, want 2", total, len(eps))
	}

	_, total, _ = st.ListEpisodes(ctx, model.EpisodeFilter{Season: "s02"}, model.DefaultListOptions())
	if total != 1 {
		t.Errorf("lower-case season total = %d, want 1", total)
	}

	_, total, _ = st.ListEpisodes(ctx, model.EpisodeFilter{Season: "all"}, model.DefaultListOptions())
	if total != 4 {
		t.Errorf("all total = %d, want 4", total)
	}

	seasons, err := st.ListSeasons(ctx)
	if err != nil {
		t.Fatalf("seasons: %v", err)
	}
	if fmt.Sprint(seasons) != "[S01 S02 S03]" {
		t.Errorf("seasons = %v", seasons)
	}
}

func TestEpisode_DuplicateAndUpdate(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	ep := &model.Episode{EpisodeID: 1, Name: "Pilot", AirDate: "December 2, 2013", Code: "S01E01", Created: now, Updated: now}
	if err := st.CreateEpisode(ctx, ep); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.CreateEpisode(ctx, ep); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate err = %v, want ErrConflict", err)
	}

	ep.Name = "Pilot (remastered)"
	ep.Characters = []int{1, 2, 38}
	if err := st.UpdateEpisode(ctx, ep); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := st.GetEpisode(ctx, 1)
	if got.Name != "Pilot (remastered)" || len(got.Characters) != 3 {
		t.Errorf("got %+v", got)
	}

	if err := st.UpdateEpisode(ctx, &model.Episode{EpisodeID: 99}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing update err = %v, want ErrNotFound", err)
	}
}

// --- Location tests ---

func TestLocations_FiltersAndDistinct(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	locs := []*model.Location{
		{LocationID: 1, Name: "Earth (C-137)", Type: "Planet", Dimension: "Dimension C-137", Residents: []int{38, 45}},
		{LocationID: 2, Name: "Abadango", Type: "Cluster", Dimension: "unknown"},
		{LocationID: 3, Name: "Citadel of Ricks", Type: "Space station", Dimension: "unknown",
			Coordinates: &model.Coordinates{Lat: 1.5, Lng: -2.25}},
	}
	for _, l := range locs {
		l.Created, l.Updated = now, now
		if err := st.CreateLocation(ctx, l); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	_, total, err := st.ListLocations(ctx, model.LocationFilter{Dimension: "unknown"}, model.DefaultListOptions())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 {
		t.Errorf("dimension total = %d, want 2", total)
	}
	_, total, _ = st.ListLocations(ctx, model.LocationFilter{Type: "Planet", Dimension: "all"}, model.DefaultListOptions())
	if total != 1 {
		t.Errorf("type total = %d, want 1", total)
	}

	types, _ := st.ListLocationTypes(ctx)
	if fmt.Sprint(types) != "[Cluster Planet Space station]" {
		t.Errorf("types = %v", types)
	}
	dims, _ := st.ListLocationDimensions(ctx)
	if len(dims) != 2 {
		t.Errorf("dimensions = %v", dims)
	}

	refs, _ := st.ListLocationRefs(ctx)
	if len(refs) != 3 || refs[0].Name != "Abadango" {
		t.Errorf("refs = %v", refs)
	}

	got, _ := st.GetLocation(ctx, 3)
	if got.Coordinates == nil || got.Coordinates.Lng != -2.25 {
		t.Errorf("coordinates = %+v", got.Coordinates)
	}
	got, _ = st.GetLocation(ctx, 1)
	if got.Coordinates != nil || len(got.Residents) != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestLocation_UpdateDelete(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	l := &model.Location{LocationID: 7, Name: "Immortality Field Resort", Type: "Resort", Dimension: "unknown", Created: now, Updated: now}
	st.CreateLocation(ctx, l)

	l.Name = "Resort"
	if err := st.UpdateLocation(ctx, l); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := st.DeleteLocation(ctx, 7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.DeleteLocation(ctx, 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}
