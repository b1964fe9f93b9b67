package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/me/showrunner/pkg/model"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s anywhere, case-insensitively for ASCII.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// where accumulates AND-ed filter clauses.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, arg any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, arg)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func isAll(v string) bool {
	return v == "" || strings.EqualFold(v, "all")
}

func marshalIDs(ids []int) (string, error) {
	if ids == nil {
		ids = []int{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("marshal ids: %w", err)
	}
	return string(b), nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// --- Character operations ---

const characterColumns = `character_id, name, is_alive, species, type, gender, image,
	location_id, location_name, origin_id, origin_name, episodes, created_at, updated_at`

func characterWhere(f model.CharacterFilter) *where {
	w := &where{}
	if f.Name != "" {
		w.add(`name LIKE ? ESCAPE '\'`, containsPattern(f.Name))
	}
	if f.Species != "" {
		w.add(`species LIKE ? ESCAPE '\'`, containsPattern(f.Species))
	}
	if f.Gender != "" {
		w.add(`gender = ?`, f.Gender)
	}
	switch strings.ToLower(f.Status) {
	case "alive":
		w.add(`is_alive = ?`, 1)
	case "dead":
		w.add(`is_alive = ?`, 0)
	}
	if f.Location != "" {
		w.add(`location_name LIKE ? ESCAPE '\'`, containsPattern(f.Location))
	}
	if f.Origin != "" {
		w.add(`origin_name LIKE ? ESCAPE '\'`, containsPattern(f.Origin))
	}
	return w
}

// ListCharacters returns one page of characters ordered by id, plus the filtered total.
func (s *SQLiteStore) ListCharacters(ctx context.Context, f model.CharacterFilter, opts model.ListOptions) ([]*model.Character, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "characters", "limit", opts.Limit, "offset", opts.Offset)
	opts.Clamp()

	w := characterWhere(f)
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM characters`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args := append(append([]any{}, w.args...), opts.Limit, opts.Offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+characterColumns+` FROM characters`+w.String()+` ORDER BY character_id LIMIT ? OFFSET ?`,
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	chars, err := scanCharacters(rows)
	return chars, total, err
}

func (s *SQLiteStore) GetCharacter(ctx context.Context, id int) (*model.Character, error) {
	s.logger.Debug("sql", "op", "select", "table", "characters", "id", id)
	return scanCharacter(s.db.QueryRowContext(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE character_id = ?`, id))
}

// GetCharactersByIDs returns the characters among ids that exist, ordered by id.
func (s *SQLiteStore) GetCharactersByIDs(ctx context.Context, ids []int) ([]*model.Character, error) {
	s.logger.Debug("sql", "op", "select_many", "table", "characters", "count", len(ids))
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE character_id IN (`+placeholders(len(ids))+`)
		 ORDER BY character_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCharacters(rows)
}

// NextCharacterID returns max(character_id)+1, or 1 for an empty table.
func (s *SQLiteStore) NextCharacterID(ctx context.Context) (int, error) {
	var next int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(character_id), 0) + 1 FROM characters`).Scan(&next)
	return next, err
}

func (s *SQLiteStore) CreateCharacter(ctx context.Context, c *model.Character) error {
	s.logger.Debug("sql", "op", "insert", "table", "characters", "id", c.CharacterID)

	episodes, err := marshalIDs(c.Episodes)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO characters (`+characterColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CharacterID, c.Name, boolToInt(c.IsAlive), c.Species, c.Type, c.Gender, c.Image,
		c.Location.ID, c.Location.Name, c.Origin.ID, c.Origin.Name, episodes,
		c.Created.Format(time.RFC3339Nano), c.Updated.Format(time.RFC3339Nano),
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *SQLiteStore) UpdateCharacter(ctx context.Context, c *model.Character) error {
	s.logger.Debug("sql", "op", "update", "table", "characters", "id", c.CharacterID)

	episodes, err := marshalIDs(c.Episodes)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE characters SET name=?, is_alive=?, species=?, type=?, gender=?, image=?,
		 location_id=?, location_name=?, origin_id=?, origin_name=?, episodes=?, updated_at=?
		 WHERE character_id=?`,
		c.Name, boolToInt(c.IsAlive), c.Species, c.Type, c.Gender, c.Image,
		c.Location.ID, c.Location.Name, c.Origin.ID, c.Origin.Name, episodes,
		c.Updated.Format(time.RFC3339Nano), c.CharacterID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("character %d: %w", c.CharacterID, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteCharacter(ctx context.Context, id int) error {
	s.logger.Debug("sql", "op", "delete", "table", "characters", "id", id)

	result, err := s.db.ExecContext(ctx, `DELETE FROM characters WHERE character_id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("character %d: %w", id, ErrNotFound)
	}
	return nil
}

func scanCharacter(row scanner) (*model.Character, error) {
	var c model.Character
	var alive int
	var episodes, createdAt, updatedAt string

	err := row.Scan(&c.CharacterID, &c.Name, &alive, &c.Species, &c.Type, &c.Gender, &c.Image,
		&c.Location.ID, &c.Location.Name, &c.Origin.ID, &c.Origin.Name, &episodes, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.IsAlive = alive != 0
	if err := json.Unmarshal([]byte(episodes), &c.Episodes); err != nil {
		return nil, fmt.Errorf("unmarshal episodes: %w", err)
	}
	c.Created, _ = time.Parse(time.RFC3339Nano, createdAt)
	c.Updated, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &c, nil
}

func scanCharacters(rows *sql.Rows) ([]*model.Character, error) {
	var chars []*model.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		chars = append(chars, c)
	}
	return chars, rows.Err()
}

// --- Episode operations ---

const episodeColumns = `episode_id, name, air_date, code, characters, created_at, updated_at`

func (s *SQLiteStore) ListEpisodes(ctx context.Context, f model.EpisodeFilter, opts model.ListOptions) ([]*model.Episode, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "episodes", "season", f.Season)
	opts.Clamp()

	w := &where{}
	if !isAll(f.Season) {
		w.add(`code LIKE ? ESCAPE '\'`, likeEscaper.Replace(f.Season)+"%")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM episodes`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args := append(append([]any{}, w.args...), opts.Limit, opts.Offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+episodeColumns+` FROM episodes`+w.String()+` ORDER BY episode_id LIMIT ? OFFSET ?`,
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var episodes []*model.Episode
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, 0, err
		}
		episodes = append(episodes, e)
	}
	return episodes, total, rows.Err()
}

// ListSeasons returns the distinct "S##" prefixes of all episode codes, sorted.
func (s *SQLiteStore) ListSeasons(ctx context.Context) ([]string, error) {
	return s.distinct(ctx,
		`SELECT DISTINCT substr(code, 1, 3) FROM episodes WHERE code GLOB 'S[0-9][0-9]*' ORDER BY 1`)
}

func (s *SQLiteStore) GetEpisode(ctx context.Context, id int) (*model.Episode, error) {
	s.logger.Debug("sql", "op", "select", "table", "episodes", "id", id)
	return scanEpisode(s.db.QueryRowContext(ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE episode_id = ?`, id))
}

func (s *SQLiteStore) CreateEpisode(ctx context.Context, e *model.Episode) error {
	s.logger.Debug("sql", "op", "insert", "table", "episodes", "id", e.EpisodeID)

	chars, err := marshalIDs(e.Characters)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO episodes (`+episodeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.EpisodeID, e.Name, e.AirDate, e.Code, chars,
		e.Created.Format(time.RFC3339Nano), e.Updated.Format(time.RFC3339Nano),
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *SQLiteStore) UpdateEpisode(ctx context.Context, e *model.Episode) error {
	s.logger.Debug("sql", "op", "update", "table", "episodes", "id", e.EpisodeID)

	chars, err := marshalIDs(e.Characters)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE episodes SET name=?, air_date=?, code=?, characters=?, updated_at=? WHERE episode_id=?`,
		e.Name, e.AirDate, e.Code, chars, e.Updated.Format(time.RFC3339Nano), e.EpisodeID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("episode %d: %w", e.EpisodeID, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteEpisode(ctx context.Context, id int) error {
	s.logger.Debug("sql", "op", "delete", "table", "episodes", "id", id)

	result, err := s.db.ExecContext(ctx, `DELETE FROM episodes WHERE episode_id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("episode %d: %w", id, ErrNotFound)
	}
	return nil
}

func scanEpisode(row scanner) (*model.Episode, error) {
	var e model.Episode
	var chars, createdAt, updatedAt string

	err := row.Scan(&e.EpisodeID, &e.Name, &e.AirDate, &e.Code, &chars, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(chars), &e.Characters); err != nil {
		return nil, fmt.Errorf("unmarshal characters: %w", err)
	}
	e.Created, _ = time.Parse(time.RFC3339Nano, createdAt)
	e.Updated, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &e, nil
}

// --- Location operations ---

const locationColumns = `location_id, name, type, dimension, residents, lat, lng, created_at, updated_at`

func (s *SQLiteStore) ListLocations(ctx context.Context, f model.LocationFilter, opts model.ListOptions) ([]*model.Location, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "locations", "type", f.Type, "dimension", f.Dimension)
	opts.Clamp()

	w := &where{}
	if !isAll(f.Type) {
		w.add(`type = ?`, f.Type)
	}
	if !isAll(f.Dimension) {
		w.add(`dimension = ?`, f.Dimension)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM locations`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args := append(append([]any{}, w.args...), opts.Limit, opts.Offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+locationColumns+` FROM locations`+w.String()+` ORDER BY location_id LIMIT ? OFFSET ?`,
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var locations []*model.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, 0, err
		}
		locations = append(locations, l)
	}
	return locations, total, rows.Err()
}

func (s *SQLiteStore) ListLocationTypes(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT type FROM locations ORDER BY type`)
}

func (s *SQLiteStore) ListLocationDimensions(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT dimension FROM locations ORDER BY dimension`)
}

// ListLocationRefs returns every location's id and name, ordered by name.
func (s *SQLiteStore) ListLocationRefs(ctx context.Context) ([]model.PlaceRef, error) {
	s.logger.Debug("sql", "op", "list_refs", "table", "locations")

	rows, err := s.db.QueryContext(ctx, `SELECT location_id, name FROM locations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []model.PlaceRef
	for rows.Next() {
		var r model.PlaceRef
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

func (s *SQLiteStore) GetLocation(ctx context.Context, id int) (*model.Location, error) {
	s.logger.Debug("sql", "op", "select", "table", "locations", "id", id)
	return scanLocation(s.db.QueryRowContext(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE location_id = ?`, id))
}

func (s *SQLiteStore) CreateLocation(ctx context.Context, l *model.Location) error {
	s.logger.Debug("sql", "op", "insert", "table", "locations", "id", l.LocationID)

	residents, err := marshalIDs(l.Residents)
	if err != nil {
		return err
	}
	lat, lng := coordArgs(l.Coordinates)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO locations (`+locationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.LocationID, l.Name, l.Type, l.Dimension, residents, lat, lng,
		l.Created.Format(time.RFC3339Nano), l.Updated.Format(time.RFC3339Nano),
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *SQLiteStore) UpdateLocation(ctx context.Context, l *model.Location) error {
	s.logger.Debug("sql", "op", "update", "table", "locations", "id", l.LocationID)

	residents, err := marshalIDs(l.Residents)
	if err != nil {
		return err
	}
	lat, lng := coordArgs(l.Coordinates)
	result, err := s.db.ExecContext(ctx,
		`UPDATE locations SET name=?, type=?, dimension=?, residents=?, lat=?, lng=?, updated_at=?
		 WHERE location_id=?`,
		l.Name, l.Type, l.Dimension, residents, lat, lng, l.Updated.Format(time.RFC3339Nano), l.LocationID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("location %d: %w", l.LocationID, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteLocation(ctx context.Context, id int) error {
	s.logger.Debug("sql", "op", "delete", "table", "locations", "id", id)

	result, err := s.db.ExecContext(ctx, `DELETE FROM locations WHERE location_id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("location %d: %w", id, ErrNotFound)
	}
	return nil
}

func coordArgs(c *model.Coordinates) (any, any) {
	if c == nil {
		return nil, nil
	}
	return c.Lat, c.Lng
}

func scanLocation(row scanner) (*model.Location, error) {
	var l model.Location
	var residents, createdAt, updatedAt string
	var lat, lng sql.NullFloat64

	err := row.Scan(&l.LocationID, &l.Name, &l.Type, &l.Dimension, &residents, &lat, &lng, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(residents), &l.Residents); err != nil {
		return nil, fmt.Errorf("unmarshal residents: %w", err)
	}
	if lat.Valid && lng.Valid {
		l.Coordinates = &model.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	l.Created, _ = time.Parse(time.RFC3339Nano, createdAt)
	l.Updated, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &l, nil
}

func (s *SQLiteStore) distinct(ctx context.Context, query string) ([]string, error) {
	s.logger.Debug("sql", "op", "distinct", "query", query)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
