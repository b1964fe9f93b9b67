package store

import (
	"context"
	"database/sql"
	"strings"
)

// schema contains the DDL for all showrunner tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                     TEXT PRIMARY KEY,
		username               TEXT NOT NULL UNIQUE,
		email                  TEXT NOT NULL UNIQUE COLLATE NOCASE,
		password_hash          TEXT NOT NULL,
		role                   TEXT NOT NULL DEFAULT 'user',
		is_blocked             INTEGER NOT NULL DEFAULT 0,
		require_password_reset INTEGER NOT NULL DEFAULT 0,
		reset_token_hash       TEXT NOT NULL DEFAULT '',
		reset_expires_at       INTEGER,
		created_at             TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id                  TEXT PRIMARY KEY,
		user_id             TEXT NOT NULL,
		username            TEXT NOT NULL DEFAULT '',
		role                TEXT NOT NULL DEFAULT 'user',
		must_reset_password INTEGER NOT NULL DEFAULT 0,
		reset_token         TEXT NOT NULL DEFAULT '',
		flash_success       TEXT NOT NULL DEFAULT '',
		flash_error         TEXT NOT NULL DEFAULT '',
		created_at          INTEGER NOT NULL,
		expires_at          INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS characters (
		character_id  INTEGER PRIMARY KEY,
		name          TEXT NOT NULL,
		is_alive      INTEGER NOT NULL DEFAULT 1,
		species       TEXT NOT NULL DEFAULT '',
		type          TEXT NOT NULL DEFAULT '',
		gender        TEXT NOT NULL DEFAULT 'Unknown',
		image         TEXT NOT NULL DEFAULT '',
		location_id   INTEGER NOT NULL DEFAULT 0,
		location_name TEXT NOT NULL DEFAULT 'Unknown',
		origin_id     INTEGER NOT NULL DEFAULT 0,
		origin_name   TEXT NOT NULL DEFAULT 'Unknown',
		episodes      TEXT NOT NULL DEFAULT '[]',
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS episodes (
		episode_id INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		air_date   TEXT NOT NULL,
		code       TEXT NOT NULL,
		characters TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS locations (
		location_id INTEGER PRIMARY KEY,
		name        TEXT NOT NULL,
		type        TEXT NOT NULL DEFAULT 'Unknown',
		dimension   TEXT NOT NULL DEFAULT 'Unknown',
		residents   TEXT NOT NULL DEFAULT '[]',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_users_reset_token ON users(reset_token_hash) WHERE reset_token_hash != ''`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_episodes_code ON episodes(code)`,
	`CREATE INDEX IF NOT EXISTS idx_characters_name ON characters(name)`,
}

type alterMigration struct {
	table    string
	column   string
	alterSQL string
	indexSQL string
}

// alterStatements are applied after schema for databases created by older releases.
var alterStatements = []alterMigration{
	{
		table:    "users",
		column:   "last_login_at",
		alterSQL: "ALTER TABLE users ADD COLUMN last_login_at TEXT",
	},
	{
		table:    "locations",
		column:   "lat",
		alterSQL: "ALTER TABLE locations ADD COLUMN lat REAL",
	},
	{
		table:    "locations",
		column:   "lng",
		alterSQL: "ALTER TABLE locations ADD COLUMN lng REAL",
	},
}

// migrate executes all schema DDL statements, alter migrations, and post-migration indexes.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	for _, alter := range alterStatements {
		if err := addColumnIfNotExists(ctx, db, alter.table, alter.column, alter.alterSQL); err != nil {
			return err
		}
		if alter.indexSQL != "" {
			if _, err := db.ExecContext(ctx, alter.indexSQL); err != nil {
				return err
			}
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(ctx context.Context, db *sql.DB, table, column, alterSQL string) error {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue *string
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if strings.EqualFold(name, column) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	_, err = db.ExecContext(ctx, alterSQL)
	return err
}
