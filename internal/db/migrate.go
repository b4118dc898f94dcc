package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const migrationTable = "schema_migrations"

// migration is one named, append-only schema step. Names are recorded in
// schema_migrations so each step runs at most once per database.
type migration struct {
	name string
	stmt string
}

var migrations = []migration{
	{"0001_tasks", `CREATE TABLE IF NOT EXISTS tasks (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		name       TEXT NOT NULL,
		domain     TEXT NOT NULL DEFAULT '',
		subdomain  TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`},

	{"0002_tasks_user_index", `CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id)`},

	// Timestamps are fixed-width UTC text, so lexical comparison in the
	// CHECK and in range queries matches chronological order.
	{"0003_sessions", `CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		task_id     TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		start_time  TEXT NOT NULL,
		end_time    TEXT NOT NULL,
		duration    INTEGER CHECK(duration IS NULL OR duration >= 0),
		description TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		CHECK(end_time > start_time)
	)`},

	{"0004_sessions_user_start_index", `CREATE INDEX IF NOT EXISTS idx_sessions_user_start ON sessions(user_id, start_time)`},
	{"0005_sessions_task_index", `CREATE INDEX IF NOT EXISTS idx_sessions_task ON sessions(task_id)`},
}

// Migrate runs all pending schema migrations, each in its own transaction.
func Migrate(db *sql.DB) error {
	ctx := context.Background()

	createSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		name       TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`, migrationTable)
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("ensuring migration table: %w", err)
	}

	for _, m := range migrations {
		applied, err := isApplied(ctx, db, m.name)
		if err != nil {
			return fmt.Errorf("checking migration %s: %w", m.name, err)
		}
		if applied {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
	}
	return nil
}

func apply(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting migration transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, m.stmt); err != nil {
		// Tolerate idempotent DDL on databases created before the
		// migration table existed.
		if !isAlreadyExists(err) {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO "+migrationTable+" (name, applied_at) VALUES (?, ?)",
		m.name, time.Now().UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}
	committed = true
	return nil
}

func isApplied(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var found int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM "+migrationTable+" WHERE name = ?", name).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func isAlreadyExists(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate column name")
}
