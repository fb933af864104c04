package sqlitemigrate

import (
	"database/sql"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func newMigrationDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
	})
	return db
}

func migrationCount(t *testing.T, db *sql.DB) int64 {
	t.Helper()
	var count int64
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	return count
}

func hasTable(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var found string
	err := db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name = ?", name,
	).Scan(&found)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		t.Fatalf("lookup table %q: %v", name, err)
	}
	return true
}

func TestApplyMigrationsCreatesSchemaAndRecords(t *testing.T) {
	db := newMigrationDB(t)

	fsys := fstest.MapFS{
		"0001_games.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE games(id TEXT PRIMARY KEY, payload BLOB);"),
		},
	}
	if err := ApplyMigrations(db, fsys, ""); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	if got := migrationCount(t, db); got != 1 {
		t.Fatalf("expected 1 recorded migration, got %d", got)
	}
	if !hasTable(t, db, "games") {
		t.Fatal("expected games table after migration")
	}
}

func TestApplyMigrationsRunsInLexicalOrder(t *testing.T) {
	db := newMigrationDB(t)

	// 0002 references the table 0001 creates, so order is observable.
	fsys := fstest.MapFS{
		"0002_transfers.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE transfers(id INTEGER PRIMARY KEY, game_id TEXT REFERENCES games(id));"),
		},
		"0001_games.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE games(id TEXT PRIMARY KEY);"),
		},
	}
	if err := ApplyMigrations(db, fsys, ""); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if got := migrationCount(t, db); got != 2 {
		t.Fatalf("expected 2 recorded migrations, got %d", got)
	}
	if !hasTable(t, db, "transfers") {
		t.Fatal("expected transfers table after migration")
	}
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	db := newMigrationDB(t)

	fsys := fstest.MapFS{
		"0001_games.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE games(id TEXT PRIMARY KEY);"),
		},
	}
	if err := ApplyMigrations(db, fsys, ""); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := ApplyMigrations(db, fsys, ""); err != nil {
		t.Fatalf("replay should be a no-op: %v", err)
	}
	if got := migrationCount(t, db); got != 1 {
		t.Fatalf("expected 1 recorded migration after replay, got %d", got)
	}
}

func TestApplyMigrationsLeavesFailureUnrecorded(t *testing.T) {
	db := newMigrationDB(t)

	broken := fstest.MapFS{
		"0001_games.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREAT TABLE games(id TEXT);"),
		},
	}
	if err := ApplyMigrations(db, broken, ""); err == nil {
		t.Fatal("expected broken migration to fail")
	}
	if got := migrationCount(t, db); got != 0 {
		t.Fatalf("failed migration must not be recorded, got %d rows", got)
	}

	fixed := fstest.MapFS{
		"0001_games.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE games(id TEXT PRIMARY KEY);"),
		},
	}
	if err := ApplyMigrations(db, fixed, ""); err != nil {
		t.Fatalf("apply fixed migration: %v", err)
	}
	if got := migrationCount(t, db); got != 1 {
		t.Fatalf("expected fixed migration recorded, got %d rows", got)
	}
}

func TestApplyMigrationsScopesToRoot(t *testing.T) {
	db := newMigrationDB(t)

	fsys := fstest.MapFS{
		"migrations/0001_games.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE games(id TEXT PRIMARY KEY);"),
		},
		"fixtures/seed.sql": &fstest.MapFile{
			Data: []byte("-- +migrate Up\nCREATE TABLE leaked(id TEXT);"),
		},
	}
	if err := ApplyMigrations(db, fsys, "migrations"); err != nil {
		t.Fatalf("apply rooted migrations: %v", err)
	}

	var key string
	if err := db.QueryRow("SELECT name FROM schema_migrations LIMIT 1").Scan(&key); err != nil {
		t.Fatalf("read migration key: %v", err)
	}
	if key != "migrations/0001_games.sql" {
		t.Fatalf("expected root-qualified migration key, got %q", key)
	}
	if hasTable(t, db, "leaked") {
		t.Fatal("file outside the migration root must not run")
	}
}

func TestExtractUpMigrationStopsAtDownSection(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE games(id TEXT);\n-- +migrate Down\nDROP TABLE games;"
	up := strings.TrimSpace(ExtractUpMigration(content))
	if up != "CREATE TABLE games(id TEXT);" {
		t.Fatalf("unexpected up section: %q", up)
	}
}
