package database

import (
	"context"
	"testing"
	"testing/fstest"
	"time"
)

// useMigrations swaps MigrationsFS for the duration of a test.
func useMigrations(t *testing.T, files fstest.MapFS) {
	t.Helper()
	origFS, origDir := MigrationsFS, MigrationsDir
	MigrationsFS, MigrationsDir = files, "."
	t.Cleanup(func() {
		MigrationsFS, MigrationsDir = origFS, origDir
	})
}

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"20260101_000000_lights.up.sql": {Data: []byte(
			"CREATE TABLE test_lights (id TEXT PRIMARY KEY) STRICT;")},
		"20260101_000000_lights.down.sql": {Data: []byte(
			"DROP TABLE test_lights;")},
		"20260102_000000_history.up.sql": {Data: []byte(
			"CREATE TABLE test_history (id INTEGER PRIMARY KEY, light_id TEXT NOT NULL) STRICT;")},
		"20260102_000000_history.down.sql": {Data: []byte(
			"DROP TABLE test_history;")},
		"README.md": {Data: []byte("not a migration")},
	}
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n)
	if err != nil {
		t.Fatalf("querying sqlite_master: %v", err)
	}
	return n == 1
}

func TestMigrate(t *testing.T) {
	useMigrations(t, testMigrations())
	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	for _, table := range []string{"test_lights", "test_history"} {
		if !tableExists(t, db, table) {
			t.Errorf("table %s not created", table)
		}
	}

	applied, pending, err := db.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 2 || len(pending) != 0 {
		t.Errorf("applied=%d pending=%d, want 2 and 0", len(applied), len(pending))
	}
	if applied[0].Version != "20260101_000000" {
		t.Errorf("first applied = %q, want 20260101_000000", applied[0].Version)
	}

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	useMigrations(t, testMigrations())
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}

	if tableExists(t, db, "test_history") {
		t.Error("test_history still exists after MigrateDown")
	}
	if !tableExists(t, db, "test_lights") {
		t.Error("test_lights should survive a single MigrateDown")
	}

	_, pending, err := db.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(pending) != 1 || pending[0].Name != "history" {
		t.Errorf("pending = %+v, want the history migration", pending)
	}
}

func TestMigrateDown_NothingApplied(t *testing.T) {
	useMigrations(t, testMigrations())
	db := openTestDB(t)

	if err := db.MigrateDown(context.Background()); err != nil {
		t.Errorf("MigrateDown() on empty database error = %v", err)
	}
}

func TestMigrate_FailureRollsBack(t *testing.T) {
	useMigrations(t, fstest.MapFS{
		"20260101_000000_ok.up.sql":     {Data: []byte("CREATE TABLE ok_table (id INTEGER) STRICT;")},
		"20260102_000000_broken.up.sql": {Data: []byte("CREATE TABLE half (id INTEGER); NOT VALID SQL;")},
	})
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err == nil {
		t.Fatal("Migrate() expected error for broken migration, got nil")
	}
	if !tableExists(t, db, "ok_table") {
		t.Error("earlier migration should remain applied")
	}

	applied, pending, err := db.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 1 || len(pending) != 1 {
		t.Errorf("applied=%d pending=%d, want 1 and 1", len(applied), len(pending))
	}
}

func TestMigrate_NoFilesystem(t *testing.T) {
	origFS := MigrationsFS
	MigrationsFS = nil
	t.Cleanup(func() { MigrationsFS = origFS })

	db := openTestDB(t)
	if err := db.Migrate(context.Background()); err != nil {
		t.Errorf("Migrate() with no migrations error = %v", err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename string
		version  string
		name     string
		up       bool
		ok       bool
	}{
		{"20260301_120000_state_history.up.sql", "20260301_120000", "state_history", true, true},
		{"20260301_120000_state_history.down.sql", "20260301_120000", "state_history", false, true},
		{"20260301_120000.up.sql", "20260301_120000", "20260301_120000", true, true},
		{"20260301.up.sql", "", "", false, false},
		{"20260301_120000_x.sql", "", "", false, false},
		{"notes.txt", "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, up, ok := parseMigrationFilename(tt.filename)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if version != tt.version || name != tt.name || up != tt.up {
				t.Errorf("got (%q, %q, %v), want (%q, %q, %v)", version, name, up, tt.version, tt.name, tt.up)
			}
		})
	}
}
