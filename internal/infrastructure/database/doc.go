// Package database provides the SQLite connection used for light state history.
//
// Open creates the file and its directory, applies WAL mode and a busy
// timeout, and limits the pool to a single connection. Migrate applies the
// versioned SQL files registered in MigrationsFS; each migration runs in its
// own transaction and is recorded in schema_migrations.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
