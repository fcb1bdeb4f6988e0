// Package database provides the SQLite connection and schema migrations
// backing the datapoint catalog.
//
// This package manages:
//   - Connection setup with WAL mode and a busy timeout
//   - Timestamped up/down migrations tracked in schema_migrations
//   - STRICT tables for type safety
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with a
// matching .down.sql. Each migration runs in its own transaction.
package database
