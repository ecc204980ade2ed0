package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// schemaVersion is the latest migration; stored in PRAGMA user_version.
const schemaVersion = 2

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

// Migrate brings the schema up to schemaVersion. Each step is idempotent so
// databases created before versioning was introduced upgrade cleanly.
func (s *SQLiteDB) Migrate(ctx context.Context) error {
	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
			CREATE TABLE IF NOT EXISTS reports (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp TEXT,
				emergency_type TEXT,
				location TEXT
			);
		`
		if _, err := s.db.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("error creating reports table: %w", err)
		}
	}

	if version < 2 {
		// Legacy optional column; nothing reads or writes it.
		has, err := s.hasColumn(ctx, "reports", "details")
		if err != nil {
			return err
		}
		if !has {
			if _, err := s.db.ExecContext(ctx, `ALTER TABLE reports ADD COLUMN details TEXT`); err != nil {
				return fmt.Errorf("error adding details column: %w", err)
			}
		}
	}

	if version < schemaVersion {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("error setting schema version: %w", err)
		}
		slog.Info("database migrated", "from", version, "to", schemaVersion)
	}

	return nil
}

func (s *SQLiteDB) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("error reading schema version: %w", err)
	}
	return v, nil
}

func (s *SQLiteDB) hasColumn(ctx context.Context, table, column string) (bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return false, fmt.Errorf("error reading table info: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// EnsureParentDir creates the directory a database file lives in.
func EnsureParentDir(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
