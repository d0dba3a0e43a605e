package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/franz/livelog/internal/util"
)

const schemaTables = `
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS lives (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  liveName TEXT NOT NULL,
  liveDate TEXT NOT NULL,
  venueName TEXT,
  artistName TEXT,
  imagePath TEXT,
  tags TEXT,
  rating INTEGER,
  memo TEXT
);

CREATE TABLE IF NOT EXISTS setlist_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  liveId INTEGER NOT NULL REFERENCES lives(id) ON DELETE CASCADE,
  trackNumber INTEGER NOT NULL,
  songName TEXT NOT NULL,
  memo TEXT,
  type TEXT NOT NULL DEFAULT 'song'
);
`

const schemaIndexes = `
CREATE INDEX IF NOT EXISTS idx_setlist_items_live_track ON setlist_items(liveId, trackNumber);
CREATE INDEX IF NOT EXISTS idx_lives_date ON lives(liveDate);
CREATE INDEX IF NOT EXISTS idx_lives_artist ON lives(artistName);
`

// columnMigration is one additive, forward-only column change
type columnMigration struct {
	version    int
	table      string
	column     string
	definition string
}

// Columns added after the first release. A database written by an older
// build may lack any of them; each one is applied only when introspection
// shows it missing.
var columnMigrations = []columnMigration{
	{1, "lives", "rating", "INTEGER"},
	{2, "lives", "memo", "TEXT"},
	{3, "lives", "tags", "TEXT"},
	{4, "lives", "imagePath", "TEXT"},
	{5, "setlist_items", "memo", "TEXT"},
	{6, "setlist_items", "type", "TEXT NOT NULL DEFAULT 'song'"},
}

// currentSchemaVersion is the version recorded after every migration ran
var currentSchemaVersion = columnMigrations[len(columnMigrations)-1].version

// Initialize creates the tables and applies additive migrations.
// It is idempotent and safe to call on every start. Failing to create
// the tables is fatal; a failing column migration is logged and skipped.
func (s *Store) Initialize(ctx context.Context) error {
	if err := s.renameLegacySetlists(ctx); err != nil {
		util.WarnLog("Legacy setlist table rename skipped: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, schemaTables); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	for _, m := range columnMigrations {
		if err := s.applyColumnMigration(ctx, m); err != nil {
			util.WarnLog("Migration %d (%s.%s) failed: %v", m.version, m.table, m.column, err)
		}
	}

	if _, err := s.db.ExecContext(ctx, schemaIndexes); err != nil {
		util.WarnLog("Index creation failed: %v", err)
	}

	util.DebugLog("Database initialized (schema version %d)", currentSchemaVersion)
	return nil
}

// renameLegacySetlists moves the older "setlists" table to "setlist_items"
func (s *Store) renameLegacySetlists(ctx context.Context) error {
	legacy, err := s.tableExists(ctx, "setlists")
	if err != nil || !legacy {
		return err
	}
	current, err := s.tableExists(ctx, "setlist_items")
	if err != nil || current {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `ALTER TABLE setlists RENAME TO setlist_items`); err != nil {
		return fmt.Errorf("failed to rename setlists: %w", err)
	}
	util.InfoLog("Renamed legacy table setlists to setlist_items")
	return nil
}

func (s *Store) applyColumnMigration(ctx context.Context, m columnMigration) error {
	return s.Transaction(ctx, func(tx *sql.Tx) error {
		var applied int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM schema_version WHERE version = ?", m.version).Scan(&applied)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		if applied > 0 {
			return nil
		}

		exists, err := columnExists(ctx, tx, m.table, m.column)
		if err != nil {
			return err
		}
		if !exists {
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.table, m.column, m.definition)
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to add column: %w", err)
			}
			util.InfoLog("Added column %s.%s", m.table, m.column)
		}

		_, err = tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", m.version)
		return err
	})
}

// SchemaVersion returns the highest applied migration version
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	exists, err := s.tableExists(ctx, "schema_version")
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// CurrentSchemaVersion is the version a fully migrated database reports
func CurrentSchemaVersion() int {
	return currentSchemaVersion
}

func (s *Store) tableExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name=?
	`, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to inspect table %s: %w", name, err)
	}
	return count > 0, nil
}

// columnExists inspects PRAGMA table_info; table names come from
// columnMigrations only, never from input.
func columnExists(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, fmt.Errorf("failed to scan column info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
