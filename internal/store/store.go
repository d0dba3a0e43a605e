package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Store is the process-wide handle to the live journal database.
// It is opened once at startup and passed to every caller.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// OpenOptions holds options for opening a database
type OpenOptions struct {
	BusyTimeout time.Duration // How long a writer waits on a locked database
	SkipInit    bool          // Do not create tables or run migrations
}

// Open opens or creates a SQLite database at the given path with default options
func Open(path string) (*Store, error) {
	return OpenWithOptions(path, nil)
}

// OpenWithOptions opens or creates a SQLite database with custom options
func OpenWithOptions(path string, opts *OpenOptions) (*Store, error) {
	if opts == nil {
		opts = &OpenOptions{}
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = 5 * time.Second
	}

	db, err := sql.Open("sqlite", buildDSN(path, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := New(db)

	if !opts.SkipInit {
		if err := store.Initialize(context.Background()); err != nil {
			db.Close()
			return nil, fmt.Errorf("initialization failed: %w", err)
		}
	}

	return store, nil
}

// buildDSN enables foreign keys (cascading setlist deletes) and WAL journaling
// on every connection the pool opens.
func buildDSN(path string, opts *OpenOptions) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", opts.BusyTimeout.Milliseconds()))
	return "file:" + path + "?" + q.Encode()
}

// New wraps an already opened database. The caller owns initialization.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// SetClock overrides the time source used for "today" (duplication)
func (s *Store) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SQLiteVersion returns the SQLite version string
func SQLiteVersion() string {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return ""
	}
	defer db.Close()

	var version string
	err = db.QueryRow("SELECT sqlite_version()").Scan(&version)
	if err != nil {
		return ""
	}
	return version
}

// CheckIntegrity runs PRAGMA integrity_check on the database
func (s *Store) CheckIntegrity(ctx context.Context) error {
	var result string
	err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result)
	if err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}

	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}

	return nil
}

// ForeignKeysEnabled reports whether the connection enforces foreign keys
func (s *Store) ForeignKeysEnabled(ctx context.Context) (bool, error) {
	var on int
	if err := s.db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&on); err != nil {
		return false, fmt.Errorf("failed to read foreign_keys pragma: %w", err)
	}
	return on == 1, nil
}

// JournalMode returns the active journal mode (wal for file databases)
func (s *Store) JournalMode(ctx context.Context) (string, error) {
	var mode string
	if err := s.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		return "", fmt.Errorf("failed to read journal_mode pragma: %w", err)
	}
	return mode, nil
}

// Transaction executes a function within a transaction.
// fn must only use tx: the pool holds a single connection.
func (s *Store) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Live represents one attended concert
type Live struct {
	ID         int64  `json:"id"`
	Name       string `json:"liveName"`
	Date       string `json:"liveDate"` // YYYY-MM-DD
	VenueName  string `json:"venueName,omitempty"`
	ArtistName string `json:"artistName,omitempty"`
	ImagePath  string `json:"imagePath,omitempty"`
	Tags       string `json:"tags,omitempty"` // comma-separated
	Rating     int    `json:"rating"`         // 0 = unrated, 1..5
	Memo       string `json:"memo,omitempty"`
}

// ItemType distinguishes songs from section headers in a setlist
type ItemType string

const (
	ItemSong   ItemType = "song"
	ItemHeader ItemType = "header"
)

// SetlistItem is one persisted line of a live's setlist
type SetlistItem struct {
	ID          int64    `json:"id"`
	LiveID      int64    `json:"liveId"`
	TrackNumber int      `json:"trackNumber"`
	SongName    string   `json:"songName"`
	Memo        string   `json:"memo,omitempty"`
	Type        ItemType `json:"type"`
}

// SetlistEntry is caller input for a setlist save. TrackNumber is ignored
// by ReplaceSetlist, which numbers entries by position.
type SetlistEntry struct {
	TrackNumber int      `json:"trackNumber,omitempty"`
	SongName    string   `json:"songName"`
	Memo        string   `json:"memo,omitempty"`
	Type        ItemType `json:"type,omitempty"`
}

// RankingItem is one row of a count-based ranking
type RankingItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// StatsSummary holds the headline numbers of the journal
type StatsSummary struct {
	TotalLives    int     `json:"totalLives"`
	AverageRating float64 `json:"averageRating"`
}

// YearlyActivity is the number of lives attended in one year
type YearlyActivity struct {
	Year  string `json:"year"`
	Count int    `json:"count"`
}

// MonthlyActivity is the number of lives attended in one month ("01".."12")
type MonthlyActivity struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// SongStat is how often one song was heard
type SongStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
