package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/franz/livelog/internal/util"
)

const liveColumns = `id, liveName, liveDate,
	COALESCE(venueName, ''), COALESCE(artistName, ''), COALESCE(imagePath, ''),
	COALESCE(tags, ''), COALESCE(rating, 0), COALESCE(memo, '')`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLive(row rowScanner) (*Live, error) {
	l := &Live{}
	err := row.Scan(&l.ID, &l.Name, &l.Date,
		&l.VenueName, &l.ArtistName, &l.ImagePath,
		&l.Tags, &l.Rating, &l.Memo)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func queryLives(ctx context.Context, q querier, query string, args ...interface{}) ([]*Live, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lives := make([]*Live, 0)
	for rows.Next() {
		l, err := scanLive(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan live: %w", err)
		}
		lives = append(lives, l)
	}
	return lives, rows.Err()
}

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// nullable stores empty strings as NULL
func nullable(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func clampRating(r int) int {
	switch {
	case r < 0:
		return 0
	case r > 5:
		return 5
	}
	return r
}

// nullableRating stores "unrated" as NULL
func nullableRating(r int) interface{} {
	r = clampRating(r)
	if r == 0 {
		return nil
	}
	return r
}

func validateLive(l *Live) error {
	if l == nil {
		return fmt.Errorf("%w: live is nil", util.ErrInvalidInput)
	}
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: liveName is required", util.ErrInvalidInput)
	}
	date := strings.TrimSpace(l.Date)
	if date == "" {
		return fmt.Errorf("%w: liveDate is required", util.ErrInvalidInput)
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w: liveDate %q is not YYYY-MM-DD", util.ErrInvalidInput, l.Date)
	}
	return nil
}

func insertLive(ctx context.Context, q querier, l *Live) (int64, error) {
	result, err := q.ExecContext(ctx, `
		INSERT INTO lives (liveName, liveDate, venueName, artistName, imagePath, tags, rating, memo)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, strings.TrimSpace(l.Name), strings.TrimSpace(l.Date),
		nullable(l.VenueName), nullable(l.ArtistName), nullable(l.ImagePath),
		nullable(NormalizeTags(l.Tags)), nullableRating(l.Rating), nullable(l.Memo))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// CreateLive inserts a new live and returns its id.
// Name and date are required; the id on l is ignored.
func (s *Store) CreateLive(ctx context.Context, l *Live) (int64, error) {
	if err := validateLive(l); err != nil {
		return 0, err
	}

	id, err := insertLive(ctx, s.db, l)
	if err != nil {
		return 0, fmt.Errorf("failed to insert live: %w", err)
	}
	return id, nil
}

// GetLive returns the live with the given id, or nil if none exists
func (s *Store) GetLive(ctx context.Context, id int64) (*Live, error) {
	l, err := scanLive(s.db.QueryRowContext(ctx,
		"SELECT "+liveColumns+" FROM lives WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get live: %w", err)
	}
	return l, nil
}

// UpdateLive overwrites every field of the live identified by l.ID
func (s *Store) UpdateLive(ctx context.Context, l *Live) error {
	if err := validateLive(l); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE lives
		SET liveName = ?, liveDate = ?, venueName = ?, artistName = ?,
		    imagePath = ?, tags = ?, rating = ?, memo = ?
		WHERE id = ?
	`, strings.TrimSpace(l.Name), strings.TrimSpace(l.Date),
		nullable(l.VenueName), nullable(l.ArtistName), nullable(l.ImagePath),
		nullable(NormalizeTags(l.Tags)), nullableRating(l.Rating), nullable(l.Memo),
		l.ID)
	if err != nil {
		return fmt.Errorf("failed to update live: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update live: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("live %d: %w", l.ID, util.ErrNotFound)
	}
	return nil
}

// DeleteLive removes a live; its setlist goes with it via ON DELETE CASCADE
func (s *Store) DeleteLive(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM lives WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete live: %w", err)
	}
	return nil
}

// ListLives returns the lives matching opts, newest first unless opts sorts otherwise
func (s *Store) ListLives(ctx context.Context, opts ListOptions) ([]*Live, error) {
	query, args := buildListQuery(opts)
	util.DebugLog("ListLives: %s %v", query, args)

	lives, err := queryLives(ctx, s.db, query, args...)
	if err != nil {
		util.ErrorLog("Failed to list lives: %v", err)
		return []*Live{}, fmt.Errorf("failed to list lives: %w", err)
	}
	return lives, nil
}

// CountLives returns the number of stored lives
func (s *Store) CountLives(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM lives").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count lives: %w", err)
	}
	return count, nil
}

// LivesByVenue returns every live at exactly this venue, newest first
func (s *Store) LivesByVenue(ctx context.Context, venueName string) ([]*Live, error) {
	lives, err := queryLives(ctx, s.db,
		"SELECT "+liveColumns+" FROM lives WHERE venueName = ? ORDER BY liveDate DESC, id DESC",
		venueName)
	if err != nil {
		util.ErrorLog("Failed to list lives for venue %q: %v", venueName, err)
		return []*Live{}, fmt.Errorf("failed to list lives by venue: %w", err)
	}
	return lives, nil
}

// LivesInMonth returns the lives of one calendar month in date order
func (s *Store) LivesInMonth(ctx context.Context, year, month int) ([]*Live, error) {
	prefix := fmt.Sprintf("%04d-%02d", year, month)
	lives, err := queryLives(ctx, s.db,
		"SELECT "+liveColumns+" FROM lives WHERE strftime('%Y-%m', liveDate) = ? ORDER BY liveDate ASC, id ASC",
		prefix)
	if err != nil {
		util.ErrorLog("Failed to list lives for %s: %v", prefix, err)
		return []*Live{}, fmt.Errorf("failed to list lives by month: %w", err)
	}
	return lives, nil
}

func (s *Store) distinctStrings(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT %[1]s FROM lives
		WHERE %[1]s IS NOT NULL AND %[1]s != ''
		ORDER BY %[1]s COLLATE %[2]s ASC
	`, column, CollationName)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// DistinctArtists returns every non-empty artist name, collated ascending
func (s *Store) DistinctArtists(ctx context.Context) ([]string, error) {
	values, err := s.distinctStrings(ctx, "artistName")
	if err != nil {
		util.ErrorLog("Failed to load artists: %v", err)
		return []string{}, fmt.Errorf("failed to load artists: %w", err)
	}
	return values, nil
}

// DistinctVenues returns every non-empty venue name, collated ascending
func (s *Store) DistinctVenues(ctx context.Context) ([]string, error) {
	values, err := s.distinctStrings(ctx, "venueName")
	if err != nil {
		util.ErrorLog("Failed to load venues: %v", err)
		return []string{}, fmt.Errorf("failed to load venues: %w", err)
	}
	return values, nil
}

// DistinctTags splits every live's tags, dedupes the tokens and sorts them
func (s *Store) DistinctTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tags FROM lives WHERE tags IS NOT NULL AND tags != ''`)
	if err != nil {
		util.ErrorLog("Failed to load tags: %v", err)
		return []string{}, fmt.Errorf("failed to load tags: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return []string{}, fmt.Errorf("failed to scan tags: %w", err)
		}
		for _, tag := range SplitTags(tags) {
			seen[tag] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return []string{}, fmt.Errorf("failed to load tags: %w", err)
	}

	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool {
		return CompareNames(out[i], out[j]) < 0
	})
	return out, nil
}

// SongsByArtist returns the distinct songs (headers excluded) this artist
// has played across all recorded lives
func (s *Store) SongsByArtist(ctx context.Context, artistName string) ([]string, error) {
	if strings.TrimSpace(artistName) == "" {
		return []string{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT si.songName
		FROM lives l
		INNER JOIN setlist_items si ON l.id = si.liveId
		WHERE l.artistName = ? AND si.type = 'song'
		ORDER BY si.songName COLLATE `+CollationName+` ASC
	`, artistName)
	if err != nil {
		util.ErrorLog("Failed to load songs for %q: %v", artistName, err)
		return []string{}, fmt.Errorf("failed to load songs by artist: %w", err)
	}
	defer rows.Close()

	songs := make([]string, 0)
	for rows.Next() {
		var song string
		if err := rows.Scan(&song); err != nil {
			return []string{}, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return []string{}, fmt.Errorf("failed to load songs by artist: %w", err)
	}
	return songs, nil
}
