package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/franz/livelog/internal/util"
)

// sqlLimit maps "no limit" (<= 0) to SQLite's LIMIT -1
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func queryRanking(ctx context.Context, db *sql.DB, query string, args ...interface{}) ([]RankingItem, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]RankingItem, 0)
	for rows.Next() {
		var item RankingItem
		if err := rows.Scan(&item.Name, &item.Count); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) groupRanking(ctx context.Context, column string, limit int) ([]RankingItem, error) {
	query := fmt.Sprintf(`
		SELECT %[1]s, COUNT(*) AS cnt
		FROM lives
		WHERE %[1]s IS NOT NULL AND %[1]s != ''
		GROUP BY %[1]s
		ORDER BY cnt DESC, %[1]s COLLATE %[2]s ASC
		LIMIT ?
	`, column, CollationName)
	return queryRanking(ctx, s.db, query, sqlLimit(limit))
}

// ArtistRankings counts lives per artist, most attended first.
// A limit <= 0 returns every artist.
func (s *Store) ArtistRankings(ctx context.Context, limit int) ([]RankingItem, error) {
	items, err := s.groupRanking(ctx, "artistName", limit)
	if err != nil {
		util.ErrorLog("Failed to load artist rankings: %v", err)
		return []RankingItem{}, fmt.Errorf("failed to load artist rankings: %w", err)
	}
	return items, nil
}

// VenueRankings counts lives per venue, most visited first
func (s *Store) VenueRankings(ctx context.Context, limit int) ([]RankingItem, error) {
	items, err := s.groupRanking(ctx, "venueName", limit)
	if err != nil {
		util.ErrorLog("Failed to load venue rankings: %v", err)
		return []RankingItem{}, fmt.Errorf("failed to load venue rankings: %w", err)
	}
	return items, nil
}

// SongRankings counts performances per song across every live.
// Section headers never count.
func (s *Store) SongRankings(ctx context.Context, limit int) ([]RankingItem, error) {
	items, err := queryRanking(ctx, s.db, `
		SELECT songName, COUNT(*) AS cnt
		FROM setlist_items
		WHERE type = 'song'
		GROUP BY songName
		ORDER BY cnt DESC, songName COLLATE `+CollationName+` ASC
		LIMIT ?
	`, sqlLimit(limit))
	if err != nil {
		util.ErrorLog("Failed to load song rankings: %v", err)
		return []RankingItem{}, fmt.Errorf("failed to load song rankings: %w", err)
	}
	return items, nil
}

// SongRankingsByArtist is SongRankings restricted to one artist's lives.
// An empty artist returns an empty ranking without querying.
func (s *Store) SongRankingsByArtist(ctx context.Context, artistName string, limit int) ([]RankingItem, error) {
	if strings.TrimSpace(artistName) == "" {
		return []RankingItem{}, nil
	}

	items, err := queryRanking(ctx, s.db, `
		SELECT si.songName, COUNT(*) AS cnt
		FROM setlist_items si
		INNER JOIN lives l ON l.id = si.liveId
		WHERE l.artistName = ? AND si.type = 'song'
		GROUP BY si.songName
		ORDER BY cnt DESC, si.songName COLLATE `+CollationName+` ASC
		LIMIT ?
	`, artistName, sqlLimit(limit))
	if err != nil {
		util.ErrorLog("Failed to load song rankings for %q: %v", artistName, err)
		return []RankingItem{}, fmt.Errorf("failed to load song rankings by artist: %w", err)
	}
	return items, nil
}

// SongStatsForArtist returns per-song play counts for one artist,
// most played first and alphabetical among ties
func (s *Store) SongStatsForArtist(ctx context.Context, artistName string) ([]SongStat, error) {
	items, err := s.SongRankingsByArtist(ctx, artistName, 0)
	stats := make([]SongStat, len(items))
	for i, item := range items {
		stats[i] = SongStat{Name: item.Name, Count: item.Count}
	}
	return stats, err
}

// Summary returns the total number of lives and the mean rating over rated
// lives, rounded to one decimal. Unrated journals report 0.0.
func (s *Store) Summary(ctx context.Context) (StatsSummary, error) {
	var (
		total int
		avg   sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), AVG(CASE WHEN rating > 0 THEN rating END)
		FROM lives
	`).Scan(&total, &avg)
	if err != nil {
		util.ErrorLog("Failed to load summary: %v", err)
		return StatsSummary{}, fmt.Errorf("failed to load summary: %w", err)
	}

	summary := StatsSummary{TotalLives: total}
	if avg.Valid {
		summary.AverageRating = math.Round(avg.Float64*10) / 10
	}
	return summary, nil
}

// YearlyActivity counts lives per year, latest year first
func (s *Store) YearlyActivity(ctx context.Context) ([]YearlyActivity, error) {
	items, err := queryRanking(ctx, s.db, `
		SELECT strftime('%Y', liveDate) AS year, COUNT(*)
		FROM lives
		WHERE strftime('%Y', liveDate) IS NOT NULL
		GROUP BY year
		ORDER BY year DESC
	`)
	if err != nil {
		util.ErrorLog("Failed to load yearly activity: %v", err)
		return []YearlyActivity{}, fmt.Errorf("failed to load yearly activity: %w", err)
	}

	out := make([]YearlyActivity, len(items))
	for i, item := range items {
		out[i] = YearlyActivity{Year: item.Name, Count: item.Count}
	}
	return out, nil
}

// MonthlyActivity counts lives per two-digit month of one year, January
// first. Months without lives are omitted; callers fill the gaps.
func (s *Store) MonthlyActivity(ctx context.Context, year string) ([]MonthlyActivity, error) {
	items, err := queryRanking(ctx, s.db, `
		SELECT strftime('%m', liveDate) AS month, COUNT(*)
		FROM lives
		WHERE strftime('%Y', liveDate) = ?
		GROUP BY month
		ORDER BY month ASC
	`, strings.TrimSpace(year))
	if err != nil {
		util.ErrorLog("Failed to load monthly activity for %s: %v", year, err)
		return []MonthlyActivity{}, fmt.Errorf("failed to load monthly activity: %w", err)
	}

	out := make([]MonthlyActivity, len(items))
	for i, item := range items {
		out[i] = MonthlyActivity{Month: item.Name, Count: item.Count}
	}
	return out, nil
}

// FillMonths expands sparse monthly activity to all twelve months
func FillMonths(activity []MonthlyActivity) []MonthlyActivity {
	counts := make(map[string]int, len(activity))
	for _, a := range activity {
		counts[a.Month] = a.Count
	}

	out := make([]MonthlyActivity, 12)
	for m := 1; m <= 12; m++ {
		key := fmt.Sprintf("%02d", m)
		out[m-1] = MonthlyActivity{Month: key, Count: counts[key]}
	}
	return out
}
