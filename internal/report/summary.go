package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/livelog/internal/store"
	"github.com/franz/livelog/internal/util"
)

// recentLimit is how many of the latest lives the report lists
const recentLimit = 10

// StatsReport is a point-in-time view of the whole journal
type StatsReport struct {
	GeneratedAt time.Time

	Summary      store.StatsSummary
	TopArtists   []store.RankingItem
	TopVenues    []store.RankingItem
	TopSongs     []store.RankingItem
	Yearly       []store.YearlyActivity
	LatestYear   string
	Monthly      []store.MonthlyActivity // all twelve months of LatestYear
	RecentLives  []*store.Live
	RankingLimit int

	// Metadata
	DatabasePath string
	EventLogPath string
}

// GenerateStatsReport gathers rankings and activity from the store.
// Individual sections degrade to empty on read failures; the first such
// failure is returned alongside the partial report.
func GenerateStatsReport(ctx context.Context, db *store.Store, limit int) (*StatsReport, error) {
	if limit <= 0 {
		limit = util.DefaultRankingLimit
	}

	report := &StatsReport{
		GeneratedAt:  time.Now(),
		RankingLimit: limit,
	}

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	var err error
	report.Summary, err = db.Summary(ctx)
	keep(err)
	report.TopArtists, err = db.ArtistRankings(ctx, limit)
	keep(err)
	report.TopVenues, err = db.VenueRankings(ctx, limit)
	keep(err)
	report.TopSongs, err = db.SongRankings(ctx, limit*2)
	keep(err)
	report.Yearly, err = db.YearlyActivity(ctx)
	keep(err)

	if len(report.Yearly) > 0 {
		report.LatestYear = report.Yearly[0].Year
		monthly, err := db.MonthlyActivity(ctx, report.LatestYear)
		keep(err)
		report.Monthly = store.FillMonths(monthly)
	}

	lives, err := db.ListLives(ctx, store.ListOptions{})
	keep(err)
	if len(lives) > recentLimit {
		lives = lives[:recentLimit]
	}
	report.RecentLives = lives

	return report, firstErr
}

// WriteMarkdownReport writes the stats report as Markdown
func WriteMarkdownReport(report *StatsReport, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(outputPath, []byte(RenderMarkdown(report)), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

// RenderMarkdown formats the report without touching the filesystem
func RenderMarkdown(report *StatsReport) string {
	var md strings.Builder

	// Header
	md.WriteString("# Live Journal - Stats Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))

	if report.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", report.DatabasePath))
	}
	if report.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Audit Log:** `%s`\n\n", report.EventLogPath))
	}

	md.WriteString("---\n\n")

	// Overview
	md.WriteString("## Overview\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Lives Attended | %s |\n", humanize.Comma(int64(report.Summary.TotalLives))))
	md.WriteString(fmt.Sprintf("| Average Rating | %.1f |\n", report.Summary.AverageRating))
	md.WriteString("\n")

	if report.Summary.TotalLives == 0 {
		md.WriteString("*No lives recorded yet.*\n\n")
	}

	writeRanking(&md, fmt.Sprintf("Top Artists (Top %d)", report.RankingLimit), "Artist", "Lives", report.TopArtists)
	writeRanking(&md, fmt.Sprintf("Top Venues (Top %d)", report.RankingLimit), "Venue", "Visits", report.TopVenues)
	writeRanking(&md, fmt.Sprintf("Most Heard Songs (Top %d)", report.RankingLimit*2), "Song", "Plays", report.TopSongs)

	// Activity
	if len(report.Yearly) > 0 {
		md.WriteString("## Lives per Year\n\n")
		md.WriteString("| Year | Lives |\n")
		md.WriteString("|------|-------|\n")
		for _, y := range report.Yearly {
			md.WriteString(fmt.Sprintf("| %s | %d |\n", y.Year, y.Count))
		}
		md.WriteString("\n")
	}

	if len(report.Monthly) > 0 {
		md.WriteString(fmt.Sprintf("## %s by Month\n\n", report.LatestYear))
		md.WriteString("| Month | Lives | |\n")
		md.WriteString("|-------|-------|---|\n")
		for _, m := range report.Monthly {
			md.WriteString(fmt.Sprintf("| %s | %d | %s |\n", m.Month, m.Count, strings.Repeat("#", m.Count)))
		}
		md.WriteString("\n")
	}

	// Recent
	if len(report.RecentLives) > 0 {
		md.WriteString("## Recent Lives\n\n")
		md.WriteString("| Date | Live | Artist | Venue | Rating |\n")
		md.WriteString("|------|------|--------|-------|--------|\n")
		for _, l := range report.RecentLives {
			md.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				relativeDate(l.Date, report.GeneratedAt),
				escapeCell(truncateText(l.Name, 40)),
				escapeCell(truncateText(l.ArtistName, 30)),
				escapeCell(truncateText(l.VenueName, 30)),
				Stars(l.Rating)))
		}
		md.WriteString("\n")
	}

	// Footer
	md.WriteString("---\n\n")
	md.WriteString("*Generated by livelog*\n")

	return md.String()
}

func writeRanking(md *strings.Builder, title, nameCol, countCol string, items []store.RankingItem) {
	if len(items) == 0 {
		return
	}
	md.WriteString(fmt.Sprintf("## %s\n\n", title))
	md.WriteString(fmt.Sprintf("| # | %s | %s |\n", nameCol, countCol))
	md.WriteString("|---|------|------|\n")
	for i, item := range items {
		md.WriteString(fmt.Sprintf("| %s | %s | %d |\n",
			humanize.Ordinal(i+1), escapeCell(truncateText(item.Name, 50)), item.Count))
	}
	md.WriteString("\n")
}

// Stars renders a 0..5 rating; 0 is unrated
func Stars(rating int) string {
	if rating <= 0 {
		return "-"
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

// relativeDate shows the stored date with a humanized distance to now
func relativeDate(date string, now time.Time) string {
	t, err := time.ParseInLocation(store.DateLayout, date, now.Location())
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s (%s)", date, humanize.RelTime(t, now, "ago", "from now"))
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// truncateText shortens s to maxLen runes, keeping the start and end
func truncateText(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	start := maxLen/2 - 2
	end := len(r) - (maxLen/2 - 2)
	return string(r[:start]) + "..." + string(r[end:])
}
