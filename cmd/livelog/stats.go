package main

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/franz/livelog/internal/store"
	"github.com/franz/livelog/internal/util"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show journal statistics",
	Long: `Show journal statistics. Without a subcommand prints the headline
numbers followed by the top artists, venues and songs.`,
	Args: cobra.NoArgs,
	RunE: runStatsSummary,
}

var statsRankingsCmd = &cobra.Command{
	Use:       "rankings <artists|venues|songs>",
	Short:     "Rank artists, venues or songs by how often they were seen",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"artists", "venues", "songs"},
	RunE:      runStatsRankings,
}

var statsYearlyCmd = &cobra.Command{
	Use:   "yearly",
	Short: "Lives per year, newest first",
	Args:  cobra.NoArgs,
	RunE:  runStatsYearly,
}

var statsMonthlyCmd = &cobra.Command{
	Use:   "monthly <year>",
	Short: "Lives per month of one year",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatsMonthly,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.AddCommand(statsRankingsCmd, statsYearlyCmd, statsMonthlyCmd)

	statsCmd.PersistentFlags().Int("limit", 0, "Ranking rows (default: ranking_limit, doubled for songs)")
	statsRankingsCmd.Flags().String("artist", "", "Rank only songs by this artist")
	statsMonthlyCmd.Flags().Bool("fill", true, "Include months with no lives")
}

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// rankingLimit resolves --limit against the configured defaults
func rankingLimit(cmd *cobra.Command, songs bool) int {
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
		return limit
	}
	if songs {
		return util.GetSongRankingLimit()
	}
	return util.GetRankingLimit()
}

func printRanking(cmd *cobra.Command, title string, items []store.RankingItem) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", title)
	if len(items) == 0 {
		fmt.Fprintln(out, "  (none)")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, item := range items {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", humanize.Ordinal(i+1), item.Name, humanize.Comma(int64(item.Count)))
	}
	return w.Flush()
}

func runStatsSummary(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()

	summary, err := db.Summary(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Lives attended: %s\n", humanize.Comma(int64(summary.TotalLives)))
	fmt.Fprintf(out, "Average rating: %.1f\n\n", summary.AverageRating)

	limit := rankingLimit(cmd, false)
	artists, err := db.ArtistRankings(ctx, limit)
	if err != nil {
		return err
	}
	venues, err := db.VenueRankings(ctx, limit)
	if err != nil {
		return err
	}
	songs, err := db.SongRankings(ctx, rankingLimit(cmd, true))
	if err != nil {
		return err
	}

	if err := printRanking(cmd, "Top artists", artists); err != nil {
		return err
	}
	fmt.Fprintln(out)
	if err := printRanking(cmd, "Top venues", venues); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return printRanking(cmd, "Most heard songs", songs)
}

func runStatsRankings(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()

	kind := strings.ToLower(args[0])
	var items []store.RankingItem
	switch kind {
	case "artists":
		items, err = db.ArtistRankings(ctx, rankingLimit(cmd, false))
	case "venues":
		items, err = db.VenueRankings(ctx, rankingLimit(cmd, false))
	case "songs":
		if artist, _ := cmd.Flags().GetString("artist"); artist != "" {
			items, err = db.SongRankingsByArtist(ctx, artist, rankingLimit(cmd, true))
		} else {
			items, err = db.SongRankings(ctx, rankingLimit(cmd, true))
		}
	default:
		return fmt.Errorf("%w: unknown ranking %q (want artists, venues or songs)", util.ErrInvalidInput, args[0])
	}
	if err != nil {
		return err
	}

	return printRanking(cmd, "Top "+kind, items)
}

func runStatsYearly(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	years, err := db.YearlyActivity(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "YEAR\tLIVES")
	for _, y := range years {
		fmt.Fprintf(w, "%s\t%d\n", y.Year, y.Count)
	}
	return w.Flush()
}

func runStatsMonthly(cmd *cobra.Command, args []string) error {
	year := args[0]
	if !yearPattern.MatchString(year) {
		return fmt.Errorf("%w: year %q is not YYYY", util.ErrInvalidInput, year)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	months, err := db.MonthlyActivity(context.Background(), year)
	if err != nil {
		return err
	}
	if fill, _ := cmd.Flags().GetBool("fill"); fill {
		months = store.FillMonths(months)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tLIVES\t\n", year)
	for _, m := range months {
		fmt.Fprintf(w, "%s\t%d\t%s\n", m.Month, m.Count, strings.Repeat("#", m.Count))
	}
	return w.Flush()
}
