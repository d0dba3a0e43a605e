package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/franz/livelog/internal/report"
	"github.com/franz/livelog/internal/store"
	"github.com/franz/livelog/internal/util"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List lives with optional filters",
	Long: `List lives, newest first by default. Filters combine with AND.

Examples:
  livelog list --artist Aurora
  livelog list --year 2024 --min-rating 4
  livelog list --tag rock --sort artistName --order asc`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("search", "s", "", "Match name, artist, venue or tags")
	listCmd.Flags().String("artist", "", "Filter by artist")
	listCmd.Flags().String("venue", "", "Filter by venue")
	listCmd.Flags().String("year", "", "Filter by year (YYYY)")
	listCmd.Flags().Int("min-rating", 0, "Only lives rated at least this")
	listCmd.Flags().String("tag", "", "Only lives carrying this tag")
	listCmd.Flags().String("sort", string(store.SortByDate), "Sort by liveDate, artistName, rating or venueName")
	listCmd.Flags().String("order", string(store.SortDesc), "asc or desc")
	listCmd.Flags().Bool("json", false, "Print JSON instead of a table")
}

func listOptionsFromFlags(cmd *cobra.Command) store.ListOptions {
	flags := cmd.Flags()
	opts := store.ListOptions{}
	opts.Search, _ = flags.GetString("search")
	opts.Artist, _ = flags.GetString("artist")
	opts.Venue, _ = flags.GetString("venue")
	opts.Year, _ = flags.GetString("year")
	opts.MinRating, _ = flags.GetInt("min-rating")
	opts.Tag, _ = flags.GetString("tag")

	sortKey, _ := flags.GetString("sort")
	order, _ := flags.GetString("order")
	opts.SortKey = store.SortKey(sortKey)
	opts.SortOrder = store.SortOrder(strings.ToUpper(order))
	return opts
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	lives, err := db.ListLives(context.Background(), listOptionsFromFlags(cmd))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(lives)
	}

	if len(lives) == 0 {
		util.InfoLog("No lives match")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tNAME\tARTIST\tVENUE\tRATING\tTAGS")
	for _, l := range lives {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.Date, l.Name, l.ArtistName, l.VenueName,
			report.Stars(l.Rating), strings.Join(store.SplitTags(l.Tags), ", "))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	util.InfoLog("%d lives", len(lives))
	return nil
}
