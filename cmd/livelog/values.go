package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/franz/livelog/internal/util"
	"github.com/spf13/cobra"
)

var valuesCmd = &cobra.Command{
	Use:       "values <artists|venues|tags>",
	Short:     "List every distinct artist, venue or tag",
	Long:      `List every distinct artist, venue or tag, sorted without regard to case.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"artists", "venues", "tags"},
	RunE:      runValues,
}

var songsCmd = &cobra.Command{
	Use:   "songs <artist>",
	Short: "List the songs heard from an artist",
	Args:  cobra.ExactArgs(1),
	RunE:  runSongs,
}

var venueCmd = &cobra.Command{
	Use:   "venue <name>",
	Short: "List the lives seen at a venue",
	Args:  cobra.ExactArgs(1),
	RunE:  runVenue,
}

func init() {
	rootCmd.AddCommand(valuesCmd, songsCmd, venueCmd)

	songsCmd.Flags().Bool("stats", false, "Show how many times each song was heard")
}

func runValues(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()

	var values []string
	switch args[0] {
	case "artists":
		values, err = db.DistinctArtists(ctx)
	case "venues":
		values, err = db.DistinctVenues(ctx)
	case "tags":
		values, err = db.DistinctTags(ctx)
	default:
		return fmt.Errorf("%w: unknown value kind %q (want artists, venues or tags)", util.ErrInvalidInput, args[0])
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, v := range values {
		fmt.Fprintln(out, v)
	}
	return nil
}

func runSongs(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()
	out := cmd.OutOrStdout()

	if withStats, _ := cmd.Flags().GetBool("stats"); withStats {
		stats, err := db.SongStatsForArtist(ctx, args[0])
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SONG\tTIMES")
		for _, s := range stats {
			fmt.Fprintf(w, "%s\t%d\n", s.Name, s.Count)
		}
		return w.Flush()
	}

	songs, err := db.SongsByArtist(ctx, args[0])
	if err != nil {
		return err
	}
	for _, s := range songs {
		fmt.Fprintln(out, s)
	}
	return nil
}

func runVenue(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	lives, err := db.LivesByVenue(context.Background(), args[0])
	if err != nil {
		return err
	}
	if len(lives) == 0 {
		util.InfoLog("No lives at %s", args[0])
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tNAME\tARTIST")
	for _, l := range lives {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", l.ID, l.Date, l.Name, l.ArtistName)
	}
	return w.Flush()
}
