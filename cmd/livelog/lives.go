package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/livelog/internal/report"
	"github.com/franz/livelog/internal/store"
	"github.com/franz/livelog/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new live",
	Long: `Record a new live. --name is required; --date defaults to today.

Example:
  livelog add --name "Spring Tour" --artist Aurora --venue Budokan \
    --date 2024-04-12 --tags "rock,pop" --rating 5`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of an existing live",
	Long: `Change fields of an existing live. Only the flags you pass are changed;
pass an empty value (e.g. --memo "") to clear a field.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one live with its setlist",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a live and its setlist",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var duplicateCmd = &cobra.Command{
	Use:   "duplicate <id>",
	Short: "Copy a live and its setlist as a new live dated today",
	Long: `Copy a live (name, artist, venue, tags) and its whole setlist into a new
live dated today. Rating, memo and image are not copied. Useful when
attending several nights of the same tour.`,
	Args: cobra.ExactArgs(1),
	RunE: runDuplicate,
}

func init() {
	rootCmd.AddCommand(addCmd, editCmd, showCmd, deleteCmd, duplicateCmd)

	for _, c := range []*cobra.Command{addCmd, editCmd} {
		c.Flags().String("name", "", "Live name")
		c.Flags().String("date", "", "Date (YYYY-MM-DD)")
		c.Flags().String("artist", "", "Artist name")
		c.Flags().String("venue", "", "Venue name")
		c.Flags().String("tags", "", "Comma-separated tags")
		c.Flags().Int("rating", 0, "Rating 1-5 (0 = unrated)")
		c.Flags().String("memo", "", "Free-form memo")
		c.Flags().String("image", "", "Path to a photo or ticket image")
	}

	showCmd.Flags().Bool("json", false, "Print the live and its setlist as JSON")
}

// parseID parses a positional live id
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid live id %q", util.ErrInvalidInput, arg)
	}
	return id, nil
}

// validateDate accepts only the stored YYYY-MM-DD layout
func validateDate(date string) error {
	if _, err := time.Parse(store.DateLayout, date); err != nil {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", util.ErrInvalidInput, date)
	}
	return nil
}

// applyLiveFlags copies every changed flag onto l
func applyLiveFlags(flags *pflag.FlagSet, l *store.Live) error {
	strField := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	strField("name", &l.Name)
	strField("date", &l.Date)
	strField("artist", &l.ArtistName)
	strField("venue", &l.VenueName)
	strField("tags", &l.Tags)
	strField("memo", &l.Memo)
	strField("image", &l.ImagePath)

	if flags.Changed("rating") {
		rating, _ := flags.GetInt("rating")
		if rating < 0 || rating > 5 {
			return fmt.Errorf("%w: rating must be 0-5, got %d", util.ErrInvalidInput, rating)
		}
		l.Rating = rating
	}

	if l.Date != "" {
		if err := validateDate(l.Date); err != nil {
			return err
		}
	}
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	live := &store.Live{Date: time.Now().Format(store.DateLayout)}
	if err := applyLiveFlags(cmd.Flags(), live); err != nil {
		return err
	}
	if strings.TrimSpace(live.Name) == "" {
		return fmt.Errorf("%w: --name is required", util.ErrInvalidInput)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	events := openEventLog("cli")
	defer events.Close()

	id, err := db.CreateLive(context.Background(), live)
	if err != nil {
		events.LogError(report.EventLiveCreate, 0, err)
		return err
	}
	events.LogLiveCreate(id, live.Name)

	util.SuccessLog("Recorded live #%d: %s (%s)", id, live.Name, live.Date)
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()

	live, err := db.GetLive(ctx, id)
	if err != nil {
		return err
	}
	if live == nil {
		return fmt.Errorf("live %d: %w", id, util.ErrNotFound)
	}

	if err := applyLiveFlags(cmd.Flags(), live); err != nil {
		return err
	}

	events := openEventLog("cli")
	defer events.Close()

	if err := db.UpdateLive(ctx, live); err != nil {
		events.LogError(report.EventLiveUpdate, id, err)
		return err
	}
	events.LogLiveUpdate(id, live.Name)

	util.SuccessLog("Updated live #%d", id)
	return nil
}

type liveDetail struct {
	*store.Live
	Setlist []*store.SetlistItem `json:"setlist"`
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()

	live, err := db.GetLive(ctx, id)
	if err != nil {
		return err
	}
	if live == nil {
		return fmt.Errorf("live %d: %w", id, util.ErrNotFound)
	}

	items, err := db.Setlist(ctx, id)
	if err != nil {
		util.WarnLog("Setlist unavailable: %v", err)
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(liveDetail{Live: live, Setlist: items})
	}

	printLive(out, live, time.Now())
	fmt.Fprintln(out)
	if len(items) == 0 {
		fmt.Fprintln(out, "  (no setlist)")
		return nil
	}
	fmt.Fprint(out, formatSetlist(items))
	return nil
}

func printLive(out io.Writer, l *store.Live, now time.Time) {
	fmt.Fprintf(out, "#%d  %s\n", l.ID, l.Name)

	when := l.Date
	if t, err := time.ParseInLocation(store.DateLayout, l.Date, now.Location()); err == nil {
		when = fmt.Sprintf("%s (%s)", l.Date, humanize.RelTime(t, now, "ago", "from now"))
	}
	fmt.Fprintf(out, "  Date:    %s\n", when)

	if l.ArtistName != "" {
		fmt.Fprintf(out, "  Artist:  %s\n", l.ArtistName)
	}
	if l.VenueName != "" {
		fmt.Fprintf(out, "  Venue:   %s\n", l.VenueName)
	}
	if tags := store.SplitTags(l.Tags); len(tags) > 0 {
		fmt.Fprintf(out, "  Tags:    %s\n", strings.Join(tags, ", "))
	}
	fmt.Fprintf(out, "  Rating:  %s\n", report.Stars(l.Rating))
	if l.ImagePath != "" {
		fmt.Fprintf(out, "  Image:   %s\n", l.ImagePath)
	}
	if l.Memo != "" {
		fmt.Fprintf(out, "  Memo:    %s\n", l.Memo)
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()

	live, err := db.GetLive(ctx, id)
	if err != nil {
		return err
	}
	if live == nil {
		util.WarnLog("Live #%d does not exist, nothing to delete", id)
		return nil
	}
	items, _ := db.CountSetlistItems(ctx, id)

	events := openEventLog("cli")
	defer events.Close()

	if err := db.DeleteLive(ctx, id); err != nil {
		events.LogError(report.EventLiveDelete, id, err)
		return err
	}
	events.LogLiveDelete(id, live.Name, items)

	util.SuccessLog("Deleted live #%d %s (%d setlist items)", id, live.Name, items)
	return nil
}

func runDuplicate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()

	events := openEventLog("cli")
	defer events.Close()

	dup, err := db.DuplicateLive(ctx, id)
	if err != nil {
		events.LogError(report.EventLiveDuplicate, id, err)
		return err
	}
	if dup == nil {
		return fmt.Errorf("live %d: %w", id, util.ErrNotFound)
	}

	items, _ := db.CountSetlistItems(ctx, dup.ID)
	events.LogDuplicate(id, dup.ID, dup.Name, items)

	util.SuccessLog("Duplicated live #%d as #%d dated %s (%d setlist items)", id, dup.ID, dup.Date, items)
	return nil
}
