package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/franz/livelog/internal/report"
	"github.com/franz/livelog/internal/store"
	"github.com/franz/livelog/internal/util"
	"github.com/spf13/cobra"
)

var setlistCmd = &cobra.Command{
	Use:   "setlist",
	Short: "Show or edit a live's setlist",
}

var setlistShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a live's setlist",
	Long: `Print a live's setlist. With --text the output uses the same format
"setlist set" reads, so a setlist can be edited in a text editor and saved back.`,
	Args: cobra.ExactArgs(1),
	RunE: runSetlistShow,
}

var setlistAddCmd = &cobra.Command{
	Use:   "add <id> <song>",
	Short: "Append one song or section header to a setlist",
	Args:  cobra.ExactArgs(2),
	RunE:  runSetlistAdd,
}

var setlistSetCmd = &cobra.Command{
	Use:   "set <id>",
	Short: "Replace a live's whole setlist from a text file",
	Long: `Replace a live's whole setlist from a text file ("-" reads stdin).
Track numbers are reassigned 1..N in file order. An empty file clears
the setlist.

Format:
  # comments and blank lines are ignored
  [MAIN SET]            a section header
  1. Opening Song       leading numbering is stripped
  Another Song // acoustic   text after // is the memo
  [ENCORE]
  Last Song`,
	Args: cobra.ExactArgs(1),
	RunE: runSetlistSet,
}

func init() {
	rootCmd.AddCommand(setlistCmd)
	setlistCmd.AddCommand(setlistShowCmd, setlistAddCmd, setlistSetCmd)

	setlistShowCmd.Flags().Bool("text", false, "Print in the editable text format")

	setlistAddCmd.Flags().String("memo", "", "Memo for the item")
	setlistAddCmd.Flags().Bool("header", false, "Add a section header instead of a song")
	setlistAddCmd.Flags().Int("track", 0, "Track number (default: after the last item)")

	setlistSetCmd.Flags().StringP("file", "f", "", "Setlist text file, or - for stdin (required)")
	_ = setlistSetCmd.MarkFlagRequired("file")
}

const memoSeparator = "//"

// trackPrefix matches leading numbering like "1. ", "12) " or "3 - "
var trackPrefix = regexp.MustCompile(`^\d+\s*(?:[.)]|-)\s*`)

// parseSetlistText reads the editable setlist format
func parseSetlistText(r io.Reader) ([]store.SetlistEntry, error) {
	entries := make([]store.SetlistEntry, 0)
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry := store.SetlistEntry{Type: store.ItemSong}
		if text, memo, ok := strings.Cut(line, memoSeparator); ok {
			line = strings.TrimSpace(text)
			entry.Memo = strings.TrimSpace(memo)
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			entry.Type = store.ItemHeader
			line = strings.TrimSpace(line[1 : len(line)-1])
		} else {
			line = trackPrefix.ReplaceAllString(line, "")
		}

		if line == "" {
			return nil, fmt.Errorf("%w: line %d has no song name", util.ErrInvalidInput, lineNo)
		}
		entry.SongName = line
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read setlist: %w", err)
	}
	return entries, nil
}

// formatSetlistText writes items in the format parseSetlistText reads.
// Songs are not numbered; the track number comes from line order.
func formatSetlistText(items []*store.SetlistItem) string {
	var b strings.Builder
	for _, item := range items {
		if item.Type == store.ItemHeader {
			fmt.Fprintf(&b, "[%s]", item.SongName)
		} else {
			b.WriteString(item.SongName)
		}
		if item.Memo != "" {
			fmt.Fprintf(&b, " %s %s", memoSeparator, item.Memo)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// formatSetlist renders items for reading; headers are unnumbered
func formatSetlist(items []*store.SetlistItem) string {
	var b strings.Builder
	for _, item := range items {
		if item.Type == store.ItemHeader {
			fmt.Fprintf(&b, "  [%s]\n", item.SongName)
			continue
		}
		fmt.Fprintf(&b, "  %2d. %s", item.TrackNumber, item.SongName)
		if item.Memo != "" {
			fmt.Fprintf(&b, "  (%s)", item.Memo)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// requireLive fails with ErrNotFound when the live does not exist
func requireLive(ctx context.Context, db *store.Store, id int64) (*store.Live, error) {
	live, err := db.GetLive(ctx, id)
	if err != nil {
		return nil, err
	}
	if live == nil {
		return nil, fmt.Errorf("live %d: %w", id, util.ErrNotFound)
	}
	return live, nil
}

func runSetlistShow(cmd *cobra.Command, args []string) error {
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

	if _, err := requireLive(ctx, db, id); err != nil {
		return err
	}

	items, err := db.Setlist(ctx, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asText, _ := cmd.Flags().GetBool("text"); asText {
		fmt.Fprint(out, formatSetlistText(items))
		return nil
	}
	if len(items) == 0 {
		util.InfoLog("Live #%d has no setlist yet", id)
		return nil
	}
	fmt.Fprint(out, formatSetlist(items))
	return nil
}

func runSetlistAdd(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	song := strings.TrimSpace(args[1])
	if song == "" {
		return fmt.Errorf("%w: song name is empty", util.ErrInvalidInput)
	}

	entry := store.SetlistEntry{SongName: song, Type: store.ItemSong}
	entry.Memo, _ = cmd.Flags().GetString("memo")
	entry.TrackNumber, _ = cmd.Flags().GetInt("track")
	if header, _ := cmd.Flags().GetBool("header"); header {
		entry.Type = store.ItemHeader
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := requireLive(ctx, db, id); err != nil {
		return err
	}

	if entry.TrackNumber <= 0 {
		count, err := db.CountSetlistItems(ctx, id)
		if err != nil {
			return err
		}
		entry.TrackNumber = count + 1
	}

	events := openEventLog("cli")
	defer events.Close()

	if _, err := db.AppendSong(ctx, id, entry); err != nil {
		events.LogError(report.EventSetlistAppend, id, err)
		return err
	}
	events.LogSetlistAppend(id, entry.TrackNumber, entry.SongName)

	util.SuccessLog("Added track %d to live #%d: %s", entry.TrackNumber, id, entry.SongName)
	return nil
}

func runSetlistSet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("file")
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open setlist file: %w", err)
		}
		defer f.Close()
		r = f
	}

	entries, err := parseSetlistText(r)
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := requireLive(ctx, db, id); err != nil {
		return err
	}

	events := openEventLog("cli")
	defer events.Close()

	if err := db.ReplaceSetlist(ctx, id, entries); err != nil {
		events.LogError(report.EventSetlistReplace, id, err)
		return err
	}
	events.LogSetlistReplace(id, len(entries))

	util.SuccessLog("Saved %d setlist items for live #%d", len(entries), id)
	return nil
}
