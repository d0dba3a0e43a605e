package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/franz/livelog/internal/store"
	"github.com/franz/livelog/internal/util"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a JSON backup into the journal",
	Long: `Load a JSON backup written by "livelog export". Lives are appended with
fresh ids and their setlists follow them. The whole file is written in one
transaction: if any live is invalid nothing is imported.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

// readSnapshot decodes a backup file written by export
func readSnapshot(path string) (*store.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}

	snap := &store.Snapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("%w: %s is not a livelog backup: %v", util.ErrInvalidInput, path, err)
	}
	return snap, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	startTime := time.Now()

	snap, err := readSnapshot(path)
	if err != nil {
		return err
	}
	util.InfoLog("Backup %s: %d lives, %d setlist items", path, len(snap.Lives), len(snap.Setlists))

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	events := openEventLog("cli")
	defer events.Close()

	var bar *progressbar.ProgressBar
	if util.StdoutIsTerminal() && !util.IsQuiet() && len(snap.Lives) > 0 {
		width := 40
		if half := util.GetTerminalWidth() / 2; half < width {
			width = half
		}
		bar = progressbar.NewOptions(len(snap.Lives),
			progressbar.OptionSetDescription("Importing"),
			progressbar.OptionSetWidth(width),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("lives"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}
	onProgress := func(done int) {
		if bar != nil {
			_ = bar.Set(done)
		}
	}

	result, err := db.Restore(context.Background(), snap, onProgress)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		events.LogImport(path, 0, 0, 0, time.Since(startTime), err)
		return err
	}
	events.LogImport(path, result.Lives, result.SetlistItems, result.Skipped, time.Since(startTime), nil)

	if result.Skipped > 0 {
		util.WarnLog("Skipped %d setlist items whose live is not in the backup", result.Skipped)
	}
	util.SuccessLog("Imported %d lives and %d setlist items in %s",
		result.Lives, result.SetlistItems, time.Since(startTime).Round(time.Millisecond))
	return nil
}
