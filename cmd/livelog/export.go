package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/franz/livelog/internal/util"
	"github.com/spf13/cobra"
)

// backupFilename is the default export file name
const backupFilename = "setlist_backup.json"

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every live and setlist to a JSON backup",
	Long: `Write every live and every setlist item to a JSON backup file.
The file can be loaded into another journal with "livelog import".`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("out", "o", backupFilename, "Output file (- for stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := db.DumpAll(context.Background())
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	data = append(data, '\n')

	outPath, _ := cmd.Flags().GetString("out")
	if outPath == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	events := openEventLog("cli")
	defer events.Close()
	events.LogExport(outPath, snap.ID, len(snap.Lives), len(snap.Setlists))

	util.SuccessLog("Exported %d lives and %d setlist items to %s (%s)",
		len(snap.Lives), len(snap.Setlists), outPath, humanize.Bytes(uint64(len(data))))
	return nil
}

