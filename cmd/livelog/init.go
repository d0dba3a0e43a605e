package main

import (
	"context"
	"fmt"

	"github.com/franz/livelog/internal/store"
	"github.com/franz/livelog/internal/util"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the journal database or upgrade an older one",
	Long: `Create the journal tables if they do not exist and apply any pending
schema upgrades. Running it again is harmless; every command also does this
implicitly when it opens the database.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := db.SchemaVersion(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	util.SuccessLog("Journal ready: %s (schema version %d of %d)",
		GetConfigString("db", "livelog.db"), version, store.CurrentSchemaVersion())
	return nil
}
