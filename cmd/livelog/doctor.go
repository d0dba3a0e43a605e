package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/franz/livelog/internal/store"
	"github.com/franz/livelog/internal/util"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the journal and its environment",
	Long: `Run diagnostic checks to ensure livelog can operate correctly.

This command checks:
- SQLite version (built-in driver)
- Database accessibility, integrity and schema version
- Foreign key enforcement and journal mode
- Audit log directory permissions
- Disk space where the journal lives

Use this command to troubleshoot a journal that fails to open or save.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== livelog doctor - System Diagnostics ===")

	results := []checkResult{}

	// 1. Check SQLite
	results = append(results, checkSQLite())

	// 2. Check database file
	dbPath := GetConfigString("db", "livelog.db")
	results = append(results, checkDatabase(dbPath)...)

	// 3. Check audit log directory
	eventsDir := GetConfigString("events_dir", defaultEventsDir)
	if eventsDir != "-" && eventsDir != "off" {
		results = append(results, checkEventsDirectory(eventsDir))
	}

	// 4. Check disk space
	results = append(results, checkDiskSpace(filepath.Dir(dbPath), "database"))

	util.InfoLog("=== Diagnostic Results ===")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.SuccessLog("%s", line)
		}
	}

	if hasErrors {
		util.ErrorLog("Some critical checks failed. Resolve them before using the journal.")
		return fmt.Errorf("system diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("Some checks produced warnings. Review them before proceeding.")
	} else {
		util.SuccessLog("All checks passed.")
	}

	return nil
}

// checkSQLite verifies the embedded SQLite reports a version
func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return checkResult{
			name:    "SQLite",
			error:   true,
			message: "unable to determine version",
		}
	}

	return checkResult{
		name:    "SQLite",
		message: fmt.Sprintf("version %s (built-in)", version),
	}
}

// checkDatabase verifies the journal file opens and is healthy
func checkDatabase(dbPath string) []checkResult {
	if dbPath == "" {
		return []checkResult{{
			name:    "Database",
			warning: true,
			message: "no database path specified (use --db flag or config)",
		}}
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []checkResult{{
				name:    "Database",
				message: fmt.Sprintf("%s (will be created on first run)", dbPath),
			}}
		}
		return []checkResult{{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", dbPath, err),
		}}
	}

	if !info.Mode().IsRegular() {
		return []checkResult{{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("%s is not a regular file", dbPath),
		}}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return []checkResult{{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot open %s: %v", dbPath, err),
		}}
	}
	defer db.Close()
	ctx := context.Background()

	if err := db.CheckIntegrity(ctx); err != nil {
		return []checkResult{{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("integrity check failed: %v", err),
		}}
	}

	lives, _ := db.CountLives(ctx)
	results := []checkResult{{
		name:    "Database",
		message: fmt.Sprintf("%s (%s, %d lives)", dbPath, humanize.Bytes(uint64(info.Size())), lives),
	}}

	version, err := db.SchemaVersion(ctx)
	switch {
	case err != nil:
		results = append(results, checkResult{name: "Schema", error: true, message: err.Error()})
	case version < store.CurrentSchemaVersion():
		results = append(results, checkResult{
			name:    "Schema",
			warning: true,
			message: fmt.Sprintf("version %d, expected %d", version, store.CurrentSchemaVersion()),
		})
	default:
		results = append(results, checkResult{name: "Schema", message: fmt.Sprintf("version %d", version)})
	}

	if on, err := db.ForeignKeysEnabled(ctx); err != nil || !on {
		results = append(results, checkResult{
			name:    "Foreign keys",
			error:   true,
			message: "not enforced; deleting a live would leave its setlist behind",
		})
	} else {
		results = append(results, checkResult{name: "Foreign keys", message: "enforced"})
	}

	mode, err := db.JournalMode(ctx)
	if err != nil {
		results = append(results, checkResult{name: "Journal mode", warning: true, message: err.Error()})
	} else if mode != "wal" {
		results = append(results, checkResult{
			name:    "Journal mode",
			warning: true,
			message: fmt.Sprintf("%s (wal expected)", mode),
		})
	} else {
		results = append(results, checkResult{name: "Journal mode", message: mode})
	}

	return results
}

// checkEventsDirectory verifies the audit log directory is writable
func checkEventsDirectory(path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0755); err != nil {
				return checkResult{
					name:    "Audit log directory",
					error:   true,
					message: fmt.Sprintf("cannot create %s: %v", path, err),
				}
			}
			return checkResult{
				name:    "Audit log directory",
				message: fmt.Sprintf("%s (created)", path),
			}
		}
		return checkResult{
			name:    "Audit log directory",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}

	if !info.IsDir() {
		return checkResult{
			name:    "Audit log directory",
			error:   true,
			message: fmt.Sprintf("%s is not a directory", path),
		}
	}

	testFile := filepath.Join(path, ".livelog_write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return checkResult{
			name:    "Audit log directory",
			error:   true,
			message: fmt.Sprintf("cannot write to %s: %v", path, err),
		}
	}
	f.Close()
	os.Remove(testFile)

	return checkResult{
		name:    "Audit log directory",
		message: fmt.Sprintf("%s (writable)", path),
	}
}

// checkDiskSpace verifies available disk space
func checkDiskSpace(path string, label string) checkResult {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return checkResult{
			name:    fmt.Sprintf("Disk space (%s)", label),
			warning: true,
			message: fmt.Sprintf("cannot determine disk space: %v", err),
		}
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)
	totalBytes := stat.Blocks * uint64(stat.Bsize)
	usedBytes := totalBytes - (stat.Bfree * uint64(stat.Bsize))
	usedPercent := float64(usedBytes) / float64(totalBytes) * 100

	// Warn below 100 MiB free or above 98% used
	warning := false
	warningMsg := ""
	if availBytes < 100*humanize.MiByte {
		warning = true
		warningMsg = " (low space!)"
	} else if usedPercent > 98 {
		warning = true
		warningMsg = " (>98% used)"
	}

	return checkResult{
		name:    fmt.Sprintf("Disk space (%s)", label),
		warning: warning,
		message: fmt.Sprintf("%s available%s", humanize.IBytes(availBytes), warningMsg),
	}
}
