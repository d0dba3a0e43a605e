package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/franz/livelog/internal/report"
	"github.com/franz/livelog/internal/util"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a Markdown stats report",
	Long: `Generate a stats report in Markdown format.

The report includes:
- Lives attended and average rating
- Top artists, venues and songs
- Lives per year and per month of the latest year
- The most recent lives

The report is saved to artifacts/reports/<timestamp>/stats.md`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("out", "", "Output directory for report (default: artifacts/reports/<timestamp>)")
	reportCmd.Flags().Int("limit", 0, "Ranking rows (default: ranking_limit)")
}

func runReport(cmd *cobra.Command, args []string) error {
	dbPath := GetConfigString("db", "livelog.db")

	util.InfoLog("=== Generating Stats Report ===")
	util.InfoLog("Database: %s", dbPath)

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = util.GetRankingLimit()
	}

	statsReport, err := report.GenerateStatsReport(context.Background(), db, limit)
	if err != nil {
		util.WarnLog("Report is incomplete: %v", err)
	}
	statsReport.DatabasePath = dbPath

	outputDir, _ := cmd.Flags().GetString("out")
	if outputDir == "" {
		timestamp := time.Now().Format("20060102-150405")
		outputDir = filepath.Join("artifacts", "reports", timestamp)
	}
	outputPath := filepath.Join(outputDir, "stats.md")

	if err := report.WriteMarkdownReport(statsReport, outputPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	util.SuccessLog("Report written to: %s", outputPath)
	return nil
}
