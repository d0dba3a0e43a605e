package main

import (
	"fmt"

	"github.com/franz/livelog/internal/report"
	"github.com/franz/livelog/internal/store"
	"github.com/franz/livelog/internal/util"
	"github.com/spf13/viper"
)

const (
	defaultListenAddr = "127.0.0.1:8787"
	defaultEventsDir  = "artifacts/audit"
)

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (LIVELOG_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigBool retrieves a bool config value
func GetConfigBool(key string) bool {
	return viper.GetBool(key)
}

// openStore opens the journal named by --db / LIVELOG_DB
func openStore() (*store.Store, error) {
	dbPath := GetConfigString("db", "livelog.db")
	util.DebugLog("Opening database: %s", dbPath)

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}
	return db, nil
}

// openEventLog opens the audit log for write commands. Failure to create it
// is not fatal; the command proceeds without an audit trail.
func openEventLog(source string) *report.EventLogger {
	dir := GetConfigString("events_dir", defaultEventsDir)
	if dir == "-" || dir == "off" {
		return report.NullLogger()
	}

	level := report.ParseLevel(GetConfigString("events_level", "info"))
	logger, err := report.NewEventLogger(dir, level)
	if err != nil {
		util.WarnLog("Audit log disabled: %v", err)
		return report.NullLogger()
	}
	return logger.WithSource(source)
}
