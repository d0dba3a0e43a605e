package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/franz/livelog/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "livelog",
		Short: "Live journal - record the concerts you attend and their setlists",
		Long: `livelog is a local-first journal of attended concerts ("lives").
Each live carries a date, artist, venue, tags, a 0-5 rating and an ordered
setlist of songs and section headers. The journal is a single SQLite file
that can be searched, ranked, exported and served to a UI over HTTP.`,
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/livelog.yaml)")
	rootCmd.PersistentFlags().String("db", "livelog.db", "journal database file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format: console or json")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored log output")

	// Bind flags to viper
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))

	viper.SetDefault("ranking_limit", util.DefaultRankingLimit)
	viper.SetDefault("listen", defaultListenAddr)
	viper.SetDefault("events_dir", defaultEventsDir)
	viper.SetDefault("events_level", "info")
}

func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in common locations
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("livelog")
		viper.SetConfigType("yaml")
	}

	// Read in environment variables that match (LIVELOG_DB, LIVELOG_RANKING_LIMIT, ...)
	viper.SetEnvPrefix("LIVELOG")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		util.DebugLog("Using config file: %s", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		util.WarnLog("Could not read config file %s: %v", cfgFile, err)
	}
}

// setupLogging applies the logging flags before any subcommand runs
func setupLogging(cmd *cobra.Command, args []string) error {
	switch format := GetConfigString("log_format", "console"); format {
	case "json":
		util.SetJSON(true)
	case "console":
	default:
		return fmt.Errorf("%w: unknown log format %q", util.ErrInvalidConfig, format)
	}

	if GetConfigBool("no_color") {
		util.SetColors(false)
	}
	util.SetVerbose(GetConfigBool("verbose"))
	util.SetQuiet(GetConfigBool("quiet"))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
