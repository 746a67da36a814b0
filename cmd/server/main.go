// safezone runs the Safe Zone game server.
//
// Usage:
//
//	safezone serve             - Start the WebSocket game server
//	safezone simulate          - Play a headless round with bots
//	safezone rounds            - Show recently finished rounds
//
// Configuration comes from the environment (PORT, LOG_LEVEL, LOG_FORMAT,
// STORE, DATABASE_URL, SQLITE_PATH, TUNING_FILE). Flags override it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ugaemi/safezone-server/internal/config"
)

var (
	// Global flags
	flagTuning    string
	flagLogLevel  string
	flagLogFormat string

	cfg *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "safezone",
	Short:         "Safe Zone game server",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg = config.Load()
		if cmd.Flags().Changed("tuning") {
			cfg.TuningFile = flagTuning
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = flagLogLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = flagLogFormat
		}
		setupLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagTuning, "tuning", "", "Path to a YAML tuning file (default: built-in)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format: text, json, pretty")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(roundsCmd)
}
