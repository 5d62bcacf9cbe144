// Package main provides the recap CLI entry point.
// recap syncs online-meeting calendar events and their transcripts into a
// local PostgreSQL store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/recap-cli/cmd"
	"github.com/otherjamesbrown/recap-cli/config"
)

// Global flags.
var (
	cfgFile      string
	debug        bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "recap",
	Short: "Sync calendar meetings and transcripts into a local store",
	Long: `recap reconciles online meetings from a remote calendar service into a
local PostgreSQL store, linking each meeting to its conferencing resource and
probing for machine transcripts.

COMMON WORKFLOWS:
  First run:      recap auth set  →  recap db migrate  →  recap sync
  Re-sync:        recap sync --days 30
  Inspect:        recap meetings list --with-transcript
  Check schema:   recap db status

Commands support --output json for machine-readable results.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		// Flags land in the environment so command-level config loading
		// picks them up without re-plumbing every constructor.
		if cfgFile != "" {
			os.Setenv("RECAP_CONFIG", cfgFile)
		}
		if debug {
			os.Setenv("RECAP_LOG_LEVEL", "debug")
		}
		if outputFormat != "" {
			if !config.OutputFormat(outputFormat).IsValid() {
				return fmt.Errorf("invalid output format %q (use text or json)", outputFormat)
			}
			os.Setenv("RECAP_OUTPUT", outputFormat)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.recap/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output-format", "", "Default output format: text, json, yaml")

	rootCmd.AddCommand(cmd.NewSyncCommand())
	rootCmd.AddCommand(cmd.NewMeetingsCommand())
	rootCmd.AddCommand(cmd.NewDbCommand())
	rootCmd.AddCommand(cmd.NewAuthCommand())
	rootCmd.AddCommand(cmd.NewVersionCommand())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
