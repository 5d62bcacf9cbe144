package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/recap-cli/config"
	"github.com/otherjamesbrown/recap-cli/pkg/db"
	"github.com/otherjamesbrown/recap-cli/pkg/meetingsync"
	"github.com/otherjamesbrown/recap-cli/pkg/meetingsync/storage"
)

// Meetings command flags
var (
	meetingsWithTranscript bool
	meetingsOrganizer      string
	meetingsLimit          int
	meetingsOutput         string
)

// NewMeetingsCommand creates the meetings command with subcommands.
func NewMeetingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "meetings",
		Short:   "Inspect synced meetings",
		Aliases: []string{"meeting"},
	}

	cmd.AddCommand(newMeetingsListCommand())
	cmd.AddCommand(newMeetingsTranscriptCommand())

	return cmd
}

func newMeetingsListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List meetings in the local store",
		Long: `List meetings persisted by previous sync passes, newest first.

Examples:
  # All synced meetings
  recap meetings list

  # Only meetings with a transcript, as JSON
  recap meetings list --with-transcript --output json

  # One organizer's meetings
  recap meetings list --organizer alice@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeetingsList(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&meetingsWithTranscript, "with-transcript", false, "Only meetings with a transcript")
	cmd.Flags().StringVar(&meetingsOrganizer, "organizer", "", "Only meetings organized by this email")
	cmd.Flags().IntVar(&meetingsLimit, "limit", 50, "Maximum rows to return (0 = all)")
	cmd.Flags().StringVarP(&meetingsOutput, "output", "o", "", "Output format: text, json, yaml")

	return cmd
}

func runMeetingsList(ctx context.Context) error {
	cfg, err := config.LoadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newCommandLogger(cfg)

	pool, err := connectToDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(pool)

	repo := storage.NewRepository(pool, logger)
	meetings, err := repo.ListMeetings(ctx, storage.ListFilter{
		WithTranscript: meetingsWithTranscript,
		Organizer:      meetingsync.NormalizeEmail(meetingsOrganizer),
		Limit:          meetingsLimit,
	})
	if err != nil {
		return err
	}

	format := meetingsOutput
	if format == "" {
		format = string(cfg.OutputFormat)
	}
	switch format {
	case string(config.OutputFormatJSON):
		return printJSON(meetings)
	case string(config.OutputFormatYAML):
		return printYAML(meetings)
	}

	if len(meetings) == 0 {
		fmt.Println("No meetings found.")
		return nil
	}

	for _, m := range meetings {
		marker := " "
		if m.HasTranscript {
			marker = "T"
		}
		fmt.Printf("[%s] %6d  %s  %-30s  %s\n",
			marker, m.ID, m.StartsAt.Format("2006-01-02 15:04"), m.OrganizerEmail, m.Title)
	}
	fmt.Printf("\n%d meeting(s)\n", len(meetings))

	return nil
}
