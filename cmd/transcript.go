package cmd

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/recap-cli/config"
	"github.com/otherjamesbrown/recap-cli/pkg/db"
	"github.com/otherjamesbrown/recap-cli/pkg/meetingsync/storage"
	"github.com/otherjamesbrown/recap-cli/pkg/transcript"
)

var transcriptOutput string

func newMeetingsTranscriptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcript <event-id>",
		Short: "Download and display a meeting's transcript",
		Long: `Download the transcript of a synced meeting and print it as
speaker-attributed text.

The meeting must have been synced with a resolved conferencing resource and an
available transcript.

Examples:
  recap meetings transcript AAMkAGI1...
  recap meetings transcript AAMkAGI1... --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeetingsTranscript(cmd.Context(), args[0])
		},
	}

	cmd.Flags().StringVarP(&transcriptOutput, "output", "o", "", "Output format: text, json, yaml")

	return cmd
}

func runMeetingsTranscript(ctx context.Context, eventID string) error {
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
	meeting, err := repo.GetMeetingByEventID(ctx, eventID)
	if err != nil {
		return err
	}
	if meeting.OnlineMeetingID == "" {
		return fmt.Errorf("meeting %d has no resolved conferencing resource", meeting.ID)
	}
	if !meeting.HasTranscript {
		return fmt.Errorf("meeting %d has no transcript", meeting.ID)
	}

	client, err := newGraphClient(cfg, logger)
	if err != nil {
		return err
	}

	descriptors, err := client.ListTranscripts(ctx, meeting.OrganizerEmail, meeting.OnlineMeetingID)
	if err != nil {
		return fmt.Errorf("listing transcripts: %w", err)
	}
	if len(descriptors) == 0 {
		return fmt.Errorf("no transcripts available for meeting %d", meeting.ID)
	}

	// Newest transcript wins when a meeting has several.
	latest := descriptors[0]
	for _, d := range descriptors[1:] {
		if d.CreatedAt.After(latest.CreatedAt) {
			latest = d
		}
	}

	content, err := client.TranscriptContent(ctx, meeting.OrganizerEmail, meeting.OnlineMeetingID, latest.ID)
	if err != nil {
		return err
	}

	result, err := transcript.ParseVTT(bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("parsing transcript: %w", err)
	}

	format := transcriptOutput
	if format == "" {
		format = string(cfg.OutputFormat)
	}
	switch format {
	case string(config.OutputFormatJSON):
		return printJSON(result)
	case string(config.OutputFormatYAML):
		return printYAML(result)
	}

	fmt.Printf("%s (%s, %d speakers, %ds)\n\n",
		meeting.Title, meeting.StartsAt.Format("2006-01-02 15:04"),
		len(result.Speakers), result.DurationSeconds)
	for _, s := range result.Segments {
		ts := time.Duration(s.StartMs) * time.Millisecond
		if s.Speaker != "" {
			fmt.Printf("[%s] %s: %s\n", ts.Round(time.Second), s.Speaker, s.Text)
		} else {
			fmt.Printf("[%s] %s\n", ts.Round(time.Second), s.Text)
		}
	}

	return nil
}
