package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/recap-cli/config"
	"github.com/otherjamesbrown/recap-cli/pkg/db"
	"github.com/otherjamesbrown/recap-cli/pkg/logging"
	"github.com/otherjamesbrown/recap-cli/pkg/meetingsync"
	"github.com/otherjamesbrown/recap-cli/pkg/meetingsync/events"
	"github.com/otherjamesbrown/recap-cli/pkg/meetingsync/storage"
)

// Sync command flags
var (
	syncPrincipal         string
	syncDays              int
	syncFrom              string
	syncTo                string
	syncRole              string
	syncRequireTranscript bool
	syncLimit             int
	syncMaxEvents         int
	syncConcurrency       int
	syncOutput            string
)

// SyncCommandDeps holds the dependencies for the sync command.
type SyncCommandDeps struct {
	LoadConfig func() (*config.CLIConfig, error)
}

// DefaultSyncDeps returns the default dependencies for production use.
func DefaultSyncDeps() *SyncCommandDeps {
	return &SyncCommandDeps{
		LoadConfig: func() (*config.CLIConfig, error) { return config.LoadConfig("") },
	}
}

// NewSyncCommand creates the sync command.
func NewSyncCommand() *cobra.Command {
	deps := DefaultSyncDeps()

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile calendar meetings into the local store",
		Long: `Reconcile online meetings from the remote calendar into the local store.

Fetches the principal's calendar over the requested window, links each online
meeting to its conferencing resource by join URL, probes for transcripts, and
upserts meetings and participants. Re-running sync never duplicates rows.

Failures are scoped: a failing organizer or meeting is counted and skipped
while the rest of the pass completes. Only credential or calendar-fetch
failures abort the pass.

Examples:
  # Sync the configured principal's last year of meetings
  recap sync

  # Sync a specific user over the last 30 days
  recap sync --principal alice@example.com --days 30

  # Only meetings the principal organized, that have a transcript
  recap sync --role organizer --require-transcript

  # Machine-readable summary
  recap sync --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), deps)
		},
	}

	cmd.Flags().StringVarP(&syncPrincipal, "principal", "p", "", "User (UPN or object ID) whose calendar to sync (default from config)")
	cmd.Flags().IntVar(&syncDays, "days", 0, "Trailing window in days (default from config)")
	cmd.Flags().StringVar(&syncFrom, "from", "", "Window start (YYYY-MM-DD), overrides --days")
	cmd.Flags().StringVar(&syncTo, "to", "", "Window end (YYYY-MM-DD), defaults to now")
	cmd.Flags().StringVar(&syncRole, "role", "all", "Role filter: all, organizer, attendee")
	cmd.Flags().BoolVar(&syncRequireTranscript, "require-transcript", false, "Keep only meetings with a transcript")
	cmd.Flags().IntVar(&syncLimit, "limit", 0, "Cap the number of meetings kept (0 = no cap)")
	cmd.Flags().IntVar(&syncMaxEvents, "max-events", 0, "Cap the number of events fetched (default from config)")
	cmd.Flags().IntVar(&syncConcurrency, "concurrency", 0, "Parallel organizer groups (default from config)")
	cmd.Flags().StringVarP(&syncOutput, "output", "o", "", "Output format: text, json, yaml")

	return cmd
}

func runSync(ctx context.Context, deps *SyncCommandDeps) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newCommandLogger(cfg)

	opts, err := buildSyncOptions(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Sync.Timeout)
	defer cancel()

	client, err := newGraphClient(cfg, logger)
	if err != nil {
		return err
	}

	pool, err := connectToDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(pool)

	if _, err := db.RegisterPoolStatsCollector(pool, "recap"); err != nil {
		logger.Debug("pool metrics already registered", logging.Err(err))
	}

	metrics := meetingsync.NewMetrics("recap")
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Debug("sync metrics already registered", logging.Err(err))
	}

	repo := storage.NewRepository(pool, logger)

	orchCfg := meetingsync.OrchestratorConfig{
		Calendar:     client,
		Conferencing: client,
		Transcripts:  client,
		Reconciler:   repo,
		Runs:         repo,
		Logger:       logger,
		Metrics:      metrics,
	}

	// Event publishing is optional: no Redis address, no publisher.
	if cfg.Redis.Addr != "" {
		publisher, err := events.NewPublisherFromAddr(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Warn("event publishing disabled", logging.Err(err))
		} else {
			defer publisher.Close()
			orchCfg.Publisher = publisher
		}
	}

	orchestrator, err := meetingsync.NewOrchestrator(orchCfg)
	if err != nil {
		return err
	}

	result, err := orchestrator.Sync(ctx, opts)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	return renderSyncResult(cfg, result)
}

// buildSyncOptions merges flags and config into sync options.
func buildSyncOptions(cfg *config.CLIConfig) (meetingsync.Options, error) {
	opts := meetingsync.Options{
		Principal:            syncPrincipal,
		Role:                 meetingsync.RoleFilter(syncRole),
		RequireTranscript:    syncRequireTranscript,
		Limit:                syncLimit,
		MaxEvents:            syncMaxEvents,
		OrganizerConcurrency: syncConcurrency,
	}

	if opts.Principal == "" {
		opts.Principal = cfg.Graph.Principal
	}
	if opts.Principal == "" {
		return opts, fmt.Errorf("no principal: pass --principal or set graph.principal in config")
	}

	if opts.MaxEvents == 0 {
		opts.MaxEvents = cfg.Sync.MaxEvents
	}
	if opts.OrganizerConcurrency == 0 {
		opts.OrganizerConcurrency = cfg.Sync.OrganizerConcurrency
	}
	opts.MeetingConcurrency = cfg.Sync.MeetingConcurrency

	now := time.Now().UTC()
	opts.WindowEnd = now
	if syncTo != "" {
		end, err := time.Parse("2006-01-02", syncTo)
		if err != nil {
			return opts, fmt.Errorf("invalid --to date %q: %w", syncTo, err)
		}
		opts.WindowEnd = end
	}

	switch {
	case syncFrom != "":
		start, err := time.Parse("2006-01-02", syncFrom)
		if err != nil {
			return opts, fmt.Errorf("invalid --from date %q: %w", syncFrom, err)
		}
		opts.WindowStart = start
	case syncDays > 0:
		opts.WindowStart = opts.WindowEnd.AddDate(0, 0, -syncDays)
	default:
		days := cfg.Sync.WindowDays
		if days <= 0 {
			days = config.DefaultWindowDays
		}
		opts.WindowStart = opts.WindowEnd.AddDate(0, 0, -days)
	}

	return opts, nil
}

// renderSyncResult prints the pass summary in the requested format.
func renderSyncResult(cfg *config.CLIConfig, result *meetingsync.Result) error {
	format := syncOutput
	if format == "" {
		format = string(cfg.OutputFormat)
	}
	switch format {
	case string(config.OutputFormatJSON):
		return printJSON(result)
	case string(config.OutputFormatYAML):
		return printYAML(result)
	}

	c := result.Counters
	fmt.Printf("Sync %s completed in %s\n", result.RunID, c.Duration.Round(time.Millisecond))
	fmt.Printf("  Events fetched:     %d\n", c.EventsFetched)
	fmt.Printf("  Online meetings:    %d\n", c.OnlineMeetings)
	fmt.Printf("  Organizers:         %d\n", c.Organizers)
	fmt.Printf("  With transcript:    %d\n", c.WithTranscript)
	fmt.Printf("  Unresolved:         %d\n", c.Unresolved)
	if c.MissingOrganizer > 0 {
		fmt.Printf("  Missing organizer:  %d\n", c.MissingOrganizer)
	}
	if c.OrganizerFailures > 0 || c.PersistFailures > 0 {
		fmt.Printf("  Failures:           %d organizer, %d persist\n", c.OrganizerFailures, c.PersistFailures)
	}
	fmt.Printf("  Meetings persisted: %d\n", len(result.Meetings))

	for _, m := range result.Meetings {
		marker := " "
		if m.HasTranscript {
			marker = "T"
		}
		fmt.Printf("  [%s] %s  %s  %s\n", marker, m.Start.Format("2006-01-02 15:04"), m.OrganizerEmail, m.Title)
	}

	return nil
}
