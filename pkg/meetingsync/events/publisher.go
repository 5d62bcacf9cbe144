// Package events provides event publishing for the meeting sync pipeline.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/otherjamesbrown/recap-cli/pkg/logging"
	"github.com/otherjamesbrown/recap-cli/pkg/meetingsync"
)

// Redis channels for sync events.
const (
	ChannelMeetingSynced = "events.meeting.synced"
	ChannelSyncCompleted = "events.sync.completed"
)

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventType     string    `json:"event_type"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID *string   `json:"correlation_id,omitempty"`
	Source        string    `json:"source"`
	Version       string    `json:"version"`
}

// NewBaseEvent creates a BaseEvent with sensible defaults.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Source:    "recap",
		Version:   "1.0",
	}
}

// MeetingSyncedEvent is published when a meeting is upserted by a sync pass.
type MeetingSyncedEvent struct {
	BaseEvent

	MeetingID      int64  `json:"meeting_id"`
	EventID        string `json:"event_id"`
	ResourceID     string `json:"resource_id,omitempty"`
	Title          string `json:"title,omitempty"`
	OrganizerEmail string `json:"organizer_email"`
	HasTranscript  bool   `json:"has_transcript"`
	AttendeeCount  int    `json:"attendee_count"`
}

// SyncCompletedEvent is published when a sync pass reaches a terminal status.
type SyncCompletedEvent struct {
	BaseEvent

	RunID     string `json:"run_id"`
	Principal string `json:"principal"`
	Status    string `json:"status"`

	EventsFetched     int `json:"events_fetched"`
	OnlineMeetings    int `json:"online_meetings"`
	WithTranscript    int `json:"with_transcript"`
	OrganizerFailures int `json:"organizer_failures"`
	PersistFailures   int `json:"persist_failures"`

	DurationSeconds float64 `json:"duration_seconds"`
}

// Publisher publishes sync events to Redis. It implements
// meetingsync.Publisher.
type Publisher struct {
	client *redis.Client
	logger logging.Logger
}

// PublisherConfig holds Redis connection configuration.
type PublisherConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewPublisher creates a new event publisher.
func NewPublisher(client *redis.Client, logger logging.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger.With(logging.F("component", "event_publisher")),
	}
}

// NewPublisherFromConfig creates a publisher with a new Redis connection.
func NewPublisherFromConfig(cfg PublisherConfig, logger logging.Logger) (*Publisher, error) {
	return newPublisherFor(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), cfg.Password, cfg.DB, logger)
}

// NewPublisherFromAddr creates a publisher from a host:port address.
func NewPublisherFromAddr(addr, password string, dbNum int, logger logging.Logger) (*Publisher, error) {
	return newPublisherFor(addr, password, dbNum, logger)
}

func newPublisherFor(addr, password string, dbNum int, logger logging.Logger) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       dbNum,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewPublisher(client, logger), nil
}

// MeetingSynced publishes an event for an upserted meeting.
func (p *Publisher) MeetingSynced(ctx context.Context, meetingID int64, m *meetingsync.MatchedMeeting) error {
	event := MeetingSyncedEvent{
		BaseEvent:      NewBaseEvent("meeting.synced"),
		MeetingID:      meetingID,
		EventID:        m.EventID,
		ResourceID:     m.ResourceID,
		Title:          m.Title,
		OrganizerEmail: m.OrganizerEmail,
		HasTranscript:  m.HasTranscript,
		AttendeeCount:  len(m.Attendees),
	}

	return p.publish(ctx, ChannelMeetingSynced, event)
}

// SyncCompleted publishes a terminal event for a sync pass.
func (p *Publisher) SyncCompleted(ctx context.Context, run *meetingsync.SyncRun) error {
	event := SyncCompletedEvent{
		BaseEvent:         NewBaseEvent("sync.completed"),
		RunID:             run.ID,
		Principal:         run.Principal,
		Status:            run.Status,
		EventsFetched:     run.Counters.EventsFetched,
		OnlineMeetings:    run.Counters.OnlineMeetings,
		WithTranscript:    run.Counters.WithTranscript,
		OrganizerFailures: run.Counters.OrganizerFailures,
		PersistFailures:   run.Counters.PersistFailures,
		DurationSeconds:   run.Counters.Duration.Seconds(),
	}

	return p.publish(ctx, ChannelSyncCompleted, event)
}

// publish serializes and publishes an event to Redis.
func (p *Publisher) publish(ctx context.Context, channel string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		p.logger.Error("Failed to publish event",
			logging.Err(err),
			logging.F("channel", channel))
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	p.logger.Debug("Event published",
		logging.F("channel", channel),
		logging.F("payload_size", len(data)))

	return nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
