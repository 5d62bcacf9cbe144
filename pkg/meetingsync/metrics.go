package meetingsync

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for sync passes.
type Metrics struct {
	eventsFetched     prometheus.Counter
	onlineMeetings    prometheus.Counter
	transcriptsFound  prometheus.Counter
	unresolved        prometheus.Counter
	organizerFailures prometheus.Counter
	persistFailures   prometheus.Counter
	passDuration      prometheus.Histogram
}

// NewMetrics creates the sync instruments under the given namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		eventsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sync", Name: "events_fetched_total",
			Help: "Calendar events fetched across all sync passes",
		}),
		onlineMeetings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sync", Name: "online_meetings_total",
			Help: "Events retained as online meetings",
		}),
		transcriptsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sync", Name: "transcripts_found_total",
			Help: "Meetings with transcript evidence",
		}),
		unresolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sync", Name: "unresolved_total",
			Help: "Meetings whose conferencing resource could not be resolved",
		}),
		organizerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sync", Name: "organizer_failures_total",
			Help: "Organizer groups that failed resolve or probe",
		}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sync", Name: "persist_failures_total",
			Help: "Meetings whose persistence write failed",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "sync", Name: "pass_duration_seconds",
			Help:    "Wall-clock duration of sync passes",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

// Register registers the instruments with the given registerer, tolerating
// duplicate registration.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.eventsFetched, m.onlineMeetings, m.transcriptsFound,
		m.unresolved, m.organizerFailures, m.persistFailures, m.passDuration,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// observe records one pass's counters.
func (m *Metrics) observe(c *Counters) {
	if m == nil {
		return
	}
	m.eventsFetched.Add(float64(c.EventsFetched))
	m.onlineMeetings.Add(float64(c.OnlineMeetings))
	m.transcriptsFound.Add(float64(c.WithTranscript))
	m.unresolved.Add(float64(c.Unresolved))
	m.organizerFailures.Add(float64(c.OrganizerFailures))
	m.persistFailures.Add(float64(c.PersistFailures))
	m.passDuration.Observe(c.Duration.Seconds())
}
