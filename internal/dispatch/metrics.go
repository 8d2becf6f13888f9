package dispatch

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the dispatcher's diagnostic counters on a per-client
// registry, so two clients in one process never collide.
type Metrics struct {
	registry *prometheus.Registry

	CommandsSent       prometheus.Counter
	CommandsTimedOut   prometheus.Counter
	ResponsesMatched   prometheus.Counter
	ResponsesUnmatched prometheus.Counter
	EventsQueued       prometheus.Counter
	EventsDropped      prometheus.Counter
}

// NewMetrics creates and registers the dispatcher counters.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		CommandsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simplex_commands_sent_total",
			Help: "Total number of commands written to the transport",
		}),
		CommandsTimedOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simplex_commands_timed_out_total",
			Help: "Total number of commands that expired before a response arrived",
		}),
		ResponsesMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simplex_responses_matched_total",
			Help: "Total number of responses matched to a pending command",
		}),
		ResponsesUnmatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simplex_responses_unmatched_total",
			Help: "Total number of correlated responses with no pending command (stale or duplicate), dropped",
		}),
		EventsQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simplex_events_queued_total",
			Help: "Total number of unsolicited events delivered to the event queue",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simplex_events_dropped_total",
			Help: "Total number of events dropped because the event queue stayed full past the stall timeout",
		}),
	}

	registry.MustRegister(
		m.CommandsSent,
		m.CommandsTimedOut,
		m.ResponsesMatched,
		m.ResponsesUnmatched,
		m.EventsQueued,
		m.EventsDropped,
	)

	return m
}

// Registry exposes the counters for scraping.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
