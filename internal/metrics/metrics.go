// Package metrics exposes the relay's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsTotal counts command events by kind (create, update) and
	// outcome (noop, logged, cached, failed).
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "termrelay",
			Name:      "events_total",
			Help:      "Command events received, by kind and outcome.",
		},
		[]string{"kind", "status"},
	)

	// SyncFailuresTotal counts upstream sync failures by failure kind.
	SyncFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "termrelay",
			Name:      "sync_failures_total",
			Help:      "Upstream create/update calls that returned a failure.",
		},
		[]string{"kind"},
	)

	// JournalWritesTotal counts records persisted to the local journal.
	JournalWritesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "termrelay",
			Name:      "journal_writes_total",
			Help:      "Entries written to the local journal.",
		},
	)
)
