// Package metrics exposes Prometheus collectors for the session engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedEventsPublished counts change events published to the feed,
	// labeled by table and operation.
	FeedEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tabshare",
		Subsystem: "feed",
		Name:      "events_published_total",
		Help:      "Change events published to the feed.",
	}, []string{"table", "op"})

	// FeedEventsApplied counts change events applied to a client's local
	// caches, labeled by table and operation. Duplicates absorbed by key
	// reconciliation are still counted here.
	FeedEventsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tabshare",
		Subsystem: "feed",
		Name:      "events_applied_total",
		Help:      "Change events applied to local client caches.",
	}, []string{"table", "op"})

	// ClaimMutations counts claim and unclaim requests, labeled by action.
	ClaimMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tabshare",
		Subsystem: "ledger",
		Name:      "claim_mutations_total",
		Help:      "Claim and unclaim operations accepted by the claim service.",
	}, []string{"action"})

	// JoinCodeRetries counts retried join-code generations after a
	// uniqueness collision.
	JoinCodeRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tabshare",
		Subsystem: "registry",
		Name:      "join_code_retries_total",
		Help:      "Join code regenerations caused by uniqueness collisions.",
	})

	// SettlementsComputed counts settlement computations.
	SettlementsComputed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tabshare",
		Subsystem: "settlement",
		Name:      "computed_total",
		Help:      "Settlements computed on finished sessions.",
	})

	// SettlementDuration observes how long a settlement computation takes.
	SettlementDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tabshare",
		Subsystem: "settlement",
		Name:      "duration_seconds",
		Help:      "Duration of settlement computations.",
		Buckets:   prometheus.DefBuckets,
	})
)
