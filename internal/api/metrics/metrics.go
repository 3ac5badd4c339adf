// Package metrics defines and registers all custom Prometheus metrics for the
// presence service. It is the single source of truth for metric names, labels,
// and help strings; metrics register with the default registry at import time
// via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "presence"

// ── Inbound message metrics ───────────────────────────────────────────────────

// MessagesReceivedTotal counts every message delivered to the subscriber,
// before any filtering.
var MessagesReceivedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_received_total",
		Help:      "Total number of inbound broker messages received by the subscriber.",
	},
)

// MessagesDiscardedTotal counts messages dropped by the subscriber pipeline.
// Label:
//   - reason: "bad_topic", "self", "parse_error", "unauthorized"
var MessagesDiscardedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_discarded_total",
		Help:      "Total number of inbound messages discarded, by reason.",
	},
	[]string{"reason"},
)

// PeerUpdatesTotal counts peer table upserts from authorized location messages.
var PeerUpdatesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "peer_updates_total",
		Help:      "Total number of peer table upserts.",
	},
)

// ── Outbound publish metrics ──────────────────────────────────────────────────

// PublishesTotal counts successful publishes.
// Label:
//   - kind: "location", "presence_online", "presence_offline"
var PublishesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "publishes_total",
		Help:      "Total number of messages accepted by the broker, by kind.",
	},
	[]string{"kind"},
)

// PublishErrorsTotal counts publishes the broker rejected. These are dropped,
// not retried; the next periodic trigger supersedes them.
var PublishErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "publish_errors_total",
		Help:      "Total number of failed publish attempts, by kind.",
	},
	[]string{"kind"},
)

// ── Liveness metrics ──────────────────────────────────────────────────────────

// LivePeers tracks the current number of peer table entries.
var LivePeers = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_peers",
		Help:      "Current number of live peers in the peer table.",
	},
)

// ReaperEvictionsTotal counts peer table entries removed by staleness expiry.
var ReaperEvictionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reaper_evictions_total",
		Help:      "Total number of peer table entries evicted as stale.",
	},
)

// ReconnectsTotal counts successful broker reconnects after a transport drop.
var ReconnectsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconnects_total",
		Help:      "Total number of successful broker reconnects.",
	},
)
