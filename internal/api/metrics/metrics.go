// Package metrics defines and registers the Prometheus metrics for the
// bidding engine. It is the single source of truth for metric names,
// labels, and help strings; everything registers with the default
// registry via promauto at init time.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bidding"

// BidsAcceptedTotal counts committed bids.
// Labels:
//   - origin: "human" or "proxy"
var BidsAcceptedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bids_accepted_total",
		Help:      "Total number of bids accepted and appended to the ledger.",
	},
	[]string{"origin"},
)

// BidsRejectedTotal counts rejected bid attempts.
// Labels:
//   - kind: rejection kind (e.g. "BidTooLow", "Busy")
//   - origin: "human" or "proxy"
var BidsRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bids_rejected_total",
		Help:      "Total number of bid attempts rejected, by kind.",
	},
	[]string{"kind", "origin"},
)

// AuctionExtensionsTotal counts soft-close extensions applied.
var AuctionExtensionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auction_extensions_total",
		Help:      "Total number of soft-close clock extensions.",
	},
)

// ProxyExecutionsTotal counts auto-bid executions by the scheduler.
// Labels:
//   - strategy: "snipe" or "incremental"
//   - outcome: "accepted", "rejected", or "exhausted"
var ProxyExecutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proxy_executions_total",
		Help:      "Total number of proxy bid executions, by strategy and outcome.",
	},
	[]string{"strategy", "outcome"},
)

// BidProcessingDuration measures SubmitBid latency including lock wait.
var BidProcessingDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "bid_processing_duration_seconds",
		Help:      "Duration of bid submission from entry to commit or rejection.",
		Buckets:   prometheus.DefBuckets,
	},
)
