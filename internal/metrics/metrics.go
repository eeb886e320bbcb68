package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_deliveries_total",
			Help: "Delivery attempts by method and outcome",
		},
		[]string{"method", "outcome"}, // sms|voice , delivered|failed
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_requests_total",
			Help: "Notification requests by terminal state",
		},
		[]string{"state"},
	)

	PhoneCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_phone_cache_total",
			Help: "Phone cache lookups by source and result",
		},
		[]string{"source", "result"}, // driver|custom_field , hit|miss
	)

	LedgerCommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_ledger_commits_total",
			Help: "Quota ledger commits by target",
		},
		[]string{"target"}, // customer|package|none|error
	)

	RecorderFlushedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifier_recorder_flushed_total",
			Help: "Delivery rows written to the reporting store",
		},
	)
)

var registerOnce sync.Once

// MustRegister registers all collectors once; later calls are no-ops.
func MustRegister(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(
			DeliveriesTotal,
			RequestsTotal,
			PhoneCacheTotal,
			LedgerCommitsTotal,
			RecorderFlushedTotal,
		)
	})
}
