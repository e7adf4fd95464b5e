package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scanwatch"

var (
	// Status channel metrics.
	StatusEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_events_total",
		Help:      "Count of status events received over the push channel.",
	}, []string{"status"})

	EventParseFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_parse_failures_total",
		Help:      "Count of malformed channel payloads dropped.",
	})

	ChannelReconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "channel_reconnects_total",
		Help:      "Count of status channel reconnection attempts.",
	})

	// History fetch metrics.
	HistoryFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "history_fetches_total",
		Help:      "Count of history fetches by trigger and outcome.",
	}, []string{"trigger", "outcome"})

	HistorySize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "history_size",
		Help:      "Number of scan records currently held in the history store.",
	})
)
