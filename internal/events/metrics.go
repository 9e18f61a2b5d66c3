package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strongbox_events_published_total",
			Help: "Events accepted onto the dispatch queue.",
		},
		[]string{"kind"},
	)

	eventsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strongbox_events_delivered_total",
			Help: "Events handled successfully by a consumer.",
		},
		[]string{"consumer", "kind"},
	)

	eventsRetried = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strongbox_events_retried_total",
			Help: "Consumer attempts beyond the first.",
		},
		[]string{"consumer"},
	)

	eventsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strongbox_events_failed_total",
			Help: "Events a consumer gave up on.",
		},
		[]string{"consumer", "kind"},
	)

	eventsSuperseded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strongbox_events_superseded_total",
			Help: "File change events cancelled or skipped because the file was deleted.",
		},
	)

	eventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strongbox_events_dropped_total",
			Help: "Events rejected at publish.",
		},
		[]string{"reason"},
	)
)
