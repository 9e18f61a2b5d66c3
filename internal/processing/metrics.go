package processing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	renditionsStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strongbox_renditions_stored_total",
			Help: "Derived renditions written, by kind.",
		},
		[]string{"kind"},
	)

	renditionsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strongbox_renditions_skipped_total",
			Help: "Files left without image renditions, by reason.",
		},
		[]string{"reason"},
	)

	quotaReleased = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strongbox_quota_released_bytes_total",
			Help: "Bytes returned to owner quotas after deletion.",
		},
	)
)
