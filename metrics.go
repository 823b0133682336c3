package quad

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const errTypeLabel = "error_type"

var (
	buildsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quad_builds_total",
		Help: "The number of quadtree builds.",
	})

	buildErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quad_build_errors_total",
		Help: "The errors that occurred while building a quadtree.",
	}, []string{
		errTypeLabel,
	})

	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quad_build_duration_seconds",
		Help:    "The time spent building a quadtree.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	nodesAllocated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quad_nodes_allocated_total",
		Help: "The number of quadtree nodes allocated by builders.",
	})

	leavesBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quad_leaves_built_total",
		Help: "The number of leaf nodes produced by builders.",
	})

	nodesReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quad_nodes_released_total",
		Help: "The number of quadtree nodes released.",
	})
)

func observeBuild(start time.Time, err error) {
	buildsTotal.Inc()
	buildDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		buildErrors.With(prometheus.Labels{
			errTypeLabel: errors.Type(err),
		}).Inc()
	}
}
