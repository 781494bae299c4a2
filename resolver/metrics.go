package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	samplesResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pywhere_samples_resolved_total",
		Help: "Samples attributed to a profiled source location",
	})
	samplesUnattributed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pywhere_samples_unattributed_total",
		Help: "Samples whose frame chain contained no profiled file",
	})
	framesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pywhere_frames_skipped_total",
		Help: "Frames excluded before consulting the trace filter",
	}, []string{"reason"})
)
