package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Viewer registry metrics
var (
	// ConnectedViewers tracks the number of active viewer channels
	ConnectedViewers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "screencast_connected_viewers",
			Help: "Number of active viewer channels",
		},
	)

	// ViewerRegistrationsTotal tracks registration attempts by result
	ViewerRegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screencast_viewer_registrations_total",
			Help: "Viewer registrations by result (ok, rejected, failed)",
		},
		[]string{"result"},
	)

	// ViewerEvictionsTotal tracks channels removed because a write failed
	ViewerEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screencast_viewer_evictions_total",
			Help: "Viewer channels evicted after a failed write, by message kind",
		},
		[]string{"kind"},
	)

	// MessagesSentTotal tracks messages handed to viewer sinks
	MessagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screencast_messages_sent_total",
			Help: "Messages delivered to viewer sinks by kind",
		},
		[]string{"kind"},
	)

	// SnapshotsPublishedTotal tracks presenter snapshot pushes
	SnapshotsPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "screencast_snapshots_published_total",
			Help: "Snapshots published by the presenter",
		},
	)

	// SnapshotSizeBytes tracks the encoded size of published snapshots
	SnapshotSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "screencast_snapshot_size_bytes",
			Help:    "Encoded size of published snapshots",
			Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10),
		},
	)
)

// Access code metrics
var (
	// AccessCodeValidationsTotal tracks validation outcomes by reason
	AccessCodeValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screencast_access_code_validations_total",
			Help: "Access code validations by outcome",
		},
		[]string{"outcome"},
	)

	// AccessCodesIssuedTotal tracks issued access codes
	AccessCodesIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "screencast_access_codes_issued_total",
			Help: "Access codes issued",
		},
	)
)
