// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons for FramesDroppedTotal.
const (
	DropTruncated       = "truncated"
	DropUnsupportedType = "unsupported_ethertype"
	DropMalformed       = "malformed"
)

var (
	// FramesReceivedTotal counts frames read from the capture source
	FramesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowsniff_frames_received_total",
			Help: "Total number of frames read from the capture source",
		},
		[]string{"interface"},
	)

	// FramesDroppedTotal counts frames skipped by the decoder
	FramesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowsniff_frames_dropped_total",
			Help: "Total number of frames skipped during decoding",
		},
		[]string{"interface", "reason"},
	)

	// FramesSnappedTotal counts frames cut short by the capture snap length
	FramesSnappedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowsniff_frames_snapped_total",
			Help: "Total number of frames whose captured length is below the wire length",
		},
		[]string{"interface"},
	)

	// FramesClassifiedTotal counts frames counted against a flow
	FramesClassifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowsniff_frames_classified_total",
			Help: "Total number of IPv4 frames classified into flows",
		},
		[]string{"interface", "protocol"},
	)

	// FlowsActive tracks the number of distinct flows in the table
	FlowsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flowsniff_flows_active",
			Help: "Number of distinct flows observed in the session",
		},
		[]string{"interface"},
	)

	// ReportsRenderedTotal counts rendered reports (periodic and final)
	ReportsRenderedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowsniff_reports_rendered_total",
			Help: "Total number of flow reports rendered",
		},
		[]string{"interface", "kind"},
	)

	// SinkErrorsTotal counts report publish failures by sink
	SinkErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowsniff_sink_errors_total",
			Help: "Total number of report sink publish errors",
		},
		[]string{"sink"},
	)

	// ReportLatencySeconds measures snapshot-to-publish latency
	ReportLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowsniff_report_latency_seconds",
			Help:    "Latency of rendering and publishing a report in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 100µs to ~3s
		},
		[]string{"interface"},
	)
)
