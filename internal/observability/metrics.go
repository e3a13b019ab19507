// Package observability holds the process-wide Prometheus collectors.
// Components take no dependency on the registry directly — they call the
// package-level vars, mirroring how the rest of this codebase threads
// *slog.Logger explicitly but leaves metrics as shared process state.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts every HTTP request the control server serves.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlnabridge_http_requests_total",
			Help: "The total number of processed HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration tracks HTTP handler latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dlnabridge_http_request_duration_seconds",
			Help:    "The latency of the HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ActiveStreams is the current count of in-flight StreamProxy copies.
	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dlnabridge_active_streams_current",
			Help: "The current number of active media streams",
		},
	)

	// ActiveSessions is the current size of the PlaybackTracker session index.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dlnabridge_active_sessions_current",
			Help: "The current number of tracked playback sessions",
		},
	)

	// SsdpSearchesTotal counts received M-SEARCH requests by search target.
	SsdpSearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlnabridge_ssdp_searches_total",
			Help: "The total number of M-SEARCH requests handled, by search target",
		},
		[]string{"search_target"},
	)

	// SsdpNotifiesTotal counts outbound ssdp:alive/ssdp:byebye NOTIFY datagrams.
	SsdpNotifiesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlnabridge_ssdp_notifies_total",
			Help: "The total number of SSDP NOTIFY datagrams sent, by NTS value",
		},
		[]string{"nts"},
	)

	// BrowseRequestDuration tracks ContentDirectory Browse handling latency.
	BrowseRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dlnabridge_browse_duration_seconds",
			Help:    "The latency of ContentDirectory Browse requests",
			Buckets: prometheus.DefBuckets,
		},
	)

	// StreamBytesTotal counts bytes copied by the StreamProxy byte pump.
	StreamBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dlnabridge_stream_bytes_total",
			Help: "The total number of bytes streamed to renderers",
		},
	)

	// PlaybackDecisionsTotal counts direct-play vs transcode decisions.
	PlaybackDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlnabridge_playback_decisions_total",
			Help: "The total number of direct-play/transcode decisions made, by decision",
		},
		[]string{"decision"},
	)
)
