package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "faceclock",
		Name:      "match_attempts_total",
		Help:      "Total identification attempts by outcome",
	}, []string{"outcome"})

	MatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "faceclock",
		Name:      "match_duration_seconds",
		Help:      "Duration of a gallery scan for one probe descriptor",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	})

	GallerySize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "faceclock",
		Name:      "gallery_size",
		Help:      "Number of persons in the in-memory descriptor gallery",
	})

	AttendanceEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "faceclock",
		Name:      "attendance_events_total",
		Help:      "Total attendance events recorded by type",
	}, []string{"type"})

	AttendanceSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "faceclock",
		Name:      "attendance_suppressed_total",
		Help:      "Total checks rejected by the duplicate-suppression window",
	})

	SessionsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "faceclock",
		Name:      "sessions_issued_total",
		Help:      "Total sessions issued via login or OAuth",
	})

	SessionsRotated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "faceclock",
		Name:      "sessions_rotated_total",
		Help:      "Total session identifier rotations on refresh",
	})

	SessionsRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "faceclock",
		Name:      "sessions_revoked_total",
		Help:      "Total sessions revoked by logout, logout-all or deactivation",
	})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "faceclock",
		Name:      "cache_lookups_total",
		Help:      "Cache lookups by cache name and result",
	}, []string{"cache", "result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "faceclock",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "faceclock",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
