// Package metrics registers the Prometheus collectors rtspd exposes on its
// HTTP admin surface and the helpers that update them from the request path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveSessions is the number of control connections currently being
	// served by a session, counted from accept, whether or not SETUP has run.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rtspd_active_sessions",
		Help: "Number of active streaming sessions",
	})

	// SessionsTotal counts sessions by how they ended.
	SessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtspd_sessions_total",
		Help: "Total number of sessions, by terminal state",
	}, []string{"outcome"})

	// RequestsTotal counts decoded control requests by method.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtspd_requests_total",
		Help: "Total control requests handled, by method",
	}, []string{"method"})

	// ParseErrors counts control messages that failed to decode.
	ParseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rtspd_parse_errors_total",
		Help: "Total control messages that failed to parse",
	})

	// PacketsSent counts RTP packets emitted, split into single-packet and
	// fragmented emissions.
	PacketsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtspd_rtp_packets_total",
		Help: "Total RTP packets sent, by emission kind",
	}, []string{"kind"})

	// BytesSent counts payload bytes written to the media UDP socket.
	BytesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rtspd_rtp_bytes_total",
		Help: "Total RTP payload bytes sent",
	})

	// PacingTickDuration records how long one pacer tick took to read, build,
	// and send its packets, to catch ticks slow enough to threaten pacing.
	PacingTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rtspd_pacing_tick_seconds",
		Help:    "Duration of one pacing tick (read + fragment + send)",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	// RateLimitRejections counts control connections rejected at accept by
	// the per-IP rate limiter.
	RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rtspd_rate_limit_rejections_total",
		Help: "Total connections rejected by rate limiting",
	})

	// SessionLimitRejections counts control connections rejected at accept
	// because the server already has its maximum concurrent sessions.
	SessionLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rtspd_session_limit_rejections_total",
		Help: "Total connections rejected by session limits",
	})
)

// RecordSessionStart marks a new session as active.
func RecordSessionStart() {
	ActiveSessions.Inc()
}

// RecordSessionEnd marks a session as no longer active and records its
// terminal outcome ("eof", "shutdown", or "error").
func RecordSessionEnd(outcome string) {
	ActiveSessions.Dec()
	SessionsTotal.WithLabelValues(outcome).Inc()
}

// RecordRequest records one successfully dispatched control request.
func RecordRequest(method string) {
	RequestsTotal.WithLabelValues(method).Inc()
}

// RecordParseError records one control message that failed to decode.
func RecordParseError() {
	ParseErrors.Inc()
}

// RecordPacketsSent records packets emitted for one access unit and the
// payload bytes they carried.
func RecordPacketsSent(kind string, count int, payloadBytes int64) {
	PacketsSent.WithLabelValues(kind).Add(float64(count))
	BytesSent.Add(float64(payloadBytes))
}

// RecordRateLimitRejection records a connection rejected by the per-IP rate
// limiter.
func RecordRateLimitRejection() {
	RateLimitRejections.Inc()
}

// RecordSessionLimitRejection records a connection rejected because the
// server is already at its concurrent-session ceiling.
func RecordSessionLimitRejection() {
	SessionLimitRejections.Inc()
}
