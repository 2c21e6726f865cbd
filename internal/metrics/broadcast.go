package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesBroadcastTotal counts frames accepted by a channel's broadcast path.
	FramesBroadcastTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framecast_frames_broadcast_total",
		Help: "Total number of frames handed to a channel for fan-out",
	}, []string{"channel"})

	// FramesDroppedTotal counts frames dropped for individual slow sessions.
	FramesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framecast_frames_dropped_total",
		Help: "Total number of frames dropped because a session queue was full",
	}, []string{"channel"})

	// SessionsActive tracks the number of connected sessions per channel.
	SessionsActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "framecast_sessions_active",
		Help: "Number of currently connected client sessions",
	}, []string{"channel"})

	// SessionBytesTotal counts payload bytes written to client sockets.
	SessionBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framecast_session_bytes_sent_total",
		Help: "Total payload bytes successfully written to clients",
	}, []string{"channel"})

	// BroadcastDuration tracks the fan-out latency of a single broadcast call.
	// The capture callback sits on this path, so the buckets are tight.
	BroadcastDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "framecast_broadcast_duration_seconds",
		Help:    "Time spent fanning one frame out to all session queues",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	}, []string{"channel"})

	// CaptureFramesTotal counts frames produced by the capture source.
	CaptureFramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framecast_capture_frames_total",
		Help: "Total number of frames produced by the capture source",
	}, []string{"stream"})
)

// IncFrameBroadcast records one frame accepted for fan-out.
func IncFrameBroadcast(channel string) {
	FramesBroadcastTotal.WithLabelValues(channel).Inc()
}

// IncFrameDropped records one frame dropped for a slow session.
func IncFrameDropped(channel string) {
	FramesDroppedTotal.WithLabelValues(channel).Inc()
}

// IncSessionsActive records a newly connected session.
func IncSessionsActive(channel string) {
	SessionsActive.WithLabelValues(channel).Inc()
}

// DecSessionsActive records a removed session.
func DecSessionsActive(channel string) {
	SessionsActive.WithLabelValues(channel).Dec()
}

// AddSessionBytes records payload bytes written to a client socket.
func AddSessionBytes(channel string, n int) {
	SessionBytesTotal.WithLabelValues(channel).Add(float64(n))
}

// ObserveBroadcastDuration records the fan-out latency of one broadcast call.
func ObserveBroadcastDuration(channel string, d time.Duration) {
	BroadcastDuration.WithLabelValues(channel).Observe(d.Seconds())
}

// IncCaptureFrame records one frame produced by the capture source.
func IncCaptureFrame(stream string) {
	CaptureFramesTotal.WithLabelValues(stream).Inc()
}
