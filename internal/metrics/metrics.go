// Package metrics defines the Prometheus collectors transfers report to.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Part outcomes.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusSkipped = "skipped"
)

// Session outcomes.
const (
	SessionCreated   = "created"
	SessionResumed   = "resumed"
	SessionFinalized = "finalized"
	SessionAborted   = "aborted"
	SessionSingle    = "single"
)

// partBuckets are exponential buckets for part transfer latency (seconds).
var partBuckets = prometheus.ExponentialBuckets(0.01, 2, 14)

// Recorder records transfer metrics. A nil *Recorder records nothing.
type Recorder struct {
	parts        *prometheus.CounterVec
	partBytes    *prometheus.CounterVec
	sessions     *prometheus.CounterVec
	partDuration *prometheus.HistogramVec
}

// New creates a Recorder registered on reg. A nil reg returns a nil Recorder.
// Registering twice on the same registry reuses the collectors already there.
func New(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		return nil, nil
	}

	r := &Recorder{
		parts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xfer_parts_total",
				Help: "Parts transferred by operation and status",
			},
			[]string{"op", "status"},
		),
		partBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xfer_part_bytes_total",
				Help: "Bytes sent in successful part transfers",
			},
			[]string{"op"},
		),
		sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xfer_sessions_total",
				Help: "Transfer sessions by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		partDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xfer_part_duration_seconds",
				Help:    "Part transfer latency in seconds",
				Buckets: partBuckets,
			},
			[]string{"op"},
		),
	}

	var err error
	if r.parts, err = register(reg, r.parts); err != nil {
		return nil, err
	}
	if r.partBytes, err = register(reg, r.partBytes); err != nil {
		return nil, err
	}
	if r.sessions, err = register(reg, r.sessions); err != nil {
		return nil, err
	}
	if r.partDuration, err = register(reg, r.partDuration); err != nil {
		return nil, err
	}
	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Part records one part transfer.
func (r *Recorder) Part(op, status string, bytes int64, took time.Duration) {
	if r == nil {
		return
	}
	r.parts.WithLabelValues(op, status).Inc()
	if status == StatusSuccess {
		r.partBytes.WithLabelValues(op).Add(float64(bytes))
		r.partDuration.WithLabelValues(op).Observe(took.Seconds())
	}
}

// Session records a session lifecycle event.
func (r *Recorder) Session(op, outcome string) {
	if r == nil {
		return
	}
	r.sessions.WithLabelValues(op, outcome).Inc()
}
