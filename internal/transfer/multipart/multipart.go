// Package multipart drives resumable, concurrent multipart transfers against a
// store.Store.
//
// A transfer either moves the whole object in one request (small files, short
// streams, co-located or small copies) or runs a multipart session: plan parts,
// optionally resume a previous session whose parts verify against the local
// source, send the remaining parts through a bounded worker pool, then finalize
// only if every planned part is present. Any other outcome aborts the session
// exactly once.
package multipart

import (
	"log/slog"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/planner"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/resume"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/store"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

const (
	// SingleUploadThreshold is the largest file sent with a single request.
	SingleUploadThreshold = 20 * planner.MiB

	// SingleCopyThreshold is the largest cross-store copy done with a single request.
	SingleCopyThreshold = 5 * 1024 * planner.MiB

	// DefaultFilePartSize is the part size of file uploads.
	DefaultFilePartSize = 5 * planner.MiB

	// DefaultPartSize is the part size of stream uploads and copies.
	DefaultPartSize = 10 * planner.MiB

	// DefaultConcurrency is the number of parts in flight per transfer.
	DefaultConcurrency = 5

	// DefaultMaxBufferSize bounds the stream bytes buffered in the part queue.
	DefaultMaxBufferSize = 100 * planner.MiB

	// abortTimeout bounds the abort issued after a failed or cancelled transfer.
	abortTimeout = 30 * time.Second
)

// Operation names used in errors, logs and metrics.
const (
	OpUpload = "upload"
	OpStream = "stream"
	OpCopy   = "copy"
)

// Request describes one transfer.
type Request struct {
	Bucket string
	Key    string

	xfertypes.TransferConfig
}

// Transfer runs transfers against a store. It is safe for concurrent use;
// callers serialize transfers of the same object themselves.
type Transfer struct {
	st       store.Store
	verifier *resume.Verifier

	logger      *slog.Logger
	metrics     *metrics.Recorder
	partRetries int
	concurrency int
	region      string
	endpoint    string
}

// Option configures a Transfer.
type Option func(*Transfer)

// WithLogger sets the logger for session lifecycle events. Nil disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transfer) {
		t.logger = logger
	}
}

// WithMetrics sets the metrics recorder. Nil disables metrics.
func WithMetrics(r *metrics.Recorder) Option {
	return func(t *Transfer) {
		t.metrics = r
	}
}

// WithPartRetries sets how many times a failed part request is retried.
func WithPartRetries(n int) Option {
	return func(t *Transfer) {
		if n >= 0 {
			t.partRetries = n
		}
	}
}

// WithConcurrency sets the default number of parts in flight.
func WithConcurrency(n int) Option {
	return func(t *Transfer) {
		if n > 0 {
			t.concurrency = n
		}
	}
}

// WithDestination names the region and endpoint of the store, used to decide
// whether a copy source is co-located with it.
func WithDestination(region, endpoint string) Option {
	return func(t *Transfer) {
		t.region = region
		t.endpoint = endpoint
	}
}

// WithVerifier replaces the resume verifier.
func WithVerifier(v *resume.Verifier) Option {
	return func(t *Transfer) {
		t.verifier = v
	}
}

// New creates a Transfer over st.
func New(st store.Store, opts ...Option) *Transfer {
	t := &Transfer{
		st:          st,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.verifier == nil {
		t.verifier = resume.NewVerifier(st)
	}
	return t
}

// resolve fills unset request fields with defaults.
func (t *Transfer) resolve(req Request, partSize int64) Request {
	if req.PartSize <= 0 {
		req.PartSize = partSize
	}
	if req.Concurrency <= 0 {
		req.Concurrency = t.concurrency
	}
	if req.MaxBufferSize <= 0 {
		req.MaxBufferSize = DefaultMaxBufferSize
	}
	return req
}
