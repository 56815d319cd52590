package multipart

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/taskpool"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/store"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// run is the state of one transfer call. A multipart run owns its session:
// the collected part results and the single abort.
type run struct {
	t      *Transfer
	op     string
	id     string
	bucket string
	key    string
	opts   xfertypes.ObjectOptions
	start  time.Time
	logger *slog.Logger

	progress *progress

	session string
	resumed bool

	mu      sync.Mutex
	results map[int]string

	abortOnce sync.Once
}

func (t *Transfer) newRun(op string, req Request, total int64) *run {
	r := &run{
		t:        t,
		op:       op,
		id:       uuid.NewString(),
		bucket:   req.Bucket,
		key:      req.Key,
		opts:     req.Object,
		start:    time.Now(),
		progress: newProgress(req.ProgressTracker, total),
		results:  make(map[int]string),
	}
	if t.logger != nil {
		r.logger = t.logger.With("op", op, "op_id", r.id, "bucket", req.Bucket, "key", req.Key)
	}
	return r
}

func (r *run) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if r.logger == nil {
		return
	}
	if r.session != "" {
		args = append(args, "session", r.session)
	}
	r.logger.Log(ctx, level, msg, args...)
}

func (r *run) fail(err error) error {
	e := errors.NewObjectError(r.op, r.bucket, r.key, err).WithSession(r.session)
	r.progress.fail(e)
	return e
}

// record stores the integrity tag of a part that is present on the store.
func (r *run) record(partNumber int, etag string) {
	r.mu.Lock()
	r.results[partNumber] = etag
	r.mu.Unlock()
}

// completed returns the collected results sorted by part number.
func (r *run) completed() []store.CompletedPart {
	r.mu.Lock()
	defer r.mu.Unlock()

	parts := make([]store.CompletedPart, 0, len(r.results))
	for n, etag := range r.results {
		parts = append(parts, store.CompletedPart{PartNumber: n, ETag: etag})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].PartNumber < parts[j].PartNumber })
	return parts
}

// sendPart runs one part request with retries and records its result.
func (r *run) sendPart(ctx context.Context, partNumber int, size int64, send func() (string, error)) error {
	start := time.Now()
	etag, err := retry(ctx, r.t.partRetries, send)
	if err != nil {
		r.t.metrics.Part(r.op, metrics.StatusFailure, size, time.Since(start))
		r.log(ctx, slog.LevelWarn, "part failed", "part", partNumber, "error", err)
		return &errors.PartError{PartNumber: partNumber, Err: err}
	}

	r.record(partNumber, etag)
	r.t.metrics.Part(r.op, metrics.StatusSuccess, size, time.Since(start))
	r.progress.add(size)
	return nil
}

// abort cancels the session. Only the first call reaches the store.
func (r *run) abort(ctx context.Context, reason error) {
	r.abortOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abortTimeout)
		defer cancel()

		r.t.metrics.Session(r.op, metrics.SessionAborted)
		if err := r.t.st.Abort(ctx, r.bucket, r.key, r.session); err != nil {
			r.log(ctx, slog.LevelError, "abort failed", "reason", reason, "error", err)
			return
		}
		r.log(ctx, slog.LevelError, "session aborted", "reason", reason)
	})
}

// finish finalizes the session when want parts are present and every task
// succeeded, and aborts it otherwise.
func (r *run) finish(ctx context.Context, want int, res taskpool.Result) (store.ObjectInfo, error) {
	parts := r.completed()

	if !res.SuccessAll || len(parts) != want {
		cause := res.Err
		if cause == nil {
			cause = ctx.Err()
		}
		err := fmt.Errorf("%w: %d of %d parts present", errors.ErrPartsIncomplete, len(parts), want)
		if cause != nil {
			err = fmt.Errorf("%w: %w", err, cause)
		}
		r.abort(ctx, err)
		return store.ObjectInfo{}, r.fail(err)
	}

	info, err := r.t.st.Finalize(ctx, r.bucket, r.key, r.session, parts)
	if err != nil {
		err = fmt.Errorf("%w: %w", errors.ErrFinalize, err)
		r.abort(ctx, err)
		return store.ObjectInfo{}, r.fail(err)
	}

	r.t.metrics.Session(r.op, metrics.SessionFinalized)
	r.log(ctx, slog.LevelInfo, "session finalized", "parts", len(parts), "took", time.Since(r.start))
	return info, nil
}

// result builds the transfer result and reports completion to the tracker.
func (r *run) result(info store.ObjectInfo, size int64, parts int) *xfertypes.UploadResult {
	r.progress.complete()
	return &xfertypes.UploadResult{
		Bucket:    r.bucket,
		Key:       r.key,
		Size:      size,
		ETag:      info.ETag,
		VersionID: info.VersionID,
		Location:  info.Location,
		SessionID: r.session,
		Parts:     parts,
		Duration:  time.Since(r.start),
	}
}

// progress forwards running byte counts to a tracker. Safe for concurrent use;
// a nil tracker makes every method a no-op.
type progress struct {
	tracker xfertypes.ProgressTracker
	total   int64
	done    atomic.Int64
}

func newProgress(tracker xfertypes.ProgressTracker, total int64) *progress {
	return &progress{tracker: tracker, total: total}
}

func (p *progress) add(n int64) {
	done := p.done.Add(n)
	if p.tracker != nil {
		p.tracker.Update(done, p.total)
	}
}

func (p *progress) complete() {
	if p.tracker != nil {
		p.tracker.Complete()
	}
}

func (p *progress) fail(err error) {
	if p.tracker != nil {
		p.tracker.Error(err)
	}
}
