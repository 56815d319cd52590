package multipart

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/planner"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/resume"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/source"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/taskpool"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/store"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// UploadFile uploads src to req.Bucket/req.Key. Files up to
// SingleUploadThreshold go in one request; larger ones use a multipart
// session, continuing a verified incomplete session unless req.DisableResume.
func (t *Transfer) UploadFile(ctx context.Context, req Request, src source.RangeReader) (*xfertypes.UploadResult, error) {
	req = t.resolve(req, DefaultFilePartSize)
	size := src.Size()
	r := t.newRun(OpUpload, req, size)

	if size <= SingleUploadThreshold {
		return r.putRange(ctx, src)
	}

	plan := planner.New(size, req.PartSize, planner.MaxParts)
	existing, err := r.openUploadSession(ctx, req, plan, src)
	if err != nil {
		return nil, r.fail(err)
	}

	var skippedBytes int64
	for n, etag := range existing {
		r.record(n, etag)
		skippedBytes += plan.Part(n).Length
		t.metrics.Part(r.op, metrics.StatusSkipped, plan.Part(n).Length, 0)
	}
	if skippedBytes > 0 {
		r.progress.add(skippedBytes)
	}

	pool := taskpool.New(req.Concurrency, req.Concurrency)
	for _, part := range plan.Parts() {
		if _, ok := existing[part.Number]; ok {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		pool.Submit(fmt.Sprintf("part-%d", part.Number), func() error {
			return r.sendPart(ctx, part.Number, part.Length, func() (string, error) {
				body, err := src.OpenRange(part.Offset, part.Length)
				if err != nil {
					return "", err
				}
				defer body.Close()
				return t.st.UploadPart(ctx, r.bucket, r.key, r.session, part.Number, body, part.Length, r.opts)
			})
		})
	}

	info, err := r.finish(ctx, plan.PartCount, pool.Wait())
	if err != nil {
		return nil, err
	}

	res := r.result(info, size, plan.PartCount)
	res.Resumed = r.resumed
	res.SkippedParts = len(existing)
	return res, nil
}

// openUploadSession resumes the newest compatible session for the target or
// creates a new one, and returns the parts already present.
func (r *run) openUploadSession(
	ctx context.Context,
	req Request,
	plan planner.Plan,
	src source.RangeReader,
) (map[int]string, error) {
	if !req.DisableResume {
		existing, ok := r.tryResume(ctx, plan, src)
		if ok {
			return existing, nil
		}
	}

	id, err := r.t.st.CreateSession(ctx, r.bucket, r.key, r.opts)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	r.session = id
	r.t.metrics.Session(r.op, metrics.SessionCreated)
	r.log(ctx, slog.LevelInfo, "session created", "parts", plan.PartCount, "part_size", plan.PartSize)
	return nil, nil
}

// tryResume reports the verified parts of the newest incomplete session for
// the target. Lookup and verification failures fall back to a new session.
func (r *run) tryResume(ctx context.Context, plan planner.Plan, src source.RangeReader) (map[int]string, bool) {
	id, err := resume.FindSession(ctx, r.t.st, r.bucket, r.key)
	if err != nil {
		r.log(ctx, slog.LevelWarn, "resume lookup failed", "error", err)
		return nil, false
	}
	if id == "" {
		return nil, false
	}

	out, err := r.t.verifier.Verify(ctx, resume.Session{Bucket: r.bucket, Key: r.key, ID: id}, plan, src)
	switch {
	case err != nil:
		r.log(ctx, slog.LevelWarn, "resume verification failed", "candidate", id, "error", err)
		return nil, false
	case !out.Resumable:
		r.log(ctx, slog.LevelWarn, "session not resumable", "candidate", id, "reason", out.Reason)
		return nil, false
	}

	r.session = id
	r.resumed = true
	r.t.metrics.Session(r.op, metrics.SessionResumed)
	r.log(ctx, slog.LevelInfo, "session resumed", "existing_parts", len(out.Existing), "parts", plan.PartCount)
	return out.Existing, true
}

// putRange sends the whole of src in one request.
func (r *run) putRange(ctx context.Context, src source.RangeReader) (*xfertypes.UploadResult, error) {
	size := src.Size()
	info, err := retry(ctx, r.t.partRetries, func() (store.ObjectInfo, error) {
		body, err := src.OpenRange(0, size)
		if err != nil {
			return store.ObjectInfo{}, err
		}
		defer body.Close()
		return r.t.st.Put(ctx, r.bucket, r.key, body, size, r.opts)
	})
	if err != nil {
		return nil, r.fail(err)
	}
	return r.single(ctx, info, size), nil
}

func (r *run) single(ctx context.Context, info store.ObjectInfo, size int64) *xfertypes.UploadResult {
	r.t.metrics.Session(r.op, metrics.SessionSingle)
	r.log(ctx, slog.LevelDebug, "single request transfer", "size", size)
	r.progress.add(size)
	return r.result(info, size, 0)
}

// UploadStream uploads everything read from rd. A stream shorter than one part
// goes in a single request; otherwise parts are read sequentially and at most
// req.MaxBufferSize/req.PartSize of them wait in the queue. Streams never
// resume.
func (t *Transfer) UploadStream(ctx context.Context, req Request, rd io.Reader) (*xfertypes.UploadResult, error) {
	req = t.resolve(req, DefaultPartSize)
	r := t.newRun(OpStream, req, -1)
	stream := source.NewStream(rd, req.PartSize)

	chunk, err := stream.Next()
	if err != nil && !stderrors.Is(err, io.EOF) {
		return nil, r.fail(fmt.Errorf("read stream: %w", err))
	}
	if int64(len(chunk)) < req.PartSize {
		defer stream.Release(chunk)
		size := int64(len(chunk))
		info, err := retry(ctx, t.partRetries, func() (store.ObjectInfo, error) {
			return t.st.Put(ctx, r.bucket, r.key, bytes.NewReader(chunk), size, r.opts)
		})
		if err != nil {
			return nil, r.fail(err)
		}
		return r.single(ctx, info, size), nil
	}

	id, err := t.st.CreateSession(ctx, r.bucket, r.key, r.opts)
	if err != nil {
		stream.Release(chunk)
		return nil, r.fail(fmt.Errorf("create session: %w", err))
	}
	r.session = id
	t.metrics.Session(r.op, metrics.SessionCreated)
	r.log(ctx, slog.LevelInfo, "session created", "part_size", req.PartSize)

	pool := taskpool.New(req.Concurrency, int(max(req.MaxBufferSize/req.PartSize, 1)))
	var (
		parts   int
		size    int64
		stopErr error
	)
	for {
		if err := ctx.Err(); err != nil {
			stream.Release(chunk)
			stopErr = err
			break
		}
		if parts == planner.MaxParts {
			stream.Release(chunk)
			stopErr = fmt.Errorf("%w: stream needs more than %d parts of %d bytes",
				errors.ErrTooManyParts, planner.MaxParts, req.PartSize)
			break
		}

		parts++
		size += int64(len(chunk))
		partNumber, data := parts, chunk
		pool.Submit(fmt.Sprintf("part-%d", partNumber), func() error {
			defer stream.Release(data)
			return r.sendPart(ctx, partNumber, int64(len(data)), func() (string, error) {
				return t.st.UploadPart(ctx, r.bucket, r.key, r.session, partNumber,
					bytes.NewReader(data), int64(len(data)), r.opts)
			})
		})

		chunk, err = stream.Next()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			stopErr = fmt.Errorf("read stream: %w", err)
			break
		}
	}

	res := pool.Wait()
	if stopErr != nil {
		r.abort(ctx, stopErr)
		return nil, r.fail(stopErr)
	}

	info, err := r.finish(ctx, parts, res)
	if err != nil {
		return nil, err
	}
	return r.result(info, size, parts), nil
}
