package multipart

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/planner"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/source"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/taskpool"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/store"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// Copy copies src to req.Bucket/req.Key server-side. A source on the
// destination's store, or one no larger than SingleCopyThreshold, is copied in
// one request; anything else is copied as byte ranges into a new session.
// Copies never resume.
func (t *Transfer) Copy(ctx context.Context, req Request, src source.Remote) (*xfertypes.CopyResult, error) {
	req = t.resolve(req, DefaultPartSize)

	if src.CoLocated(t.region, t.endpoint) {
		r := t.newRun(OpCopy, req, 0)
		return r.copyWhole(ctx, src, 0)
	}

	size, err := t.st.SourceSize(ctx, src.CopySource)
	if err != nil {
		r := t.newRun(OpCopy, req, 0)
		return nil, r.fail(fmt.Errorf("size of %s: %w", store.CopySourceString(src.CopySource), err))
	}

	r := t.newRun(OpCopy, req, size)
	if size <= SingleCopyThreshold {
		return r.copyWhole(ctx, src, size)
	}

	plan := planner.New(size, req.PartSize, planner.MaxParts)
	id, err := t.st.CreateSession(ctx, r.bucket, r.key, r.opts)
	if err != nil {
		return nil, r.fail(fmt.Errorf("create session: %w", err))
	}
	r.session = id
	t.metrics.Session(r.op, metrics.SessionCreated)
	r.log(ctx, slog.LevelInfo, "session created",
		"source", store.CopySourceString(src.CopySource), "parts", plan.PartCount, "part_size", plan.PartSize)

	pool := taskpool.New(req.Concurrency, req.Concurrency)
	for _, part := range plan.Parts() {
		if ctx.Err() != nil {
			break
		}
		pool.Submit(fmt.Sprintf("part-%d", part.Number), func() error {
			return r.sendPart(ctx, part.Number, part.Length, func() (string, error) {
				return t.st.CopyPartRange(ctx, r.bucket, r.key, r.session, part.Number,
					src.CopySource, src.Range(part), r.opts)
			})
		})
	}

	info, err := r.finish(ctx, plan.PartCount, pool.Wait())
	if err != nil {
		return nil, err
	}
	return r.result(info, size, plan.PartCount), nil
}

// copyWhole copies src in one request. size is zero when it is not known.
func (r *run) copyWhole(ctx context.Context, src source.Remote, size int64) (*xfertypes.CopyResult, error) {
	info, err := retry(ctx, r.t.partRetries, func() (store.ObjectInfo, error) {
		return r.t.st.Copy(ctx, r.bucket, r.key, src.CopySource, r.opts)
	})
	if err != nil {
		return nil, r.fail(err)
	}
	if size == 0 {
		size = info.Size
	}
	r.progress.total = size
	return r.single(ctx, info, size), nil
}
