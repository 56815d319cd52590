// Package resume discovers incomplete multipart sessions and decides whether a
// local source can continue one.
//
// A session is resumable only when every part the store already holds has the
// size and content hash of the corresponding local byte range under the
// current part plan. Anything else falls back to a fresh session.
package resume

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/planner"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/source"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/store"
)

// Session identifies an incomplete session on the store.
type Session struct {
	Bucket string
	Key    string
	ID     string
}

// Outcome is the verdict of a verification.
type Outcome struct {
	// Resumable reports whether the session may be continued.
	Resumable bool

	// Existing maps verified part numbers to the integrity tag the store holds.
	// It is empty unless Resumable.
	Existing map[int]string

	// Reason explains a non-resumable verdict.
	Reason string
}

// FindSession returns the id of the most recently created incomplete session
// whose key is exactly key, or "" when there is none.
func FindSession(ctx context.Context, st store.Store, bucket, key string) (string, error) {
	sessions, err := st.ListSessions(ctx, bucket, key)
	if err != nil {
		return "", err
	}
	for i := len(sessions) - 1; i >= 0; i-- {
		if sessions[i].Key == key {
			return sessions[i].SessionID, nil
		}
	}
	return "", nil
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithPageSize sets how many parts each listing request asks for.
func WithPageSize(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.pageSize = n
		}
	}
}

// Verifier compares remote session parts with a local source.
type Verifier struct {
	st       store.Store
	pageSize int
}

// NewVerifier creates a Verifier reading part listings from st.
func NewVerifier(st store.Store, opts ...Option) *Verifier {
	v := &Verifier{st: st, pageSize: store.DefaultListPartsPageSize}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks every part of sess against src under plan. A listing or local
// read error is returned as an error; a content mismatch is a non-resumable
// Outcome.
func (v *Verifier) Verify(
	ctx context.Context,
	sess Session,
	plan planner.Plan,
	src source.RangeReader,
) (Outcome, error) {
	existing := make(map[int]string)
	marker := 0

	for {
		page, err := v.st.ListParts(ctx, sess.Bucket, sess.Key, sess.ID, marker, v.pageSize)
		if err != nil {
			return Outcome{}, fmt.Errorf("list parts: %w", err)
		}

		for _, remote := range page.Parts {
			if !plan.Contains(remote.PartNumber) {
				return reject("remote part %d is outside the %d planned parts", remote.PartNumber, plan.PartCount), nil
			}
			local := plan.Part(remote.PartNumber)
			if remote.Size != local.Length {
				return reject("part %d is %d bytes remotely, %d locally", remote.PartNumber, remote.Size, local.Length), nil
			}

			sum, err := hashRange(src, local)
			if err != nil {
				return Outcome{}, fmt.Errorf("hash part %d: %w", remote.PartNumber, err)
			}
			if !strings.EqualFold(store.TrimETag(remote.ETag), sum) {
				return reject("part %d content differs", remote.PartNumber), nil
			}
			existing[remote.PartNumber] = remote.ETag
		}

		if !page.Truncated {
			break
		}
		if page.NextMarker <= marker {
			return Outcome{}, fmt.Errorf("part listing did not advance past marker %d", marker)
		}
		marker = page.NextMarker
	}

	return Outcome{Resumable: true, Existing: existing}, nil
}

func reject(format string, args ...any) Outcome {
	return Outcome{Reason: fmt.Sprintf(format, args...)}
}

// hashRange returns the hex MD5 of the bytes part covers in src.
func hashRange(src source.RangeReader, part planner.Part) (string, error) {
	r, err := src.OpenRange(part.Offset, part.Length)
	if err != nil {
		return "", err
	}
	defer r.Close()

	buf := pool.GetCopyBuffer()
	defer pool.PutCopyBuffer(buf)

	h := md5.New()
	n, err := io.CopyBuffer(h, r, buf)
	if err != nil {
		return "", err
	}
	if n != part.Length {
		return "", fmt.Errorf("read %d of %d bytes", n, part.Length)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
