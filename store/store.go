// Package store defines the narrow remote object store interface the transfer
// orchestrator drives. Implementations translate these calls to a concrete
// wire protocol; signing, marshaling and bucket management stay behind them.
package store

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// DefaultListPartsPageSize is the page size used when listing session parts.
const DefaultListPartsPageSize = 1000

// Session describes an in-progress multipart session on the store.
type Session struct {
	Key       string
	SessionID string
}

// PartInfo describes one part the store already holds for a session.
type PartInfo struct {
	PartNumber int
	Size       int64
	ETag       string
}

// PartsPage is one page of a session's part listing.
type PartsPage struct {
	Parts      []PartInfo
	NextMarker int
	Truncated  bool
}

// CompletedPart pairs a part number with the integrity tag the store returned for it.
type CompletedPart struct {
	PartNumber int
	ETag       string
}

// ObjectInfo is the result of a finalize, single-shot put, or single-shot copy.
type ObjectInfo struct {
	ETag      string
	VersionID string
	Location  string
	Size      int64
}

// ByteRange is an inclusive byte range of a source object.
type ByteRange struct {
	First int64
	Last  int64
}

// String renders the range as an HTTP range value.
func (r ByteRange) String() string {
	return fmt.Sprintf("bytes=%d-%d", r.First, r.Last)
}

// Length returns the number of bytes covered by the range.
func (r ByteRange) Length() int64 {
	return r.Last - r.First + 1
}

// Store is the remote object store as seen by the transfer orchestrator.
// All methods must be safe for concurrent use.
type Store interface {
	// CreateSession starts a new multipart session for bucket/key.
	CreateSession(ctx context.Context, bucket, key string, opts xfertypes.ObjectOptions) (string, error)

	// UploadPart stores size bytes from body as partNumber of the session.
	UploadPart(ctx context.Context, bucket, key, sessionID string, partNumber int, body io.ReadSeeker, size int64, opts xfertypes.ObjectOptions) (string, error)

	// CopyPartRange stores a byte range of src as partNumber of the session.
	CopyPartRange(ctx context.Context, bucket, key, sessionID string, partNumber int, src xfertypes.CopySource, rng ByteRange, opts xfertypes.ObjectOptions) (string, error)

	// ListParts lists the parts of a session after marker, at most maxParts per page.
	ListParts(ctx context.Context, bucket, key, sessionID string, marker, maxParts int) (PartsPage, error)

	// ListSessions lists in-progress sessions whose key starts with prefix,
	// in creation order.
	ListSessions(ctx context.Context, bucket, prefix string) ([]Session, error)

	// Finalize assembles the listed parts into the final object.
	Finalize(ctx context.Context, bucket, key, sessionID string, parts []CompletedPart) (ObjectInfo, error)

	// Abort cancels the session and discards its parts.
	Abort(ctx context.Context, bucket, key, sessionID string) error

	// SourceSize returns the size of the source object in bytes.
	SourceSize(ctx context.Context, src xfertypes.CopySource) (int64, error)

	// Put writes a whole object in one request.
	Put(ctx context.Context, bucket, key string, body io.ReadSeeker, size int64, opts xfertypes.ObjectOptions) (ObjectInfo, error)

	// Copy copies a whole object in one server-side request.
	Copy(ctx context.Context, bucket, key string, src xfertypes.CopySource, opts xfertypes.ObjectOptions) (ObjectInfo, error)
}

// CopySourceString renders src as a "bucket/key[?versionId=v]" copy source header.
func CopySourceString(src xfertypes.CopySource) string {
	s := src.Bucket + "/" + strings.TrimPrefix(src.Key, "/")
	if src.VersionID != "" {
		s += "?versionId=" + src.VersionID
	}
	return s
}

// TrimETag strips the surrounding quotes stores put around integrity tags.
func TrimETag(etag string) string {
	return strings.Trim(etag, `"`)
}
