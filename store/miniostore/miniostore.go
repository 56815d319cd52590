// Package miniostore implements store.Store on the minio-go low-level Core API.
// It serves MinIO and other S3-compatible servers that minio-go speaks to.
package miniostore

import (
	"context"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/s3utils"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/store"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// API is the subset of *minio.Core the store drives.
type API interface {
	NewMultipartUpload(ctx context.Context, bucket, object string, opts minio.PutObjectOptions) (string, error)
	PutObjectPart(
		ctx context.Context,
		bucket, object, uploadID string,
		partID int,
		data io.Reader,
		size int64,
		opts minio.PutObjectPartOptions,
	) (minio.ObjectPart, error)
	CopyObjectPart(
		ctx context.Context,
		srcBucket, srcObject, destBucket, destObject, uploadID string,
		partID int,
		startOffset, length int64,
		metadata map[string]string,
	) (minio.CompletePart, error)
	ListObjectParts(
		ctx context.Context,
		bucket, object, uploadID string,
		partNumberMarker, maxParts int,
	) (minio.ListObjectPartsResult, error)
	ListMultipartUploads(
		ctx context.Context,
		bucket, prefix, keyMarker, uploadIDMarker, delimiter string,
		maxUploads int,
	) (minio.ListMultipartUploadsResult, error)
	CompleteMultipartUpload(
		ctx context.Context,
		bucket, object, uploadID string,
		parts []minio.CompletePart,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
	AbortMultipartUpload(ctx context.Context, bucket, object, uploadID string) error
	StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PutObject(
		ctx context.Context,
		bucket, object string,
		data io.Reader,
		size int64,
		md5Base64, sha256Hex string,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
	CopyObject(
		ctx context.Context,
		sourceBucket, sourceObject, destBucket, destObject string,
		metadata map[string]string,
		srcOpts minio.CopySrcOptions,
		dstOpts minio.PutObjectOptions,
	) (minio.ObjectInfo, error)
}

var _ API = (*minio.Core)(nil)

// Store drives multipart sessions through the minio-go Core API.
type Store struct {
	core API
}

// New creates a Store on top of core.
func New(core API) *Store {
	return &Store{core: core}
}

// Dial connects to endpoint (host[:port], no scheme) with static credentials.
func Dial(endpoint, accessKey, secretKey, region string, secure bool, transport http.RoundTripper) (*Store, error) {
	core, err := minio.NewCore(endpoint, &minio.Options{
		Creds:     staticCreds(accessKey, secretKey),
		Secure:    secure,
		Region:    region,
		Transport: transport,
	})
	if err != nil {
		return nil, wrap("dial", "", "", err)
	}
	return New(core), nil
}

// CreateSession implements store.Store.
func (s *Store) CreateSession(
	ctx context.Context,
	bucket, key string,
	opts xfertypes.ObjectOptions,
) (string, error) {
	putOpts, err := putOptions(opts)
	if err != nil {
		return "", wrap("createSession", bucket, key, err)
	}
	id, err := s.core.NewMultipartUpload(ctx, bucket, key, putOpts)
	if err != nil {
		return "", wrap("createSession", bucket, key, err)
	}
	return id, nil
}

// UploadPart implements store.Store.
func (s *Store) UploadPart(
	ctx context.Context,
	bucket, key, sessionID string,
	partNumber int,
	body io.ReadSeeker,
	size int64,
	opts xfertypes.ObjectOptions,
) (string, error) {
	partOpts := minio.PutObjectPartOptions{}
	if opts.SSE != nil && opts.SSE.Type == xfertypes.SSEC {
		sse, err := serverSide(opts.SSE)
		if err != nil {
			return "", wrap("uploadPart", bucket, key, err).WithSession(sessionID)
		}
		partOpts.SSE = sse
	}

	part, err := s.core.PutObjectPart(ctx, bucket, key, sessionID, partNumber, body, size, partOpts)
	if err != nil {
		return "", wrap("uploadPart", bucket, key, err).WithSession(sessionID)
	}
	return part.ETag, nil
}

// CopyPartRange implements store.Store.
func (s *Store) CopyPartRange(
	ctx context.Context,
	bucket, key, sessionID string,
	partNumber int,
	src xfertypes.CopySource,
	rng store.ByteRange,
	_ xfertypes.ObjectOptions,
) (string, error) {
	var headers map[string]string
	if src.VersionID != "" {
		headers = map[string]string{
			"x-amz-copy-source": s3utils.EncodePath(src.Bucket+"/"+src.Key) + "?versionId=" + src.VersionID,
		}
	}

	part, err := s.core.CopyObjectPart(ctx,
		src.Bucket, src.Key, bucket, key, sessionID,
		partNumber, rng.First, rng.Length(), headers)
	if err != nil {
		return "", wrap("copyPart", bucket, key, err).WithSession(sessionID)
	}
	return part.ETag, nil
}

// ListParts implements store.Store.
func (s *Store) ListParts(
	ctx context.Context,
	bucket, key, sessionID string,
	marker, maxParts int,
) (store.PartsPage, error) {
	if maxParts <= 0 {
		maxParts = store.DefaultListPartsPageSize
	}
	res, err := s.core.ListObjectParts(ctx, bucket, key, sessionID, marker, maxParts)
	if err != nil {
		return store.PartsPage{}, wrap("listParts", bucket, key, err).WithSession(sessionID)
	}

	page := store.PartsPage{
		Parts:     make([]store.PartInfo, 0, len(res.ObjectParts)),
		Truncated: res.IsTruncated,
	}
	for _, p := range res.ObjectParts {
		page.Parts = append(page.Parts, store.PartInfo{
			PartNumber: p.PartNumber,
			Size:       p.Size,
			ETag:       p.ETag,
		})
	}
	if page.Truncated {
		page.NextMarker = res.NextPartNumberMarker
	}
	return page, nil
}

// ListSessions implements store.Store.
func (s *Store) ListSessions(ctx context.Context, bucket, prefix string) ([]store.Session, error) {
	var (
		sessions               []store.Session
		keyMarker, uploadIDMkr string
	)
	for {
		res, err := s.core.ListMultipartUploads(ctx, bucket, prefix, keyMarker, uploadIDMkr, "", 1000)
		if err != nil {
			return nil, wrap("listSessions", bucket, prefix, err)
		}
		for _, u := range res.Uploads {
			sessions = append(sessions, store.Session{Key: u.Key, SessionID: u.UploadID})
		}
		if !res.IsTruncated {
			return sessions, nil
		}
		keyMarker, uploadIDMkr = res.NextKeyMarker, res.NextUploadIDMarker
	}
}

// Finalize implements store.Store.
func (s *Store) Finalize(
	ctx context.Context,
	bucket, key, sessionID string,
	parts []store.CompletedPart,
) (store.ObjectInfo, error) {
	completed := make([]minio.CompletePart, len(parts))
	for i, p := range parts {
		completed[i] = minio.CompletePart{PartNumber: p.PartNumber, ETag: p.ETag}
	}

	info, err := s.core.CompleteMultipartUpload(ctx, bucket, key, sessionID, completed, minio.PutObjectOptions{})
	if err != nil {
		return store.ObjectInfo{}, wrap("finalize", bucket, key, err).WithSession(sessionID)
	}
	return store.ObjectInfo{
		ETag:      info.ETag,
		VersionID: info.VersionID,
		Location:  info.Location,
		Size:      info.Size,
	}, nil
}

// Abort implements store.Store.
func (s *Store) Abort(ctx context.Context, bucket, key, sessionID string) error {
	if err := s.core.AbortMultipartUpload(ctx, bucket, key, sessionID); err != nil {
		return wrap("abort", bucket, key, err).WithSession(sessionID)
	}
	return nil
}

// SourceSize implements store.Store.
func (s *Store) SourceSize(ctx context.Context, src xfertypes.CopySource) (int64, error) {
	opts := minio.StatObjectOptions{}
	opts.VersionID = src.VersionID

	info, err := s.core.StatObject(ctx, src.Bucket, src.Key, opts)
	if err != nil {
		return 0, wrap("sourceSize", src.Bucket, src.Key, err)
	}
	return info.Size, nil
}

// Put implements store.Store.
func (s *Store) Put(
	ctx context.Context,
	bucket, key string,
	body io.ReadSeeker,
	size int64,
	opts xfertypes.ObjectOptions,
) (store.ObjectInfo, error) {
	putOpts, err := putOptions(opts)
	if err != nil {
		return store.ObjectInfo{}, wrap("put", bucket, key, err)
	}
	info, err := s.core.PutObject(ctx, bucket, key, body, size, "", "", putOpts)
	if err != nil {
		return store.ObjectInfo{}, wrap("put", bucket, key, err)
	}
	return store.ObjectInfo{ETag: info.ETag, VersionID: info.VersionID, Size: size}, nil
}

// Copy implements store.Store.
func (s *Store) Copy(
	ctx context.Context,
	bucket, key string,
	src xfertypes.CopySource,
	opts xfertypes.ObjectOptions,
) (store.ObjectInfo, error) {
	dstOpts, err := putOptions(opts)
	if err != nil {
		return store.ObjectInfo{}, wrap("copy", bucket, key, err)
	}

	var metadata map[string]string
	if len(opts.Metadata) > 0 || opts.ContentType != "" {
		metadata = map[string]string{"x-amz-metadata-directive": "REPLACE"}
	}

	info, err := s.core.CopyObject(ctx, src.Bucket, src.Key, bucket, key, metadata,
		minio.CopySrcOptions{Bucket: src.Bucket, Object: src.Key, VersionID: src.VersionID},
		dstOpts)
	if err != nil {
		return store.ObjectInfo{}, wrap("copy", bucket, key, err).
			WithMessage("failed to copy from " + store.CopySourceString(src))
	}
	return store.ObjectInfo{ETag: info.ETag, VersionID: info.VersionID, Size: info.Size}, nil
}

var _ store.Store = (*Store)(nil)
