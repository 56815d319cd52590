// Package s3store implements store.Store on the AWS SDK S3 client.
// Any S3-compatible endpoint reachable through aws-sdk-go-v2 works.
package s3store

import (
	"context"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/store"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// Store drives multipart sessions through an S3API client.
type Store struct {
	client s3api.S3API
}

// New creates a Store on top of client.
func New(client s3api.S3API) *Store {
	return &Store{client: client}
}

// NewFromConfig creates a Store with a fresh S3 client built from cfg.
func NewFromConfig(cfg aws.Config, optFns ...func(*s3.Options)) *Store {
	return New(s3.NewFromConfig(cfg, optFns...))
}

// CreateSession implements store.Store.
func (s *Store) CreateSession(
	ctx context.Context,
	bucket, key string,
	opts xfertypes.ObjectOptions,
) (string, error) {
	out, err := s.client.CreateMultipartUpload(ctx, createInput(bucket, key, opts), headerOptions(opts)...)
	if err != nil {
		return "", wrap("createSession", bucket, key, err)
	}
	return aws.ToString(out.UploadId), nil
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
	input := &s3.UploadPartInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		UploadId:      aws.String(sessionID),
		PartNumber:    aws.Int32(int32(partNumber)),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if c := customerKey(opts.SSE); c != nil {
		input.SSECustomerAlgorithm = c.algorithm
		input.SSECustomerKey = c.key
		input.SSECustomerKeyMD5 = c.keyMD5
	}

	out, err := s.client.UploadPart(ctx, input)
	if err != nil {
		return "", wrap("uploadPart", bucket, key, err).WithSession(sessionID)
	}
	return aws.ToString(out.ETag), nil
}

// CopyPartRange implements store.Store.
func (s *Store) CopyPartRange(
	ctx context.Context,
	bucket, key, sessionID string,
	partNumber int,
	src xfertypes.CopySource,
	rng store.ByteRange,
	opts xfertypes.ObjectOptions,
) (string, error) {
	input := &s3.UploadPartCopyInput{
		Bucket:          aws.String(bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(sessionID),
		PartNumber:      aws.Int32(int32(partNumber)),
		CopySource:      aws.String(store.CopySourceString(src)),
		CopySourceRange: aws.String(rng.String()),
	}
	if c := customerKey(opts.SSE); c != nil {
		input.SSECustomerAlgorithm = c.algorithm
		input.SSECustomerKey = c.key
		input.SSECustomerKeyMD5 = c.keyMD5
	}

	out, err := s.client.UploadPartCopy(ctx, input)
	if err != nil {
		return "", wrap("copyPart", bucket, key, err).WithSession(sessionID)
	}
	if out.CopyPartResult == nil || aws.ToString(out.CopyPartResult.ETag) == "" {
		return "", wrap("copyPart", bucket, key, errMissingCopyResult).WithSession(sessionID)
	}
	return aws.ToString(out.CopyPartResult.ETag), nil
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
	input := &s3.ListPartsInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(sessionID),
		MaxParts: aws.Int32(int32(maxParts)),
	}
	if marker > 0 {
		input.PartNumberMarker = aws.String(strconv.Itoa(marker))
	}

	out, err := s.client.ListParts(ctx, input)
	if err != nil {
		return store.PartsPage{}, wrap("listParts", bucket, key, err).WithSession(sessionID)
	}

	page := store.PartsPage{
		Parts:     make([]store.PartInfo, 0, len(out.Parts)),
		Truncated: aws.ToBool(out.IsTruncated),
	}
	for _, p := range out.Parts {
		page.Parts = append(page.Parts, store.PartInfo{
			PartNumber: int(aws.ToInt32(p.PartNumber)),
			Size:       aws.ToInt64(p.Size),
			ETag:       aws.ToString(p.ETag),
		})
	}
	if page.Truncated {
		next, err := strconv.Atoi(aws.ToString(out.NextPartNumberMarker))
		if err != nil {
			return store.PartsPage{}, wrap("listParts", bucket, key, err).
				WithSession(sessionID).
				WithMessage("invalid next part number marker")
		}
		page.NextMarker = next
	}
	return page, nil
}

// ListSessions implements store.Store.
func (s *Store) ListSessions(ctx context.Context, bucket, prefix string) ([]store.Session, error) {
	input := &s3.ListMultipartUploadsInput{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}

	var sessions []store.Session
	for {
		out, err := s.client.ListMultipartUploads(ctx, input)
		if err != nil {
			return nil, wrap("listSessions", bucket, prefix, err)
		}
		for _, u := range out.Uploads {
			sessions = append(sessions, store.Session{
				Key:       aws.ToString(u.Key),
				SessionID: aws.ToString(u.UploadId),
			})
		}
		if !aws.ToBool(out.IsTruncated) {
			return sessions, nil
		}
		input.KeyMarker = out.NextKeyMarker
		input.UploadIdMarker = out.NextUploadIdMarker
	}
}

// Finalize implements store.Store.
func (s *Store) Finalize(
	ctx context.Context,
	bucket, key, sessionID string,
	parts []store.CompletedPart,
) (store.ObjectInfo, error) {
	completed := make([]awstypes.CompletedPart, len(parts))
	for i, p := range parts {
		completed[i] = awstypes.CompletedPart{
			ETag:       aws.String(p.ETag),
			PartNumber: aws.Int32(int32(p.PartNumber)),
		}
	}

	out, err := s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(sessionID),
		MultipartUpload: &awstypes.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return store.ObjectInfo{}, wrap("finalize", bucket, key, err).WithSession(sessionID)
	}

	return store.ObjectInfo{
		ETag:      aws.ToString(out.ETag),
		VersionID: aws.ToString(out.VersionId),
		Location:  aws.ToString(out.Location),
	}, nil
}

// Abort implements store.Store.
func (s *Store) Abort(ctx context.Context, bucket, key, sessionID string) error {
	_, err := s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(sessionID),
	})
	if err != nil {
		return wrap("abort", bucket, key, err).WithSession(sessionID)
	}
	return nil
}

// SourceSize implements store.Store. The request is routed to the source's
// region and endpoint when they are set.
func (s *Store) SourceSize(ctx context.Context, src xfertypes.CopySource) (int64, error) {
	input := &s3.HeadObjectInput{
		Bucket: aws.String(src.Bucket),
		Key:    aws.String(src.Key),
	}
	if src.VersionID != "" {
		input.VersionId = aws.String(src.VersionID)
	}

	out, err := s.client.HeadObject(ctx, input, sourceOptions(src)...)
	if err != nil {
		return 0, wrap("sourceSize", src.Bucket, src.Key, err)
	}
	return aws.ToInt64(out.ContentLength), nil
}

// Put implements store.Store.
func (s *Store) Put(
	ctx context.Context,
	bucket, key string,
	body io.ReadSeeker,
	size int64,
	opts xfertypes.ObjectOptions,
) (store.ObjectInfo, error) {
	out, err := s.client.PutObject(ctx, putInput(bucket, key, body, size, opts), headerOptions(opts)...)
	if err != nil {
		return store.ObjectInfo{}, wrap("put", bucket, key, err)
	}
	return store.ObjectInfo{
		ETag:      aws.ToString(out.ETag),
		VersionID: aws.ToString(out.VersionId),
		Size:      size,
	}, nil
}

// Copy implements store.Store.
func (s *Store) Copy(
	ctx context.Context,
	bucket, key string,
	src xfertypes.CopySource,
	opts xfertypes.ObjectOptions,
) (store.ObjectInfo, error) {
	out, err := s.client.CopyObject(ctx, copyInput(bucket, key, src, opts), headerOptions(opts)...)
	if err != nil {
		return store.ObjectInfo{}, wrap("copy", bucket, key, err).
			WithMessage("failed to copy from " + store.CopySourceString(src))
	}

	info := store.ObjectInfo{VersionID: aws.ToString(out.VersionId)}
	if out.CopyObjectResult != nil {
		info.ETag = aws.ToString(out.CopyObjectResult.ETag)
	}
	return info, nil
}

// sourceOptions points a request at the region and endpoint of src.
func sourceOptions(src xfertypes.CopySource) []func(*s3.Options) {
	if src.Region == "" && src.Endpoint == "" {
		return nil
	}
	return []func(*s3.Options){
		func(o *s3.Options) {
			if src.Region != "" {
				o.Region = src.Region
			}
			if src.Endpoint != "" {
				o.BaseEndpoint = aws.String(src.Endpoint)
			}
		},
	}
}

var _ store.Store = (*Store)(nil)
