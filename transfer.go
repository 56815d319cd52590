package transfer

import (
	"bytes"
	"context"
	"io"
	"path/filepath"

	"github.com/hashicorp/go-multierror"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/source"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// request resolves and validates the options of one transfer.
func (c *Client) request(bucket, key string, opts []xfertypes.TransferOption) (multipart.Request, error) {
	req := multipart.Request{
		Bucket: bucket,
		Key:    key,
		TransferConfig: xfertypes.TransferConfig{
			PartSize:    c.cfg.PartSize,
			Concurrency: c.cfg.Concurrency,
		},
	}
	for _, opt := range opts {
		opt(&req.TransferConfig)
	}

	for _, err := range []error{
		validation.ValidateTarget(bucket, key),
		validation.ValidateObjectOptions(req.Object),
		validation.ValidatePartSize(req.PartSize),
		validation.ValidateConcurrency(req.Concurrency),
	} {
		if err != nil {
			return req, err
		}
	}
	return req, nil
}

// localPath resolves a relative path against the working directory when the
// client reads from the OS filesystem, which is rooted at "/".
func (c *Client) localPath(path string) (string, error) {
	if c.cfg.Filesystem != nil || filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Abs(path)
}

// UploadFile uploads the file at path to bucket/key.
//
// A relative path is resolved against the working directory, unless a
// filesystem was given with WithFilesystem, in which case it is resolved by
// that filesystem.
//
// Files up to 20 MiB are sent in a single request. Larger files are sent as a
// multipart session; an incomplete session left for the same key by an earlier
// attempt is continued when every part it holds matches the file. When no
// content type is given it is detected from the file contents.
//
// Errors:
//   - errors.ErrPrecondition if path is missing, a directory or not a regular file
//   - errors.ErrPartsIncomplete if any part failed; the session has been aborted
//   - errors.ErrFinalize if the store rejected the assembled object; the session has been aborted
//
// Example:
//
//	result, err := client.UploadFile(ctx, "backups", "db/2024-06-01.tar", "/var/backups/db.tar",
//	    transfer.WithProgress(tracker))
func (c *Client) UploadFile(
	ctx context.Context,
	bucket, key, path string,
	opts ...xfertypes.TransferOption,
) (*xfertypes.UploadResult, error) {
	req, err := c.request(bucket, key, opts)
	if err != nil {
		return nil, err
	}

	path, err = c.localPath(path)
	if err != nil {
		return nil, errors.NewObjectError("uploadFile", bucket, key, err)
	}
	src, err := source.NewFile(c.fs, path)
	if err != nil {
		return nil, errors.NewObjectError("uploadFile", bucket, key, err)
	}
	if req.Object.ContentType == "" {
		if ct, err := src.DetectContentType(); err == nil {
			req.Object.ContentType = ct
		} else if c.logger != nil {
			c.logger.DebugContext(ctx, "content type detection failed", "path", path, "error", err)
		}
	}

	release, err := c.locks.acquire(ctx, bucket, key)
	if err != nil {
		return nil, errors.NewObjectError("uploadFile", bucket, key, err)
	}
	defer release()

	return c.xfer.UploadFile(ctx, req, src)
}

// UploadStream uploads everything read from r to bucket/key.
//
// A stream shorter than one part is sent in a single request. Otherwise parts
// are read one after another and sent concurrently, with at most
// MaxBufferSize bytes waiting to be sent. Streams are never resumed.
func (c *Client) UploadStream(
	ctx context.Context,
	bucket, key string,
	r io.Reader,
	opts ...xfertypes.TransferOption,
) (*xfertypes.UploadResult, error) {
	req, err := c.request(bucket, key, opts)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errors.NewObjectError("uploadStream", bucket, key, errors.ErrPrecondition).
			WithMessage("reader cannot be nil")
	}

	release, err := c.locks.acquire(ctx, bucket, key)
	if err != nil {
		return nil, errors.NewObjectError("uploadStream", bucket, key, err)
	}
	defer release()

	return c.xfer.UploadStream(ctx, req, r)
}

// Copy copies src to bucket/key server-side.
//
// A source on the same store as the destination, or one no larger than 5 GiB,
// is copied in a single request. Larger sources on another store are copied as
// byte ranges into a new multipart session.
func (c *Client) Copy(
	ctx context.Context,
	bucket, key string,
	src xfertypes.CopySource,
	opts ...xfertypes.TransferOption,
) (*xfertypes.CopyResult, error) {
	req, err := c.request(bucket, key, opts)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateCopySource(src); err != nil {
		return nil, err
	}

	release, err := c.locks.acquire(ctx, bucket, key)
	if err != nil {
		return nil, errors.NewObjectError("copy", bucket, key, err)
	}
	defer release()

	return c.xfer.Copy(ctx, req, source.NewRemote(src))
}

// PutObject writes data to bucket/key in a single request.
func (c *Client) PutObject(
	ctx context.Context,
	bucket, key string,
	data []byte,
	opts ...xfertypes.TransferOption,
) (*xfertypes.UploadResult, error) {
	req, err := c.request(bucket, key, opts)
	if err != nil {
		return nil, err
	}

	info, err := c.store.Put(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), req.Object)
	if err != nil {
		return nil, errors.NewObjectError("putObject", bucket, key, err)
	}
	return &xfertypes.UploadResult{
		Bucket:    bucket,
		Key:       key,
		Size:      int64(len(data)),
		ETag:      info.ETag,
		VersionID: info.VersionID,
	}, nil
}

// CopyObject copies src to bucket/key in a single server-side request,
// whatever its size.
func (c *Client) CopyObject(
	ctx context.Context,
	bucket, key string,
	src xfertypes.CopySource,
	opts ...xfertypes.TransferOption,
) (*xfertypes.CopyResult, error) {
	req, err := c.request(bucket, key, opts)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateCopySource(src); err != nil {
		return nil, err
	}

	info, err := c.store.Copy(ctx, bucket, key, src, req.Object)
	if err != nil {
		return nil, errors.NewObjectError("copyObject", bucket, key, err)
	}
	return &xfertypes.CopyResult{
		Bucket:    bucket,
		Key:       key,
		Size:      info.Size,
		ETag:      info.ETag,
		VersionID: info.VersionID,
	}, nil
}

// Exists reports whether bucket/key exists.
func (c *Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	if err := validation.ValidateTarget(bucket, key); err != nil {
		return false, err
	}

	_, err := c.store.SourceSize(ctx, xfertypes.CopySource{Bucket: bucket, Key: key})
	switch {
	case err == nil:
		return true, nil
	case errors.IsObjectNotFound(err):
		return false, nil
	default:
		return false, errors.NewObjectError("exists", bucket, key, err)
	}
}

// AbortIncomplete aborts every incomplete multipart session for exactly
// bucket/key and returns how many were aborted. Sessions that a resume could
// not continue stay on the store until aborted here.
func (c *Client) AbortIncomplete(ctx context.Context, bucket, key string) (int, error) {
	if err := validation.ValidateTarget(bucket, key); err != nil {
		return 0, err
	}

	release, err := c.locks.acquire(ctx, bucket, key)
	if err != nil {
		return 0, errors.NewObjectError("abortIncomplete", bucket, key, err)
	}
	defer release()

	sessions, err := c.store.ListSessions(ctx, bucket, key)
	if err != nil {
		return 0, errors.NewObjectError("abortIncomplete", bucket, key, err)
	}

	var (
		aborted int
		merr    *multierror.Error
	)
	for _, s := range sessions {
		if s.Key != key {
			continue
		}
		if err := c.store.Abort(ctx, bucket, key, s.SessionID); err != nil {
			merr = multierror.Append(merr, errors.NewObjectError("abortIncomplete", bucket, key, err).WithSession(s.SessionID))
			continue
		}
		aborted++
		if c.logger != nil {
			c.logger.InfoContext(ctx, "aborted incomplete session", "bucket", bucket, "key", key, "session", s.SessionID)
		}
	}
	return aborted, merr.ErrorOrNil()
}
