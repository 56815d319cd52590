package s3store

import (
	stderrors "errors"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
)

var errMissingCopyResult = stderrors.New("missing copy part result")

// sentinelFor maps S3 API error codes onto the package sentinels.
func sentinelFor(err error) error {
	var apiErr smithy.APIError
	if !stderrors.As(err, &apiErr) {
		return nil
	}

	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound":
		return errors.ErrObjectNotFound
	case "NoSuchBucket":
		return errors.ErrBucketNotFound
	case "NoSuchUpload":
		return errors.ErrSessionNotFound
	case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return errors.ErrAccessDenied
	case "InvalidBucketName":
		return errors.ErrInvalidBucketName
	case "RequestTimeout":
		return errors.ErrTimeout
	}
	return nil
}

// wrap attaches operation context to a store error and, when the error code is
// recognized, the matching sentinel.
func wrap(op, bucket, key string, err error) *errors.Error {
	if sentinel := sentinelFor(err); sentinel != nil {
		err = fmt.Errorf("%w: %w", sentinel, err)
	}
	return errors.NewObjectError(op, bucket, key, err)
}
