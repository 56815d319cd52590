package miniostore

import (
	"fmt"

	"github.com/minio/minio-go/v7"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
)

func sentinelFor(err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NotFound":
		return errors.ErrObjectNotFound
	case "NoSuchBucket":
		return errors.ErrBucketNotFound
	case "NoSuchUpload":
		return errors.ErrSessionNotFound
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return errors.ErrAccessDenied
	case "InvalidBucketName":
		return errors.ErrInvalidBucketName
	}
	return nil
}

func wrap(op, bucket, key string, err error) *errors.Error {
	if sentinel := sentinelFor(err); sentinel != nil {
		err = fmt.Errorf("%w: %w", sentinel, err)
	}
	return errors.NewObjectError(op, bucket, key, err)
}
