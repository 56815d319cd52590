// Package testutil provides a builder for creating mock S3 clients.
package testutil

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// MockBuilder provides a fluent interface for building MockS3Client instances.
type MockBuilder struct {
	client *MockS3Client
}

// NewMockBuilder creates a new MockBuilder.
func NewMockBuilder() *MockBuilder {
	return &MockBuilder{
		client: &MockS3Client{},
	}
}

// Build returns the configured MockS3Client.
func (b *MockBuilder) Build() *MockS3Client {
	return b.client
}

// WithHeadObject configures the HeadObject behavior.
func (b *MockBuilder) WithHeadObject(
	fn func(context.Context, *s3.HeadObjectInput) (*s3.HeadObjectOutput, error),
) *MockBuilder {
	b.client.HeadObjectFunc = func(ctx context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithCopyObject configures the CopyObject behavior.
func (b *MockBuilder) WithCopyObject(
	fn func(context.Context, *s3.CopyObjectInput) (*s3.CopyObjectOutput, error),
) *MockBuilder {
	b.client.CopyObjectFunc = func(ctx context.Context, params *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithListParts configures the ListParts behavior.
func (b *MockBuilder) WithListParts(
	fn func(context.Context, *s3.ListPartsInput) (*s3.ListPartsOutput, error),
) *MockBuilder {
	b.client.ListPartsFunc = func(ctx context.Context, params *s3.ListPartsInput, _ ...func(*s3.Options)) (*s3.ListPartsOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithListMultipartUploads configures the ListMultipartUploads behavior.
func (b *MockBuilder) WithListMultipartUploads(
	fn func(context.Context, *s3.ListMultipartUploadsInput) (*s3.ListMultipartUploadsOutput, error),
) *MockBuilder {
	b.client.ListMultipartUploadsFunc = func(ctx context.Context, params *s3.ListMultipartUploadsInput, _ ...func(*s3.Options)) (*s3.ListMultipartUploadsOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithSuccessfulUpload configures the mock to accept every single-shot put.
// The returned ETag is the quoted MD5 of the body.
func (b *MockBuilder) WithSuccessfulUpload() *MockBuilder {
	b.client.PutObjectFunc = func(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		var data []byte
		if params.Body != nil {
			data, _ = io.ReadAll(params.Body)
		}
		return &s3.PutObjectOutput{
			ETag: StringPtr(CalculateETag(data)),
		}, nil
	}
	return b
}

// WithFailedUpload configures the mock to fail every single-shot put and part upload.
func (b *MockBuilder) WithFailedUpload(err error) *MockBuilder {
	b.client.PutObjectFunc = func(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, err
	}
	b.client.UploadPartFunc = func(ctx context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
		return nil, err
	}
	return b
}

// WithObjectNotFound configures the mock to return not found errors for metadata lookups.
func (b *MockBuilder) WithObjectNotFound() *MockBuilder {
	b.client.HeadObjectFunc = func(ctx context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		return nil, &types.NotFound{Message: StringPtr("Not Found")}
	}
	b.client.CopyObjectFunc = func(ctx context.Context, params *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
		return nil, &types.NoSuchKey{Message: StringPtr("The specified key does not exist.")}
	}
	return b
}

// WithMultipartUpload configures the mock for multipart upload operations.
// Part ETags are the quoted MD5 of each part body.
func (b *MockBuilder) WithMultipartUpload(uploadID string) *MockBuilder {
	b.client.CreateMultipartUploadFunc = func(ctx context.Context, params *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
		return &s3.CreateMultipartUploadOutput{
			UploadId: StringPtr(uploadID),
			Bucket:   params.Bucket,
			Key:      params.Key,
		}, nil
	}

	b.client.UploadPartFunc = func(ctx context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
		var data []byte
		if params.Body != nil {
			data, _ = io.ReadAll(params.Body)
		}
		return &s3.UploadPartOutput{
			ETag: StringPtr(CalculateETag(data)),
		}, nil
	}

	b.client.UploadPartCopyFunc = func(ctx context.Context, params *s3.UploadPartCopyInput, _ ...func(*s3.Options)) (*s3.UploadPartCopyOutput, error) {
		return &s3.UploadPartCopyOutput{
			CopyPartResult: &types.CopyPartResult{
				ETag: StringPtr(CalculateETag([]byte(*params.CopySourceRange))),
			},
		}, nil
	}

	b.client.CompleteMultipartUploadFunc = func(ctx context.Context, params *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
		return &s3.CompleteMultipartUploadOutput{
			ETag:     StringPtr(`"multipart-etag"`),
			Bucket:   params.Bucket,
			Key:      params.Key,
			Location: StringPtr("https://" + *params.Bucket + ".s3.amazonaws.com/" + *params.Key),
		}, nil
	}

	b.client.AbortMultipartUploadFunc = func(ctx context.Context, params *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
		return &s3.AbortMultipartUploadOutput{}, nil
	}

	return b
}

// WithAccessDenied configures the mock to return access denied errors.
func (b *MockBuilder) WithAccessDenied() *MockBuilder {
	accessDeniedErr := &smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied"}

	b.client.PutObjectFunc = func(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, accessDeniedErr
	}
	b.client.CreateMultipartUploadFunc = func(ctx context.Context, params *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
		return nil, accessDeniedErr
	}
	b.client.ListMultipartUploadsFunc = func(ctx context.Context, params *s3.ListMultipartUploadsInput, _ ...func(*s3.Options)) (*s3.ListMultipartUploadsOutput, error) {
		return nil, accessDeniedErr
	}

	return b
}
