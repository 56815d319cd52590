package s3store

import (
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/store"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// sseFields is the server-side encryption request surface shared by the
// put, create and copy inputs.
type sseFields struct {
	mode      awstypes.ServerSideEncryption
	kmsKeyID  *string
	algorithm *string
	key       *string
	keyMD5    *string
}

func resolveSSE(sse *xfertypes.SSEConfig) sseFields {
	var f sseFields
	if sse == nil {
		return f
	}

	switch sse.Type {
	case xfertypes.SSES3:
		f.mode = awstypes.ServerSideEncryptionAes256
	case xfertypes.SSEKMS:
		f.mode = awstypes.ServerSideEncryptionAwsKms
		if sse.KMSKeyID != "" {
			f.kmsKeyID = aws.String(sse.KMSKeyID)
		}
	default: // SSEC (customer-provided encryption)
		if c := customerKey(sse); c != nil {
			f.algorithm, f.key, f.keyMD5 = c.algorithm, c.key, c.keyMD5
		}
	}
	return f
}

// customerKey returns the SSE-C fields every part request must repeat, or nil.
func customerKey(sse *xfertypes.SSEConfig) *sseFields {
	if sse == nil || sse.Type != xfertypes.SSEC || sse.CustomerKey == "" {
		return nil
	}
	return &sseFields{
		algorithm: aws.String(string(awstypes.ServerSideEncryptionAes256)),
		key:       aws.String(sse.CustomerKey),
		keyMD5:    aws.String(sse.CustomerKeyMD5),
	}
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}

// headerOptions attaches the free-form headers of opts to a request.
func headerOptions(opts xfertypes.ObjectOptions) []func(*s3.Options) {
	if len(opts.Headers) == 0 {
		return nil
	}
	return []func(*s3.Options){
		func(o *s3.Options) {
			for name, value := range opts.Headers {
				o.APIOptions = append(o.APIOptions, smithyhttp.SetHeaderValue(name, value))
			}
		},
	}
}

func putInput(
	bucket, key string,
	body io.ReadSeeker,
	size int64,
	opts xfertypes.ObjectOptions,
) *s3.PutObjectInput {
	input := &s3.PutObjectInput{
		Bucket:             aws.String(bucket),
		Key:                aws.String(key),
		Body:               body,
		ContentLength:      aws.Int64(size),
		CacheControl:       optString(opts.CacheControl),
		ContentType:        optString(opts.ContentType),
		ContentDisposition: optString(opts.ContentDisposition),
		ContentEncoding:    optString(opts.ContentEncoding),
		ContentLanguage:    optString(opts.ContentLanguage),
		StorageClass:       awstypes.StorageClass(opts.StorageClass),
		ACL:                awstypes.ObjectCannedACL(opts.ACL),
	}
	if !opts.Expires.IsZero() {
		input.Expires = aws.Time(opts.Expires)
	}
	if len(opts.Metadata) > 0 {
		input.Metadata = opts.Metadata
	}

	sse := resolveSSE(opts.SSE)
	input.ServerSideEncryption = sse.mode
	input.SSEKMSKeyId = sse.kmsKeyID
	input.SSECustomerAlgorithm = sse.algorithm
	input.SSECustomerKey = sse.key
	input.SSECustomerKeyMD5 = sse.keyMD5
	return input
}

func createInput(bucket, key string, opts xfertypes.ObjectOptions) *s3.CreateMultipartUploadInput {
	input := &s3.CreateMultipartUploadInput{
		Bucket:             aws.String(bucket),
		Key:                aws.String(key),
		CacheControl:       optString(opts.CacheControl),
		ContentType:        optString(opts.ContentType),
		ContentDisposition: optString(opts.ContentDisposition),
		ContentEncoding:    optString(opts.ContentEncoding),
		ContentLanguage:    optString(opts.ContentLanguage),
		StorageClass:       awstypes.StorageClass(opts.StorageClass),
		ACL:                awstypes.ObjectCannedACL(opts.ACL),
	}
	if !opts.Expires.IsZero() {
		input.Expires = aws.Time(opts.Expires)
	}
	if len(opts.Metadata) > 0 {
		input.Metadata = opts.Metadata
	}

	sse := resolveSSE(opts.SSE)
	input.ServerSideEncryption = sse.mode
	input.SSEKMSKeyId = sse.kmsKeyID
	input.SSECustomerAlgorithm = sse.algorithm
	input.SSECustomerKey = sse.key
	input.SSECustomerKeyMD5 = sse.keyMD5
	return input
}

// copyInput builds a single-shot copy. Attributes of the source are kept unless
// opts replaces the content type or metadata.
func copyInput(
	bucket, key string,
	src xfertypes.CopySource,
	opts xfertypes.ObjectOptions,
) *s3.CopyObjectInput {
	input := &s3.CopyObjectInput{
		Bucket:             aws.String(bucket),
		Key:                aws.String(key),
		CopySource:         aws.String(store.CopySourceString(src)),
		CacheControl:       optString(opts.CacheControl),
		ContentType:        optString(opts.ContentType),
		ContentDisposition: optString(opts.ContentDisposition),
		ContentEncoding:    optString(opts.ContentEncoding),
		ContentLanguage:    optString(opts.ContentLanguage),
		StorageClass:       awstypes.StorageClass(opts.StorageClass),
		ACL:                awstypes.ObjectCannedACL(opts.ACL),
	}
	if !opts.Expires.IsZero() {
		input.Expires = aws.Time(opts.Expires)
	}
	if len(opts.Metadata) > 0 || opts.ContentType != "" {
		input.Metadata = opts.Metadata
		input.MetadataDirective = awstypes.MetadataDirectiveReplace
	}

	sse := resolveSSE(opts.SSE)
	input.ServerSideEncryption = sse.mode
	input.SSEKMSKeyId = sse.kmsKeyID
	input.SSECustomerAlgorithm = sse.algorithm
	input.SSECustomerKey = sse.key
	input.SSECustomerKeyMD5 = sse.keyMD5
	return input
}
