package transfer

import (
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-git/go-billy/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// WithRegion sets the region of the destination store.
// If not specified, uses the region from the AWS credential chain.
func WithRegion(region string) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.Region = region
	}
}

// WithEndpoint sets a custom store endpoint URL.
// This is useful for S3-compatible services or local testing with LocalStack.
func WithEndpoint(endpoint string) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithCredentials sets static credentials instead of the default credential chain.
func WithCredentials(accessKeyID, secretAccessKey, sessionToken string) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.AccessKeyID = accessKeyID
		c.SecretAccessKey = secretAccessKey
		c.SessionToken = sessionToken
	}
}

// WithMaxRetries sets the SDK-level retry attempts for each request.
// Default is 3.
func WithMaxRetries(maxRetries int) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithTimeout sets the timeout of every HTTP request.
// Default is no timeout.
func WithTimeout(timeout time.Duration) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithConcurrency sets the default number of parts in flight per transfer.
// Default is 5.
func WithConcurrency(concurrency int) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithPartSize sets the default part size of every transfer.
// When unset, file uploads use 5 MiB parts and streams and copies 10 MiB.
func WithPartSize(partSize int64) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		if partSize > 0 {
			c.PartSize = partSize
		}
	}
}

// WithPartRetries sets how many times a failed part request is retried.
// Default is 0: a failed part fails the transfer.
func WithPartRetries(retries int) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.PartRetries = retries
	}
}

// WithForcePathStyle forces path-style URLs instead of virtual-hosted style.
// This is required for S3-compatible services that don't support virtual hosting.
func WithForcePathStyle(forcePathStyle bool) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithAWSConfig provides a custom AWS configuration.
// This overrides the default configuration loading behavior.
func WithAWSConfig(config *aws.Config) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.CustomAWSConfig = config
	}
}

// WithHTTPClient sets the HTTP client used for store requests.
func WithHTTPClient(client *http.Client) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.HTTPClient = client
	}
}

// WithFilesystem sets the filesystem local paths are read from.
// If not specified, defaults to the OS filesystem.
func WithFilesystem(filesystem billy.Filesystem) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithLogger sets the logger for session lifecycle events.
// Nil (the default) disables logging.
func WithLogger(logger *slog.Logger) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.Logger = logger
	}
}

// WithMetricsRegisterer registers transfer metrics on reg.
func WithMetricsRegisterer(reg prometheus.Registerer) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.Registerer = reg
	}
}

// WithContentType sets the content type of the object.
func WithContentType(contentType string) xfertypes.TransferOption {
	return func(c *xfertypes.TransferConfig) {
		c.Object.ContentType = contentType
	}
}

// WithCacheControl sets the Cache-Control header of the object.
func WithCacheControl(v string) xfertypes.TransferOption {
	return func(c *xfertypes.TransferConfig) {
		c.Object.CacheControl = v
	}
}

// WithContentDisposition sets the Content-Disposition header of the object.
func WithContentDisposition(v string) xfertypes.TransferOption {
	return func(c *xfertypes.TransferConfig) {
		c.Object.ContentDisposition = v
	}
}

// WithContentEncoding sets the Content-Encoding header of the object.
func WithContentEncoding(v string) xfertypes.TransferOption {
	return func(c *xfertypes.TransferConfig) {
		c.Object.ContentEncoding = v
	}
}

// WithContentLanguage sets the Content-Language header of the object.
func WithContentLanguage(v string) xfertypes.TransferOption {
	return func(c *xfertypes.TransferConfig) {
		c.Object.ContentLanguage = v
	}
}

// WithExpires sets the Expires header of the object.
func WithExpires(t time.Time) xfertypes.TransferOption {
	return func(c *xfertypes.TransferConfig) {
		c.Object.Expires = t
	}
}

// WithMetadata adds user metadata to the object.
func WithMetadata(metadata map[string]string) xfertypes.TransferOption {
	return func(c *xfertypes.TransferConfig) {
		if c.Object.Metadata == nil {
			c.Object.Metadata = make(map[string]string, len(metadata))
		}
		maps.Copy(c.Object.Metadata, metadata)
	}
}

// WithStorageClass sets the storage class of the object.
func WithStorageClass(storageClass xfertypes.StorageClass) xfertypes.TransferOption {
	return func(c *xfertypes.TransferConfig) {
		c.Object.StorageClass = storageClass
	}
}

// WithACL sets the canned ACL of the object.
func WithACL(acl xfertypes.ObjectACL) xfertypes.TransferOption {
	return func(c *xfertypes.TransferConfig) {
		c.Object.ACL = acl
	}
}

// WithServerSideEncryption sets server-side encryption for the object.
func WithServerSideEncryption(sse *xfertypes.SSEConfig) xfertypes.TransferOption {
	return func(c *xfertypes.TransferConfig) {
		c.Object.SSE = sse
	}
}

// WithHeader sets a request header the typed options do not cover.
func WithHeader(name, value string) xfertypes.TransferOption {
	return func(c *xfertypes.TransferConfig) {
		if c.Object.Headers == nil {
			c.Object.Headers = make(map[string]string)
		}
		c.Object.Headers[name] = value
	}
}

// WithProgress sets a progress tracker for the transfer.
func WithProgress(tracker xfertypes.ProgressTracker) xfertypes.TransferOption {
	return func(c *xfertypes.TransferConfig) {
		c.ProgressTracker = tracker
	}
}

// WithTransferPartSize overrides the part size for this transfer.
func WithTransferPartSize(partSize int64) xfertypes.TransferOption {
	return func(c *xfertypes.TransferConfig) {
		c.PartSize = partSize
	}
}

// WithTransferConcurrency overrides the number of parts in flight for this transfer.
func WithTransferConcurrency(concurrency int) xfertypes.TransferOption {
	return func(c *xfertypes.TransferConfig) {
		c.Concurrency = concurrency
	}
}

// WithMaxBufferSize bounds the bytes a stream upload keeps queued.
// Default is 100 MiB.
func WithMaxBufferSize(size int64) xfertypes.TransferOption {
	return func(c *xfertypes.TransferConfig) {
		c.MaxBufferSize = size
	}
}

// WithoutResume always starts a new session instead of continuing an
// incomplete one.
func WithoutResume() xfertypes.TransferOption {
	return func(c *xfertypes.TransferConfig) {
		c.DisableResume = true
	}
}
