// Package xfertypes provides shared type definitions for the transfer module.
package xfertypes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-git/go-billy/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// StorageClass represents the storage class for objects.
type StorageClass string

// Predefined storage classes
const (
	// StorageClassStandard is the default storage class
	StorageClassStandard StorageClass = "STANDARD"

	// StorageClassStandardIA provides infrequent access storage
	StorageClassStandardIA StorageClass = "STANDARD_IA"

	// StorageClassIntelligentTiering provides intelligent tiering storage
	StorageClassIntelligentTiering StorageClass = "INTELLIGENT_TIERING"

	// StorageClassGlacier provides archival storage
	StorageClassGlacier StorageClass = "GLACIER"

	// StorageClassDeepArchive provides deep archive storage
	StorageClassDeepArchive StorageClass = "DEEP_ARCHIVE"
)

// SSEType represents the server-side encryption type for objects.
type SSEType string

// Predefined server-side encryption types
const (
	// SSES3 uses store-managed encryption keys
	SSES3 SSEType = "AES256"

	// SSEKMS uses KMS-managed encryption keys
	SSEKMS SSEType = "aws:kms"

	// SSEC uses customer-provided encryption keys
	SSEC SSEType = "SSE-C"
)

// ObjectACL represents the canned access control list for objects.
type ObjectACL string

// Predefined object ACLs
const (
	ACLPrivate            ObjectACL = "private"
	ACLPublicRead         ObjectACL = "public-read"
	ACLPublicReadWrite    ObjectACL = "public-read-write"
	ACLAuthenticatedRead  ObjectACL = "authenticated-read"
	ACLBucketOwnerRead    ObjectACL = "bucket-owner-read"
	ACLBucketOwnerFullCtl ObjectACL = "bucket-owner-full-control"
)

// SSEConfig contains server-side encryption configuration.
type SSEConfig struct {
	// Type is the encryption type (S3, KMS, or customer-provided)
	Type SSEType

	// KMSKeyID is the KMS key ID (required for SSE-KMS)
	KMSKeyID string

	// CustomerKey is the customer-provided encryption key (for SSE-C)
	CustomerKey string

	// CustomerKeyMD5 is the MD5 hash of the customer key (for SSE-C)
	CustomerKeyMD5 string
}

// ObjectOptions enumerates the object attributes a transfer may set.
// Headers is the extension point for custom headers the typed fields do not cover.
type ObjectOptions struct {
	CacheControl       string
	ContentType        string
	ContentDisposition string
	ContentEncoding    string
	ContentLanguage    string
	Expires            time.Time
	StorageClass       StorageClass
	ACL                ObjectACL
	Metadata           map[string]string
	SSE                *SSEConfig
	Headers            map[string]string
}

// ProgressTracker defines the interface for tracking transfer progress.
// Update may be called concurrently from part workers.
type ProgressTracker interface {
	// Update is called after each part with the running totals
	Update(bytesTransferred, totalBytes int64)

	// Complete is called when the transfer completes successfully
	Complete()

	// Error is called when the transfer fails
	Error(err error)
}

// CopySource identifies the object a copy reads from.
type CopySource struct {
	Bucket string
	Key    string

	// Region and Endpoint locate the source store. An empty Endpoint is derived
	// from Region; a source with the destination's endpoint is co-located.
	Region   string
	Endpoint string

	// VersionID selects a specific object version (optional)
	VersionID string
}

// TransferConfig holds the resolved configuration of a single transfer call.
type TransferConfig struct {
	Object          ObjectOptions
	ProgressTracker ProgressTracker
	PartSize        int64
	Concurrency     int
	MaxBufferSize   int64
	DisableResume   bool
}

// UploadResult contains the result of an upload operation.
type UploadResult struct {
	// Bucket and Key name the object that was written
	Bucket string
	Key    string

	// Size is the size of the object in bytes
	Size int64

	// ETag is the integrity tag for the finished object
	ETag string

	// VersionID is the version ID if versioning is enabled
	VersionID string

	// Location is the object URL reported by the store (multipart only)
	Location string

	// SessionID is the multipart session that produced the object; empty for single-shot
	SessionID string

	// Parts is the number of parts that make up the object (0 for single-shot)
	Parts int

	// Resumed reports whether an existing session was continued
	Resumed bool

	// SkippedParts counts parts already present on the store that were not re-sent
	SkippedParts int

	// Duration is how long the transfer took
	Duration time.Duration
}

// Multipart reports whether the object was assembled from parts.
func (r *UploadResult) Multipart() bool {
	return r.SessionID != ""
}

// CopyResult contains the result of a copy operation.
type CopyResult = UploadResult

// ClientConfig holds configuration for the transfer client.
type ClientConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	MaxRetries      int
	Timeout         time.Duration
	Concurrency     int
	PartSize        int64
	PartRetries     int
	ForcePathStyle  bool
	CustomAWSConfig *aws.Config
	HTTPClient      *http.Client
	Filesystem      billy.Filesystem
	Logger          *slog.Logger
	Registerer      prometheus.Registerer
}

// Option is a functional option for configuring the transfer client.
type (
	Option func(*ClientConfig)
	// TransferOption is a functional option for configuring a single upload or copy.
	TransferOption func(*TransferConfig)
)
