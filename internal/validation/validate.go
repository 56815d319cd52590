// Package validation checks transfer inputs before any request reaches a store.
//
// Bucket names follow the DNS-compliant S3 rules, object keys must not contain
// traversal segments or control characters, and part sizing is bounded by the
// limits every multipart store shares.
package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

const (
	// MaxPartSize is the largest part a multipart session accepts.
	MaxPartSize int64 = 5 * 1024 * 1024 * 1024

	// MaxConcurrency bounds the worker count of a single transfer.
	MaxConcurrency = 256

	maxKeyLength           = 1024
	maxMetadataKeyLength   = 128
	maxMetadataValueLength = 2048
)

// ValidateTarget validates a destination bucket and key pair.
func ValidateTarget(bucket, key string) error {
	if err := ValidateBucketName(bucket); err != nil {
		return err
	}
	return ValidateObjectKey(key)
}

// ValidateBucketName validates that a bucket name is DNS-compliant.
// Returns ErrInvalidBucketName if it is not.
func ValidateBucketName(bucket string) error {
	fail := func(msg string) error {
		return errors.NewError("validateBucketName", errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithMessage(msg)
	}

	if len(bucket) < 3 || len(bucket) > 63 {
		return fail("bucket name must be between 3 and 63 characters long")
	}
	for _, c := range bucket {
		if !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9') && c != '.' && c != '-' {
			return fail("bucket name can only contain lowercase letters, numbers, dots, and hyphens")
		}
	}
	if strings.ContainsAny(bucket[:1], ".-") || strings.ContainsAny(bucket[len(bucket)-1:], ".-") {
		return fail("bucket name cannot start or end with a hyphen or dot")
	}
	if strings.Contains(bucket, "..") || strings.Contains(bucket, ".-") || strings.Contains(bucket, "-.") {
		return fail("bucket name cannot contain adjacent dots")
	}
	if looksLikeIPv4(bucket) {
		return fail("bucket name cannot be formatted as an IP address")
	}
	return nil
}

// ValidateObjectKey validates that an object key can be written safely.
func ValidateObjectKey(key string) error {
	fail := func(msg string) error {
		return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
			WithKey(key).
			WithMessage(msg)
	}

	if key == "" {
		return fail("object key cannot be empty")
	}
	if len(key) > maxKeyLength {
		return fail(fmt.Sprintf("object key cannot exceed %d bytes", maxKeyLength))
	}
	for _, seg := range strings.FieldsFunc(key, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return fail("object key cannot contain path traversal segments")
		}
	}
	if strings.IndexFunc(key, unicode.IsControl) >= 0 {
		return fail("object key cannot contain control characters")
	}
	return nil
}

// ValidateMetadata validates user metadata keys and values.
func ValidateMetadata(metadata map[string]string) error {
	for k, v := range metadata {
		if err := validateMetadataPair(k, v); err != nil {
			return errors.NewError("validateMetadata", errors.ErrInvalidInput).WithMessage(err.Error())
		}
	}
	return nil
}

func validateMetadataPair(k, v string) error {
	switch {
	case k == "":
		return fmt.Errorf("metadata key cannot be empty")
	case len(k) > maxMetadataKeyLength:
		return fmt.Errorf("metadata key %q exceeds %d characters", k, maxMetadataKeyLength)
	case strings.HasPrefix(strings.ToLower(k), "x-amz-"):
		return fmt.Errorf("metadata key %q uses a reserved prefix", k)
	case len(v) > maxMetadataValueLength:
		return fmt.Errorf("metadata value for %q exceeds %d characters", k, maxMetadataValueLength)
	}
	for _, c := range k {
		if c <= ' ' || c > '~' {
			return fmt.Errorf("metadata key %q must be printable ASCII without spaces", k)
		}
	}
	for _, c := range v {
		if !unicode.IsPrint(c) && c != '\t' {
			return fmt.Errorf("metadata value for %q contains non-printable characters", k)
		}
	}
	return nil
}

// ValidateObjectOptions validates the per-object attributes of a transfer.
func ValidateObjectOptions(opts xfertypes.ObjectOptions) error {
	if err := ValidateMetadata(opts.Metadata); err != nil {
		return err
	}

	switch opts.ACL {
	case "", xfertypes.ACLPrivate, xfertypes.ACLPublicRead, xfertypes.ACLPublicReadWrite,
		xfertypes.ACLAuthenticatedRead, xfertypes.ACLBucketOwnerRead, xfertypes.ACLBucketOwnerFullCtl:
	default:
		return errors.NewError("validateACL", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("unknown ACL %q", opts.ACL))
	}

	if sse := opts.SSE; sse != nil {
		switch sse.Type {
		case xfertypes.SSES3, xfertypes.SSEKMS:
		case xfertypes.SSEC:
			if sse.CustomerKey == "" {
				return errors.NewError("validateSSE", errors.ErrInvalidInput).
					WithMessage("SSE-C requires a customer key")
			}
		default:
			return errors.NewError("validateSSE", errors.ErrInvalidInput).
				WithMessage(fmt.Sprintf("unknown encryption type %q", sse.Type))
		}
	}

	for name := range opts.Headers {
		if name == "" || strings.ContainsAny(name, " :\r\n") {
			return errors.NewError("validateHeaders", errors.ErrInvalidInput).
				WithMessage(fmt.Sprintf("invalid header name %q", name))
		}
	}
	return nil
}

// ValidatePartSize checks a requested part size. Zero means "use the default".
func ValidatePartSize(size int64) error {
	if size < 0 || size > MaxPartSize {
		return errors.NewError("validatePartSize", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("part size %d out of range (0, %d]", size, MaxPartSize))
	}
	return nil
}

// ValidateConcurrency checks a requested worker count. Zero means "use the default".
func ValidateConcurrency(n int) error {
	if n < 0 || n > MaxConcurrency {
		return errors.NewError("validateConcurrency", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("concurrency %d out of range [0, %d]", n, MaxConcurrency))
	}
	return nil
}

// ValidateCopySource validates the object a copy reads from.
func ValidateCopySource(src xfertypes.CopySource) error {
	if err := ValidateBucketName(src.Bucket); err != nil {
		return err
	}
	if err := ValidateObjectKey(src.Key); err != nil {
		return err
	}
	if strings.ContainsAny(src.VersionID, "&?# ") {
		return errors.NewError("validateCopySource", errors.ErrInvalidInput).
			WithBucket(src.Bucket).
			WithKey(src.Key).
			WithMessage("version id contains reserved characters")
	}
	return nil
}

func looksLikeIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" || len(p) > 3 || strings.TrimLeft(p, "0123456789") != "" {
			return false
		}
	}
	return true
}
