// Package errors provides error types and handling for multipart transfer operations.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents a transfer error with context about the operation that failed.
// It wraps the underlying store error with additional context for better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "uploadFile", "copy", "finalize")
	Op string

	// Bucket is the destination bucket name (if applicable)
	Bucket string

	// Key is the destination object key (if applicable)
	Key string

	// SessionID is the multipart session the failure belongs to (if any)
	SessionID string

	// Err is the underlying error from the store or other source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("xfer.")
	b.WriteString(e.Op)
	switch {
	case e.Bucket != "" && e.Key != "":
		fmt.Fprintf(&b, " %s/%s", e.Bucket, e.Key)
	case e.Bucket != "":
		fmt.Fprintf(&b, " bucket %s", e.Bucket)
	case e.Key != "":
		fmt.Fprintf(&b, " object %s", e.Key)
	}
	if e.SessionID != "" {
		fmt.Fprintf(&b, " (session %s)", e.SessionID)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithSession adds multipart session context to an existing error.
func (e *Error) WithSession(sessionID string) *Error {
	e.SessionID = sessionID
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// PartError records the failure of a single part transfer.
type PartError struct {
	PartNumber int
	Err        error
}

// Error implements the error interface.
func (e *PartError) Error() string {
	return fmt.Sprintf("part %d: %v", e.PartNumber, e.Err)
}

// Unwrap returns the underlying error.
func (e *PartError) Unwrap() error {
	return e.Err
}

// Sentinel errors for common transfer failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrObjectNotFound indicates that the requested object does not exist
	ErrObjectNotFound = errors.New("xfer: object not found")

	// ErrBucketNotFound indicates that the requested bucket does not exist
	ErrBucketNotFound = errors.New("xfer: bucket not found")

	// ErrSessionNotFound indicates that the multipart session does not exist on the store
	ErrSessionNotFound = errors.New("xfer: multipart session not found")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("xfer: access denied")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("xfer: invalid input")

	// ErrInvalidBucketName indicates that the bucket name is invalid
	ErrInvalidBucketName = errors.New("xfer: invalid bucket name")

	// ErrInvalidObjectKey indicates that the object key is invalid
	ErrInvalidObjectKey = errors.New("xfer: invalid object key")

	// ErrPrecondition indicates the source cannot serve the requested transfer
	// (missing file, directory, non-seekable input). Raised before any transfer starts.
	ErrPrecondition = errors.New("xfer: precondition failed")

	// ErrPartsIncomplete indicates that not every part reached the store.
	// The session has been aborted when this is returned.
	ErrPartsIncomplete = errors.New("xfer: some parts failed to transfer")

	// ErrFinalize indicates the store rejected the finalize call.
	// The session has been aborted when this is returned.
	ErrFinalize = errors.New("xfer: finalize failed")

	// ErrTooManyParts indicates a stream produced more parts than a session may hold
	ErrTooManyParts = errors.New("xfer: too many parts")

	// ErrTimeout indicates that the operation timed out
	ErrTimeout = errors.New("xfer: operation timeout")
)

// IsObjectNotFound checks if an error indicates that an object was not found.
func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsInvalidInput checks if an error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsPartsIncomplete checks if an error reports an aborted transfer with missing parts.
func IsPartsIncomplete(err error) bool {
	return errors.Is(err, ErrPartsIncomplete)
}

// IsPrecondition checks if an error reports a failed source precondition.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPrecondition)
}
