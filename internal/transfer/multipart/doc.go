// Package multipart handles multipart upload and download operations.
// This includes part management, concurrent part uploads, and error recovery.
//
// The package manages the complexity of multipart operations while providing
// a simple interface for the rest of the module.
package multipart
