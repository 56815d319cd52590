// Package planner splits an object into numbered parts.
// This includes the part count, the common part size, and the size of the
// final part, all derived deterministically from the total size.
//
// The same plan is used when uploading and when verifying a resumed session,
// so part N always covers the same byte range for a given input.
package planner
