// Package pool provides buffer reuse for part transfers.
//
// Streaming uploads hold up to a queue's worth of part-sized buffers in memory
// at once, and resume verification hashes every previously uploaded range.
// Both recycle their buffers here instead of allocating per part.
package pool
