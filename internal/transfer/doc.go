// Package transfer groups the building blocks of resumable multipart transfers.
// This includes part planning, the bounded task pool, resume verification,
// the byte sources parts are read from, and the orchestrator that ties them together.
//
// The orchestrator in the multipart package is the only consumer of the other
// packages; the public client delegates every large transfer to it.
package transfer
