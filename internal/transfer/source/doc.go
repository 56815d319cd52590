// Package source provides the byte sources a transfer reads parts from.
//
// A File is addressed by byte range, and every range is read through its own
// file handle so concurrent part workers never share a cursor. A Stream yields
// sequential part-sized chunks from an io.Reader. A Remote names an object the
// store copies ranges from server-side.
package source
