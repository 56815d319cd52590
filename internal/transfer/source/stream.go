package source

import (
	"errors"
	"io"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/pool"
)

// Stream splits a sequential reader into part-sized chunks.
// Chunks come from a buffer pool and go back with Release once transferred.
type Stream struct {
	r     io.Reader
	parts *pool.PartPool
	done  bool
}

// NewStream reads r in chunks of partSize bytes.
func NewStream(r io.Reader, partSize int64) *Stream {
	return &Stream{r: r, parts: pool.NewPartPool(partSize)}
}

// PartSize returns the size of every chunk but the last.
func (s *Stream) PartSize() int64 {
	return s.parts.Size()
}

// Next returns the next chunk. Every chunk is exactly PartSize bytes except the
// last, which may be shorter. It returns io.EOF once the reader is exhausted.
func (s *Stream) Next() ([]byte, error) {
	if s.done {
		return nil, io.EOF
	}

	buf := s.parts.Get()
	n, err := io.ReadFull(s.r, buf)
	switch {
	case err == nil:
		return buf, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		s.done = true
		return buf[:n], nil
	case errors.Is(err, io.EOF):
		s.done = true
		s.parts.Put(buf)
		return nil, io.EOF
	default:
		s.parts.Put(buf)
		return nil, err
	}
}

// Release returns a chunk obtained from Next to the pool.
func (s *Stream) Release(chunk []byte) {
	s.parts.Put(chunk)
}
