package pool

import (
	"sync"
)

// CopyBufferSize is the size of the scratch buffers used to stream a byte
// range through a hash (64KB).
const CopyBufferSize = 64 * 1024

var copyBuffers = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, CopyBufferSize)
		return &buf
	},
}

// GetCopyBuffer returns a CopyBufferSize scratch buffer from the global pool.
// The caller is responsible for calling PutCopyBuffer to return it.
func GetCopyBuffer() []byte {
	return *copyBuffers.Get().(*[]byte)
}

// PutCopyBuffer returns a scratch buffer to the global pool.
// Buffers of any other capacity are dropped.
func PutCopyBuffer(buf []byte) {
	if cap(buf) != CopyBufferSize {
		return
	}
	buf = buf[:CopyBufferSize]
	copyBuffers.Put(&buf)
}

// PartPool recycles buffers of exactly one part size.
type PartPool struct {
	size int64
	pool sync.Pool
}

// NewPartPool creates a pool of partSize buffers.
func NewPartPool(partSize int64) *PartPool {
	p := &PartPool{size: partSize}
	p.pool.New = func() interface{} {
		buf := make([]byte, partSize)
		return &buf
	}
	return p
}

// Size returns the buffer size the pool hands out.
func (p *PartPool) Size() int64 {
	return p.size
}

// Get returns a buffer of length Size.
// The caller is responsible for calling Put to return the buffer to the pool.
func (p *PartPool) Get() []byte {
	bufPtr := p.pool.Get().(*[]byte)
	return (*bufPtr)[:p.size]
}

// Put returns a buffer to the pool.
// The buffer should not be used after calling Put. Buffers that did not come
// from this pool are dropped.
func (p *PartPool) Put(buf []byte) {
	if int64(cap(buf)) != p.size {
		return
	}
	buf = buf[:p.size]
	p.pool.Put(&buf)
}
