// Package buffers pools the copy buffers used when streaming media to and
// from hosted storage.
package buffers

import (
	"io"
	"sync"
	"sync/atomic"
)

// CopyBufferSize is the size of pooled copy buffers.
const CopyBufferSize = 256 * 1024

var (
	allocations int64

	copyPool = &sync.Pool{
		New: func() interface{} {
			atomic.AddInt64(&allocations, 1)
			buf := make([]byte, CopyBufferSize)
			return &buf
		},
	}
)

// Get retrieves a buffer of CopyBufferSize bytes. Return it with Put.
func Get() *[]byte {
	return copyPool.Get().(*[]byte)
}

// Put returns buf to the pool. Buffers of another size are dropped.
func Put(buf *[]byte) {
	if buf == nil || len(*buf) != CopyBufferSize {
		return
	}
	clear(*buf)
	copyPool.Put(buf)
}

// Copy is io.CopyBuffer with a pooled buffer.
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	buf := Get()
	defer Put(buf)
	return io.CopyBuffer(dst, src, *buf)
}

// Allocations returns how many buffers the pool has created.
func Allocations() int64 {
	return atomic.LoadInt64(&allocations)
}
