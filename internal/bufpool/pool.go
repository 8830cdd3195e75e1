// Package bufpool pools copy buffers.
package bufpool

import (
	"io"
	"sync"
)

const Size = 32 * 1024

var pool = &sync.Pool{
	New: func() any {
		b := make([]byte, Size)
		return &b
	},
}

func Get() *[]byte {
	return pool.Get().(*[]byte)
}

// Put returns b to the pool. Buffers resized by the caller are dropped.
func Put(b *[]byte) {
	if b == nil || len(*b) != Size || cap(*b) != Size {
		return
	}
	pool.Put(b)
}

// Copy is [io.CopyBuffer] with a pooled buffer.
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	b := Get()
	defer Put(b)
	return io.CopyBuffer(dst, src, *b)
}
