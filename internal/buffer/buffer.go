// Package buffer implements the growable receive buffer that backs the
// protocol demuxer. Bytes are appended by bounded reads from a file
// descriptor and consumed by discarding a prefix in place.
package buffer

import (
	"golang.org/x/sys/unix"
)

const (
	initialCapacity = 4096

	// Minimum free space guaranteed before each read.
	readChunk = 4096
)

// Buffer is an owned contiguous region whose logical bytes occupy the
// prefix [0, size).
type Buffer struct {
	data []byte
	size int
}

func New() *Buffer {
	return &Buffer{data: make([]byte, initialCapacity)}
}

// Size returns the number of logical bytes currently buffered.
func (b *Buffer) Size() int {
	return b.size
}

// Bytes returns the buffered prefix. The slice is invalidated by the next
// AppendFrom or Discard.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.size]
}

// AppendFrom performs one bounded read from fd into the buffer tail,
// doubling capacity first if less than 4 KiB is free. It returns the
// number of bytes read; 0 means the peer closed the descriptor. EINTR is
// retried in place.
func (b *Buffer) AppendFrom(fd int) (int, error) {
	if len(b.data)-b.size < readChunk {
		grown := make([]byte, len(b.data)*2)
		copy(grown, b.data[:b.size])
		b.data = grown
	}

	for {
		n, err := unix.Read(fd, b.data[b.size:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return -1, err
		}
		b.size += n
		return n, nil
	}
}

// Discard drops the first n buffered bytes, shifting the tail down.
// Discarding more than Size() is a programmer error.
func (b *Buffer) Discard(n int) {
	if n > b.size {
		panic("buffer: discard beyond buffered size")
	}
	copy(b.data, b.data[n:b.size])
	b.size -= n
}
