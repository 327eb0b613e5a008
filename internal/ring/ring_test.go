package ring

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	r := New(16)
	assert.Equal(t, 5, r.Write([]byte("hello")))
	assert.Equal(t, 5, r.Size())

	dst := make([]byte, 5)
	assert.Equal(t, 5, r.Read(dst))
	assert.Equal(t, []byte("hello"), dst)
	assert.Equal(t, 0, r.Size())
}

func TestWrapAround(t *testing.T) {
	r := New(8)

	// Walk the indices around the ring several times with mismatched
	// chunk sizes so both copies routinely split in two segments.
	var wrote, read []byte
	dst := make([]byte, 5)
	for i := 0; i < 64; i++ {
		chunk := []byte{byte(i), byte(i + 1), byte(i + 2)}
		n := r.Write(chunk)
		wrote = append(wrote, chunk[:n]...)
		n = r.Read(dst)
		read = append(read, dst[:n]...)
	}
	n := r.Read(dst)
	read = append(read, dst[:n]...)

	assert.Equal(t, wrote, read)
}

func TestOverflowVisibleToProducer(t *testing.T) {
	r := New(4)
	assert.Equal(t, 4, r.Write([]byte("abcdef")))
	assert.Equal(t, 0, r.Write([]byte("x")))
	assert.Equal(t, 4, r.Size())
}

func TestUnderflowVisibleToConsumer(t *testing.T) {
	r := New(1024)
	r.Write(bytes.Repeat([]byte{0x7f}, 200))

	dst := make([]byte, 960)
	n := r.Read(dst)
	assert.Equal(t, 200, n)
	assert.Equal(t, 0, r.Size())
}

func TestConcurrentFIFO(t *testing.T) {
	const total = 1 << 16
	r := New(251) // deliberately odd capacity

	src := make([]byte, total)
	for i := range src {
		src[i] = byte(i * 31)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for off := 0; off < total; {
			off += r.Write(src[off:min(off+97, total)])
		}
	}()

	got := make([]byte, 0, total)
	dst := make([]byte, 64)
	for len(got) < total {
		n := r.Read(dst)
		sz := r.Size()
		require.GreaterOrEqual(t, sz, 0)
		require.LessOrEqual(t, sz, r.Capacity())
		got = append(got, dst[:n]...)
	}
	wg.Wait()

	// Consumer output is a prefix (here: the entirety) of producer input,
	// in order.
	assert.Equal(t, src, got)
}
