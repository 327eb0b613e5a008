package bits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bitWriter assembles test bitstreams MSB first.
type bitWriter struct {
	data []byte
	nbit int
}

func (w *bitWriter) bit(b uint64) {
	if w.nbit&7 == 0 {
		w.data = append(w.data, 0)
	}
	if b != 0 {
		w.data[len(w.data)-1] |= 1 << uint(7-w.nbit&7)
	}
	w.nbit++
}

func (w *bitWriter) u(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		w.bit(v >> uint(i) & 1)
	}
}

func (w *bitWriter) ue(v uint64) {
	n := 0
	for x := v + 1; x > 1; x >>= 1 {
		n++
	}
	w.u(0, n)
	w.u(v+1, n+1)
}

func (w *bitWriter) se(v int64) {
	if v <= 0 {
		w.ue(uint64(-2 * v))
	} else {
		w.ue(uint64(2*v - 1))
	}
}

func TestReadU(t *testing.T) {
	r := NewReader([]byte{0xa5, 0x3c, 0x7e, 0x01})
	require.NoError(t, Catch(func() {
		assert.EqualValues(t, 0xa, r.U(4))
		assert.EqualValues(t, 0x53, r.U(8))
		assert.EqualValues(t, 0xc7e01, r.U(20))
	}))
}

func TestBitwiseMatchesChunked(t *testing.T) {
	data := []byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0}
	for _, n := range []int{1, 3, 7, 8, 13, 24, 32} {
		single := NewReader(data)
		bitwise := NewReader(data)
		require.NoError(t, Catch(func() {
			var v uint64
			for i := 0; i < n; i++ {
				v = v<<1 | bitwise.U(1)
			}
			assert.Equal(t, single.U(n), v, "width %d", n)
		}))
	}
}

func TestExpGolombRoundTrip(t *testing.T) {
	var w bitWriter
	ues := []uint64{0, 1, 2, 3, 7, 8, 254, 255, 1023}
	ses := []int64{0, 1, -1, 2, -2, 17, -31, 255}
	for _, v := range ues {
		w.ue(v)
	}
	for _, v := range ses {
		w.se(v)
	}

	r := NewReader(w.data)
	require.NoError(t, Catch(func() {
		for _, v := range ues {
			assert.Equal(t, v, r.UE())
		}
		for _, v := range ses {
			assert.Equal(t, v, r.SE())
		}
	}))
}

func TestSECanonicalMapping(t *testing.T) {
	// se=0 -> 0, 1 -> 1, 2 -> -1, 3 -> 2, ...
	var w bitWriter
	for i := uint64(0); i < 6; i++ {
		w.ue(i)
	}
	r := NewReader(w.data)
	require.NoError(t, Catch(func() {
		for _, want := range []int64{0, 1, -1, 2, -2, 3} {
			assert.Equal(t, want, r.SE())
		}
	}))
}

func TestEPBElision(t *testing.T) {
	// The 0x03 after two zero bytes is skipped once the cursor is at
	// least three bytes in.
	r := NewReader([]byte{0x42, 0x00, 0x00, 0x03, 0x41})
	require.NoError(t, Catch(func() {
		assert.EqualValues(t, 0x42, r.U(8))
		assert.EqualValues(t, 0, r.U(16))
		assert.EqualValues(t, 0x41, r.U(8))
	}))
	assert.Equal(t, 1, r.EPBCount())
	assert.False(t, r.Avail())
	// Slice-data byte offset discounts the elided byte.
	assert.Equal(t, 4, r.BitOffset()>>3-r.EPBCount())
}

func TestEPBNotElidedInFirstThreeBytes(t *testing.T) {
	// A leading 00 00 03 is plain data: the cursor is not yet 24 bits in
	// when the 0x03 is loaded.
	r := NewReader([]byte{0x00, 0x00, 0x03, 0x41})
	require.NoError(t, Catch(func() {
		assert.EqualValues(t, 0x00000341, r.U(32))
	}))
	assert.Equal(t, 0, r.EPBCount())
}

func TestByteAlign(t *testing.T) {
	r := NewReader([]byte{0xff, 0x80})
	require.NoError(t, Catch(func() {
		r.U(3)
		r.ByteAlign()
		assert.Equal(t, 8, r.BitOffset())
		assert.EqualValues(t, 1, r.U(1))
	}))
}

func TestReadNALU(t *testing.T) {
	stream := []byte{
		0, 0, 0, 1, 0x40, 0x01, 0xaa,
		0, 0, 0, 1, 0x42, 0x01, 0xbb, 0xcc,
	}
	r := NewReader(stream)

	first, ok := r.ReadNALU()
	require.True(t, ok)
	assert.Equal(t, []byte{0x40, 0x01, 0xaa}, first.Bytes())

	second, ok := r.ReadNALU()
	require.True(t, ok)
	assert.Equal(t, []byte{0x42, 0x01, 0xbb, 0xcc}, second.Bytes())

	assert.False(t, r.Avail())
	_, ok = r.ReadNALU()
	assert.False(t, ok)
}

func TestReadNALUNoStartCode(t *testing.T) {
	r := NewReader([]byte{0x42, 0, 0, 0, 1})
	_, ok := r.ReadNALU()
	assert.False(t, ok)
}

func TestReadPastEnd(t *testing.T) {
	r := NewReader([]byte{0xff})
	err := Catch(func() {
		r.U(9)
	})
	assert.ErrorIs(t, err, ErrReadPastEnd)
}

func TestCatchPassesForeignPanics(t *testing.T) {
	assert.Panics(t, func() {
		_ = Catch(func() { panic("unrelated") })
	})
}
