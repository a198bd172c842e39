package spr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const testSignature = 0x4868ECC9

// sprBuilder assembles a synthetic archive: records are appended first, then
// bytes() lays out the header, offset table and record area.
type sprBuilder struct {
	extended bool
	records  [][]byte // nil entry = missing sprite (offset 0)
}

// add appends a record from RLE chunks: each chunk is a transparent run, a
// colored run, and the colored run's pixel bytes.
func (b *sprBuilder) add(chunks ...[]byte) {
	var rec bytes.Buffer
	for _, c := range chunks {
		rec.Write(c)
	}
	b.records = append(b.records, rec.Bytes())
}

func (b *sprBuilder) addMissing() {
	b.records = append(b.records, nil)
}

func (b *sprBuilder) bytes() []byte {
	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, uint32(testSignature))
	if b.extended {
		binary.Write(&out, binary.LittleEndian, uint32(len(b.records)))
	} else {
		binary.Write(&out, binary.LittleEndian, uint16(len(b.records)))
	}

	headerLen := out.Len() + 4*len(b.records)
	off := headerLen
	for _, rec := range b.records {
		if rec == nil {
			binary.Write(&out, binary.LittleEndian, uint32(0))
			continue
		}
		binary.Write(&out, binary.LittleEndian, uint32(off))
		off += 3 + 2 + len(rec) // color key + size + payload
	}
	for _, rec := range b.records {
		if rec == nil {
			continue
		}
		out.Write([]byte{0xFF, 0x00, 0xFF}) // color key
		binary.Write(&out, binary.LittleEndian, uint16(len(rec)))
		out.Write(rec)
	}
	return out.Bytes()
}

// chunk builds one RLE chunk without alpha bytes.
func chunk(transparent uint16, pixels ...[3]byte) []byte {
	var c bytes.Buffer
	binary.Write(&c, binary.LittleEndian, transparent)
	binary.Write(&c, binary.LittleEndian, uint16(len(pixels)))
	for _, p := range pixels {
		c.Write(p[:])
	}
	return c.Bytes()
}

// solid builds a record of n opaque pixels of one color at the start of the
// sprite.
func solid(n int, r, g, b byte) []byte {
	var c bytes.Buffer
	binary.Write(&c, binary.LittleEndian, uint16(0))
	binary.Write(&c, binary.LittleEndian, uint16(n))
	for i := 0; i < n; i++ {
		c.Write([]byte{r, g, b})
	}
	return c.Bytes()
}

func newTestAtlas(t *testing.T, b *sprBuilder, opts Options) *Atlas {
	t.Helper()
	opts.Signature = testSignature
	a, err := NewAtlas(bytes.NewReader(b.bytes()), opts)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestDecodeSimpleSprite(t *testing.T) {
	var b sprBuilder
	b.add(chunk(2, [3]byte{10, 20, 30}, [3]byte{40, 50, 60}))
	a := newTestAtlas(t, &b, Options{})

	require.Equal(t, uint32(1), a.Count())
	require.True(t, a.Has(1))

	buf, err := a.RGBA(1)
	require.NoError(t, err)
	require.Len(t, buf, Pixels*4)
	assert.Equal(t, []byte{0, 0, 0, 0}, buf[0:4], "pixel 0 transparent")
	assert.Equal(t, []byte{0, 0, 0, 0}, buf[4:8], "pixel 1 transparent")
	assert.Equal(t, []byte{10, 20, 30, 0xFF}, buf[8:12])
	assert.Equal(t, []byte{40, 50, 60, 0xFF}, buf[12:16])
	assert.Equal(t, []byte{0, 0, 0, 0}, buf[16:20], "rest transparent")
}

func TestDecodeAlphaSprite(t *testing.T) {
	var b sprBuilder
	var rec bytes.Buffer
	binary.Write(&rec, binary.LittleEndian, uint16(1))
	binary.Write(&rec, binary.LittleEndian, uint16(1))
	rec.Write([]byte{10, 20, 30, 0x80})
	b.add(rec.Bytes())
	a := newTestAtlas(t, &b, Options{Alpha: true})

	buf, err := a.RGBA(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 20, 30, 0x80}, buf[4:8])
}

func TestZeroSizeSpriteIsTransparent(t *testing.T) {
	var b sprBuilder
	b.add() // empty payload, size 0
	a := newTestAtlas(t, &b, Options{})

	buf, err := a.RGBA(1)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, Pixels*4), buf)
}

func TestMissingAndOutOfRange(t *testing.T) {
	var b sprBuilder
	b.addMissing()
	b.add(solid(1, 1, 2, 3))
	a := newTestAtlas(t, &b, Options{})

	assert.False(t, a.Has(1), "offset 0 means missing")
	assert.True(t, a.Has(2))
	assert.False(t, a.Has(0))
	assert.False(t, a.Has(3))

	for _, id := range []uint32{0, 1, 3} {
		buf, err := a.RGBA(id)
		require.NoError(t, err, "id %d", id)
		assert.Equal(t, make([]byte, Pixels*4), buf, "id %d", id)
	}
}

func TestOverflowTruncates(t *testing.T) {
	// A colored run that would pass pixel 1024 is cut off without error.
	var b sprBuilder
	var rec bytes.Buffer
	binary.Write(&rec, binary.LittleEndian, uint16(Pixels-1))
	binary.Write(&rec, binary.LittleEndian, uint16(5))
	for i := 0; i < 5; i++ {
		rec.Write([]byte{9, 9, 9})
	}
	b.add(rec.Bytes())
	a := newTestAtlas(t, &b, Options{})

	buf, err := a.RGBA(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9, 9, 0xFF}, buf[(Pixels-1)*4:])
	assert.Equal(t, []byte{0, 0, 0, 0}, buf[(Pixels-2)*4:(Pixels-1)*4])
}

func TestRGBSentinel(t *testing.T) {
	var b sprBuilder
	b.add(chunk(1, [3]byte{200, 100, 50}))
	a := newTestAtlas(t, &b, Options{})

	buf, err := a.RGB(1)
	require.NoError(t, err)
	require.Len(t, buf, Pixels*3)
	assert.Equal(t, []byte{TransparentRGB, TransparentRGB, TransparentRGB}, buf[0:3])
	assert.Equal(t, []byte{200, 100, 50}, buf[3:6])
	assert.Equal(t, byte(TransparentRGB), buf[6])
}

func TestExtendedCount(t *testing.T) {
	b := sprBuilder{extended: true}
	b.add(solid(1, 7, 8, 9))
	a := newTestAtlas(t, &b, Options{Extended: true})

	require.Equal(t, uint32(1), a.Count())
	buf, err := a.RGBA(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 8, 9, 0xFF}, buf[0:4])
}

func TestBadSignature(t *testing.T) {
	var b sprBuilder
	b.add(solid(1, 1, 1, 1))
	raw := b.bytes()
	raw[0] ^= 0xFF

	_, err := NewAtlas(bytes.NewReader(raw), Options{Signature: testSignature})
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestTruncatedPayload(t *testing.T) {
	var b sprBuilder
	b.add(solid(4, 1, 1, 1))
	raw := b.bytes()

	a, err := NewAtlas(bytes.NewReader(raw[:len(raw)-3]), Options{Signature: testSignature})
	require.NoError(t, err, "header and offsets intact")
	defer a.Close()
	_, err = a.RGBA(1)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestCancelDuringLoad(t *testing.T) {
	var b sprBuilder
	for i := 0; i < 10; i++ {
		b.add(solid(1, 1, 1, 1))
	}
	var cancel atomic.Bool
	cancel.Store(true)

	_, err := NewAtlas(bytes.NewReader(b.bytes()), Options{Signature: testSignature, Cancel: &cancel})
	require.ErrorIs(t, err, ErrCanceled)
}

func TestConcurrentDecode(t *testing.T) {
	// Renderings share one reader; simultaneous lookups of distinct sprites
	// must not interleave its seek/read sequences.
	var b sprBuilder
	for i := 0; i < 16; i++ {
		c := byte(i + 1)
		b.add(solid(4, c, c, c))
	}
	a := newTestAtlas(t, &b, Options{})

	var g errgroup.Group
	for w := 0; w < 8; w++ {
		g.Go(func() error {
			for i := 0; i < 50; i++ {
				id := uint32(i%16 + 1)
				buf, err := a.RGBA(id)
				if err != nil {
					return err
				}
				c := byte(id)
				if want := []byte{c, c, c, 0xFF}; !bytes.Equal(buf[0:4], want) {
					return fmt.Errorf("sprite %d: first pixel %v, want %v", id, buf[0:4], want)
				}
				if _, err := a.Image(id); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestCachedDecode(t *testing.T) {
	var b sprBuilder
	b.add(solid(3, 5, 6, 7))
	a := newTestAtlas(t, &b, Options{})

	first, err := a.RGBA(1)
	require.NoError(t, err)
	a.cache.Wait()
	second, err := a.RGBA(1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
