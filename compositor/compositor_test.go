package compositor

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karolak6612/itemedit/dat"
	"github.com/karolak6612/itemedit/spr"
)

const testSignature = 0x4868ECC9

// buildAtlas assembles a sprite archive from raw RLE payloads; record i gets
// sprite ID i+1. A nil payload makes the offset table entry 0.
func buildAtlas(t *testing.T, alpha bool, records ...[]byte) *spr.Atlas {
	t.Helper()
	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, uint32(testSignature))
	binary.Write(&out, binary.LittleEndian, uint16(len(records)))

	off := out.Len() + 4*len(records)
	for _, rec := range records {
		if rec == nil {
			binary.Write(&out, binary.LittleEndian, uint32(0))
			continue
		}
		binary.Write(&out, binary.LittleEndian, uint32(off))
		off += 3 + 2 + len(rec)
	}
	for _, rec := range records {
		if rec == nil {
			continue
		}
		out.Write([]byte{0xFF, 0x00, 0xFF})
		binary.Write(&out, binary.LittleEndian, uint16(len(rec)))
		out.Write(rec)
	}

	a, err := spr.NewAtlas(bytes.NewReader(out.Bytes()), spr.Options{Signature: testSignature, Alpha: alpha})
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

// solidRecord encodes all 1024 pixels as one colored run of a single color.
func solidRecord(r, g, b byte) []byte {
	var rec bytes.Buffer
	binary.Write(&rec, binary.LittleEndian, uint16(0))
	binary.Write(&rec, binary.LittleEndian, uint16(spr.Pixels))
	for i := 0; i < spr.Pixels; i++ {
		rec.Write([]byte{r, g, b})
	}
	return rec.Bytes()
}

// onePixelRecord colors only the first pixel, leaving the rest transparent.
func onePixelRecord(r, g, b byte) []byte {
	var rec bytes.Buffer
	binary.Write(&rec, binary.LittleEndian, uint16(0))
	binary.Write(&rec, binary.LittleEndian, uint16(1))
	rec.Write([]byte{r, g, b})
	return rec.Bytes()
}

func clientItem(w, h, layers uint8, ids ...uint32) *dat.ClientItem {
	it := &dat.ClientItem{ID: 100, Width: w, Height: h, Layers: layers,
		PatternX: 1, PatternY: 1, PatternZ: 1, Frames: 1}
	it.SpriteIDs = ids
	return it
}

func TestComposeSideBySide(t *testing.T) {
	atlas := buildAtlas(t, false, solidRecord(255, 0, 0), solidRecord(0, 0, 255))
	it := clientItem(2, 1, 1, 1, 2)

	img, err := Compose(it, atlas)
	require.NoError(t, err)
	require.Equal(t, 64, img.Bounds().Dx())
	require.Equal(t, 32, img.Bounds().Dy())

	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(31, 31))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, img.RGBAAt(32, 0))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, img.RGBAAt(63, 31))
}

func TestComposeLayerOrder(t *testing.T) {
	// Layer 1 has a single green pixel; everywhere else the red base layer
	// must show through.
	atlas := buildAtlas(t, false, solidRecord(255, 0, 0), onePixelRecord(0, 255, 0))
	it := clientItem(1, 1, 2, 1, 2)

	img, err := Compose(it, atlas)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(31, 31))
}

func TestComposeMissingAndOutOfRange(t *testing.T) {
	atlas := buildAtlas(t, false, nil, solidRecord(255, 0, 0))

	// Sprite 1 is absent (offset 0), sprite 9 out of range, and the second
	// tile has no sprite index at all; each renders transparent.
	it := clientItem(2, 1, 1, 1)
	img, err := Compose(it, atlas)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(32, 0))

	it = clientItem(1, 1, 1, 9)
	img, err = Compose(it, atlas)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{}, img.RGBAAt(0, 0))
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestSpriteHashSolidRed(t *testing.T) {
	atlas := buildAtlas(t, false, solidRecord(255, 0, 0))
	it := clientItem(1, 1, 1, 1)

	digest, err := SpriteHash(it, atlas)
	require.NoError(t, err)
	assert.Equal(t, mustHex(t, "a0ae0b841b4a9045ce45dbe9827749df"), digest[:])
}

func TestSpriteHashFlipsRows(t *testing.T) {
	// The colored pixel sits at decode position (0, 0); in the hash input
	// it must land on the bottom row.
	rec := bytes.NewBuffer(nil)
	binary.Write(rec, binary.LittleEndian, uint16(0))
	binary.Write(rec, binary.LittleEndian, uint16(spr.Pixels))
	rec.Write([]byte{0, 255, 0})
	for i := 1; i < spr.Pixels; i++ {
		rec.Write([]byte{255, 0, 0})
	}
	atlas := buildAtlas(t, false, rec.Bytes())
	it := clientItem(1, 1, 1, 1)

	digest, err := SpriteHash(it, atlas)
	require.NoError(t, err)
	assert.Equal(t, mustHex(t, "6540ae94c315fd59851211965ea9f582"), digest[:])
}

func TestSpriteHashIgnoresAlpha(t *testing.T) {
	withAlpha := func(a byte) []byte {
		var rec bytes.Buffer
		binary.Write(&rec, binary.LittleEndian, uint16(0))
		binary.Write(&rec, binary.LittleEndian, uint16(spr.Pixels))
		for i := 0; i < spr.Pixels; i++ {
			rec.Write([]byte{255, 0, 0, a})
		}
		return rec.Bytes()
	}

	opaque := buildAtlas(t, true, withAlpha(0xFF))
	translucent := buildAtlas(t, true, withAlpha(0x40))
	it := clientItem(1, 1, 1, 1)

	d1, err := SpriteHash(it, opaque)
	require.NoError(t, err)
	d2, err := SpriteHash(it, translucent)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
	assert.Equal(t, mustHex(t, "a0ae0b841b4a9045ce45dbe9827749df"), d1[:])
}

func TestSpriteHashFullyTransparent(t *testing.T) {
	atlas := buildAtlas(t, false, nil)
	it := clientItem(1, 1, 1, 1)

	digest, err := SpriteHash(it, atlas)
	require.NoError(t, err)
	assert.Equal(t, mustHex(t, "4b1b1c88ff2faf290ebc392b116d101c"), digest[:])
}
