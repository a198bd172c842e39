package spr

// This file contains code directly related to decoding the
// spr file format: the archive index and the per-sprite RLE.

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"
)

// Errors surfaced by the sprite archive reader.
var (
	ErrBadSignature = errors.New("spr: signature mismatch")
	ErrTruncated    = errors.New("spr: truncated")
	ErrCanceled     = errors.New("spr: canceled")
)

// Sprite dimensions are fixed across every client version.
const (
	Width  = 32
	Height = 32
	Pixels = Width * Height
)

// TransparentRGB is the sentinel channel value used for transparent pixels
// in the 3-byte-per-pixel rendering that feeds the sprite hash.
const TransparentRGB = 0x11

// Options selects how an archive is interpreted. Signature comes from the
// resolved client registry entry; Extended widens the sprite count from u16
// to u32; Alpha marks clients whose colored runs carry a fourth channel
// byte.
type Options struct {
	Signature uint32
	Extended  bool
	Alpha     bool

	Cancel *atomic.Bool
}

// Atlas is a lazily-decoded sprite archive. The offset table is read up
// front; individual sprites are decompressed on demand and kept in a sized
// cache. Sprite IDs are 1-based.
//
// Atlas keeps the reader; it must stay open for the atlas's lifetime.
// Once NewAtlas returns, lookups and renderings may be called from
// multiple goroutines; access to the underlying reader is serialized.
type Atlas struct {
	r    io.ReadSeeker
	mu   sync.Mutex // serializes Seek+Read on r
	opts Options

	signature uint32
	offsets   []uint32 // offsets[i] belongs to sprite ID i+1; 0 means missing

	cache *ristretto.Cache[uint32, []byte]
}

// NewAtlas reads the archive header and offset table from r. Sprite payloads
// are not touched until requested.
func NewAtlas(r io.ReadSeeker, opts Options) (*Atlas, error) {
	var signature uint32
	if err := binary.Read(r, binary.LittleEndian, &signature); err != nil {
		return nil, fmt.Errorf("%w: reading signature: %v", ErrTruncated, err)
	}
	if signature != opts.Signature {
		return nil, fmt.Errorf("%w: got 0x%08X, want 0x%08X", ErrBadSignature, signature, opts.Signature)
	}

	var count uint32
	if opts.Extended {
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return nil, fmt.Errorf("%w: reading sprite count: %v", ErrTruncated, err)
		}
	} else {
		var c16 uint16
		if err := binary.Read(r, binary.LittleEndian, &c16); err != nil {
			return nil, fmt.Errorf("%w: reading sprite count: %v", ErrTruncated, err)
		}
		count = uint32(c16)
	}

	offsets := make([]uint32, count)
	// The table can run to a few MB on late clients; read in slabs so a
	// cancel request does not have to wait for the whole thing.
	const slab = 4096
	for lo := uint32(0); lo < count; lo += slab {
		if opts.Cancel != nil && opts.Cancel.Load() {
			return nil, ErrCanceled
		}
		hi := lo + slab
		if hi > count {
			hi = count
		}
		if err := binary.Read(r, binary.LittleEndian, offsets[lo:hi]); err != nil {
			return nil, fmt.Errorf("%w: reading offset table: %v", ErrTruncated, err)
		}
	}

	cache, err := ristretto.NewCache(&ristretto.Config[uint32, []byte]{
		NumCounters: 1e5,
		MaxCost:     64 << 20, // decoded pixels, 4 KB per sprite
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "spr: sprite cache")
	}

	return &Atlas{r: r, opts: opts, signature: signature, offsets: offsets, cache: cache}, nil
}

// Close releases the decoded-sprite cache. It does not close the underlying
// reader.
func (a *Atlas) Close() {
	a.cache.Close()
}

// Signature returns the archive signature as read from disk.
func (a *Atlas) Signature() uint32 { return a.signature }

// Count returns the number of offset table entries, which is also the
// largest valid sprite ID.
func (a *Atlas) Count() uint32 { return uint32(len(a.offsets)) }

// Has reports whether the given sprite ID is in range and has a payload.
// Absent sprites decode as fully transparent rather than failing.
func (a *Atlas) Has(id uint32) bool {
	return id >= 1 && id <= uint32(len(a.offsets)) && a.offsets[id-1] != 0
}

// RGBA returns the sprite decoded to a 4096-byte buffer, 4 bytes per pixel
// in R, G, B, A order, rows top to bottom. Out-of-range and absent IDs
// return a fully transparent buffer. The returned slice is shared with the
// cache and must not be modified.
func (a *Atlas) RGBA(id uint32) ([]byte, error) {
	if !a.Has(id) {
		return make([]byte, Pixels*4), nil
	}
	if buf, ok := a.cache.Get(id); ok {
		return buf, nil
	}
	data, err := a.payload(id)
	if err != nil {
		return nil, err
	}
	buf := decodeRGBA(data, a.opts.Alpha)
	a.cache.Set(id, buf, int64(len(buf)))
	return buf, nil
}

// RGB returns the sprite decoded to a 3072-byte buffer, 3 bytes per pixel in
// R, G, B order, with transparent pixels rendered as the 0x11 sentinel in
// every channel. This is the rendering the sprite hash is computed over.
func (a *Atlas) RGB(id uint32) ([]byte, error) {
	buf := make([]byte, Pixels*3)
	for i := range buf {
		buf[i] = TransparentRGB
	}
	if !a.Has(id) {
		return buf, nil
	}
	data, err := a.payload(id)
	if err != nil {
		return nil, err
	}
	decodeRGB(buf, data, a.opts.Alpha)
	return buf, nil
}

// Image returns the sprite as a 32x32 image. Absent sprites come back fully
// transparent.
func (a *Atlas) Image(id uint32) (*image.RGBA, error) {
	buf, err := a.RGBA(id)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	copy(img.Pix, buf)
	return img, nil
}

// payload seeks to the sprite record and returns the raw RLE bytes: the
// record is a 3-byte color key, a u16 payload size, then the payload. A size
// of zero is a valid, fully transparent sprite.
func (a *Atlas) payload(id uint32) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	off := a.offsets[id-1]
	if _, err := a.r.Seek(int64(off), io.SeekStart); err != nil {
		return nil, errors.Wrapf(err, "spr: sprite %d: seek to 0x%X", id, off)
	}
	var head struct {
		ColorKey [3]uint8
		Size     uint16
	}
	if err := binary.Read(a.r, binary.LittleEndian, &head); err != nil {
		return nil, fmt.Errorf("%w: sprite %d record head: %v", ErrTruncated, id, err)
	}
	data := make([]byte, head.Size)
	if _, err := io.ReadFull(a.r, data); err != nil {
		return nil, fmt.Errorf("%w: sprite %d payload (%d bytes): %v", ErrTruncated, id, head.Size, err)
	}
	return data, nil
}

// decodeRGBA expands an RLE payload into a fresh 4-byte-per-pixel buffer.
// Pixels not reached by the stream stay transparent; runs that would pass
// pixel 1024 are truncated.
func decodeRGBA(data []byte, alpha bool) []byte {
	buf := make([]byte, Pixels*4)
	bpp := 3
	if alpha {
		bpp = 4
	}

	px := 0
	i := 0
	for px < Pixels {
		if i+2 > len(data) {
			break
		}
		px += int(binary.LittleEndian.Uint16(data[i:]))
		i += 2
		if px > Pixels {
			px = Pixels
		}

		if i+2 > len(data) {
			break
		}
		run := int(binary.LittleEndian.Uint16(data[i:]))
		i += 2
		for ; run > 0 && px < Pixels && i+bpp <= len(data); run-- {
			o := px * 4
			buf[o] = data[i]
			buf[o+1] = data[i+1]
			buf[o+2] = data[i+2]
			if alpha {
				buf[o+3] = data[i+3]
			} else {
				buf[o+3] = 0xFF
			}
			i += bpp
			px++
		}
	}
	return buf
}

// decodeRGB expands an RLE payload into buf, 3 bytes per pixel, leaving
// transparent pixels at whatever buf already holds.
func decodeRGB(buf []byte, data []byte, alpha bool) {
	bpp := 3
	if alpha {
		bpp = 4
	}

	px := 0
	i := 0
	for px < Pixels {
		if i+2 > len(data) {
			break
		}
		px += int(binary.LittleEndian.Uint16(data[i:]))
		i += 2
		if px > Pixels {
			px = Pixels
		}

		if i+2 > len(data) {
			break
		}
		run := int(binary.LittleEndian.Uint16(data[i:]))
		i += 2
		for ; run > 0 && px < Pixels && i+bpp <= len(data); run-- {
			o := px * 3
			buf[o] = data[i]
			buf[o+1] = data[i+1]
			buf[o+2] = data[i+2]
			i += bpp
			px++
		}
	}
}
