// Package dat decodes the client-side item appearance table.
//
// The file is a flat stream: a signature, four section counts, then one
// variable-length record per item. Each record is a run of flag bytes
// terminated by LAST_FLAG, followed by the sprite geometry and the sprite ID
// list. Outfits, effects and missiles follow the item section and are not
// decoded here.
package dat

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/karolak6612/itemedit/item"
)

// Errors surfaced by the DAT parser. Callers distinguish them with
// errors.Is; the returned errors also carry the failing item's client ID and
// the byte offset.
var (
	ErrBadSignature = errors.New("dat: signature mismatch")
	ErrBadAttribute = errors.New("dat: bad flag")
	ErrTruncated    = errors.New("dat: truncated")
	ErrCanceled     = errors.New("dat: canceled")
)

// Progress is an optional sink for parse progress, invoked once per item.
type Progress func(done, total int)

// Options selects how the stream is interpreted. Signature and Dialect come
// from the resolved client registry entry; Extended widens sprite IDs from
// u16 to u32; FrameDurations marks clients that carry per-frame timing data.
type Options struct {
	Signature      uint32
	Dialect        Dialect
	Extended       bool
	FrameDurations bool

	Cancel   *atomic.Bool
	Progress Progress
}

// Header is the fixed preamble of a DAT file.
type Header struct {
	Signature                                         uint32
	ItemCount, OutfitCount, EffectCount, MissileCount uint16
}

// ClientItem is a single decoded appearance record.
//
// The flag and attribute bag is shared with the server-side item type by
// composition.
type ClientItem struct {
	item.Flags
	item.Attributes

	ID   uint16
	Type item.Type

	Width, Height                uint8
	Layers                       uint8
	PatternX, PatternY, PatternZ uint8
	Frames                       uint8

	// ExactSize is the byte carried by records wider or taller than one
	// tile; it is read and kept but has no decoded meaning.
	ExactSize uint8

	// MarketName is the length-prefixed name from the market flag, kept
	// verbatim.
	MarketName string

	SpriteIDs []uint32
}

// SpriteCount is the expected length of SpriteIDs given the geometry.
func (c *ClientItem) SpriteCount() int {
	return int(c.Width) * int(c.Height) * int(c.Layers) *
		int(c.PatternX) * int(c.PatternY) * int(c.PatternZ) * int(c.Frames)
}

// Dataset is the decoded item section of a DAT file, keyed by client ID
// starting at 100.
type Dataset struct {
	Header Header

	items map[uint16]*ClientItem
}

// Item returns the appearance record for the given client ID, or nil when
// the ID is out of range.
func (ds *Dataset) Item(clientID uint16) *ClientItem {
	return ds.items[clientID]
}

// ItemCount returns the number of decoded item records.
func (ds *Dataset) ItemCount() int {
	return len(ds.items)
}

// MinItemID is the first client item ID in every DAT file.
const MinItemID = 100

// MaxItemID returns the last client item ID carried by the file.
func (ds *Dataset) MaxItemID() uint16 {
	return ds.Header.ItemCount
}

// countingReader tracks the byte offset for error reporting.
type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}

// NewDataset parses the item section of a DAT stream.
//
// Any failure aborts the whole file: no partial dataset is ever returned.
// The error names the client ID being decoded and the stream offset at which
// decoding stopped.
func NewDataset(r io.Reader, opts Options) (*Dataset, error) {
	if opts.Dialect.table() == nil {
		return nil, fmt.Errorf("dat: no flag table for dialect %d", opts.Dialect)
	}

	cr := &countingReader{r: r}
	var h Header
	if err := binary.Read(cr, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrTruncated, err)
	}
	if h.Signature != opts.Signature {
		return nil, fmt.Errorf("%w: got 0x%08X, want 0x%08X", ErrBadSignature, h.Signature, opts.Signature)
	}
	glog.V(2).Infof("dat 0x%08X: %d items, %d outfits, %d effects, %d missiles",
		h.Signature, h.ItemCount, h.OutfitCount, h.EffectCount, h.MissileCount)

	ds := &Dataset{
		Header: h,
		items:  make(map[uint16]*ClientItem, int(h.ItemCount)-MinItemID+1),
	}

	total := int(h.ItemCount) - MinItemID + 1
	for id := uint16(MinItemID); id <= h.ItemCount; id++ {
		if opts.Cancel != nil && opts.Cancel.Load() {
			return nil, ErrCanceled
		}
		it, err := parseItem(cr, id, opts)
		if err != nil {
			return nil, fmt.Errorf("dat: item %d at offset %d: %w", id, cr.n, err)
		}
		ds.items[id] = it
		if opts.Progress != nil {
			opts.Progress(int(id)-MinItemID+1, total)
		}
	}
	return ds, nil
}

func parseItem(r io.Reader, id uint16, opts Options) (*ClientItem, error) {
	it := &ClientItem{ID: id}
	it.Movable = true // cleared by the unmovable flag

	table := opts.Dialect.table()
	for {
		flag, err := readU8(r)
		if err != nil {
			return nil, fmt.Errorf("%w: reading flag: %v", ErrTruncated, err)
		}
		if flag == LAST_FLAG {
			break
		}
		spec, ok := table[flag]
		if !ok {
			return nil, fmt.Errorf("%w: 0x%02X not in dialect %s", ErrBadAttribute, flag, opts.Dialect)
		}
		if err := applyFlag(r, it, flag, spec); err != nil {
			return nil, err
		}
	}

	var err error
	if it.Width, err = readU8(r); err != nil {
		return nil, fmt.Errorf("%w: reading width: %v", ErrTruncated, err)
	}
	if it.Height, err = readU8(r); err != nil {
		return nil, fmt.Errorf("%w: reading height: %v", ErrTruncated, err)
	}
	if it.Width > 1 || it.Height > 1 {
		if it.ExactSize, err = readU8(r); err != nil {
			return nil, fmt.Errorf("%w: reading exact size: %v", ErrTruncated, err)
		}
	}
	if it.Layers, err = readU8(r); err != nil {
		return nil, fmt.Errorf("%w: reading layers: %v", ErrTruncated, err)
	}
	if it.PatternX, err = readU8(r); err != nil {
		return nil, fmt.Errorf("%w: reading pattern x: %v", ErrTruncated, err)
	}
	if it.PatternY, err = readU8(r); err != nil {
		return nil, fmt.Errorf("%w: reading pattern y: %v", ErrTruncated, err)
	}
	if it.PatternZ, err = readU8(r); err != nil {
		return nil, fmt.Errorf("%w: reading pattern z: %v", ErrTruncated, err)
	}
	if it.Frames, err = readU8(r); err != nil {
		return nil, fmt.Errorf("%w: reading frames: %v", ErrTruncated, err)
	}
	if it.Frames > 1 {
		it.IsAnimation = true
	}

	if it.Frames > 1 && opts.FrameDurations {
		// Animation header plus per-frame min/max durations; the editor has
		// no use for the timing data.
		if err := discard(r, 6+8*int(it.Frames)); err != nil {
			return nil, fmt.Errorf("%w: reading frame durations: %v", ErrTruncated, err)
		}
	}

	n := it.SpriteCount()
	it.SpriteIDs = make([]uint32, n)
	for i := 0; i < n; i++ {
		if opts.Extended {
			var sid uint32
			if err := binary.Read(r, binary.LittleEndian, &sid); err != nil {
				return nil, fmt.Errorf("%w: reading sprite id %d of %d: %v", ErrTruncated, i, n, err)
			}
			it.SpriteIDs[i] = sid
		} else {
			var sid uint16
			if err := binary.Read(r, binary.LittleEndian, &sid); err != nil {
				return nil, fmt.Errorf("%w: reading sprite id %d of %d: %v", ErrTruncated, i, n, err)
			}
			it.SpriteIDs[i] = uint32(sid)
		}
	}
	return it, nil
}

func applyFlag(r io.Reader, it *ClientItem, flag uint8, spec flagSpec) error {
	// Read the typed payload first; a 0xFF inside it must not terminate the
	// flag loop, so payloads are consumed here wholesale.
	var vals [4]uint16
	switch spec.shape {
	case payloadNone:
	case payloadU16:
		if err := readU16s(r, vals[:1]); err != nil {
			return fmt.Errorf("%w: flag 0x%02X payload: %v", ErrTruncated, flag, err)
		}
	case payloadU16x2:
		if err := readU16s(r, vals[:2]); err != nil {
			return fmt.Errorf("%w: flag 0x%02X payload: %v", ErrTruncated, flag, err)
		}
	case payloadU16x4:
		if err := readU16s(r, vals[:4]); err != nil {
			return fmt.Errorf("%w: flag 0x%02X payload: %v", ErrTruncated, flag, err)
		}
	case payloadMarket:
		return applyMarket(r, it, flag)
	}

	switch spec.effect {
	case fxGround:
		it.Type = item.TypeGround
		it.GroundSpeed = vals[0]
	case fxGroundBorder:
		it.HasStackOrder = true
		it.StackOrder = item.StackOrderBorder
	case fxOnBottom:
		it.HasStackOrder = true
		it.StackOrder = item.StackOrderBottom
	case fxOnTop:
		it.HasStackOrder = true
		it.StackOrder = item.StackOrderTop
	case fxContainer:
		it.Type = item.TypeContainer
	case fxStackable:
		it.Stackable = true
	case fxForceUse:
		it.ForceUse = true
	case fxMultiUse:
		it.MultiUse = true
	case fxHasCharges:
		it.ClientCharges = true
	case fxWritable:
		it.Readable = true
		it.MaxReadWriteChars = vals[0]
	case fxWritableOnce:
		it.Readable = true
		it.MaxReadChars = vals[0]
	case fxFluidContainer:
		it.Type = item.TypeFluid
	case fxSplash:
		it.Type = item.TypeSplash
	case fxUnpassable:
		it.Unpassable = true
	case fxUnmovable:
		it.Movable = false
	case fxBlockMissiles:
		it.BlockMissiles = true
	case fxBlockPathfinder:
		it.BlockPathfinder = true
	case fxPickupable:
		it.Pickupable = true
	case fxHangable:
		it.Hangable = true
	case fxHookSouth:
		it.HookSouth = true
	case fxHookEast:
		it.HookEast = true
	case fxRotatable:
		it.Rotatable = true
	case fxHasLight:
		it.LightLevel = vals[0]
		it.LightColor = vals[1]
	case fxHasElevation:
		it.HasElevation = true
	case fxMinimap:
		it.MinimapColor = vals[0]
	case fxLensHelp:
		// 1112 marks readable signposts and the like.
		if vals[0] == 1112 {
			it.Readable = true
		}
	case fxFullGround:
		it.FullGround = true
	case fxIgnoreLook:
		it.IgnoreLook = true
	case fxAnimateAlways:
		it.IsAnimation = true
	case fxDontHide, fxTranslucent, fxHasOffset, fxLying, fxCloth,
		fxDefaultAction, fxNoMoveAnimation, fxUsable:
		// Payload consumed above; no item property behind these.
	}
	return nil
}

// applyMarket consumes a market record: category, trade-as and show-as IDs,
// the length-prefixed display name, then the vocation and level
// restrictions.
func applyMarket(r io.Reader, it *ClientItem, flag uint8) error {
	var head [3]uint16
	if err := readU16s(r, head[:]); err != nil {
		return fmt.Errorf("%w: flag 0x%02X market head: %v", ErrTruncated, flag, err)
	}
	nameLen, err := readU16(r)
	if err != nil {
		return fmt.Errorf("%w: flag 0x%02X market name length: %v", ErrTruncated, flag, err)
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return fmt.Errorf("%w: flag 0x%02X market name: %v", ErrTruncated, flag, err)
	}
	var tail [2]uint16
	if err := readU16s(r, tail[:]); err != nil {
		return fmt.Errorf("%w: flag 0x%02X market tail: %v", ErrTruncated, flag, err)
	}
	it.TradeAs = head[1]
	it.MarketName = string(name)
	return nil
}

func readU8(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func readU16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func readU16s(r io.Reader, dst []uint16) error {
	for i := range dst {
		v, err := readU16(r)
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}

func discard(r io.Reader, n int) error {
	_, err := io.CopyN(io.Discard, r, int64(n))
	return err
}
