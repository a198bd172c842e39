package dat

import "fmt"

// Dialect selects the version-specific mapping from a DAT flag byte to an
// item property and its payload shape. Three generations of clients are
// supported; the right one for a given file is dictated by the resolved
// client registry entry.
type Dialect uint8

const (
	DialectV1 Dialect = iota + 1 // clients 8.00 through 8.57
	DialectV2                    // clients 8.60 through 9.86
	DialectV3                    // clients 10.10 and later
)

func (d Dialect) String() string {
	switch d {
	case DialectV1:
		return "v1"
	case DialectV2:
		return "v2"
	case DialectV3:
		return "v3"
	default:
		return fmt.Sprintf("invalid dialect %d", uint8(d))
	}
}

// LAST_FLAG terminates the flag section of every item record in every
// dialect.
const LAST_FLAG = 0xFF

// flagEffect names what a known flag byte does to the item being decoded.
type flagEffect uint8

const (
	fxGround flagEffect = iota
	fxGroundBorder
	fxOnBottom
	fxOnTop
	fxContainer
	fxStackable
	fxForceUse
	fxMultiUse
	fxHasCharges
	fxWritable
	fxWritableOnce
	fxFluidContainer
	fxSplash
	fxUnpassable
	fxUnmovable
	fxBlockMissiles
	fxBlockPathfinder
	fxNoMoveAnimation
	fxPickupable
	fxHangable
	fxHookSouth
	fxHookEast
	fxRotatable
	fxHasLight
	fxDontHide
	fxTranslucent
	fxHasOffset
	fxHasElevation
	fxLying
	fxAnimateAlways
	fxMinimap
	fxLensHelp
	fxFullGround
	fxIgnoreLook
	fxCloth
	fxMarket
	fxDefaultAction
	fxUsable
)

// payloadShape is the typed payload that follows a flag byte.
type payloadShape uint8

const (
	payloadNone payloadShape = iota
	payloadU16
	payloadU16x2
	payloadU16x4
	payloadMarket // five u16s plus a length-prefixed name
)

type flagSpec struct {
	effect flagEffect
	shape  payloadShape
}

// The three dialect tables. A flag byte absent from the selected table makes
// the stream malformed: without a known payload shape there is no way to
// resume parsing behind it.

var dialectV1 = map[uint8]flagSpec{
	0x00: {fxGround, payloadU16},
	0x01: {fxGroundBorder, payloadNone},
	0x02: {fxOnBottom, payloadNone},
	0x03: {fxOnTop, payloadNone},
	0x04: {fxContainer, payloadNone},
	0x05: {fxStackable, payloadNone},
	0x06: {fxForceUse, payloadNone},
	0x07: {fxMultiUse, payloadNone},
	0x08: {fxHasCharges, payloadNone},
	0x09: {fxWritable, payloadU16},
	0x0A: {fxWritableOnce, payloadU16},
	0x0B: {fxFluidContainer, payloadNone},
	0x0C: {fxSplash, payloadNone},
	0x0D: {fxUnpassable, payloadNone},
	0x0E: {fxUnmovable, payloadNone},
	0x0F: {fxBlockMissiles, payloadNone},
	0x10: {fxBlockPathfinder, payloadNone},
	0x11: {fxPickupable, payloadNone},
	0x12: {fxHangable, payloadNone},
	0x13: {fxHookSouth, payloadNone},
	0x14: {fxHookEast, payloadNone},
	0x15: {fxRotatable, payloadNone},
	0x16: {fxHasLight, payloadU16x2},
	0x17: {fxDontHide, payloadNone},
	0x18: {fxTranslucent, payloadNone},
	0x19: {fxHasOffset, payloadU16x2},
	0x1A: {fxHasElevation, payloadU16},
	0x1B: {fxLying, payloadNone},
	0x1C: {fxAnimateAlways, payloadNone},
	0x1D: {fxMinimap, payloadU16},
	0x1E: {fxLensHelp, payloadU16},
	0x1F: {fxFullGround, payloadNone},
	0x20: {fxIgnoreLook, payloadNone},
}

var dialectV2 = map[uint8]flagSpec{
	0x00: {fxGround, payloadU16},
	0x01: {fxGroundBorder, payloadNone},
	0x02: {fxOnBottom, payloadNone},
	0x03: {fxOnTop, payloadNone},
	0x04: {fxContainer, payloadNone},
	0x05: {fxStackable, payloadNone},
	0x06: {fxForceUse, payloadNone},
	0x07: {fxMultiUse, payloadNone},
	0x08: {fxWritable, payloadU16},
	0x09: {fxWritableOnce, payloadU16},
	0x0A: {fxFluidContainer, payloadNone},
	0x0B: {fxSplash, payloadNone},
	0x0C: {fxUnpassable, payloadNone},
	0x0D: {fxUnmovable, payloadNone},
	0x0E: {fxBlockMissiles, payloadNone},
	0x0F: {fxBlockPathfinder, payloadNone},
	0x10: {fxPickupable, payloadNone},
	0x11: {fxHangable, payloadNone},
	0x12: {fxHookSouth, payloadNone},
	0x13: {fxHookEast, payloadNone},
	0x14: {fxRotatable, payloadNone},
	0x15: {fxHasLight, payloadU16x2},
	0x16: {fxDontHide, payloadNone},
	0x17: {fxTranslucent, payloadNone},
	0x18: {fxHasOffset, payloadU16x2},
	0x19: {fxHasElevation, payloadU16},
	0x1A: {fxLying, payloadNone},
	0x1B: {fxAnimateAlways, payloadNone},
	0x1C: {fxMinimap, payloadU16},
	0x1D: {fxLensHelp, payloadU16},
	0x1E: {fxFullGround, payloadNone},
	0x1F: {fxIgnoreLook, payloadNone},
	0x20: {fxCloth, payloadU16},
	0x21: {fxMarket, payloadMarket},
}

var dialectV3 = map[uint8]flagSpec{
	0x00: {fxGround, payloadU16},
	0x01: {fxGroundBorder, payloadNone},
	0x02: {fxOnBottom, payloadNone},
	0x03: {fxOnTop, payloadNone},
	0x04: {fxContainer, payloadNone},
	0x05: {fxStackable, payloadNone},
	0x06: {fxForceUse, payloadNone},
	0x07: {fxMultiUse, payloadNone},
	0x08: {fxWritable, payloadU16},
	0x09: {fxWritableOnce, payloadU16},
	0x0A: {fxFluidContainer, payloadNone},
	0x0B: {fxSplash, payloadNone},
	0x0C: {fxUnpassable, payloadNone},
	0x0D: {fxUnmovable, payloadNone},
	0x0E: {fxBlockMissiles, payloadNone},
	0x0F: {fxBlockPathfinder, payloadNone},
	0x10: {fxNoMoveAnimation, payloadNone},
	0x11: {fxPickupable, payloadNone},
	0x12: {fxHangable, payloadNone},
	0x13: {fxHookSouth, payloadNone},
	0x14: {fxHookEast, payloadNone},
	0x15: {fxRotatable, payloadNone},
	0x16: {fxHasLight, payloadU16x2},
	0x17: {fxDontHide, payloadNone},
	0x18: {fxTranslucent, payloadNone},
	0x19: {fxHasOffset, payloadU16x2},
	0x1A: {fxHasElevation, payloadU16},
	0x1B: {fxLying, payloadNone},
	0x1C: {fxAnimateAlways, payloadNone},
	0x1D: {fxMinimap, payloadU16},
	0x1E: {fxLensHelp, payloadU16},
	0x1F: {fxFullGround, payloadNone},
	0x20: {fxIgnoreLook, payloadNone},
	0x21: {fxCloth, payloadU16},
	0x22: {fxMarket, payloadMarket},
	0x23: {fxDefaultAction, payloadU16},
	0xFE: {fxUsable, payloadNone},
}

func (d Dialect) table() map[uint8]flagSpec {
	switch d {
	case DialectV1:
		return dialectV1
	case DialectV2:
		return dialectV2
	case DialectV3:
		return dialectV3
	default:
		return nil
	}
}
