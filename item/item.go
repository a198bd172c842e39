// Package item holds the value types shared between the server-side item
// database (package otb/items) and the client-side appearance data (package
// dat): the item type, the stack order, the flag set and the optional scalar
// attributes.
//
// Both sides embed these by composition; there is no inheritance relation
// between a server item and a client item.
package item

import "fmt"

// Type is the narrow item type exposed at the API boundary. The wider
// on-disk group byte of items.otb collapses into this set.
type Type uint8

const (
	TypeNone Type = iota
	TypeGround
	TypeContainer
	TypeFluid
	TypeSplash
	TypeDeprecated
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeGround:
		return "ground"
	case TypeContainer:
		return "container"
	case TypeFluid:
		return "fluid"
	case TypeSplash:
		return "splash"
	case TypeDeprecated:
		return "deprecated"
	default:
		return fmt.Sprintf("invalid item type %d", uint8(t))
	}
}

// StackOrder determines where on a tile stack the item is drawn.
type StackOrder uint8

const (
	StackOrderNone StackOrder = iota
	StackOrderBorder
	StackOrderBottom
	StackOrderTop
)

func (s StackOrder) String() string {
	switch s {
	case StackOrderNone:
		return "none"
	case StackOrderBorder:
		return "border"
	case StackOrderBottom:
		return "bottom"
	case StackOrderTop:
		return "top"
	default:
		return fmt.Sprintf("invalid stack order %d", uint8(s))
	}
}

// Flags is the set of boolean item properties shared by server and client
// items. On the server side it persists as a 32-bit flag word; on the client
// side individual DAT flag bytes set the fields.
type Flags struct {
	Unpassable        bool
	BlockMissiles     bool
	BlockPathfinder   bool
	HasElevation      bool
	ForceUse          bool
	MultiUse          bool
	Pickupable        bool
	Movable           bool
	Stackable         bool
	HasStackOrder     bool
	Readable          bool
	Rotatable         bool
	Hangable          bool
	HookSouth         bool
	HookEast          bool
	AllowDistanceRead bool
	ClientCharges     bool
	IgnoreLook        bool
	IsAnimation       bool
	FullGround        bool
}

// Attributes is the optional scalar attribute bag shared by server and
// client items. Zero values mean "absent" everywhere except SpriteHash,
// whose absence is a nil slice.
type Attributes struct {
	GroundSpeed       uint16
	LightLevel        uint16
	LightColor        uint16
	MaxReadChars      uint16
	MaxReadWriteChars uint16
	MinimapColor      uint16
	TradeAs           uint16
	StackOrder        StackOrder
	SpriteHash        []byte // 16 bytes when present
}
