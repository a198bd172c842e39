package itemsotb

import (
	"fmt"
	"strings"

	"github.com/karolak6612/itemedit/item"
)

type (
	ItemsAttribute uint8
	ItemsDataSize  uint16
	ItemsFlags     uint32
)

const (
	ROOT_ATTR_VERSION = 0x01
)

// Enumeration containing recognized protocol versions for which a particular
// items.otb file might be targeted. Stored in the minor version field of the
// root version attribute.
//
// Implementation detail: iota is not used primarily for easier referencing in
// case of an error.
const (
	CLIENT_VERSION_750                     = ClientVersion(1)
	CLIENT_VERSION_755                     = ClientVersion(2)
	CLIENT_VERSION_760, CLIENT_VERSION_770 = ClientVersion(3), ClientVersion(3)
	CLIENT_VERSION_780                     = ClientVersion(4)
	CLIENT_VERSION_790                     = ClientVersion(5)
	CLIENT_VERSION_792                     = ClientVersion(6)
	CLIENT_VERSION_800                     = ClientVersion(7)
	CLIENT_VERSION_810                     = ClientVersion(8)
	CLIENT_VERSION_811                     = ClientVersion(9)
	CLIENT_VERSION_820                     = ClientVersion(10)
	CLIENT_VERSION_830                     = ClientVersion(11)
	CLIENT_VERSION_840                     = ClientVersion(12)
	CLIENT_VERSION_841                     = ClientVersion(13)
	CLIENT_VERSION_842                     = ClientVersion(14)
	CLIENT_VERSION_850                     = ClientVersion(15)
	CLIENT_VERSION_854_BAD                 = ClientVersion(16)
	CLIENT_VERSION_854                     = ClientVersion(17)
	CLIENT_VERSION_855                     = ClientVersion(18)
	CLIENT_VERSION_860_OLD                 = ClientVersion(19)
	CLIENT_VERSION_860                     = ClientVersion(20)
	CLIENT_VERSION_861                     = ClientVersion(21)
	CLIENT_VERSION_862                     = ClientVersion(22)
	CLIENT_VERSION_870                     = ClientVersion(23)
	CLIENT_VERSION_960                     = ClientVersion(41)
	CLIENT_VERSION_980                     = ClientVersion(46)
	CLIENT_VERSION_1010                    = ClientVersion(49)
	CLIENT_VERSION_1077                    = ClientVersion(55)
	CLIENT_VERSION_1098                    = ClientVersion(57)
)

// Enumeration containing recognized protocol versions for which a particular
// items.otb file might be targeted.
type ClientVersion uint32

// String implements the stringer interface.
func (v ClientVersion) String() string {
	switch v {
	case CLIENT_VERSION_750:
		return "7.50"
	case CLIENT_VERSION_755:
		return "7.55"
	case CLIENT_VERSION_760:
		return "7.60 / 7.70"
	case CLIENT_VERSION_780:
		return "7.80"
	case CLIENT_VERSION_790:
		return "7.90"
	case CLIENT_VERSION_792:
		return "7.92"
	case CLIENT_VERSION_800:
		return "8.00"
	case CLIENT_VERSION_810:
		return "8.10"
	case CLIENT_VERSION_811:
		return "8.11"
	case CLIENT_VERSION_820:
		return "8.20"
	case CLIENT_VERSION_830:
		return "8.30"
	case CLIENT_VERSION_840:
		return "8.40"
	case CLIENT_VERSION_841:
		return "8.41"
	case CLIENT_VERSION_842:
		return "8.42"
	case CLIENT_VERSION_850:
		return "8.50"
	case CLIENT_VERSION_854_BAD:
		return "8.54 (bad)"
	case CLIENT_VERSION_854:
		return "8.54"
	case CLIENT_VERSION_855:
		return "8.55"
	case CLIENT_VERSION_860_OLD:
		return "8.60 (old)"
	case CLIENT_VERSION_860:
		return "8.60"
	case CLIENT_VERSION_861:
		return "8.61"
	case CLIENT_VERSION_862:
		return "8.62"
	case CLIENT_VERSION_870:
		return "8.70"
	case CLIENT_VERSION_960:
		return "9.60"
	case CLIENT_VERSION_980:
		return "9.80"
	case CLIENT_VERSION_1010:
		return "10.10"
	case CLIENT_VERSION_1077:
		return "10.77"
	case CLIENT_VERSION_1098:
		return "10.98"
	}
	return fmt.Sprintf("client version %d unknown", v)
}

// Enumeration containing which overarching item group this item belongs to.
//
// This is the item node's type byte as stored on disk. At the API boundary
// the wider set collapses into item.Type; see Type().
type ItemGroup int

const (
	ITEM_GROUP_NONE ItemGroup = iota
	ITEM_GROUP_GROUND
	ITEM_GROUP_CONTAINER
	ITEM_GROUP_WEAPON     // deprecated
	ITEM_GROUP_AMMUNITION // deprecated
	ITEM_GROUP_ARMOR      // deprecated
	ITEM_GROUP_CHARGES
	ITEM_GROUP_TELEPORT   // deprecated
	ITEM_GROUP_MAGICFIELD // deprecated
	ITEM_GROUP_WRITEABLE  // deprecated
	ITEM_GROUP_KEY        // deprecated
	ITEM_GROUP_SPLASH
	ITEM_GROUP_FLUID
	ITEM_GROUP_DOOR // deprecated
	ITEM_GROUP_DEPRECATED
	ITEM_GROUP_LAST
)

func (g ItemGroup) String() string {
	switch g {
	case ITEM_GROUP_NONE:
		return "none"
	case ITEM_GROUP_GROUND:
		return "ground"
	case ITEM_GROUP_CONTAINER:
		return "container"
	case ITEM_GROUP_WEAPON:
		return "weapon"
	case ITEM_GROUP_AMMUNITION:
		return "ammunition"
	case ITEM_GROUP_ARMOR:
		return "armor"
	case ITEM_GROUP_CHARGES:
		return "charges"
	case ITEM_GROUP_TELEPORT:
		return "teleport"
	case ITEM_GROUP_MAGICFIELD:
		return "magic field"
	case ITEM_GROUP_WRITEABLE:
		return "writeable"
	case ITEM_GROUP_KEY:
		return "key"
	case ITEM_GROUP_SPLASH:
		return "splash"
	case ITEM_GROUP_FLUID:
		return "fluid"
	case ITEM_GROUP_DOOR:
		return "door"
	case ITEM_GROUP_DEPRECATED:
		return "deprecated"
	case ITEM_GROUP_LAST:
		return "last (invalid value)"
	default:
		return "invalid item group"
	}
}

// Type collapses the on-disk group into the narrow API-level item type.
// Groups outside the narrow set become item.TypeNone.
func (g ItemGroup) Type() item.Type {
	switch g {
	case ITEM_GROUP_GROUND:
		return item.TypeGround
	case ITEM_GROUP_CONTAINER:
		return item.TypeContainer
	case ITEM_GROUP_FLUID:
		return item.TypeFluid
	case ITEM_GROUP_SPLASH:
		return item.TypeSplash
	case ITEM_GROUP_DEPRECATED:
		return item.TypeDeprecated
	default:
		return item.TypeNone
	}
}

// GroupForType is the inverse of ItemGroup.Type for items created through the
// API rather than decoded from disk.
func GroupForType(t item.Type) ItemGroup {
	switch t {
	case item.TypeGround:
		return ITEM_GROUP_GROUND
	case item.TypeContainer:
		return ITEM_GROUP_CONTAINER
	case item.TypeFluid:
		return ITEM_GROUP_FLUID
	case item.TypeSplash:
		return ITEM_GROUP_SPLASH
	case item.TypeDeprecated:
		return ITEM_GROUP_DEPRECATED
	default:
		return ITEM_GROUP_NONE
	}
}

// Enumeration containing possible bits in the `flags` bitmask of an item.
// Bit positions are fixed by the file format.
const (
	FLAG_UNPASSABLE ItemsFlags = 1 << iota
	FLAG_BLOCK_MISSILES
	FLAG_BLOCK_PATHFINDER
	FLAG_HAS_ELEVATION
	FLAG_MULTI_USE
	FLAG_PICKUPABLE
	FLAG_MOVABLE
	FLAG_STACKABLE
	FLAG_FLOORCHANGEDOWN  // reserved
	FLAG_FLOORCHANGENORTH // reserved
	FLAG_FLOORCHANGEEAST  // reserved
	FLAG_FLOORCHANGESOUTH // reserved
	FLAG_FLOORCHANGEWEST  // reserved
	FLAG_STACK_ORDER
	FLAG_READABLE
	FLAG_ROTATABLE
	FLAG_HANGABLE
	FLAG_HOOK_SOUTH
	FLAG_HOOK_EAST
	FLAG_CANNOT_DECAY // reserved
	FLAG_ALLOW_DIST_READ
	FLAG_UNUSED // reserved
	FLAG_CLIENT_CHARGES
	FLAG_IGNORE_LOOK
	FLAG_IS_ANIMATION
	FLAG_FULL_GROUND
	FLAG_FORCE_USE

	FLAG_LAST
)

// reservedFlagsMask covers bits that carry no item property but must survive
// a decode/encode round trip untouched.
const reservedFlagsMask = FLAG_FLOORCHANGEDOWN | FLAG_FLOORCHANGENORTH |
	FLAG_FLOORCHANGEEAST | FLAG_FLOORCHANGESOUTH | FLAG_FLOORCHANGEWEST |
	FLAG_CANNOT_DECAY | FLAG_UNUSED

func (f ItemsFlags) String() string {
	out := make([]string, 0, 32)
	for bit := FLAG_UNPASSABLE; bit < FLAG_LAST; bit <<= 1 {
		if f&bit == 0 {
			continue
		}
		var desc string
		switch bit {
		case FLAG_UNPASSABLE:
			desc = "unpassable"
		case FLAG_BLOCK_MISSILES:
			desc = "block missiles"
		case FLAG_BLOCK_PATHFINDER:
			desc = "block pathfinder"
		case FLAG_HAS_ELEVATION:
			desc = "has elevation"
		case FLAG_MULTI_USE:
			desc = "multi use"
		case FLAG_PICKUPABLE:
			desc = "pickupable"
		case FLAG_MOVABLE:
			desc = "movable"
		case FLAG_STACKABLE:
			desc = "stackable"
		case FLAG_FLOORCHANGEDOWN:
			desc = "floor change down"
		case FLAG_FLOORCHANGENORTH:
			desc = "floor change north"
		case FLAG_FLOORCHANGEEAST:
			desc = "floor change east"
		case FLAG_FLOORCHANGESOUTH:
			desc = "floor change south"
		case FLAG_FLOORCHANGEWEST:
			desc = "floor change west"
		case FLAG_STACK_ORDER:
			desc = "stack order"
		case FLAG_READABLE:
			desc = "readable"
		case FLAG_ROTATABLE:
			desc = "rotatable"
		case FLAG_HANGABLE:
			desc = "hangable"
		case FLAG_HOOK_SOUTH:
			desc = "hook south"
		case FLAG_HOOK_EAST:
			desc = "hook east"
		case FLAG_CANNOT_DECAY:
			desc = "cannot decay"
		case FLAG_ALLOW_DIST_READ:
			desc = "allow dist read"
		case FLAG_UNUSED:
			desc = "unused"
		case FLAG_CLIENT_CHARGES:
			desc = "client charges"
		case FLAG_IGNORE_LOOK:
			desc = "ignore look"
		case FLAG_IS_ANIMATION:
			desc = "animation"
		case FLAG_FULL_GROUND:
			desc = "full ground"
		case FLAG_FORCE_USE:
			desc = "force use"
		}
		if desc != "" {
			out = append(out, desc)
		}
	}
	return strings.Join(out, ", ")
}

// Enumeration containing recognized attributes in the items.otb file.
const (
	ITEM_ATTR_SERVERID             ItemsAttribute = 0x10
	ITEM_ATTR_CLIENTID             ItemsAttribute = 0x11
	ITEM_ATTR_NAME                 ItemsAttribute = 0x12
	ITEM_ATTR_GROUND_SPEED         ItemsAttribute = 0x14
	ITEM_ATTR_SPRITE_HASH          ItemsAttribute = 0x20
	ITEM_ATTR_MINIMAP_COLOR        ItemsAttribute = 0x21
	ITEM_ATTR_MAX_READ_WRITE_CHARS ItemsAttribute = 0x22
	ITEM_ATTR_MAX_READ_CHARS       ItemsAttribute = 0x23
	ITEM_ATTR_LIGHT                ItemsAttribute = 0x2A
	ITEM_ATTR_STACK_ORDER          ItemsAttribute = 0x2B
	ITEM_ATTR_TRADE_AS             ItemsAttribute = 0x2D
)

func (a ItemsAttribute) String() string {
	switch a {
	case ITEM_ATTR_SERVERID:
		return "server id"
	case ITEM_ATTR_CLIENTID:
		return "client id"
	case ITEM_ATTR_NAME:
		return "name"
	case ITEM_ATTR_GROUND_SPEED:
		return "ground speed"
	case ITEM_ATTR_SPRITE_HASH:
		return "sprite hash"
	case ITEM_ATTR_MINIMAP_COLOR:
		return "minimap color"
	case ITEM_ATTR_MAX_READ_WRITE_CHARS:
		return "max read write chars"
	case ITEM_ATTR_MAX_READ_CHARS:
		return "max read chars"
	case ITEM_ATTR_LIGHT:
		return "light"
	case ITEM_ATTR_STACK_ORDER:
		return "stack order"
	case ITEM_ATTR_TRADE_AS:
		return "trade as"
	default:
		return fmt.Sprintf("attribute 0x%02X", uint8(a))
	}
}

// Light represents the data structure describing a lit-up item's light
// attribute ITEM_ATTR_LIGHT, as stored in an items.otb file.
type Light struct {
	LightLevel uint16
	LightColor uint16
}
