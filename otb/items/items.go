package itemsotb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/karolak6612/itemedit/item"
	"github.com/karolak6612/itemedit/otb"
)

// Errors surfaced by the items.otb codec, in addition to the framing errors
// of package otb.
var (
	ErrBadAttribute = errors.New("itemsotb: bad attribute")
	ErrDuplicateID  = errors.New("itemsotb: duplicate server id")
)

// Progress is an optional sink for load/save progress. It is invoked once
// per item with the number of items handled so far and the total count.
type Progress func(done, total int)

// Items is the in-memory form of an items.otb file: the version attribute of
// the root node, plus every item in on-disk order.
type Items struct {
	Version ItemsVersion
	Items   []ServerItem

	ClientIDToArrayIndex map[uint16]int
	ServerIDToArrayIndex map[uint16]int

	MinClientID, MaxClientID uint16
	MinServerID, MaxServerID uint16
}

// ServerItem is a single item from an items.otb file.
//
// The flag and attribute bag is shared with the client-side item types by
// composition.
type ServerItem struct {
	item.Flags
	item.Attributes

	ID       uint16
	ClientID uint16
	Name     string
	Group    ItemGroup
	Type     item.Type

	// reservedFlags holds flag word bits that carry no property but must
	// survive a re-encode untouched.
	reservedFlags ItemsFlags
	// unknown holds attributes the decoder did not recognize, re-encoded
	// verbatim after the known set.
	unknown []unknownAttribute

	xml *xmlItem
}

type unknownAttribute struct {
	Kind ItemsAttribute
	Data []byte
}

type rootNodeVersion struct {
	DataSize ItemsDataSize
	Version  ItemsVersion
}

// ItemsVersion represents the version of the items.otb file.
//
// MajorVersion means a revision of the file format, MinorVersion means the
// targeted protocol version, BuildNumber is an arbitrary number representing
// the revision of the file, and CSDVersion is a byte array with a C-style
// null-terminated string.
type ItemsVersion struct {
	MajorVersion uint32
	MinorVersion ClientVersion // uint32
	BuildNumber  uint32
	CSDVersion   [128]uint8
}

// CSDVersionAsString formats null-terminated C-style string `CSDVersion` from
// a byte array into usual Go string.
func (v ItemsVersion) CSDVersionAsString() string {
	return stringFromCStr(v.CSDVersion[:])
}

// SetCSDVersion stores s as the C-style descriptor, truncating to fit.
func (v *ItemsVersion) SetCSDVersion(s string) {
	v.CSDVersion = [128]uint8{}
	copy(v.CSDVersion[:127], s)
}

// stringFromCStr turns a byte slice representing a null-terminated C-style
// string into a Go string.
func stringFromCStr(cstr []byte) string {
	idx := bytes.IndexByte(cstr, 0x00)
	if idx == -1 {
		idx = len(cstr)
	}
	return string(cstr[:idx])
}

// NewList creates an empty item list targeting the given protocol version,
// for building a fresh database through the API.
func NewList(version ItemsVersion) *Items {
	return &Items{
		Version:              version,
		ClientIDToArrayIndex: make(map[uint16]int),
		ServerIDToArrayIndex: make(map[uint16]int),
		MinClientID:          0xFFFF,
		MinServerID:          0xFFFF,
	}
}

// New reads an items.otb file from a given reader.
//
// cancel may be nil; when non-nil it is consulted while framing and once per
// item, and a set flag discards all partial state and surfaces
// otb.ErrCanceled.
func New(r io.ReadSeeker, cancel *atomic.Bool) (*Items, error) {
	return NewWithProgress(r, cancel, nil)
}

// NewWithProgress is New with a per-item progress sink. progress may be nil.
func NewWithProgress(r io.ReadSeeker, cancel *atomic.Bool, progress Progress) (*Items, error) {
	f, err := otb.NewOTB(r, cancel)
	if err != nil {
		return nil, fmt.Errorf("itemsotb failed to use fileloader: %w", err)
	}

	items := NewList(ItemsVersion{})

	root := f.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: nil root node", otb.ErrFraming)
	}

	props := root.PropsBuffer()
	var flags uint32
	if err := binary.Read(props, binary.LittleEndian, &flags); err != nil {
		return nil, fmt.Errorf("%w: reading root node flags: %v", otb.ErrTruncated, err)
	}
	_ = flags // unused but part of the layout

	var attr ItemsAttribute
	if err := binary.Read(props, binary.LittleEndian, &attr); err != nil {
		return nil, fmt.Errorf("%w: reading root node attr: %v", otb.ErrTruncated, err)
	}
	switch attr {
	case ROOT_ATTR_VERSION:
		var vers rootNodeVersion
		if err := binary.Read(props, binary.LittleEndian, &vers); err != nil {
			return nil, fmt.Errorf("%w: reading root node attr 'version': %v", ErrBadAttribute, err)
		}
		if vers.DataSize != /* sizeof rootNodeVersion.Version */ 4+4+4+128 {
			return nil, fmt.Errorf("%w: bad size of root node attr 'version': %v", ErrBadAttribute, vers.DataSize)
		}

		glog.V(2).Infof("items.otb version %d.%d.%d, csd %s", vers.Version.MajorVersion, vers.Version.MinorVersion, vers.Version.BuildNumber, vers.Version.CSDVersionAsString())
		if vers.Version.MajorVersion == 0xFFFFFFFF {
			glog.Warning("generic items.otb found, skipping version check")
		} else if vers.Version.MajorVersion != 3 {
			return nil, fmt.Errorf("unsupported items.otb major version: got %d, want %d", vers.Version.MajorVersion, 3)
		}
		items.Version = vers.Version
	default:
		// ignore, apparently
	}

	total := 0
	for node := root.ChildNode(); node != nil; node = node.NextNode() {
		total++
	}

	for node := root.ChildNode(); node != nil; node = node.NextNode() {
		if cancel != nil && cancel.Load() {
			return nil, otb.ErrCanceled
		}
		it, err := readItemNode(node)
		if err != nil {
			return nil, err
		}
		if _, dup := items.ServerIDToArrayIndex[it.ID]; dup && it.ID != 0 {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, it.ID)
		}
		items.add(*it)
		if progress != nil {
			progress(len(items.Items), total)
		}
	}
	return items, nil
}

// add appends an item, keeping the lookup indexes and ID ranges current.
func (items *Items) add(it ServerItem) {
	idx := len(items.Items)
	items.Items = append(items.Items, it)

	if it.ClientID != 0 {
		items.ClientIDToArrayIndex[it.ClientID] = idx
		if it.ClientID < items.MinClientID {
			items.MinClientID = it.ClientID
		}
		if it.ClientID > items.MaxClientID {
			items.MaxClientID = it.ClientID
		}
	}
	items.ServerIDToArrayIndex[it.ID] = idx
	if it.ID < items.MinServerID {
		items.MinServerID = it.ID
	}
	if it.ID > items.MaxServerID {
		items.MaxServerID = it.ID
	}
}

// Add appends an item built through the API, deriving the on-disk group from
// the item type when the group is unset.
func (items *Items) Add(it ServerItem) error {
	if _, dup := items.ServerIDToArrayIndex[it.ID]; dup {
		return fmt.Errorf("%w: %d", ErrDuplicateID, it.ID)
	}
	if it.Group == ITEM_GROUP_NONE && it.Type != item.TypeNone {
		it.Group = GroupForType(it.Type)
	}
	items.add(it)
	return nil
}

// readItemNode reads a single item node, as read from an OTB file.
func readItemNode(node *otb.Node) (*ServerItem, error) {
	props := node.PropsBuffer()

	var flags ItemsFlags
	if err := binary.Read(props, binary.LittleEndian, &flags); err != nil {
		return nil, fmt.Errorf("%w: reading item node flags: %v", otb.ErrTruncated, err)
	}

	group := ItemGroup(node.NodeType())
	it := ServerItem{
		Group:         group,
		Type:          group.Type(),
		Flags:         flagsFromWord(flags),
		reservedFlags: flags & reservedFlagsMask,
	}

	var attr ItemsAttribute
	for err := binary.Read(props, binary.LittleEndian, &attr); err == nil; err = binary.Read(props, binary.LittleEndian, &attr) {
		var datalen ItemsDataSize
		if err := binary.Read(props, binary.LittleEndian, &datalen); err != nil {
			return nil, fmt.Errorf("%w: reading item node data len: %v", otb.ErrTruncated, err)
		}
		if int(datalen) > props.Len() {
			return nil, fmt.Errorf("%w: attribute %s runs past node payload: len %d, %d left", ErrBadAttribute, attr, datalen, props.Len())
		}
		switch attr {
		case ITEM_ATTR_SERVERID:
			v, err := readU16Attr(props, attr, datalen)
			if err != nil {
				return nil, err
			}
			it.ID = v
		case ITEM_ATTR_CLIENTID:
			v, err := readU16Attr(props, attr, datalen)
			if err != nil {
				return nil, err
			}
			it.ClientID = v
		case ITEM_ATTR_NAME:
			it.Name = string(props.Next(int(datalen)))
		case ITEM_ATTR_GROUND_SPEED:
			v, err := readU16Attr(props, attr, datalen)
			if err != nil {
				return nil, err
			}
			it.GroundSpeed = v
		case ITEM_ATTR_SPRITE_HASH:
			if datalen != 16 {
				return nil, fmt.Errorf("%w: invalid %s size: got %d, want %d", ErrBadAttribute, attr, datalen, 16)
			}
			it.SpriteHash = append([]byte(nil), props.Next(16)...)
		case ITEM_ATTR_MINIMAP_COLOR:
			v, err := readU16Attr(props, attr, datalen)
			if err != nil {
				return nil, err
			}
			it.MinimapColor = v
		case ITEM_ATTR_MAX_READ_WRITE_CHARS:
			v, err := readU16Attr(props, attr, datalen)
			if err != nil {
				return nil, err
			}
			it.MaxReadWriteChars = v
		case ITEM_ATTR_MAX_READ_CHARS:
			v, err := readU16Attr(props, attr, datalen)
			if err != nil {
				return nil, err
			}
			it.MaxReadChars = v
		case ITEM_ATTR_LIGHT:
			if datalen != 4 {
				return nil, fmt.Errorf("%w: invalid %s size: got %d, want %d", ErrBadAttribute, attr, datalen, 4)
			}
			var val Light
			if err := binary.Read(props, binary.LittleEndian, &val); err != nil {
				return nil, fmt.Errorf("%w: reading %s: %v", ErrBadAttribute, attr, err)
			}
			it.LightLevel = val.LightLevel
			it.LightColor = val.LightColor
		case ITEM_ATTR_STACK_ORDER:
			if datalen != 1 {
				return nil, fmt.Errorf("%w: invalid %s size: got %d, want %d", ErrBadAttribute, attr, datalen, 1)
			}
			v, _ := props.ReadByte()
			it.StackOrder = item.StackOrder(v)
		case ITEM_ATTR_TRADE_AS:
			v, err := readU16Attr(props, attr, datalen)
			if err != nil {
				return nil, err
			}
			it.TradeAs = v
		default:
			// Forward compatible: keep the raw bytes around so a re-encode
			// does not drop them.
			glog.V(3).Infof("item %d: skipping unknown attribute 0x%02X (%d bytes)", it.ID, uint8(attr), datalen)
			it.unknown = append(it.unknown, unknownAttribute{
				Kind: attr,
				Data: append([]byte(nil), props.Next(int(datalen))...),
			})
		}
	}
	return &it, nil
}

func readU16Attr(props *bytes.Buffer, attr ItemsAttribute, datalen ItemsDataSize) (uint16, error) {
	if datalen != 2 {
		return 0, fmt.Errorf("%w: invalid %s size: got %d, want %d", ErrBadAttribute, attr, datalen, 2)
	}
	var v uint16
	if err := binary.Read(props, binary.LittleEndian, &v); err != nil {
		return 0, fmt.Errorf("%w: reading %s: %v", ErrBadAttribute, attr, err)
	}
	return v, nil
}

// flagsFromWord expands the on-disk flag word into the shared boolean set.
func flagsFromWord(w ItemsFlags) item.Flags {
	return item.Flags{
		Unpassable:        w&FLAG_UNPASSABLE != 0,
		BlockMissiles:     w&FLAG_BLOCK_MISSILES != 0,
		BlockPathfinder:   w&FLAG_BLOCK_PATHFINDER != 0,
		HasElevation:      w&FLAG_HAS_ELEVATION != 0,
		MultiUse:          w&FLAG_MULTI_USE != 0,
		Pickupable:        w&FLAG_PICKUPABLE != 0,
		Movable:           w&FLAG_MOVABLE != 0,
		Stackable:         w&FLAG_STACKABLE != 0,
		HasStackOrder:     w&FLAG_STACK_ORDER != 0,
		Readable:          w&FLAG_READABLE != 0,
		Rotatable:         w&FLAG_ROTATABLE != 0,
		Hangable:          w&FLAG_HANGABLE != 0,
		HookSouth:         w&FLAG_HOOK_SOUTH != 0,
		HookEast:          w&FLAG_HOOK_EAST != 0,
		AllowDistanceRead: w&FLAG_ALLOW_DIST_READ != 0,
		ClientCharges:     w&FLAG_CLIENT_CHARGES != 0,
		IgnoreLook:        w&FLAG_IGNORE_LOOK != 0,
		IsAnimation:       w&FLAG_IS_ANIMATION != 0,
		FullGround:        w&FLAG_FULL_GROUND != 0,
		ForceUse:          w&FLAG_FORCE_USE != 0,
	}
}

// flagsToWord recomputes the on-disk flag word from the boolean set.
func flagsToWord(f item.Flags) ItemsFlags {
	var w ItemsFlags
	set := func(cond bool, bit ItemsFlags) {
		if cond {
			w |= bit
		}
	}
	set(f.Unpassable, FLAG_UNPASSABLE)
	set(f.BlockMissiles, FLAG_BLOCK_MISSILES)
	set(f.BlockPathfinder, FLAG_BLOCK_PATHFINDER)
	set(f.HasElevation, FLAG_HAS_ELEVATION)
	set(f.MultiUse, FLAG_MULTI_USE)
	set(f.Pickupable, FLAG_PICKUPABLE)
	set(f.Movable, FLAG_MOVABLE)
	set(f.Stackable, FLAG_STACKABLE)
	set(f.HasStackOrder, FLAG_STACK_ORDER)
	set(f.Readable, FLAG_READABLE)
	set(f.Rotatable, FLAG_ROTATABLE)
	set(f.Hangable, FLAG_HANGABLE)
	set(f.HookSouth, FLAG_HOOK_SOUTH)
	set(f.HookEast, FLAG_HOOK_EAST)
	set(f.AllowDistanceRead, FLAG_ALLOW_DIST_READ)
	set(f.ClientCharges, FLAG_CLIENT_CHARGES)
	set(f.IgnoreLook, FLAG_IGNORE_LOOK)
	set(f.IsAnimation, FLAG_IS_ANIMATION)
	set(f.FullGround, FLAG_FULL_GROUND)
	set(f.ForceUse, FLAG_FORCE_USE)
	return w
}

// ItemByServerID allows lookup of an item stored in an items.otb file based on
// its persistent 'server' ID, which stays fixed between versions, and is used
// by the server-side data storage, by map files, etc.
func (items *Items) ItemByServerID(serverID uint16) (*ServerItem, error) {
	if idx, ok := items.ServerIDToArrayIndex[serverID]; ok {
		return &items.Items[idx], nil
	}
	return nil, fmt.Errorf("item not found with server id: %d", serverID)
}

// ItemByClientID allows lookup of an item stored in an items.otb file based on
// its ID used by the network protocol and associated data files.
func (items *Items) ItemByClientID(clientID uint16) (*ServerItem, error) {
	if idx, ok := items.ClientIDToArrayIndex[clientID]; ok {
		return &items.Items[idx], nil
	}
	return nil, fmt.Errorf("item not found with client id: %d", clientID)
}

// DisplayName returns a human readable name for the item, preferring the
// verbatim XML-supplied name when loaded.
func (it *ServerItem) DisplayName() string {
	if it.xml != nil && it.xml.Name != "" {
		return it.xml.Name
	}
	if it.Name != "" {
		return it.Name
	}
	return "unnamed item"
}

// Article returns the item's article. This will only be sourced from XML, if
// loaded.
//
// If empty, no article should be used; otherwise, in singular, prefix with
// article and a space.
func (it *ServerItem) Article() string {
	if it.xml != nil {
		return it.xml.Article
	}
	return ""
}

// Validate checks the structural invariants of the list: unique server IDs at
// or above 100, consistent ID range, and a sprite hash on every item that is
// not deprecated. It returns one error per violation.
func (items *Items) Validate() []error {
	var errs []error
	seen := make(map[uint16]int, len(items.Items))
	maxID := uint16(0)
	for i := range items.Items {
		it := &items.Items[i]
		if it.ID < 100 {
			errs = append(errs, fmt.Errorf("item %d: server id below 100", it.ID))
		}
		if prev, dup := seen[it.ID]; dup {
			errs = append(errs, fmt.Errorf("item %d: duplicate of item at index %d", it.ID, prev))
		}
		seen[it.ID] = i
		if it.ID > maxID {
			maxID = it.ID
		}
		if it.Type != item.TypeDeprecated && len(it.SpriteHash) != 16 {
			errs = append(errs, fmt.Errorf("item %d: missing sprite hash", it.ID))
		}
	}
	if maxID != items.MaxServerID {
		errs = append(errs, fmt.Errorf("max server id: indexed %d, actual %d", items.MaxServerID, maxID))
	}
	return errs
}
