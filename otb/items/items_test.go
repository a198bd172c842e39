package itemsotb

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karolak6612/itemedit/item"
	"github.com/karolak6612/itemedit/otb"
)

func testVersion() ItemsVersion {
	v := ItemsVersion{
		MajorVersion: 3,
		MinorVersion: 57,
		BuildNumber:  8,
	}
	v.SetCSDVersion("OTB 3.57.8-10.98")
	return v
}

func encodeItems(t *testing.T, items *Items) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, items, nil))
	return buf.Bytes()
}

func TestMinimalRoundTrip(t *testing.T) {
	items := NewList(testVersion())
	require.NoError(t, items.Add(ServerItem{
		ID:       100,
		ClientID: 100,
		Type:     item.TypeGround,
		Name:     "empty",
		Attributes: item.Attributes{
			SpriteHash: make([]byte, 16),
		},
	}))

	enc := encodeItems(t, items)

	// Zero header, root node start with type 0, unused root flags, then the
	// version attribute.
	wantPrefix := []byte{
		0x00, 0x00, 0x00, 0x00,
		otb.NODE_START, 0x00,
		0x00, 0x00, 0x00, 0x00,
		ROOT_ATTR_VERSION, 0x8C, 0x00,
	}
	require.True(t, bytes.HasPrefix(enc, wantPrefix), "encoded prefix: got % x", enc[:len(wantPrefix)])

	decoded, err := New(bytes.NewReader(enc), nil)
	require.NoError(t, err)

	assert.Equal(t, items.Version, decoded.Version)
	require.Len(t, decoded.Items, 1)
	got := decoded.Items[0]
	assert.Equal(t, uint16(100), got.ID)
	assert.Equal(t, uint16(100), got.ClientID)
	assert.Equal(t, "empty", got.Name)
	assert.Equal(t, item.TypeGround, got.Type)
	assert.Equal(t, ITEM_GROUP_GROUND, got.Group)
	assert.Equal(t, make([]byte, 16), got.SpriteHash)
}

func TestNameEscapeRoundTrip(t *testing.T) {
	items := NewList(testVersion())
	name := string([]byte{0xFD, 0xFE, 0xFF})
	require.NoError(t, items.Add(ServerItem{ID: 100, ClientID: 100, Type: item.TypeGround, Name: name}))

	enc := encodeItems(t, items)

	// On the wire the three reserved bytes double up behind escapes, but the
	// TLV length counts payload bytes, not wire bytes.
	wantTLV := []byte{
		uint8(ITEM_ATTR_NAME), 0x03, 0x00,
		otb.ESCAPE_CHAR, 0xFD, otb.ESCAPE_CHAR, 0xFE, otb.ESCAPE_CHAR, 0xFF,
	}
	assert.True(t, bytes.Contains(enc, wantTLV), "encoded TLV not found in % x", enc)

	decoded, err := New(bytes.NewReader(enc), nil)
	require.NoError(t, err)
	require.Len(t, decoded.Items, 1)
	assert.Equal(t, name, decoded.Items[0].Name)
}

func TestFlagWordRoundTrip(t *testing.T) {
	bits := []ItemsFlags{
		FLAG_UNPASSABLE, FLAG_BLOCK_MISSILES, FLAG_BLOCK_PATHFINDER,
		FLAG_HAS_ELEVATION, FLAG_MULTI_USE, FLAG_PICKUPABLE, FLAG_MOVABLE,
		FLAG_STACKABLE, FLAG_STACK_ORDER, FLAG_READABLE, FLAG_ROTATABLE,
		FLAG_HANGABLE, FLAG_HOOK_SOUTH, FLAG_HOOK_EAST, FLAG_ALLOW_DIST_READ,
		FLAG_CLIENT_CHARGES, FLAG_IGNORE_LOOK, FLAG_IS_ANIMATION,
		FLAG_FULL_GROUND, FLAG_FORCE_USE,
	}

	// Every single bit, then a spread of random subsets.
	words := make([]ItemsFlags, 0, len(bits)+256)
	words = append(words, 0)
	words = append(words, bits...)
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 256; i++ {
		var w ItemsFlags
		for _, b := range bits {
			if rnd.Intn(2) == 1 {
				w |= b
			}
		}
		words = append(words, w)
	}

	for _, w := range words {
		if got := flagsToWord(flagsFromWord(w)); got != w {
			t.Errorf("flag word % x: round trip gave % x", uint32(w), uint32(got))
		}
	}
}

func TestFullAttributeRoundTrip(t *testing.T) {
	items := NewList(testVersion())
	want := ServerItem{
		ID:       2001,
		ClientID: 1999,
		Type:     item.TypeContainer,
		Name:     "ornate chest",
		Flags: item.Flags{
			Unpassable:    true,
			Movable:       true,
			HasStackOrder: true,
			Readable:      true,
		},
		Attributes: item.Attributes{
			GroundSpeed:       150,
			LightLevel:        7,
			LightColor:        206,
			MaxReadChars:      32,
			MaxReadWriteChars: 128,
			MinimapColor:      210,
			TradeAs:           2002,
			StackOrder:        item.StackOrderTop,
			SpriteHash:        bytes.Repeat([]byte{0xAB}, 16),
		},
	}
	require.NoError(t, items.Add(want))

	decoded, err := New(bytes.NewReader(encodeItems(t, items)), nil)
	require.NoError(t, err)
	require.Len(t, decoded.Items, 1)

	got := decoded.Items[0]
	want.Group = ITEM_GROUP_CONTAINER
	assert.Equal(t, want, got)
}

func TestUnknownAttributePreserved(t *testing.T) {
	// Handcraft an item carrying an attribute this decoder does not know.
	var buf bytes.Buffer
	w, err := otb.NewWriter(&buf)
	require.NoError(t, err)
	w.BeginNode(0x00)
	w.WriteU32(0)
	w.WriteByte(ROOT_ATTR_VERSION)
	w.WriteU16(140)
	var vbuf bytes.Buffer
	binary.Write(&vbuf, binary.LittleEndian, testVersion())
	w.Write(vbuf.Bytes())

	w.BeginNode(uint8(ITEM_GROUP_GROUND))
	w.WriteU32(0)
	w.WriteByte(uint8(ITEM_ATTR_SERVERID))
	w.WriteU16(2)
	w.WriteU16(100)
	w.WriteByte(uint8(ITEM_ATTR_CLIENTID))
	w.WriteU16(2)
	w.WriteU16(100)
	w.WriteByte(0x55) // unknown attribute kind
	w.WriteU16(3)
	w.Write([]byte{0xDE, 0xAD, 0xFF})
	w.EndNode()
	w.EndNode()

	decoded, err := New(bytes.NewReader(buf.Bytes()), nil)
	require.NoError(t, err)
	require.Len(t, decoded.Items, 1)
	require.Len(t, decoded.Items[0].unknown, 1)
	assert.Equal(t, ItemsAttribute(0x55), decoded.Items[0].unknown[0].Kind)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xFF}, decoded.Items[0].unknown[0].Data)

	// The opaque blob survives a re-encode.
	reenc := encodeItems(t, decoded)
	redecoded, err := New(bytes.NewReader(reenc), nil)
	require.NoError(t, err)
	require.Len(t, redecoded.Items, 1)
	assert.Equal(t, decoded.Items[0].unknown, redecoded.Items[0].unknown)
}

func TestBadAttributeSize(t *testing.T) {
	var buf bytes.Buffer
	w, err := otb.NewWriter(&buf)
	require.NoError(t, err)
	w.BeginNode(0x00)
	w.WriteU32(0)
	w.WriteByte(ROOT_ATTR_VERSION)
	w.WriteU16(140)
	var vbuf bytes.Buffer
	binary.Write(&vbuf, binary.LittleEndian, testVersion())
	w.Write(vbuf.Bytes())
	w.BeginNode(uint8(ITEM_GROUP_GROUND))
	w.WriteU32(0)
	w.WriteByte(uint8(ITEM_ATTR_SERVERID))
	w.WriteU16(3) // server id must be 2 bytes
	w.Write([]byte{0x64, 0x00, 0x00})
	w.EndNode()
	w.EndNode()

	_, err = New(bytes.NewReader(buf.Bytes()), nil)
	assert.ErrorIs(t, err, ErrBadAttribute)
}

func TestCancelMidDecode(t *testing.T) {
	items := NewList(testVersion())
	for id := uint16(100); id < 10100; id++ {
		require.NoError(t, items.Add(ServerItem{
			ID:       id,
			ClientID: id,
			Type:     item.TypeNone,
			Attributes: item.Attributes{
				SpriteHash: make([]byte, 16),
			},
		}))
	}
	enc := encodeItems(t, items)

	var cancel atomic.Bool
	_, err := NewWithProgress(bytes.NewReader(enc), &cancel, func(done, total int) {
		if done == 5000 {
			cancel.Store(true)
		}
	})
	assert.ErrorIs(t, err, otb.ErrCanceled)
}

func TestDeprecatedItemMayLackHash(t *testing.T) {
	items := NewList(testVersion())
	require.NoError(t, items.Add(ServerItem{ID: 100, ClientID: 0, Type: item.TypeDeprecated}))

	decoded, err := New(bytes.NewReader(encodeItems(t, items)), nil)
	require.NoError(t, err)
	require.Len(t, decoded.Items, 1)
	assert.Nil(t, decoded.Items[0].SpriteHash)
	assert.Empty(t, decoded.Validate())
}

func TestValidate(t *testing.T) {
	items := NewList(testVersion())
	require.NoError(t, items.Add(ServerItem{ID: 99, ClientID: 100, Type: item.TypeGround}))

	errs := items.Validate()
	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	joined := strings.Join(msgs, "; ")
	assert.Contains(t, joined, "server id below 100")
	assert.Contains(t, joined, "missing sprite hash")
}

func TestAddXMLInfo(t *testing.T) {
	items := NewList(testVersion())
	require.NoError(t, items.Add(ServerItem{ID: 100, ClientID: 100, Type: item.TypeGround, Name: "void"}))

	xml := `<items>
		<item id="100" name="the void" article="the">
			<attribute key="description" value="you can almost see through it"/>
		</item>
		<item id="20001" name="a fluid"/>
	</items>`
	require.NoError(t, items.AddXMLInfo(strings.NewReader(xml)))

	it, err := items.ItemByServerID(100)
	require.NoError(t, err)
	assert.Equal(t, "the void", it.DisplayName())
	assert.Equal(t, "the", it.Article())
	assert.Equal(t, "you can almost see through it", it.Description())
	assert.Equal(t, "void", it.Name)
}
