package itemsotb

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/karolak6612/itemedit/item"
	"github.com/karolak6612/itemedit/otb"
)

// Encode writes the item list as an items.otb byte stream.
//
// The output is deterministic: attributes are written in a fixed canonical
// order, absent or zero-valued attributes are skipped except server and
// client ID, and every item without a stored sprite hash that is not
// deprecated gets sixteen zero bytes, so the original toolchain finds the
// attribute it expects.
func Encode(w io.Writer, items *Items, cancel *atomic.Bool) error {
	return EncodeWithProgress(w, items, cancel, nil)
}

// EncodeWithProgress is Encode with a per-item progress sink. progress may be
// nil.
func EncodeWithProgress(w io.Writer, items *Items, cancel *atomic.Bool, progress Progress) error {
	wr, err := otb.NewWriter(w)
	if err != nil {
		return err
	}

	if err := wr.BeginNode(0x00); err != nil {
		return err
	}
	if err := wr.WriteU32(0); err != nil { // unused root flags
		return err
	}
	if err := writeVersionAttr(wr, items.Version); err != nil {
		return err
	}

	for i := range items.Items {
		if cancel != nil && cancel.Load() {
			return otb.ErrCanceled
		}
		if err := writeItemNode(wr, &items.Items[i]); err != nil {
			return fmt.Errorf("encoding item %d: %w", items.Items[i].ID, err)
		}
		if progress != nil {
			progress(i+1, len(items.Items))
		}
	}

	return wr.EndNode()
}

// EncodeFile encodes to a temporary file next to path and renames it over
// path on success, so a failed save never clobbers the previous database.
func EncodeFile(path string, items *Items, cancel *atomic.Bool) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("itemsotb: creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := Encode(bw, items, cancel); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("itemsotb: flushing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("itemsotb: closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("itemsotb: renaming into place: %w", err)
	}
	glog.V(1).Infof("wrote %d items to %s", len(items.Items), path)
	return nil
}

func writeVersionAttr(wr *otb.Writer, v ItemsVersion) error {
	if err := wr.WriteByte(ROOT_ATTR_VERSION); err != nil {
		return err
	}
	if err := wr.WriteU16(4 + 4 + 4 + 128); err != nil {
		return err
	}
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, v)
	_, err := wr.Write(buf.Bytes())
	return err
}

func writeItemNode(wr *otb.Writer, it *ServerItem) error {
	group := it.Group
	if group == ITEM_GROUP_NONE && it.Type != item.TypeNone {
		group = GroupForType(it.Type)
	}
	if err := wr.BeginNode(uint8(group)); err != nil {
		return err
	}

	word := flagsToWord(it.Flags) | it.reservedFlags
	if err := wr.WriteU32(uint32(word)); err != nil {
		return err
	}

	if err := writeU16Attr(wr, ITEM_ATTR_SERVERID, it.ID); err != nil {
		return err
	}
	if err := writeU16Attr(wr, ITEM_ATTR_CLIENTID, it.ClientID); err != nil {
		return err
	}
	if it.Name != "" {
		if err := writeBytesAttr(wr, ITEM_ATTR_NAME, []byte(it.Name)); err != nil {
			return err
		}
	}
	if it.GroundSpeed != 0 {
		if err := writeU16Attr(wr, ITEM_ATTR_GROUND_SPEED, it.GroundSpeed); err != nil {
			return err
		}
	}
	hash := it.SpriteHash
	if hash == nil && it.Type != item.TypeDeprecated {
		hash = make([]byte, 16)
	}
	if hash != nil {
		if len(hash) != 16 {
			return fmt.Errorf("%w: sprite hash is %d bytes, want 16", ErrBadAttribute, len(hash))
		}
		if err := writeBytesAttr(wr, ITEM_ATTR_SPRITE_HASH, hash); err != nil {
			return err
		}
	}
	if it.MinimapColor != 0 {
		if err := writeU16Attr(wr, ITEM_ATTR_MINIMAP_COLOR, it.MinimapColor); err != nil {
			return err
		}
	}
	if it.MaxReadWriteChars != 0 {
		if err := writeU16Attr(wr, ITEM_ATTR_MAX_READ_WRITE_CHARS, it.MaxReadWriteChars); err != nil {
			return err
		}
	}
	if it.MaxReadChars != 0 {
		if err := writeU16Attr(wr, ITEM_ATTR_MAX_READ_CHARS, it.MaxReadChars); err != nil {
			return err
		}
	}
	if it.LightLevel != 0 || it.LightColor != 0 {
		var buf bytes.Buffer
		binary.Write(&buf, binary.LittleEndian, Light{LightLevel: it.LightLevel, LightColor: it.LightColor})
		if err := writeBytesAttr(wr, ITEM_ATTR_LIGHT, buf.Bytes()); err != nil {
			return err
		}
	}
	if it.HasStackOrder || it.StackOrder != item.StackOrderNone {
		if err := writeBytesAttr(wr, ITEM_ATTR_STACK_ORDER, []byte{uint8(it.StackOrder)}); err != nil {
			return err
		}
	}
	if it.TradeAs != 0 {
		if err := writeU16Attr(wr, ITEM_ATTR_TRADE_AS, it.TradeAs); err != nil {
			return err
		}
	}
	for _, u := range it.unknown {
		if err := writeBytesAttr(wr, u.Kind, u.Data); err != nil {
			return err
		}
	}

	return wr.EndNode()
}

func writeU16Attr(wr *otb.Writer, attr ItemsAttribute, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return writeBytesAttr(wr, attr, b[:])
}

func writeBytesAttr(wr *otb.Writer, attr ItemsAttribute, data []byte) error {
	if err := wr.WriteByte(uint8(attr)); err != nil {
		return err
	}
	if err := wr.WriteU16(uint16(len(data))); err != nil {
		return err
	}
	_, err := wr.Write(data)
	return err
}
