package otb

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Writer emits an escape-encoded node tree.
//
// The writer is the inverse of NewOTB: payload bytes whose value collides
// with one of the reserved characters are prefixed with ESCAPE_CHAR, so a
// deframed payload always reads back byte-for-byte.
type Writer struct {
	w     io.Writer
	depth int
}

// NewWriter prepares w to receive a node tree, emitting the four-byte zero
// header every OTB file begins with.
func NewWriter(w io.Writer) (*Writer, error) {
	if err := binary.Write(w, binary.LittleEndian, uint32(0)); err != nil {
		return nil, fmt.Errorf("otb: writing header: %w", err)
	}
	return &Writer{w: w}, nil
}

// BeginNode opens a node of the given type. Nodes nest; every BeginNode must
// be paired with an EndNode.
//
// The type byte is emitted verbatim: reserved values are not valid node
// types, and the reader consumes the byte without unescaping.
func (wr *Writer) BeginNode(nodeType uint8) error {
	if _, err := wr.w.Write([]byte{NODE_START, nodeType}); err != nil {
		return fmt.Errorf("otb: beginning node: %w", err)
	}
	wr.depth++
	return nil
}

// EndNode closes the most recently opened node.
func (wr *Writer) EndNode() error {
	if wr.depth == 0 {
		return fmt.Errorf("%w: EndNode without BeginNode", ErrFraming)
	}
	if _, err := wr.w.Write([]byte{NODE_END}); err != nil {
		return fmt.Errorf("otb: ending node: %w", err)
	}
	wr.depth--
	return nil
}

// Write appends payload bytes to the currently open node, escaping reserved
// values. It implements io.Writer; n is the count of payload bytes consumed,
// not of bytes put on the wire.
func (wr *Writer) Write(p []byte) (n int, err error) {
	// Contiguous runs free of reserved bytes go out in one call.
	start := 0
	for i, b := range p {
		if b != ESCAPE_CHAR && b != NODE_START && b != NODE_END {
			continue
		}
		if start < i {
			if _, err := wr.w.Write(p[start:i]); err != nil {
				return start, fmt.Errorf("otb: writing props: %w", err)
			}
		}
		if _, err := wr.w.Write([]byte{ESCAPE_CHAR, b}); err != nil {
			return i, fmt.Errorf("otb: writing escaped prop: %w", err)
		}
		start = i + 1
	}
	if start < len(p) {
		if _, err := wr.w.Write(p[start:]); err != nil {
			return start, fmt.Errorf("otb: writing props: %w", err)
		}
	}
	return len(p), nil
}

// WriteByte appends a single payload byte, escaping if needed.
func (wr *Writer) WriteByte(b byte) error {
	_, err := wr.Write([]byte{b})
	return err
}

// WriteU16 appends a little-endian uint16 payload value.
func (wr *Writer) WriteU16(v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	_, err := wr.Write(b[:])
	return err
}

// WriteU32 appends a little-endian uint32 payload value.
func (wr *Writer) WriteU32(v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := wr.Write(b[:])
	return err
}
