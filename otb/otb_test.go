package otb

import (
	"bytes"
	"errors"
	"sync/atomic"
	"testing"
)

// encodeTree writes a single node of type nodeType with the given payload and
// returns the resulting file bytes.
func encodeTree(t *testing.T, nodeType uint8, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter: %s", err)
	}
	if err := w.BeginNode(nodeType); err != nil {
		t.Fatalf("BeginNode: %s", err)
	}
	if _, err := w.Write(payload); err != nil {
		t.Fatalf("Write: %s", err)
	}
	if err := w.EndNode(); err != nil {
		t.Fatalf("EndNode: %s", err)
	}
	return buf.Bytes()
}

func TestPayloadRoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		{0x00},
		{0xFD, 0xFE, 0xFF},
		{0xFF, 0x01, 0xFE, 0x02, 0xFD},
		bytes.Repeat([]byte{0xFD}, 300),
	}
	// Reserved bytes in every position of a short payload.
	for pos := 0; pos < 4; pos++ {
		for _, res := range []byte{0xFD, 0xFE, 0xFF} {
			p := []byte{0x10, 0x20, 0x30, 0x40}
			p[pos] = res
			payloads = append(payloads, p)
		}
	}

	for _, p := range payloads {
		enc := encodeTree(t, 0x07, p)
		f, err := NewOTB(bytes.NewReader(enc), nil)
		if err != nil {
			t.Fatalf("NewOTB(% x): %s", enc, err)
		}
		root := f.Root()
		if root.NodeType() != 0x07 {
			t.Errorf("node type: got %#x, want 0x07", root.NodeType())
		}
		if got := root.PropsBuffer().Bytes(); !bytes.Equal(got, p) {
			t.Errorf("payload round trip: got % x, want % x", got, p)
		}
	}
}

func TestEscapeExpansionOnDisk(t *testing.T) {
	enc := encodeTree(t, 0x00, []byte{0xFD, 0xFE, 0xFF})
	want := []byte{
		0x00, 0x00, 0x00, 0x00, // zero header
		NODE_START, 0x00,
		ESCAPE_CHAR, 0xFD, ESCAPE_CHAR, 0xFE, ESCAPE_CHAR, 0xFF,
		NODE_END,
	}
	if !bytes.Equal(enc, want) {
		t.Errorf("encoded bytes: got % x, want % x", enc, want)
	}
}

func TestChildrenAndSiblings(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter: %s", err)
	}
	w.BeginNode(0x00)
	w.WriteU32(0) // root flags
	for i := uint8(1); i <= 3; i++ {
		w.BeginNode(i)
		w.WriteU16(uint16(i) * 0x1111)
		w.EndNode()
	}
	w.EndNode()

	f, err := NewOTB(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatalf("NewOTB: %s", err)
	}
	i := uint8(1)
	for node := f.Root().ChildNode(); node != nil; node = node.NextNode() {
		if node.NodeType() != i {
			t.Errorf("child %d: got type %#x, want %#x", i, node.NodeType(), i)
		}
		if node.ChildNode() != nil {
			t.Errorf("child %d: unexpected grandchild", i)
		}
		i++
	}
	if i != 4 {
		t.Errorf("got %d children, want 3", i-1)
	}
}

func TestBadFraming(t *testing.T) {
	for _, tc := range []struct {
		name string
		data []byte
		want error
	}{
		{"stray node end", []byte{0, 0, 0, 0, NODE_END}, ErrFraming},
		{"nonzero header", []byte{1, 0, 0, 0, NODE_START, 0x00, NODE_END}, ErrFraming},
		{"unterminated node", []byte{0, 0, 0, 0, NODE_START, 0x00, 0x01}, ErrTruncated},
		{"escape as final byte", []byte{0, 0, 0, 0, NODE_START, 0x00, ESCAPE_CHAR}, ErrTruncated},
		{"trailing stray end", []byte{0, 0, 0, 0, NODE_START, 0x00, NODE_END, NODE_END}, ErrFraming},
		{"empty file", nil, ErrTruncated},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewOTB(bytes.NewReader(tc.data), nil)
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCancel(t *testing.T) {
	var cancel atomic.Bool
	cancel.Store(true)
	enc := encodeTree(t, 0x00, []byte{0x01})
	if _, err := NewOTB(bytes.NewReader(enc), &cancel); !errors.Is(err, ErrCanceled) {
		t.Errorf("got %v, want %v", err, ErrCanceled)
	}
}
