package otb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/golang/glog"
)

// Various special-meaning characters that might be encountered while parsing a
// node.
const (
	ESCAPE_CHAR = 0xFD // Following character should be read verbatim, even if it otherwise has a special meaning.
	NODE_START  = 0xFE // From this character onwards, this is a new OTB node. If preceded by NODE_END, this is the next sibling node. Otherwise, it's a child node.
	NODE_END    = 0xFF // This character marks the end of the latest OTB node. If immediately followed by a NODE_START, that will be the next sibling node.
)

// Errors surfaced while framing or deframing a node tree. Callers distinguish
// them with errors.Is.
var (
	ErrFraming   = errors.New("otb: framing violated")
	ErrTruncated = errors.New("otb: truncated")
	ErrCanceled  = errors.New("otb: canceled")
)

// OTB frames a file as a tree of typed nodes.
//
// Node payloads ("props") are stored with escapes already removed, so typed
// little-endian reads can operate directly on the returned buffer.
type OTB struct {
	root *Node
}

// NewOTB reads an OTB file from the given io.ReadSeeker, and constructs a
// tree of nodes.
//
// cancel may be nil; when non-nil it is consulted after each parsed node, and
// a set flag drops all intermediate state and returns ErrCanceled.
func NewOTB(r io.ReadSeeker, cancel *atomic.Bool) (*OTB, error) {
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: reading otb header: %v", ErrTruncated, err)
	}
	if version > 0 {
		return nil, fmt.Errorf("%w: invalid otb header; got %d, want %d", ErrFraming, version, 0)
	}

	byt, err := readByte(r)
	if err != nil {
		return nil, fmt.Errorf("%w: starting otb root node: %v", ErrTruncated, err)
	}
	if byt != NODE_START {
		if byt == NODE_END {
			return nil, fmt.Errorf("%w: stray NODE_END at root level", ErrFraming)
		}
		return nil, fmt.Errorf("%w: expected start of node: got %x, want %x", ErrFraming, byt, NODE_START)
	}

	p := parser{r: r, cancel: cancel}
	root, err := p.parseNode(0)
	if err != nil {
		return nil, fmt.Errorf("bad otb: could not parse root node: %w", err)
	}

	// There is exactly one root. Anything but EOF past it is mis-framed.
	switch byt, err := readByte(r); {
	case err == io.EOF:
	case err != nil:
		return nil, fmt.Errorf("%w: after root node: %v", ErrTruncated, err)
	case byt == NODE_END:
		return nil, fmt.Errorf("%w: stray NODE_END at root level", ErrFraming)
	default:
		return nil, fmt.Errorf("%w: trailing data after root node", ErrFraming)
	}

	glog.V(2).Infof("otb: parsed %d nodes", p.nodes)
	return &OTB{root: root}, nil
}

// Root returns the root node of the tree.
func (otb *OTB) Root() *Node {
	return otb.root
}

// Node represents a single node in an OTB-formatted file.
//
// Each node has a type, some data, and may have a sibling and a child attached
// to it.
//
// Further meaning depends on the file; for example, the root node in items.otb
// does not use type, but uses the data to store the version of the file and a
// free form descriptor. Its child is the first item in the file; the item's
// sibling is the second item; the second item's sibling is the third item; et
// cetera.
type Node struct {
	nodeType uint8
	props    []byte
	child    *Node
	next     *Node
}

// NodeType returns the type of the node.
//
// For example, in item nodes in items.otb, this means which item group the
// item belongs to.
func (n *Node) NodeType() uint8 {
	return n.nodeType
}

// ChildNode returns the first child of the node, or nil if there are no
// children.
//
// To obtain further children, use the child's NextNode to obtain the first
// sibling, then that sibling's NextNode, etc.
func (n *Node) ChildNode() *Node {
	return n.child
}

// NextNode returns the next sibling of the node, or nil if there are no
// more siblings.
func (n *Node) NextNode() *Node {
	return n.next
}

// PropsBuffer returns a new (i.e. reset to start) buffer for reading the
// node's payload. Escapes are already removed; any node boundary encountered
// while the payload was read became a child instead.
func (n *Node) PropsBuffer() *bytes.Buffer {
	return bytes.NewBuffer(n.props)
}

type parser struct {
	r      io.Reader
	cancel *atomic.Bool
	nodes  int
}

// parseNode reads all bytes associated with the upcoming node, including its
// children, up to and including the node's own NODE_END. It expects that the
// NODE_START byte has already been consumed.
func (p *parser) parseNode(depth int) (*Node, error) {
	node := &Node{}

	nodeType, err := readByte(p.r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading otb node type: %v", ErrTruncated, err)
	}
	glog.V(3).Infof("%stype 0x%02X", strings.Repeat(" ", depth), nodeType)
	node.nodeType = nodeType

	var lastChild *Node
	for {
		byt, err := readByte(p.r)
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated node at depth %d: %v", ErrTruncated, depth, err)
		}
		switch byt {
		case NODE_START:
			child, err := p.parseNode(depth + 1)
			if err != nil {
				return nil, err
			}
			if lastChild == nil {
				node.child = child
			} else {
				lastChild.next = child
			}
			lastChild = child
		case NODE_END:
			p.nodes++
			if p.cancel != nil && p.cancel.Load() {
				return nil, ErrCanceled
			}
			return node, nil
		case ESCAPE_CHAR:
			byt, err := readByte(p.r)
			if err != nil {
				return nil, fmt.Errorf("%w: escape as final byte", ErrTruncated)
			}
			node.props = append(node.props, byt)
		default:
			node.props = append(node.props, byt)
		}
	}
}

func readByte(r io.Reader) (uint8, error) {
	if br, ok := r.(io.ByteReader); ok {
		return br.ReadByte()
	}
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}
