package fbx

import (
	"bytes"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"github.com/mogaika/fbxloader/utils"
)

const (
	Signature      = "Kaydara FBX Binary  \x00"
	MinVersion     = 6400
	WideVersion    = 7500
	FooterSize     = 160 + 16
	headerReserved = 2

	DefaultMaxDepth = 128
)

var (
	ErrInvalidSignature   = errors.New("invalid binary FBX signature")
	ErrUnsupportedVersion = errors.New("unsupported FBX version")
	ErrMaxDepth           = errors.New("node nesting too deep")
)

type Options struct {
	// MaxDepth limits node nesting. Zero means DefaultMaxDepth.
	MaxDepth int
	// Encoding decodes node names and string properties. Nil means UTF-8.
	Encoding encoding.Encoding
}

func DefaultOptions() Options {
	return Options{MaxDepth: DefaultMaxDepth, Encoding: unicode.UTF8}
}

// Document is the decoded top level of a binary FBX file.
type Document struct {
	Version uint32
	Nodes   map[string]*RawNode
}

type decoder struct {
	c       *utils.Cursor
	version uint32
	opts    Options
}

// Parse decodes a whole binary FBX buffer.
func Parse(data []byte, opts Options) (*Document, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	c := utils.NewCursor(data)

	sig, err := c.Read(len(Signature))
	if err != nil || !bytes.Equal(sig, []byte(Signature)) {
		return nil, errors.Wrapf(ErrInvalidSignature, "header %q", utils.DumpToOneLineString(sig))
	}
	if err := c.Skip(headerReserved); err != nil {
		return nil, errors.Wrapf(err, "Failed to read header")
	}
	version, err := c.ReadLU32()
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read version")
	}
	if version < MinVersion {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "%d, must be at least %d", version, MinVersion)
	}

	d := &decoder{c: c, version: version, opts: opts}
	doc := &Document{Version: version, Nodes: make(map[string]*RawNode)}

	for !d.endOfContent() {
		node, err := d.readNode(0)
		if err != nil {
			return nil, err
		}
		if node != nil {
			doc.Nodes[node.Name] = node
		}
	}
	return doc, nil
}

// footer is 160 bytes of magic plus 16 bytes of padding
func (d *decoder) endOfContent() bool {
	size := d.c.Len()
	if size%16 == 0 {
		return ((d.c.Pos() + FooterSize) &^ 0xf) >= size
	}
	return d.c.Pos()+FooterSize >= size
}

func (d *decoder) readHeaderField() (uint64, error) {
	if d.version >= WideVersion {
		return d.c.ReadLU64()
	}
	v, err := d.c.ReadLU32()
	return uint64(v), err
}

// readNode returns nil for the null record terminating a child list.
func (d *decoder) readNode(depth int) (*RawNode, error) {
	if depth >= d.opts.MaxDepth {
		return nil, errors.Wrapf(ErrMaxDepth, "limit %d reached at offset 0x%x", d.opts.MaxDepth, d.c.Pos())
	}
	start := d.c.Pos()

	endOffset, err := d.readHeaderField()
	if err != nil {
		return nil, errors.Wrapf(err, "node header at 0x%x", start)
	}
	propertyCount, err := d.readHeaderField()
	if err != nil {
		return nil, errors.Wrapf(err, "node header at 0x%x", start)
	}
	if _, err := d.readHeaderField(); err != nil {
		return nil, errors.Wrapf(err, "node header at 0x%x", start)
	}
	nameLen, err := d.c.ReadU8()
	if err != nil {
		return nil, errors.Wrapf(err, "node name at 0x%x", start)
	}
	name, err := d.c.ReadString(int(nameLen), d.opts.Encoding)
	if err != nil {
		return nil, errors.Wrapf(err, "node name at 0x%x", start)
	}

	if endOffset == 0 {
		return nil, nil
	}
	if endOffset > uint64(d.c.Len()) {
		return nil, errors.Wrapf(utils.ErrOutOfBounds, "node %q ends at 0x%x past buffer end 0x%x", name, endOffset, d.c.Len())
	}

	// every property takes at least its tag byte
	if propertyCount > uint64(d.c.Remaining()) {
		return nil, errors.Wrapf(utils.ErrOutOfBounds, "node %q declares %d properties", name, propertyCount)
	}
	node := newRawNode()
	node.Properties = make([]Property, 0, propertyCount)
	for i := uint64(0); i < propertyCount; i++ {
		p, err := readProperty(d.c, d.opts.Encoding)
		if err != nil {
			return nil, errors.Wrapf(err, "node %q", name)
		}
		node.Properties = append(node.Properties, p)
	}
	// decided before children are read, a node with children is never collapsed
	node.SingleValued = propertyCount == 1 && uint64(d.c.Pos()) == endOffset

	for uint64(d.c.Pos()) < endOffset {
		child, err := d.readNode(depth + 1)
		if err != nil {
			return nil, err
		}
		if child != nil {
			merge(name, node, child)
		}
	}

	node.Name = name
	if len(node.Properties) > 0 && node.Properties[0].IsNumeric() {
		node.ID, _ = node.Properties[0].Int64()
		node.HasID = true
	}
	if len(node.Properties) > 1 {
		node.AttrName, node.HasAttrName = node.Properties[1].Text()
	}
	if len(node.Properties) > 2 {
		node.AttrType, node.HasAttrType = node.Properties[2].Text()
	}

	return node, nil
}

func (doc *Document) Node(name string) *RawNode {
	if doc == nil {
		return nil
	}
	return doc.Nodes[name]
}

// Objects returns the id-keyed objects of one kind (Model, Geometry, ...).
func (doc *Document) Objects(kind string) map[int64]*RawNode {
	a := doc.Node("Objects").Attr(kind)
	if a == nil {
		return nil
	}
	switch a.Kind {
	case IDMapAttr:
		return a.IDMap
	case NodeAttr:
		if a.Node.HasID {
			return map[int64]*RawNode{a.Node.ID: a.Node}
		}
	}
	return nil
}

// Object finds an object of any kind by id.
func (doc *Document) Object(id int64) (*RawNode, bool) {
	objects := doc.Node("Objects")
	for _, kind := range objects.Keys() {
		if n, ok := doc.Objects(kind)[id]; ok {
			return n, true
		}
	}
	return nil, false
}

func (doc *Document) HasObjects(kind string) bool {
	return doc.Node("Objects").Attr(kind) != nil
}

func (doc *Document) Connections() []Connection {
	a := doc.Node("Connections").Attr(connectionsKey)
	if a == nil || a.Kind != ConnectionsAttr {
		return nil
	}
	return a.Connections
}
