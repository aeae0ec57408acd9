package fbx

import (
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// ArrayKey is the attribute name under which a single-valued array child
// exposes its data.
const ArrayKey = "a"

type RawNode struct {
	Name     string
	ID       int64
	HasID    bool
	AttrName string
	AttrType string

	HasAttrName bool
	HasAttrType bool

	Properties   []Property
	Attributes   map[string]*Attribute
	SingleValued bool
}

func newRawNode() *RawNode {
	return &RawNode{Attributes: make(map[string]*Attribute)}
}

// DisplayName strips the "\x00\x01Class" suffix FBX 7 appends to object names.
func (n *RawNode) DisplayName() string {
	if i := strings.Index(n.AttrName, "\x00\x01"); i >= 0 {
		return n.AttrName[:i]
	}
	return n.AttrName
}

func (n *RawNode) Attr(name string) *Attribute {
	if n == nil {
		return nil
	}
	return n.Attributes[name]
}

// Keys returns attribute names in sorted order.
func (n *RawNode) Keys() []string {
	if n == nil {
		return nil
	}
	keys := make([]string, 0, len(n.Attributes))
	for k := range n.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Array returns the array payload of a collapsed single-valued child.
func (n *RawNode) Array() (Property, bool) {
	a := n.Attr(ArrayKey)
	if a == nil || a.Kind != ScalarAttr || !a.Scalar.IsArray() {
		return Property{}, false
	}
	return a.Scalar, true
}

// Child returns the node stored under name, if the attribute holds one node.
func (n *RawNode) Child(name string) *RawNode {
	a := n.Attr(name)
	if a == nil || a.Kind != NodeAttr {
		return nil
	}
	return a.Node
}

// Typed returns the Properties70 record stored under name.
func (n *RawNode) Typed(name string) *TypedProperty {
	a := n.Attr(name)
	if a == nil || a.Kind != TypedAttr {
		return nil
	}
	return a.Typed
}

// Scalar returns a collapsed scalar attribute.
func (n *RawNode) Scalar(name string) (Property, bool) {
	a := n.Attr(name)
	if a == nil || a.Kind != ScalarAttr {
		return Property{}, false
	}
	return a.Scalar, true
}

type AttributeKind int

const (
	ScalarAttr AttributeKind = iota
	NodeAttr
	TypedAttr
	IDMapAttr
	NodeListAttr
	ConnectionsAttr
)

var attributeKindNames = [...]string{"scalar", "node", "typed", "idmap", "nodelist", "connections"}

func (k AttributeKind) String() string {
	if int(k) < len(attributeKindNames) {
		return attributeKindNames[k]
	}
	return "unknown"
}

// Attribute is one merged entry of a node. Only the field matching Kind is set.
type Attribute struct {
	Kind        AttributeKind
	Scalar      Property
	Node        *RawNode
	Typed       *TypedProperty
	IDMap       map[int64]*RawNode
	Nodes       []*RawNode
	Connections []Connection
}

// IDs returns the keys of an id map in ascending order.
func (a *Attribute) IDs() []int64 {
	ids := make([]int64, 0, len(a.IDMap))
	for id := range a.IDMap {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// TypedProperty is a Properties70 "P" record.
type TypedProperty struct {
	Type  string
	Type2 string
	Flag  string
	Value []Property
}

func (tp *TypedProperty) Vec3() (mgl64.Vec3, bool) {
	var v mgl64.Vec3
	if tp == nil || len(tp.Value) == 0 {
		return v, false
	}
	for i := 0; i < 3 && i < len(tp.Value); i++ {
		f, ok := tp.Value[i].Float64()
		if !ok {
			return v, false
		}
		v[i] = f
	}
	return v, true
}

func (tp *TypedProperty) Int64() (int64, bool) {
	if tp == nil || len(tp.Value) == 0 {
		return 0, false
	}
	return tp.Value[0].Int64()
}
