package fbx

import (
	"fmt"
	"strconv"
)

// arrays longer than this are summarized in views
const viewArrayLimit = 16

// NodeView is a plain data copy of a RawNode for json and yaml dumps.
type NodeView struct {
	Name       string                 `json:"name,omitempty" yaml:"name,omitempty"`
	ID         *int64                 `json:"id,omitempty" yaml:"id,omitempty"`
	AttrName   string                 `json:"attrName,omitempty" yaml:"attrName,omitempty"`
	AttrType   string                 `json:"attrType,omitempty" yaml:"attrType,omitempty"`
	Properties []interface{}          `json:"properties,omitempty" yaml:"properties,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

type TypedView struct {
	Type  string        `json:"type" yaml:"type"`
	Type2 string        `json:"type2,omitempty" yaml:"type2,omitempty"`
	Flag  string        `json:"flag,omitempty" yaml:"flag,omitempty"`
	Value []interface{} `json:"value,omitempty" yaml:"value,omitempty"`
}

type ArrayView struct {
	Type   string        `json:"type" yaml:"type"`
	Length int           `json:"length" yaml:"length"`
	Head   []interface{} `json:"head" yaml:"head,flow"`
}

func propertyView(p Property) interface{} {
	if !p.IsArray() {
		if raw, ok := p.Value.([]byte); ok {
			return fmt.Sprintf("%x", raw)
		}
		return p.Value
	}
	var items []interface{}
	switch a := p.Value.(type) {
	case []bool:
		for _, v := range a {
			items = append(items, v)
		}
	case []int32:
		for _, v := range a {
			items = append(items, v)
		}
	case []int64:
		for _, v := range a {
			items = append(items, v)
		}
	case []float32:
		for _, v := range a {
			items = append(items, v)
		}
	case []float64:
		for _, v := range a {
			items = append(items, v)
		}
	}
	v := ArrayView{Type: p.Type.String(), Length: len(items), Head: items}
	if len(items) > viewArrayLimit {
		v.Head = items[:viewArrayLimit]
	}
	if v.Head == nil {
		v.Head = []interface{}{}
	}
	return v
}

func propertyViews(props []Property) []interface{} {
	if len(props) == 0 {
		return nil
	}
	r := make([]interface{}, len(props))
	for i, p := range props {
		r[i] = propertyView(p)
	}
	return r
}

func (n *RawNode) View() *NodeView {
	v := &NodeView{
		Name:       n.Name,
		AttrName:   n.AttrName,
		AttrType:   n.AttrType,
		Properties: propertyViews(n.Properties),
	}
	if n.HasID {
		id := n.ID
		v.ID = &id
	}
	if len(n.Attributes) != 0 {
		v.Attributes = make(map[string]interface{}, len(n.Attributes))
		for k, a := range n.Attributes {
			v.Attributes[k] = a.view()
		}
	}
	return v
}

func (a *Attribute) view() interface{} {
	switch a.Kind {
	case ScalarAttr:
		return propertyView(a.Scalar)
	case NodeAttr:
		return a.Node.View()
	case TypedAttr:
		return TypedView{Type: a.Typed.Type, Type2: a.Typed.Type2, Flag: a.Typed.Flag, Value: propertyViews(a.Typed.Value)}
	case IDMapAttr:
		m := make(map[string]*NodeView, len(a.IDMap))
		for id, n := range a.IDMap {
			m[strconv.FormatInt(id, 10)] = n.View()
		}
		return m
	case NodeListAttr:
		l := make([]*NodeView, len(a.Nodes))
		for i, n := range a.Nodes {
			l[i] = n.View()
		}
		return l
	case ConnectionsAttr:
		return a.Connections
	}
	return nil
}

// View converts the whole document keyed by top level node name.
func (doc *Document) View() map[string]*NodeView {
	r := make(map[string]*NodeView, len(doc.Nodes))
	for name, n := range doc.Nodes {
		r[name] = n.View()
	}
	return r
}
