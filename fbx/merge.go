package fbx

import (
	"log"
	"strings"
)

const (
	connectionsKey = "connections"

	nodeConnections  = "Connections"
	nodeC            = "C"
	nodeProperties70 = "Properties70"
	nodeP            = "P"
	nodePoseNode     = "PoseNode"
)

func isVec3Type(t string) bool {
	switch t {
	case "Color", "ColorRGB", "Vector", "Vector3D":
		return true
	}
	return strings.HasPrefix(t, "Lcl_")
}

func normalizeLcl(s string) string {
	if strings.HasPrefix(s, "Lcl") {
		return strings.Replace(s, "Lcl ", "Lcl_", 1)
	}
	return s
}

// merge folds a decoded child into its parent. Rules are checked in order,
// the first one that matches wins.
func merge(parentName string, parent *RawNode, child *RawNode) {
	attrs := parent.Attributes

	switch {
	case child.SingleValued:
		value := child.Properties[0]
		if value.IsArray() {
			child.Attributes[ArrayKey] = &Attribute{Kind: ScalarAttr, Scalar: value}
			attrs[child.Name] = &Attribute{Kind: NodeAttr, Node: child}
		} else {
			attrs[child.Name] = &Attribute{Kind: ScalarAttr, Scalar: value}
		}

	case parentName == nodeConnections && child.Name == nodeC:
		conn, ok := connectionFromProperties(child.Properties)
		if !ok {
			log.Printf("[fbx] Skipping malformed connection %v", child.Properties)
			return
		}
		a := attrs[connectionsKey]
		if a == nil || a.Kind != ConnectionsAttr {
			a = &Attribute{Kind: ConnectionsAttr}
			attrs[connectionsKey] = a
		}
		a.Connections = append(a.Connections, conn)

	case child.Name == nodeProperties70:
		for k, v := range child.Attributes {
			attrs[k] = v
		}

	case parentName == nodeProperties70 && child.Name == nodeP:
		name, tp := typedFromProperties(child.Properties)
		attrs[name] = &Attribute{Kind: TypedAttr, Typed: tp}

	default:
		existing, exists := attrs[child.Name]
		if !exists {
			if child.HasID {
				attrs[child.Name] = &Attribute{Kind: IDMapAttr, IDMap: map[int64]*RawNode{child.ID: child}}
			} else {
				attrs[child.Name] = &Attribute{Kind: NodeAttr, Node: child}
			}
			return
		}

		if child.Name == nodePoseNode {
			switch existing.Kind {
			case NodeListAttr:
				existing.Nodes = append(existing.Nodes, child)
			case NodeAttr:
				attrs[child.Name] = &Attribute{Kind: NodeListAttr, Nodes: []*RawNode{existing.Node, child}}
			case IDMapAttr:
				list := make([]*RawNode, 0, len(existing.IDMap)+1)
				for _, id := range existing.IDs() {
					list = append(list, existing.IDMap[id])
				}
				attrs[child.Name] = &Attribute{Kind: NodeListAttr, Nodes: append(list, child)}
			}
			return
		}

		if child.HasID && existing.Kind == IDMapAttr {
			if _, taken := existing.IDMap[child.ID]; !taken {
				existing.IDMap[child.ID] = child
			}
		}
	}
}

func propertyText(props []Property, i int) string {
	if i >= len(props) {
		return ""
	}
	s, _ := props[i].Text()
	return s
}

// typedFromProperties reads a P record: name, type, type2, flag, value...
func typedFromProperties(props []Property) (string, *TypedProperty) {
	name := normalizeLcl(propertyText(props, 0))
	tp := &TypedProperty{
		Type:  normalizeLcl(propertyText(props, 1)),
		Type2: propertyText(props, 2),
		Flag:  propertyText(props, 3),
	}

	if len(props) > 4 {
		n := 1
		if isVec3Type(tp.Type) {
			n = 3
		}
		end := 4 + n
		if end > len(props) {
			end = len(props)
		}
		tp.Value = append([]Property(nil), props[4:end]...)
	}
	return name, tp
}
