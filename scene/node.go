// Package scene holds the transform hierarchy produced by the loader.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/fbxloader/utils"
)

// RootID is the id FBX reserves for the scene root.
const RootID int64 = 0

type Kind int

const (
	Generic Kind = iota
	MeshKind
	RootKind
)

func (k Kind) String() string {
	switch k {
	case Generic:
		return "generic"
	case MeshKind:
		return "mesh"
	case RootKind:
		return "root"
	}
	return "unknown"
}

type Mesh struct {
	Vertices []mgl64.Vec3
	Faces    [][3]int
}

// Node owns its children. The parent link is a lookup only back reference.
type Node struct {
	ID    int64
	Name  string
	Local mgl64.Mat4
	World mgl64.Mat4
	Mesh  *Mesh

	root     bool
	parent   *Node
	children []*Node
}

func NewRoot() *Node {
	return &Node{ID: RootID, Name: "Scene", Local: mgl64.Ident4(), World: mgl64.Ident4(), root: true}
}

func NewNode(id int64) *Node {
	return &Node{ID: id, Local: mgl64.Ident4(), World: mgl64.Ident4()}
}

func NewMesh(id int64, vertices []mgl64.Vec3, faces [][3]int) *Node {
	n := NewNode(id)
	n.Mesh = &Mesh{Vertices: vertices, Faces: faces}
	return n
}

func (n *Node) Kind() Kind {
	switch {
	case n.root:
		return RootKind
	case n.Mesh != nil:
		return MeshKind
	}
	return Generic
}

func (n *Node) Parent() *Node     { return n.parent }
func (n *Node) Children() []*Node { return n.children }

// Add detaches child from its previous parent and appends it to n.
// Adding a node to itself or to one of its descendants is ignored.
func (n *Node) Add(child *Node) {
	if child == nil || child == n || child.isAncestorOf(n) {
		return
	}
	child.RemoveFromParent()
	child.parent = n
	n.children = append(n.children, child)
}

func (n *Node) isAncestorOf(other *Node) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

func (n *Node) RemoveFromParent() {
	if n.parent != nil {
		n.parent.Remove(n)
	}
}

// Find returns the first node with the given id in pre-order.
func (n *Node) Find(id int64) *Node {
	var found *Node
	n.walk(func(c *Node) bool {
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found
}

// Traverse calls visit for n and every descendant, parents before children.
func (n *Node) Traverse(visit func(*Node)) {
	n.walk(func(c *Node) bool {
		visit(c)
		return true
	})
}

func (n *Node) walk(visit func(*Node) bool) bool {
	if !visit(n) {
		return false
	}
	for _, c := range n.children {
		if !c.walk(visit) {
			return false
		}
	}
	return true
}

// UpdateWorld recomputes world matrices of n and its subtree.
func (n *Node) UpdateWorld() {
	if n.parent != nil {
		n.World = n.parent.World.Mul4(n.Local)
	} else {
		n.World = n.Local
	}
	for _, c := range n.children {
		c.UpdateWorld()
	}
}

// ApplyMatrix premultiplies the local matrix and refreshes the subtree.
func (n *Node) ApplyMatrix(m mgl64.Mat4) {
	n.Local = m.Mul4(n.Local)
	n.UpdateWorld()
}

// WorldVertices returns mesh vertices moved into scene space.
func (n *Node) WorldVertices() []mgl64.Vec3 {
	if n.Mesh == nil {
		return nil
	}
	r := make([]mgl64.Vec3, len(n.Mesh.Vertices))
	for i, v := range n.Mesh.Vertices {
		r[i] = utils.TransformPoint(n.World, v)
	}
	return r
}

func (n *Node) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}
