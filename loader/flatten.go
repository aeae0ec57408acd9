package loader

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/fbxloader/scene"
)

// Flatten merges all meshes into one vertex and face list in scene space,
// visiting parents before children.
func (s *Scene) Flatten() ([]mgl64.Vec3, [][3]int) {
	var vertices []mgl64.Vec3
	var faces [][3]int
	s.Root.Traverse(func(n *scene.Node) {
		if n.Mesh == nil {
			return
		}
		offset := len(vertices)
		vertices = append(vertices, n.WorldVertices()...)
		for _, f := range n.Mesh.Faces {
			faces = append(faces, [3]int{f[0] + offset, f[1] + offset, f[2] + offset})
		}
	})
	return vertices, faces
}

// Meshes returns mesh nodes reachable from the root in traversal order.
func (s *Scene) Meshes() []*scene.Node {
	var r []*scene.Node
	s.Root.Traverse(func(n *scene.Node) {
		if n.Mesh != nil {
			r = append(r, n)
		}
	})
	return r
}

type Stats struct {
	Version     uint32       `json:"version"`
	Objects     int          `json:"objects"`
	Models      int          `json:"models"`
	Meshes      int          `json:"meshes"`
	Vertices    int          `json:"vertices"`
	Faces       int          `json:"faces"`
	Connections int          `json:"connections"`
	TopLevel    []string     `json:"topLevel"`
	Flags       Capabilities `json:"flags"`
}

func (s *Scene) Stats() Stats {
	st := Stats{
		Version:     s.Document.Version,
		Objects:     len(s.Objects),
		Connections: len(s.Document.Connections()),
		Flags:       s.Flags,
	}
	for name := range s.Document.Nodes {
		st.TopLevel = append(st.TopLevel, name)
	}
	sort.Strings(st.TopLevel)
	for _, n := range s.Objects {
		switch n.Kind() {
		case scene.Generic:
			st.Models++
		case scene.MeshKind:
			st.Meshes++
			st.Vertices += len(n.Mesh.Vertices)
			st.Faces += len(n.Mesh.Faces)
		}
	}
	return st
}
