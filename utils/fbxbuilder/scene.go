package fbxbuilder

import (
	"bytes"
	"log"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"

	"github.com/mogaika/fbxloader/loader"
	"github.com/mogaika/fbxloader/scene"
	"github.com/mogaika/fbxloader/utils"
)

// MeshExported is what the builder remembers for every exported mesh node
type MeshExported struct {
	FbxModelId    int64
	FbxGeometryId int64
	FbxModel      *fbx.Node
}

func meshName(n *scene.Node) string {
	if n.Name != "" {
		return n.Name
	}
	if p := n.Parent(); p != nil && p.Kind() != scene.RootKind {
		return p.Name
	}
	return ""
}

func (f *FBXBuilder) exportMesh(n *scene.Node, names *utils.RandomNameGenerator) *MeshExported {
	vertices := make([]float64, 0, len(n.Mesh.Vertices)*3)
	for _, v := range n.WorldVertices() {
		vertices = append(vertices, v[0], v[1], v[2])
	}
	indexes := make([]int32, 0, len(n.Mesh.Faces)*3)
	for _, face := range n.Mesh.Faces {
		// last index of a polygon is stored as -(index+1)
		indexes = append(indexes, int32(face[0]), int32(face[1]), ^int32(face[2]))
	}

	name := names.Name(meshName(n))
	me := &MeshExported{
		FbxGeometryId: f.GenerateId(),
		FbxModelId:    f.GenerateId(),
	}

	geometry := bfbx73.Geometry(me.FbxGeometryId, "\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
		),
		bfbx73.GeometryVersion(124),
		bfbx73.Vertices(vertices),
		bfbx73.PolygonVertexIndex(indexes),
		bfbx73.Layer(0).AddNodes(
			bfbx73.Version(100),
		),
	)

	me.FbxModel = bfbx73.Model(me.FbxModelId, name+"\x00\x01Model", "Mesh").AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("InheritType", "enum", "", "", int32(1)),
			bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
		),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)

	f.AddObjects(me.FbxModel, geometry)
	f.AddConnections(
		bfbx73.C("OO", me.FbxGeometryId, me.FbxModelId),
		bfbx73.C("OO", me.FbxModelId, 0),
	)
	return me
}

// AddScene adds every mesh of s as a separate model with vertices baked into
// scene space, so the hierarchy transforms are not needed to display it.
func (f *FBXBuilder) AddScene(s *loader.Scene) int {
	var names utils.RandomNameGenerator
	exported := 0
	for _, n := range s.Meshes() {
		if len(n.Mesh.Faces) == 0 {
			log.Printf("[fbx] Skipping mesh %d without faces", n.ID)
			continue
		}
		f.GetCachedOr(n.ID, func() interface{} {
			exported++
			return f.exportMesh(n, &names)
		})
	}
	return exported
}

// AttachSourceDump attaches the ascii dump of the document s was loaded from.
func (f *FBXBuilder) AttachSourceDump(s *loader.Scene, name string) error {
	var buf bytes.Buffer
	if err := s.Document.Export(&buf); err != nil {
		return errors.Wrapf(err, "Failed to dump source document")
	}
	f.Attach(name, buf.Bytes())
	return nil
}
