package gltfutils

import (
	"io"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/fbxloader/fbx/cache"
	"github.com/mogaika/fbxloader/loader"
	"github.com/mogaika/fbxloader/scene"
	"github.com/mogaika/fbxloader/utils"
)

type Options struct {
	// Bake writes one mesh with every vertex already in scene space
	Bake bool
	// Normalize centers the scene and fits it into the [-1,1] cube
	Normalize bool
}

// GLTFCacher maps scene object ids to the gltf node indices created for them
type GLTFCacher struct {
	Doc   *gltf.Document
	nodes *cache.Cache
	names utils.RandomNameGenerator
}

func NewCacher() *GLTFCacher {
	return &GLTFCacher{
		Doc:   gltf.NewDocument(),
		nodes: cache.NewCache(),
	}
}

// NodeIndex returns the gltf node created for the object id
func (gc *GLTFCacher) NodeIndex(id int64) (uint32, bool) {
	if v := gc.nodes.Get(id); v != nil {
		return v.(uint32), true
	}
	return 0, false
}

func (gc *GLTFCacher) addNode(id int64, node *gltf.Node) uint32 {
	gc.Doc.Nodes = append(gc.Doc.Nodes, node)
	index := uint32(len(gc.Doc.Nodes) - 1)
	gc.nodes.Add(id, index)
	return index
}

func (gc *GLTFCacher) addMesh(name string, vertices []mgl64.Vec3, faces [][3]int) (uint32, bool) {
	if len(vertices) == 0 || len(faces) == 0 {
		return 0, false
	}
	doc := gc.Doc

	positions := make([][3]float32, len(vertices))
	for i, v := range vertices {
		positions[i] = [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
	}
	indices := make([]uint32, 0, len(faces)*3)
	for _, f := range faces {
		indices = append(indices, uint32(f[0]), uint32(f[1]), uint32(f[2]))
	}

	positionAccessor := modeler.WritePosition(doc, positions)
	indicesAccessor := modeler.WriteIndices(doc, indices)

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: name,
		Primitives: []*gltf.Primitive{
			&gltf.Primitive{
				Indices:    &indicesAccessor,
				Attributes: map[string]uint32{"POSITION": positionAccessor},
			},
		},
	})
	return uint32(len(doc.Meshes) - 1), true
}

func (gc *GLTFCacher) exportNode(n *scene.Node) uint32 {
	node := &gltf.Node{
		Name:   gc.names.Name(n.Name),
		Matrix: utils.Mat4ToFloat32(n.Local),
	}
	if n.Mesh != nil {
		if mesh, ok := gc.addMesh(node.Name, n.Mesh.Vertices, n.Mesh.Faces); ok {
			node.Mesh = gltf.Index(mesh)
		}
	}
	index := gc.addNode(n.ID, node)
	for _, child := range n.Children() {
		node.Children = append(node.Children, gc.exportNode(child))
	}
	return index
}

// Normalization returns the matrix that moves the center of the bounding box
// of vertices to the origin and scales its largest half extent to 1.
func Normalization(vertices []mgl64.Vec3) mgl64.Mat4 {
	if len(vertices) == 0 {
		return mgl64.Ident4()
	}
	min := [3]float32{math32.Inf(1), math32.Inf(1), math32.Inf(1)}
	max := [3]float32{math32.Inf(-1), math32.Inf(-1), math32.Inf(-1)}
	for _, v := range vertices {
		for i := range min {
			min[i] = math32.Min(min[i], float32(v[i]))
			max[i] = math32.Max(max[i], float32(v[i]))
		}
	}
	var center [3]float32
	var extent float32
	for i := range center {
		center[i] = (min[i] + max[i]) / 2
		extent = math32.Max(extent, math32.Abs(max[i]-min[i])/2)
	}
	scale := 1.0
	if extent > 0 {
		scale = float64(1 / extent)
	}
	return mgl64.Scale3D(scale, scale, scale).Mul4(
		mgl64.Translate3D(-float64(center[0]), -float64(center[1]), -float64(center[2])))
}

func ExportScene(s *loader.Scene, opts Options) (*gltf.Document, error) {
	if s == nil || s.Root == nil {
		return nil, errors.Errorf("Nothing to export")
	}
	gc := NewCacher()
	doc := gc.Doc
	vertices, faces := s.Flatten()

	var norm mgl64.Mat4
	if opts.Normalize {
		norm = Normalization(vertices)
	} else {
		norm = mgl64.Ident4()
	}

	if opts.Bake {
		for i, v := range vertices {
			vertices[i] = utils.TransformPoint(norm, v)
		}
		node := &gltf.Node{Name: gc.names.Name(s.Root.Name)}
		if mesh, ok := gc.addMesh(node.Name, vertices, faces); ok {
			node.Mesh = gltf.Index(mesh)
		}
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, gc.addNode(s.Root.ID, node))
		return doc, nil
	}

	root := &gltf.Node{
		Name:   gc.names.Name(s.Root.Name),
		Matrix: utils.Mat4ToFloat32(norm.Mul4(s.Root.Local)),
	}
	rootIndex := gc.addNode(s.Root.ID, root)
	for _, child := range s.Root.Children() {
		root.Children = append(root.Children, gc.exportNode(child))
	}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, rootIndex)
	return doc, nil
}

// Write encodes doc as .glb when binary is set, otherwise as .gltf json
// with buffers embedded as data uris.
func Write(w io.Writer, doc *gltf.Document, binary bool) error {
	if !binary {
		for _, b := range doc.Buffers {
			if b.URI == "" {
				b.EmbeddedResource()
			}
		}
	}
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = binary
	if err := encoder.Encode(doc); err != nil {
		return errors.Wrapf(err, "Failed to encode gltf")
	}
	return nil
}
