// Package loader turns a decoded binary FBX document into a scene graph.
package loader

import (
	"io/ioutil"
	"log"
	"sort"

	"github.com/pkg/errors"

	"github.com/mogaika/fbxloader/fbx"
	"github.com/mogaika/fbxloader/scene"
	"github.com/mogaika/fbxloader/transform"
)

// Capabilities flags content the loader does not interpret.
type Capabilities struct {
	HasImages     bool `json:"hasImages"`
	HasTextures   bool `json:"hasTextures"`
	HasMaterials  bool `json:"hasMaterials"`
	HasDeformers  bool `json:"hasDeformers"`
	HasAnimations bool `json:"hasAnimations"`
}

func capabilitiesOf(doc *fbx.Document) Capabilities {
	return Capabilities{
		HasImages:     doc.HasObjects("Video"),
		HasTextures:   doc.HasObjects("Texture"),
		HasMaterials:  doc.HasObjects("Material"),
		HasDeformers:  doc.HasObjects("Deformer"),
		HasAnimations: doc.HasObjects("AnimationCurve"),
	}
}

type Scene struct {
	Root     *scene.Node
	Objects  map[int64]*scene.Node
	Flags    Capabilities
	Graph    fbx.Graph
	Document *fbx.Document
}

func LoadFile(path string, opts fbx.Options) (*Scene, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read %q", path)
	}
	s, err := Load(data, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to load %q", path)
	}
	return s, nil
}

func sortedIDs(m map[int64]*fbx.RawNode) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type builder struct {
	s      *Scene
	models map[int64]*fbx.RawNode
	specs  map[int64]transform.Spec
	path   map[int64]bool

	// ids whose subtree was already walked
	attached map[int64]bool
}

// Load decodes data and builds the scene with world matrices resolved.
func Load(data []byte, opts fbx.Options) (*Scene, error) {
	doc, err := fbx.Parse(data, opts)
	if err != nil {
		return nil, err
	}

	root := scene.NewRoot()
	s := &Scene{
		Root:     root,
		Objects:  map[int64]*scene.Node{scene.RootID: root},
		Flags:    capabilitiesOf(doc),
		Graph:    fbx.BuildGraph(doc.Connections()),
		Document: doc,
	}
	b := &builder{
		s:      s,
		models: doc.Objects("Model"),
		specs:  make(map[int64]transform.Spec),
		path:   make(map[int64]bool),

		attached: make(map[int64]bool),
	}

	geometries := doc.Objects("Geometry")
	for _, id := range sortedIDs(geometries) {
		model := b.parentModel(id)
		if model == nil {
			log.Printf("[loader] Geometry %d has no parent Model, skipped", id)
			continue
		}
		mesh, err := buildMesh(id, geometries[id], model)
		if err != nil {
			return nil, errors.Wrapf(err, "Geometry %d", id)
		}
		if mesh != nil {
			s.Objects[id] = mesh
		}
	}

	for _, id := range sortedIDs(b.models) {
		model := b.models[id]
		n := scene.NewNode(id)
		n.Name = model.DisplayName()
		s.Objects[id] = n
		b.specs[id] = modelSpec(model)
	}

	if err := b.attachChildren(root); err != nil {
		return nil, err
	}
	root.UpdateWorld()
	return s, nil
}

// parentModel returns the first Model among the parents of id.
func (b *builder) parentModel(id int64) *fbx.RawNode {
	for _, p := range b.s.Graph.Parents(id) {
		if m, ok := b.models[p.ID]; ok {
			return m
		}
	}
	return nil
}

// attachChildren walks the connection graph top-down. Model matrices are
// resolved here so the parent's local and world matrices are known.
// An object reached again through another parent is moved and re-resolved,
// but its subtree is walked only once.
func (b *builder) attachChildren(parent *scene.Node) error {
	b.path[parent.ID] = true
	defer delete(b.path, parent.ID)

	for _, link := range b.s.Graph.Children(parent.ID) {
		child, ok := b.s.Objects[link.ID]
		if !ok {
			continue
		}
		if b.path[link.ID] {
			log.Printf("[loader] Connection cycle through %d, edge %d -> %d ignored", link.ID, link.ID, parent.ID)
			continue
		}
		if spec, isModel := b.specs[link.ID]; isModel {
			parentLocal, parentWorld := parent.Local, parent.World
			spec.ParentLocal = &parentLocal
			spec.ParentWorld = &parentWorld
			local, err := transform.Resolve(spec)
			if err != nil {
				return errors.Wrapf(err, "Model %d", link.ID)
			}
			child.Local = local
		}
		if p := child.Parent(); p != nil && p != parent {
			log.Printf("[loader] Object %d has several parents, moved under %d", link.ID, parent.ID)
		}
		parent.Add(child)
		child.World = parent.World.Mul4(child.Local)

		if b.attached[link.ID] {
			continue
		}
		b.attached[link.ID] = true
		if err := b.attachChildren(child); err != nil {
			return err
		}
	}
	return nil
}
