package loader

import (
	"log"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/fbxloader/fbx"
	"github.com/mogaika/fbxloader/scene"
	"github.com/mogaika/fbxloader/transform"
	"github.com/mogaika/fbxloader/utils"
)

// Triangulate fans every polygon of a PolygonVertexIndex array.
// A negative entry (-(index)-1) closes the current polygon; a trailing
// unterminated polygon is dropped.
func Triangulate(indices []int64) [][3]int {
	faces := make([][3]int, 0, len(indices)/3)
	polygon := make([]int, 0, 4)
	for _, idx := range indices {
		if idx < 0 {
			polygon = append(polygon, int(-idx-1))
			for j := 1; j+1 < len(polygon); j++ {
				faces = append(faces, [3]int{polygon[0], polygon[j], polygon[j+1]})
			}
			polygon = polygon[:0]
		} else {
			polygon = append(polygon, int(idx))
		}
	}
	return faces
}

func vec3Attr(n *fbx.RawNode, name string) *mgl64.Vec3 {
	v, ok := n.Typed(name).Vec3()
	if !ok {
		return nil
	}
	return &v
}

func eulerOrderOf(n *fbx.RawNode) transform.EulerOrder {
	ro, ok := n.Typed("RotationOrder").Int64()
	if !ok {
		return transform.ZYX
	}
	order, valid := transform.EulerOrderFromIndex(ro)
	if !valid {
		log.Printf("[loader] Model %d has unknown RotationOrder %d, using %v", n.ID, ro, order)
	}
	return order
}

func inheritTypeOf(n *fbx.RawNode) transform.InheritType {
	it, _ := n.Typed("InheritType").Int64()
	return transform.InheritType(it)
}

// geometrySpec is the geometric transform a Model applies to its geometry only.
func geometrySpec(model *fbx.RawNode) transform.Spec {
	return transform.Spec{
		EulerOrder:  eulerOrderOf(model),
		InheritType: inheritTypeOf(model),
		Translation: vec3Attr(model, "GeometricTranslation"),
		Rotation:    vec3Attr(model, "GeometricRotation"),
		Scale:       vec3Attr(model, "GeometricScaling"),
	}
}

func modelSpec(model *fbx.RawNode) transform.Spec {
	return transform.Spec{
		EulerOrder:     eulerOrderOf(model),
		InheritType:    inheritTypeOf(model),
		Translation:    vec3Attr(model, "Lcl_Translation"),
		PreRotation:    vec3Attr(model, "PreRotation"),
		Rotation:       vec3Attr(model, "Lcl_Rotation"),
		PostRotation:   vec3Attr(model, "PostRotation"),
		Scale:          vec3Attr(model, "Lcl_Scaling"),
		ScalingOffset:  vec3Attr(model, "ScalingOffset"),
		ScalingPivot:   vec3Attr(model, "ScalingPivot"),
		RotationOffset: vec3Attr(model, "RotationOffset"),
		RotationPivot:  vec3Attr(model, "RotationPivot"),
	}
}

func arrayOf(n *fbx.RawNode, name string) (fbx.Property, bool) {
	child := n.Child(name)
	if child == nil {
		return fbx.Property{}, false
	}
	return child.Array()
}

// buildMesh returns nil when the geometry has to be skipped.
func buildMesh(id int64, geometry, model *fbx.RawNode) (*scene.Node, error) {
	vertexProp, okV := arrayOf(geometry, "Vertices")
	indexProp, okI := arrayOf(geometry, "PolygonVertexIndex")
	if !okV || !okI {
		log.Printf("[loader] Geometry %d lacks Vertices or PolygonVertexIndex, skipped", id)
		return nil, nil
	}
	positions, okV := vertexProp.Float64s()
	indices, okI := indexProp.Int64s()
	if !okV || !okI {
		log.Printf("[loader] Geometry %d has arrays of type %v/%v, skipped", id, vertexProp.Type, indexProp.Type)
		return nil, nil
	}

	pre, err := transform.Resolve(geometrySpec(model))
	if err != nil {
		return nil, err
	}

	vertices := make([]mgl64.Vec3, len(positions)/3)
	for i := range vertices {
		vertices[i] = utils.TransformPoint(pre, utils.Vec3FromFloats(positions[i*3:i*3+3]))
	}

	faces := Triangulate(indices)
	for _, f := range faces {
		for _, vi := range f {
			if vi >= len(vertices) {
				log.Printf("[loader] Geometry %d references vertex %d of %d, skipped", id, vi, len(vertices))
				return nil, nil
			}
		}
	}

	n := scene.NewMesh(id, vertices, faces)
	n.Name = geometry.DisplayName()
	return n, nil
}
