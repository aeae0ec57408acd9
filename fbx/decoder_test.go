package fbx

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"

	"github.com/mogaika/fbxloader/fbx/fbxtest"
	"github.com/mogaika/fbxloader/utils"
)

func mustParse(t *testing.T, data []byte) *Document {
	t.Helper()
	doc, err := Parse(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return doc
}

func TestParseHeader(t *testing.T) {
	valid := fbxtest.Encode(7400, fbxtest.N("Empty"))

	badSig := append([]byte(nil), valid...)
	badSig[0] = 'k'
	if _, err := Parse(badSig, DefaultOptions()); errors.Cause(err) != ErrInvalidSignature {
		t.Errorf("bad signature: %v; expected %v", err, ErrInvalidSignature)
	}

	if _, err := Parse([]byte("Kaydara"), DefaultOptions()); errors.Cause(err) != ErrInvalidSignature {
		t.Errorf("short signature: %v; expected %v", err, ErrInvalidSignature)
	}

	old := fbxtest.Encode(6100, fbxtest.N("Empty"))
	if _, err := Parse(old, DefaultOptions()); errors.Cause(err) != ErrUnsupportedVersion {
		t.Errorf("version 6100: %v; expected %v", err, ErrUnsupportedVersion)
	}

	doc := mustParse(t, valid)
	if doc.Version != 7400 {
		t.Errorf("Version=%d; expected 7400", doc.Version)
	}
}

func TestParseEmptyNode(t *testing.T) {
	for _, version := range []uint32{6400, 7400, 7500, 7700} {
		doc := mustParse(t, fbxtest.Encode(version, fbxtest.N("Empty")))
		if len(doc.Nodes) != 1 {
			t.Fatalf("v%d: %d top nodes; expected 1", version, len(doc.Nodes))
		}
		n := doc.Node("Empty")
		if n == nil {
			t.Fatalf("v%d: missing node Empty", version)
		}
		if n.HasID || len(n.Properties) != 0 || len(n.Attributes) != 0 || n.SingleValued {
			t.Errorf("v%d: unexpected node %+v", version, n)
		}
	}
}

func TestParseNodeHeader(t *testing.T) {
	for _, version := range []uint32{7400, 7500} {
		doc := mustParse(t, fbxtest.Encode(version,
			fbxtest.N("Model", int64(42), "Cube\x00\x01Model", "Mesh").Add(fbxtest.N("Version", int32(232)))))
		m := doc.Node("Model")
		if !m.HasID || m.ID != 42 {
			t.Errorf("v%d: id=%d,%v; expected 42", version, m.ID, m.HasID)
		}
		if m.AttrName != "Cube\x00\x01Model" || m.AttrType != "Mesh" {
			t.Errorf("v%d: attrName=%q attrType=%q", version, m.AttrName, m.AttrType)
		}
		if m.DisplayName() != "Cube" {
			t.Errorf("v%d: DisplayName()=%q; expected Cube", version, m.DisplayName())
		}
		if p, ok := m.Scalar("Version"); !ok || p.Value != int32(232) {
			t.Errorf("v%d: Version=%v,%v; expected 232", version, p, ok)
		}
	}
}

func TestParseStringIDIsNotID(t *testing.T) {
	doc := mustParse(t, fbxtest.Encode(7400, fbxtest.N("Node", "name", "x").Add(fbxtest.N("Child"))))
	if doc.Node("Node").HasID {
		t.Errorf("string first property must not set id")
	}
}

func TestParseNullChildNotMerged(t *testing.T) {
	// a node with children ends with a null record which must not show up
	doc := mustParse(t, fbxtest.Encode(7400, fbxtest.N("Parent").Add(fbxtest.N("Child"))))
	p := doc.Node("Parent")
	if keys := p.Keys(); !reflect.DeepEqual(keys, []string{"Child"}) {
		t.Errorf("attributes %v; expected [Child]", keys)
	}
	if _, ok := p.Attributes[""]; ok {
		t.Errorf("null record merged as attribute")
	}
}

func TestParseSingleValued(t *testing.T) {
	doc := mustParse(t, fbxtest.Encode(7400, fbxtest.N("Geometry", int64(1), "g\x00\x01Geometry", "Mesh").Add(
		fbxtest.N("GeometryVersion", int32(124)),
		fbxtest.N("Vertices", []float64{0, 0, 0, 1, 0, 0, 0, 1, 0}),
		fbxtest.N("PolygonVertexIndex", fbxtest.Compressed{Value: []int32{0, 1, -3}}),
		fbxtest.N("Layer", int32(0)).Add(fbxtest.N("Version", int32(100))),
	)))
	g := doc.Node("Geometry")

	if p, ok := g.Scalar("GeometryVersion"); !ok || p.Value != int32(124) {
		t.Errorf("GeometryVersion=%v,%v; expected bare scalar 124", p, ok)
	}

	v := g.Child("Vertices")
	if v == nil {
		t.Fatalf("Vertices not stored as node")
	}
	if a, ok := v.Array(); !ok || !reflect.DeepEqual(a.Value, []float64{0, 0, 0, 1, 0, 0, 0, 1, 0}) {
		t.Errorf("Vertices array=%v,%v", a, ok)
	}

	pvi := g.Child("PolygonVertexIndex")
	if a, ok := pvi.Array(); !ok || !reflect.DeepEqual(a.Value, []int32{0, 1, -3}) {
		t.Errorf("PolygonVertexIndex array=%v,%v", a, ok)
	}

	// one property but with children: kept as an id keyed node
	layer := g.Attr("Layer")
	if layer == nil || layer.Kind != IDMapAttr || layer.IDMap[0] == nil {
		t.Fatalf("Layer=%+v; expected id map with key 0", layer)
	}
	if p, ok := layer.IDMap[0].Scalar("Version"); !ok || p.Value != int32(100) {
		t.Errorf("Layer.Version=%v,%v", p, ok)
	}
}

func TestParseProperties70(t *testing.T) {
	doc := mustParse(t, fbxtest.Encode(7400, fbxtest.N("Objects").Add(
		fbxtest.N("Model", int64(100), "m\x00\x01Model", "Mesh").Add(
			fbxtest.N("Version", int32(232)),
			fbxtest.N("Properties70").Add(
				fbxtest.P("Lcl Translation", "Lcl Translation", "", "A", 1.0, 2.0, 3.0),
				fbxtest.P("RotationOrder", "enum", "", "", int32(4)),
				fbxtest.P("DiffuseColor", "ColorRGB", "Color", "", 0.5, 0.5, 0.5),
				fbxtest.P("Compound", "Compound", "", ""),
				fbxtest.P("Short", "Vector3D", "Vector", "", 1.0),
			),
		),
	)))
	m := doc.Objects("Model")[100]
	if m == nil {
		t.Fatalf("Model 100 missing")
	}
	if m.Attr("Properties70") != nil {
		t.Errorf("Properties70 must be spliced into the parent")
	}

	tr := m.Typed("Lcl_Translation")
	if tr == nil {
		t.Fatalf("Lcl_Translation missing, keys %v", m.Keys())
	}
	if tr.Type != "Lcl_Translation" || tr.Flag != "A" {
		t.Errorf("Lcl_Translation=%+v", tr)
	}
	if v, ok := tr.Vec3(); !ok || v[0] != 1 || v[1] != 2 || v[2] != 3 {
		t.Errorf("Lcl_Translation value=%v,%v", v, ok)
	}

	if ro, ok := m.Typed("RotationOrder").Int64(); !ok || ro != 4 {
		t.Errorf("RotationOrder=%v,%v", ro, ok)
	}
	if dc := m.Typed("DiffuseColor"); dc == nil || len(dc.Value) != 3 || dc.Type2 != "Color" {
		t.Errorf("DiffuseColor=%+v", dc)
	}
	if c := m.Typed("Compound"); c == nil || c.Value != nil {
		t.Errorf("Compound=%+v; expected absent value", c)
	}
	if s := m.Typed("Short"); s == nil || len(s.Value) != 1 {
		t.Errorf("Short=%+v; expected the one available component", s)
	}
}

func TestParseIDCollisions(t *testing.T) {
	doc := mustParse(t, fbxtest.Encode(7400,
		fbxtest.N("Objects").Add(
			fbxtest.N("Model", int64(1), "a", "Null").Add(fbxtest.N("Version", int32(1))),
			fbxtest.N("Model", int64(2), "b", "Null").Add(fbxtest.N("Version", int32(2))),
			fbxtest.N("Model", int64(1), "dup", "Null").Add(fbxtest.N("Version", int32(3))),
			fbxtest.N("Texture", int64(5), "t", "").Add(fbxtest.N("Type", "TextureVideoClip")),
		),
		fbxtest.N("Pose", int64(9), "p", "BindPose").Add(
			fbxtest.N("PoseNode").Add(fbxtest.N("Node", int64(1))),
			fbxtest.N("PoseNode").Add(fbxtest.N("Node", int64(2))),
			fbxtest.N("PoseNode").Add(fbxtest.N("Node", int64(3))),
		),
	))

	models := doc.Objects("Model")
	if len(models) != 2 {
		t.Fatalf("%d models; expected 2", len(models))
	}
	if models[1].AttrName != "a" {
		t.Errorf("Model 1 replaced by duplicate: %q", models[1].AttrName)
	}
	if !doc.HasObjects("Texture") || doc.HasObjects("Video") {
		t.Errorf("HasObjects Texture=%v Video=%v", doc.HasObjects("Texture"), doc.HasObjects("Video"))
	}

	pn := doc.Node("Pose").Attr("PoseNode")
	if pn == nil || pn.Kind != NodeListAttr || len(pn.Nodes) != 3 {
		t.Fatalf("PoseNode=%+v; expected list of 3", pn)
	}
	for i, n := range pn.Nodes {
		if p, _ := n.Scalar("Node"); p.Value != int64(i+1) {
			t.Errorf("PoseNode[%d].Node=%v; expected %d", i, p.Value, i+1)
		}
	}
}

func TestParseConnections(t *testing.T) {
	doc := mustParse(t, fbxtest.Encode(7400, fbxtest.N("Connections").Add(
		fbxtest.N("C", "OO", int64(10), int64(0)),
		fbxtest.N("C", "OP", int64(20), int64(10), "DiffuseColor"),
		fbxtest.N("C", "OO", "bad"),
	)))
	conns := doc.Connections()
	want := []Connection{
		{Type: "OO", From: 10, To: 0},
		{Type: "OP", From: 20, To: 10, Relationship: "DiffuseColor", HasRelationship: true},
	}
	if !reflect.DeepEqual(conns, want) {
		t.Errorf("Connections()=%+v; expected %+v", conns, want)
	}
}

func TestParseTopLevelLastWins(t *testing.T) {
	doc := mustParse(t, fbxtest.Encode(7400, fbxtest.N("Dup", int64(1), "first").Add(fbxtest.N("X")), fbxtest.N("Dup", int64(2), "second").Add(fbxtest.N("X"))))
	if got := doc.Node("Dup").AttrName; got != "second" {
		t.Errorf("Dup=%q; expected second", got)
	}
}

func TestParseMaxDepth(t *testing.T) {
	root := fbxtest.N("L0")
	cur := root
	for i := 1; i < 10; i++ {
		next := fbxtest.N("L")
		cur.Add(next)
		cur = next
	}
	data := fbxtest.Encode(7400, root)

	if _, err := Parse(data, Options{MaxDepth: 5}); errors.Cause(err) != ErrMaxDepth {
		t.Errorf("depth 10 with limit 5: %v; expected %v", err, ErrMaxDepth)
	}
	if _, err := Parse(data, Options{MaxDepth: 10}); err != nil {
		t.Errorf("depth 10 with limit 10: %v", err)
	}
}

func TestParseTruncated(t *testing.T) {
	data := fbxtest.Encode(7400, fbxtest.N("Objects").Add(
		fbxtest.N("Geometry", int64(1), "g", "Mesh").Add(fbxtest.N("Vertices", make([]float64, 300)))))
	if _, err := Parse(data[:len(data)/2], DefaultOptions()); errors.Cause(err) != utils.ErrOutOfBounds {
		t.Errorf("truncated buffer: %v; expected %v", err, utils.ErrOutOfBounds)
	}
}

func TestDocumentObject(t *testing.T) {
	doc := mustParse(t, fbxtest.Encode(7400,
		fbxtest.N("Objects").Add(
			fbxtest.N("Model", int64(1), "m\x00\x01Model", "Null"),
			fbxtest.N("Material", int64(2), "mat\x00\x01Material", ""),
		),
	))
	if n, ok := doc.Object(2); !ok || n.Name != "Material" || n.DisplayName() != "mat" {
		t.Errorf("Object(2)=%+v, %v", n, ok)
	}
	if _, ok := doc.Object(3); ok {
		t.Errorf("Object(3) found")
	}
	if _, ok := (&Document{}).Object(1); ok {
		t.Errorf("Object on empty document found")
	}

	view := doc.View()
	if v := view["Objects"]; v == nil || v.Attributes["Model"] == nil {
		t.Errorf("View()=%+v", view)
	}
}
