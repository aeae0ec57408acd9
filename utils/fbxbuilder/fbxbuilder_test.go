package fbxbuilder

import (
	"bytes"
	"io"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/klauspost/compress/zip"

	"github.com/mogaika/fbxloader/fbx"
	"github.com/mogaika/fbxloader/fbx/fbxtest"
	"github.com/mogaika/fbxloader/loader"
)

func TestAddSceneRoundTrip(t *testing.T) {
	N, P := fbxtest.N, fbxtest.P
	src, err := loader.Load(fbxtest.Encode(7400,
		N("Objects").Add(
			N("Model", int64(1), "Quad\x00\x01Model", "Mesh").Add(
				N("Properties70").Add(P("Lcl Translation", "Lcl Translation", "", "A", 0.0, 0.0, 10.0)),
			),
			N("Geometry", int64(2), "\x00\x01Geometry", "Mesh").Add(
				N("Vertices", []float64{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}),
				N("PolygonVertexIndex", []int32{0, 1, 2, -4}),
			),
		),
		N("Connections").Add(
			N("C", "OO", int64(1), int64(0)),
			N("C", "OO", int64(2), int64(1)),
		),
	), fbx.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	b := New("quad.fbx")
	if got := b.AddScene(src); got != 1 {
		t.Fatalf("AddScene exported %d meshes", got)
	}
	if got := b.AddScene(src); got != 0 {
		t.Errorf("second AddScene exported %d meshes; expected cached", got)
	}
	if b.GetCached(2) == nil {
		t.Errorf("mesh 2 not cached")
	}

	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		t.Fatal(err)
	}

	dst, err := loader.Load(buf.Bytes(), fbx.DefaultOptions())
	if err != nil {
		t.Fatalf("reloading exported file: %v", err)
	}
	if dst.Document.Version != 7400 {
		t.Errorf("exported version %d", dst.Document.Version)
	}
	srcVertices, srcFaces := src.Flatten()
	dstVertices, dstFaces := dst.Flatten()
	if len(dstVertices) != len(srcVertices) || len(dstFaces) != len(srcFaces) {
		t.Fatalf("got %d vertices %d faces; expected %d and %d",
			len(dstVertices), len(dstFaces), len(srcVertices), len(srcFaces))
	}
	for i := range srcVertices {
		if !dstVertices[i].ApproxEqual(srcVertices[i]) {
			t.Errorf("vertex %d=%v; expected %v", i, dstVertices[i], srcVertices[i])
		}
	}
	if !srcVertices[0].ApproxEqual(mgl64.Vec3{0, 0, 10}) {
		t.Errorf("source not in scene space: %v", srcVertices[0])
	}
	if meshes := dst.Meshes(); len(meshes) != 1 || meshes[0].Parent().Name != "Quad" {
		t.Errorf("reloaded meshes %v", meshes)
	}
}

func TestWriteZip(t *testing.T) {
	b := New("empty.fbx")
	b.Attach("b.txt", []byte("second"))
	b.Attach("a.txt", []byte("first"))

	var buf bytes.Buffer
	if err := b.WriteZip(&buf, "empty.fbx"); err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatal(err)
	}

	want := []struct {
		name    string
		content string
	}{
		{"empty.fbx", "Kaydara FBX Binary"},
		{"a.txt", "first"},
		{"b.txt", "second"},
	}
	if len(zr.File) != len(want) {
		t.Fatalf("zip has %d entries; expected %d", len(zr.File), len(want))
	}
	for i, w := range want {
		zf := zr.File[i]
		data := mustEntry(t, zf)
		if zf.Name != w.name || !bytes.HasPrefix(data, []byte(w.content)) {
			t.Errorf("entry %d: %q %q; expected %q starting with %q", i, zf.Name, data, w.name, w.content)
		}
	}

	doc, err := fbx.Parse(mustEntry(t, zr.File[0]), fbx.DefaultOptions())
	if err != nil {
		t.Fatalf("zipped fbx does not parse: %v", err)
	}
	if defs := doc.Node("Definitions"); defs == nil {
		t.Errorf("zipped fbx has no Definitions")
	}
}

func mustEntry(t *testing.T, zf *zip.File) []byte {
	t.Helper()
	rc, err := zf.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
