package web

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zip"

	"github.com/mogaika/fbxloader/config"
	"github.com/mogaika/fbxloader/fbx/fbxtest"
	"github.com/mogaika/fbxloader/loader"
)

func testFile() []byte {
	N, P := fbxtest.N, fbxtest.P
	return fbxtest.Encode(7400,
		N("Objects").Add(
			N("Model", int64(100), "Cube\x00\x01Model", "Mesh").Add(
				N("Properties70").Add(P("Lcl Translation", "Lcl Translation", "", "A", 1.0, 0.0, 0.0)),
			),
			N("Geometry", int64(200), "\x00\x01Geometry", "Mesh").Add(
				N("Vertices", []float64{0, 0, 0, 1, 0, 0, 0, 1, 0}),
				N("PolygonVertexIndex", []int32{0, 1, -3}),
			),
			N("Material", int64(300), "mat\x00\x01Material", ""),
		),
		N("Connections").Add(
			N("C", "OO", int64(100), int64(0)),
			N("C", "OO", int64(200), int64(100)),
			N("C", "OO", int64(300), int64(100)),
		),
	)
}

func get(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func upload(t *testing.T, h http.Handler, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("data", name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNoScene(t *testing.T) {
	h := NewServer(nil).Router()
	for _, url := range []string{"/json/scene", "/json/flags", "/json/object/1", "/dump/tree", "/export/gltf", "/export/fbx"} {
		if rec := get(t, h, url); rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "error") {
			t.Errorf("GET %s: %d %s", url, rec.Code, rec.Body.String())
		}
	}
}

func TestUploadAndQuery(t *testing.T) {
	s := NewServer(config.Default())
	h := s.Router()

	rec := upload(t, h, "cube.fbx", testFile())
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body.String())
	}
	var st loader.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.Models != 1 || st.Meshes != 1 || !st.Flags.HasMaterials {
		t.Errorf("upload stats %+v", st)
	}
	if _, name := s.Scene(); name != "cube.fbx" {
		t.Errorf("scene name %q", name)
	}
	if s.Hub().Last() == nil {
		t.Errorf("no status message sent")
	}

	var root NodeJson
	if err := json.Unmarshal(get(t, h, "/json/scene").Body.Bytes(), &root); err != nil {
		t.Fatal(err)
	}
	if root.Kind != "root" || len(root.Children) != 1 || root.Children[0].Name != "Cube" {
		t.Fatalf("scene %+v", root)
	}
	cube := root.Children[0]
	if cube.World[12] != 1 || len(cube.Children) != 1 || cube.Children[0].Faces != 1 {
		t.Errorf("cube %+v", cube)
	}

	var flags loader.Capabilities
	json.Unmarshal(get(t, h, "/json/flags").Body.Bytes(), &flags)
	if !flags.HasMaterials || flags.HasTextures {
		t.Errorf("flags %+v", flags)
	}

	rec = get(t, h, "/json/object/300")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"Material"`) {
		t.Errorf("object 300: %d %s", rec.Code, rec.Body.String())
	}
	if rec = get(t, h, "/json/object/12345"); rec.Code != http.StatusNotFound {
		t.Errorf("missing object: %d", rec.Code)
	}

	if rec = get(t, h, "/dump/tree?format=spew"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Cube") {
		t.Errorf("spew dump: %d", rec.Code)
	}
	if rec = get(t, h, "/dump/tree?format=ascii"); !strings.Contains(rec.Body.String(), "PolygonVertexIndex: *3 {") {
		t.Errorf("ascii dump: %s", rec.Body.String())
	}
	if rec = get(t, h, "/dump/tree?format=xml"); rec.Code != http.StatusBadRequest {
		t.Errorf("xml dump: %d", rec.Code)
	}

	rec = get(t, h, "/export/gltf")
	if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("glTF")) {
		t.Errorf("glb export: %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "cube.glb") {
		t.Errorf("glb export file name %q", cd)
	}
	if rec = get(t, h, "/export/gltf?binary=false&bake=true"); !strings.Contains(rec.Body.String(), `"asset"`) {
		t.Errorf("gltf export: %d", rec.Code)
	}

	rec = get(t, h, "/export/fbx")
	if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("Kaydara FBX Binary")) {
		t.Errorf("fbx export: %d", rec.Code)
	}

	rec = get(t, h, "/export/fbx?zip=1")
	if cd := rec.Header().Get("Content-Disposition"); rec.Code != http.StatusOK || !strings.Contains(cd, "cube.zip") {
		t.Fatalf("zip export: %d %q", rec.Code, cd)
	}
	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatal(err)
	}
	entries := make(map[string][]byte)
	for _, zf := range zr.File {
		rc, err := zf.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		entries[zf.Name] = data
	}
	if len(entries) != 2 || !bytes.HasPrefix(entries["cube.fbx"], []byte("Kaydara FBX Binary")) {
		t.Errorf("zip entries %d, fbx entry %d bytes", len(entries), len(entries["cube.fbx"]))
	}
	if !bytes.Contains(entries["cube.txt"], []byte("; FBX 7.4.0 project file")) {
		t.Errorf("zip has no ascii dump of the upload")
	}
}

func TestUploadInvalid(t *testing.T) {
	s := NewServer(nil)
	h := s.Router()
	if rec := upload(t, h, "bad.fbx", []byte("garbage")); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("garbage upload: %d %s", rec.Code, rec.Body.String())
	}
	if sc, _ := s.Scene(); sc != nil {
		t.Errorf("failed upload replaced the scene")
	}
	if rec := get(t, h, "/upload"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /upload: %d", rec.Code)
	}
}
