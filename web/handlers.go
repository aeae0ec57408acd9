package web

import (
	"bytes"
	"log"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/fbxloader/fbx"
	"github.com/mogaika/fbxloader/loader"
	"github.com/mogaika/fbxloader/scene"
	"github.com/mogaika/fbxloader/utils"
	"github.com/mogaika/fbxloader/utils/fbxbuilder"
	"github.com/mogaika/fbxloader/utils/gltfutils"
	"github.com/mogaika/fbxloader/webutils"
)

var errNoScene = errors.New("No scene loaded")

type NodeJson struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	Kind     string      `json:"kind"`
	Local    mgl64.Mat4  `json:"local"`
	World    mgl64.Mat4  `json:"world"`
	Vertices int         `json:"vertices,omitempty"`
	Faces    int         `json:"faces,omitempty"`
	Children []*NodeJson `json:"children,omitempty"`
}

func nodeJson(n *scene.Node, recursive bool) *NodeJson {
	nj := &NodeJson{
		ID:    n.ID,
		Name:  n.Name,
		Kind:  n.Kind().String(),
		Local: n.Local,
		World: n.World,
	}
	if n.Mesh != nil {
		nj.Vertices = len(n.Mesh.Vertices)
		nj.Faces = len(n.Mesh.Faces)
	}
	if recursive {
		for _, c := range n.Children() {
			nj.Children = append(nj.Children, nodeJson(c, true))
		}
	}
	return nj
}

func (s *Server) sceneOrError(w http.ResponseWriter) *loader.Scene {
	sc, _ := s.Scene()
	if sc == nil {
		webutils.WriteErrorStatus(w, http.StatusNotFound, errNoScene)
	}
	return sc
}

func (s *Server) HandlerJsonScene(w http.ResponseWriter, r *http.Request) {
	if sc := s.sceneOrError(w); sc != nil {
		webutils.WriteJson(w, nodeJson(sc.Root, true))
	}
}

func (s *Server) HandlerJsonStats(w http.ResponseWriter, r *http.Request) {
	if sc := s.sceneOrError(w); sc != nil {
		webutils.WriteJson(w, sc.Stats())
	}
}

func (s *Server) HandlerJsonFlags(w http.ResponseWriter, r *http.Request) {
	if sc := s.sceneOrError(w); sc != nil {
		webutils.WriteJson(w, sc.Flags)
	}
}

type ObjectJson struct {
	Node    *NodeJson     `json:"node,omitempty"`
	Raw     *fbx.NodeView `json:"raw,omitempty"`
	Parents []fbx.Link    `json:"parents"`
	Childs  []fbx.Link    `json:"children"`
}

func (s *Server) HandlerJsonObject(w http.ResponseWriter, r *http.Request) {
	sc := s.sceneOrError(w)
	if sc == nil {
		return
	}
	param := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		webutils.WriteErrorStatus(w, http.StatusBadRequest, errors.Errorf("param '%s' is not integer", param))
		return
	}

	var oj ObjectJson
	if n, ok := sc.Objects[id]; ok {
		oj.Node = nodeJson(n, false)
	}
	if raw, ok := sc.Document.Object(id); ok {
		oj.Raw = raw.View()
	}
	if oj.Node == nil && oj.Raw == nil {
		webutils.WriteErrorStatus(w, http.StatusNotFound, errors.Errorf("Object %d not found", id))
		return
	}
	oj.Parents = sc.Graph.Parents(id)
	oj.Childs = sc.Graph.Children(id)
	webutils.WriteJson(w, &oj)
}

func (s *Server) HandlerDumpTree(w http.ResponseWriter, r *http.Request) {
	sc := s.sceneOrError(w)
	if sc == nil {
		return
	}
	switch r.URL.Query().Get("format") {
	case "", "json":
		webutils.WriteJson(w, sc.Document.View())
	case "ascii":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := sc.Document.Export(w); err != nil {
			log.Printf("[web] ascii dump: %v", err)
		}
	case "spew":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		webutils.WriteResult(w, []byte(utils.SDump(sc.Document.View())))
	default:
		webutils.WriteErrorStatus(w, http.StatusBadRequest, errors.Errorf("Unknown dump format %q", r.URL.Query().Get("format")))
	}
}

func queryBool(r *http.Request, key string, def bool) bool {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func exportName(name, ext string) string {
	base := strings.TrimSuffix(name, path.Ext(name))
	if base == "" {
		base = "scene"
	}
	return base + ext
}

func (s *Server) HandlerExportGLTF(w http.ResponseWriter, r *http.Request) {
	sc, name := s.Scene()
	if sc == nil {
		webutils.WriteErrorStatus(w, http.StatusNotFound, errNoScene)
		return
	}
	opts := gltfutils.Options{
		Bake:      queryBool(r, "bake", s.cfg.Export.Bake),
		Normalize: queryBool(r, "normalize", s.cfg.Export.Normalize),
	}
	binary := queryBool(r, "binary", s.cfg.Export.Binary)

	doc, err := gltfutils.ExportScene(sc, opts)
	if err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Failed to export"))
		return
	}
	var buf bytes.Buffer
	if err := gltfutils.Write(&buf, doc, binary); err != nil {
		webutils.WriteError(w, err)
		return
	}
	ext := ".gltf"
	if binary {
		ext = ".glb"
	}
	webutils.WriteFile(w, &buf, exportName(name, ext))
}

func (s *Server) HandlerExportFBX(w http.ResponseWriter, r *http.Request) {
	sc, name := s.Scene()
	if sc == nil {
		webutils.WriteErrorStatus(w, http.StatusNotFound, errNoScene)
		return
	}
	outName := exportName(name, ".fbx")
	b := fbxbuilder.New(outName)
	b.AddScene(sc)

	var buf bytes.Buffer
	if queryBool(r, "zip", false) {
		if err := b.AttachSourceDump(sc, exportName(name, ".txt")); err != nil {
			webutils.WriteError(w, err)
			return
		}
		if err := b.WriteZip(&buf, outName); err != nil {
			webutils.WriteError(w, errors.Wrapf(err, "Failed to export"))
			return
		}
		webutils.WriteFile(w, &buf, exportName(name, ".zip"))
		return
	}
	if err := b.Write(&buf); err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Failed to export"))
		return
	}
	webutils.WriteFile(w, &buf, outName)
}

func (s *Server) HandlerUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+1<<20)
	data, name, err := webutils.ReadFormFile(r, "data", MaxUploadSize)
	if err != nil {
		webutils.WriteErrorStatus(w, http.StatusBadRequest, err)
		return
	}
	if name = path.Base(name); name == "." || name == "/" {
		name = "upload.fbx"
	}
	if err := s.Load(name, data); err != nil {
		webutils.WriteErrorStatus(w, http.StatusUnprocessableEntity, err)
		return
	}
	sc, _ := s.Scene()
	webutils.WriteJson(w, sc.Stats())
}
