package web

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/fbxloader/config"
	"github.com/mogaika/fbxloader/loader"
	"github.com/mogaika/fbxloader/status"
)

// uploads larger than this are rejected
const MaxUploadSize = 256 << 20

type Server struct {
	cfg *config.Config
	hub *status.Hub

	lock  sync.RWMutex
	scene *loader.Scene
	name  string
}

func NewServer(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Server{cfg: cfg, hub: status.NewHub()}
}

func (s *Server) Hub() *status.Hub { return s.hub }

// Scene returns the currently served scene and its file name
func (s *Server) Scene() (*loader.Scene, string) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.scene, s.name
}

func (s *Server) SetScene(name string, sc *loader.Scene) {
	s.lock.Lock()
	s.scene, s.name = sc, name
	s.lock.Unlock()
	st := sc.Stats()
	s.hub.Info("Loaded %q: %d models, %d meshes", name, st.Models, st.Meshes)
}

// Load decodes data with the configured decoder options and serves the result
func (s *Server) Load(name string, data []byte) error {
	opts, err := s.cfg.DecoderOptions()
	if err != nil {
		return err
	}
	s.hub.Progress(0, "Loading %q", name)
	sc, err := loader.Load(data, opts)
	if err != nil {
		s.hub.Error("Failed to load %q: %v", name, err)
		return errors.Wrapf(err, "Failed to load %q", name)
	}
	s.SetScene(name, sc)
	return nil
}

func (s *Server) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to read %q", path)
	}
	return s.Load(filepath.Base(path), data)
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/json/scene", s.HandlerJsonScene).Methods(http.MethodGet)
	r.HandleFunc("/json/stats", s.HandlerJsonStats).Methods(http.MethodGet)
	r.HandleFunc("/json/flags", s.HandlerJsonFlags).Methods(http.MethodGet)
	r.HandleFunc("/json/object/{id:-?[0-9]+}", s.HandlerJsonObject).Methods(http.MethodGet)
	r.HandleFunc("/dump/tree", s.HandlerDumpTree).Methods(http.MethodGet)
	r.HandleFunc("/export/gltf", s.HandlerExportGLTF).Methods(http.MethodGet)
	r.HandleFunc("/export/fbx", s.HandlerExportFBX).Methods(http.MethodGet)
	r.HandleFunc("/upload", s.HandlerUpload).Methods(http.MethodPost)
	r.Handle("/ws/status", s.hub)
	return r
}

func (s *Server) Handler() http.Handler {
	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(s.Router())
	return handlers.LoggingHandler(os.Stdout, h)
}

func (s *Server) StartServer() error {
	addr := s.cfg.Server.Addr
	log.Printf("[web] Starting server %v", addr)
	return http.ListenAndServe(addr, s.Handler())
}
