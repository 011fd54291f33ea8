// Package server wires the HTTP surface: Huma REST API, datastar live
// routes, static files and the viewer page.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"go.uber.org/zap"

	"github.com/agromaps/fieldview/internal/api"
	"github.com/agromaps/fieldview/internal/api/live"
	"github.com/agromaps/fieldview/internal/inference"
	"github.com/agromaps/fieldview/internal/ingest"
	"github.com/agromaps/fieldview/internal/service"
	"github.com/agromaps/fieldview/internal/templates"
)

// Config holds the server configuration.
type Config struct {
	Host             string
	Port             string
	DataDir          string
	WebDir           string // Path to web/ directory for static files
	InferenceURL     string
	InferenceTimeout time.Duration
}

// Server is the fieldview HTTP server.
type Server struct {
	config   Config
	log      *zap.Logger
	mux      *http.ServeMux
	humaAPI  huma.API
	services *api.Services
}

// New creates a new fieldview server.
func New(cfg Config, log *zap.Logger) (*Server, error) {
	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("fieldview API", "1.0.0")
	humaConfig.Info.Description = "Map server for agricultural field boundary delineation: raster and vector layers, drawn regions, and ML inference."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	bus := service.NewEventBus()
	layers := service.NewLayerStore(bus)
	models := service.NewModelCatalog(cfg.DataDir)
	client := inference.New(cfg.InferenceURL, cfg.InferenceTimeout, log)

	services := &api.Services{
		Layers:  layers,
		Regions: service.NewRegionService(layers, models, client, bus, log),
		Models:  models,
		Prefs:   service.NewPrefsService(cfg.DataDir),
		Uploads: service.NewUploadService(cfg.DataDir),
		Ingest:  ingest.New(log),
	}

	renderer, err := templates.New()
	if err != nil {
		return nil, fmt.Errorf("load fragment templates: %w", err)
	}

	s := &Server{
		config:   cfg,
		log:      log,
		mux:      mux,
		humaAPI:  humaAPI,
		services: services,
	}

	s.routes(bus, renderer)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document for export.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

func (s *Server) routes(bus *service.EventBus, renderer *templates.Renderer) {
	// Huma REST API routes (OpenAPI-documented JSON endpoints)
	handler := api.NewAPIHandler(s.services, s.log)
	handler.RegisterRoutes(s.humaAPI)

	info := api.NewInfoHandler(s.config.DataDir, s.config.InferenceURL)
	info.RegisterRoutes(s.humaAPI)

	// Live SSE routes using Huma + Datastar SDK
	events := live.NewEventHandler(s.services.Layers, s.services.Regions, bus, renderer, s.log)
	events.RegisterRoutes(s.humaAPI)

	// Static files and the viewer page
	if s.config.WebDir != "" {
		staticDir := filepath.Join(s.config.WebDir, "static")
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
		s.mux.HandleFunc("/viewer", s.handleViewer)
	}

	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.config.WebDir != "" {
		http.Redirect(w, r, "/viewer", http.StatusFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "fieldview",
		"status":  "running",
	})
}

func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	viewerPath := filepath.Join(s.config.WebDir, "templates", "viewer.html")
	http.ServeFile(w, r, viewerPath)
}
