// Package server assembles the HTTP surface: the Huma REST API, the
// Datastar editor endpoints, and the viewer pages.
package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/alde1022/spatix/internal/api"
	"github.com/alde1022/spatix/internal/api/editor"
	"github.com/alde1022/spatix/internal/config"
	"github.com/alde1022/spatix/internal/db"
	"github.com/alde1022/spatix/internal/intake"
	"github.com/alde1022/spatix/internal/logging"
	"github.com/alde1022/spatix/internal/mapcfg"
	"github.com/alde1022/spatix/internal/service"
	"github.com/alde1022/spatix/internal/templates"
)

const sessionSweepInterval = 10 * time.Minute
const sessionMaxIdle = time.Hour

// Server is the spatix HTTP server.
type Server struct {
	cfg      config.Config
	mux      *http.ServeMux
	humaAPI  huma.API
	db       *sql.DB
	services *api.Services
	sessions *editor.SessionManager
	renderer *templates.Renderer
	stop     chan struct{}
}

// New creates a spatix server from a validated configuration.
func New(cfg config.Config) (*Server, error) {
	mux := http.NewServeMux()

	// Huma API with the humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("spatix API", "1.0.0")
	humaConfig.Info.Description = "Map sharing platform: turn geometry data into styled, embeddable maps."
	humaConfig.Servers = []*huma.Server{
		{URL: cfg.PublicURL(), Description: "Public server"},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	renderer, err := templates.New()
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		renderer: renderer,
		stop:     make(chan struct{}),
	}

	var stats *service.StatsService
	if cfg.DuckDB.Enabled {
		conn, err := db.Get(db.Config{DataDir: cfg.DataDir, DBName: cfg.DuckDB.DBName})
		if err != nil {
			log := logging.Component("server")
			log.Warn().Err(err).Msg("duckdb unavailable, stats disabled")
		} else {
			s.db = conn
			stats = service.NewStatsService(conn)
		}
	}

	analyzer := intake.NewAnalyzer(cfg.Analyzer.URL)
	maps := service.NewMapService(cfg.DataDir, stats)

	s.services = &api.Services{
		Maps:      maps,
		Stats:     stats,
		Limiter:   service.NewRateLimiter(cfg.RateLimit.MapsPerHour, time.Hour),
		Intake:    intake.New(analyzer),
		PublicURL: cfg.PublicURL(),
	}
	s.sessions = editor.NewSessionManager(maps)

	s.routes(analyzer)
	go s.sweepSessions()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated API description.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Close releases server resources.
func (s *Server) Close() error {
	close(s.stop)
	return db.Close()
}

func (s *Server) routes(analyzer *intake.Analyzer) {
	// REST API (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services)
	api.NewInfoHandler(s.cfg.DataDir, s.db != nil, s.services.Maps.Count, analyzer).RegisterRoutes(s.humaAPI)
	api.NewDBHandler(s.db).RegisterRoutes(s.humaAPI)

	// Editor SSE routes (Huma + Datastar)
	editor.NewLayerHandler(s.sessions, s.renderer).RegisterRoutes(s.humaAPI)
	editor.NewDrawHandler(s.sessions, s.renderer).RegisterRoutes(s.humaAPI)
	editor.NewStyleHandler(s.sessions, s.renderer).RegisterRoutes(s.humaAPI)
	editor.NewEventHandler(s.sessions, s.renderer).RegisterRoutes(s.humaAPI)

	// Pages
	s.mux.HandleFunc("/m/", s.handleViewer)
	s.mux.HandleFunc("/editor", s.handleEditor)
	s.mux.HandleFunc("/editor/", s.handleEditor)
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"service":"spatix","status":"running","maps":%d}`, s.services.Maps.Count())
}

type viewerPageData struct {
	ID    string
	Title string
	Embed bool
}

func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/m/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	rec, err := s.services.Maps.Get(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.RenderPage(w, "viewer", viewerPageData{
		ID:    rec.ID,
		Title: rec.Title,
		Embed: r.URL.Query().Get("embed") == "1",
	}); err != nil {
		log := logging.Component("server")
		log.Error().Err(err).Msg("viewer page render failed")
	}
}

type editorPageData struct {
	MapID   string
	Basemap string
}

func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/editor")
	id = strings.TrimPrefix(id, "/")
	if id == "" {
		id = editor.NewMapID
	}

	basemap := mapcfg.BasemapLight
	if id != editor.NewMapID {
		rec, err := s.services.Maps.Get(id)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		basemap = rec.Config.Basemap
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.RenderPage(w, "editor", editorPageData{
		MapID:   id,
		Basemap: string(basemap),
	}); err != nil {
		log := logging.Component("server")
		log.Error().Err(err).Msg("editor page render failed")
	}
}

func (s *Server) sweepSessions() {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sessions.Sweep(sessionMaxIdle)
		}
	}
}
