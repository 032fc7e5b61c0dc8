package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-metro/internal/api"
	"github.com/joeblew999/plat-metro/internal/db"
	"github.com/joeblew999/plat-metro/internal/humastar"
	"github.com/joeblew999/plat-metro/internal/layer"
	"github.com/joeblew999/plat-metro/internal/livestore"
	"github.com/joeblew999/plat-metro/internal/loader"
	"github.com/joeblew999/plat-metro/internal/metrics"
	"github.com/joeblew999/plat-metro/internal/objects"
	"github.com/joeblew999/plat-metro/internal/remote"
	"github.com/joeblew999/plat-metro/internal/service"
	"github.com/joeblew999/plat-metro/internal/templates"
)

// Object repository drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string // geodata lives in <DataDir>/data, DuckDB in <DataDir>/duckdb
	WebDir  string // optional; serves <WebDir>/static and <WebDir>/templates/map.html

	// CatalogPath is an optional YAML layer catalog.
	CatalogPath string
	// GeodataURL fetches layer files over HTTP instead of reading DataDir.
	GeodataURL string
	// ObjectsURL points the live store at a remote object API. Empty means
	// the in-process object service.
	ObjectsURL string

	DBDriver    string
	PostgresDSN string

	Logger *slog.Logger
}

// Server is the map HTTP server.
type Server struct {
	config  Config
	log     *slog.Logger
	mux     *http.ServeMux
	humaAPI huma.API
	db      *sql.DB
	objects *objects.Service
	view    *service.View
}

// New wires storage, the view and the routes. It does not start loading;
// call Start for that.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DBDriver == "" {
		cfg.DBDriver = DriverDuckDB
	}
	log := cfg.Logger

	catalog := layer.DefaultCatalog()
	if cfg.CatalogPath != "" {
		c, err := layer.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		catalog = c
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}

	s := &Server{config: cfg, log: log, mux: http.NewServeMux()}

	repo, err := s.openRepository(ctx)
	if err != nil {
		return nil, err
	}
	s.objects = objects.NewService(repo, log)

	var objectAPI livestore.Remote = s.objects
	if cfg.ObjectsURL != "" {
		objectAPI = remote.New(cfg.ObjectsURL, nil)
	}

	var src loader.Source = loader.NewDirSource(s.geodataDir())
	if cfg.GeodataURL != "" {
		src = loader.NewHTTPSource(cfg.GeodataURL, nil)
	}

	s.view = service.New(service.Config{
		Catalog: catalog,
		Loader:  loader.New(src, loader.WithLogger(log)),
		Store:   livestore.New(objectAPI, log),
		Logger:  log,
	})

	humaConfig := huma.DefaultConfig("plat-metro API", api.Version)
	humaConfig.Info.Description = "Moscow transport map: zoom-gated static layers and user-placed objects."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())
	s.humaAPI = humago.New(s.mux, humaConfig)

	renderer, err := s.renderer()
	if err != nil {
		return nil, err
	}

	s.routes(renderer)
	return s, nil
}

func (s *Server) openRepository(ctx context.Context) (objects.Repository, error) {
	switch s.config.DBDriver {
	case DriverMemory:
		return objects.NewMemoryRepository(), nil
	case DriverPostgres:
		conn, err := db.OpenPostgres(ctx, s.config.PostgresDSN)
		if err != nil {
			return nil, err
		}
		s.db = conn
		return objects.NewPostGISRepository(ctx, conn)
	case DriverDuckDB:
		conn, err := db.OpenDuckDB(db.Config{DataDir: s.config.DataDir, DBName: "metro"})
		if err != nil {
			return nil, err
		}
		s.db = conn
		return objects.NewDuckDBRepository(ctx, conn)
	}
	return nil, fmt.Errorf("unknown database driver %q", s.config.DBDriver)
}

func (s *Server) renderer() (*templates.Renderer, error) {
	if s.config.WebDir != "" {
		dir := filepath.Join(s.config.WebDir, "templates", "fragments")
		if r, err := templates.NewFromDir(dir); err == nil {
			s.log.Info("loaded fragment templates", "dir", dir)
			return r, nil
		}
	}
	return templates.New()
}

func (s *Server) geodataDir() string {
	return filepath.Join(s.config.DataDir, "data")
}

// Start loads the static layers and the user objects. A failed object
// refresh is logged; the map still serves.
func (s *Server) Start(ctx context.Context) {
	if err := s.view.Start(ctx); err != nil {
		s.log.Warn("initial object refresh failed", "error", err)
	}
}

// View returns the map view.
func (s *Server) View() *service.View { return s.view }

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI { return s.humaAPI.OpenAPI() }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close releases the view subscription and the database.
func (s *Server) Close() error {
	s.view.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Server) routes(renderer *templates.Renderer) {
	api.RegisterRoutes(s.humaAPI, &api.Services{Objects: s.objects, View: s.view})
	api.NewInfoHandler(s.config.DataDir, s.config.DBDriver, s.objectsSource()).RegisterRoutes(s.humaAPI)
	api.NewMapHandler(s.view, humastar.Handler{Renderer: renderer}, s.log).RegisterRoutes(s.humaAPI)

	s.mux.Handle("/data/", http.StripPrefix("/data/", s.handleData(s.geodataDir())))
	s.mux.Handle("/metrics", metrics.Handler())

	if s.config.WebDir != "" {
		staticDir := filepath.Join(s.config.WebDir, "static")
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
		s.mux.HandleFunc("/map", s.handleMap)
	}
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) objectsSource() string {
	if s.config.ObjectsURL != "" {
		return s.config.ObjectsURL
	}
	return "local"
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "plat-metro",
		"status":  "running",
	})
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(s.config.WebDir, "templates", "map.html"))
}

// handleData serves the static GeoJSON layers. Only flat .geojson/.json
// names are allowed.
func (s *Server) handleData(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if err := loader.ValidateFileName(r.URL.Path); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		files.ServeHTTP(w, r)
	})
}
