// Package dashboard hosts the provincial indicator dashboard: a
// choropleth map, a trend chart, and a raw data table over one
// boundary file and one indicator workbook.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/devatlas/devatlas/internal/geo"
	"github.com/devatlas/devatlas/internal/indicator"
	"github.com/devatlas/devatlas/internal/platform/timeouts"
	"github.com/devatlas/devatlas/internal/services/dashboard/platform/httpx"
	"github.com/devatlas/devatlas/internal/services/dashboard/static"
	"github.com/devatlas/devatlas/internal/services/dashboard/storage"
	catalogsqlite "github.com/devatlas/devatlas/internal/services/dashboard/storage/sqlite"
)

// Config defines startup inputs for the dashboard service.
type Config struct {
	HTTPAddr string
	// GeoPath locates the GeoJSON province boundary file.
	GeoPath string
	// IndicatorPath locates the indicator workbook (xlsx).
	IndicatorPath string
	// CatalogPath locates the SQLite upload catalog database.
	CatalogPath string
	Logger      *log.Logger
}

// App carries the shared state behind the handlers. The boundary store
// is immutable; the indicator store is replaced wholesale on upload so
// in-flight requests keep a consistent snapshot.
type App struct {
	geo        *geo.Store
	indicators atomic.Pointer[indicator.Store]
	sessions   *sessionStore
	catalog    storage.CatalogStore
	logger     *log.Logger
	// chartVersion busts the trend image cache after state changes.
	chartVersion atomic.Int64
}

// Server hosts the dashboard HTTP surface and lifecycle.
type Server struct {
	httpAddr   string
	httpServer *http.Server
	app        *App
}

// NewApp loads both data stores and opens the upload catalog.
func NewApp(cfg Config) (*App, error) {
	geoStore, err := geo.Load(cfg.GeoPath)
	if err != nil {
		return nil, fmt.Errorf("load boundary file: %w", err)
	}
	indicatorStore, err := indicator.Load(cfg.IndicatorPath)
	if err != nil {
		return nil, fmt.Errorf("load indicator workbook: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	app := &App{
		geo:      geoStore,
		sessions: newSessionStore(),
		logger:   logger,
	}
	app.indicators.Store(indicatorStore)

	if strings.TrimSpace(cfg.CatalogPath) != "" {
		catalog, err := catalogsqlite.Open(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("open upload catalog: %w", err)
		}
		app.catalog = catalog
	}
	return app, nil
}

// NewHandler composes the route table and middleware chain.
func NewHandler(app *App) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static.FS))))
	mux.HandleFunc("GET /{$}", app.handleIndex)
	mux.HandleFunc("GET /api/choropleth", app.handleChoropleth)
	mux.HandleFunc("GET /api/trend", app.handleTrend)
	mux.HandleFunc("GET /api/table", app.handleTable)
	mux.HandleFunc("GET /chart/trend.png", app.handleTrendChart)
	mux.HandleFunc("POST /select", app.handleSelect)
	mux.HandleFunc("POST /focus", app.handleFocus)
	mux.HandleFunc("POST /reset", app.handleReset)
	mux.HandleFunc("POST /upload", app.handleUpload)
	return httpx.Chain(mux,
		httpx.RecoverPanic(),
		httpx.RequestID(),
		httpx.RequestLogger(app.logger),
	)
}

// NewServer validates config, loads the stores, and constructs the
// dashboard server.
func NewServer(_ context.Context, cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	app, err := NewApp(cfg)
	if err != nil {
		return nil, err
	}
	return &Server{
		httpAddr: httpAddr,
		app:      app,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           NewHandler(app),
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
	}, nil
}

// ListenAndServe serves HTTP traffic until context cancellation or
// server stop.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("dashboard server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown dashboard http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve dashboard http: %w", err)
	}
}

// Close closes open server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.app != nil && s.app.catalog != nil {
		_ = s.app.catalog.Close()
	}
}
