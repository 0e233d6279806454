// Package http serves the web UI: transaction list with filters,
// transaction and category forms, and report downloads.
package http

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"finview/internal/cache"
	"finview/internal/config"
	"finview/internal/core"
	"finview/internal/finance"
	"finview/internal/log"
	"finview/internal/services"
	appweb "finview/web"
)

// Server renders the UI and dispatches form submissions to the
// controllers.
type Server struct {
	http.Server
	templates *template.Template
	logger    *log.Logger

	query      *services.QueryController
	mutations  *services.MutationController
	categories *services.CategoryController
	exports    *services.ExportController
	backend    finance.Backend

	fyStartMonth int

	catCache *cache.LRU[[]core.Category]
	janitor  *cache.Janitor
	limiter  *rateLimiter

	shutdownOnce sync.Once
}

// Controllers bundles the services the server dispatches to.
type Controllers struct {
	Query      *services.QueryController
	Mutations  *services.MutationController
	Categories *services.CategoryController
	Exports    *services.ExportController
}

const categoryCacheKey = "categories"

// NewServer configures routes and templates, returning a ready-to-run
// server.
func NewServer(cfg *config.Config, backend finance.Backend, ctrl Controllers, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		Server: http.Server{
			Addr:         ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		logger:       logger.WithComponent(log.ComponentHTTP),
		query:        ctrl.Query,
		mutations:    ctrl.Mutations,
		categories:   ctrl.Categories,
		exports:      ctrl.Exports,
		backend:      backend,
		fyStartMonth: cfg.FYStartMonth,
		catCache:     cache.NewLRU[[]core.Category](cfg.CacheSize, cfg.CacheTTL),
		janitor:      cache.NewJanitor(),
		limiter:      newRateLimiter(cfg.RateLimitPerMinute),
	}

	t, err := template.New("").Funcs(template.FuncMap{
		"amount": core.FormatAmount,
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	s.templates = t

	s.janitor.Register(s.catCache)
	s.janitor.Start(cfg.SweepInterval)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	r.HandleFunc("/", s.withMiddleware(s.handleIndex)).Methods(http.MethodGet)

	r.HandleFunc("/transactions", s.withMiddleware(s.handleCreateTransaction)).Methods(http.MethodPost)
	r.HandleFunc("/transactions/{id:[0-9]+}", s.withMiddleware(s.handleUpdateTransaction)).Methods(http.MethodPost)
	r.HandleFunc("/transactions/{id:[0-9]+}/delete", s.withMiddleware(s.handleConfirmDeletePage)).Methods(http.MethodGet)
	r.HandleFunc("/transactions/{id:[0-9]+}/delete", s.withMiddleware(s.handleConfirmDelete)).Methods(http.MethodPost)
	r.HandleFunc("/transactions/{id:[0-9]+}/delete/cancel", s.withMiddleware(s.handleCancelDelete)).Methods(http.MethodPost)

	r.HandleFunc("/categories", s.withMiddleware(s.handleCategoriesPage)).Methods(http.MethodGet)
	r.HandleFunc("/categories", s.withMiddleware(s.handleCreateCategory)).Methods(http.MethodPost)
	r.HandleFunc("/categories/{id:[0-9]+}", s.withMiddleware(s.handleUpdateCategory)).Methods(http.MethodPost)
	r.HandleFunc("/categories/{id:[0-9]+}/delete", s.withMiddleware(s.handleConfirmDeleteCategoryPage)).Methods(http.MethodGet)
	r.HandleFunc("/categories/{id:[0-9]+}/delete", s.withMiddleware(s.handleConfirmDeleteCategory)).Methods(http.MethodPost)
	r.HandleFunc("/categories/{id:[0-9]+}/delete/cancel", s.withMiddleware(s.handleCancelDeleteCategory)).Methods(http.MethodPost)

	r.HandleFunc("/reports", s.withMiddleware(s.handleReportsPage)).Methods(http.MethodGet)
	r.HandleFunc("/reports/download", s.withMiddleware(s.handleDownloadReport)).Methods(http.MethodGet)

	s.Handler = r
	return s, nil
}

// Shutdown stops the background sweepers, then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.janitor.Stop()
		s.limiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]any{"templates": "ok"}

	if _, err := s.loadCategories(ctx); err != nil {
		checks["backend"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["backend"] = "ok"
	}

	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// loadCategories reads the category list through the TTL cache.
// Mutation handlers flush the cache so edits are visible immediately.
func (s *Server) loadCategories(ctx context.Context) ([]core.Category, error) {
	if cats, ok := s.catCache.Get(categoryCacheKey); ok {
		return cats, nil
	}
	cats, err := s.backend.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	s.catCache.Set(categoryCacheKey, cats)
	return cats, nil
}
