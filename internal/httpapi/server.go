// Package httpapi serves assessments, curve evaluations and stored scenario
// mutations as a JSON HTTP API with Prometheus metrics.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/huangsam/streamscore/core"
	"github.com/huangsam/streamscore/core/scenario"
	"github.com/huangsam/streamscore/internal/catalog"
	"github.com/huangsam/streamscore/internal/contract"
)

const (
	requestTimeout = 30 * time.Second
	maxBodyBytes   = 1 << 20
)

// Server is the HTTP API over one catalog.
type Server struct {
	router  *chi.Mux
	cfg     *contract.Config
	mgr     contract.StoreManager
	engine  *scenario.Engine
	locks   *keyedMutex
	metrics *apiMetrics
}

// NewServer loads and validates the catalog and builds the router.
func NewServer(cfg *contract.Config, mgr contract.StoreManager) (*Server, error) {
	cat, err := catalog.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	if err := core.ValidateCatalog(cat); err != nil {
		return nil, fmt.Errorf("catalog %s is invalid:\n%w", cfg.CatalogPath, err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		cfg:     cfg,
		mgr:     mgr,
		engine:  scenario.NewEngine(cat, core.OptionsFromConfig(cfg)),
		locks:   newKeyedMutex(),
		metrics: newAPIMetrics(prometheus.NewRegistry()),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(requestTimeout))
	s.router.Use(s.metrics.instrument)
}

// setupRoutes configures all application routes
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/catalog/metrics", s.handleCatalogMetrics)
		r.Get("/curves/{curveID}/evaluate", s.handleEvaluateCurve)
		r.Get("/curves/{curveID}/bands", s.handleCurveBands)
		r.Post("/assess", s.handleAssess)

		r.Get("/scenarios", s.handleListScenarios)
		r.Post("/scenarios", s.handleCreateScenario)
		r.Route("/scenarios/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetScenario)
			r.Delete("/", s.handleDeleteScenario)
			r.Get("/assessment", s.handleScenarioAssessment)
			r.Post("/metrics", s.handleAddMetric)
			r.Delete("/metrics/{metricID}", s.handleRemoveMetric)
			r.Put("/observations/{metricID}", s.handleSetObservation)
			r.Put("/curves/{metricID}", s.handleSetCurve)
			r.Delete("/curves/{metricID}", s.handleClearCurve)
			r.Post("/duplicate", s.handleDuplicate)
		})
	})
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on the configured address until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	contract.LogInfo("Serving on http://%s", s.cfg.Listen)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
