package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/huangsam/streamscore/core/curve"
	"github.com/huangsam/streamscore/core/scenario"
	"github.com/huangsam/streamscore/internal/catalog"
	"github.com/huangsam/streamscore/internal/contract"
	"github.com/huangsam/streamscore/schema"
)

var errStoreDisabled = errors.New("scenario store is disabled")

// mutationResponse is returned by every scenario mutation.
type mutationResponse struct {
	Scenario *schema.Scenario    `json:"scenario"`
	Changes  schema.ChangeSummary `json:"changes"`
}

type createRequest struct {
	Name    string      `json:"name"`
	Tier    schema.Tier `json:"tier"`
	Metrics []string    `json:"metrics"`
}

type metricRequest struct {
	MetricID string `json:"metricId"`
}

type curveRequest struct {
	CurveSet string        `json:"curveSet,omitempty"`
	Curve    *schema.Curve `json:"curve,omitempty"`
	Layer    string        `json:"layer,omitempty"`
}

type duplicateRequest struct {
	Name string `json:"name"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, contract.ErrScenarioNotFound):
		return http.StatusNotFound
	case errors.Is(err, errStoreDisabled):
		return http.StatusServiceUnavailable
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, scenario.ErrUnknownMetric),
		errors.Is(err, scenario.ErrNotSelected),
		errors.Is(err, scenario.ErrNoProfile),
		errors.Is(err, scenario.ErrUnknownSet),
		errors.Is(err, scenario.ErrNoCurve),
		errors.Is(err, scenario.ErrUnknownLayer),
		errors.Is(err, schema.ErrInvariant),
		errors.Is(err, schema.ErrEvaluation),
		errors.Is(err, schema.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) scenarioStore() (contract.ScenarioStore, error) {
	if s.mgr == nil || s.mgr.GetScenarioStore() == nil {
		return nil, errStoreDisabled
	}
	return s.mgr.GetScenarioStore(), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "catalog": s.engine.Catalog().String()})
}

func (s *Server) handleCatalogMetrics(w http.ResponseWriter, r *http.Request) {
	tier := schema.Tier(r.URL.Query().Get("tier"))
	if tier == "" {
		tier = s.cfg.Tier
	}
	if _, ok := schema.ValidTiers[tier]; !ok {
		writeError(w, fmt.Errorf("%w: invalid tier %q", errBadRequest, tier))
		return
	}
	metrics := s.engine.Catalog().MetricsForTier(tier)
	if metrics == nil {
		metrics = []schema.Metric{}
	}
	writeJSON(w, http.StatusOK, metrics)
}

func (s *Server) handleEvaluateCurve(w http.ResponseWriter, r *http.Request) {
	c, ok := s.engine.Catalog().CurveMap()[chi.URLParam(r, "curveID")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "curve not in catalog"})
		return
	}
	obs, err := catalog.ParseCell(r.URL.Query().Get("value"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	m, err := curve.Explain(c, r.URL.Query().Get("layer"), obs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Observation schema.Observation `json:"observation"`
		Label       string             `json:"label"`
		schema.CurveMatch
	}{Observation: obs, Label: contract.GetPlainLabel(m.Score, s.cfg.Labels), CurveMatch: m})
}

func (s *Server) handleCurveBands(w http.ResponseWriter, r *http.Request) {
	curveID := chi.URLParam(r, "curveID")
	c, ok := s.engine.Catalog().CurveMap()[curveID]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "curve not in catalog"})
		return
	}
	layerID := r.URL.Query().Get("layer")
	points, err := curve.LayerBands(c, layerID)
	if err != nil {
		writeError(w, err)
		return
	}
	if l, ok := c.ResolveLayer(layerID); ok {
		layerID = l.ID
	}
	writeJSON(w, http.StatusOK, map[string]any{"curveId": curveID, "layerId": layerID, "points": points})
}

// handleAssess scores a scenario posted in the request body without storing it.
func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var sc schema.Scenario
	if err := decodeBody(w, r, &sc); err != nil {
		writeError(w, err)
		return
	}
	a, err := s.engine.Assess(&sc)
	if err != nil {
		writeError(w, err)
		return
	}
	s.metrics.observeIndex(a.ScenarioID, a.Rollup.EcosystemIndex)
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleListScenarios(w http.ResponseWriter, _ *http.Request) {
	store, err := s.scenarioStore()
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := store.List()
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []schema.ScenarioEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	store, err := s.scenarioStore()
	if err != nil {
		writeError(w, err)
		return
	}
	var req createRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if _, ok := schema.ValidTiers[req.Tier]; req.Tier != "" && !ok {
		writeError(w, fmt.Errorf("%w: invalid tier %q", errBadRequest, req.Tier))
		return
	}
	sc, cs, err := s.engine.New(req.Name, req.Tier, req.Metrics...)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := store.Put(sc); err != nil {
		writeError(w, err)
		return
	}
	s.metrics.mutations.WithLabelValues("create").Inc()
	s.metrics.observeIndex(sc.ID, cs.EcosystemAfter)
	writeJSON(w, http.StatusCreated, mutationResponse{Scenario: sc, Changes: cs})
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	store, err := s.scenarioStore()
	if err != nil {
		writeError(w, err)
		return
	}
	sc, err := store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	store, err := s.scenarioStore()
	if err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	unlock := s.locks.Lock(id)
	defer unlock()
	if err := store.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	s.metrics.mutations.WithLabelValues("delete").Inc()
	s.metrics.ecosystem.DeleteLabelValues(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleScenarioAssessment(w http.ResponseWriter, r *http.Request) {
	store, err := s.scenarioStore()
	if err != nil {
		writeError(w, err)
		return
	}
	sc, err := store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	a, err := s.engine.Assess(sc)
	if err != nil {
		writeError(w, err)
		return
	}
	s.metrics.observeIndex(a.ScenarioID, a.Rollup.EcosystemIndex)
	writeJSON(w, http.StatusOK, a)
}

// mutate runs one engine operation on a stored scenario while holding its lock,
// so concurrent requests against the same scenario apply one after another.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, op string,
	fn func(sc *schema.Scenario) (*schema.Scenario, schema.ChangeSummary, error)) {
	store, err := s.scenarioStore()
	if err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	unlock := s.locks.Lock(id)
	defer unlock()

	sc, err := store.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	next, cs, err := fn(sc)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := store.Put(next); err != nil {
		writeError(w, err)
		return
	}
	s.metrics.mutations.WithLabelValues(op).Inc()
	s.metrics.observeIndex(next.ID, cs.EcosystemAfter)
	writeJSON(w, http.StatusOK, mutationResponse{Scenario: next, Changes: cs})
}

func (s *Server) handleAddMetric(w http.ResponseWriter, r *http.Request) {
	var req metricRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.mutate(w, r, "add_metric", func(sc *schema.Scenario) (*schema.Scenario, schema.ChangeSummary, error) {
		return s.engine.AddMetric(sc, req.MetricID)
	})
}

func (s *Server) handleRemoveMetric(w http.ResponseWriter, r *http.Request) {
	metricID := chi.URLParam(r, "metricID")
	s.mutate(w, r, "remove_metric", func(sc *schema.Scenario) (*schema.Scenario, schema.ChangeSummary, error) {
		return s.engine.RemoveMetric(sc, metricID)
	})
}

func (s *Server) handleSetObservation(w http.ResponseWriter, r *http.Request) {
	var obs schema.Observation
	if err := decodeBody(w, r, &obs); err != nil {
		writeError(w, err)
		return
	}
	metricID := chi.URLParam(r, "metricID")
	s.mutate(w, r, "set_observation", func(sc *schema.Scenario) (*schema.Scenario, schema.ChangeSummary, error) {
		return s.engine.SetObservation(sc, metricID, obs)
	})
}

func (s *Server) handleSetCurve(w http.ResponseWriter, r *http.Request) {
	var req curveRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	set := 0
	for _, used := range []bool{req.CurveSet != "", req.Curve != nil, req.Layer != ""} {
		if used {
			set++
		}
	}
	if set != 1 {
		writeError(w, fmt.Errorf("%w: exactly one of curveSet, curve or layer is required", errBadRequest))
		return
	}
	metricID := chi.URLParam(r, "metricID")
	if req.Layer != "" {
		s.mutate(w, r, "set_layer", func(sc *schema.Scenario) (*schema.Scenario, schema.ChangeSummary, error) {
			return s.engine.SetActiveLayer(sc, metricID, req.Layer)
		})
		return
	}
	if req.Curve != nil {
		s.mutate(w, r, "override_curve", func(sc *schema.Scenario) (*schema.Scenario, schema.ChangeSummary, error) {
			return s.engine.SetCurveOverride(sc, metricID, req.Curve)
		})
		return
	}
	s.mutate(w, r, "set_curve_set", func(sc *schema.Scenario) (*schema.Scenario, schema.ChangeSummary, error) {
		return s.engine.SetActiveCurveSet(sc, metricID, req.CurveSet)
	})
}

func (s *Server) handleClearCurve(w http.ResponseWriter, r *http.Request) {
	metricID := chi.URLParam(r, "metricID")
	s.mutate(w, r, "clear_curve", func(sc *schema.Scenario) (*schema.Scenario, schema.ChangeSummary, error) {
		return s.engine.ClearCurveOverride(sc, metricID)
	})
}

// handleDuplicate stores a copy under a new id. Only the source is locked since the copy is new.
func (s *Server) handleDuplicate(w http.ResponseWriter, r *http.Request) {
	store, err := s.scenarioStore()
	if err != nil {
		writeError(w, err)
		return
	}
	var req duplicateRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	id := chi.URLParam(r, "id")
	unlock := s.locks.Lock(id)
	defer unlock()

	sc, err := store.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	dup, cs, err := s.engine.Duplicate(sc, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := store.Put(dup); err != nil {
		writeError(w, err)
		return
	}
	s.metrics.mutations.WithLabelValues("duplicate").Inc()
	s.metrics.observeIndex(dup.ID, cs.EcosystemAfter)
	writeJSON(w, http.StatusCreated, mutationResponse{Scenario: dup, Changes: cs})
}
