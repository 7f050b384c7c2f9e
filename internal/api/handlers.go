package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cargonav/internal/metrics"
	"cargonav/internal/model"
	"cargonav/internal/opt"
	"cargonav/internal/scenario"
)

// OptimizeHandler handles POST /v1/optimize. The snapshot may be
// inlined in the request; otherwise the configured source supplies one
// for the requested date.
func (s *Server) OptimizeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateOptimizeRequest(&req); err != nil {
		metrics.OptimizeRuns.WithLabelValues("api", "invalid").Inc()
		writeProblem(w, http.StatusBadRequest, "Invalid optimize request", err.Error(), r.URL.Path)
		return
	}
	if req.Snapshot == nil {
		snap, err := s.Source.Snapshot(r.Context(), req.Date)
		if err != nil {
			metrics.OptimizeRuns.WithLabelValues("api", "error").Inc()
			writeProblem(w, http.StatusBadGateway, "Snapshot load failed", err.Error(), r.URL.Path)
			return
		}
		req.Snapshot = snap
	}

	res, err := s.Engine.Run(r.Context(), req)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			metrics.OptimizeRuns.WithLabelValues("api", "invalid").Inc()
			writeProblem(w, http.StatusUnprocessableEntity, "Invalid snapshot", verr.Error(), r.URL.Path)
			return
		}
		metrics.OptimizeRuns.WithLabelValues("api", "error").Inc()
		writeProblem(w, http.StatusInternalServerError, "Optimize failed", err.Error(), r.URL.Path)
		return
	}
	metrics.OptimizeRuns.WithLabelValues("api", runOutcome(res)).Inc()
	writeJSON(w, http.StatusOK, res)
}

// ScenariosHandler handles GET /v1/scenarios.
func (s *Server) ScenariosHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": scenario.List()})
}

// ScenarioByIDHandler handles POST /v1/scenarios/{id}/run.
func (s *Server) ScenarioByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/scenarios/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "run" {
		writeProblem(w, http.StatusNotFound, "Not found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid scenario id", parts[0], r.URL.Path)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	res, err := scenario.Run(r.Context(), s.Engine, id, date)
	if err != nil {
		metrics.OptimizeRuns.WithLabelValues("scenario", "error").Inc()
		writeProblem(w, http.StatusBadRequest, "Scenario run failed", err.Error(), r.URL.Path)
		return
	}
	metrics.OptimizeRuns.WithLabelValues("scenario", runOutcome(res)).Inc()
	writeJSON(w, http.StatusOK, res)
}

// RunMetricsHandler handles GET /v1/runs/{id}/metrics.
func (s *Server) RunMetricsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "metrics" {
		writeProblem(w, http.StatusNotFound, "Not found", "", r.URL.Path)
		return
	}
	m, ok := opt.GetMetrics(parts[0])
	if !ok {
		writeProblem(w, http.StatusNotFound, "Unknown run", parts[0], r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func runOutcome(res *model.OptimizeResult) string {
	if res.PenaltyResidual > 0 {
		return "degraded"
	}
	return "ok"
}
