package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cargonav/internal/model"
	"cargonav/internal/opt"
	"cargonav/internal/snapshot"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := opt.DefaultConfig()
	cfg.PopulationSize = 40
	cfg.Generations = 120
	cfg.StallLimit = 30
	cfg.Seed = 5
	return &Server{
		Engine:  opt.NewEngine(cfg, nil),
		Source:  snapshot.FixtureSource{},
		Limiter: NewRateLimiter(DefaultRateLimiterConfig()),
	}
}

func inlineSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Date: "2025-06-02",
		Stations: []model.Station{
			{ID: "izmit", Name: "İzmit", Lat: 40.7656, Lng: 29.9406, IsDepot: true},
			{ID: "gebze", Name: "Gebze", Lat: 40.8027, Lng: 29.4307},
			{ID: "golcuk", Name: "Gölcük", Lat: 40.7175, Lng: 29.8306},
		},
		Cargos: []model.Cargo{
			{ID: "c1", StationID: "gebze", WeightKg: 120, Priority: 1, Status: model.CargoPending},
			{ID: "c2", StationID: "golcuk", WeightKg: 80, Status: model.CargoPending},
		},
		Vehicles: []model.Vehicle{
			{ID: "v1", CapacityKg: 500, CostPerKm: 1.0},
		},
	}
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	h(rr, req)
	return rr
}

func TestHealthReady(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != 200 {
		t.Fatalf("health: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != 200 {
		t.Fatalf("ready: got %d", rr.Code)
	}
}

func TestOptimizeInlineSnapshot(t *testing.T) {
	s := newTestServer(t)
	rr := postJSON(t, s.OptimizeHandler, "/v1/optimize", model.OptimizeRequest{Snapshot: inlineSnapshot()})
	if rr.Code != 200 {
		t.Fatalf("optimize: got %d body %s", rr.Code, rr.Body.String())
	}
	var res model.OptimizeResult
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.RunID == "" {
		t.Fatal("empty run id")
	}
	if len(res.Routes) != 1 {
		t.Fatalf("%d routes, want 1", len(res.Routes))
	}
	stops := res.Routes[0].Stops
	if stops[0] != "izmit" || stops[len(stops)-1] != "izmit" {
		t.Fatalf("route not depot-bounded: %v", stops)
	}
}

func TestOptimizeInvalidSnapshot(t *testing.T) {
	s := newTestServer(t)
	snap := inlineSnapshot()
	snap.Stations[0].IsDepot = false
	rr := postJSON(t, s.OptimizeHandler, "/v1/optimize", model.OptimizeRequest{Snapshot: snap})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got %d, want 422", rr.Code)
	}
	var p Problem
	if err := json.Unmarshal(rr.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if p.Status != http.StatusUnprocessableEntity {
		t.Fatalf("problem status %d", p.Status)
	}
}

func TestOptimizeBadRequests(t *testing.T) {
	s := newTestServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/optimize", bytes.NewReader([]byte("{")))
	s.OptimizeHandler(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("truncated JSON: got %d", rr.Code)
	}

	// neither snapshot nor date
	rr = postJSON(t, s.OptimizeHandler, "/v1/optimize", model.OptimizeRequest{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty request: got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.OptimizeHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/optimize", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET: got %d", rr.Code)
	}
}

func TestScenariosList(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.ScenariosHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/scenarios", nil))
	if rr.Code != 200 {
		t.Fatalf("scenarios: got %d", rr.Code)
	}
	var body struct {
		Items []struct {
			ID int `json:"id"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Items) != 4 {
		t.Fatalf("%d scenarios, want 4", len(body.Items))
	}
}

func TestScenarioRunAndMetrics(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/scenarios/1/run?date=2025-06-02", nil)
	s.ScenarioByIDHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("scenario run: got %d body %s", rr.Code, rr.Body.String())
	}
	var res model.OptimizeResult
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Routes) != 1 {
		t.Fatalf("%d routes for the light scenario, want 1", len(res.Routes))
	}

	rr = httptest.NewRecorder()
	s.RunMetricsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/runs/"+res.RunID+"/metrics", nil))
	if rr.Code != 200 {
		t.Fatalf("run metrics: got %d", rr.Code)
	}
	var m opt.Metrics
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if m.Generations == 0 {
		t.Fatal("no generations recorded")
	}
}

func TestScenarioRunUnknownID(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.ScenarioByIDHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/scenarios/9/run", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
}

func TestRunMetricsUnknownRun(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.RunMetricsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/runs/nope/metrics", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
}

func TestRateLimiterRejectsBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{PerSecond: 1, Burst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("first request: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d, want 429", rr.Code)
	}
}
