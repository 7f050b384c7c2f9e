package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cargonav/internal/api"
	"cargonav/internal/metrics"
)

func main() {
	_ = godotenv.Load()

	srv, err := api.NewServer()
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	mux := http.NewServeMux()

	// Optimization
	mux.HandleFunc("/v1/optimize", srv.OptimizeHandler)

	// Scenarios
	mux.HandleFunc("/v1/scenarios", srv.ScenariosHandler)
	mux.HandleFunc("/v1/scenarios/", srv.ScenarioByIDHandler)

	// Run metrics
	mux.HandleFunc("/v1/runs/", srv.RunMetricsHandler)

	// Health
	mux.HandleFunc("/healthz", srv.HealthHandler)
	mux.HandleFunc("/readyz", srv.ReadyHandler)

	// Debug + Prometheus
	mux.HandleFunc("/debug/info", srv.DebugJSON)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	handler := logMiddleware(api.MetricsMiddleware(srv.Limiter.Middleware(mux)))
	s := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("API listening on %s", addr)
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		dur := time.Since(start)
		log.Printf("%s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, dur)
	})
}
