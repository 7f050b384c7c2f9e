package api

import (
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"cargonav/internal/geo"
	"cargonav/internal/metrics"
	"cargonav/internal/opt"
	"cargonav/internal/snapshot"
)

// Server carries the wired dependencies of the HTTP surface.
type Server struct {
	Engine  *opt.Engine
	Source  snapshot.Source
	Limiter *RateLimiter
}

// NewServer wires an engine from the environment. OPT_CONFIG points at
// an optional YAML tuning overlay, DATABASE_URL selects the Postgres
// snapshot source over the built-in fixture, and REDIS_URL enables a
// distance cache shared across processes.
func NewServer() (*Server, error) {
	metrics.RegisterDefault()

	cfg := opt.DefaultConfig()
	if path := os.Getenv("OPT_CONFIG"); path != "" {
		c, err := opt.LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		cfg = c
	}

	var cache geo.Cache
	if url := strings.TrimSpace(os.Getenv("REDIS_URL")); url != "" {
		rc, err := geo.NewRedisCache(url, snapshot.Stations(), 24*time.Hour)
		if err != nil {
			return nil, err
		}
		cache = rc
	}

	var src snapshot.Source = snapshot.FixtureSource{}
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		pg, err := snapshot.NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		src = pg
	}

	rlCfg := DefaultRateLimiterConfig()
	if v := os.Getenv("RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			rlCfg.PerSecond = rate.Limit(f)
		}
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			rlCfg.Burst = n
		}
	}

	return &Server{
		Engine:  opt.NewEngine(cfg, cache),
		Source:  src,
		Limiter: NewRateLimiter(rlCfg),
	}, nil
}
