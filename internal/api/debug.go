package api

import (
	"net/http"
	"os"
	"time"

	"cargonav/internal/buildinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"PORT":             os.Getenv("PORT"),
			"OPT_CONFIG":       os.Getenv("OPT_CONFIG"),
			"RATE_RPS":         os.Getenv("RATE_RPS"),
			"RATE_BURST":       os.Getenv("RATE_BURST"),
			"HAS_DATABASE_URL": os.Getenv("DATABASE_URL") != "",
			"HAS_REDIS_URL":    os.Getenv("REDIS_URL") != "",
			"tuning":           s.Engine.Config(),
		},
	})
}
