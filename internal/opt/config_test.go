package opt

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opt.yaml")
	data := []byte("population_size: 40\ngenerations: 120\nroad_factor: 1.2\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.PopulationSize != 40 || cfg.Generations != 120 || cfg.RoadFactor != 1.2 {
		t.Fatalf("overlay not applied: %+v", cfg)
	}
	// untouched keys keep their defaults
	if cfg.CrossoverRate != 0.8 || cfg.EliteCount != 10 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestWithDefaultsClampsElites(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PopulationSize = 4
	cfg.EliteCount = 10
	cfg = cfg.withDefaults()
	if cfg.EliteCount > cfg.PopulationSize {
		t.Fatalf("elite count %d exceeds population %d", cfg.EliteCount, cfg.PopulationSize)
	}
	if cfg.Workers <= 0 {
		t.Fatalf("workers %d", cfg.Workers)
	}
}
