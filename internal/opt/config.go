package opt

import (
	"fmt"
	"os"
	"runtime"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Config tunes one optimization run. It is passed by value into the
// solver so concurrent runs with different tuning never interfere.
type Config struct {
	PopulationSize  int           `yaml:"population_size" json:"populationSize,omitempty"`
	Generations     int           `yaml:"generations" json:"generations,omitempty"`
	StallLimit      int           `yaml:"stall_limit" json:"stallLimit,omitempty"`
	CrossoverRate   float64       `yaml:"crossover_rate" json:"crossoverRate,omitempty"`
	MutationRate    float64       `yaml:"mutation_rate" json:"mutationRate,omitempty"`
	EliteCount      int           `yaml:"elite_count" json:"eliteCount,omitempty"`
	TournamentSize  int           `yaml:"tournament_size" json:"tournamentSize,omitempty"`
	RoadFactor      float64       `yaml:"road_factor" json:"roadFactor,omitempty"`
	CostPerKm       float64       `yaml:"cost_per_km" json:"costPerKm,omitempty"`
	OverloadPenalty float64       `yaml:"overload_penalty" json:"overloadPenalty,omitempty"`
	Workers         int           `yaml:"workers" json:"workers,omitempty"`
	Seed            int64         `yaml:"seed" json:"seed,omitempty"`
	TimeBudget      time.Duration `yaml:"time_budget" json:"timeBudget,omitempty"`
}

// DefaultConfig returns the tuning used by production runs.
func DefaultConfig() Config {
	return Config{
		PopulationSize:  100,
		Generations:     500,
		StallLimit:      75,
		CrossoverRate:   0.8,
		MutationRate:    0.1,
		EliteCount:      10,
		TournamentSize:  5,
		RoadFactor:      1.35,
		CostPerKm:       1.0,
		OverloadPenalty: 1000,
		Seed:            1,
	}
}

// LoadConfigFile overlays a YAML tuning file onto the defaults.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("opt: parse %s: %w", path, err)
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PopulationSize <= 0 {
		c.PopulationSize = d.PopulationSize
	}
	if c.Generations <= 0 {
		c.Generations = d.Generations
	}
	if c.StallLimit <= 0 {
		c.StallLimit = d.StallLimit
	}
	if c.CrossoverRate <= 0 || c.CrossoverRate > 1 {
		c.CrossoverRate = d.CrossoverRate
	}
	if c.MutationRate <= 0 || c.MutationRate > 1 {
		c.MutationRate = d.MutationRate
	}
	if c.EliteCount <= 0 {
		c.EliteCount = d.EliteCount
	}
	if c.EliteCount > c.PopulationSize {
		c.EliteCount = c.PopulationSize
	}
	if c.TournamentSize <= 1 {
		c.TournamentSize = d.TournamentSize
	}
	if c.RoadFactor <= 0 {
		c.RoadFactor = d.RoadFactor
	}
	if c.CostPerKm <= 0 {
		c.CostPerKm = d.CostPerKm
	}
	if c.OverloadPenalty <= 0 {
		c.OverloadPenalty = d.OverloadPenalty
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Seed == 0 {
		c.Seed = d.Seed
	}
	return c
}
