package opt

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cargonav/internal/geo"
	"cargonav/internal/metrics"
	"cargonav/internal/model"
)

// Engine wires the capacity selector, the distance oracle and the
// genetic solver into one run pipeline. It is safe for concurrent use;
// each run builds its own graph and oracle and shares only the
// distance cache.
type Engine struct {
	cfg   Config
	cache geo.Cache
}

// NewEngine returns an engine with the given tuning. cache may be nil,
// in which case every run keeps distances in its own in-memory cache.
func NewEngine(cfg Config, cache geo.Cache) *Engine {
	return &Engine{cfg: cfg.withDefaults(), cache: cache}
}

func (e *Engine) Config() Config { return e.cfg }

// Validate rejects malformed snapshots before any solver work is spent
// on them. All failures are *model.ValidationError.
func Validate(snap *model.Snapshot) error {
	if snap == nil {
		return &model.ValidationError{Field: "snapshot", Detail: "missing"}
	}
	if len(snap.Stations) == 0 {
		return &model.ValidationError{Field: "stations", Detail: "empty"}
	}
	ids := make(map[string]bool, len(snap.Stations))
	depots := 0
	depotID := ""
	for i, s := range snap.Stations {
		if s.ID == "" {
			return &model.ValidationError{Field: fmt.Sprintf("stations[%d].id", i), Detail: "empty"}
		}
		if ids[s.ID] {
			return &model.ValidationError{Field: fmt.Sprintf("stations[%d].id", i), Detail: "duplicate id " + s.ID}
		}
		ids[s.ID] = true
		if s.Lat < -90 || s.Lat > 90 || s.Lng < -180 || s.Lng > 180 {
			return &model.ValidationError{Field: fmt.Sprintf("stations[%d]", i), Detail: "coordinates out of range"}
		}
		if s.IsDepot {
			depots++
			depotID = s.ID
		}
	}
	if depots != 1 {
		return &model.ValidationError{Field: "stations", Detail: fmt.Sprintf("want exactly one depot, have %d", depots)}
	}
	if len(snap.Vehicles) == 0 {
		return &model.ValidationError{Field: "vehicles", Detail: "empty"}
	}
	for i, v := range snap.Vehicles {
		if v.CapacityKg <= 0 {
			return &model.ValidationError{Field: fmt.Sprintf("vehicles[%d].capacity_kg", i), Detail: "must be positive"}
		}
		if v.CostPerKm < 0 {
			return &model.ValidationError{Field: fmt.Sprintf("vehicles[%d].cost_per_km", i), Detail: "must not be negative"}
		}
	}
	for i, c := range snap.Cargos {
		if c.WeightKg <= 0 {
			return &model.ValidationError{Field: fmt.Sprintf("cargos[%d].weight_kg", i), Detail: "must be positive"}
		}
		if !ids[c.StationID] {
			return &model.ValidationError{Field: fmt.Sprintf("cargos[%d].destination_station_id", i), Detail: "unknown station " + c.StationID}
		}
		if c.StationID == depotID {
			return &model.ValidationError{Field: fmt.Sprintf("cargos[%d].destination_station_id", i), Detail: "cargo already at the depot"}
		}
	}
	return nil
}

// Run executes one full optimization: select the day's load, build the
// distance oracle, solve the routing problem, and assemble the result
// with its cost breakdown.
func (e *Engine) Run(ctx context.Context, req model.OptimizeRequest) (*model.OptimizeResult, error) {
	snap := req.Snapshot
	if err := Validate(snap); err != nil {
		return nil, err
	}

	cfg := e.cfg
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	if req.Generations > 0 {
		cfg.Generations = req.Generations
	}
	if req.TimeBudgetMs > 0 {
		cfg.TimeBudget = time.Duration(req.TimeBudgetMs) * time.Millisecond
	}

	start := time.Now()

	sel := SelectLoad(snap.Cargos, snap.Vehicles)
	for _, d := range sel.Deferred {
		metrics.DeferredCargo.WithLabelValues(d.Reason).Inc()
	}

	graph := geo.CompleteGraph(snap.Stations, cfg.RoadFactor)
	oracle := geo.NewOracle(graph, cfg.CostPerKm, e.cache)
	if err := oracle.Precompute(ctx); err != nil {
		return nil, err
	}

	var depot model.Station
	for _, s := range snap.Stations {
		if s.IsDepot {
			depot = s
		}
	}

	plan, err := Optimize(ctx, depot, sel.Selected, sel.Fleet, oracle, cfg)
	if err != nil {
		return nil, err
	}

	date := req.Date
	if date == "" {
		date = snap.Date
	}

	res := &model.OptimizeResult{
		RunID:           uuid.NewString(),
		Date:            date,
		Routes:          plan.Routes,
		Deferred:        sel.Deferred,
		RentalUsed:      false,
		PenaltyResidual: plan.PenaltyResidual,
		EstimatedLegs:   plan.EstimatedLegs,
	}
	if res.Deferred == nil {
		res.Deferred = []model.DeferredCargo{}
	}

	rentalByID := make(map[string]float64)
	for _, v := range sel.Fleet {
		if v.IsRental {
			rentalByID[v.ID] = v.DailyFee
		}
	}
	for _, r := range plan.Routes {
		res.Totals.DistanceKm += r.DistanceKm
		res.Totals.Cost += r.Cost
		if fee, ok := rentalByID[r.VehicleID]; ok {
			res.Totals.RentalCost += fee
			res.RentalUsed = true
		}
	}
	res.Totals.FuelCost = res.Totals.Cost - res.Totals.RentalCost

	RecordMetrics(res.RunID, res.Date, plan.Metrics)
	metrics.OptimizeDuration.Observe(time.Since(start).Seconds())
	return res, nil
}
