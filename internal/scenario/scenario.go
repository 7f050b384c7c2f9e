// Package scenario drives the optimization pipeline with four fixed
// load profiles over the Kocaeli network. Each run is a regression
// check against the full selector-then-solver path, not a new
// algorithm.
package scenario

import (
	"context"
	"fmt"

	"cargonav/internal/model"
	"cargonav/internal/opt"
	"cargonav/internal/snapshot"
)

// Info summarizes one fixed scenario for listings.
type Info struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	CargoCount     int     `json:"cargo_count"`
	EstimatedKg    float64 `json:"estimated_weight_kg"`
	RentalExpected bool    `json:"rental_expected"`
}

type fixture struct {
	station  string
	weightKg float64
	priority int
}

var scenarios = map[int]struct {
	name, description string
	rentalExpected    bool
	cargos            []fixture
}{
	1: {
		name:        "Light day",
		description: "Normal business day, few parcels (~880 kg)",
		cargos: []fixture{
			{"gebze", 150, 0},
			{"darica", 200, 0},
			{"korfez", 100, 0},
			{"golcuk", 250, 0},
			{"kartepe", 180, 0},
		},
	},
	2: {
		name:        "Medium day",
		description: "Normal capacity use (~2100 kg)",
		cargos: []fixture{
			{"gebze", 300, 0},
			{"darica", 250, 0},
			{"cayirova", 200, 0},
			{"dilovasi", 350, 0},
			{"korfez", 280, 0},
			{"derince", 320, 0},
			{"golcuk", 180, 0},
			{"karamursel", 220, 0},
		},
	},
	3: {
		name:           "Capacity overflow",
		description:    "2700 kg against the 2250 kg base fleet, rental required",
		rentalExpected: true,
		cargos: []fixture{
			{"gebze", 400, 1},
			{"darica", 350, 1},
			{"cayirova", 300, 0},
			{"dilovasi", 450, 2},
			{"korfez", 280, 0},
			{"derince", 320, 1},
			{"golcuk", 250, 0},
			{"karamursel", 180, 0},
			{"kartepe", 170, 0},
		},
	},
	4: {
		name:        "Busy day",
		description: "Deliveries to every district (~2230 kg)",
		cargos: []fixture{
			{"gebze", 200, 0},
			{"gebze", 150, 0},
			{"darica", 180, 0},
			{"cayirova", 220, 0},
			{"dilovasi", 190, 0},
			{"korfez", 210, 0},
			{"derince", 170, 0},
			{"golcuk", 230, 0},
			{"karamursel", 160, 0},
			{"kandira", 140, 0},
			{"kartepe", 200, 0},
			{"basiskele", 180, 0},
		},
	},
}

// List returns all scenarios in id order.
func List() []Info {
	out := make([]Info, 0, len(scenarios))
	for id := 1; id <= len(scenarios); id++ {
		s := scenarios[id]
		total := 0.0
		for _, c := range s.cargos {
			total += c.weightKg
		}
		out = append(out, Info{
			ID:             id,
			Name:           s.name,
			Description:    s.description,
			CargoCount:     len(s.cargos),
			EstimatedKg:    total,
			RentalExpected: s.rentalExpected,
		})
	}
	return out
}

// Snapshot builds the fixed input of one scenario over the Kocaeli
// network. Unknown ids are an error, not a default.
func Snapshot(id int, date string) (*model.Snapshot, error) {
	s, ok := scenarios[id]
	if !ok {
		return nil, fmt.Errorf("scenario: unknown id %d", id)
	}
	snap := &model.Snapshot{
		Date:     date,
		Stations: snapshot.Stations(),
		Vehicles: snapshot.Fleet(),
	}
	for i, c := range s.cargos {
		snap.Cargos = append(snap.Cargos, model.Cargo{
			ID:         fmt.Sprintf("s%d-c%02d", id, i+1),
			TrackingNo: fmt.Sprintf("KOC-%d%03d", id, i+1),
			StationID:  c.station,
			WeightKg:   c.weightKg,
			Priority:   c.priority,
			Status:     model.CargoPending,
		})
	}
	return snap, nil
}

// Run executes one scenario through the full pipeline and returns the
// same result shape as a regular optimize call.
func Run(ctx context.Context, e *opt.Engine, id int, date string) (*model.OptimizeResult, error) {
	snap, err := Snapshot(id, date)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, model.OptimizeRequest{Date: date, Snapshot: snap})
}
