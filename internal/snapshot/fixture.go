package snapshot

import (
	"context"

	"cargonav/internal/model"
)

// Stations returns the Kocaeli district network with the İzmit depot.
func Stations() []model.Station {
	return []model.Station{
		{ID: "izmit", Name: "İzmit", Lat: 40.7656, Lng: 29.9406, IsDepot: true},
		{ID: "gebze", Name: "Gebze", Lat: 40.8027, Lng: 29.4307},
		{ID: "darica", Name: "Darıca", Lat: 40.7694, Lng: 29.3753},
		{ID: "cayirova", Name: "Çayırova", Lat: 40.8267, Lng: 29.3728},
		{ID: "dilovasi", Name: "Dilovası", Lat: 40.7847, Lng: 29.5369},
		{ID: "korfez", Name: "Körfez", Lat: 40.7539, Lng: 29.7636},
		{ID: "derince", Name: "Derince", Lat: 40.7544, Lng: 29.8389},
		{ID: "golcuk", Name: "Gölcük", Lat: 40.7175, Lng: 29.8306},
		{ID: "karamursel", Name: "Karamürsel", Lat: 40.6917, Lng: 29.6167},
		{ID: "kandira", Name: "Kandıra", Lat: 41.0706, Lng: 30.1528},
		{ID: "kartepe", Name: "Kartepe", Lat: 40.7389, Lng: 30.0378},
		{ID: "basiskele", Name: "Başiskele", Lat: 40.7244, Lng: 29.9097},
	}
}

// Fleet returns the company fleet plus the two rental vans the local
// agency keeps on call. Rentals only run when the selector calls them.
func Fleet() []model.Vehicle {
	return []model.Vehicle{
		{ID: "v1", Name: "Araç 1", CapacityKg: 500, CostPerKm: 1.0},
		{ID: "v2", Name: "Araç 2", CapacityKg: 750, CostPerKm: 1.2},
		{ID: "v3", Name: "Araç 3", CapacityKg: 1000, CostPerKm: 1.5},
		{ID: "r1", Name: "Kiralık Araç 1", CapacityKg: 500, CostPerKm: 1.0, IsRental: true, DailyFee: 200},
		{ID: "r2", Name: "Kiralık Araç 2", CapacityKg: 500, CostPerKm: 1.0, IsRental: true, DailyFee: 200},
	}
}

// FixtureSource serves the built-in Kocaeli network with no pending
// cargo; callers inject the day's cargo themselves. It backs local
// development and the scenario harness.
type FixtureSource struct{}

func (FixtureSource) Snapshot(_ context.Context, date string) (*model.Snapshot, error) {
	return &model.Snapshot{
		Date:     date,
		Stations: Stations(),
		Cargos:   []model.Cargo{},
		Vehicles: Fleet(),
	}, nil
}
