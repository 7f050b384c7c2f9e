package model

import "fmt"

// Cargo lifecycle statuses. The capacity selector owns the
// pending -> selected/deferred transitions, the route optimizer owns
// selected -> assigned.
const (
	CargoPending   = "pending"
	CargoSelected  = "selected"
	CargoDeferred  = "deferred"
	CargoAssigned  = "assigned"
	CargoDelivered = "delivered"
)

// Deferral reason codes returned with every deferred cargo.
const (
	ReasonCapacityExceeded = "capacity_exceeded"
	ReasonRentalRequired   = "rental_required"
)

// Station is a district stop or the central depot. Exactly one station
// per snapshot carries IsDepot; every route starts and ends there.
type Station struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	IsDepot bool    `json:"is_depot"`
}

// Cargo is one indivisible pickup unit waiting at a district station.
type Cargo struct {
	ID         string  `json:"id"`
	TrackingNo string  `json:"tracking_no"`
	StationID  string  `json:"destination_station_id"`
	WeightKg   float64 `json:"weight_kg"`
	Priority   int     `json:"priority"`
	Status     string  `json:"status"`
}

// Vehicle is a read-only fleet member. Rentals carry a fixed daily fee
// and only enter a run when the base fleet capacity is insufficient.
type Vehicle struct {
	ID         string  `json:"id"`
	Name       string  `json:"name,omitempty"`
	CapacityKg float64 `json:"capacity_kg"`
	CostPerKm  float64 `json:"cost_per_km"`
	IsRental   bool    `json:"is_rental"`
	DailyFee   float64 `json:"daily_fee,omitempty"`
}

// Snapshot is the immutable input of one optimization run.
type Snapshot struct {
	Date     string    `json:"date,omitempty"`
	Stations []Station `json:"stations"`
	Cargos   []Cargo   `json:"cargos"`
	Vehicles []Vehicle `json:"vehicles"`
}

// GeoPoint is a lat/lng coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Route is one vehicle's planned pickup tour. Stops include the depot
// as first and last entry; Path holds the A*-derived waypoints for
// callers that draw the tour.
type Route struct {
	VehicleID  string     `json:"vehicle_id"`
	Stops      []string   `json:"stops"`
	DistanceKm float64    `json:"distance_km"`
	Cost       float64    `json:"cost"`
	CargoIDs   []string   `json:"assigned_cargo_ids"`
	LoadKg     float64    `json:"load_kg"`
	Path       []GeoPoint `json:"path,omitempty"`
}

// DeferredCargo names a cargo unit that does not ship today and why.
type DeferredCargo struct {
	CargoID string `json:"cargo_id"`
	Reason  string `json:"reason"`
}

// Totals is the cost breakdown of a run. FuelCost is the
// distance-proportional share, RentalCost the sum of rental daily fees.
type Totals struct {
	DistanceKm float64 `json:"total_distance_km"`
	Cost       float64 `json:"total_cost"`
	FuelCost   float64 `json:"fuel_cost"`
	RentalCost float64 `json:"rental_cost"`
}

// OptimizeResult is the single terminal output of a run.
// PenaltyResidual > 0 marks a degraded result: the solver could not
// breed out every capacity violation within its budget.
type OptimizeResult struct {
	RunID           string          `json:"run_id"`
	Date            string          `json:"date,omitempty"`
	Routes          []Route         `json:"routes"`
	Deferred        []DeferredCargo `json:"deferred_cargo"`
	Totals          Totals          `json:"totals"`
	RentalUsed      bool            `json:"rental_used"`
	PenaltyResidual float64         `json:"penalty_residual,omitempty"`
	EstimatedLegs   int             `json:"estimated_legs,omitempty"`
}

// OptimizeRequest is the HTTP-facing run request. Snapshot may be
// inlined; otherwise the configured snapshot source supplies one for
// Date.
type OptimizeRequest struct {
	Date         string    `json:"date,omitempty"`
	Snapshot     *Snapshot `json:"snapshot,omitempty"`
	Seed         int64     `json:"seed,omitempty"`
	Generations  int       `json:"generations,omitempty"`
	TimeBudgetMs int       `json:"timeBudgetMs,omitempty"`
}

// ValidationError reports a snapshot rejected before optimization.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid snapshot: %s: %s", e.Field, e.Detail)
}
