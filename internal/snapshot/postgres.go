package snapshot

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"cargonav/internal/model"
)

// Postgres loads run snapshots from the dispatch database. Reads only;
// run results never flow back through this source.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) Snapshot(ctx context.Context, date string) (*model.Snapshot, error) {
	snap := &model.Snapshot{Date: date}

	rows, err := p.db.QueryContext(ctx, `SELECT id::text, name, lat, lng, is_depot FROM stations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: stations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s model.Station
		if err := rows.Scan(&s.ID, &s.Name, &s.Lat, &s.Lng, &s.IsDepot); err != nil {
			return nil, err
		}
		snap.Stations = append(snap.Stations, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	crows, err := p.db.QueryContext(ctx, `SELECT id::text, tracking_no, dest_station_id::text, weight_kg, priority FROM cargos WHERE status='pending' AND pickup_date=$1 ORDER BY id`, date)
	if err != nil {
		return nil, fmt.Errorf("snapshot: cargos: %w", err)
	}
	defer crows.Close()
	for crows.Next() {
		c := model.Cargo{Status: model.CargoPending}
		if err := crows.Scan(&c.ID, &c.TrackingNo, &c.StationID, &c.WeightKg, &c.Priority); err != nil {
			return nil, err
		}
		snap.Cargos = append(snap.Cargos, c)
	}
	if err := crows.Err(); err != nil {
		return nil, err
	}

	vrows, err := p.db.QueryContext(ctx, `SELECT id::text, name, capacity_kg, cost_per_km, is_rental, daily_fee FROM vehicles WHERE is_available ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: vehicles: %w", err)
	}
	defer vrows.Close()
	for vrows.Next() {
		var v model.Vehicle
		if err := vrows.Scan(&v.ID, &v.Name, &v.CapacityKg, &v.CostPerKm, &v.IsRental, &v.DailyFee); err != nil {
			return nil, err
		}
		snap.Vehicles = append(snap.Vehicles, v)
	}
	if err := vrows.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}
