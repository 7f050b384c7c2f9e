package geo

import (
	"context"
	"fmt"
	"sync"

	"cargonav/internal/metrics"
	"cargonav/internal/model"
)

// Estimate is the oracle's answer for one station pair. Approximate is
// set when the station graph had no path and the direct road-factor
// estimate was used instead, so callers can distinguish estimated from
// graph-derived distances.
type Estimate struct {
	DistanceKm  float64 `json:"distance_km"`
	Cost        float64 `json:"estimated_cost"`
	Approximate bool    `json:"approximate,omitempty"`
}

// Cache memoizes pairwise estimates. Implementations must be safe for
// concurrent use; entries are written at most once per pair.
type Cache interface {
	Get(a, b string) (Estimate, bool)
	Put(a, b string, e Estimate)
}

// MemoryCache is the default in-process cache, read-mostly under an
// RWMutex.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[string]Estimate
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: map[string]Estimate{}}
}

func (c *MemoryCache) Get(a, b string) (Estimate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.m[pairKey(a, b)]
	return e, ok
}

func (c *MemoryCache) Put(a, b string, e Estimate) {
	c.mu.Lock()
	c.m[pairKey(a, b)] = e
	c.mu.Unlock()
}

// pairKey is order-insensitive: the graph is undirected, so distances
// are symmetric.
func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// Oracle computes travel distance and an approximate travel cost
// between stations. Deterministic and side-effect-free for a fixed
// station set; safe for concurrent use.
type Oracle struct {
	graph     *Graph
	cache     Cache
	costPerKm float64
}

// NewOracle wraps a station graph. costPerKm prices the estimate's
// Cost field; cache may be nil, in which case an in-process cache is
// used.
func NewOracle(g *Graph, costPerKm float64, cache Cache) *Oracle {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Oracle{graph: g, cache: cache, costPerKm: costPerKm}
}

// Distance returns the travel estimate between two stations. Unknown
// station ids are the only error; a disconnected graph degrades to the
// direct haversine-with-road-factor estimate.
func (o *Oracle) Distance(a, b string) (Estimate, error) {
	sa, ok := o.graph.Station(a)
	if !ok {
		return Estimate{}, fmt.Errorf("geo: unknown station %q", a)
	}
	sb, ok := o.graph.Station(b)
	if !ok {
		return Estimate{}, fmt.Errorf("geo: unknown station %q", b)
	}
	if a == b {
		return Estimate{}, nil
	}
	if e, ok := o.cache.Get(a, b); ok {
		metrics.DistanceCacheHits.Inc()
		return e, nil
	}
	metrics.DistanceCacheMisses.Inc()

	var e Estimate
	if _, km, err := o.graph.ShortestPath(a, b); err == nil {
		e = Estimate{DistanceKm: km, Cost: km * o.costPerKm}
	} else {
		km := RoadDistance(sa.Lat, sa.Lng, sb.Lat, sb.Lng, o.graph.RoadFactor())
		e = Estimate{DistanceKm: km, Cost: km * o.costPerKm, Approximate: true}
	}
	o.cache.Put(a, b, e)
	return e, nil
}

// Path returns the waypoint coordinates of the shortest path between
// two stations, degrading to a straight segment when the graph is
// disconnected.
func (o *Oracle) Path(a, b string) ([]model.GeoPoint, error) {
	sa, ok := o.graph.Station(a)
	if !ok {
		return nil, fmt.Errorf("geo: unknown station %q", a)
	}
	sb, ok := o.graph.Station(b)
	if !ok {
		return nil, fmt.Errorf("geo: unknown station %q", b)
	}
	ids, _, err := o.graph.ShortestPath(a, b)
	if err != nil {
		return []model.GeoPoint{{Lat: sa.Lat, Lng: sa.Lng}, {Lat: sb.Lat, Lng: sb.Lng}}, nil
	}
	pts := make([]model.GeoPoint, 0, len(ids))
	for _, id := range ids {
		s, _ := o.graph.Station(id)
		pts = append(pts, model.GeoPoint{Lat: s.Lat, Lng: s.Lng})
	}
	return pts, nil
}

// Precompute fills the cache with the full pairwise table so the
// generation loop never contends on cache writes.
func (o *Oracle) Precompute(ctx context.Context) error {
	ids := o.graph.Stations()
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := o.Distance(a, b); err != nil {
				return err
			}
		}
	}
	return nil
}
