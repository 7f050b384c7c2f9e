package geo

import (
	"container/heap"
	"errors"
	"math"
	"sort"

	"cargonav/internal/model"
)

// ErrNoPathFound is returned when no route exists between two stations.
// Callers fall back to the direct road-factor estimate instead of
// aborting the run.
var ErrNoPathFound = errors.New("geo: no path found")

// Edge is one undirected road segment between two stations.
type Edge struct {
	From     string
	To       string
	WeightKm float64
}

type neighbor struct {
	id string
	km float64
}

// Graph is a weighted undirected station graph searched with A*.
// The heuristic is haversine distance scaled by roadFactor; with edge
// weights of at least that scale the heuristic never overestimates, so
// returned paths are optimal.
type Graph struct {
	nodes      map[string]model.Station
	order      []string
	adj        map[string][]neighbor
	roadFactor float64
}

// NewGraph builds a graph from an explicit road adjacency list.
// roadFactor must match the scale embedded in the edge weights to keep
// the heuristic admissible; pass 1 for true road distances.
func NewGraph(stations []model.Station, edges []Edge, roadFactor float64) *Graph {
	g := newEmpty(stations, roadFactor)
	for _, e := range edges {
		if _, ok := g.nodes[e.From]; !ok {
			continue
		}
		if _, ok := g.nodes[e.To]; !ok {
			continue
		}
		g.adj[e.From] = append(g.adj[e.From], neighbor{id: e.To, km: e.WeightKm})
		g.adj[e.To] = append(g.adj[e.To], neighbor{id: e.From, km: e.WeightKm})
	}
	return g
}

// CompleteGraph connects every station pair with an edge weighted by
// great-circle distance scaled by roadFactor. This is the default
// topology when no real road graph is available.
func CompleteGraph(stations []model.Station, roadFactor float64) *Graph {
	g := newEmpty(stations, roadFactor)
	for i, a := range stations {
		for j, b := range stations {
			if i >= j {
				continue
			}
			km := RoadDistance(a.Lat, a.Lng, b.Lat, b.Lng, g.roadFactor)
			g.adj[a.ID] = append(g.adj[a.ID], neighbor{id: b.ID, km: km})
			g.adj[b.ID] = append(g.adj[b.ID], neighbor{id: a.ID, km: km})
		}
	}
	return g
}

func newEmpty(stations []model.Station, roadFactor float64) *Graph {
	if roadFactor <= 0 {
		roadFactor = DefaultRoadFactor
	}
	g := &Graph{
		nodes:      make(map[string]model.Station, len(stations)),
		adj:        make(map[string][]neighbor, len(stations)),
		roadFactor: roadFactor,
	}
	for _, s := range stations {
		g.nodes[s.ID] = s
		g.order = append(g.order, s.ID)
		g.adj[s.ID] = nil
	}
	sort.Strings(g.order)
	return g
}

// RoadFactor reports the scale factor the graph's heuristic uses.
func (g *Graph) RoadFactor() float64 { return g.roadFactor }

// Station looks up a node by id.
func (g *Graph) Station(id string) (model.Station, bool) {
	s, ok := g.nodes[id]
	return s, ok
}

// Stations returns all node ids in deterministic order.
func (g *Graph) Stations() []string {
	return append([]string(nil), g.order...)
}

func (g *Graph) heuristic(from, to model.Station) float64 {
	return Haversine(from.Lat, from.Lng, to.Lat, to.Lng) * g.roadFactor
}

// pqItem is an open-set entry: ordered by f = g + h, ties broken by the
// lower h (prefer nodes closer to the goal), then by insertion sequence
// for determinism.
type pqItem struct {
	id  string
	f   float64
	h   float64
	seq int
}

type openSet []pqItem

func (o openSet) Len() int { return len(o) }
func (o openSet) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	if o[i].h != o[j].h {
		return o[i].h < o[j].h
	}
	return o[i].seq < o[j].seq
}
func (o openSet) Swap(i, j int)      { o[i], o[j] = o[j], o[i] }
func (o *openSet) Push(x any)        { *o = append(*o, x.(pqItem)) }
func (o *openSet) Pop() any {
	old := *o
	n := len(old)
	it := old[n-1]
	*o = old[:n-1]
	return it
}

// ShortestPath runs A* from one station to another and returns the node
// sequence and total distance in kilometers.
func (g *Graph) ShortestPath(from, to string) ([]string, float64, error) {
	src, ok := g.nodes[from]
	if !ok {
		return nil, 0, ErrNoPathFound
	}
	dst, ok := g.nodes[to]
	if !ok {
		return nil, 0, ErrNoPathFound
	}
	if from == to {
		return []string{from}, 0, nil
	}

	gScore := map[string]float64{from: 0}
	cameFrom := map[string]string{}
	closed := map[string]bool{}

	seq := 0
	open := openSet{{id: from, f: g.heuristic(src, dst), h: g.heuristic(src, dst)}}
	heap.Init(&open)

	for open.Len() > 0 {
		cur := heap.Pop(&open).(pqItem)
		if closed[cur.id] {
			continue
		}
		if cur.id == to {
			path := []string{cur.id}
			for p, ok := cameFrom[path[0]]; ok; p, ok = cameFrom[path[0]] {
				path = append([]string{p}, path...)
			}
			return path, gScore[to], nil
		}
		closed[cur.id] = true

		for _, nb := range g.adj[cur.id] {
			if closed[nb.id] {
				continue
			}
			tentative := gScore[cur.id] + nb.km
			if best, ok := gScore[nb.id]; ok && tentative >= best {
				continue
			}
			gScore[nb.id] = tentative
			cameFrom[nb.id] = cur.id
			h := g.heuristic(g.nodes[nb.id], dst)
			seq++
			heap.Push(&open, pqItem{id: nb.id, f: tentative + h, h: h, seq: seq})
		}
	}
	return nil, math.Inf(1), ErrNoPathFound
}
