package opt

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"cargonav/internal/geo"
	"cargonav/internal/model"
)

// Plan is the optimizer's best-found solution materialized into
// concrete routes. PenaltyResidual > 0 means the run ended with
// unresolved capacity violations and should be treated as degraded.
type Plan struct {
	Routes          []model.Route
	PenaltyResidual float64
	EstimatedLegs   int
	Metrics         Metrics
}

// Metrics describes one solver run.
type Metrics struct {
	Generations  int     `json:"generations"`
	Evaluations  int     `json:"evaluations"`
	Improvements int     `json:"improvements"`
	BestFitness  float64 `json:"bestFitness"`
	FinalCost    float64 `json:"finalCost"`
	Stalled      bool    `json:"stalled"`
	Cancelled    bool    `json:"cancelled"`
	ElapsedMs    int64   `json:"elapsedMs"`
}

// stopGroup aggregates the selected cargo waiting at one station; it is
// the unit a chromosome assigns and orders.
type stopGroup struct {
	stationID string
	cargoIDs  []string
	weightKg  float64
}

// chromosome holds one ordered pickup sequence per fleet vehicle.
// Every stop group index appears exactly once across all routes.
type chromosome [][]int

func (c chromosome) clone() chromosome {
	out := make(chromosome, len(c))
	for i, r := range c {
		out[i] = append([]int(nil), r...)
	}
	return out
}

type problem struct {
	depot  model.Station
	groups []stopGroup
	fleet  []model.Vehicle
	cfg    Config

	// pairwise distances, index 0 = depot, 1..n = groups
	dist      [][]float64
	estimated [][]bool
}

// Optimize runs the genetic CVRP solver over the selected cargo and
// candidate fleet, using the distance oracle as its edge-cost function.
// Given the same seed and inputs it always returns the same plan; on
// context cancellation or an exhausted time budget the best individual
// found so far is materialized instead of blocking.
func Optimize(ctx context.Context, depot model.Station, selected []model.Cargo, fleet []model.Vehicle, oracle *geo.Oracle, cfg Config) (*Plan, error) {
	cfg = cfg.withDefaults()
	start := time.Now()

	groups := groupByStation(selected)
	p := &problem{depot: depot, groups: groups, fleet: fleet, cfg: cfg}
	if len(groups) == 0 {
		return &Plan{Routes: []model.Route{}, Metrics: Metrics{ElapsedMs: time.Since(start).Milliseconds()}}, nil
	}
	if len(fleet) == 0 {
		return nil, &model.ValidationError{Field: "vehicles", Detail: "no vehicles available"}
	}
	if err := p.buildDistances(oracle); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	pop := make([]chromosome, cfg.PopulationSize)
	pop[0] = p.greedySeed()
	for i := 1; i < cfg.PopulationSize; i++ {
		pop[i] = p.randomIndividual(rng)
	}

	fit := make([]float64, cfg.PopulationSize)
	m := Metrics{BestFitness: math.Inf(1)}

	var best chromosome
	bestFit := math.Inf(1)
	stall := 0
	var deadline time.Time
	if cfg.TimeBudget > 0 {
		deadline = start.Add(cfg.TimeBudget)
	}

	for gen := 0; gen < cfg.Generations; gen++ {
		m.Generations = gen + 1
		p.evaluate(pop, fit)
		m.Evaluations += len(pop)

		order := rankByFitness(fit)

		// local refinement on the elites; 2-opt never increases a
		// route's distance, so elite fitness only improves here
		p.refineElites(pop, fit, order[:cfg.EliteCount])
		order = rankByFitness(fit)

		if fit[order[0]] < bestFit {
			bestFit = fit[order[0]]
			best = pop[order[0]].clone()
			m.Improvements++
			m.BestFitness = bestFit
			stall = 0
		} else {
			stall++
		}

		if stall >= cfg.StallLimit {
			m.Stalled = true
			break
		}
		if ctx.Err() != nil || (!deadline.IsZero() && time.Now().After(deadline)) {
			m.Cancelled = true
			break
		}

		next := make([]chromosome, 0, cfg.PopulationSize)
		for _, idx := range order[:cfg.EliteCount] {
			next = append(next, pop[idx].clone())
		}
		for len(next) < cfg.PopulationSize {
			p1 := pop[p.tournament(rng, fit)]
			p2 := pop[p.tournament(rng, fit)]
			c1, c2 := p.crossover(rng, p1, p2)
			p.mutate(rng, c1)
			p.mutate(rng, c2)
			next = append(next, c1)
			if len(next) < cfg.PopulationSize {
				next = append(next, c2)
			}
		}
		pop = next
	}

	if best == nil {
		// generation cap of 0 cannot happen after withDefaults; still,
		// never return without a solution
		p.evaluate(pop, fit)
		order := rankByFitness(fit)
		best = pop[order[0]].clone()
		bestFit = fit[order[0]]
	}

	// final polish on the winner
	for vi := range best {
		best[vi] = p.twoOpt(best[vi])
	}
	m.BestFitness = p.fitness(best)
	m.ElapsedMs = time.Since(start).Milliseconds()

	p.assertConsistent(best)
	plan := p.materialize(best, oracle)
	plan.Metrics = m
	plan.Metrics.FinalCost = planCost(plan)
	return plan, nil
}

func planCost(p *Plan) float64 {
	total := 0.0
	for _, r := range p.Routes {
		total += r.Cost
	}
	return total
}

func groupByStation(selected []model.Cargo) []stopGroup {
	idx := map[string]int{}
	var groups []stopGroup
	for _, c := range selected {
		i, ok := idx[c.StationID]
		if !ok {
			i = len(groups)
			idx[c.StationID] = i
			groups = append(groups, stopGroup{stationID: c.StationID})
		}
		groups[i].cargoIDs = append(groups[i].cargoIDs, c.ID)
		groups[i].weightKg += c.WeightKg
	}
	return groups
}

func (p *problem) buildDistances(oracle *geo.Oracle) error {
	n := len(p.groups)
	ids := make([]string, n+1)
	ids[0] = p.depot.ID
	for i, g := range p.groups {
		ids[i+1] = g.stationID
	}
	p.dist = make([][]float64, n+1)
	p.estimated = make([][]bool, n+1)
	for i := range p.dist {
		p.dist[i] = make([]float64, n+1)
		p.estimated[i] = make([]bool, n+1)
	}
	for i := 0; i <= n; i++ {
		for j := i + 1; j <= n; j++ {
			est, err := oracle.Distance(ids[i], ids[j])
			if err != nil {
				return err
			}
			p.dist[i][j], p.dist[j][i] = est.DistanceKm, est.DistanceKm
			p.estimated[i][j], p.estimated[j][i] = est.Approximate, est.Approximate
		}
	}
	return nil
}

func (p *problem) routeDistance(route []int) float64 {
	if len(route) == 0 {
		return 0
	}
	d := p.dist[0][route[0]+1]
	for i := 0; i < len(route)-1; i++ {
		d += p.dist[route[i]+1][route[i+1]+1]
	}
	d += p.dist[route[len(route)-1]+1][0]
	return d
}

func (p *problem) routeLoad(route []int) float64 {
	w := 0.0
	for _, gi := range route {
		w += p.groups[gi].weightKg
	}
	return w
}

// fitness is the total plan cost plus a heavy per-kg penalty for
// capacity violations. Lower is better.
func (p *problem) fitness(c chromosome) float64 {
	total := 0.0
	for vi, v := range p.fleet {
		route := c[vi]
		if len(route) == 0 {
			continue
		}
		total += p.routeDistance(route) * v.CostPerKm
		if v.IsRental {
			total += v.DailyFee
		}
		if over := p.routeLoad(route) - v.CapacityKg; over > 0 {
			total += over * p.cfg.OverloadPenalty
		}
	}
	return total
}

func (p *problem) penalty(c chromosome) float64 {
	total := 0.0
	for vi, v := range p.fleet {
		if over := p.routeLoad(c[vi]) - v.CapacityKg; over > 0 {
			total += over * p.cfg.OverloadPenalty
		}
	}
	return total
}

// evaluate computes fitness for the whole population across a bounded
// worker pool. Individuals are independent; the only shared state is
// the precomputed distance matrix, which is read-only here.
func (p *problem) evaluate(pop []chromosome, fit []float64) {
	workers := p.cfg.Workers
	if workers > len(pop) {
		workers = len(pop)
	}
	if workers <= 1 {
		for i, c := range pop {
			fit[i] = p.fitness(c)
		}
		return
	}
	var wg sync.WaitGroup
	work := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				fit[i] = p.fitness(pop[i])
			}
		}()
	}
	for i := range pop {
		work <- i
	}
	close(work)
	wg.Wait()
}

func rankByFitness(fit []float64) []int {
	order := make([]int, len(fit))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return fit[order[a]] < fit[order[b]] })
	return order
}

func (p *problem) refineElites(pop []chromosome, fit []float64, elites []int) {
	var wg sync.WaitGroup
	for _, idx := range elites {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for vi := range pop[idx] {
				pop[idx][vi] = p.twoOpt(pop[idx][vi])
			}
			fit[idx] = p.fitness(pop[idx])
		}(idx)
	}
	wg.Wait()
}

// greedySeed builds one capacity-respecting individual: heaviest stop
// groups first, each to the vehicle with the most remaining capacity
// that still fits it.
func (p *problem) greedySeed() chromosome {
	order := make([]int, len(p.groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return p.groups[order[a]].weightKg > p.groups[order[b]].weightKg
	})

	c := emptyChromosome(len(p.fleet))
	loads := make([]float64, len(p.fleet))
	for _, gi := range order {
		w := p.groups[gi].weightKg
		bestV := -1
		bestRoom := -1.0
		for vi, v := range p.fleet {
			room := v.CapacityKg - loads[vi]
			if room >= w && room > bestRoom {
				bestRoom = room
				bestV = vi
			}
		}
		if bestV < 0 {
			bestV = leastLoaded(loads)
		}
		c[bestV] = append(c[bestV], gi)
		loads[bestV] += w
	}
	return c
}

func (p *problem) randomIndividual(rng *rand.Rand) chromosome {
	order := rng.Perm(len(p.groups))
	c := emptyChromosome(len(p.fleet))
	loads := make([]float64, len(p.fleet))
	for _, gi := range order {
		w := p.groups[gi].weightKg
		var fits []int
		for vi, v := range p.fleet {
			if loads[vi]+w <= v.CapacityKg {
				fits = append(fits, vi)
			}
		}
		var vi int
		if len(fits) > 0 {
			vi = fits[rng.Intn(len(fits))]
		} else {
			vi = leastLoaded(loads)
		}
		c[vi] = append(c[vi], gi)
		loads[vi] += w
	}
	return c
}

func emptyChromosome(vehicles int) chromosome {
	c := make(chromosome, vehicles)
	for i := range c {
		c[i] = []int{}
	}
	return c
}

func leastLoaded(loads []float64) int {
	best := 0
	for i, l := range loads {
		if l < loads[best] {
			best = i
		}
	}
	return best
}

// tournament draws cfg.TournamentSize individuals and returns the index
// of the fittest.
func (p *problem) tournament(rng *rand.Rand, fit []float64) int {
	best := rng.Intn(len(fit))
	for i := 1; i < p.cfg.TournamentSize; i++ {
		cand := rng.Intn(len(fit))
		if fit[cand] < fit[best] {
			best = cand
		}
	}
	return best
}

// crossover merges the parents' stop sequences with a single cut point,
// preserving order and membership validity: no stop assigned twice,
// none dropped.
func (p *problem) crossover(rng *rand.Rand, p1, p2 chromosome) (chromosome, chromosome) {
	if rng.Float64() > p.cfg.CrossoverRate {
		return p1.clone(), p2.clone()
	}
	f1 := flatten(p1)
	f2 := flatten(p2)
	if len(f1) < 2 {
		return p1.clone(), p2.clone()
	}
	point := 1 + rng.Intn(len(f1)-1)
	return p.distribute(mergeGenes(f1, f2, point)), p.distribute(mergeGenes(f2, f1, point))
}

func flatten(c chromosome) []int {
	var out []int
	for _, r := range c {
		out = append(out, r...)
	}
	return out
}

func mergeGenes(head, rest []int, point int) []int {
	out := append([]int(nil), head[:point]...)
	seen := make(map[int]bool, len(head))
	for _, g := range out {
		seen[g] = true
	}
	for _, g := range rest {
		if !seen[g] {
			out = append(out, g)
			seen[g] = true
		}
	}
	return out
}

// distribute assigns an ordered gene sequence back to vehicles: the
// least-loaded vehicle that still fits each stop, falling back to the
// least-loaded overall. Deterministic so crossover stays reproducible.
func (p *problem) distribute(order []int) chromosome {
	c := emptyChromosome(len(p.fleet))
	loads := make([]float64, len(p.fleet))
	for _, gi := range order {
		w := p.groups[gi].weightKg
		vi := -1
		for cand, v := range p.fleet {
			if loads[cand]+w > v.CapacityKg {
				continue
			}
			if vi < 0 || loads[cand] < loads[vi] {
				vi = cand
			}
		}
		if vi < 0 {
			vi = leastLoaded(loads)
		}
		c[vi] = append(c[vi], gi)
		loads[vi] += w
	}
	return c
}

// mutate applies, with probability cfg.MutationRate, one of: swapping
// two stops across routes, moving a stop to another route, or
// reversing one route. Operates in place.
func (p *problem) mutate(rng *rand.Rand, c chromosome) {
	if rng.Float64() > p.cfg.MutationRate {
		return
	}
	switch rng.Intn(3) {
	case 0: // swap two stops between routes
		occupied := nonEmptyRoutes(c)
		if len(occupied) < 2 {
			return
		}
		a := occupied[rng.Intn(len(occupied))]
		b := occupied[rng.Intn(len(occupied))]
		for b == a {
			b = occupied[rng.Intn(len(occupied))]
		}
		i := rng.Intn(len(c[a]))
		j := rng.Intn(len(c[b]))
		c[a][i], c[b][j] = c[b][j], c[a][i]
	case 1: // move a stop to another route
		occupied := nonEmptyRoutes(c)
		if len(occupied) == 0 {
			return
		}
		src := occupied[rng.Intn(len(occupied))]
		dst := rng.Intn(len(c))
		i := rng.Intn(len(c[src]))
		g := c[src][i]
		c[src] = append(c[src][:i], c[src][i+1:]...)
		c[dst] = append(c[dst], g)
	case 2: // reverse a route
		var long []int
		for vi := range c {
			if len(c[vi]) > 1 {
				long = append(long, vi)
			}
		}
		if len(long) == 0 {
			return
		}
		vi := long[rng.Intn(len(long))]
		r := c[vi]
		for a, b := 0, len(r)-1; a < b; a, b = a+1, b-1 {
			r[a], r[b] = r[b], r[a]
		}
	}
}

func nonEmptyRoutes(c chromosome) []int {
	var out []int
	for vi := range c {
		if len(c[vi]) > 0 {
			out = append(out, vi)
		}
	}
	return out
}

// twoOpt reverses contiguous sub-sequences while doing so strictly
// shortens the depot-to-depot tour; it never increases distance.
func (p *problem) twoOpt(route []int) []int {
	if len(route) < 3 {
		return route
	}
	best := append([]int(nil), route...)
	bestDist := p.routeDistance(best)
	improved := true
	for improved {
		improved = false
		for i := 0; i < len(best)-1; i++ {
			for j := i + 1; j < len(best); j++ {
				cand := append([]int(nil), best...)
				for a, b := i, j; a < b; a, b = a+1, b-1 {
					cand[a], cand[b] = cand[b], cand[a]
				}
				if d := p.routeDistance(cand); d+1e-9 < bestDist {
					best = cand
					bestDist = d
					improved = true
				}
			}
		}
	}
	return best
}

// assertConsistent panics when a stop group is assigned to zero or
// multiple routes. That state is a programming fault, never a run
// outcome.
func (p *problem) assertConsistent(c chromosome) {
	seen := make([]int, len(p.groups))
	for _, route := range c {
		for _, gi := range route {
			seen[gi]++
		}
	}
	for gi, n := range seen {
		if n != 1 {
			panic(fmt.Sprintf("opt: stop group %s assigned %d times", p.groups[gi].stationID, n))
		}
	}
}

func (p *problem) materialize(best chromosome, oracle *geo.Oracle) *Plan {
	plan := &Plan{Routes: []model.Route{}, PenaltyResidual: p.penalty(best)}
	for vi, v := range p.fleet {
		route := best[vi]
		if len(route) == 0 {
			continue
		}
		stops := make([]string, 0, len(route)+2)
		stops = append(stops, p.depot.ID)
		for _, gi := range route {
			stops = append(stops, p.groups[gi].stationID)
		}
		stops = append(stops, p.depot.ID)

		dist := p.routeDistance(route)
		cost := dist * v.CostPerKm
		if v.IsRental {
			cost += v.DailyFee
		}

		var cargoIDs []string
		load := 0.0
		for _, gi := range route {
			cargoIDs = append(cargoIDs, p.groups[gi].cargoIDs...)
			load += p.groups[gi].weightKg
		}
		sort.Strings(cargoIDs)

		plan.EstimatedLegs += p.countEstimatedLegs(route)

		plan.Routes = append(plan.Routes, model.Route{
			VehicleID:  v.ID,
			Stops:      stops,
			DistanceKm: dist,
			Cost:       cost,
			CargoIDs:   cargoIDs,
			LoadKg:     load,
			Path:       p.tourPath(stops, oracle),
		})
	}
	return plan
}

func (p *problem) countEstimatedLegs(route []int) int {
	n := 0
	if p.estimated[0][route[0]+1] {
		n++
	}
	for i := 0; i < len(route)-1; i++ {
		if p.estimated[route[i]+1][route[i+1]+1] {
			n++
		}
	}
	if p.estimated[route[len(route)-1]+1][0] {
		n++
	}
	return n
}

func (p *problem) tourPath(stops []string, oracle *geo.Oracle) []model.GeoPoint {
	var path []model.GeoPoint
	for i := 0; i < len(stops)-1; i++ {
		leg, err := oracle.Path(stops[i], stops[i+1])
		if err != nil {
			continue
		}
		if len(path) > 0 && len(leg) > 0 {
			leg = leg[1:] // joint point already present
		}
		path = append(path, leg...)
	}
	return path
}
