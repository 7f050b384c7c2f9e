package opt

import (
	"math"
	"sort"

	"cargonav/internal/model"
)

// Selection is the capacity selector's verdict for one day: which
// cargo ships, which waits, and the candidate fleet the optimizer may
// use.
type Selection struct {
	Selected   []model.Cargo
	Deferred   []model.DeferredCargo
	Fleet      []model.Vehicle
	RentalUsed bool
	CapacityKg float64
}

// SelectLoad decides today's load. If total pending weight fits the
// base (non-rental) fleet, everything ships and the rental stays
// parked. Otherwise rentals join the candidate fleet and a 0/1
// knapsack over integer kilograms picks the subset with maximum
// priority value; the remainder is deferred with a reason code.
// Deferral is a normal outcome, not an error.
func SelectLoad(cargos []model.Cargo, fleet []model.Vehicle) Selection {
	var base, rentals []model.Vehicle
	for _, v := range fleet {
		if v.IsRental {
			rentals = append(rentals, v)
		} else {
			base = append(base, v)
		}
	}

	baseCap := 0.0
	for _, v := range base {
		baseCap += v.CapacityKg
	}
	totalW := 0.0
	for _, c := range cargos {
		totalW += c.WeightKg
	}

	if totalW <= baseCap {
		dispatch := rightSize(base, totalW)
		dispatchCap := 0.0
		for _, v := range dispatch {
			dispatchCap += v.CapacityKg
		}
		return Selection{
			Selected:   selectAll(cargos),
			Fleet:      dispatch,
			CapacityKg: dispatchCap,
		}
	}

	// Base fleet is short. Bring rentals into the candidate fleet
	// until capacity covers the demand or none are left.
	fleetCap := baseCap
	candidate := append([]model.Vehicle(nil), base...)
	for _, r := range rentals {
		if fleetCap >= totalW {
			break
		}
		candidate = append(candidate, r)
		fleetCap += r.CapacityKg
	}
	rentalUsed := len(candidate) > len(base)

	if totalW <= fleetCap {
		return Selection{
			Selected:   selectAll(cargos),
			Fleet:      candidate,
			RentalUsed: rentalUsed,
			CapacityKg: fleetCap,
		}
	}

	// Even fleet+rental capacity cannot cover everything: knapsack.
	chosen := knapsack(cargos, int(fleetCap))
	reason := model.ReasonCapacityExceeded
	if len(rentals) == 0 {
		// A rental would have carried the excess.
		reason = model.ReasonRentalRequired
	}

	sel := Selection{Fleet: candidate, RentalUsed: rentalUsed, CapacityKg: fleetCap}
	for i, c := range cargos {
		if chosen[i] {
			c.Status = model.CargoSelected
			sel.Selected = append(sel.Selected, c)
		} else {
			sel.Deferred = append(sel.Deferred, model.DeferredCargo{CargoID: c.ID, Reason: reason})
		}
	}
	return sel
}

// rightSize dispatches the fewest base vehicles that cover the load,
// largest first, so a light day does not send the whole fleet out.
func rightSize(base []model.Vehicle, totalW float64) []model.Vehicle {
	sorted := append([]model.Vehicle(nil), base...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CapacityKg > sorted[j].CapacityKg
	})
	var out []model.Vehicle
	covered := 0.0
	for _, v := range sorted {
		out = append(out, v)
		covered += v.CapacityKg
		if covered >= totalW {
			break
		}
	}
	return out
}

func selectAll(cargos []model.Cargo) []model.Cargo {
	out := make([]model.Cargo, 0, len(cargos))
	for _, c := range cargos {
		c.Status = model.CargoSelected
		out = append(out, c)
	}
	return out
}

// priorityValue scores a cargo unit for the knapsack: priority weighted
// by mass, so a heavy urgent unit outranks a light one of equal
// priority. The +1 keeps zero-priority cargo worth carrying.
func priorityValue(c model.Cargo, w int) int {
	return (c.Priority + 1) * w
}

// knapsack solves the 0/1 selection with a 1-D DP table over
// discretized weight, updated from high weight to low so each
// indivisible item is used at most once. Per-item choice rows are kept
// for back-tracking the chosen set.
func knapsack(cargos []model.Cargo, capKg int) []bool {
	n := len(cargos)
	weights := make([]int, n)
	values := make([]int, n)
	for i, c := range cargos {
		// ceil keeps the discretized selection within the real bound
		weights[i] = int(math.Ceil(c.WeightKg))
		values[i] = priorityValue(cargos[i], weights[i])
	}

	table := make([]int, capKg+1)
	take := make([][]bool, n)
	for i := 0; i < n; i++ {
		take[i] = make([]bool, capKg+1)
		for w := capKg; w >= weights[i]; w-- {
			if cand := table[w-weights[i]] + values[i]; cand > table[w] {
				table[w] = cand
				take[i][w] = true
			}
		}
	}

	chosen := make([]bool, n)
	w := capKg
	for i := n - 1; i >= 0; i-- {
		if w >= weights[i] && take[i][w] {
			chosen[i] = true
			w -= weights[i]
		}
	}
	return chosen
}
