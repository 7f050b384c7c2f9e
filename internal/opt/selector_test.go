package opt

import (
	"testing"

	"cargonav/internal/model"
)

func baseFleet() []model.Vehicle {
	return []model.Vehicle{
		{ID: "v-small", CapacityKg: 500, CostPerKm: 1.0},
		{ID: "v-mid", CapacityKg: 750, CostPerKm: 1.2},
		{ID: "v-large", CapacityKg: 1000, CostPerKm: 1.5},
	}
}

func rentalVehicle() model.Vehicle {
	return model.Vehicle{ID: "v-rental", CapacityKg: 500, CostPerKm: 1.0, IsRental: true, DailyFee: 200}
}

func cargo(id, station string, kg float64, prio int) model.Cargo {
	return model.Cargo{ID: id, StationID: station, WeightKg: kg, Priority: prio, Status: model.CargoPending}
}

func TestSelectLoadFitsBaseFleet(t *testing.T) {
	fleet := append(baseFleet(), rentalVehicle())
	cargos := []model.Cargo{
		cargo("c1", "s1", 400, 0),
		cargo("c2", "s2", 480, 1),
	}
	sel := SelectLoad(cargos, fleet)
	if len(sel.Selected) != 2 || len(sel.Deferred) != 0 {
		t.Fatalf("selected=%d deferred=%d, want 2/0", len(sel.Selected), len(sel.Deferred))
	}
	if sel.RentalUsed {
		t.Fatal("rental joined the fleet although base capacity suffices")
	}
	for _, v := range sel.Fleet {
		if v.IsRental {
			t.Fatalf("rental %s in candidate fleet", v.ID)
		}
	}
	for _, c := range sel.Selected {
		if c.Status != model.CargoSelected {
			t.Fatalf("cargo %s status %q", c.ID, c.Status)
		}
	}
}

func TestSelectLoadRightSizesFleet(t *testing.T) {
	// 880 kg fits the 1000 kg truck alone; the other two stay parked
	sel := SelectLoad([]model.Cargo{
		cargo("c1", "s1", 400, 0),
		cargo("c2", "s2", 480, 1),
	}, baseFleet())
	if len(sel.Fleet) != 1 || sel.Fleet[0].ID != "v-large" {
		t.Fatalf("dispatched %v, want only v-large", sel.Fleet)
	}
	if sel.CapacityKg != 1000 {
		t.Fatalf("capacity %v, want 1000", sel.CapacityKg)
	}

	// 2100 kg needs every base vehicle
	sel = SelectLoad([]model.Cargo{
		cargo("c1", "s1", 1000, 0),
		cargo("c2", "s2", 1100, 0),
	}, baseFleet())
	if len(sel.Fleet) != 3 {
		t.Fatalf("dispatched %d vehicles for 2100 kg, want 3", len(sel.Fleet))
	}
}

func TestSelectLoadRentalCoversOverflow(t *testing.T) {
	fleet := append(baseFleet(), rentalVehicle())
	cargos := []model.Cargo{
		cargo("c1", "s1", 900, 0),
		cargo("c2", "s2", 900, 0),
		cargo("c3", "s3", 700, 0), // 2500 > 2250 base, <= 2750 with rental
	}
	sel := SelectLoad(cargos, fleet)
	if !sel.RentalUsed {
		t.Fatal("rental not brought in for overflow load")
	}
	if len(sel.Selected) != 3 || len(sel.Deferred) != 0 {
		t.Fatalf("selected=%d deferred=%d, want 3/0", len(sel.Selected), len(sel.Deferred))
	}
	if sel.CapacityKg != 2750 {
		t.Fatalf("candidate capacity %v, want 2750", sel.CapacityKg)
	}
}

func TestSelectLoadDefersWhenEvenRentalShort(t *testing.T) {
	fleet := append(baseFleet(), rentalVehicle())
	cargos := []model.Cargo{
		cargo("c1", "s1", 1000, 2),
		cargo("c2", "s2", 1000, 2),
		cargo("c3", "s3", 700, 0),
		cargo("c4", "s4", 600, 1), // 3300 > 2750
	}
	sel := SelectLoad(cargos, fleet)
	if len(sel.Deferred) == 0 {
		t.Fatal("nothing deferred although demand exceeds total capacity")
	}
	for _, d := range sel.Deferred {
		if d.Reason != model.ReasonCapacityExceeded {
			t.Fatalf("deferred %s reason %q, want %q", d.CargoID, d.Reason, model.ReasonCapacityExceeded)
		}
	}
	var kg float64
	for _, c := range sel.Selected {
		kg += c.WeightKg
	}
	if kg > sel.CapacityKg {
		t.Fatalf("selected %v kg exceeds candidate capacity %v", kg, sel.CapacityKg)
	}
}

func TestSelectLoadReasonRentalRequired(t *testing.T) {
	cargos := []model.Cargo{
		cargo("c1", "s1", 1500, 0),
		cargo("c2", "s2", 1200, 0),
	}
	sel := SelectLoad(cargos, baseFleet()) // no rental in the pool
	if len(sel.Deferred) == 0 {
		t.Fatal("nothing deferred")
	}
	for _, d := range sel.Deferred {
		if d.Reason != model.ReasonRentalRequired {
			t.Fatalf("reason %q, want %q", d.Reason, model.ReasonRentalRequired)
		}
	}
}

func TestKnapsackMaximizesPriorityValue(t *testing.T) {
	// One 10 kg unit at priority 3 is worth 40; two 5 kg units at
	// priority 1 total 20. With 10 kg of room the single unit wins.
	cargos := []model.Cargo{
		cargo("low-a", "s1", 5, 1),
		cargo("high", "s2", 10, 3),
		cargo("low-b", "s3", 5, 1),
	}
	chosen := knapsack(cargos, 10)
	if !chosen[1] || chosen[0] || chosen[2] {
		t.Fatalf("chosen=%v, want only the high-priority unit", chosen)
	}
}

func TestKnapsackUsesEachItemOnce(t *testing.T) {
	cargos := []model.Cargo{
		cargo("c1", "s1", 7, 0),
		cargo("c2", "s2", 7, 0),
	}
	chosen := knapsack(cargos, 13)
	picked := 0
	for _, ok := range chosen {
		if ok {
			picked++
		}
	}
	if picked != 1 {
		t.Fatalf("picked %d of two 7 kg items into 13 kg, want 1", picked)
	}
}

func TestKnapsackFractionalWeightRoundsUp(t *testing.T) {
	cargos := []model.Cargo{
		cargo("c1", "s1", 9.2, 0), // discretized to 10
		cargo("c2", "s2", 9.2, 0),
	}
	chosen := knapsack(cargos, 19)
	picked := 0
	for _, ok := range chosen {
		if ok {
			picked++
		}
	}
	if picked != 1 {
		t.Fatalf("picked %d, ceil discretization must keep the real bound", picked)
	}
}
