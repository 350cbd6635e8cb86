package world

import (
	"testing"

	"neotokyo.world/internal/sim/district"
	"neotokyo.world/internal/sim/grid"
	"neotokyo.world/internal/sim/tuning"
)

func mustWorld(t *testing.T, seed string) *World {
	t.Helper()
	w, err := New(seed, tuning.Defaults())
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	return w
}

func TestNew_BuildsFullExtent(t *testing.T) {
	w := mustWorld(t, "crimson-phoenix-academy")
	if got := len(w.Cells()); got != 2500 {
		t.Fatalf("cell count = %d, want 2500", got)
	}
	for x := 0; x < 50; x++ {
		for z := 0; z < 50; z++ {
			if _, ok := w.GetCell(x, z); !ok {
				t.Fatalf("cell (%d,%d) missing", x, z)
			}
		}
	}
}

func TestGetCell_OutOfRangeMisses(t *testing.T) {
	w := mustWorld(t, "edge-seed")
	for _, c := range []grid.Coord{{X: -1, Z: 0}, {X: 0, Z: -1}, {X: 50, Z: 0}, {X: 0, Z: 50}, {X: 1000, Z: 1000}} {
		if _, ok := w.GetCell(c.X, c.Z); ok {
			t.Fatalf("out-of-range cell %+v should miss", c)
		}
	}
}

func TestNew_RejectsBadTuning(t *testing.T) {
	cases := []func(*tuning.Tuning){
		func(t *tuning.Tuning) { t.CellSize = 0 },
		func(t *tuning.Tuning) { t.CellSize = -5 },
		func(t *tuning.Tuning) { t.WorldWidth = 0 },
		func(t *tuning.Tuning) { t.WorldDepth = -1 },
		func(t *tuning.Tuning) { t.LoadRadius = 4 },  // == unload
		func(t *tuning.Tuning) { t.LoadRadius = 7 },  // > unload
		func(t *tuning.Tuning) { t.LoadRadius = -1 },
	}
	for i, mutate := range cases {
		tune := tuning.Defaults()
		mutate(&tune)
		if _, err := New("seed", tune); err == nil {
			t.Fatalf("case %d: bad tuning %+v accepted", i, tune)
		}
	}
}

func TestExampleScenario_PlayerAtOrigin(t *testing.T) {
	w := mustWorld(t, "crimson-phoenix-academy")

	p := w.WorldToGrid(0, 0)
	if p != (grid.Coord{X: 25, Z: 25}) {
		t.Fatalf("world (0,0) maps to %+v, want (25,25)", p)
	}

	cell, ok := w.GetCell(25, 25)
	if !ok {
		t.Fatalf("center cell missing")
	}

	// District must match the nearest anchor, lowest index on ties.
	anchors := w.Anchors()
	best, bestD := 0, 1<<31
	for _, a := range anchors {
		dx := 25 - a.Pos.X
		dz := 25 - a.Pos.Z
		if d := dx*dx + dz*dz; d < bestD {
			best, bestD = a.Index, d
		}
	}
	if cell.District != best {
		t.Fatalf("center district = %d, nearest anchor is %d", cell.District, best)
	}
	if cell.DistrictID != district.ID(best) {
		t.Fatalf("district id %q does not match index %d", cell.DistrictID, best)
	}

	// Bit-for-bit reproducible across constructions.
	again := mustWorld(t, "crimson-phoenix-academy")
	cell2, _ := again.GetCell(25, 25)
	if *cell != *cell2 {
		t.Fatalf("center cell not reproducible: %+v vs %+v", cell, cell2)
	}
}

func TestCellAt_WorldSpaceLookup(t *testing.T) {
	w := mustWorld(t, "lookup-seed")
	cell, ok := w.CellAt(0, 0)
	if !ok || cell.Coord != (grid.Coord{X: 25, Z: 25}) {
		t.Fatalf("CellAt(0,0) = %+v ok=%v", cell, ok)
	}
	if _, ok := w.CellAt(1e6, 1e6); ok {
		t.Fatalf("CellAt far outside the world should miss")
	}
}

func TestCensus_CoversEverything(t *testing.T) {
	w := mustWorld(t, "census-seed")
	c := w.Census()
	total := 0
	for _, n := range c.ByDistrict {
		total += n
	}
	if total != 2500 {
		t.Fatalf("district census sums to %d, want 2500", total)
	}
	total = 0
	for _, n := range c.ByType {
		total += n
	}
	if total != 2500 {
		t.Fatalf("type census sums to %d, want 2500", total)
	}
}

func TestWorldPos_CarriesStratumElevation(t *testing.T) {
	w := mustWorld(t, "elev-seed")
	for _, cell := range w.Cells() {
		base, _ := cell.Stratum.Elevation()
		if cell.WorldPos.Y != base {
			t.Fatalf("cell %+v Y=%v, stratum base=%v", cell.Coord, cell.WorldPos.Y, base)
		}
	}
}
