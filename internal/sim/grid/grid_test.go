package grid

import "testing"

func stdMapper() Mapper {
	return Mapper{CellSize: 20, Width: 50, Depth: 50}
}

func TestWorldToGrid_OriginIsCenterCell(t *testing.T) {
	m := stdMapper()
	got := m.WorldToGrid(0, 0)
	if got != (Coord{X: 25, Z: 25}) {
		t.Fatalf("origin maps to %+v, want (25,25)", got)
	}
}

func TestRoundTrip_AllValidCells(t *testing.T) {
	m := stdMapper()
	for x := 0; x < m.Width; x++ {
		for z := 0; z < m.Depth; z++ {
			c := Coord{X: x, Z: z}
			w := m.GridToWorld(c)
			back := m.WorldToGrid(w.X, w.Z)
			if back != c {
				t.Fatalf("round trip failed for %+v: world=%+v back=%+v", c, w, back)
			}
		}
	}
}

func TestGridToWorld_ReturnsMidpoint(t *testing.T) {
	m := stdMapper()
	w := m.GridToWorld(Coord{X: 25, Z: 25})
	if w.X != 10 || w.Z != 10 {
		t.Fatalf("center cell midpoint = (%v,%v), want (10,10)", w.X, w.Z)
	}
}

func TestWorldToGrid_NegativeCoordsFloor(t *testing.T) {
	m := stdMapper()
	// -0.5m is still inside the cell west of the origin column.
	got := m.WorldToGrid(-0.5, -0.5)
	if got != (Coord{X: 24, Z: 24}) {
		t.Fatalf("(-0.5,-0.5) maps to %+v, want (24,24)", got)
	}
}

func TestInBounds(t *testing.T) {
	m := stdMapper()
	for _, tc := range []struct {
		c    Coord
		want bool
	}{
		{Coord{0, 0}, true},
		{Coord{49, 49}, true},
		{Coord{50, 0}, false},
		{Coord{0, -1}, false},
		{Coord{-3, 70}, false},
	} {
		if got := m.InBounds(tc.c); got != tc.want {
			t.Fatalf("InBounds(%+v)=%v want %v", tc.c, got, tc.want)
		}
	}

	// A position far outside the world still maps to a coordinate; it is
	// simply out of bounds, never an error.
	c := m.WorldToGrid(1e6, -1e6)
	if m.InBounds(c) {
		t.Fatalf("far position %+v should be out of bounds", c)
	}
}

func TestChebyshev(t *testing.T) {
	if d := Chebyshev(Coord{2, 3}, Coord{5, 2}); d != 3 {
		t.Fatalf("Chebyshev=(%d) want 3", d)
	}
	if d := Chebyshev(Coord{5, 5}, Coord{5, 5}); d != 0 {
		t.Fatalf("Chebyshev same cell = %d want 0", d)
	}
}

func TestKey(t *testing.T) {
	if k := (Coord{X: 7, Z: -2}).Key(); k != "7,-2" {
		t.Fatalf("Key=%q", k)
	}
}
