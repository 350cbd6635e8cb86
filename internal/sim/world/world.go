// Package world owns the full set of cell descriptors for one seeded city
// and is the single source of truth for what exists where.
package world

import (
	"fmt"

	"neotokyo.world/internal/sim/classify"
	"neotokyo.world/internal/sim/district"
	"neotokyo.world/internal/sim/grid"
	"neotokyo.world/internal/sim/tuning"
)

// Cell is an immutable descriptor: everything here is a pure function of
// (world seed, coordinate). Load state lives in a separate map owned by the
// world and mutated only through MarkLoaded/MarkUnloaded, so descriptor
// purity and load mutability never mix in one type.
type Cell struct {
	Coord      grid.Coord
	District   int
	DistrictID string
	Stratum    classify.Stratum
	Type       classify.CellType
	Seed       string
	WorldPos   grid.WorldPos
}

// World materializes every cell descriptor eagerly at construction. At the
// reference 50x50 extent that is 2,500 cells, cheap enough to remove the
// whole "was this cell initialized yet" failure class.
type World struct {
	seed   string
	tune   tuning.Tuning
	mapper grid.Mapper
	part   *district.Partitioner

	cells  map[grid.Coord]*Cell
	order  []grid.Coord
	loaded map[grid.Coord]bool
}

// New builds the world for a seed. Any seed string yields a valid world;
// inconsistent tuning is the only construction failure.
func New(seed string, tune tuning.Tuning) (*World, error) {
	if err := validate(tune); err != nil {
		return nil, err
	}
	m := grid.Mapper{CellSize: tune.CellSize, Width: tune.WorldWidth, Depth: tune.WorldDepth}
	w := &World{
		seed:   seed,
		tune:   tune,
		mapper: m,
		part:   district.New(seed, tune.WorldWidth, tune.WorldDepth),
		cells:  make(map[grid.Coord]*Cell, tune.WorldWidth*tune.WorldDepth),
		order:  make([]grid.Coord, 0, tune.WorldWidth*tune.WorldDepth),
		loaded: map[grid.Coord]bool{},
	}

	// x outer, z inner. The order is a construction detail only; every
	// cell's result is independent of it.
	for x := 0; x < tune.WorldWidth; x++ {
		for z := 0; z < tune.WorldDepth; z++ {
			c := grid.Coord{X: x, Z: z}
			stratum, cellType, cellSeed := classify.Classify(seed, c, m)
			pos := m.GridToWorld(c)
			pos.Y, _ = stratum.Elevation()
			idx := w.part.Assign(c)
			w.cells[c] = &Cell{
				Coord:      c,
				District:   idx,
				DistrictID: district.ID(idx),
				Stratum:    stratum,
				Type:       cellType,
				Seed:       cellSeed,
				WorldPos:   pos,
			}
			w.order = append(w.order, c)
		}
	}
	return w, nil
}

func validate(t tuning.Tuning) error {
	switch {
	case t.CellSize <= 0:
		return fmt.Errorf("tuning: cell_size must be positive, got %v", t.CellSize)
	case t.WorldWidth <= 0 || t.WorldDepth <= 0:
		return fmt.Errorf("tuning: world extent must be positive, got %dx%d", t.WorldWidth, t.WorldDepth)
	case t.LoadRadius < 0:
		return fmt.Errorf("tuning: load_radius must be >= 0, got %d", t.LoadRadius)
	case t.LoadRadius >= t.UnloadRadius:
		return fmt.Errorf("tuning: load_radius (%d) must be < unload_radius (%d)", t.LoadRadius, t.UnloadRadius)
	}
	return nil
}

func (w *World) Seed() string          { return w.seed }
func (w *World) Tuning() tuning.Tuning { return w.tune }
func (w *World) Mapper() grid.Mapper   { return w.mapper }

// Anchors returns the district anchor set in draw order.
func (w *World) Anchors() []district.Anchor { return w.part.Anchors() }

// GetCell looks up a cell by grid coordinate. Out-of-range lookups miss;
// boundary queries are routine, not errors.
func (w *World) GetCell(x, z int) (*Cell, bool) {
	c, ok := w.cells[grid.Coord{X: x, Z: z}]
	return c, ok
}

// CellAt looks up the cell containing a world-space position.
func (w *World) CellAt(x, z float64) (*Cell, bool) {
	g := w.mapper.WorldToGrid(x, z)
	return w.GetCell(g.X, g.Z)
}

func (w *World) WorldToGrid(x, z float64) grid.Coord    { return w.mapper.WorldToGrid(x, z) }
func (w *World) GridToWorld(c grid.Coord) grid.WorldPos { return w.mapper.GridToWorld(c) }

// Cells returns every descriptor in construction order (x outer, z inner).
func (w *World) Cells() []*Cell {
	out := make([]*Cell, 0, len(w.order))
	for _, c := range w.order {
		out = append(out, w.cells[c])
	}
	return out
}
