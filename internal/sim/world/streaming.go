package world

import (
	"sort"

	"neotokyo.world/internal/sim/grid"
)

// CellsToLoad returns the unloaded cells inside the load window: a square of
// side 2*load_radius+1 centered on the player's cell. It never mutates load
// state; committing is the streaming driver's job, so a failed content pass
// cannot corrupt the world.
func (w *World) CellsToLoad(playerX, playerZ float64) []*Cell {
	p := w.mapper.WorldToGrid(playerX, playerZ)
	r := w.tune.LoadRadius
	out := []*Cell{}
	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			c := grid.Coord{X: p.X + dx, Z: p.Z + dz}
			cell, ok := w.cells[c]
			if !ok || w.loaded[c] {
				continue
			}
			out = append(out, cell)
		}
	}
	return out
}

// CellsToUnload returns every loaded cell whose Chebyshev distance from the
// player's cell exceeds the unload radius. It scans the whole loaded set
// rather than a local window, so a teleporting player still sheds everything
// now out of range.
func (w *World) CellsToUnload(playerX, playerZ float64) []*Cell {
	p := w.mapper.WorldToGrid(playerX, playerZ)
	keys := make([]grid.Coord, 0, len(w.loaded))
	for c, on := range w.loaded {
		if on {
			keys = append(keys, c)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].X != keys[j].X {
			return keys[i].X < keys[j].X
		}
		return keys[i].Z < keys[j].Z
	})
	out := []*Cell{}
	for _, c := range keys {
		if grid.Chebyshev(c, p) > w.tune.UnloadRadius {
			out = append(out, w.cells[c])
		}
	}
	return out
}

// MarkLoaded and MarkUnloaded are the only mutators of load state.
func (w *World) MarkLoaded(c grid.Coord) {
	if _, ok := w.cells[c]; ok {
		w.loaded[c] = true
	}
}

func (w *World) MarkUnloaded(c grid.Coord) {
	delete(w.loaded, c)
}

// IsLoaded reports whether a cell's content is currently materialized.
func (w *World) IsLoaded(c grid.Coord) bool { return w.loaded[c] }

// LoadedCount returns the number of loaded cells.
func (w *World) LoadedCount() int { return len(w.loaded) }
