// Package stream drives the cell load/unload lifecycle around the player.
// Two radii with hysteresis: cells load inside the smaller radius and only
// unload past the larger one, so jitter at a boundary never thrashes.
package stream

import (
	"fmt"
	"sync"

	"neotokyo.world/internal/sim/catalogs"
	"neotokyo.world/internal/sim/content"
	"neotokyo.world/internal/sim/grid"
	"neotokyo.world/internal/sim/world"
)

// Window owns the manifest cache for one viewer. All persistent cell state
// lives in the World; the window's only state is the cache plus the lock
// that keeps a whole tick atomic against concurrent readers.
type Window struct {
	mu        sync.Mutex
	world     *world.World
	profiles  *catalogs.Catalogs
	manifests map[grid.Coord]*content.Manifest
}

func NewWindow(w *world.World, cats *catalogs.Catalogs) *Window {
	return &Window{
		world:     w,
		profiles:  cats,
		manifests: map[grid.Coord]*content.Manifest{},
	}
}

// LoadedCell pairs a cell with its freshly generated manifest.
type LoadedCell struct {
	Cell     *world.Cell
	Manifest *content.Manifest
}

// Result is what one tick asks the renderer to do.
type Result struct {
	Loaded   []LoadedCell
	Unloaded []grid.Coord
}

// Tick runs one streaming pass for a player position: generate and commit
// loads first, then unloads, so a cell in the radii overlap is never absent
// from both windows within one tick. The pass is atomic: a cell is loaded
// iff its manifest is cached, and two overlapping passes cannot both decide
// to load the same cell.
func (s *Window) Tick(playerX, playerZ float64) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res Result
	for _, cell := range s.world.CellsToLoad(playerX, playerZ) {
		if s.world.IsLoaded(cell.Coord) {
			// Idempotence: at most one generation per load transition.
			continue
		}
		profile, ok := s.profiles.Districts.ByID[cell.DistrictID]
		if !ok {
			return Result{}, fmt.Errorf("cell %s: no profile for district %q", cell.Coord.Key(), cell.DistrictID)
		}
		m, err := content.Generate(cell, profile, s.world.Tuning().CellSize)
		if err != nil {
			return Result{}, fmt.Errorf("generate %s: %w", cell.Coord.Key(), err)
		}
		s.manifests[cell.Coord] = m
		s.world.MarkLoaded(cell.Coord)
		res.Loaded = append(res.Loaded, LoadedCell{Cell: cell, Manifest: m})
	}

	for _, cell := range s.world.CellsToUnload(playerX, playerZ) {
		delete(s.manifests, cell.Coord)
		s.world.MarkUnloaded(cell.Coord)
		res.Unloaded = append(res.Unloaded, cell.Coord)
	}
	return res, nil
}

// Manifest returns the cached manifest for a loaded cell.
func (s *Window) Manifest(c grid.Coord) (*content.Manifest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.manifests[c]
	return m, ok
}

// LoadedCount reports the cache size; it always equals the world's loaded
// cell count.
func (s *Window) LoadedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.manifests)
}
