// Package grid converts between continuous world space (meters) and the
// discrete cell grid, and defines the coordinate value types shared by the
// rest of the sim.
package grid

import (
	"fmt"
	"math"
)

// Coord is a discrete grid cell index pair. Valid cells live in
// [0,Width) x [0,Depth); out-of-range values are representable (they fall
// out of window scans near the world edge) but never exist in the world.
type Coord struct {
	X int
	Z int
}

// Key returns the stable string form "x,z" used for map keys, logs and the
// wire protocol.
func (c Coord) Key() string {
	return fmt.Sprintf("%d,%d", c.X, c.Z)
}

// Chebyshev returns max(|dx|,|dz|), the grid distance used by the streaming
// radii.
func Chebyshev(a, b Coord) int {
	dx := absInt(a.X - b.X)
	dz := absInt(a.Z - b.Z)
	if dx > dz {
		return dx
	}
	return dz
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// WorldPos is a continuous position in meters.
type WorldPos struct {
	X float64
	Y float64
	Z float64
}

// Mapper is the affine world<->grid transform. World (0,0) sits at the
// center of the grid, so cell (Width/2, Depth/2) contains the origin.
type Mapper struct {
	CellSize float64
	Width    int
	Depth    int
}

// WorldToGrid maps a world-space position to the cell containing it.
func (m Mapper) WorldToGrid(x, z float64) Coord {
	return Coord{
		X: int(math.Floor(x/m.CellSize)) + m.Width/2,
		Z: int(math.Floor(z/m.CellSize)) + m.Depth/2,
	}
}

// GridToWorld returns the midpoint of the cell, not its corner, so that
// WorldToGrid(GridToWorld(c)) == c for every valid c. Y is left at zero;
// elevation comes from the cell's stratum.
func (m Mapper) GridToWorld(c Coord) WorldPos {
	return WorldPos{
		X: (float64(c.X-m.Width/2) + 0.5) * m.CellSize,
		Z: (float64(c.Z-m.Depth/2) + 0.5) * m.CellSize,
	}
}

// InBounds reports whether c indexes an existing cell.
func (m Mapper) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < m.Width && c.Z >= 0 && c.Z < m.Depth
}

// Center returns the grid center cell, the reference point for elevation
// strata.
func (m Mapper) Center() Coord {
	return Coord{X: m.Width / 2, Z: m.Depth / 2}
}
