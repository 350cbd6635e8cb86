// Package classify derives a cell's elevation stratum, content type and
// content seed from its grid coordinate and the world seed.
package classify

import (
	"fmt"
	"math"

	"neotokyo.world/internal/sim/grid"
	"neotokyo.world/internal/sim/rng"
)

// Stratum is an elevation band, determined by radial distance from the grid
// center: the city rises toward its core.
type Stratum int

const (
	StratumLower Stratum = iota
	StratumMid
	StratumUpper
)

func (s Stratum) String() string {
	switch s {
	case StratumUpper:
		return "upper"
	case StratumMid:
		return "mid"
	default:
		return "lower"
	}
}

// Elevation returns the band's [base, top) range in meters.
func (s Stratum) Elevation() (base, top float64) {
	switch s {
	case StratumUpper:
		return 30, 45
	case StratumMid:
		return 15, 30
	default:
		return 0, 15
	}
}

// CellType is the closed set of cell contents.
type CellType int

const (
	TypeBuilding CellType = iota
	TypeStreet
	TypePlaza
	TypeBridge
	TypeElevator
	TypePark
	TypeAlley
)

func (t CellType) String() string {
	switch t {
	case TypeBuilding:
		return "building"
	case TypeStreet:
		return "street"
	case TypePlaza:
		return "plaza"
	case TypeBridge:
		return "bridge"
	case TypeElevator:
		return "elevator"
	case TypePark:
		return "park"
	case TypeAlley:
		return "alley"
	}
	return "unknown"
}

// CellTypes lists every type once, in declaration order.
var CellTypes = []CellType{
	TypeBuilding, TypeStreet, TypePlaza, TypeBridge, TypeElevator, TypePark, TypeAlley,
}

// StreetModulus spaces the street lattice: every 4th row and column.
const StreetModulus = 4

// Stratum thresholds over normalized radial distance.
const (
	upperRadius = 0.3
	midRadius   = 0.7
)

// CellSeed is the per-cell seed string. It drives both classification and
// content generation, and depends only on the world seed and coordinate.
func CellSeed(worldSeed string, c grid.Coord) string {
	return fmt.Sprintf("%s-cell-%d-%d", worldSeed, c.X, c.Z)
}

// StratumFor bands a cell by its normalized distance from the grid center.
// Unseeded: strata are fixed geography, the same in every world.
func StratumFor(c grid.Coord, m grid.Mapper) Stratum {
	center := m.Center()
	dx := float64(c.X - center.X)
	dz := float64(c.Z - center.Z)
	maxDist := math.Sqrt(float64(center.X*center.X + center.Z*center.Z))
	d := math.Sqrt(dx*dx+dz*dz) / maxDist
	switch {
	case d < upperRadius:
		return StratumUpper
	case d < midRadius:
		return StratumMid
	default:
		return StratumLower
	}
}

// TypeFor derives the cell type from the street lattice plus one draw from
// the cell's own generator. Callers must pass a freshly derived per-cell RNG
// so one cell's type never depends on the order cells are visited.
func TypeFor(c grid.Coord, r *rng.RNG) CellType {
	streetX := c.X%StreetModulus == 0
	streetZ := c.Z%StreetModulus == 0
	roll := r.Next()
	switch {
	case streetX && streetZ:
		// Intersections.
		switch {
		case roll < 0.1:
			return TypeElevator
		case roll < 0.3:
			return TypePlaza
		default:
			return TypeStreet
		}
	case streetX || streetZ:
		if roll < 0.05 {
			return TypeBridge
		}
		return TypeStreet
	default:
		switch {
		case roll < 0.1:
			return TypePark
		case roll < 0.2:
			return TypeAlley
		default:
			return TypeBuilding
		}
	}
}

// Classify bundles the three derivations for one cell.
func Classify(worldSeed string, c grid.Coord, m grid.Mapper) (Stratum, CellType, string) {
	seed := CellSeed(worldSeed, c)
	return StratumFor(c, m), TypeFor(c, rng.New(seed)), seed
}
