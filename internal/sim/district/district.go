// Package district assigns grid cells to named districts by nearest-anchor
// partitioning (a discrete Voronoi diagram over seed-derived anchor points).
package district

import (
	"neotokyo.world/internal/sim/grid"
	"neotokyo.world/internal/sim/rng"
)

// NumDistricts is fixed; seed-compatible worlds depend on it.
const NumDistricts = 10

// IDs maps anchor draw order to district identity. The table is ordered and
// never randomized, so district identity is a pure function of draw order.
var IDs = [NumDistricts]string{
	"academy",
	"neon-market",
	"corporate",
	"residential",
	"industrial",
	"harbor",
	"temple",
	"entertainment",
	"undercity",
	"transit-hub",
}

// Anchor is one district center point, fixed at world construction.
type Anchor struct {
	Index int
	Pos   grid.Coord
}

// Partitioner holds the anchor set for one world. Read-only after
// construction; safe to share across concurrent readers.
type Partitioner struct {
	anchors [NumDistricts]Anchor
}

// New draws the anchor points from the world seed's "-districts" child
// generator: one x draw then one z draw per anchor, in index order.
func New(worldSeed string, width, depth int) *Partitioner {
	r := rng.New(worldSeed).Sub("districts")
	p := &Partitioner{}
	for i := 0; i < NumDistricts; i++ {
		ax := int(r.Next() * float64(width))
		az := int(r.Next() * float64(depth))
		p.anchors[i] = Anchor{Index: i, Pos: grid.Coord{X: ax, Z: az}}
	}
	return p
}

// Anchors returns the anchor set in draw order.
func (p *Partitioner) Anchors() []Anchor {
	out := make([]Anchor, NumDistricts)
	copy(out, p.anchors[:])
	return out
}

// Assign returns the index of the nearest anchor by squared Euclidean
// distance. The scan is linear in draw order with a strict < comparison, so
// exact ties go to the lowest index. That tie-break is part of the
// deterministic contract and must not be "improved" to a geometric one.
func (p *Partitioner) Assign(c grid.Coord) int {
	best := 0
	bestD := sqDist(c, p.anchors[0].Pos)
	for i := 1; i < NumDistricts; i++ {
		if d := sqDist(c, p.anchors[i].Pos); d < bestD {
			best = i
			bestD = d
		}
	}
	return best
}

// ID returns the district id for an anchor index.
func ID(index int) string { return IDs[index] }

func sqDist(a, b grid.Coord) int {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return dx*dx + dz*dz
}
