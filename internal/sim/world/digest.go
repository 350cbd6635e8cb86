package world

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Digest hashes every cell's derived fields in coordinate order. Two worlds
// built from the same seed and tuning must digest identically, on any
// machine, on any run.
func (w *World) Digest() string {
	h := sha256.New()
	for _, c := range w.order {
		cell := w.cells[c]
		fmt.Fprintf(h, "%d,%d|%d|%s|%s|%s|%.3f,%.3f,%.3f\n",
			cell.Coord.X, cell.Coord.Z,
			cell.District, cell.Stratum, cell.Type, cell.Seed,
			cell.WorldPos.X, cell.WorldPos.Y, cell.WorldPos.Z)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Census aggregates cell counts by district id and by cell type, for the
// inspect tool and coverage tests.
type Census struct {
	ByDistrict map[string]int
	ByType     map[string]int
}

func (w *World) Census() Census {
	c := Census{ByDistrict: map[string]int{}, ByType: map[string]int{}}
	for _, coord := range w.order {
		cell := w.cells[coord]
		c.ByDistrict[cell.DistrictID]++
		c.ByType[cell.Type.String()]++
	}
	return c
}
