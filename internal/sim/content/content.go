// Package content turns a cell descriptor into a manifest of placed
// structures. Generation is a pure function of the cell's seed and the
// district profile: no global randomness, no clock, no I/O.
package content

import (
	"fmt"

	"neotokyo.world/internal/sim/catalogs"
	"neotokyo.world/internal/sim/classify"
	"neotokyo.world/internal/sim/rng"
	"neotokyo.world/internal/sim/world"
)

// Vec3 is a local offset or size in meters.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Placement is an opaque descriptor for the renderer: what, where (relative
// to the cell center at ground level), how big, and a material hint. No
// mesh or engine types ever appear here.
type Placement struct {
	Type         string `json:"type"`
	LocalPos     Vec3   `json:"local_pos"`
	Size         Vec3   `json:"size"`
	MaterialHint string `json:"material_hint"`
}

// Manifest is the generated content of one loaded cell. It is owned by the
// streaming cache and discarded when the cell unloads.
type Manifest struct {
	CellKey    string      `json:"cell_key"`
	Ground     string      `json:"ground"`
	Placements []Placement `json:"placements"`
}

// Generate builds the manifest for a cell. Deterministic: the cell seed
// fully decides the output. The cell's footprint is a CellSize square;
// placements stay inside it except street and bridge spans, which may run
// to the cell edges on purpose.
func Generate(cell *world.Cell, profile catalogs.DistrictProfile, cellSize float64) (*Manifest, error) {
	r := rng.New(cell.Seed)
	m := &Manifest{CellKey: cell.Coord.Key(), Ground: groundFor(cell.Type)}

	switch cell.Type {
	case classify.TypeBuilding:
		genBuilding(m, r, profile, cellSize)
	case classify.TypeStreet:
		genStreet(m, r, cell, cellSize)
	case classify.TypePlaza:
		genPlaza(m, r, cellSize)
	case classify.TypeAlley:
		genAlley(m, r, profile, cellSize)
	case classify.TypePark:
		genPark(m, r, cellSize)
	case classify.TypeElevator:
		genElevator(m, r, cell, cellSize)
	case classify.TypeBridge:
		genBridge(m, r, cell, cellSize)
	default:
		return nil, fmt.Errorf("cell %s: no generation rule for type %v", cell.Coord.Key(), cell.Type)
	}

	// Overlay passes. Presence is gated by one draw each against the
	// district's intensity, not rolled per item.
	if r.Next() < profile.NeonIntensity {
		genNeon(m, r, profile, cellSize)
	}
	if r.Next() < profile.PropDensity {
		genProps(m, r, cellSize)
	}
	return m, nil
}

func groundFor(t classify.CellType) string {
	switch t {
	case classify.TypeStreet:
		return "asphalt"
	case classify.TypePlaza:
		return "paving"
	case classify.TypePark:
		return "grass"
	case classify.TypeAlley:
		return "wet-concrete"
	case classify.TypeBridge:
		return "steel-deck"
	case classify.TypeElevator:
		return "grate"
	default:
		return "concrete"
	}
}

const floorHeight = 3.2

func genBuilding(m *Manifest, r *rng.RNG, p catalogs.DistrictProfile, cellSize float64) {
	floors := r.Int(p.MinFloors, p.MaxFloors+1)
	w := cellSize * (0.5 + 0.3*r.Next())
	d := cellSize * (0.5 + 0.3*r.Next())
	jx := (r.Next() - 0.5) * (cellSize - w)
	jz := (r.Next() - 0.5) * (cellSize - d)
	m.add(Placement{
		Type:         "building",
		LocalPos:     Vec3{X: jx, Z: jz},
		Size:         Vec3{X: w, Y: float64(floors) * floorHeight, Z: d},
		MaterialHint: rng.Pick(r, p.Palette),
	})
	// Dense districts get a low annex squeezed beside the main volume.
	if r.Next() < p.Density {
		aw := cellSize * 0.2
		m.add(Placement{
			Type:         "annex",
			LocalPos:     Vec3{X: -jx * 0.5, Z: -jz * 0.5},
			Size:         Vec3{X: aw, Y: floorHeight, Z: aw},
			MaterialHint: rng.Pick(r, p.Palette),
		})
	}
}

func genStreet(m *Manifest, r *rng.RNG, cell *world.Cell, cellSize float64) {
	alongZ := cell.Coord.X%classify.StreetModulus == 0
	n := r.Int(2, 5)
	for i := 0; i < n; i++ {
		off := (r.Next() - 0.5) * cellSize * 0.4
		lane := Placement{Type: "lane-marking", MaterialHint: "paint-white"}
		if alongZ {
			// Markings run the full cell: street spans reach the edges.
			lane.LocalPos = Vec3{X: off}
			lane.Size = Vec3{X: 0.2, Y: 0.01, Z: cellSize}
		} else {
			lane.LocalPos = Vec3{Z: off}
			lane.Size = Vec3{X: cellSize, Y: 0.01, Z: 0.2}
		}
		m.add(lane)
	}
}

func genPlaza(m *Manifest, r *rng.RNG, cellSize float64) {
	m.add(Placement{
		Type:         "fountain",
		Size:         Vec3{X: 3, Y: 2, Z: 3},
		MaterialHint: "stone",
	})
	n := r.Int(2, 6)
	for i := 0; i < n; i++ {
		m.add(Placement{
			Type:         "bench",
			LocalPos:     Vec3{X: (r.Next() - 0.5) * (cellSize - 2), Z: (r.Next() - 0.5) * (cellSize - 2)},
			Size:         Vec3{X: 1.6, Y: 0.5, Z: 0.5},
			MaterialHint: "wood",
		})
	}
}

func genAlley(m *Manifest, r *rng.RNG, p catalogs.DistrictProfile, cellSize float64) {
	half := cellSize / 2
	wallH := floorHeight * float64(r.Int(2, 5))
	for _, side := range []float64{-1, 1} {
		m.add(Placement{
			Type:         "wall",
			LocalPos:     Vec3{X: side * (half - 0.5)},
			Size:         Vec3{X: 1, Y: wallH, Z: cellSize * 0.9},
			MaterialHint: rng.Pick(r, p.Palette),
		})
	}
	n := r.Int(1, 4)
	for i := 0; i < n; i++ {
		m.add(Placement{
			Type:         "debris",
			LocalPos:     Vec3{X: (r.Next() - 0.5) * (cellSize - 4), Z: (r.Next() - 0.5) * (cellSize - 2)},
			Size:         Vec3{X: 1, Y: 1, Z: 1},
			MaterialHint: "scrap",
		})
	}
}

func genPark(m *Manifest, r *rng.RNG, cellSize float64) {
	n := r.Int(3, 9)
	for i := 0; i < n; i++ {
		h := 4 + 4*r.Next()
		m.add(Placement{
			Type:         "tree",
			LocalPos:     Vec3{X: (r.Next() - 0.5) * (cellSize - 2), Z: (r.Next() - 0.5) * (cellSize - 2)},
			Size:         Vec3{X: 2, Y: h, Z: 2},
			MaterialHint: "foliage",
		})
	}
}

func genElevator(m *Manifest, r *rng.RNG, cell *world.Cell, cellSize float64) {
	base, top := cell.Stratum.Elevation()
	m.add(Placement{
		Type:         "elevator-shaft",
		Size:         Vec3{X: 4, Y: top - base, Z: 4},
		MaterialHint: "steel",
	})
	m.add(Placement{
		Type:         "platform",
		LocalPos:     Vec3{X: (r.Next() - 0.5) * 2},
		Size:         Vec3{X: 6, Y: 0.4, Z: 6},
		MaterialHint: "grate",
	})
}

func genBridge(m *Manifest, r *rng.RNG, cell *world.Cell, cellSize float64) {
	alongZ := cell.Coord.X%classify.StreetModulus == 0
	deck := Placement{Type: "bridge-deck", MaterialHint: "steel"}
	rail := func(side float64) Placement {
		p := Placement{Type: "railing", MaterialHint: "steel"}
		if alongZ {
			p.LocalPos = Vec3{X: side * 2.8, Y: 1}
			p.Size = Vec3{X: 0.2, Y: 1.2, Z: cellSize}
		} else {
			p.LocalPos = Vec3{Z: side * 2.8, Y: 1}
			p.Size = Vec3{X: cellSize, Y: 1.2, Z: 0.2}
		}
		return p
	}
	// Decks run the full cell so neighboring bridge cells join up.
	if alongZ {
		deck.Size = Vec3{X: 6, Y: 0.6, Z: cellSize}
	} else {
		deck.Size = Vec3{X: cellSize, Y: 0.6, Z: 6}
	}
	m.add(deck)
	m.add(rail(-1))
	m.add(rail(1))
	if r.Next() < 0.5 {
		m.add(Placement{
			Type:         "support-cable",
			LocalPos:     Vec3{Y: 2},
			Size:         Vec3{X: 0.3, Y: 4, Z: 0.3},
			MaterialHint: "cable",
		})
	}
}

func genNeon(m *Manifest, r *rng.RNG, p catalogs.DistrictProfile, cellSize float64) {
	half := cellSize / 2
	n := r.Int(1, 4)
	for i := 0; i < n; i++ {
		m.add(Placement{
			Type:         "neon-sign",
			LocalPos:     Vec3{X: (r.Next() - 0.5) * (cellSize - 4), Y: 3 + 6*r.Next(), Z: (r.Next()-0.5)*2 + signSide(r)*(half-1)},
			Size:         Vec3{X: 2.5, Y: 1, Z: 0.2},
			MaterialHint: rng.Pick(r, p.Palette),
		})
	}
}

func signSide(r *rng.RNG) float64 {
	if r.Next() < 0.5 {
		return -0.8
	}
	return 0.8
}

var propKinds = []string{"vending-machine", "crate", "bicycle", "trash-pile", "lantern"}

func genProps(m *Manifest, r *rng.RNG, cellSize float64) {
	n := r.Int(1, 5)
	for i := 0; i < n; i++ {
		m.add(Placement{
			Type:         rng.Pick(r, propKinds),
			LocalPos:     Vec3{X: (r.Next() - 0.5) * (cellSize - 2), Z: (r.Next() - 0.5) * (cellSize - 2)},
			Size:         Vec3{X: 1, Y: 1.5, Z: 1},
			MaterialHint: "mixed",
		})
	}
}

func (m *Manifest) add(p Placement) {
	m.Placements = append(m.Placements, p)
}
