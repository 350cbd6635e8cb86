// Package catalogs loads the static, seed-independent district profile
// catalog from the config directory. Profiles are shared read-only across
// every cell of a district and never mutate after load.
package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"neotokyo.world/internal/sim/district"
)

type Catalogs struct {
	Districts DistrictCatalog
}

type DistrictCatalog struct {
	ByID   map[string]DistrictProfile
	Digest string
}

// DistrictProfile tunes content generation for one district: how tall and
// dense its buildings run, how loud its signage is, what it is made of.
type DistrictProfile struct {
	ID            string   `json:"id"`
	Theme         string   `json:"theme"`
	Density       float64  `json:"density"`
	MinFloors     int      `json:"min_floors"`
	MaxFloors     int      `json:"max_floors"`
	NeonIntensity float64  `json:"neon_intensity"`
	PropDensity   float64  `json:"prop_density"`
	Palette       []string `json:"palette"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadDistricts(filepath.Join(configDir, "districts.json"), &c.Districts); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadDistricts(path string, out *DistrictCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []DistrictProfile
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("districts.json: %w", err)
	}
	out.ByID = map[string]DistrictProfile{}
	for _, d := range defs {
		if err := validateProfile(d); err != nil {
			return fmt.Errorf("districts.json: %w", err)
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("districts.json: duplicate id %q", d.ID)
		}
		out.ByID[d.ID] = d
	}

	// Every district in the fixed name table needs a profile; content
	// generation has no fallback.
	for _, id := range district.IDs {
		if _, ok := out.ByID[id]; !ok {
			return fmt.Errorf("districts.json: missing profile for district %q", id)
		}
	}
	return nil
}

func validateProfile(d DistrictProfile) error {
	switch {
	case d.ID == "":
		return fmt.Errorf("empty id")
	case d.MinFloors < 1 || d.MaxFloors < d.MinFloors:
		return fmt.Errorf("%s: bad floor range [%d,%d]", d.ID, d.MinFloors, d.MaxFloors)
	case d.Density < 0 || d.Density > 1:
		return fmt.Errorf("%s: density %v outside [0,1]", d.ID, d.Density)
	case d.NeonIntensity < 0 || d.NeonIntensity > 1:
		return fmt.Errorf("%s: neon_intensity %v outside [0,1]", d.ID, d.NeonIntensity)
	case d.PropDensity < 0 || d.PropDensity > 1:
		return fmt.Errorf("%s: prop_density %v outside [0,1]", d.ID, d.PropDensity)
	case len(d.Palette) == 0:
		return fmt.Errorf("%s: empty palette", d.ID)
	}
	return nil
}

// Defaults returns the built-in profile table (identical to the shipped
// configs/districts.json), for tests and offline tools that have no config
// directory.
func Defaults() *Catalogs {
	defs := []DistrictProfile{
		{ID: "academy", Theme: "rival academies", Density: 0.55, MinFloors: 2, MaxFloors: 6, NeonIntensity: 0.35, PropDensity: 0.5, Palette: []string{"concrete", "glass", "banner-red"}},
		{ID: "neon-market", Theme: "night market", Density: 0.85, MinFloors: 1, MaxFloors: 4, NeonIntensity: 0.95, PropDensity: 0.9, Palette: []string{"corrugated", "neon-pink", "tarp-blue"}},
		{ID: "corporate", Theme: "tower district", Density: 0.7, MinFloors: 8, MaxFloors: 20, NeonIntensity: 0.6, PropDensity: 0.3, Palette: []string{"glass", "steel", "marble"}},
		{ID: "residential", Theme: "stacked housing", Density: 0.75, MinFloors: 3, MaxFloors: 8, NeonIntensity: 0.25, PropDensity: 0.6, Palette: []string{"brick", "plaster", "laundry-line"}},
		{ID: "industrial", Theme: "fabrication belt", Density: 0.6, MinFloors: 1, MaxFloors: 3, NeonIntensity: 0.2, PropDensity: 0.7, Palette: []string{"rust", "corrugated", "pipe-grey"}},
		{ID: "harbor", Theme: "flooded docks", Density: 0.4, MinFloors: 1, MaxFloors: 3, NeonIntensity: 0.45, PropDensity: 0.8, Palette: []string{"container-red", "rope", "wet-concrete"}},
		{ID: "temple", Theme: "old shrine quarter", Density: 0.35, MinFloors: 1, MaxFloors: 2, NeonIntensity: 0.1, PropDensity: 0.4, Palette: []string{"wood", "vermilion", "stone"}},
		{ID: "entertainment", Theme: "arcade strip", Density: 0.9, MinFloors: 2, MaxFloors: 6, NeonIntensity: 1.0, PropDensity: 0.85, Palette: []string{"neon-cyan", "chrome", "holo-panel"}},
		{ID: "undercity", Theme: "beneath the plates", Density: 0.8, MinFloors: 1, MaxFloors: 3, NeonIntensity: 0.7, PropDensity: 0.95, Palette: []string{"scrap", "cable", "sodium-lamp"}},
		{ID: "transit-hub", Theme: "rail nexus", Density: 0.5, MinFloors: 2, MaxFloors: 5, NeonIntensity: 0.5, PropDensity: 0.55, Palette: []string{"tile-white", "signage-yellow", "steel"}},
	}
	byID := make(map[string]DistrictProfile, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}
	raw, _ := json.Marshal(defs)
	return &Catalogs{Districts: DistrictCatalog{ByID: byID, Digest: sha256Hex(raw)}}
}
