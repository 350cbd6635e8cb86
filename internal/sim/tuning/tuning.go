// Package tuning loads the world and streaming constants. Validation of the
// loaded values happens at world construction, where all the pieces meet.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	CellSize     float64 `yaml:"cell_size"`
	WorldWidth   int     `yaml:"world_width"`
	WorldDepth   int     `yaml:"world_depth"`
	LoadRadius   int     `yaml:"load_radius"`
	UnloadRadius int     `yaml:"unload_radius"`
}

// Defaults are the reference constants. Worlds generated under different
// values are incompatible with ones generated under these.
func Defaults() Tuning {
	return Tuning{
		CellSize:     20,
		WorldWidth:   50,
		WorldDepth:   50,
		LoadRadius:   2,
		UnloadRadius: 4,
	}
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
