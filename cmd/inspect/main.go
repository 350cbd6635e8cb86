package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"neotokyo.world/internal/persistence/indexdb"
	"neotokyo.world/internal/sim/catalogs"
	"neotokyo.world/internal/sim/content"
	"neotokyo.world/internal/sim/district"
	"neotokyo.world/internal/sim/tuning"
	"neotokyo.world/internal/sim/world"
)

// inspect regenerates a world offline and reports on it: digest, district
// census, cell-type distribution, and optionally a single cell's descriptor
// and content manifest. Nothing here touches the serving path; every number
// printed is reproducible from the seed alone.
func main() {
	var (
		seed       = flag.String("seed", "", "world seed string")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		cellSpec   = flag.String("cell", "", "grid cell to inspect, as \"x,z\" (optional)")
		withJSON   = flag.Bool("manifest", false, "print the inspected cell's content manifest as json")
		dataDir    = flag.String("data", "", "runtime data directory; cross-checks the digest a server recorded (optional)")
	)
	flag.Parse()

	if *seed == "" {
		fmt.Fprintln(os.Stderr, "missing -seed")
		os.Exit(2)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			tune = tuning.Defaults()
		} else {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
	}

	w, err := world.New(*seed, tune)
	if err != nil {
		fmt.Fprintln(os.Stderr, "world:", err)
		os.Exit(1)
	}

	digest := w.Digest()
	fmt.Printf("seed=%q cells=%d digest=%s\n", *seed, len(w.Cells()), digest)

	if *dataDir != "" {
		checkRecordedDigest(*dataDir, *seed, digest)
	}
	for _, a := range w.Anchors() {
		fmt.Printf("district %-14s anchor=(%d,%d)\n", district.IDs[a.Index], a.Pos.X, a.Pos.Z)
	}

	census := w.Census()
	fmt.Println("\ncells by district:")
	printCounts(census.ByDistrict)
	fmt.Println("\ncells by type:")
	printCounts(census.ByType)

	if *cellSpec == "" {
		return
	}

	var gx, gz int
	if _, err := fmt.Sscanf(*cellSpec, "%d,%d", &gx, &gz); err != nil {
		fmt.Fprintln(os.Stderr, "bad -cell (want \"x,z\"):", err)
		os.Exit(2)
	}
	cell, ok := w.GetCell(gx, gz)
	if !ok {
		fmt.Printf("\ncell (%d,%d): out of range\n", gx, gz)
		return
	}
	fmt.Printf("\ncell %s: district=%s stratum=%s type=%s pos=(%.1f,%.1f,%.1f) seed=%q\n",
		cell.Coord.Key(), cell.DistrictID, cell.Stratum, cell.Type,
		cell.WorldPos.X, cell.WorldPos.Y, cell.WorldPos.Z, cell.Seed)

	if !*withJSON {
		return
	}
	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	profile, ok := cats.Districts.ByID[cell.DistrictID]
	if !ok {
		fmt.Fprintln(os.Stderr, "no district profile for", cell.DistrictID)
		os.Exit(1)
	}
	manifest, err := content.Generate(cell, profile, tune.CellSize)
	if err != nil {
		fmt.Fprintln(os.Stderr, "generate:", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		fmt.Fprintln(os.Stderr, "encode:", err)
		os.Exit(1)
	}
}

// checkRecordedDigest compares the regenerated digest with the one a server
// stored for this seed. A mismatch means the tuning constants diverged.
func checkRecordedDigest(dataDir, seed, digest string) {
	idx, err := indexdb.OpenSQLite(filepath.Join(dataDir, "worlds", seed, "index.db"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "open index:", err)
		return
	}
	defer idx.Close()
	row, ok, err := idx.GetWorld(seed)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read world row:", err)
		return
	}
	if !ok {
		fmt.Println("index: no recorded world for this seed")
		return
	}
	if row.Digest == digest {
		fmt.Printf("index: recorded digest matches (created %s)\n", row.CreatedAt)
	} else {
		fmt.Printf("index: DIGEST MISMATCH recorded=%s regenerated=%s\n", row.Digest, digest)
	}
}

func printCounts(m map[string]int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-14s %d\n", k, m[k])
	}
}
