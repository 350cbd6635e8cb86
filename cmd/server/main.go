package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"neotokyo.world/internal/persistence/indexdb"
	persistlog "neotokyo.world/internal/persistence/log"
	"neotokyo.world/internal/sim/catalogs"
	"neotokyo.world/internal/sim/tuning"
	"neotokyo.world/internal/sim/world"
	"neotokyo.world/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		seed       = flag.String("seed", "neo-tokyo-1", "world seed string")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index (sessions + stream ticks)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	// Derive the world once up front: validates tuning and pins the digest
	// every session must reproduce.
	w, err := world.New(*seed, tune)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	digest := w.Digest()
	logger.Printf("world seed=%q cells=%d digest=%s", *seed, len(w.Cells()), digest[:12])

	worldDir := filepath.Join(*dataDir, "worlds", *seed)
	_ = os.MkdirAll(worldDir, 0o755)

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.RecordWorld(*seed, digest, tune); err != nil {
			logger.Printf("index: record world: %v", err)
		}
	}

	streamLog := persistlog.NewStreamLogger(worldDir)
	defer streamLog.Close()

	ctx, cancel := signalContext()
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		census := w.Census()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP neotokyo_world_cells Total cells in the world grid.\n")
		fmt.Fprintf(rw, "# TYPE neotokyo_world_cells gauge\n")
		fmt.Fprintf(rw, "neotokyo_world_cells{seed=%q} %d\n", *seed, len(w.Cells()))

		fmt.Fprintf(rw, "# HELP neotokyo_world_district_cells Cells per district.\n")
		fmt.Fprintf(rw, "# TYPE neotokyo_world_district_cells gauge\n")
		for id, n := range census.ByDistrict {
			fmt.Fprintf(rw, "neotokyo_world_district_cells{seed=%q,district=%q} %d\n", *seed, id, n)
		}

		fmt.Fprintf(rw, "# HELP neotokyo_world_type_cells Cells per cell type.\n")
		fmt.Fprintf(rw, "# TYPE neotokyo_world_type_cells gauge\n")
		for ct, n := range census.ByType {
			fmt.Fprintf(rw, "neotokyo_world_type_cells{seed=%q,cell_type=%q} %d\n", *seed, ct, n)
		}

		if idx != nil {
			st := idx.Stats()
			fmt.Fprintf(rw, "# HELP neotokyo_index_dropped_ticks Stream tick rows dropped by the index writer.\n")
			fmt.Fprintf(rw, "# TYPE neotokyo_index_dropped_ticks counter\n")
			fmt.Fprintf(rw, "neotokyo_index_dropped_ticks{seed=%q} %d\n", *seed, st.DropTickTotal)

			fmt.Fprintf(rw, "# HELP neotokyo_index_queue_depth Index writer channel backlog depth.\n")
			fmt.Fprintf(rw, "# TYPE neotokyo_index_queue_depth gauge\n")
			fmt.Fprintf(rw, "neotokyo_index_queue_depth{seed=%q} %d\n", *seed, st.QueueDepth)
		}
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(*seed, tune, cats, idx, streamLog, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
