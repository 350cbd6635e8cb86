// Package indexdb is a secondary read-model index over streaming activity.
// It never feeds back into generation: dropping every row changes nothing
// about the world a seed produces.
package indexdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"neotokyo.world/internal/sim/tuning"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTick atomic.Uint64
}

type reqKind int

const (
	reqStreamTick reqKind = iota + 1
	reqSessionEnd
)

type req struct {
	kind reqKind

	tick StreamTickRow
	end  sessionEndRow
}

// StreamTickRow summarizes one streaming tick.
type StreamTickRow struct {
	SessionID string
	Tick      uint64
	X         float64
	Z         float64
	Loaded    int
	Unloaded  int
	LoadedNow int
}

type sessionEndRow struct {
	SessionID string
	EndedAt   string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Bursty writes (a teleporting viewer reloads a whole window at
		// once) must not stall the streaming tick.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS worlds (
			seed TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			cell_size REAL NOT NULL,
			world_width INTEGER NOT NULL,
			world_depth INTEGER NOT NULL,
			load_radius INTEGER NOT NULL,
			unload_radius INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			seed TEXT NOT NULL,
			viewer TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS stream_ticks (
			session_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			x REAL NOT NULL,
			z REAL NOT NULL,
			loaded INTEGER NOT NULL,
			unloaded INTEGER NOT NULL,
			loaded_now INTEGER NOT NULL,
			at TEXT NOT NULL,
			PRIMARY KEY (session_id, tick)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordWorld upserts the world row. Synchronous: it happens once at
// startup, before any streaming.
func (s *SQLiteIndex) RecordWorld(seed, digest string, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO worlds (seed, digest, cell_size, world_width, world_depth, load_radius, unload_radius, created_at)
		 VALUES (?,?,?,?,?,?,?,?)
		 ON CONFLICT(seed) DO UPDATE SET digest=excluded.digest`,
		seed, digest, tune.CellSize, tune.WorldWidth, tune.WorldDepth,
		tune.LoadRadius, tune.UnloadRadius, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// StartSession records a new viewer session. Synchronous, once per connect.
func (s *SQLiteIndex) StartSession(id, seed, viewer string) error {
	if s == nil {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO sessions (id, seed, viewer, started_at) VALUES (?,?,?,?)`,
		id, seed, viewer, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// EndSession stamps a session's end time through the async writer.
func (s *SQLiteIndex) EndSession(id string) {
	if s == nil || s.closed.Load() {
		return
	}
	r := sessionEndRow{SessionID: id, EndedAt: time.Now().UTC().Format(time.RFC3339Nano)}
	select {
	case s.ch <- req{kind: reqSessionEnd, end: r}:
	default:
	}
}

// WriteStreamTick enqueues a tick summary. Non-blocking: rows drop if the
// indexer falls behind; the JSONL stream log remains the source of truth.
func (s *SQLiteIndex) WriteStreamTick(row StreamTickRow) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqStreamTick, tick: row}:
	default:
		s.dropTick.Add(1)
	}
	return nil
}

type Stats struct {
	DropTickTotal uint64
	QueueDepth    int
	QueueCapacity int
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		DropTickTotal: s.dropTick.Load(),
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
	}
}

func (s *SQLiteIndex) loop() {
	for r := range s.ch {
		switch r.kind {
		case reqStreamTick:
			_, _ = s.db.Exec(
				`INSERT OR REPLACE INTO stream_ticks (session_id, tick, x, z, loaded, unloaded, loaded_now, at)
				 VALUES (?,?,?,?,?,?,?,?)`,
				r.tick.SessionID, r.tick.Tick, r.tick.X, r.tick.Z,
				r.tick.Loaded, r.tick.Unloaded, r.tick.LoadedNow,
				time.Now().UTC().Format(time.RFC3339Nano),
			)
		case reqSessionEnd:
			_, _ = s.db.Exec(
				`UPDATE sessions SET ended_at=? WHERE id=?`,
				r.end.EndedAt, r.end.SessionID,
			)
		}
	}
}

// WorldRow is a stored world record.
type WorldRow struct {
	Seed      string
	Digest    string
	CellSize  float64
	Width     int
	Depth     int
	CreatedAt string
}

// GetWorld reads a world row back.
func (s *SQLiteIndex) GetWorld(seed string) (WorldRow, bool, error) {
	var w WorldRow
	row := s.db.QueryRow(
		`SELECT seed, digest, cell_size, world_width, world_depth, created_at FROM worlds WHERE seed=?`, seed)
	err := row.Scan(&w.Seed, &w.Digest, &w.CellSize, &w.Width, &w.Depth, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return WorldRow{}, false, nil
	}
	if err != nil {
		return WorldRow{}, false, err
	}
	return w, true, nil
}

// SessionTickCount reports how many stream ticks a session has recorded.
func (s *SQLiteIndex) SessionTickCount(sessionID string) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM stream_ticks WHERE session_id=?`, sessionID).Scan(&n)
	return n, err
}
