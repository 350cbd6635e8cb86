package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestStreamLogger_WritesReadableZstdJSONL(t *testing.T) {
	dir := t.TempDir()
	l := NewStreamLogger(dir)

	entries := []StreamEntry{
		{SessionID: "S1", Tick: 1, X: 0, Z: 0, Loaded: []string{"25,25", "25,26"}, LoadedNow: 2},
		{SessionID: "S1", Tick: 2, X: 20, Z: 0, Unloaded: []string{"25,25"}, LoadedNow: 1},
	}
	for _, e := range entries {
		if err := l.WriteStream(e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "stream", "stream-*.jsonl.zst"))
	if err != nil || len(files) != 1 {
		t.Fatalf("expected one log file, got %v (err=%v)", files, err)
	}

	f, err := os.Open(files[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	var got []StreamEntry
	for sc.Scan() {
		var e StreamEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("line: %v", err)
		}
		got = append(got, e)
	}
	if len(got) != len(entries) {
		t.Fatalf("read back %d entries, want %d", len(got), len(entries))
	}
	if got[0].Tick != 1 || got[1].Tick != 2 || got[1].Unloaded[0] != "25,25" {
		t.Fatalf("entries corrupted: %+v", got)
	}
}
