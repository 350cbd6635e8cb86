package ws

import (
	"encoding/json"
	"log"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"neotokyo.world/internal/protocol"
	"neotokyo.world/internal/sim/catalogs"
	"neotokyo.world/internal/sim/tuning"
)

func dialTest(t *testing.T) *websocket.Conn {
	t.Helper()
	logger := log.New(os.Stdout, "[test] ", 0)
	srv := NewServer("crimson-phoenix-academy", tuning.Defaults(), catalogs.Defaults(), nil, nil, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	b, _ := json.Marshal(v)
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readMsg(t *testing.T, conn *websocket.Conn) (protocol.BaseMessage, []byte) {
	t.Helper()
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	base, err := protocol.DecodeBase(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return base, raw
}

func handshakeTest(t *testing.T, conn *websocket.Conn) protocol.WelcomeMsg {
	t.Helper()
	sendJSON(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ViewerName: "scout"})
	base, raw := readMsg(t, conn)
	if base.Type != protocol.TypeWelcome {
		t.Fatalf("expected WELCOME, got %s: %s", base.Type, raw)
	}
	var w protocol.WelcomeMsg
	if err := json.Unmarshal(raw, &w); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	return w
}

func TestServer_HandshakeAndInitialLoad(t *testing.T) {
	conn := dialTest(t)
	welcome := handshakeTest(t, conn)
	if welcome.WorldParams.Seed != "crimson-phoenix-academy" {
		t.Fatalf("welcome seed %q", welcome.WorldParams.Seed)
	}
	if welcome.WorldDigest == "" || welcome.SessionID == "" {
		t.Fatalf("welcome missing digest/session: %+v", welcome)
	}

	sendJSON(t, conn, protocol.PosMsg{Type: protocol.TypePos, ProtocolVersion: protocol.Version, X: 0, Z: 0})
	base, raw := readMsg(t, conn)
	if base.Type != protocol.TypeLoad {
		t.Fatalf("expected LOAD, got %s: %s", base.Type, raw)
	}
	var load protocol.LoadMsg
	if err := json.Unmarshal(raw, &load); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(load.Cells) != 25 {
		t.Fatalf("initial LOAD has %d cells, want 25", len(load.Cells))
	}
	for _, c := range load.Cells {
		if c.Manifest == nil || len(c.Manifest.Placements) == 0 {
			t.Fatalf("cell %s arrived without content", c.Key)
		}
	}
}

func TestServer_TeleportSendsUnload(t *testing.T) {
	conn := dialTest(t)
	handshakeTest(t, conn)

	sendJSON(t, conn, protocol.PosMsg{Type: protocol.TypePos, ProtocolVersion: protocol.Version, X: 0, Z: 0})
	if base, _ := readMsg(t, conn); base.Type != protocol.TypeLoad {
		t.Fatalf("expected initial LOAD")
	}

	// Far move: fresh LOAD for the new window, then UNLOAD of the old one.
	sendJSON(t, conn, protocol.PosMsg{Type: protocol.TypePos, ProtocolVersion: protocol.Version, X: 400, Z: 0})
	base, _ := readMsg(t, conn)
	if base.Type != protocol.TypeLoad {
		t.Fatalf("expected LOAD first, got %s", base.Type)
	}
	base, raw := readMsg(t, conn)
	if base.Type != protocol.TypeUnload {
		t.Fatalf("expected UNLOAD second, got %s", base.Type)
	}
	var unload protocol.UnloadMsg
	if err := json.Unmarshal(raw, &unload); err != nil {
		t.Fatalf("unload: %v", err)
	}
	if len(unload.Cells) != 25 {
		t.Fatalf("UNLOAD has %d cells, want 25", len(unload.Cells))
	}
}

func TestServer_CellQuery(t *testing.T) {
	conn := dialTest(t)
	handshakeTest(t, conn)

	sendJSON(t, conn, protocol.CellMsg{Type: protocol.TypeCell, ProtocolVersion: protocol.Version, X: 25, Z: 25})
	base, raw := readMsg(t, conn)
	if base.Type != protocol.TypeCellInfo {
		t.Fatalf("expected CELL_INFO, got %s", base.Type)
	}
	var info protocol.CellInfoMsg
	if err := json.Unmarshal(raw, &info); err != nil {
		t.Fatalf("info: %v", err)
	}
	if !info.Found || info.DistrictID == "" {
		t.Fatalf("center cell not found: %+v", info)
	}

	// Out-of-range is a routine miss, not an error.
	sendJSON(t, conn, protocol.CellMsg{Type: protocol.TypeCell, ProtocolVersion: protocol.Version, X: 99, Z: -5})
	base, raw = readMsg(t, conn)
	if base.Type != protocol.TypeCellInfo {
		t.Fatalf("expected CELL_INFO, got %s", base.Type)
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Found {
		t.Fatalf("out-of-range cell reported found")
	}
}

func TestServer_RejectsBadHello(t *testing.T) {
	conn := dialTest(t)
	sendJSON(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: "0.1", ViewerName: "scout"})
	base, raw := readMsg(t, conn)
	if base.Type != protocol.TypeError {
		t.Fatalf("expected ERROR, got %s", base.Type)
	}
	var e protocol.ErrorMsg
	if err := json.Unmarshal(raw, &e); err != nil {
		t.Fatalf("error msg: %v", err)
	}
	if e.Code != protocol.ErrProtoVersion {
		t.Fatalf("code %q, want %q", e.Code, protocol.ErrProtoVersion)
	}
}

func TestServer_UnknownTypeGetsError(t *testing.T) {
	conn := dialTest(t)
	handshakeTest(t, conn)
	sendJSON(t, conn, map[string]any{"type": "DANCE", "protocol_version": protocol.Version})
	base, raw := readMsg(t, conn)
	if base.Type != protocol.TypeError {
		t.Fatalf("expected ERROR, got %s: %s", base.Type, raw)
	}
}
