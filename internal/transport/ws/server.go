// Package ws serves the streaming protocol over websockets. Each connection
// is one viewer session with its own streaming window; the world a session
// sees is rebuilt from the seed on connect, which is cheap and guarantees a
// fresh load state.
package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"neotokyo.world/internal/persistence/indexdb"
	persistlog "neotokyo.world/internal/persistence/log"
	"neotokyo.world/internal/protocol"
	"neotokyo.world/internal/sim/catalogs"
	"neotokyo.world/internal/sim/stream"
	"neotokyo.world/internal/sim/tuning"
	"neotokyo.world/internal/sim/world"
)

type Server struct {
	seed string
	tune tuning.Tuning
	cats *catalogs.Catalogs
	log  *log.Logger

	idx  *indexdb.SQLiteIndex     // optional
	slog *persistlog.StreamLogger // optional

	sessionSeq atomic.Uint64
	upgrader   websocket.Upgrader
}

func NewServer(seed string, tune tuning.Tuning, cats *catalogs.Catalogs, idx *indexdb.SQLiteIndex, slog *persistlog.StreamLogger, logger *log.Logger) *Server {
	return &Server{
		seed: seed,
		tune: tune,
		cats: cats,
		log:  logger,
		idx:  idx,
		slog: slog,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		s.serve(conn)
	}
}

type session struct {
	id     string
	viewer string
	window *stream.Window
	world  *world.World
	tick   uint64
}

func (s *Server) serve(conn *websocket.Conn) {
	sess, ok := s.handshake(conn)
	if !ok {
		return
	}
	s.log.Printf("session %s: viewer %q connected", sess.id, sess.viewer)
	if s.idx != nil {
		if err := s.idx.StartSession(sess.id, s.seed, sess.viewer); err != nil {
			s.log.Printf("session %s: index start: %v", sess.id, err)
		}
	}
	defer func() {
		if s.idx != nil {
			s.idx.EndSession(sess.id)
		}
		s.log.Printf("session %s: closed after %d ticks", sess.id, sess.tick)
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			s.sendError(conn, protocol.ErrProtoBadRequest, "not json")
			continue
		}
		if base.ProtocolVersion != protocol.Version {
			s.sendError(conn, protocol.ErrProtoVersion, fmt.Sprintf("want %s", protocol.Version))
			continue
		}
		switch base.Type {
		case protocol.TypePos:
			var pos protocol.PosMsg
			if err := json.Unmarshal(msg, &pos); err != nil {
				s.sendError(conn, protocol.ErrProtoBadRequest, "bad POS")
				continue
			}
			if err := s.handlePos(conn, sess, pos); err != nil {
				s.log.Printf("session %s: tick %d: %v", sess.id, sess.tick, err)
				s.sendError(conn, protocol.ErrInternal, "streaming failed")
				return
			}
		case protocol.TypeCell:
			var q protocol.CellMsg
			if err := json.Unmarshal(msg, &q); err != nil {
				s.sendError(conn, protocol.ErrProtoBadRequest, "bad CELL")
				continue
			}
			s.handleCell(conn, sess, q)
		default:
			s.sendError(conn, protocol.ErrProtoBadRequest, fmt.Sprintf("unexpected type %q", base.Type))
		}
	}
}

// handshake reads HELLO and answers WELCOME, building the session world.
func (s *Server) handshake(conn *websocket.Conn) (*session, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, false
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil || hello.Type != protocol.TypeHello {
		s.sendError(conn, protocol.ErrProtoBadRequest, "expected HELLO")
		return nil, false
	}
	if hello.ProtocolVersion != protocol.Version {
		s.sendError(conn, protocol.ErrProtoVersion, fmt.Sprintf("want %s", protocol.Version))
		return nil, false
	}
	if hello.ViewerName == "" {
		s.sendError(conn, protocol.ErrProtoBadRequest, "empty viewer_name")
		return nil, false
	}

	w, err := world.New(s.seed, s.tune)
	if err != nil {
		// Tuning was validated at startup; reaching this is a server bug.
		s.sendError(conn, protocol.ErrInternal, "world construction failed")
		return nil, false
	}
	sess := &session{
		id:     fmt.Sprintf("S%d_%d", time.Now().Unix(), s.sessionSeq.Add(1)),
		viewer: hello.ViewerName,
		window: stream.NewWindow(w, s.cats),
		world:  w,
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sess.id,
		WorldParams: protocol.WorldParams{
			Seed:         s.seed,
			CellSize:     s.tune.CellSize,
			WorldWidth:   s.tune.WorldWidth,
			WorldDepth:   s.tune.WorldDepth,
			LoadRadius:   s.tune.LoadRadius,
			UnloadRadius: s.tune.UnloadRadius,
			NumDistricts: len(s.cats.Districts.ByID),
		},
		WorldDigest: w.Digest(),
		Districts:   protocol.DigestRef{Digest: s.cats.Districts.Digest, Count: len(s.cats.Districts.ByID)},
	}
	if !s.send(conn, welcome) {
		return nil, false
	}
	return sess, true
}

// handlePos runs one streaming tick and pushes LOAD before UNLOAD, in the
// same order the window committed them.
func (s *Server) handlePos(conn *websocket.Conn, sess *session, pos protocol.PosMsg) error {
	res, err := sess.window.Tick(pos.X, pos.Z)
	if err != nil {
		return err
	}
	sess.tick++

	if len(res.Loaded) > 0 {
		load := protocol.LoadMsg{Type: protocol.TypeLoad, ProtocolVersion: protocol.Version, Tick: sess.tick}
		for _, lc := range res.Loaded {
			load.Cells = append(load.Cells, protocol.LoadedCell{
				Key:        lc.Cell.Coord.Key(),
				X:          lc.Cell.Coord.X,
				Z:          lc.Cell.Coord.Z,
				DistrictID: lc.Cell.DistrictID,
				Stratum:    lc.Cell.Stratum.String(),
				CellType:   lc.Cell.Type.String(),
				WorldPos:   [3]float64{lc.Cell.WorldPos.X, lc.Cell.WorldPos.Y, lc.Cell.WorldPos.Z},
				Manifest:   lc.Manifest,
			})
		}
		if !s.send(conn, load) {
			return fmt.Errorf("write LOAD failed")
		}
	}
	if len(res.Unloaded) > 0 {
		unload := protocol.UnloadMsg{Type: protocol.TypeUnload, ProtocolVersion: protocol.Version, Tick: sess.tick}
		for _, c := range res.Unloaded {
			unload.Cells = append(unload.Cells, c.Key())
		}
		if !s.send(conn, unload) {
			return fmt.Errorf("write UNLOAD failed")
		}
	}

	s.record(sess, pos, res)
	return nil
}

func (s *Server) record(sess *session, pos protocol.PosMsg, res stream.Result) {
	if s.slog != nil {
		entry := persistlog.StreamEntry{
			SessionID: sess.id,
			Tick:      sess.tick,
			X:         pos.X,
			Z:         pos.Z,
			LoadedNow: sess.window.LoadedCount(),
		}
		for _, lc := range res.Loaded {
			entry.Loaded = append(entry.Loaded, lc.Cell.Coord.Key())
		}
		for _, c := range res.Unloaded {
			entry.Unloaded = append(entry.Unloaded, c.Key())
		}
		if err := s.slog.WriteStream(entry); err != nil {
			s.log.Printf("session %s: stream log: %v", sess.id, err)
		}
	}
	if s.idx != nil {
		_ = s.idx.WriteStreamTick(indexdb.StreamTickRow{
			SessionID: sess.id,
			Tick:      sess.tick,
			X:         pos.X,
			Z:         pos.Z,
			Loaded:    len(res.Loaded),
			Unloaded:  len(res.Unloaded),
			LoadedNow: sess.window.LoadedCount(),
		})
	}
}

func (s *Server) handleCell(conn *websocket.Conn, sess *session, q protocol.CellMsg) {
	info := protocol.CellInfoMsg{Type: protocol.TypeCellInfo, ProtocolVersion: protocol.Version}
	if cell, ok := sess.world.GetCell(q.X, q.Z); ok {
		info.Found = true
		info.Key = cell.Coord.Key()
		info.DistrictID = cell.DistrictID
		info.Stratum = cell.Stratum.String()
		info.CellType = cell.Type.String()
		info.WorldPos = [3]float64{cell.WorldPos.X, cell.WorldPos.Y, cell.WorldPos.Z}
		info.Loaded = sess.world.IsLoaded(cell.Coord)
	}
	s.send(conn, info)
}

func (s *Server) sendError(conn *websocket.Conn, code, message string) {
	s.send(conn, protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         message,
	})
}

func (s *Server) send(conn *websocket.Conn, v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b) == nil
}
