package protocol

import "neotokyo.world/internal/sim/content"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ViewerName      string `json:"viewer_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	WorldParams     WorldParams `json:"world_params"`
	WorldDigest     string      `json:"world_digest"`
	Districts       DigestRef   `json:"districts"`
}

// WorldParams carries the constants a client needs to agree with the server
// about the world it is viewing.
type WorldParams struct {
	Seed         string  `json:"seed"`
	CellSize     float64 `json:"cell_size"`
	WorldWidth   int     `json:"world_width"`
	WorldDepth   int     `json:"world_depth"`
	LoadRadius   int     `json:"load_radius"`
	UnloadRadius int     `json:"unload_radius"`
	NumDistricts int     `json:"num_districts"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// POS (client -> server): one player position per streaming tick.
type PosMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	X               float64 `json:"x"`
	Z               float64 `json:"z"`
}

// LOAD (server -> client): cells that just crossed into the load radius,
// each with its content manifest.
type LoadMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Tick            uint64       `json:"tick"`
	Cells           []LoadedCell `json:"cells"`
}

type LoadedCell struct {
	Key        string            `json:"key"`
	X          int               `json:"x"`
	Z          int               `json:"z"`
	DistrictID string            `json:"district_id"`
	Stratum    string            `json:"stratum"`
	CellType   string            `json:"cell_type"`
	WorldPos   [3]float64        `json:"world_pos"`
	Manifest   *content.Manifest `json:"manifest"`
}

// UNLOAD (server -> client): cell keys whose visuals should be disposed.
type UnloadMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	Tick            uint64   `json:"tick"`
	Cells           []string `json:"cells"`
}

// CELL (client -> server): gameplay/UI query for a single cell descriptor.
type CellMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	X               int    `json:"x"`
	Z               int    `json:"z"`
}

// CELL_INFO (server -> client): the answer, or found=false for coordinates
// outside the world. A boundary query is routine, never an error message.
type CellInfoMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Found           bool       `json:"found"`
	Key             string     `json:"key,omitempty"`
	DistrictID      string     `json:"district_id,omitempty"`
	Stratum         string     `json:"stratum,omitempty"`
	CellType        string     `json:"cell_type,omitempty"`
	WorldPos        [3]float64 `json:"world_pos,omitempty"`
	Loaded          bool       `json:"loaded,omitempty"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}
