package internal

import (
	"context"
	"sync"
	"time"
)

const (
	MinTurnDurationSeconds = 10
	MaxTurnDurationSeconds = 120
	MaxNicknameLength      = 20
	MaxPlayersPerRoom      = 8
)

type GamePhase string

const (
	PhaseLobby      GamePhase = "lobby"
	PhaseInProgress GamePhase = "in_progress"
	PhaseEnded      GamePhase = "ended"
)

// Track is the resolved metadata for a submitted song, as returned by the
// metadata provider. Opaque beyond these fields.
type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	PreviewRef string `json:"preview_ref"`
}

// GameTimer is the one-shot timer slot for a room. Exactly one may be
// active at a time; starting a new one must cancel the previous first.
type GameTimer struct {
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	IsActive  bool          `json:"is_active"`
	Context   context.Context
	Cancel    context.CancelFunc
}

// GuessCredit tracks which fields a player has already been credited for
// during the current turn.
type GuessCredit struct {
	Title  bool `json:"title"`
	Artist bool `json:"artist"`
}

type Room struct {
	Code    string
	HostID  string
	Players map[string]*Player

	// Game state
	Phase               GamePhase `json:"phase"`
	TurnQueue           []string  `json:"turn_queue"`
	CurrentTurnIndex    int       `json:"current_turn_index"`
	TurnsPlayed         int       `json:"turns_played"`
	TurnsMax            int       `json:"turns_max"`
	TurnDurationSeconds int       `json:"turn_duration_seconds"`
	TurnDeadline        time.Time `json:"turn_deadline"`

	// Timer
	Timer *GameTimer `json:"timer"`

	// Monotonic join counter, used for stable score tie-breaks.
	JoinCounter int `json:"-"`

	// Concurrency control
	Mu sync.RWMutex `json:"-"`
}

type Response struct {
	StatusCode    int   `json:"status_code"`
	RespStartTime int64 `json:"resp_time_start_ms"`
	RespEndTime   int64 `json:"resp_time_end_ms"`
	NetRespTime   int64 `json:"net_resp_time_ms"`
	Data          any   `json:"data"`
}
