package internal

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Conn is the subset of *websocket.Conn the game layer depends on.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
	Close() error
}

type Player struct {
	ConnectionID string `json:"connection_id"`
	Conn         Conn   `json:"-"`
	Room         *Room  `json:"-"` // Avoid circular reference in JSON
	Nickname     string `json:"nickname"`
	Score        int    `json:"score"`

	// Game state
	SubmittedTrack  *Track      `json:"submitted_track,omitempty"`
	HasUploaded     bool        `json:"has_uploaded"`
	CorrectThisTurn GuessCredit `json:"correct_this_turn"`

	JoinOrder int       `json:"join_order"`
	JoinedAt  time.Time `json:"joined_at"`

	// Chat rate limiting
	Limiter *rate.Limiter `json:"-"`

	Mu sync.Mutex `json:"-"`
}

type PlayerSnapshot struct {
	ID          string `json:"id"`
	Nickname    string `json:"nickname"`
	Score       int    `json:"score"`
	HasUploaded bool   `json:"has_uploaded"`
}

// ResetTurnCredit clears the per-turn scoring guard.
func (p *Player) ResetTurnCredit() {
	p.CorrectThisTurn = GuessCredit{}
}

// ResetGameState returns the player to lobby-fresh state. Score and
// submission are cleared together; the nickname and join order survive.
func (p *Player) ResetGameState() {
	p.SubmittedTrack = nil
	p.HasUploaded = false
	p.Score = 0
	p.CorrectThisTurn = GuessCredit{}
}

func (p *Player) ToSnapshot() PlayerSnapshot {
	return PlayerSnapshot{
		ID:          p.ConnectionID,
		Nickname:    p.Nickname,
		Score:       p.Score,
		HasUploaded: p.HasUploaded,
	}
}

// SafeWriteJSON serializes writes to the underlying connection. gorilla
// websocket connections allow only one concurrent writer.
func (p *Player) SafeWriteJSON(v any) error {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	if p.Conn == nil {
		return nil
	}
	return p.Conn.WriteJSON(v)
}
