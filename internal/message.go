package internal

type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Ack is the per-request reply written only to the acting connection.
// Broadcasts never carry one.
type Ack struct {
	Event   string `json:"event"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type RoomUpdateData struct {
	Players []PlayerSnapshot `json:"players"`
	HostID  string           `json:"host_id"`
	Phase   GamePhase        `json:"phase"`
}

type GameStartedData struct {
	TurnOrder           []string `json:"turn_order"`
	TurnDurationSeconds int      `json:"turn_duration_seconds"`
}

type TurnChangedData struct {
	PlayerID     string `json:"player_id"`
	Nickname     string `json:"nickname"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	TrackRef     string `json:"track_ref"`
	TurnDeadline int64  `json:"turn_deadline_ms"`
}

type ShowAnswerData struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	TrackRef string `json:"track_ref"`
}

type ScoreEntry struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}

type GameEndedData struct {
	Scores []ScoreEntry `json:"scores"` // sorted descending, join order on ties
}

type GuessOutcome struct {
	TitleCorrect    bool   `json:"title_correct"`
	ArtistCorrect   bool   `json:"artist_correct"`
	GuesserNickname string `json:"guesser_nickname"`
	RevealedTitle   string `json:"revealed_title"`
	RevealedArtist  string `json:"revealed_artist"`
}

// ChatEvent is broadcast-only and never persisted.
type ChatEvent struct {
	SenderNickname string        `json:"sender_nickname"`
	Text           string        `json:"text"`
	Timestamp      int64         `json:"timestamp_ms"`
	GuessOutcome   *GuessOutcome `json:"guess_outcome,omitempty"`
}
