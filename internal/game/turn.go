package game

import (
	"log"
	"math/rand"
	"time"

	"github.com/tuneclash/tuneclash-backend/internal"
)

// =============================================================================
// GAME FLOW - TURN MANAGEMENT
// =============================================================================

// RevealWindow is how long the correct answer stays visible between
// turns. Package variable so tests can shorten it.
var RevealWindow = 5 * time.Second

// StartGame validates the request, shuffles the turn queue, and kicks off
// the first turn.
func StartGame(room *internal.Room, requesterID string, turnDurationSeconds int) error {
	room.Mu.Lock()

	if _, ok := room.Players[requesterID]; !ok {
		room.Mu.Unlock()
		return ErrPlayerNotFound
	}
	if requesterID != room.HostID {
		room.Mu.Unlock()
		return ErrNotHost
	}
	if !room.AllUploaded() {
		room.Mu.Unlock()
		return ErrIncompleteUploads
	}
	if room.Phase == internal.PhaseInProgress {
		room.Mu.Unlock()
		return ErrGameAlreadyStarted
	}
	if room.Phase == internal.PhaseEnded {
		room.Mu.Unlock()
		return ErrMustReset
	}
	if turnDurationSeconds < internal.MinTurnDurationSeconds || turnDurationSeconds > internal.MaxTurnDurationSeconds {
		room.Mu.Unlock()
		return ErrInvalidDuration
	}

	// Uniform random turn order.
	queue := make([]string, 0, len(room.Players))
	for id := range room.Players {
		queue = append(queue, id)
	}
	rand.Shuffle(len(queue), func(i, j int) {
		queue[i], queue[j] = queue[j], queue[i]
	})

	room.TurnQueue = queue
	room.CurrentTurnIndex = 0
	room.TurnsPlayed = 0
	room.TurnsMax = len(queue)
	room.TurnDurationSeconds = turnDurationSeconds
	room.ResetTurnCredits()
	room.Phase = internal.PhaseInProgress

	started := internal.GameStartedData{
		TurnOrder:           append([]string(nil), queue...),
		TurnDurationSeconds: turnDurationSeconds,
	}

	log.Printf("[StartGame] room=%s: started by host %s, %d turns of %ds",
		room.Code, requesterID, room.TurnsMax, turnDurationSeconds)

	room.Mu.Unlock()

	SafeBroadcastToRoom(room, internal.Message[any]{
		Type: "game_started",
		Data: started,
	})
	AdvanceTurn(room)
	return nil
}

// AdvanceTurn is the single entry point for moving the game forward. It
// runs at game start, after the reveal window, and after a
// disconnect-triggered removal of the turn-holder. Stale queue entries
// and trackless players are skipped; the loop is bounded by the queue
// length so it always terminates.
func AdvanceTurn(room *internal.Room) {
	room.Mu.Lock()

	if room.Phase != internal.PhaseInProgress || len(room.TurnQueue) == 0 {
		room.Mu.Unlock()
		return
	}

	cancelTurnTimerLocked(room)

	maxSkips := len(room.TurnQueue)
	for skips := 0; skips <= maxSkips; skips++ {
		if len(room.TurnQueue) == 0 {
			break
		}
		if room.TurnsPlayed >= room.TurnsMax {
			// Every scheduled turn has been played.
			break
		}
		room.TurnsPlayed++

		if room.CurrentTurnIndex >= len(room.TurnQueue) {
			room.CurrentTurnIndex = 0
		}
		holderID := room.TurnQueue[room.CurrentTurnIndex]
		holder, ok := room.Players[holderID]
		if !ok {
			// Stale entry left by a disconnect racing the advance.
			log.Printf("[AdvanceTurn] room=%s: dropping stale queue entry %s", room.Code, holderID)
			room.RemoveFromQueue(holderID)
			if len(room.TurnQueue) == 0 {
				break
			}
			room.CurrentTurnIndex %= len(room.TurnQueue)
			continue
		}
		if holder.SubmittedTrack == nil {
			// Defensive: possible after a reset/rejoin. Skip them.
			log.Printf("[AdvanceTurn] room=%s: player %s (%s) has no track, skipping",
				room.Code, holderID, holder.Nickname)
			room.CurrentTurnIndex = (room.CurrentTurnIndex + 1) % len(room.TurnQueue)
			continue
		}

		duration := time.Duration(room.TurnDurationSeconds) * time.Second
		room.TurnDeadline = time.Now().Add(duration)
		startTurnTimerLocked(room, duration, func() {
			FinishTurn(room)
		})

		turnChanged := internal.TurnChangedData{
			PlayerID:     holder.ConnectionID,
			Nickname:     holder.Nickname,
			Title:        holder.SubmittedTrack.Title,
			Artist:       holder.SubmittedTrack.Artist,
			TrackRef:     holder.SubmittedTrack.PreviewRef,
			TurnDeadline: room.TurnDeadline.UnixMilli(),
		}
		turnsPlayed, turnsMax := room.TurnsPlayed, room.TurnsMax
		room.Mu.Unlock()

		log.Printf("[AdvanceTurn] room=%s: turn %d/%d goes to %s (%s)",
			room.Code, turnsPlayed, turnsMax, turnChanged.PlayerID, turnChanged.Nickname)

		SafeBroadcastToRoom(room, internal.Message[any]{
			Type: "turn_changed",
			Data: turnChanged,
		})
		return
	}

	// No playable turn left.
	ended, snapshot := endGameLocked(room)
	room.Mu.Unlock()

	broadcastGameEnd(room, ended, snapshot)
}

// FinishTurn reveals the answer, waits out the reveal window, then
// advances. Both the expiring countdown timer and an explicit host skip
// funnel through here; reusing the room's single timer slot for the
// reveal wait keeps the two triggers from ever racing a double-advance.
func FinishTurn(room *internal.Room) {
	room.Mu.Lock()

	if room.Phase != internal.PhaseInProgress {
		room.Mu.Unlock()
		return
	}

	cancelTurnTimerLocked(room)

	var answer *internal.ShowAnswerData
	if holder := room.Holder(); holder != nil && holder.SubmittedTrack != nil {
		answer = &internal.ShowAnswerData{
			Title:    holder.SubmittedTrack.Title,
			Artist:   holder.SubmittedTrack.Artist,
			TrackRef: holder.SubmittedTrack.PreviewRef,
		}
	}

	startTurnTimerLocked(room, RevealWindow, func() {
		room.Mu.Lock()
		if room.Phase == internal.PhaseInProgress {
			room.ResetTurnCredits()
			if len(room.TurnQueue) > 0 {
				room.CurrentTurnIndex = (room.CurrentTurnIndex + 1) % len(room.TurnQueue)
			}
		}
		room.Mu.Unlock()

		AdvanceTurn(room)
	})

	room.Mu.Unlock()

	if answer != nil {
		log.Printf("[FinishTurn] room=%s: revealing %q by %q", room.Code, answer.Title, answer.Artist)
		SafeBroadcastToRoom(room, internal.Message[any]{
			Type: "show_answer",
			Data: *answer,
		})
	}
}

// NextTurn is the host's explicit skip.
func NextTurn(room *internal.Room, requesterID string) error {
	room.Mu.Lock()

	if _, ok := room.Players[requesterID]; !ok {
		room.Mu.Unlock()
		return ErrPlayerNotFound
	}
	if requesterID != room.HostID {
		room.Mu.Unlock()
		return ErrNotHost
	}
	if room.Phase != internal.PhaseInProgress {
		room.Mu.Unlock()
		return ErrNotInProgress
	}

	room.Mu.Unlock()

	log.Printf("[NextTurn] room=%s: host %s skipped the turn", room.Code, requesterID)
	FinishTurn(room)
	return nil
}

// ResetGame returns an ended room to a lobby-fresh state.
func ResetGame(room *internal.Room, requesterID string) error {
	room.Mu.Lock()

	if _, ok := room.Players[requesterID]; !ok {
		room.Mu.Unlock()
		return ErrPlayerNotFound
	}
	if requesterID != room.HostID {
		room.Mu.Unlock()
		return ErrNotHost
	}
	if room.Phase != internal.PhaseEnded {
		room.Mu.Unlock()
		return ErrMustEndFirst
	}

	cancelTurnTimerLocked(room)
	room.TurnQueue = nil
	room.CurrentTurnIndex = 0
	room.TurnsPlayed = 0
	room.TurnsMax = 0
	room.TurnDurationSeconds = 0
	room.TurnDeadline = time.Time{}
	for _, player := range room.Players {
		player.ResetGameState()
	}
	room.Phase = internal.PhaseLobby

	snapshot := room.Snapshot()
	room.Mu.Unlock()

	log.Printf("[ResetGame] room=%s: reset to lobby by host %s", room.Code, requesterID)
	SafeBroadcastToRoom(room, internal.Message[any]{
		Type: "room_update",
		Data: snapshot,
	})
	return nil
}

// endGameLocked forces the Ended phase and builds the final payloads.
// The caller must hold room.Mu and broadcast the returned data after
// unlocking.
func endGameLocked(room *internal.Room) (internal.GameEndedData, internal.RoomUpdateData) {
	cancelTurnTimerLocked(room)
	room.Phase = internal.PhaseEnded

	return internal.GameEndedData{Scores: finalScoresLocked(room)}, room.Snapshot()
}

func broadcastGameEnd(room *internal.Room, ended internal.GameEndedData, snapshot internal.RoomUpdateData) {
	log.Printf("[broadcastGameEnd] room=%s: game over, %d players scored", room.Code, len(ended.Scores))

	SafeBroadcastToRoom(room, internal.Message[any]{
		Type: "game_ended",
		Data: ended,
	})
	SafeBroadcastToRoom(room, internal.Message[any]{
		Type: "room_update",
		Data: snapshot,
	})
}
