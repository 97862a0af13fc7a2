package game

import (
	"context"
	"log"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tuneclash/tuneclash-backend/internal"
)

// =============================================================================
// ROOM MEMBERSHIP
// =============================================================================

// JoinRoom attaches a connection to a room under a nickname. Allowed in
// any phase. The first joiner becomes host. Returns whether the joining
// player is the host.
func (g *Gateway) JoinRoom(player *internal.Player, code, nickname string) (bool, error) {
	if player.Room != nil {
		return false, ErrAlreadyInRoom
	}

	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return false, ErrNicknameRequired
	}
	if utf8.RuneCountInString(nickname) > internal.MaxNicknameLength {
		return false, ErrNicknameTooLong
	}

	room := g.registry.GetOrCreate(code, player.ConnectionID)

	room.Mu.Lock()

	if len(room.Players) >= internal.MaxPlayersPerRoom {
		room.Mu.Unlock()
		return false, ErrRoomFull
	}
	for _, other := range room.Players {
		if strings.EqualFold(other.Nickname, nickname) {
			room.Mu.Unlock()
			return false, ErrDuplicateNickname
		}
	}

	player.Room = room
	player.Nickname = nickname
	player.JoinOrder = room.JoinCounter
	room.JoinCounter++
	player.JoinedAt = time.Now()
	room.Players[player.ConnectionID] = player

	// The creating connection may never have completed a join (bad
	// nickname, etc.); whoever lands first in an empty room is host.
	if len(room.Players) == 1 {
		room.HostID = player.ConnectionID
	}
	isHost := room.HostID == player.ConnectionID

	snapshot := room.Snapshot()
	room.Mu.Unlock()

	log.Printf("[JoinRoom] room=%s: %s joined as %q (host=%t, players=%d)",
		room.Code, player.ConnectionID, nickname, isHost, len(snapshot.Players))

	SafeBroadcastToRoom(room, internal.Message[any]{
		Type: "room_update",
		Data: snapshot,
	})
	return isHost, nil
}

// SubmitTrack resolves a track reference through the metadata provider
// and stores the result on the player. Lobby only. The external lookup
// runs without the room lock; the room is revalidated afterwards. A
// failed lookup fails only this submission.
func (g *Gateway) SubmitTrack(ctx context.Context, player *internal.Player, trackRef string) (bool, error) {
	room := player.Room
	if room == nil {
		return false, ErrPlayerNotFound
	}

	room.Mu.RLock()
	_, member := room.Players[player.ConnectionID]
	phase := room.Phase
	room.Mu.RUnlock()

	if !member {
		return false, ErrPlayerNotFound
	}
	if err := lobbyOnly(phase); err != nil {
		return false, err
	}

	track, err := g.provider.Resolve(ctx, trackRef)
	if err != nil {
		log.Printf("[SubmitTrack] room=%s: lookup for %q failed: %v", room.Code, trackRef, err)
		return false, err
	}

	room.Mu.Lock()
	// The game may have started or the player may have dropped while the
	// lookup was in flight.
	if _, ok := room.Players[player.ConnectionID]; !ok {
		room.Mu.Unlock()
		return false, ErrPlayerNotFound
	}
	if err := lobbyOnly(room.Phase); err != nil {
		room.Mu.Unlock()
		return false, err
	}

	player.SubmittedTrack = track
	player.HasUploaded = true
	allUploaded := room.AllUploaded()
	room.Mu.Unlock()

	log.Printf("[SubmitTrack] room=%s: %s submitted %q by %q (allUploaded=%t)",
		room.Code, player.Nickname, track.Title, track.Artist, allUploaded)

	BroadcastRoomUpdate(room)
	return allUploaded, nil
}

func lobbyOnly(phase internal.GamePhase) error {
	switch phase {
	case internal.PhaseInProgress:
		return ErrGameAlreadyStarted
	case internal.PhaseEnded:
		return ErrGameEnded
	}
	return nil
}

// RemovePlayer handles disconnection. Not an error: removal is a
// first-class transition. Empty rooms are destroyed; otherwise the host
// role migrates if needed, the turn queue is repaired, and the turn
// advances only when the leaver held it.
func (g *Gateway) RemovePlayer(player *internal.Player) {
	room := player.Room
	if room == nil {
		return
	}

	room.Mu.Lock()

	if _, ok := room.Players[player.ConnectionID]; !ok {
		room.Mu.Unlock()
		return
	}
	delete(room.Players, player.ConnectionID)

	log.Printf("[RemovePlayer] room=%s: %s (%s) left, %d players remain",
		room.Code, player.ConnectionID, player.Nickname, len(room.Players))

	if len(room.Players) == 0 {
		cancelTurnTimerLocked(room)
		room.Mu.Unlock()
		g.registry.Remove(room.Code)
		return
	}

	if room.HostID == player.ConnectionID {
		// Promote the first remaining player by iteration order.
		for id := range room.Players {
			room.HostID = id
			break
		}
		log.Printf("[RemovePlayer] room=%s: host left, promoted %s", room.Code, room.HostID)
	}

	advance := false
	if idx := slices.Index(room.TurnQueue, player.ConnectionID); room.Phase == internal.PhaseInProgress && idx >= 0 {
		wasHolder := idx == room.CurrentTurnIndex
		room.RemoveFromQueue(player.ConnectionID)

		if len(room.TurnQueue) == 0 {
			ended, snapshot := endGameLocked(room)
			room.Mu.Unlock()
			broadcastGameEnd(room, ended, snapshot)
			return
		}
		// Keep the index pointing at the same turn: entries before it
		// shifted left by one; a removed holder leaves it on the next
		// entry (wrapping if the holder was last).
		if idx < room.CurrentTurnIndex {
			room.CurrentTurnIndex--
		} else if room.CurrentTurnIndex >= len(room.TurnQueue) {
			room.CurrentTurnIndex = 0
		}
		advance = wasHolder
	}

	snapshot := room.Snapshot()
	room.Mu.Unlock()

	SafeBroadcastToRoom(room, internal.Message[any]{
		Type: "room_update",
		Data: snapshot,
	})

	if advance {
		log.Printf("[RemovePlayer] room=%s: turn-holder left, advancing", room.Code)
		AdvanceTurn(room)
	}
}
