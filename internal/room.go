package internal

import "slices"

// Methods (Room Struct)
//
// All of these expect the caller to hold r.Mu.

func (r *Room) AllUploaded() bool {
	for _, player := range r.Players {
		if !player.HasUploaded {
			return false
		}
	}

	return true
}

// HolderID returns the connection id of the current turn-holder, or ""
// when the queue or index is not usable.
func (r *Room) HolderID() string {
	if len(r.TurnQueue) == 0 || r.CurrentTurnIndex < 0 || r.CurrentTurnIndex >= len(r.TurnQueue) {
		return ""
	}

	return r.TurnQueue[r.CurrentTurnIndex]
}

// Holder returns the current turn-holder, or nil for a stale queue entry.
func (r *Room) Holder() *Player {
	id := r.HolderID()
	if id == "" {
		return nil
	}
	return r.Players[id]
}

func (r *Room) RemoveFromQueue(connectionID string) {
	r.TurnQueue = slices.DeleteFunc(r.TurnQueue, func(id string) bool {
		return id == connectionID
	})
}

func (r *Room) ResetTurnCredits() {
	for _, player := range r.Players {
		player.ResetTurnCredit()
	}
}

func (r *Room) Snapshot() RoomUpdateData {
	players := make([]PlayerSnapshot, 0, len(r.Players))
	for _, player := range r.Players {
		players = append(players, player.ToSnapshot())
	}
	// Stable order for clients (and for tests).
	slices.SortFunc(players, func(a, b PlayerSnapshot) int {
		return r.Players[a.ID].JoinOrder - r.Players[b.ID].JoinOrder
	})

	return RoomUpdateData{
		Players: players,
		HostID:  r.HostID,
		Phase:   r.Phase,
	}
}
