package game

import (
	"log"

	"github.com/tuneclash/tuneclash-backend/internal"
)

// SafeBroadcastToRoom writes a message to every connection in the room.
// The member list is snapshotted under the room lock; the writes happen
// outside it so a slow socket never stalls game state.
func SafeBroadcastToRoom(room *internal.Room, msg internal.Message[any]) {
	if room == nil {
		return
	}

	room.Mu.RLock()
	players := make([]*internal.Player, 0, len(room.Players))
	for _, player := range room.Players {
		players = append(players, player)
	}
	room.Mu.RUnlock()

	for _, player := range players {
		if err := player.SafeWriteJSON(msg); err != nil {
			log.Printf("[SafeBroadcastToRoom] room=%s failed to send to player %s (%s): %v",
				room.Code, player.ConnectionID, player.Nickname, err)
		}
	}
}

// BroadcastRoomUpdate snapshots the room and pushes a room_update frame
// to all members.
func BroadcastRoomUpdate(room *internal.Room) {
	if room == nil {
		return
	}

	room.Mu.RLock()
	snapshot := room.Snapshot()
	room.Mu.RUnlock()

	SafeBroadcastToRoom(room, internal.Message[any]{
		Type: "room_update",
		Data: snapshot,
	})
}
