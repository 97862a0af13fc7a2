package game

import (
	"log"
	"sync"

	"github.com/tuneclash/tuneclash-backend/internal"
)

// =============================================================================
// ROOM REGISTRY
// =============================================================================

// Registry owns the mapping from room code to Room. Rooms are created on
// first join and removed exactly when their player map empties; nothing
// else reaches the map directly.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*internal.Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*internal.Room)}
}

// GetOrCreate returns the room for a code, creating it with the calling
// connection as host if it does not exist. Idempotent by code.
func (reg *Registry) GetOrCreate(code, hostConnectionID string) *internal.Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if room, exists := reg.rooms[code]; exists {
		log.Printf("[GetOrCreate] Found existing room %s (players: %d, phase: %s)",
			code, len(room.Players), room.Phase)
		return room
	}

	newRoom := &internal.Room{
		Code:    code,
		HostID:  hostConnectionID,
		Players: make(map[string]*internal.Player),
		Phase:   internal.PhaseLobby,
	}
	reg.rooms[code] = newRoom

	log.Printf("[GetOrCreate] Created new room %s (host=%s, phase=%s)",
		code, hostConnectionID, newRoom.Phase)
	return newRoom
}

func (reg *Registry) Get(code string) (*internal.Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	room, ok := reg.rooms[code]
	return room, ok
}

// Remove deletes a room. Called exactly when its player count hits zero.
func (reg *Registry) Remove(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, exists := reg.rooms[code]; exists {
		delete(reg.rooms, code)
		log.Printf("[Remove] Room %s removed from registry", code)
	}
}

// JoinableRoom returns the code of a room that can accept new players, or
// "" when none qualifies.
func (reg *Registry) JoinableRoom() string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	for _, room := range reg.rooms {
		room.Mu.RLock()

		if len(room.Players) >= internal.MaxPlayersPerRoom {
			room.Mu.RUnlock()
			continue
		}
		if room.Phase == internal.PhaseLobby {
			code := room.Code
			room.Mu.RUnlock()
			log.Printf("[JoinableRoom] Found joinable room %s with %d players", code, len(room.Players))
			return code
		}

		room.Mu.RUnlock()
	}

	log.Println("[JoinableRoom] No joinable room found")
	return ""
}
