package game

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tuneclash/tuneclash-backend/internal"
	"github.com/tuneclash/tuneclash-backend/internal/metadata"
	"github.com/tuneclash/tuneclash-backend/internal/utils"
)

// =============================================================================
// WEBSOCKET GATEWAY
// =============================================================================

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict to the frontend origin before deploy
	},
}

// Chat flood control: sustained 2 msg/s with a burst of 5.
const (
	chatRateLimit = rate.Limit(2)
	chatBurst     = 5
)

// SessionValidator gates the authenticated message types.
type SessionValidator interface {
	Valid(sessionID string) bool
}

// Gateway owns the socket lifecycle: upgrade, per-connection read loop,
// message dispatch, and the disconnect cleanup that feeds RemovePlayer.
type Gateway struct {
	registry *Registry
	provider metadata.Provider
	sessions SessionValidator
}

func NewGateway(registry *Registry, provider metadata.Provider, sessions SessionValidator) *Gateway {
	return &Gateway{
		registry: registry,
		provider: provider,
		sessions: sessions,
	}
}

func (g *Gateway) Registry() *Registry {
	return g.registry
}

// HandleWebSocket upgrades the connection and starts its read loop. The
// room code comes from the URL; joining still requires an explicit
// join_room message so the nickname can be validated first.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[HandleWebSocket] upgrade failed: %v", err)
		return
	}

	player := &internal.Player{
		ConnectionID: utils.GenerateID(8),
		Conn:         conn,
		JoinedAt:     time.Now(),
		Limiter:      rate.NewLimiter(chatRateLimit, chatBurst),
	}
	roomCode := mux.Vars(r)["roomId"]

	log.Printf("[HandleWebSocket] connection %s opened for room %s", player.ConnectionID, roomCode)
	go g.handleMessages(player, roomCode)
}

// Wire payloads for client-to-server messages.
type joinRoomPayload struct {
	Room     string `json:"room"`
	Nickname string `json:"nickname"`
}

type submitTrackPayload struct {
	TrackRef string `json:"track_ref"`
}

type startGamePayload struct {
	TurnDurationSeconds int `json:"turn_duration_seconds"`
}

type chatMessagePayload struct {
	Text string `json:"text"`
}

type searchTracksPayload struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

func (g *Gateway) handleMessages(player *internal.Player, roomCode string) {
	defer func() {
		if player.Conn != nil {
			player.Conn.Close()
		}
		g.RemovePlayer(player)
		log.Printf("[handleMessages] connection %s closed", player.ConnectionID)
	}()

	for {
		_, raw, err := player.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[handleMessages] unexpected close from %s: %v", player.ConnectionID, err)
			}
			return
		}

		var msg internal.Message[json.RawMessage]
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("[handleMessages] malformed frame from %s: %v", player.ConnectionID, err)
			g.ack(player, "unknown", nil, ErrMalformedMessage)
			continue
		}

		g.dispatch(player, roomCode, msg)
	}
}

func (g *Gateway) dispatch(player *internal.Player, roomCode string, msg internal.Message[json.RawMessage]) {
	switch msg.Type {
	case "join_room":
		var p joinRoomPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			g.ack(player, msg.Type, nil, err)
			return
		}
		if p.Room == "" {
			p.Room = roomCode
		}
		isHost, err := g.JoinRoom(player, p.Room, p.Nickname)
		g.ack(player, msg.Type, map[string]any{"is_host": isHost, "room": p.Room}, err)

	case "submit_track":
		var p submitTrackPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			g.ack(player, msg.Type, nil, err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		allUploaded, err := g.SubmitTrack(ctx, player, p.TrackRef)
		cancel()
		g.ack(player, msg.Type, map[string]any{"all_uploaded": allUploaded}, err)

	case "start_game":
		var p startGamePayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			g.ack(player, msg.Type, nil, err)
			return
		}
		if player.Room == nil {
			g.ack(player, msg.Type, nil, ErrRoomNotFound)
			return
		}
		err := StartGame(player.Room, player.ConnectionID, p.TurnDurationSeconds)
		g.ack(player, msg.Type, nil, err)

	case "next_turn":
		if player.Room == nil {
			g.ack(player, msg.Type, nil, ErrRoomNotFound)
			return
		}
		err := NextTurn(player.Room, player.ConnectionID)
		g.ack(player, msg.Type, nil, err)

	case "reset_game":
		if player.Room == nil {
			g.ack(player, msg.Type, nil, ErrRoomNotFound)
			return
		}
		err := ResetGame(player.Room, player.ConnectionID)
		g.ack(player, msg.Type, nil, err)

	case "chat_message":
		var p chatMessagePayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			g.ack(player, msg.Type, nil, err)
			return
		}
		if player.Room == nil {
			g.ack(player, msg.Type, nil, ErrRoomNotFound)
			return
		}
		err := HandleChatMessage(player.Room, player, p.Text)
		g.ack(player, msg.Type, nil, err)

	case "search_tracks":
		var p searchTracksPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			g.ack(player, msg.Type, nil, err)
			return
		}
		if g.sessions != nil && !g.sessions.Valid(p.SessionID) {
			g.ack(player, msg.Type, nil, ErrInvalidSession)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		tracks, err := g.provider.Search(ctx, p.Query)
		cancel()
		g.ack(player, msg.Type, map[string]any{"tracks": tracks}, err)

	default:
		log.Printf("[dispatch] unknown message type %q from %s", msg.Type, player.ConnectionID)
	}
}

// ack replies only to the acting connection. Errors travel here, never in
// broadcasts.
func (g *Gateway) ack(player *internal.Player, event string, data any, err error) {
	reply := internal.Ack{
		Event:   event,
		Success: err == nil,
		Data:    data,
	}
	if err != nil {
		reply.Message = err.Error()
	}

	if werr := player.SafeWriteJSON(internal.Message[internal.Ack]{
		Type: "ack",
		Data: reply,
	}); werr != nil {
		log.Printf("[ack] failed to write ack to %s: %v", player.ConnectionID, werr)
	}
}
