package game

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuneclash/tuneclash-backend/internal"
)

func TestJoinRoomFirstPlayerIsHost(t *testing.T) {
	g := newTestGateway(nil)

	player, conn := newTestPlayer("conn-1")
	isHost, err := g.JoinRoom(player, "room1", "alice")

	require.NoError(t, err)
	assert.True(t, isHost)
	assert.Equal(t, "room1", player.Room.Code)
	assert.Equal(t, "alice", player.Nickname)

	updates := conn.broadcasts("room_update")
	require.Len(t, updates, 1)
	data := updates[0].Data.(internal.RoomUpdateData)
	assert.Equal(t, "conn-1", data.HostID)
	assert.Equal(t, internal.PhaseLobby, data.Phase)
}

func TestJoinRoomSecondPlayerIsNotHost(t *testing.T) {
	g := newTestGateway(nil)

	joinPlayer(t, g, "room1", "conn-1", "alice")
	bob, _ := newTestPlayer("conn-2")
	isHost, err := g.JoinRoom(bob, "room1", "bob")

	require.NoError(t, err)
	assert.False(t, isHost)
}

func TestJoinRoomNicknameValidation(t *testing.T) {
	tests := []struct {
		name     string
		nickname string
		wantErr  error
	}{
		{"empty", "", ErrNicknameRequired},
		{"whitespace only", "   ", ErrNicknameRequired},
		{"too long", strings.Repeat("x", 21), ErrNicknameTooLong},
		{"exactly max", strings.Repeat("x", 20), nil},
		{"trimmed", "  alice  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(nil)
			player, _ := newTestPlayer("conn-1")

			_, err := g.JoinRoom(player, "room1", tt.nickname)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, player.Room)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestJoinRoomTrimsNickname(t *testing.T) {
	g := newTestGateway(nil)

	player, _ := newTestPlayer("conn-1")
	_, err := g.JoinRoom(player, "room1", "  alice  ")

	require.NoError(t, err)
	assert.Equal(t, "alice", player.Nickname)
}

func TestJoinRoomDuplicateNicknameCaseInsensitive(t *testing.T) {
	g := newTestGateway(nil)
	joinPlayer(t, g, "room1", "conn-1", "Alice")

	player, _ := newTestPlayer("conn-2")
	_, err := g.JoinRoom(player, "room1", "alice")

	assert.ErrorIs(t, err, ErrDuplicateNickname)
	assert.Nil(t, player.Room)
}

func TestJoinRoomFull(t *testing.T) {
	g := newTestGateway(nil)
	fillLobby(t, g, "room1", internal.MaxPlayersPerRoom)

	player, _ := newTestPlayer("conn-late")
	_, err := g.JoinRoom(player, "room1", "latecomer")

	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestJoinRoomTwiceRejected(t *testing.T) {
	g := newTestGateway(nil)
	player, _ := joinPlayer(t, g, "room1", "conn-1", "alice")

	_, err := g.JoinRoom(player, "room2", "alice")
	assert.ErrorIs(t, err, ErrAlreadyInRoom)
}

func TestSubmitTrackStoresResolvedMetadata(t *testing.T) {
	g := newTestGateway(&stubProvider{tracks: map[string]internal.Track{
		"42": {ID: "42", Title: "Bohemian Rhapsody", Artist: "Queen", PreviewRef: "preview-url"},
	}})

	alice, _ := joinPlayer(t, g, "room1", "conn-1", "alice")
	joinPlayer(t, g, "room1", "conn-2", "bob")

	allUploaded, err := g.SubmitTrack(context.Background(), alice, "42")

	require.NoError(t, err)
	assert.False(t, allUploaded) // bob hasn't submitted
	require.NotNil(t, alice.SubmittedTrack)
	assert.Equal(t, "Bohemian Rhapsody", alice.SubmittedTrack.Title)
	assert.Equal(t, "Queen", alice.SubmittedTrack.Artist)
	assert.True(t, alice.HasUploaded)
}

func TestSubmitTrackAllUploaded(t *testing.T) {
	g := newTestGateway(&stubProvider{tracks: map[string]internal.Track{
		"1": {ID: "1", Title: "One", Artist: "A"},
		"2": {ID: "2", Title: "Two", Artist: "B"},
	}})

	alice, _ := joinPlayer(t, g, "room1", "conn-1", "alice")
	bob, _ := joinPlayer(t, g, "room1", "conn-2", "bob")

	_, err := g.SubmitTrack(context.Background(), alice, "1")
	require.NoError(t, err)

	allUploaded, err := g.SubmitTrack(context.Background(), bob, "2")
	require.NoError(t, err)
	assert.True(t, allUploaded)
}

func TestSubmitTrackReplacesPrevious(t *testing.T) {
	g := newTestGateway(&stubProvider{tracks: map[string]internal.Track{
		"1": {ID: "1", Title: "One", Artist: "A"},
		"2": {ID: "2", Title: "Two", Artist: "B"},
	}})

	alice, _ := joinPlayer(t, g, "room1", "conn-1", "alice")

	_, err := g.SubmitTrack(context.Background(), alice, "1")
	require.NoError(t, err)
	_, err = g.SubmitTrack(context.Background(), alice, "2")
	require.NoError(t, err)

	assert.Equal(t, "Two", alice.SubmittedTrack.Title)
}

func TestSubmitTrackRejectedOutsideLobby(t *testing.T) {
	g := newTestGateway(&stubProvider{tracks: map[string]internal.Track{
		"1": {ID: "1", Title: "One", Artist: "A"},
	}})

	players, _ := fillLobby(t, g, "room1", 2)
	require.NoError(t, StartGame(players[0].Room, players[0].ConnectionID, 30))

	_, err := g.SubmitTrack(context.Background(), players[1], "1")
	assert.ErrorIs(t, err, ErrGameAlreadyStarted)
}

func TestSubmitTrackLookupFailureLeavesStateUntouched(t *testing.T) {
	g := newTestGateway(&stubProvider{err: assert.AnError})

	alice, _ := joinPlayer(t, g, "room1", "conn-1", "alice")
	_, err := g.SubmitTrack(context.Background(), alice, "nope")

	assert.Error(t, err)
	assert.Nil(t, alice.SubmittedTrack)
	assert.False(t, alice.HasUploaded)
}

func TestRemovePlayerDestroysEmptyRoom(t *testing.T) {
	g := newTestGateway(nil)
	alice, _ := joinPlayer(t, g, "room1", "conn-1", "alice")

	g.RemovePlayer(alice)

	_, exists := g.Registry().Get("room1")
	assert.False(t, exists)
}

func TestRemovePlayerPromotesNewHost(t *testing.T) {
	g := newTestGateway(nil)
	alice, _ := joinPlayer(t, g, "room1", "conn-1", "alice")
	bob, _ := joinPlayer(t, g, "room1", "conn-2", "bob")

	g.RemovePlayer(alice)

	room, exists := g.Registry().Get("room1")
	require.True(t, exists)
	room.Mu.RLock()
	defer room.Mu.RUnlock()
	assert.Equal(t, bob.ConnectionID, room.HostID)
}

func TestRemovePlayerIdempotent(t *testing.T) {
	g := newTestGateway(nil)
	alice, _ := joinPlayer(t, g, "room1", "conn-1", "alice")
	joinPlayer(t, g, "room1", "conn-2", "bob")

	g.RemovePlayer(alice)
	g.RemovePlayer(alice) // second call must be a no-op

	room, exists := g.Registry().Get("room1")
	require.True(t, exists)
	room.Mu.RLock()
	defer room.Mu.RUnlock()
	assert.Len(t, room.Players, 1)
}

func TestDispatchJoinRoomAck(t *testing.T) {
	g := newTestGateway(nil)
	player, conn := newTestPlayer("conn-1")

	payload, _ := json.Marshal(joinRoomPayload{Nickname: "alice"})
	g.dispatch(player, "room1", internal.Message[json.RawMessage]{
		Type: "join_room",
		Data: payload,
	})

	acks := conn.acks("join_room")
	require.Len(t, acks, 1)
	assert.True(t, acks[0].Success)
	data := acks[0].Data.(map[string]any)
	assert.Equal(t, true, data["is_host"])
	assert.Equal(t, "room1", data["room"])
}

func TestDispatchRejectionAck(t *testing.T) {
	g := newTestGateway(nil)
	player, conn := newTestPlayer("conn-1")

	payload, _ := json.Marshal(joinRoomPayload{Nickname: ""})
	g.dispatch(player, "room1", internal.Message[json.RawMessage]{
		Type: "join_room",
		Data: payload,
	})

	acks := conn.acks("join_room")
	require.Len(t, acks, 1)
	assert.False(t, acks[0].Success)
	assert.Equal(t, ErrNicknameRequired.Error(), acks[0].Message)
}

func TestDispatchChatMessageAcks(t *testing.T) {
	g := newTestGateway(nil)
	player, conn := joinPlayer(t, g, "room1", "conn-1", "alice")

	payload, _ := json.Marshal(chatMessagePayload{Text: "hello"})
	g.dispatch(player, "room1", internal.Message[json.RawMessage]{
		Type: "chat_message",
		Data: payload,
	})

	// A successful chat gets an ack too, not just the broadcast.
	acks := conn.acks("chat_message")
	require.Len(t, acks, 1)
	assert.True(t, acks[0].Success)

	stranger, strangerConn := newTestPlayer("conn-2")
	g.dispatch(stranger, "room1", internal.Message[json.RawMessage]{
		Type: "chat_message",
		Data: payload,
	})

	acks = strangerConn.acks("chat_message")
	require.Len(t, acks, 1)
	assert.False(t, acks[0].Success)
	assert.Equal(t, ErrRoomNotFound.Error(), acks[0].Message)
}

func TestDispatchSearchTracksRequiresSession(t *testing.T) {
	g := NewGateway(NewRegistry(),
		&stubProvider{tracks: map[string]internal.Track{"1": {ID: "1", Title: "One"}}},
		&stubSessions{valid: map[string]bool{"good": true}})

	player, conn := newTestPlayer("conn-1")

	bad, _ := json.Marshal(searchTracksPayload{Query: "one", SessionID: "expired"})
	g.dispatch(player, "room1", internal.Message[json.RawMessage]{Type: "search_tracks", Data: bad})

	good, _ := json.Marshal(searchTracksPayload{Query: "one", SessionID: "good"})
	g.dispatch(player, "room1", internal.Message[json.RawMessage]{Type: "search_tracks", Data: good})

	acks := conn.acks("search_tracks")
	require.Len(t, acks, 2)
	assert.False(t, acks[0].Success)
	assert.Equal(t, ErrInvalidSession.Error(), acks[0].Message)
	assert.True(t, acks[1].Success)
}
