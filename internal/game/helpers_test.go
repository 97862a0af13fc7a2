package game

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/tuneclash/tuneclash-backend/internal"
)

// fakeConn records everything written to it. ReadMessage reports EOF so
// a read loop started against it exits immediately.
type fakeConn struct {
	mu     sync.Mutex
	frames []any
	closed bool
}

func (c *fakeConn) ReadMessage() (int, []byte, error) { return 0, nil, io.EOF }

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// broadcasts returns the recorded broadcast frames of one type.
func (c *fakeConn) broadcasts(msgType string) []internal.Message[any] {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []internal.Message[any]
	for _, frame := range c.frames {
		if msg, ok := frame.(internal.Message[any]); ok && msg.Type == msgType {
			out = append(out, msg)
		}
	}
	return out
}

// acks returns the recorded ack replies for one event.
func (c *fakeConn) acks(event string) []internal.Ack {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []internal.Ack
	for _, frame := range c.frames {
		if msg, ok := frame.(internal.Message[internal.Ack]); ok && msg.Data.Event == event {
			out = append(out, msg.Data)
		}
	}
	return out
}

// stubProvider serves canned tracks keyed by ref.
type stubProvider struct {
	tracks map[string]internal.Track
	err    error
}

func (s *stubProvider) Resolve(_ context.Context, ref string) (*internal.Track, error) {
	if s.err != nil {
		return nil, s.err
	}
	track, ok := s.tracks[ref]
	if !ok {
		return nil, ErrRoomNotFound // any error will do for the caller
	}
	return &track, nil
}

func (s *stubProvider) Search(_ context.Context, _ string) ([]internal.Track, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]internal.Track, 0, len(s.tracks))
	for _, t := range s.tracks {
		out = append(out, t)
	}
	return out, nil
}

type stubSessions struct{ valid map[string]bool }

func (s *stubSessions) Valid(id string) bool { return s.valid[id] }

func newTestGateway(provider *stubProvider) *Gateway {
	if provider == nil {
		provider = &stubProvider{tracks: map[string]internal.Track{}}
	}
	return NewGateway(NewRegistry(), provider, &stubSessions{valid: map[string]bool{}})
}

// newTestPlayer builds an unattached player backed by a fakeConn.
func newTestPlayer(id string) (*internal.Player, *fakeConn) {
	conn := &fakeConn{}
	return &internal.Player{
		ConnectionID: id,
		Conn:         conn,
		Limiter:      rate.NewLimiter(rate.Inf, 1),
	}, conn
}

// joinPlayer joins a fresh player and fails the test on rejection.
func joinPlayer(t *testing.T, g *Gateway, roomCode, id, nickname string) (*internal.Player, *fakeConn) {
	t.Helper()
	player, conn := newTestPlayer(id)
	_, err := g.JoinRoom(player, roomCode, nickname)
	require.NoError(t, err)
	return player, conn
}

// fillLobby joins n players with submitted tracks, ready to start.
func fillLobby(t *testing.T, g *Gateway, roomCode string, n int) ([]*internal.Player, []*fakeConn) {
	t.Helper()

	players := make([]*internal.Player, 0, n)
	conns := make([]*fakeConn, 0, n)
	for i := 0; i < n; i++ {
		player, conn := joinPlayer(t, g, roomCode, fmt.Sprintf("conn-%d", i), fmt.Sprintf("player-%d", i))
		player.SubmittedTrack = &internal.Track{
			ID:     fmt.Sprintf("%d", i),
			Title:  fmt.Sprintf("Song %d", i),
			Artist: fmt.Sprintf("Artist %d", i),
		}
		player.HasUploaded = true
		players = append(players, player)
		conns = append(conns, conn)
	}
	return players, conns
}

// shortRevealWindow shrinks the answer-reveal pause for the duration of
// a test.
func shortRevealWindow(t *testing.T, d time.Duration) {
	t.Helper()
	old := RevealWindow
	RevealWindow = d
	t.Cleanup(func() { RevealWindow = old })
}
