package game

import (
	"slices"

	"github.com/tuneclash/tuneclash-backend/internal"
)

// finalScoresLocked builds the leaderboard: descending by score, ties
// broken by original join order (stable sort over the join ordering).
// The caller must hold room.Mu.
func finalScoresLocked(room *internal.Room) []internal.ScoreEntry {
	players := make([]*internal.Player, 0, len(room.Players))
	for _, player := range room.Players {
		players = append(players, player)
	}

	slices.SortFunc(players, func(a, b *internal.Player) int {
		return a.JoinOrder - b.JoinOrder
	})
	slices.SortStableFunc(players, func(a, b *internal.Player) int {
		return b.Score - a.Score
	})

	scores := make([]internal.ScoreEntry, 0, len(players))
	for _, player := range players {
		scores = append(scores, internal.ScoreEntry{
			PlayerID: player.ConnectionID,
			Nickname: player.Nickname,
			Score:    player.Score,
		})
	}
	return scores
}
