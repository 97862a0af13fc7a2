package game

import (
	"log"
	"strings"
	"time"

	"github.com/tuneclash/tuneclash-backend/internal"
	"github.com/tuneclash/tuneclash-backend/internal/utils"
)

// =============================================================================
// CHAT & GUESS HANDLING
// =============================================================================

// HandleChatMessage broadcasts a chat line and, while a game is in
// progress, scores it against the turn-holder's track. Matching is
// substring containment over lowercased, trimmed text; title and artist
// are credited independently, each at most once per turn per player and
// worth exactly 1 point.
func HandleChatMessage(room *internal.Room, player *internal.Player, text string) error {
	if player.Limiter != nil && !player.Limiter.Allow() {
		return ErrTooManyMessages
	}

	room.Mu.Lock()

	if _, ok := room.Players[player.ConnectionID]; !ok {
		room.Mu.Unlock()
		return ErrPlayerNotFound
	}

	event := internal.ChatEvent{
		SenderNickname: player.Nickname,
		Text:           text,
		Timestamp:      time.Now().UnixMilli(),
	}

	credited := false
	if room.Phase == internal.PhaseInProgress {
		holder := room.Holder()
		// The turn-holder cannot guess their own track.
		if holder != nil && holder.ConnectionID != player.ConnectionID && holder.SubmittedTrack != nil {
			guess := utils.NormalizeGuess(text)
			title := utils.NormalizeGuess(holder.SubmittedTrack.Title)
			artist := utils.NormalizeGuess(holder.SubmittedTrack.Artist)

			titleHit := false
			if !player.CorrectThisTurn.Title && title != "" && strings.Contains(guess, title) {
				player.CorrectThisTurn.Title = true
				player.Score++
				titleHit = true
			}
			artistHit := false
			if !player.CorrectThisTurn.Artist && artist != "" && strings.Contains(guess, artist) {
				player.CorrectThisTurn.Artist = true
				player.Score++
				artistHit = true
			}

			if titleHit || artistHit {
				credited = true
				event.GuessOutcome = &internal.GuessOutcome{
					TitleCorrect:    titleHit,
					ArtistCorrect:   artistHit,
					GuesserNickname: player.Nickname,
					RevealedTitle:   holder.SubmittedTrack.Title,
					RevealedArtist:  holder.SubmittedTrack.Artist,
				}
			}
		}
	}

	var snapshot internal.RoomUpdateData
	score := player.Score
	if credited {
		snapshot = room.Snapshot()
	}
	room.Mu.Unlock()

	if credited {
		log.Printf("[HandleChatMessage] room=%s: %s credited (title=%t artist=%t), score=%d",
			room.Code, player.Nickname, event.GuessOutcome.TitleCorrect,
			event.GuessOutcome.ArtistCorrect, score)
	}

	SafeBroadcastToRoom(room, internal.Message[any]{
		Type: "chat_message",
		Data: event,
	})
	if credited {
		// Score change must be visible immediately.
		SafeBroadcastToRoom(room, internal.Message[any]{
			Type: "room_update",
			Data: snapshot,
		})
	}
	return nil
}
