package game

import "errors"

// Rejection reasons surfaced through request acks. None of these mutate
// room state and none are broadcast.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrAlreadyInRoom      = errors.New("connection already joined a room")
	ErrRoomFull           = errors.New("room is full")
	ErrPlayerNotFound     = errors.New("player not found in room")
	ErrNicknameRequired   = errors.New("nickname is required")
	ErrNicknameTooLong    = errors.New("nickname must be 20 characters or fewer")
	ErrDuplicateNickname  = errors.New("nickname already taken in this room")
	ErrNotHost            = errors.New("only the host can do that")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrGameEnded          = errors.New("game has ended")
	ErrNotInProgress      = errors.New("game is not in progress")
	ErrIncompleteUploads  = errors.New("waiting for all players to submit a track")
	ErrMustReset          = errors.New("game must be reset before starting again")
	ErrMustEndFirst       = errors.New("game is not over yet")
	ErrInvalidDuration    = errors.New("turn duration must be between 10 and 120 seconds")
	ErrTooManyMessages    = errors.New("too many messages, slow down")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrMalformedMessage   = errors.New("malformed message")
)
