package game

import (
	"context"
	"log"
	"time"

	"github.com/tuneclash/tuneclash-backend/internal"
)

// =============================================================================
// TIMER MANAGEMENT
// =============================================================================

// startTurnTimerLocked arms the room's single timer slot. The caller must
// hold room.Mu. Any previously scheduled timer is cancelled first, so two
// advance sequences can never overlap (cancel-before-reschedule).
func startTurnTimerLocked(room *internal.Room, duration time.Duration, onExpire func()) {
	cancelTurnTimerLocked(room)

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	room.Timer = &internal.GameTimer{
		StartTime: time.Now(),
		Duration:  duration,
		IsActive:  true,
		Context:   ctx,
		Cancel:    cancel,
	}

	go func() {
		<-ctx.Done()

		room.Mu.Lock()
		// Only the timer that still owns the slot may act; a cancelled
		// timer whose slot was reused must do nothing.
		owns := room.Timer != nil && room.Timer.Context == ctx
		if owns {
			room.Timer.IsActive = false
		}
		room.Mu.Unlock()

		if owns && ctx.Err() == context.DeadlineExceeded {
			log.Printf("[startTurnTimerLocked] room=%s: timer expired after %v", room.Code, duration)
			onExpire()
		}
	}()
}

// cancelTurnTimerLocked stops the current timer if one is armed. The
// caller must hold room.Mu. Idempotent: cancelling an already-fired or
// already-cancelled timer is a no-op.
func cancelTurnTimerLocked(room *internal.Room) {
	if room.Timer == nil || !room.Timer.IsActive {
		return
	}

	if room.Timer.Cancel != nil {
		room.Timer.Cancel()
	}
	room.Timer.IsActive = false

	log.Printf("[cancelTurnTimerLocked] room=%s: timer cancelled", room.Code)
}

// CancelTurnTimer is the unlocked variant, used on room teardown.
func CancelTurnTimer(room *internal.Room) {
	if room == nil {
		return
	}
	room.Mu.Lock()
	cancelTurnTimerLocked(room)
	room.Mu.Unlock()
}
