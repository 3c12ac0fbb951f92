package room

import (
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/voteroom/go/internal/models"
	"github.com/rs/zerolog/log"
)

// runResultPush pushes the tally to the room on every tick when it changed.
// It exits when the room closes.
func (r *Room) runResultPush(ticker clockwork.Ticker) {
	defer close(r.done)
	defer ticker.Stop()

	log.Debug().Int("room_id", r.id).Msg("result push loop started")

	for {
		select {
		case <-r.stop:
			log.Debug().Int("room_id", r.id).Msg("result push loop stopped")
			return
		case <-ticker.Chan():
			r.pushResultIfChanged()
		}
	}
}

// pushResultIfChanged is one loop iteration. A panic here is logged and the
// loop carries on with the next tick.
func (r *Room) pushResultIfChanged() {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Int("room_id", r.id).
				Interface("panic", rec).
				Msg("result push iteration panicked")
		}
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	result, changed := r.tally.GetChangedResultIfAny()
	if !changed {
		return
	}
	r.sendAllLocked(models.PushVoteResult, result)
	r.metrics.ResultPushed()
}
