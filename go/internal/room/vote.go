package room

import (
	"fmt"
	"time"

	"github.com/mcdev12/voteroom/go/internal/models"
	"github.com/mcdev12/voteroom/go/internal/voteclock"
	"github.com/rs/zerolog/log"
)

// StartVote starts or resumes the vote. span is ignored when resuming from Pause.
// A vote started from Stop or End begins with an empty tally.
func (r *Room) StartVote(span time.Duration) (voteclock.Status, error) {
	return r.transition(func() (voteclock.Transition, bool, error) {
		resume := r.voteClock.Status().State == models.VoteStatePause
		tr, err := r.voteClock.StartVote(span)
		if err == nil && !resume {
			r.tally.Reset()
		}
		return tr, err == nil, err
	})
}

func (r *Room) PauseVote() (voteclock.Status, error) {
	return r.transition(func() (voteclock.Transition, bool, error) {
		tr, err := r.voteClock.PauseVote()
		return tr, err == nil, err
	})
}

func (r *Room) StopVote() (voteclock.Status, error) {
	return r.transition(func() (voteclock.Transition, bool, error) {
		tr, err := r.voteClock.StopVote()
		return tr, err == nil, err
	})
}

// SetVoteSpan sets the remaining time of the current vote. It is a no-op
// unless a limited vote is Voting or Paused.
func (r *Room) SetVoteSpan(span time.Duration) (voteclock.Status, error) {
	return r.transition(func() (voteclock.Transition, bool, error) {
		tr, changed := r.voteClock.SetVoteSpan(span)
		return tr, changed, nil
	})
}

func (r *Room) AddVoteSpan(diff time.Duration) (voteclock.Status, error) {
	return r.transition(func() (voteclock.Transition, bool, error) {
		tr, changed := r.voteClock.AddVoteSpan(diff)
		return tr, changed, nil
	})
}

func (r *Room) SetTotalVoteSpan(span time.Duration) (voteclock.Status, error) {
	return r.transition(func() (voteclock.Transition, bool, error) {
		return r.voteClock.SetTotalVoteSpan(span)
	})
}

func (r *Room) AddTotalVoteSpan(diff time.Duration) (voteclock.Status, error) {
	return r.transition(func() (voteclock.Transition, bool, error) {
		return r.voteClock.AddTotalVoteSpan(diff)
	})
}

// transition runs fn under the room lock and announces the resulting
// transition when it changed anything. The returned status is always current.
func (r *Room) transition(fn func() (voteclock.Transition, bool, error)) (voteclock.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return voteclock.Status{}, fmt.Errorf("room %d is closed: %w", r.id, models.ErrVoteRoomNotFound)
	}

	tr, changed, err := fn()
	if err != nil {
		return r.voteClock.Status(), err
	}
	if !changed {
		return r.voteClock.Status(), nil
	}
	r.applyTransitionLocked(tr)
	return tr.Status, nil
}

// onVoteTimer runs on the vote clock's timer goroutine.
func (r *Room) onVoteTimer() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	if tr, ended := r.voteClock.CheckExpired(); ended {
		r.applyTransitionLocked(tr)
	}
}

func (r *Room) applyTransitionLocked(tr voteclock.Transition) {
	event := log.Info().
		Int("room_id", r.id).
		Str("transition", string(tr.Kind)).
		Str("state", string(tr.Status.State)).
		Int64("vote_span_ms", models.SpanMillis(tr.Status.VoteSpan)).
		Int64("total_span_ms", models.SpanMillis(tr.Status.TotalSpan))

	if tr.Kind == models.SystemNotificationVoteStop || tr.Kind == models.SystemNotificationVoteEnd {
		r.tally.ClearTimeExtendDemand()
		event = event.Int("total_votes", r.tally.Result().TotalVotes)
	}
	event.Msg("vote clock transition")

	if err := r.broadcastSystemNotificationLocked(tr.Kind); err != nil {
		panic(fmt.Sprintf("room %d: %v", r.id, err))
	}
	r.sendAllLocked(models.PushVoteStatus, tr.Status.Wire())
}
