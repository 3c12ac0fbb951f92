package voteclock

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/voteroom/go/internal/models"
	"github.com/rs/zerolog/log"
)

// armLocked replaces any pending deadline timer with one for the current
// vote. Unlimited or non-running votes leave the clock disarmed.
func (c *VoteClock) armLocked(now time.Time) {
	c.disarmLocked()
	if c.state != models.VoteStateVoting || c.voteSpan == Unlimited {
		return
	}

	wait := c.startedAt.Add(c.voteSpan).Sub(now)
	if wait < 0 {
		wait = 0
	}
	stop := make(chan struct{})
	c.stopTimer = stop
	timer := c.clock.NewTimer(wait)
	go c.watch(timer, stop)

	log.Debug().
		Dur("wait", wait).
		Time("deadline", now.Add(wait)).
		Msg("vote timer armed")
}

// disarmLocked signals the running timer goroutine to exit. It never waits
// for it, because the goroutine may itself be blocked on the caller's lock.
func (c *VoteClock) disarmLocked() {
	if c.stopTimer != nil {
		close(c.stopTimer)
		c.stopTimer = nil
	}
}

// watch fires once at the deadline and then keeps polling until disarmed, in
// case the deadline check ran early or the callback could not end the vote.
func (c *VoteClock) watch(timer clockwork.Timer, stop <-chan struct{}) {
	defer stopAndDrainTimer(timer)

	for {
		select {
		case <-stop:
			return
		case <-timer.Chan():
		}

		select {
		case <-stop:
			return
		default:
		}

		c.fire()
		timer.Reset(c.pollInterval)
	}
}

func (c *VoteClock) fire() {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("vote timer callback panicked")
		}
	}()
	c.onTimer()
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
