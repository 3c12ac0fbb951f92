package voteclock

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/voteroom/go/internal/models"
)

// DefaultPollInterval is how often an expired-but-unhandled vote is rechecked
// after the deadline timer has fired.
const DefaultPollInterval = 300 * time.Millisecond

var (
	ErrInvalidSpan             = models.NewError(models.CodeArgument, "vote span must be positive")
	ErrInvalidState            = models.NewError(models.CodeInvalidVoteState, "operation not allowed in the current vote state")
	ErrUnlimitedVoteInProgress = models.NewError(models.CodeInvalidVoteState, "total span cannot be limited while an unlimited vote is in progress")
)

// VoteClock tracks the vote state of one room together with its remaining
// and lifetime time budgets.
//
// Stop|End --StartVote--> Voting --PauseVote--> Pause --StartVote--> Voting
// Voting|Pause --StopVote--> Stop, Voting --deadline--> End
type VoteClock struct {
	clock        clockwork.Clock
	pollInterval time.Duration
	onTimer      func()

	mu        sync.Mutex
	state     models.VoteState
	startedAt time.Time
	voteSpan  time.Duration
	totalSpan time.Duration
	stopTimer chan struct{}
	closed    bool
}

// Option configures a VoteClock.
type Option func(*VoteClock)

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(c *VoteClock) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithTimerCallback replaces the function run when the deadline timer fires.
// Rooms use this to take their lock and announce the End transition; the
// callback is expected to end up calling CheckExpired.
func WithTimerCallback(fn func()) Option {
	return func(c *VoteClock) {
		if fn != nil {
			c.onTimer = fn
		}
	}
}

// New creates a stopped clock with the given lifetime budget.
func New(clock clockwork.Clock, totalSpan time.Duration, opts ...Option) *VoteClock {
	c := &VoteClock{
		clock:        clock,
		pollInterval: DefaultPollInterval,
		state:        models.VoteStateStop,
		totalSpan:    clampSpan(totalSpan, Unlimited),
	}
	c.onTimer = func() { c.CheckExpired() }
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status returns a snapshot taken at the current time.
func (c *VoteClock) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked(c.clock.Now())
}

func (c *VoteClock) statusLocked(now time.Time) Status {
	return Status{
		State:     c.state,
		StartedAt: c.startedAt,
		VoteSpan:  c.voteSpan,
		TotalSpan: c.totalSpan,
		Progress:  c.elapsedLocked(now),
		At:        now,
	}
}

func (c *VoteClock) transitionLocked(kind models.SystemNotificationType, now time.Time) Transition {
	return Transition{Kind: kind, Status: c.statusLocked(now)}
}

// elapsedLocked is the portion of the current vote already spent.
func (c *VoteClock) elapsedLocked(now time.Time) time.Duration {
	if c.state != models.VoteStateVoting {
		return 0
	}
	elapsed := now.Sub(c.startedAt)
	if elapsed < 0 {
		return 0
	}
	if c.voteSpan != Unlimited && elapsed > c.voteSpan {
		return c.voteSpan
	}
	return elapsed
}

func (c *VoteClock) remainingLocked(now time.Time) time.Duration {
	if c.voteSpan == Unlimited {
		return Unlimited
	}
	return c.voteSpan - c.elapsedLocked(now)
}

// StartVote starts a new vote, or resumes a paused one at its held span.
func (c *VoteClock) StartVote(span time.Duration) (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Transition{}, ErrInvalidState
	}
	now := c.clock.Now()

	switch c.state {
	case models.VoteStatePause:
		// the requested span is ignored on resume
	case models.VoteStateStop, models.VoteStateEnd:
		if span <= 0 {
			return Transition{}, ErrInvalidSpan
		}
		c.voteSpan = clampSpan(span, c.totalSpan)
	default:
		return Transition{}, ErrInvalidState
	}

	c.state = models.VoteStateVoting
	c.startedAt = now
	c.armLocked(now)
	return c.transitionLocked(models.SystemNotificationVoteStart, now), nil
}

// PauseVote pauses a running vote, charging the elapsed time to both spans.
func (c *VoteClock) PauseVote() (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.state != models.VoteStateVoting {
		return Transition{}, ErrInvalidState
	}
	now := c.clock.Now()
	elapsed := c.elapsedLocked(now)

	c.voteSpan = consume(c.voteSpan, elapsed)
	c.totalSpan = consume(c.totalSpan, elapsed)
	c.state = models.VoteStatePause
	c.disarmLocked()
	return c.transitionLocked(models.SystemNotificationVotePause, now), nil
}

// StopVote stops a running or paused vote.
func (c *VoteClock) StopVote() (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Transition{}, ErrInvalidState
	}
	if c.state != models.VoteStateVoting && c.state != models.VoteStatePause {
		return Transition{}, ErrInvalidState
	}
	now := c.clock.Now()
	c.finishLocked(now, models.VoteStateStop)
	return c.transitionLocked(models.SystemNotificationVoteStop, now), nil
}

// CheckExpired ends the vote when its remaining time is used up. It is run by
// the deadline timer and is safe to call at any time.
func (c *VoteClock) CheckExpired() (Transition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.state != models.VoteStateVoting || c.voteSpan == Unlimited {
		return Transition{}, false
	}
	now := c.clock.Now()
	if c.voteSpan-now.Sub(c.startedAt) > 0 {
		return Transition{}, false
	}
	c.finishLocked(now, models.VoteStateEnd)
	return c.transitionLocked(models.SystemNotificationVoteEnd, now), true
}

func (c *VoteClock) finishLocked(now time.Time, state models.VoteState) {
	c.totalSpan = consume(c.totalSpan, c.elapsedLocked(now))
	c.voteSpan = 0
	c.state = state
	c.disarmLocked()
}

// adjustableLocked reports whether the current vote span may be changed.
func (c *VoteClock) adjustableLocked() bool {
	if c.closed || c.voteSpan == Unlimited {
		return false
	}
	return c.state == models.VoteStateVoting || c.state == models.VoteStatePause
}

// SetVoteSpan sets the remaining time of the current vote. It reports false
// when nothing changed.
func (c *VoteClock) SetVoteSpan(span time.Duration) (Transition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.adjustableLocked() {
		return Transition{}, false
	}
	if span < 0 {
		span = 0
	}
	now := c.clock.Now()
	return c.shiftVoteSpanLocked(now, addSpan(span, -c.remainingLocked(now)))
}

// AddVoteSpan extends (or with a negative diff, shortens) the current vote.
func (c *VoteClock) AddVoteSpan(diff time.Duration) (Transition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.adjustableLocked() {
		return Transition{}, false
	}
	return c.shiftVoteSpanLocked(c.clock.Now(), diff)
}

func (c *VoteClock) shiftVoteSpanLocked(now time.Time, delta time.Duration) (Transition, bool) {
	span := clampSpan(addSpan(c.voteSpan, delta), c.totalSpan)
	if span == c.voteSpan {
		return Transition{}, false
	}
	c.voteSpan = span
	if c.state == models.VoteStateVoting {
		c.armLocked(now)
	}
	return c.transitionLocked(models.SystemNotificationChangeVoteSpan, now), true
}

// SetTotalVoteSpan sets the remaining lifetime budget of the room.
func (c *VoteClock) SetTotalVoteSpan(span time.Duration) (Transition, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Transition{}, false, ErrInvalidState
	}
	if span < 0 {
		span = 0
	}
	now := c.clock.Now()
	// while voting the stored total still includes the time spent so far
	return c.setTotalLocked(now, addSpan(span, c.elapsedLocked(now)))
}

// AddTotalVoteSpan adjusts a finite lifetime budget by diff. An unlimited
// budget is left unchanged.
func (c *VoteClock) AddTotalVoteSpan(diff time.Duration) (Transition, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Transition{}, false, ErrInvalidState
	}
	if c.totalSpan == Unlimited {
		return Transition{}, false, nil
	}
	return c.setTotalLocked(c.clock.Now(), clampSpan(addSpan(c.totalSpan, diff), Unlimited))
}

func (c *VoteClock) setTotalLocked(now time.Time, total time.Duration) (Transition, bool, error) {
	unlimitedVote := c.voteSpan == Unlimited &&
		(c.state == models.VoteStateVoting || c.state == models.VoteStatePause)
	if total != Unlimited && unlimitedVote {
		return Transition{}, false, ErrUnlimitedVoteInProgress
	}
	if total == c.totalSpan {
		return Transition{}, false, nil
	}

	c.totalSpan = total
	if c.voteSpan > total {
		c.voteSpan = total
	}
	if c.state == models.VoteStateVoting {
		c.armLocked(now)
	}
	return c.transitionLocked(models.SystemNotificationChangeTotalVoteSpan, now), true, nil
}

// Close disarms the timer for good. Later transitions fail with ErrInvalidState.
func (c *VoteClock) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.disarmLocked()
}
