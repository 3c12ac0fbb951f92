package voteclock

import (
	"time"

	"github.com/mcdev12/voteroom/go/internal/models"
)

// Status is a consistent snapshot of a VoteClock.
type Status struct {
	State     models.VoteState
	StartedAt time.Time
	VoteSpan  time.Duration
	TotalSpan time.Duration
	// Progress is the time elapsed in the current Voting run, capped at VoteSpan.
	Progress time.Duration
	At       time.Time
}

// Remaining is the time left in the current vote.
func (s Status) Remaining() time.Duration {
	if s.VoteSpan == Unlimited {
		return Unlimited
	}
	return clampSpan(s.VoteSpan-s.Progress, s.VoteSpan)
}

// Wire converts the snapshot to its transport form.
func (s Status) Wire() models.VoteStatus {
	return models.VoteStatus{
		State:         s.State,
		StartedAt:     s.StartedAt,
		VoteSpanMs:    models.SpanMillis(s.VoteSpan),
		TotalSpanMs:   models.SpanMillis(s.TotalSpan),
		ProgressMs:    s.Progress.Milliseconds(),
		RemainingMs:   models.SpanMillis(s.Remaining()),
		ServerTimeUTC: s.At.UTC(),
	}
}

// Transition describes an externally visible change. The caller owning the
// clock is responsible for announcing it.
type Transition struct {
	Kind   models.SystemNotificationType
	Status Status
}
