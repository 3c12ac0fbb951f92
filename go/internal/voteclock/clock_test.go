package voteclock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/voteroom/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)

func newTestClock(total time.Duration, opts ...Option) (*VoteClock, *clockwork.FakeClock) {
	fc := clockwork.NewFakeClockAt(epoch)
	return New(fc, total, opts...), fc
}

func TestVoteClock_PauseChargesElapsedTime(t *testing.T) {
	c, fc := newTestClock(7200 * time.Second)
	defer c.Close()

	tr, err := c.StartVote(120 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, models.SystemNotificationVoteStart, tr.Kind)
	assert.Equal(t, models.VoteStateVoting, tr.Status.State)
	assert.Equal(t, 120*time.Second, tr.Status.VoteSpan)

	fc.Advance(90 * time.Second)

	tr, err = c.PauseVote()
	require.NoError(t, err)
	assert.Equal(t, models.SystemNotificationVotePause, tr.Kind)
	assert.Equal(t, models.VoteStatePause, tr.Status.State)
	assert.Equal(t, 30*time.Second, tr.Status.VoteSpan)
	assert.Equal(t, 7110*time.Second, tr.Status.TotalSpan)
}

func TestVoteClock_ResumeKeepsHeldSpan(t *testing.T) {
	c, fc := newTestClock(7200 * time.Second)
	defer c.Close()

	_, err := c.StartVote(120 * time.Second)
	require.NoError(t, err)
	fc.Advance(90 * time.Second)
	_, err = c.PauseVote()
	require.NoError(t, err)
	fc.Advance(45 * time.Second)

	tr, err := c.StartVote(999 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, models.VoteStateVoting, tr.Status.State)
	assert.Equal(t, 30*time.Second, tr.Status.VoteSpan)
	assert.Equal(t, fc.Now(), tr.Status.StartedAt)
	assert.Equal(t, 7110*time.Second, tr.Status.TotalSpan)
}

func TestVoteClock_StartRejectsNonPositiveSpan(t *testing.T) {
	for _, span := range []time.Duration{0, -5 * time.Second} {
		t.Run(span.String(), func(t *testing.T) {
			c, _ := newTestClock(7200 * time.Second)
			defer c.Close()

			_, err := c.StartVote(span)
			assert.ErrorIs(t, err, ErrInvalidSpan)
			assert.Equal(t, models.CodeArgument, models.CodeOf(err))

			st := c.Status()
			assert.Equal(t, models.VoteStateStop, st.State)
			assert.Equal(t, time.Duration(0), st.VoteSpan)
			assert.Equal(t, 7200*time.Second, st.TotalSpan)
		})
	}
}

func TestVoteClock_StartClampsToTotal(t *testing.T) {
	c, _ := newTestClock(60 * time.Second)
	defer c.Close()

	tr, err := c.StartVote(10 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, tr.Status.VoteSpan)
}

func TestVoteClock_SpanConservation(t *testing.T) {
	c, fc := newTestClock(2 * time.Hour)
	defer c.Close()

	_, err := c.StartVote(30 * time.Minute)
	require.NoError(t, err)

	runs := []time.Duration{17 * time.Second, 2 * time.Minute, 450 * time.Millisecond, 9 * time.Minute}
	var spent time.Duration
	before := c.Status().TotalSpan
	for i, run := range runs {
		if i > 0 {
			_, err := c.StartVote(time.Hour)
			require.NoError(t, err)
		}
		fc.Advance(run)
		spent += run
		_, err := c.PauseVote()
		require.NoError(t, err)
		fc.Advance(time.Minute)
	}

	after := c.Status()
	assert.LessOrEqual(t, after.TotalSpan, before)
	assert.Equal(t, spent, before-after.TotalSpan)
	assert.Equal(t, 30*time.Minute-spent, after.VoteSpan)
}

func TestVoteClock_ClampLaw(t *testing.T) {
	inputs := []time.Duration{
		-Unlimited, -time.Hour, -time.Second, 0, time.Second,
		5 * time.Minute, 10 * time.Minute, time.Hour, Unlimited,
	}

	for _, pause := range []bool{false, true} {
		for _, x := range inputs {
			c, fc := newTestClock(10 * time.Minute)
			_, err := c.StartVote(5 * time.Minute)
			require.NoError(t, err)
			fc.Advance(time.Minute)
			if pause {
				_, err = c.PauseVote()
				require.NoError(t, err)
			}

			c.SetVoteSpan(x)
			st := c.Status()
			assert.GreaterOrEqual(t, st.VoteSpan, time.Duration(0), "set %v pause=%v", x, pause)
			assert.LessOrEqual(t, st.VoteSpan, st.TotalSpan, "set %v pause=%v", x, pause)

			c.AddVoteSpan(x)
			st = c.Status()
			assert.GreaterOrEqual(t, st.VoteSpan, time.Duration(0), "add %v pause=%v", x, pause)
			assert.LessOrEqual(t, st.VoteSpan, st.TotalSpan, "add %v pause=%v", x, pause)
			c.Close()
		}
	}
}

func TestVoteClock_SetVoteSpanSetsRemaining(t *testing.T) {
	c, fc := newTestClock(time.Hour)
	defer c.Close()

	_, err := c.StartVote(2 * time.Minute)
	require.NoError(t, err)
	fc.Advance(20 * time.Second)

	tr, changed := c.SetVoteSpan(time.Minute)
	require.True(t, changed)
	assert.Equal(t, models.SystemNotificationChangeVoteSpan, tr.Kind)
	assert.Equal(t, 80*time.Second, tr.Status.VoteSpan)
	assert.Equal(t, time.Minute, tr.Status.Remaining())

	_, changed = c.SetVoteSpan(time.Minute)
	assert.False(t, changed)

	tr, changed = c.AddVoteSpan(30 * time.Second)
	require.True(t, changed)
	assert.Equal(t, 90*time.Second, tr.Status.Remaining())
}

func TestVoteClock_SpanChangesIgnoredWhenNotAdjustable(t *testing.T) {
	t.Run("stopped", func(t *testing.T) {
		c, _ := newTestClock(time.Hour)
		defer c.Close()

		_, changed := c.SetVoteSpan(time.Minute)
		assert.False(t, changed)
		_, changed = c.AddVoteSpan(time.Minute)
		assert.False(t, changed)
	})

	t.Run("unlimited vote", func(t *testing.T) {
		c, _ := newTestClock(Unlimited)
		defer c.Close()

		tr, err := c.StartVote(Unlimited)
		require.NoError(t, err)
		assert.Equal(t, Unlimited, tr.Status.VoteSpan)
		assert.Equal(t, Unlimited, tr.Status.Remaining())

		_, changed := c.SetVoteSpan(time.Minute)
		assert.False(t, changed)
		_, changed = c.AddVoteSpan(time.Minute)
		assert.False(t, changed)
	})
}

func TestVoteClock_StopChargesElapsedTime(t *testing.T) {
	t.Run("from voting", func(t *testing.T) {
		c, fc := newTestClock(7200 * time.Second)
		defer c.Close()

		_, err := c.StartVote(60 * time.Second)
		require.NoError(t, err)
		fc.Advance(20 * time.Second)

		tr, err := c.StopVote()
		require.NoError(t, err)
		assert.Equal(t, models.SystemNotificationVoteStop, tr.Kind)
		assert.Equal(t, models.VoteStateStop, tr.Status.State)
		assert.Equal(t, time.Duration(0), tr.Status.VoteSpan)
		assert.Equal(t, 7180*time.Second, tr.Status.TotalSpan)
	})

	t.Run("from pause", func(t *testing.T) {
		c, fc := newTestClock(7200 * time.Second)
		defer c.Close()

		_, err := c.StartVote(60 * time.Second)
		require.NoError(t, err)
		fc.Advance(20 * time.Second)
		_, err = c.PauseVote()
		require.NoError(t, err)
		fc.Advance(time.Hour)

		tr, err := c.StopVote()
		require.NoError(t, err)
		assert.Equal(t, 7180*time.Second, tr.Status.TotalSpan)
	})
}

func TestVoteClock_InvalidTransitions(t *testing.T) {
	c, _ := newTestClock(time.Hour)
	defer c.Close()

	_, err := c.PauseVote()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = c.StopVote()
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = c.StartVote(time.Minute)
	require.NoError(t, err)
	_, err = c.StartVote(time.Minute)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, models.CodeInvalidVoteState, models.CodeOf(err))
}

func TestVoteClock_ExpiresAtDeadline(t *testing.T) {
	c, fc := newTestClock(time.Hour)
	defer c.Close()

	_, err := c.StartVote(10 * time.Second)
	require.NoError(t, err)

	fc.Advance(9 * time.Second)
	assert.Equal(t, models.VoteStateVoting, c.Status().State)

	fc.Advance(time.Second)
	assert.Eventually(t, func() bool {
		return c.Status().State == models.VoteStateEnd
	}, time.Second, 5*time.Millisecond)

	st := c.Status()
	assert.Equal(t, time.Duration(0), st.VoteSpan)
	assert.Equal(t, time.Hour-10*time.Second, st.TotalSpan)

	tr, err := c.StartVote(time.Minute)
	require.NoError(t, err, "a new vote may start after the previous one ended")
	assert.Equal(t, models.VoteStateVoting, tr.Status.State)
}

func TestVoteClock_ResumeRearmsTimer(t *testing.T) {
	c, fc := newTestClock(time.Hour)
	defer c.Close()

	_, err := c.StartVote(10 * time.Second)
	require.NoError(t, err)
	fc.Advance(4 * time.Second)
	_, err = c.PauseVote()
	require.NoError(t, err)

	fc.Advance(time.Minute)
	assert.Equal(t, models.VoteStatePause, c.Status().State)

	_, err = c.StartVote(time.Second)
	require.NoError(t, err)
	fc.Advance(6 * time.Second)
	assert.Eventually(t, func() bool {
		return c.Status().State == models.VoteStateEnd
	}, time.Second, 5*time.Millisecond)
}

func TestVoteClock_TimerPollsAfterDeadline(t *testing.T) {
	var calls atomic.Int32
	c, fc := newTestClock(time.Hour, WithTimerCallback(func() { calls.Add(1) }))
	defer c.Close()

	_, err := c.StartVote(10 * time.Second)
	require.NoError(t, err)

	fc.Advance(10 * time.Second)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))

	fc.Advance(DefaultPollInterval)
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	_, err = c.StopVote()
	require.NoError(t, err)
	fc.Advance(time.Minute)
	assert.Never(t, func() bool { return calls.Load() > 2 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestVoteClock_TotalSpan(t *testing.T) {
	t.Run("shrinking total clamps the vote span", func(t *testing.T) {
		c, _ := newTestClock(time.Hour)
		defer c.Close()

		_, err := c.StartVote(2 * time.Minute)
		require.NoError(t, err)
		_, err = c.PauseVote()
		require.NoError(t, err)

		tr, changed, err := c.SetTotalVoteSpan(time.Minute)
		require.NoError(t, err)
		require.True(t, changed)
		assert.Equal(t, models.SystemNotificationChangeTotalVoteSpan, tr.Kind)
		assert.Equal(t, time.Minute, tr.Status.TotalSpan)
		assert.Equal(t, time.Minute, tr.Status.VoteSpan)
	})

	t.Run("total counts from now while voting", func(t *testing.T) {
		c, fc := newTestClock(time.Hour)
		defer c.Close()

		_, err := c.StartVote(10 * time.Minute)
		require.NoError(t, err)
		fc.Advance(time.Minute)

		tr, changed, err := c.SetTotalVoteSpan(30 * time.Minute)
		require.NoError(t, err)
		require.True(t, changed)
		assert.Equal(t, 31*time.Minute, tr.Status.TotalSpan)

		_, err = c.PauseVote()
		require.NoError(t, err)
		assert.Equal(t, 30*time.Minute, c.Status().TotalSpan)
	})

	t.Run("add to finite total", func(t *testing.T) {
		c, _ := newTestClock(time.Hour)
		defer c.Close()

		tr, changed, err := c.AddTotalVoteSpan(-2 * time.Hour)
		require.NoError(t, err)
		require.True(t, changed)
		assert.Equal(t, time.Duration(0), tr.Status.TotalSpan)

		tr, changed, err = c.AddTotalVoteSpan(15 * time.Minute)
		require.NoError(t, err)
		require.True(t, changed)
		assert.Equal(t, 15*time.Minute, tr.Status.TotalSpan)
	})

	t.Run("add to unlimited total is a no-op", func(t *testing.T) {
		c, _ := newTestClock(Unlimited)
		defer c.Close()

		_, changed, err := c.AddTotalVoteSpan(time.Minute)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("cannot limit total during an unlimited vote", func(t *testing.T) {
		c, _ := newTestClock(Unlimited)
		defer c.Close()

		_, err := c.StartVote(Unlimited)
		require.NoError(t, err)

		_, _, err = c.SetTotalVoteSpan(time.Hour)
		assert.ErrorIs(t, err, ErrUnlimitedVoteInProgress)
		assert.Equal(t, Unlimited, c.Status().TotalSpan)

		_, changed, err := c.SetTotalVoteSpan(Unlimited)
		require.NoError(t, err)
		assert.False(t, changed)
	})
}

func TestVoteClock_ClosedClockRejectsTransitions(t *testing.T) {
	c, fc := newTestClock(time.Hour)

	_, err := c.StartVote(time.Minute)
	require.NoError(t, err)
	c.Close()

	fc.Advance(time.Hour)
	assert.Equal(t, models.VoteStateVoting, c.Status().State)

	_, err = c.StopVote()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, ok := c.CheckExpired()
	assert.False(t, ok)
}

func TestSyncedClock(t *testing.T) {
	fc := clockwork.NewFakeClockAt(epoch)
	assert.Same(t, clockwork.Clock(fc), NewSyncedClock(fc, 0))

	sc := NewSyncedClock(fc, 1500*time.Millisecond)
	assert.Equal(t, epoch.Add(1500*time.Millisecond), sc.Now())
	assert.Equal(t, 1500*time.Millisecond, sc.Since(epoch))
}

func TestStatus_Wire(t *testing.T) {
	st := Status{
		State:     models.VoteStateVoting,
		StartedAt: epoch,
		VoteSpan:  time.Minute,
		TotalSpan: Unlimited,
		Progress:  15 * time.Second,
		At:        epoch.Add(15 * time.Second),
	}
	w := st.Wire()
	assert.Equal(t, int64(60000), w.VoteSpanMs)
	assert.Equal(t, int64(-1), w.TotalSpanMs)
	assert.Equal(t, int64(45000), w.RemainingMs)
	assert.Equal(t, int64(15000), w.ProgressMs)
}
