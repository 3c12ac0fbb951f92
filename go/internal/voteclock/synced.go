package voteclock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// SyncedClock shifts a base clock by a fixed offset, correcting the host
// clock against the network time the broadcast clients use. Timers are
// relative and are not affected by the offset.
type SyncedClock struct {
	clockwork.Clock
	offset time.Duration
}

// NewSyncedClock wraps base. A zero offset returns base unchanged.
func NewSyncedClock(base clockwork.Clock, offset time.Duration) clockwork.Clock {
	if offset == 0 {
		return base
	}
	return &SyncedClock{Clock: base, offset: offset}
}

func (c *SyncedClock) Now() time.Time {
	return c.Clock.Now().Add(c.offset)
}

func (c *SyncedClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

func (c *SyncedClock) Until(t time.Time) time.Duration {
	return t.Sub(c.Now())
}
