package voteclock

import (
	"math"
	"time"

	"github.com/mcdev12/voteroom/go/internal/models"
)

// Unlimited is the sentinel span meaning "no time limit".
const Unlimited = models.UnlimitedSpan

// addSpan adds d to span, saturating instead of overflowing. Unlimited stays Unlimited.
func addSpan(span, d time.Duration) time.Duration {
	if span == Unlimited {
		return Unlimited
	}
	if d > 0 && span > Unlimited-d {
		return Unlimited
	}
	if d < 0 && span < math.MinInt64-d {
		return math.MinInt64
	}
	return span + d
}

// clampSpan bounds span to [0, limit].
func clampSpan(span, limit time.Duration) time.Duration {
	if span < 0 {
		return 0
	}
	if span > limit {
		return limit
	}
	return span
}

// consume subtracts elapsed from a finite span, never going below zero.
func consume(span, elapsed time.Duration) time.Duration {
	if span == Unlimited {
		return span
	}
	return clampSpan(span-elapsed, span)
}
