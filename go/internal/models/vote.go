package models

import (
	"fmt"
	"math"
	"time"
)

// UnlimitedSpan marks a vote or total span with no time limit.
const UnlimitedSpan time.Duration = math.MaxInt64

// VoteState defines the state of a room's vote clock.
type VoteState string

const (
	VoteStateStop   VoteState = "STOP"
	VoteStateVoting VoteState = "VOTING"
	VoteStatePause  VoteState = "PAUSE"
	VoteStateEnd    VoteState = "END"
)

// SystemNotificationType identifies a vote clock transition announced to a room.
type SystemNotificationType string

const (
	SystemNotificationVoteStart           SystemNotificationType = "VOTE_START"
	SystemNotificationVotePause           SystemNotificationType = "VOTE_PAUSE"
	SystemNotificationVoteStop            SystemNotificationType = "VOTE_STOP"
	SystemNotificationVoteEnd             SystemNotificationType = "VOTE_END"
	SystemNotificationChangeVoteSpan      SystemNotificationType = "CHANGE_VOTE_SPAN"
	SystemNotificationChangeTotalVoteSpan SystemNotificationType = "CHANGE_TOTAL_VOTE_SPAN"
)

// VoteStatus is the wire form of a vote clock snapshot. Spans are in
// milliseconds; -1 means unlimited.
type VoteStatus struct {
	State         VoteState `json:"state"`
	StartedAt     time.Time `json:"started_at"`
	VoteSpanMs    int64     `json:"vote_span_ms"`
	TotalSpanMs   int64     `json:"total_span_ms"`
	ProgressMs    int64     `json:"progress_ms"`
	RemainingMs   int64     `json:"remaining_ms"`
	ServerTimeUTC time.Time `json:"server_time"`
}

// CandidateScore is one line of a vote result.
type CandidateScore struct {
	Candidate string `json:"candidate"`
	Points    int    `json:"points"`
}

// VoteResult is the snapshot pushed to a room when the tally changes.
type VoteResult struct {
	Candidates        []CandidateScore `json:"candidates"`
	TotalVotes        int              `json:"total_votes"`
	TimeExtendDemands int              `json:"time_extend_demands"`
}

// SpanMillis converts a span to its wire form.
func SpanMillis(d time.Duration) int64 {
	if d == UnlimitedSpan {
		return -1
	}
	return d.Milliseconds()
}

// maxSpanMillis bounds wire spans so the conversion to a duration cannot wrap.
const maxSpanMillis = math.MaxInt64 / int64(time.Millisecond)

// SpanFromMillis converts a wire span back to a duration. -1 means unlimited.
// Any other negative value is kept as a negative duration so callers can
// reject it. Values that do not fit in a duration are an argument error.
func SpanFromMillis(ms int64) (time.Duration, error) {
	if ms == -1 {
		return UnlimitedSpan, nil
	}
	return DeltaFromMillis(ms)
}

// DeltaFromMillis converts a signed span adjustment to a duration.
func DeltaFromMillis(ms int64) (time.Duration, error) {
	if ms > maxSpanMillis || ms < -maxSpanMillis {
		return 0, fmt.Errorf("span %dms out of range: %w", ms, ErrArgument)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
