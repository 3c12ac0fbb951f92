package tally

import (
	"sort"
	"sync"

	"github.com/mcdev12/voteroom/go/internal/models"
)

// Counter is a one-voter-one-vote tally. Each voter's latest vote counts.
// It remembers the revision it last reported so the room only pushes results
// that actually changed.
type Counter struct {
	mu       sync.Mutex
	votes    map[string]string
	extends  map[string]struct{}
	revision uint64
	reported uint64
}

// New creates an empty tally.
func New() *Counter {
	return &Counter{
		votes:   make(map[string]string),
		extends: make(map[string]struct{}),
	}
}

// AddVote records voterID's vote for candidate.
func (c *Counter) AddVote(voterID, candidate string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.votes[voterID]; ok && prev == candidate {
		return
	}
	c.votes[voterID] = candidate
	c.revision++
}

// DemandTimeExtend records a viewer asking for more voting time.
func (c *Counter) DemandTimeExtend(voterID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.extends[voterID]; ok {
		return
	}
	c.extends[voterID] = struct{}{}
	c.revision++
}

// ClearTimeExtendDemand drops every pending time-extend demand.
func (c *Counter) ClearTimeExtendDemand() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.extends) == 0 {
		return
	}
	c.extends = make(map[string]struct{})
	c.revision++
}

// Reset drops all votes and demands.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.votes) == 0 && len(c.extends) == 0 {
		return
	}
	c.votes = make(map[string]string)
	c.extends = make(map[string]struct{})
	c.revision++
}

// Result computes the current result.
func (c *Counter) Result() models.VoteResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resultLocked()
}

// GetChangedResultIfAny returns the result only if it changed since the last
// call that returned true.
func (c *Counter) GetChangedResultIfAny() (models.VoteResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.revision == c.reported {
		return models.VoteResult{}, false
	}
	c.reported = c.revision
	return c.resultLocked(), true
}

func (c *Counter) resultLocked() models.VoteResult {
	points := make(map[string]int)
	for _, candidate := range c.votes {
		points[candidate]++
	}

	scores := make([]models.CandidateScore, 0, len(points))
	for candidate, p := range points {
		scores = append(scores, models.CandidateScore{Candidate: candidate, Points: p})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Points != scores[j].Points {
			return scores[i].Points > scores[j].Points
		}
		return scores[i].Candidate < scores[j].Candidate
	})

	return models.VoteResult{
		Candidates:        scores,
		TotalVotes:        len(c.votes),
		TimeExtendDemands: len(c.extends),
	}
}
