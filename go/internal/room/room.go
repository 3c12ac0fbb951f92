package room

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/voteroom/go/internal/models"
	"github.com/mcdev12/voteroom/go/internal/voteclock"
	"github.com/rs/zerolog/log"
)

const relayTimeout = 5 * time.Second

// Room is one voting room: its participants, owner, vote clock and the
// periodic result push. All mutable state is guarded by mu; the vote clock,
// roster and tally are only called while mu is held.
type Room struct {
	id        int
	name      string
	password  string
	createdAt time.Time

	registry  *Registry
	clock     clockwork.Clock
	voteClock *voteclock.VoteClock
	roster    Roster
	tally     Tally
	relay     Relay
	metrics   Metrics

	lastOrdinal atomic.Int64

	mu           sync.Mutex
	participants []*Session
	owner        *Session
	broadcastID  string
	closed       bool
	stop         chan struct{}
	done         chan struct{}
}

func newRoom(g *Registry, id int, name, password string) *Room {
	r := &Room{
		id:        id,
		name:      name,
		password:  password,
		createdAt: g.clock.Now(),
		registry:  g,
		clock:     g.clock,
		roster:    g.newRoster(),
		tally:     g.newTally(),
		relay:     g.relay,
		metrics:   g.metrics,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	r.voteClock = voteclock.New(g.clock, g.cfg.TotalVoteSpan,
		voteclock.WithPollInterval(g.cfg.TimerPollInterval),
		voteclock.WithTimerCallback(r.onVoteTimer),
	)

	ticker := g.clock.NewTicker(g.cfg.PushInterval)
	go r.runResultPush(ticker)
	return r
}

// ID returns the registry-assigned room id.
func (r *Room) ID() int { return r.id }

// Name returns the display name given at creation.
func (r *Room) Name() string { return r.name }

// Done is closed once the result push loop has exited after Close.
func (r *Room) Done() <-chan struct{} { return r.done }

// checkPassword compares in constant time. Rooms without a password accept anything.
func (r *Room) checkPassword(password string) error {
	if r.password == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(r.password), []byte(password)) != 1 {
		return fmt.Errorf("room %d: %w", r.id, models.ErrPasswordUnmatched)
	}
	return nil
}

// AddParticipant attaches s to the room, assigning the next ordinal. The
// first participant becomes owner.
func (r *Room) AddParticipant(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("room %d is closed: %w", r.id, models.ErrVoteRoomNotFound)
	}
	if current := s.Room(); current != nil {
		return fmt.Errorf("session %s already in room %d: %w", s.ID(), current.id, models.ErrAlreadyEnteredVoteRoom)
	}

	ordinal := int(r.lastOrdinal.Add(1))
	if err := s.attach(r, ordinal); err != nil {
		return err
	}
	s.addObserver(r)
	r.participants = append(r.participants, s)

	if r.owner == nil {
		r.owner = s
	}
	r.registerHostVoterLocked(s)

	info := s.Info()
	log.Info().
		Int("room_id", r.id).
		Str("session_id", s.ID().String()).
		Int("participant_no", ordinal).
		Bool("owner", r.owner == s).
		Int("participants", len(r.participants)).
		Msg("participant joined vote room")

	r.broadcastParticipantsLocked()
	r.announceLocked(models.Notification{
		Kind:      models.NotificationKindJoin,
		Text:      fmt.Sprintf("%s joined", info.Name),
		VoterID:   info.Identity,
		VoterName: info.Name,
	})
	return nil
}

// RemoveParticipant detaches s. Ownership passes to the oldest remaining
// participant and the room closes when nobody is left.
func (r *Room) RemoveParticipant(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(s)
}

func (r *Room) removeLocked(s *Session) bool {
	idx := r.indexLocked(s)
	if idx < 0 {
		return false
	}

	r.participants = append(r.participants[:idx], r.participants[idx+1:]...)
	s.removeObserver(r)
	s.detach(r)
	info := s.Info()

	if r.owner == s {
		r.owner = nil
		if len(r.participants) > 0 {
			r.owner = r.participants[0]
			log.Info().
				Int("room_id", r.id).
				Str("owner_session_id", r.owner.ID().String()).
				Msg("vote room ownership transferred")
		}
	}

	log.Info().
		Int("room_id", r.id).
		Str("session_id", s.ID().String()).
		Int("participants", len(r.participants)).
		Msg("participant left vote room")

	if len(r.participants) == 0 {
		r.closeLocked()
		return true
	}

	r.broadcastParticipantsLocked()
	r.announceLocked(models.Notification{
		Kind:      models.NotificationKindLeave,
		Text:      fmt.Sprintf("%s left", info.Name),
		VoterID:   info.Identity,
		VoterName: info.Name,
	})
	return true
}

func (r *Room) indexLocked(s *Session) int {
	for i, p := range r.participants {
		if p == s {
			return i
		}
	}
	return -1
}

// Close shuts the room down. It is safe to call more than once.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
}

func (r *Room) closeLocked() {
	if r.closed {
		return
	}
	r.closed = true
	close(r.stop)
	r.voteClock.Close()

	for _, p := range r.participants {
		p.removeObserver(r)
		p.detach(r)
	}
	r.participants = nil
	r.owner = nil

	r.registry.forget(r)

	log.Info().
		Int("room_id", r.id).
		Dur("lifetime", r.clock.Since(r.createdAt)).
		Msg("vote room closed")
}

// IsOwnerConnection reports whether the session identified by handle owns the room.
func (r *Room) IsOwnerConnection(handle uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owner != nil && r.owner.ID() == handle
}

// Participants returns the current participants in join order.
func (r *Room) Participants() []models.ParticipantInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.participantsLocked()
}

func (r *Room) participantsLocked() []models.ParticipantInfo {
	out := make([]models.ParticipantInfo, 0, len(r.participants))
	for _, p := range r.participants {
		info := p.Info()
		info.IsOwner = p == r.owner
		out = append(out, info)
	}
	return out
}

// Summary describes the room. When viewer is a participant its ordinal and
// the participant list are included.
func (r *Room) Summary(viewer *Session) models.RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary := models.RoomSummary{
		ID:               r.id,
		Name:             r.name,
		HasPassword:      r.password != "",
		ParticipantCount: len(r.participants),
	}
	if r.owner != nil {
		summary.OwnerName = r.owner.Info().Name
	}
	if viewer != nil && r.indexLocked(viewer) >= 0 {
		status := r.voteClock.Status().Wire()
		summary.ParticipantNo = viewer.Ordinal()
		summary.Participants = r.participantsLocked()
		summary.VoteStatus = &status
	}
	return summary
}

// VoteStatus returns the current vote clock snapshot.
func (r *Room) VoteStatus() voteclock.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.voteClock.Status()
}

// VoterList returns the roster split into joined, unjoined and host voters.
func (r *Room) VoterList() models.VoterList {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roster.Snapshot()
}

// BroadcastID returns the linked live broadcast, empty when none.
func (r *Room) BroadcastID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.broadcastID
}

// SetBroadcast links the room to a live broadcast. On the first link or any
// change, current participants are registered as host voters.
func (r *Room) SetBroadcast(broadcastID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false, fmt.Errorf("room %d is closed: %w", r.id, models.ErrVoteRoomNotFound)
	}
	if broadcastID == "" {
		return false, fmt.Errorf("empty broadcast id: %w", models.ErrArgument)
	}
	if r.broadcastID == broadcastID {
		return false, nil
	}

	r.broadcastID = broadcastID
	for _, p := range r.participants {
		r.registerHostVoterLocked(p)
	}
	log.Info().Int("room_id", r.id).Str("broadcast_id", broadcastID).Msg("vote room linked to broadcast")
	return true, nil
}

func (r *Room) registerHostVoterLocked(s *Session) {
	if r.broadcastID == "" {
		return
	}
	info := s.Info()
	r.roster.AddHostVoter(models.Voter{
		ID:       info.Identity,
		Name:     info.Name,
		ImageURL: info.ImageURL,
		IsHost:   true,
	})
}

// SubmitVote records a vote from the broadcast audience. Votes are only
// counted while the clock is Voting.
func (r *Room) SubmitVote(voterID, voterName, candidate string) error {
	if voterID == "" || candidate == "" {
		return fmt.Errorf("vote without voter or candidate: %w", models.ErrArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.acceptVoteLocked(); err != nil {
		return err
	}
	r.roster.Join(models.Voter{ID: voterID, Name: voterName})
	r.tally.AddVote(voterID, candidate)
	return nil
}

// DemandTimeExtend records an audience request for more voting time.
func (r *Room) DemandTimeExtend(voterID string) error {
	if voterID == "" {
		return fmt.Errorf("time extend demand without voter: %w", models.ErrArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.acceptVoteLocked(); err != nil {
		return err
	}
	r.tally.DemandTimeExtend(voterID)
	return nil
}

// LeaveVote moves an audience voter to the unjoined list. Their ballot stays
// counted for the current vote.
func (r *Room) LeaveVote(voterID string) error {
	if voterID == "" {
		return fmt.Errorf("leave without voter: %w", models.ErrArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("room %d is closed: %w", r.id, models.ErrVoteRoomNotFound)
	}
	r.roster.Leave(voterID)
	return nil
}

func (r *Room) acceptVoteLocked() error {
	if r.closed {
		return fmt.Errorf("room %d is closed: %w", r.id, models.ErrVoteRoomNotFound)
	}
	if state := r.voteClock.Status().State; state != models.VoteStateVoting {
		return fmt.Errorf("room %d is %s: %w", r.id, state, voteclock.ErrInvalidState)
	}
	return nil
}

func (r *Room) relayNotification(n models.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), relayTimeout)
	defer cancel()

	if err := r.relay.Relay(ctx, r.id, n); err != nil {
		log.Error().
			Err(err).
			Int("room_id", r.id).
			Str("kind", string(n.Kind)).
			Msg("failed to relay notification to broadcast site")
	}
}
