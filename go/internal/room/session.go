package room

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mcdev12/voteroom/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Attribute limits.
const (
	MaxRoomNameLength        = 32
	MaxParticipantNameLength = 16
	MaxMessageLength         = 128
)

// Session is one connected client. A session is in at most one room at a
// time; only Room changes that pairing.
type Session struct {
	id       uuid.UUID
	registry *Registry
	out      Outbound

	mu                 sync.Mutex
	identity           string
	name               string
	imageURL           string
	message            string
	isCommenterEnabled bool
	loginState         models.LoginState
	room               *Room
	ordinal            int
	observers          []SessionObserver
	disconnected       bool
}

// NewSession creates a session bound to registry that sends through out.
func NewSession(registry *Registry, out Outbound) *Session {
	s := &Session{
		id:         uuid.New(),
		registry:   registry,
		out:        out,
		loginState: models.LoginStateNotLoggedIn,
		ordinal:    -1,
	}
	registry.metrics.SessionConnected()
	return s
}

// ID is the connection handle.
func (s *Session) ID() uuid.UUID { return s.id }

// Room returns the room the session is in, nil when none.
func (s *Session) Room() *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// Ordinal returns the participant number within the current room, -1 outside a room.
func (s *Session) Ordinal() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ordinal
}

// Info returns the public attributes. IsOwner is filled in by the room.
func (s *Session) Info() models.ParticipantInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.ParticipantInfo{
		Identity:           s.identity,
		ParticipantNo:      s.ordinal,
		Name:               s.name,
		ImageURL:           s.imageURL,
		Message:            s.message,
		IsCommenterEnabled: s.isCommenterEnabled,
		LoginState:         s.loginState,
	}
}

func (s *Session) send(msg models.Outbound) bool {
	if ok := s.out.Send(msg); !ok {
		log.Warn().
			Str("session_id", s.id.String()).
			Str("type", string(msg.Type)).
			Msg("dropped outbound message")
		return false
	}
	return true
}

// Disconnect tears the session down and tells every observer. Only the
// first call has any effect.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.disconnected {
		s.mu.Unlock()
		return
	}
	s.disconnected = true
	observers := append([]SessionObserver(nil), s.observers...)
	s.mu.Unlock()

	for _, o := range observers {
		o.OnSessionDisconnected(s)
	}
	s.registry.metrics.SessionDisconnected()
	log.Debug().Str("session_id", s.id.String()).Msg("session disconnected")
}

func (s *Session) attach(r *Room, ordinal int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disconnected {
		return fmt.Errorf("session %s is disconnected: %w", s.id, models.ErrUnhandled)
	}
	if s.room != nil {
		return fmt.Errorf("session %s already in room %d: %w", s.id, s.room.id, models.ErrAlreadyEnteredVoteRoom)
	}
	s.room = r
	s.ordinal = ordinal
	return nil
}

func (s *Session) detach(r *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.room == r {
		s.room = nil
		s.ordinal = -1
	}
}

func (s *Session) addObserver(o SessionObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *Session) removeObserver(o SessionObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.observers {
		if existing == o {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

func (s *Session) setIdentity(identity, name, imageURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
	s.name = name
	s.imageURL = imageURL
}

// OnSessionDisconnected removes the disconnected session from the room.
func (r *Room) OnSessionDisconnected(s *Session) {
	r.RemoveParticipant(s)
}

// OnSessionAttributeChanged republishes the participant list.
func (r *Room) OnSessionAttributeChanged(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.indexLocked(s) < 0 {
		return
	}
	r.broadcastParticipantsLocked()
}

func validateIdentity(identity string) error {
	id, err := uuid.Parse(identity)
	if err != nil || id == uuid.Nil {
		return fmt.Errorf("identity %q is not a GUID: %w", identity, models.ErrArgument)
	}
	return nil
}

func validateLength(field, value string, max int) error {
	n := utf8.RuneCountInString(value)
	if n == 0 || n > max {
		return fmt.Errorf("%s must be 1-%d characters: %w", field, max, models.ErrArgument)
	}
	return nil
}
