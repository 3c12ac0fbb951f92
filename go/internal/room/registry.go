package room

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/voteroom/go/internal/models"
	"github.com/mcdev12/voteroom/go/internal/roster"
	"github.com/mcdev12/voteroom/go/internal/tally"
	"github.com/mcdev12/voteroom/go/internal/voteclock"
	"github.com/rs/zerolog/log"
)

// MaxRoomListCount bounds a single GetRoomList page.
const MaxRoomListCount = 100

// Config holds the per-room settings applied by a Registry.
type Config struct {
	TotalVoteSpan     time.Duration
	PushInterval      time.Duration
	TimerPollInterval time.Duration
	MaxRooms          int
}

// DefaultConfig returns an unlimited total span, a 1s result push and the
// default vote timer poll.
func DefaultConfig() Config {
	return Config{
		TotalVoteSpan:     voteclock.Unlimited,
		PushInterval:      time.Second,
		TimerPollInterval: voteclock.DefaultPollInterval,
		MaxRooms:          1000,
	}
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

func WithRosterFactory(fn func() Roster) RegistryOption {
	return func(r *Registry) { r.newRoster = fn }
}

func WithTallyFactory(fn func() Tally) RegistryOption {
	return func(r *Registry) { r.newTally = fn }
}

func WithRelay(relay Relay) RegistryOption {
	return func(r *Registry) { r.relay = relay }
}

func WithMetrics(m Metrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// Registry creates, finds and forgets rooms. Room ids are assigned from a
// counter and never reused while the process runs.
type Registry struct {
	clock     clockwork.Clock
	cfg       Config
	newRoster func() Roster
	newTally  func() Tally
	relay     Relay
	metrics   Metrics

	mu       sync.Mutex
	rooms    map[int]*Room
	pending  int
	lastID   int
	shutdown bool
}

// NewRegistry creates an empty registry.
func NewRegistry(clock clockwork.Clock, cfg Config, opts ...RegistryOption) *Registry {
	if cfg.PushInterval <= 0 {
		cfg.PushInterval = time.Second
	}
	if cfg.TotalVoteSpan <= 0 {
		cfg.TotalVoteSpan = voteclock.Unlimited
	}
	r := &Registry{
		clock:     clock,
		cfg:       cfg,
		newRoster: func() Roster { return roster.New() },
		newTally:  func() Tally { return tally.New() },
		relay:     noopRelay{},
		metrics:   noopMetrics{},
		rooms:     make(map[int]*Room),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create opens a room with owner as its first participant. The room is only
// published once the owner is in it, so no other session can enter first.
func (g *Registry) Create(name, password string, owner *Session) (*Room, error) {
	g.mu.Lock()
	if g.shutdown {
		g.mu.Unlock()
		return nil, fmt.Errorf("registry shut down: %w", models.ErrCreateVoteRoomFailed)
	}
	if g.cfg.MaxRooms > 0 && len(g.rooms)+g.pending >= g.cfg.MaxRooms {
		g.mu.Unlock()
		return nil, fmt.Errorf("room limit %d reached: %w", g.cfg.MaxRooms, models.ErrCreateVoteRoomFailed)
	}
	g.lastID++
	g.pending++
	id := g.lastID
	g.mu.Unlock()

	room := newRoom(g, id, name, password)
	addErr := room.AddParticipant(owner)

	g.mu.Lock()
	g.pending--
	published := addErr == nil && !g.shutdown
	if published {
		g.rooms[id] = room
		g.metrics.RoomOpened()
	}
	open := len(g.rooms)
	g.mu.Unlock()

	if !published {
		room.Close()
		if addErr != nil {
			return nil, fmt.Errorf("add owner to room %d: %w", id, addErr)
		}
		return nil, fmt.Errorf("registry shut down: %w", models.ErrCreateVoteRoomFailed)
	}

	log.Info().
		Int("room_id", id).
		Str("name", name).
		Bool("has_password", password != "").
		Int("open_rooms", open).
		Msg("vote room created")

	return room, nil
}

// Lookup returns the open room with the given id.
func (g *Registry) Lookup(id int) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %d: %w", id, models.ErrVoteRoomNotFound)
	}
	return room, nil
}

// Count returns the number of open rooms.
func (g *Registry) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

// List returns up to count room summaries ordered by id, skipping the first start.
func (g *Registry) List(start, count int) ([]models.RoomSummary, error) {
	if start < 0 || count <= 0 || count > MaxRoomListCount {
		return nil, fmt.Errorf("room range start=%d count=%d: %w", start, count, models.ErrArgument)
	}

	rooms := g.snapshot()
	if start >= len(rooms) {
		return []models.RoomSummary{}, nil
	}
	end := start + count
	if end > len(rooms) {
		end = len(rooms)
	}

	out := make([]models.RoomSummary, 0, end-start)
	for _, room := range rooms[start:end] {
		out = append(out, room.Summary(nil))
	}
	return out, nil
}

// Shutdown closes every open room and refuses new ones.
func (g *Registry) Shutdown() {
	g.mu.Lock()
	g.shutdown = true
	g.mu.Unlock()

	// rooms take the registry lock while closing, so close them outside it
	for _, room := range g.snapshot() {
		room.Close()
	}
	log.Info().Msg("vote room registry shut down")
}

func (g *Registry) snapshot() []*Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].id < rooms[j].id })
	return rooms
}

// forget removes room from the table. Only the exact room instance is removed.
func (g *Registry) forget(room *Room) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if current, ok := g.rooms[room.id]; ok && current == room {
		delete(g.rooms, room.id)
		g.metrics.RoomClosed()
	}
}
