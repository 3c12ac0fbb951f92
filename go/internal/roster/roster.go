package roster

import (
	"sort"
	"sync"

	"github.com/mcdev12/voteroom/go/internal/models"
)

// hostPalette is cycled through as live-host voters register.
var hostPalette = []string{
	"#e53935", "#1e88e5", "#43a047", "#fb8c00",
	"#8e24aa", "#00acc1", "#6d4c41", "#3949ab",
}

// audiencePalette is cycled through as viewers first join the vote.
var audiencePalette = []string{
	"#ef9a9a", "#90caf9", "#a5d6a7", "#ffcc80",
	"#ce93d8", "#80deea", "#bcaaa4", "#9fa8da",
}

// Roster tracks the voters of one room: viewers who joined the vote, viewers
// who left it, and the broadcasters registered as live-host voters.
type Roster struct {
	mu       sync.Mutex
	joined   map[string]models.Voter
	unjoined map[string]models.Voter
	hosts    []models.Voter
	viewers  int
}

// New creates an empty roster.
func New() *Roster {
	return &Roster{
		joined:   make(map[string]models.Voter),
		unjoined: make(map[string]models.Voter),
	}
}

// AddHostVoter registers a broadcaster as a voter. It reports false when the
// voter was already registered.
func (r *Roster) AddHostVoter(v models.Voter) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range r.hosts {
		if h.ID == v.ID {
			return false
		}
	}
	v.IsHost = true
	if v.Color == "" {
		v.Color = hostPalette[len(r.hosts)%len(hostPalette)]
	}
	r.hosts = append(r.hosts, v)
	return true
}

// Join marks a viewer as taking part in the vote. A viewer keeps the color
// assigned on first join, including after leaving and rejoining.
func (r *Roster) Join(v models.Voter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v.Color == "" {
		if prev, ok := r.joined[v.ID]; ok {
			v.Color = prev.Color
		} else if prev, ok := r.unjoined[v.ID]; ok {
			v.Color = prev.Color
		} else {
			v.Color = audiencePalette[r.viewers%len(audiencePalette)]
			r.viewers++
		}
	}
	delete(r.unjoined, v.ID)
	r.joined[v.ID] = v
}

// Leave moves a viewer to the unjoined list.
func (r *Roster) Leave(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.joined[id]; ok {
		delete(r.joined, id)
		r.unjoined[id] = v
	}
}

// VoterColor returns the display color of a registered voter.
func (r *Roster) VoterColor(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range r.hosts {
		if h.ID == id {
			return h.Color, h.Color != ""
		}
	}
	if v, ok := r.joined[id]; ok && v.Color != "" {
		return v.Color, true
	}
	return "", false
}

// Snapshot copies the current voter lists. Joined and unjoined voters are
// ordered by id, hosts by registration.
func (r *Roster) Snapshot() models.VoterList {
	r.mu.Lock()
	defer r.mu.Unlock()

	return models.VoterList{
		JoinedVoters:   sortedVoters(r.joined),
		UnjoinedVoters: sortedVoters(r.unjoined),
		HostVoters:     append([]models.Voter(nil), r.hosts...),
	}
}

func sortedVoters(m map[string]models.Voter) []models.Voter {
	out := make([]models.Voter, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
