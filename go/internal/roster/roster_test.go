package roster

import (
	"testing"

	"github.com/mcdev12/voteroom/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoster_AddHostVoterIsIdempotent(t *testing.T) {
	r := New()

	assert.True(t, r.AddHostVoter(models.Voter{ID: "host-1", Name: "alice"}))
	assert.False(t, r.AddHostVoter(models.Voter{ID: "host-1", Name: "alice again"}))
	assert.True(t, r.AddHostVoter(models.Voter{ID: "host-2", Name: "bob"}))

	snap := r.Snapshot()
	require.Len(t, snap.HostVoters, 2)
	assert.Equal(t, "alice", snap.HostVoters[0].Name)
	assert.True(t, snap.HostVoters[0].IsHost)
	assert.NotEqual(t, snap.HostVoters[0].Color, snap.HostVoters[1].Color)
}

func TestRoster_VoterColor(t *testing.T) {
	r := New()
	r.AddHostVoter(models.Voter{ID: "host", Color: "#123456"})
	r.Join(models.Voter{ID: "viewer", Color: "#abcdef"})
	r.Join(models.Voter{ID: "plain"})

	tests := []struct {
		id    string
		color string
		ok    bool
	}{
		{"host", "#123456", true},
		{"viewer", "#abcdef", true},
		{"plain", audiencePalette[0], true},
		{"nobody", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			color, ok := r.VoterColor(tt.id)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.color, color)
		})
	}
}

func TestRoster_JoinLeave(t *testing.T) {
	r := New()
	r.Join(models.Voter{ID: "b", Color: "#111111"})
	r.Join(models.Voter{ID: "a"})
	r.Leave("b")

	snap := r.Snapshot()
	require.Len(t, snap.JoinedVoters, 1)
	assert.Equal(t, "a", snap.JoinedVoters[0].ID)
	require.Len(t, snap.UnjoinedVoters, 1)
	assert.Equal(t, "b", snap.UnjoinedVoters[0].ID)

	r.Join(models.Voter{ID: "b"})
	color, ok := r.VoterColor("b")
	assert.True(t, ok)
	assert.Equal(t, "#111111", color)
	assert.Empty(t, r.Snapshot().UnjoinedVoters)
}

func TestRoster_ViewersGetStableColors(t *testing.T) {
	r := New()
	r.Join(models.Voter{ID: "v1"})
	r.Join(models.Voter{ID: "v2"})

	c1, ok := r.VoterColor("v1")
	require.True(t, ok)
	c2, ok := r.VoterColor("v2")
	require.True(t, ok)
	assert.NotEqual(t, c1, c2)

	r.Join(models.Voter{ID: "v1", Name: "renamed"})
	again, _ := r.VoterColor("v1")
	assert.Equal(t, c1, again, "voting again keeps the color")

	r.Leave("v2")
	r.Join(models.Voter{ID: "v2"})
	again, _ = r.VoterColor("v2")
	assert.Equal(t, c2, again, "rejoining keeps the color")
}
