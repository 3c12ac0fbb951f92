package relay

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/voteroom/go/internal/models"
	"github.com/mcdev12/voteroom/go/internal/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discard struct{}

func (discard) Send(models.Outbound) bool { return true }

func newVotingRoom(t *testing.T) (*room.Registry, *room.Room) {
	t.Helper()
	reg := room.NewRegistry(clockwork.NewFakeClock(), room.DefaultConfig())
	t.Cleanup(reg.Shutdown)

	owner := room.NewSession(reg, discard{})
	summary, err := owner.CreateRoom(models.CreateRoomRequest{
		Name:          "ingest",
		OwnerIdentity: uuid.NewString(),
		OwnerName:     "owner",
	})
	require.NoError(t, err)
	_, err = owner.StartVote(models.SpanRequest{SpanMs: -1})
	require.NoError(t, err)

	r, err := reg.Lookup(summary.ID)
	require.NoError(t, err)
	return reg, r
}

func TestVoteIngest_Handle(t *testing.T) {
	reg, r := newVotingRoom(t)
	ingest := NewVoteIngest(nil, "voteroom", reg)

	tests := []struct {
		name string
		data string
		code models.ErrorCode
	}{
		{"vote", `{"room_id":1,"voter_id":"viewer-1","voter_name":"v","candidate":"7g7f"}`, models.CodeOK},
		{"time extend", `{"room_id":1,"voter_id":"viewer-2","time_extend":true}`, models.CodeOK},
		{"unknown room", `{"room_id":42,"voter_id":"viewer-1","candidate":"7g7f"}`, models.CodeVoteRoomNotFound},
		{"missing candidate", `{"room_id":1,"voter_id":"viewer-1"}`, models.CodeArgument},
		{"garbage", `not json`, models.CodeArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ingest.handle([]byte(tt.data))
			assert.Equal(t, tt.code, models.CodeOf(err))
		})
	}

	voters := r.VoterList()
	require.Len(t, voters.JoinedVoters, 1)
	assert.Equal(t, "viewer-1", voters.JoinedVoters[0].ID)
}

func TestVoteIngest_Leave(t *testing.T) {
	reg, r := newVotingRoom(t)
	ingest := NewVoteIngest(nil, "voteroom", reg)

	require.NoError(t, ingest.handle([]byte(`{"room_id":1,"voter_id":"viewer-1","candidate":"7g7f"}`)))
	require.NoError(t, ingest.handle([]byte(`{"room_id":1,"voter_id":"viewer-1","leave":true}`)))

	voters := r.VoterList()
	assert.Empty(t, voters.JoinedVoters)
	require.Len(t, voters.UnjoinedVoters, 1)
	assert.Equal(t, "viewer-1", voters.UnjoinedVoters[0].ID)
}

func TestVoteIngest_RejectsWhenNotVoting(t *testing.T) {
	reg, r := newVotingRoom(t)
	_, err := r.StopVote()
	require.NoError(t, err)

	err = NewVoteIngest(nil, "voteroom", reg).handle([]byte(`{"room_id":1,"voter_id":"v","candidate":"c"}`))
	assert.Equal(t, models.CodeInvalidVoteState, models.CodeOf(err))
}

func TestNotificationSubject(t *testing.T) {
	assert.Equal(t, "voteroom.notifications.12", NotificationSubject("voteroom", 12))
	assert.Equal(t, "voteroom.votes.*", NewVoteIngest(nil, "voteroom", nil).subject)
}

func TestNoopRelay(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, NoopRelay{}.Relay(ctx, 1, models.Notification{Kind: models.NotificationKindMessage, Text: "hi"}))
}
