package room

import (
	"fmt"
	"testing"

	"github.com/mcdev12/voteroom/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_IDsIncrease(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, first := createRoom(t, reg, "a", "")
	first.Close()
	_, second := createRoom(t, reg, "b", "")

	assert.Greater(t, second.ID(), first.ID())
	_, err := reg.Lookup(first.ID())
	requireCode(t, models.CodeVoteRoomNotFound, err)
}

func TestRegistry_List(t *testing.T) {
	reg, _ := newTestRegistry(t)
	for i := 0; i < 5; i++ {
		createRoom(t, reg, fmt.Sprintf("room-%d", i), "")
	}

	page, err := reg.List(1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "room-1", page[0].Name)
	assert.Equal(t, "room-2", page[1].Name)
	assert.Equal(t, 1, page[0].ParticipantCount)
	assert.Equal(t, "owner", page[0].OwnerName)
	assert.Nil(t, page[0].Participants, "listings do not expose participants")

	page, err = reg.List(4, 10)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	page, err = reg.List(10, 10)
	require.NoError(t, err)
	assert.Empty(t, page)

	_, err = reg.List(0, 0)
	requireCode(t, models.CodeArgument, err)
	_, err = reg.List(0, MaxRoomListCount+1)
	requireCode(t, models.CodeArgument, err)
	_, err = reg.List(-1, 1)
	requireCode(t, models.CodeArgument, err)
}

func TestRegistry_MaxRooms(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRooms = 1
	reg := NewRegistry(newTestClock(), cfg)
	t.Cleanup(reg.Shutdown)

	createRoom(t, reg, "a", "")
	c := newClient(reg)
	_, err := c.CreateRoom(models.CreateRoomRequest{Name: "b", OwnerName: "o", OwnerIdentity: c.identity})
	requireCode(t, models.CodeCreateVoteRoomFailed, err)
}

func TestRegistry_Shutdown(t *testing.T) {
	reg, _ := newTestRegistry(t)
	owner, room := createRoom(t, reg, "a", "")
	enter(t, reg, room, "alice", "")

	reg.Shutdown()

	assert.Equal(t, 0, reg.Count())
	assert.Nil(t, owner.Room())
	<-room.Done()

	c := newClient(reg)
	_, err := c.CreateRoom(models.CreateRoomRequest{Name: "b", OwnerName: "o", OwnerIdentity: c.identity})
	requireCode(t, models.CodeCreateVoteRoomFailed, err)
}

func TestRegistry_CreatePublishesRoomWithOwner(t *testing.T) {
	reg, _ := newTestRegistry(t)
	owner := newClient(reg)

	room, err := reg.Create("a", "", owner.Session)
	require.NoError(t, err)

	found, err := reg.Lookup(room.ID())
	require.NoError(t, err)
	assert.Same(t, room, found)
	assert.True(t, found.IsOwnerConnection(owner.ID()))
	assert.Equal(t, 1, owner.Ordinal())
	assert.Len(t, found.Participants(), 1)
}

func TestRegistry_CreateFailureLeavesNoRoom(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRooms = 1
	reg := NewRegistry(newTestClock(), cfg)
	t.Cleanup(reg.Shutdown)

	gone := newClient(reg)
	gone.Disconnect()
	_, err := reg.Create("a", "", gone.Session)
	requireCode(t, models.CodeUnhandled, err)
	assert.Equal(t, 0, reg.Count())

	// the failed attempt released its slot
	_, room := createRoom(t, reg, "b", "")
	assert.Equal(t, 1, reg.Count())
	assert.Equal(t, room, reg.snapshot()[0])
}
