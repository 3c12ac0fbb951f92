package room

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/voteroom/go/internal/models"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu   sync.Mutex
	msgs []models.Outbound
}

func (r *recorder) Send(msg models.Outbound) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return true
}

func (r *recorder) ofType(t models.MessageType) []models.Outbound {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Outbound
	for _, m := range r.msgs {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func (r *recorder) notifications() []models.Notification {
	var out []models.Notification
	for _, m := range r.ofType(models.PushNotification) {
		out = append(out, m.Payload.(models.Notification))
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}

type mockRelay struct {
	mock.Mock
}

func (m *mockRelay) Relay(ctx context.Context, roomID int, n models.Notification) error {
	args := m.Called(ctx, roomID, n)
	return args.Error(0)
}

type client struct {
	*Session
	out      *recorder
	identity string
}

func newTestClock() *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(testEpoch)
}

func newTestRegistry(t *testing.T, opts ...RegistryOption) (*Registry, *clockwork.FakeClock) {
	t.Helper()
	clock := newTestClock()
	reg := NewRegistry(clock, DefaultConfig(), opts...)
	t.Cleanup(reg.Shutdown)
	return reg, clock
}

func newClient(reg *Registry) *client {
	out := &recorder{}
	return &client{Session: NewSession(reg, out), out: out, identity: uuid.NewString()}
}

func createRoom(t *testing.T, reg *Registry, name, password string) (*client, *Room) {
	t.Helper()
	owner := newClient(reg)
	summary, err := owner.CreateRoom(models.CreateRoomRequest{
		Name:          name,
		Password:      password,
		OwnerIdentity: owner.identity,
		OwnerName:     "owner",
	})
	require.NoError(t, err)
	room, err := reg.Lookup(summary.ID)
	require.NoError(t, err)
	return owner, room
}

func enter(t *testing.T, reg *Registry, room *Room, name, password string) *client {
	t.Helper()
	c := newClient(reg)
	_, err := c.EnterRoom(models.EnterRoomRequest{
		RoomID:   room.ID(),
		Password: password,
		Identity: c.identity,
		Name:     name,
	})
	require.NoError(t, err)
	return c
}

func requireCode(t *testing.T, code models.ErrorCode, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, models.CodeOf(err), err.Error())
}
