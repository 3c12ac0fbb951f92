package room

import (
	"context"

	"github.com/mcdev12/voteroom/go/internal/models"
)

// Roster is the voter bookkeeping of a room. Implementations synchronize
// internally and never call back into the room.
type Roster interface {
	AddHostVoter(v models.Voter) bool
	Join(v models.Voter)
	Leave(id string)
	VoterColor(id string) (string, bool)
	Snapshot() models.VoterList
}

// Tally is the vote-scoring collaborator of a room. GetChangedResultIfAny
// reports true at most once per change.
type Tally interface {
	AddVote(voterID, candidate string)
	DemandTimeExtend(voterID string)
	GetChangedResultIfAny() (models.VoteResult, bool)
	ClearTimeExtendDemand()
	Reset()
	Result() models.VoteResult
}

// Relay forwards notifications to the live-broadcast site integration.
type Relay interface {
	Relay(ctx context.Context, roomID int, n models.Notification) error
}

// Metrics receives room and session lifecycle counts.
type Metrics interface {
	RoomOpened()
	RoomClosed()
	SessionConnected()
	SessionDisconnected()
	Broadcast(kind string)
	Request(msgType, code string)
	ResultPushed()
}

// Outbound is the per-connection send primitive. Send must not block; it
// reports false when the message could not be queued.
type Outbound interface {
	Send(msg models.Outbound) bool
}

// SessionObserver is notified of session lifecycle events. Rooms register
// themselves on join and unregister on leave.
type SessionObserver interface {
	OnSessionDisconnected(s *Session)
	OnSessionAttributeChanged(s *Session)
}

type noopRelay struct{}

func (noopRelay) Relay(context.Context, int, models.Notification) error { return nil }

type noopMetrics struct{}

func (noopMetrics) RoomOpened()            {}
func (noopMetrics) RoomClosed()            {}
func (noopMetrics) SessionConnected()      {}
func (noopMetrics) SessionDisconnected()   {}
func (noopMetrics) Broadcast(string)       {}
func (noopMetrics) Request(string, string) {}
func (noopMetrics) ResultPushed()          {}
