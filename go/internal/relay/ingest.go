package relay

import (
	"encoding/json"
	"fmt"

	"github.com/mcdev12/voteroom/go/internal/models"
	"github.com/mcdev12/voteroom/go/internal/room"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// VoteMessage is an audience vote forwarded from the broadcast site.
// A message with TimeExtend set asks for more time instead of voting, and one
// with Leave set withdraws the viewer from the vote.
type VoteMessage struct {
	RoomID     int    `json:"room_id"`
	VoterID    string `json:"voter_id"`
	VoterName  string `json:"voter_name"`
	Candidate  string `json:"candidate"`
	TimeExtend bool   `json:"time_extend"`
	Leave      bool   `json:"leave"`
}

// Rooms resolves a room id.
type Rooms interface {
	Lookup(id int) (*room.Room, error)
}

// VoteIngest subscribes to <prefix>.votes.* and feeds each vote to its room.
type VoteIngest struct {
	nc      *nats.Conn
	subject string
	rooms   Rooms
	sub     *nats.Subscription
}

func NewVoteIngest(nc *nats.Conn, prefix string, rooms Rooms) *VoteIngest {
	return &VoteIngest{
		nc:      nc,
		subject: prefix + ".votes.*",
		rooms:   rooms,
	}
}

// Start subscribes. Messages are handled on the NATS delivery goroutine.
func (i *VoteIngest) Start() error {
	sub, err := i.nc.Subscribe(i.subject, func(msg *nats.Msg) {
		if err := i.handle(msg.Data); err != nil {
			log.Warn().
				Err(err).
				Str("subject", msg.Subject).
				Str("error_code", string(models.CodeOf(err))).
				Msg("dropped audience vote")
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", i.subject, err)
	}
	i.sub = sub
	log.Info().Str("subject", i.subject).Msg("audience vote ingest started")
	return nil
}

// Stop drains the subscription.
func (i *VoteIngest) Stop() error {
	if i.sub == nil {
		return nil
	}
	return i.sub.Drain()
}

func (i *VoteIngest) handle(data []byte) error {
	var msg VoteMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("unmarshal vote: %v: %w", err, models.ErrArgument)
	}

	r, err := i.rooms.Lookup(msg.RoomID)
	if err != nil {
		return err
	}
	switch {
	case msg.Leave:
		return r.LeaveVote(msg.VoterID)
	case msg.TimeExtend:
		return r.DemandTimeExtend(msg.VoterID)
	}
	return r.SubmitVote(msg.VoterID, msg.VoterName, msg.Candidate)
}
