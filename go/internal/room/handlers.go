package room

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/mcdev12/voteroom/go/internal/models"
	"github.com/mcdev12/voteroom/go/internal/voteclock"
	"github.com/rs/zerolog/log"
)

// CreateRoom opens a room owned by this session.
func (s *Session) CreateRoom(req models.CreateRoomRequest) (models.RoomSummary, error) {
	if current := s.Room(); current != nil {
		return models.RoomSummary{}, fmt.Errorf("session in room %d: %w", current.ID(), models.ErrAlreadyEnteredVoteRoom)
	}
	if err := validateLength("room name", req.Name, MaxRoomNameLength); err != nil {
		return models.RoomSummary{}, err
	}
	if err := validateLength("owner name", req.OwnerName, MaxParticipantNameLength); err != nil {
		return models.RoomSummary{}, err
	}
	if err := validateIdentity(req.OwnerIdentity); err != nil {
		return models.RoomSummary{}, err
	}

	s.setIdentity(req.OwnerIdentity, req.OwnerName, req.ImageURL)
	room, err := s.registry.Create(req.Name, req.Password, s)
	if err != nil {
		return models.RoomSummary{}, err
	}
	return room.Summary(s), nil
}

// EnterRoom joins an existing room.
func (s *Session) EnterRoom(req models.EnterRoomRequest) (models.RoomSummary, error) {
	if current := s.Room(); current != nil {
		return models.RoomSummary{}, fmt.Errorf("session in room %d: %w", current.ID(), models.ErrAlreadyEnteredVoteRoom)
	}
	if req.RoomID <= 0 {
		return models.RoomSummary{}, fmt.Errorf("room id %d: %w", req.RoomID, models.ErrArgument)
	}
	if err := validateLength("name", req.Name, MaxParticipantNameLength); err != nil {
		return models.RoomSummary{}, err
	}
	if err := validateIdentity(req.Identity); err != nil {
		return models.RoomSummary{}, err
	}

	room, err := s.registry.Lookup(req.RoomID)
	if err != nil {
		return models.RoomSummary{}, err
	}
	if err := room.checkPassword(req.Password); err != nil {
		return models.RoomSummary{}, err
	}

	s.setIdentity(req.Identity, req.Name, req.ImageURL)
	if err := room.AddParticipant(s); err != nil {
		return models.RoomSummary{}, err
	}
	return room.Summary(s), nil
}

// LeaveRoom leaves the current room.
func (s *Session) LeaveRoom() error {
	room, err := s.currentRoom()
	if err != nil {
		return err
	}
	room.RemoveParticipant(s)
	return nil
}

// SetAttribute updates the given attributes and returns the new view.
func (s *Session) SetAttribute(req models.SetAttributeRequest) (models.ParticipantInfo, error) {
	if req.LoginState != nil && !req.LoginState.Valid() {
		return models.ParticipantInfo{}, fmt.Errorf("login state %q: %w", *req.LoginState, models.ErrArgument)
	}
	if req.Message != nil && utf8.RuneCountInString(*req.Message) > MaxMessageLength {
		return models.ParticipantInfo{}, fmt.Errorf("message longer than %d: %w", MaxMessageLength, models.ErrArgument)
	}

	s.mu.Lock()
	changed := false
	if req.IsCommenterEnabled != nil && *req.IsCommenterEnabled != s.isCommenterEnabled {
		s.isCommenterEnabled = *req.IsCommenterEnabled
		changed = true
	}
	if req.LoginState != nil && *req.LoginState != s.loginState {
		s.loginState = *req.LoginState
		changed = true
	}
	if req.Message != nil && *req.Message != s.message {
		s.message = *req.Message
		changed = true
	}
	observers := append([]SessionObserver(nil), s.observers...)
	room := s.room
	s.mu.Unlock()

	if changed {
		for _, o := range observers {
			o.OnSessionAttributeChanged(s)
		}
	}

	info := s.Info()
	info.IsOwner = room != nil && room.IsOwnerConnection(s.id)
	return info, nil
}

// GetVoterList returns the roster of the current room.
func (s *Session) GetVoterList() (models.VoterList, error) {
	room, err := s.currentRoom()
	if err != nil {
		return models.VoterList{}, err
	}
	return room.VoterList(), nil
}

// GetRoomList pages through the open rooms. It does not require a room.
func (s *Session) GetRoomList(req models.GetRoomListRequest) ([]models.RoomSummary, error) {
	return s.registry.List(req.Start, req.Count)
}

// GetVoteStatus returns the vote clock of the current room.
func (s *Session) GetVoteStatus() (models.VoteStatus, error) {
	room, err := s.currentRoom()
	if err != nil {
		return models.VoteStatus{}, err
	}
	return room.VoteStatus().Wire(), nil
}

func (s *Session) StartVote(req models.SpanRequest) (models.VoteStatus, error) {
	return s.voteControl(func(r *Room) (voteclock.Status, error) {
		span, err := models.SpanFromMillis(req.SpanMs)
		if err != nil {
			return voteclock.Status{}, err
		}
		return r.StartVote(span)
	})
}

func (s *Session) PauseVote() (models.VoteStatus, error) {
	return s.voteControl((*Room).PauseVote)
}

func (s *Session) StopVote() (models.VoteStatus, error) {
	return s.voteControl((*Room).StopVote)
}

func (s *Session) SetVoteSpan(req models.SpanRequest) (models.VoteStatus, error) {
	return s.voteControl(func(r *Room) (voteclock.Status, error) {
		span, err := models.SpanFromMillis(req.SpanMs)
		if err != nil {
			return voteclock.Status{}, err
		}
		return r.SetVoteSpan(span)
	})
}

func (s *Session) AddVoteSpan(req models.SpanRequest) (models.VoteStatus, error) {
	return s.voteControl(func(r *Room) (voteclock.Status, error) {
		diff, err := models.DeltaFromMillis(req.SpanMs)
		if err != nil {
			return voteclock.Status{}, err
		}
		return r.AddVoteSpan(diff)
	})
}

func (s *Session) SetTotalVoteSpan(req models.SpanRequest) (models.VoteStatus, error) {
	return s.voteControl(func(r *Room) (voteclock.Status, error) {
		span, err := models.SpanFromMillis(req.SpanMs)
		if err != nil {
			return voteclock.Status{}, err
		}
		return r.SetTotalVoteSpan(span)
	})
}

func (s *Session) AddTotalVoteSpan(req models.SpanRequest) (models.VoteStatus, error) {
	return s.voteControl(func(r *Room) (voteclock.Status, error) {
		diff, err := models.DeltaFromMillis(req.SpanMs)
		if err != nil {
			return voteclock.Status{}, err
		}
		return r.AddTotalVoteSpan(diff)
	})
}

func (s *Session) voteControl(fn func(*Room) (voteclock.Status, error)) (models.VoteStatus, error) {
	room, err := s.ownedRoom()
	if err != nil {
		return models.VoteStatus{}, err
	}
	status, err := fn(room)
	if err != nil {
		return models.VoteStatus{}, err
	}
	return status.Wire(), nil
}

// SetBroadcast links the current room to a live broadcast. Owner only.
func (s *Session) SetBroadcast(req models.SetBroadcastRequest) (bool, error) {
	room, err := s.ownedRoom()
	if err != nil {
		return false, err
	}
	return room.SetBroadcast(req.BroadcastID)
}

// SendNotification broadcasts a participant notification to the room.
func (s *Session) SendNotification(req models.SendNotificationRequest) error {
	room, err := s.currentRoom()
	if err != nil {
		return err
	}
	if req.Notification.Kind == models.NotificationKindSystem {
		return fmt.Errorf("participants may not send system notifications: %w", models.ErrArgument)
	}

	n := req.Notification
	info := s.Info()
	if n.VoterID == "" {
		n.VoterID = info.Identity
		n.VoterName = info.Name
	}
	n.Timestamp = time.Time{}
	return room.BroadcastNotification(n, req.AnnounceAsPush, req.Relay)
}

// StartEndRoll tells every participant to start the closing credits roll. Owner only.
func (s *Session) StartEndRoll(cmd models.EndRollCommand) error {
	if cmd.DurationMs <= 0 {
		return fmt.Errorf("end roll duration %dms: %w", cmd.DurationMs, models.ErrArgument)
	}
	room, err := s.ownedRoom()
	if err != nil {
		return err
	}
	return room.BroadcastCommand(models.CommandStartEndRoll, cmd)
}

// StopEndRoll cancels a running end roll. Owner only.
func (s *Session) StopEndRoll() error {
	room, err := s.ownedRoom()
	if err != nil {
		return err
	}
	return room.BroadcastCommand(models.CommandStopEndRoll, struct{}{})
}

func (s *Session) currentRoom() (*Room, error) {
	room := s.Room()
	if room == nil {
		return nil, fmt.Errorf("session %s: %w", s.id, models.ErrNotEnteringVoteRoom)
	}
	return room, nil
}

func (s *Session) ownedRoom() (*Room, error) {
	room, err := s.currentRoom()
	if err != nil {
		return nil, err
	}
	if !room.IsOwnerConnection(s.id) {
		log.Warn().
			Int("room_id", room.ID()).
			Str("session_id", s.id.String()).
			Msg("non-owner attempted owner operation")
		return nil, fmt.Errorf("session %s in room %d: %w", s.id, room.ID(), models.ErrPermissionDenied)
	}
	return room, nil
}
