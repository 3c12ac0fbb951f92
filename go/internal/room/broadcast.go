package room

import (
	"fmt"

	"github.com/mcdev12/voteroom/go/internal/models"
)

var systemNotificationText = map[models.SystemNotificationType]string{
	models.SystemNotificationVoteStart:           "Voting started",
	models.SystemNotificationVotePause:           "Voting paused",
	models.SystemNotificationVoteStop:            "Voting stopped",
	models.SystemNotificationVoteEnd:             "Voting ended",
	models.SystemNotificationChangeVoteSpan:      "Vote time changed",
	models.SystemNotificationChangeTotalVoteSpan: "Total vote time changed",
}

// BroadcastNotification sends n to every participant. Vote and join
// notifications take the voter's roster color when one is known.
func (r *Room) BroadcastNotification(n models.Notification, announceAsPush, relay bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("room %d is closed: %w", r.id, models.ErrVoteRoomNotFound)
	}
	return r.broadcastNotificationLocked(n, announceAsPush, relay)
}

func (r *Room) broadcastNotificationLocked(n models.Notification, announceAsPush, relay bool) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = r.clock.Now().UTC()
	}
	if n.Recolorable() && n.VoterID != "" {
		if color, ok := r.roster.VoterColor(n.VoterID); ok {
			n.Color = color
		}
	}
	n.IsPush = announceAsPush

	r.sendAllLocked(models.PushNotification, n)
	r.metrics.Broadcast(string(n.Kind))

	if relay {
		go r.relayNotification(n)
	}
	return nil
}

// announceLocked broadcasts a server-generated notification. These are
// always well formed, so a validation failure is a programming error.
func (r *Room) announceLocked(n models.Notification) {
	if err := r.broadcastNotificationLocked(n, false, false); err != nil {
		panic(fmt.Sprintf("room %d: invalid server notification: %v", r.id, err))
	}
}

// BroadcastCommand relays a one-way command to every participant.
func (r *Room) BroadcastCommand(msgType models.MessageType, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("room %d is closed: %w", r.id, models.ErrVoteRoomNotFound)
	}
	r.sendAllLocked(msgType, payload)
	r.metrics.Broadcast(string(msgType))
	return nil
}

// BroadcastSystemNotification announces a vote clock transition as a system
// notification.
func (r *Room) BroadcastSystemNotification(kind models.SystemNotificationType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("room %d is closed: %w", r.id, models.ErrVoteRoomNotFound)
	}
	return r.broadcastSystemNotificationLocked(kind)
}

func (r *Room) broadcastSystemNotificationLocked(kind models.SystemNotificationType) error {
	if _, ok := systemNotificationText[kind]; !ok {
		return fmt.Errorf("system notification %q: %w", kind, models.ErrArgument)
	}
	return r.broadcastNotificationLocked(systemNotification(kind), false, false)
}

func systemNotification(kind models.SystemNotificationType) models.Notification {
	return models.Notification{
		Kind:       models.NotificationKindSystem,
		Text:       systemNotificationText[kind],
		SystemType: kind,
	}
}

func (r *Room) broadcastParticipantsLocked() {
	r.sendAllLocked(models.PushParticipantsChanged, r.participantsLocked())
}

func (r *Room) sendAllLocked(msgType models.MessageType, payload any) {
	msg := models.Outbound{Type: msgType, Payload: payload}
	for _, p := range r.participants {
		p.send(msg)
	}
}
