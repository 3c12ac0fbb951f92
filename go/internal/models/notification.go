package models

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// NotificationKind classifies a room notification.
type NotificationKind string

const (
	NotificationKindMessage NotificationKind = "MESSAGE"
	NotificationKindVote    NotificationKind = "VOTE"
	NotificationKindJoin    NotificationKind = "JOIN"
	NotificationKindLeave   NotificationKind = "LEAVE"
	NotificationKindSystem  NotificationKind = "SYSTEM"
)

// MaxNotificationTextLength bounds the text of a single notification.
const MaxNotificationTextLength = 256

// Notification is a message shown to every participant of a room.
type Notification struct {
	Kind       NotificationKind       `json:"kind"`
	Text       string                 `json:"text"`
	VoterID    string                 `json:"voter_id,omitempty"`
	VoterName  string                 `json:"voter_name,omitempty"`
	Color      string                 `json:"color,omitempty"`
	SystemType SystemNotificationType `json:"system_type,omitempty"`
	IsPush     bool                   `json:"is_push"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Validate checks the notification before it is broadcast.
func (n Notification) Validate() error {
	switch n.Kind {
	case NotificationKindMessage, NotificationKindVote, NotificationKindJoin,
		NotificationKindLeave, NotificationKindSystem:
	default:
		return fmt.Errorf("unknown notification kind %q: %w", n.Kind, ErrArgument)
	}
	if n.Kind == NotificationKindSystem && n.SystemType == "" {
		return fmt.Errorf("system notification without type: %w", ErrArgument)
	}
	if n.Kind != NotificationKindSystem && n.Text == "" {
		return fmt.Errorf("empty notification text: %w", ErrArgument)
	}
	if utf8.RuneCountInString(n.Text) > MaxNotificationTextLength {
		return fmt.Errorf("notification text longer than %d: %w", MaxNotificationTextLength, ErrArgument)
	}
	return nil
}

// Recolorable reports whether the kind takes the submitting voter's roster color.
func (n Notification) Recolorable() bool {
	return n.Kind == NotificationKindVote || n.Kind == NotificationKindJoin
}
