package models

// Request payloads.

type CreateRoomRequest struct {
	Name          string `json:"name"`
	Password      string `json:"password"`
	OwnerIdentity string `json:"owner_identity"`
	OwnerName     string `json:"owner_name"`
	ImageURL      string `json:"image_url"`
}

type EnterRoomRequest struct {
	RoomID   int    `json:"room_id"`
	Password string `json:"password"`
	Identity string `json:"identity"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// SetAttributeRequest is a partial update; nil fields are left untouched.
type SetAttributeRequest struct {
	IsCommenterEnabled *bool       `json:"is_commenter_enabled,omitempty"`
	LoginState         *LoginState `json:"login_state,omitempty"`
	Message            *string     `json:"message,omitempty"`
}

type GetRoomListRequest struct {
	Start int `json:"start"`
	Count int `json:"count"`
}

type SpanRequest struct {
	SpanMs int64 `json:"span_ms"`
}

type SetBroadcastRequest struct {
	BroadcastID string `json:"broadcast_id"`
}

type SendNotificationRequest struct {
	Notification   Notification `json:"notification"`
	AnnounceAsPush bool         `json:"announce_as_push"`
	Relay          bool         `json:"relay"`
}

type EndRollCommand struct {
	DurationMs int64 `json:"duration_ms"`
}
