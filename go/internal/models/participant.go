package models

// LoginState reports the participant's broadcast-site login level.
type LoginState string

const (
	LoginStateNotLoggedIn LoginState = "NOT_LOGGED_IN"
	LoginStateNormal      LoginState = "NORMAL"
	LoginStatePremium     LoginState = "PREMIUM"
)

// Valid reports whether s is one of the known login states.
func (s LoginState) Valid() bool {
	switch s {
	case LoginStateNotLoggedIn, LoginStateNormal, LoginStatePremium:
		return true
	}
	return false
}

// ParticipantInfo is the public view of a session's attributes.
type ParticipantInfo struct {
	Identity           string     `json:"identity"`
	ParticipantNo      int        `json:"participant_no"`
	Name               string     `json:"name"`
	ImageURL           string     `json:"image_url"`
	Message            string     `json:"message"`
	IsCommenterEnabled bool       `json:"is_commenter_enabled"`
	LoginState         LoginState `json:"login_state"`
	IsOwner            bool       `json:"is_owner"`
}

// RoomSummary is returned from create/enter and room listings.
type RoomSummary struct {
	ID               int               `json:"id"`
	Name             string            `json:"name"`
	HasPassword      bool              `json:"has_password"`
	OwnerName        string            `json:"owner_name"`
	ParticipantCount int               `json:"participant_count"`
	ParticipantNo    int               `json:"participant_no,omitempty"`
	Participants     []ParticipantInfo `json:"participants,omitempty"`
	VoteStatus       *VoteStatus       `json:"vote_status,omitempty"`
}
