package models

// Voter is a roster entry. Live-host voters are the broadcasters themselves,
// registered when they join a room that has an associated broadcast.
type Voter struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
	Color    string `json:"color,omitempty"`
	IsHost   bool   `json:"is_host"`
}

// VoterList is a roster snapshot.
type VoterList struct {
	JoinedVoters   []Voter `json:"joined_voters"`
	UnjoinedVoters []Voter `json:"unjoined_voters"`
	HostVoters     []Voter `json:"host_voters"`
}
