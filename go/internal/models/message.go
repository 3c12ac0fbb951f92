package models

import "encoding/json"

// MessageType names a request, command or push message.
type MessageType string

// Requests (answered with a response of the same type).
const (
	RequestCreateRoom       MessageType = "CreateRoom"
	RequestEnterRoom        MessageType = "EnterRoom"
	RequestLeaveRoom        MessageType = "LeaveRoom"
	RequestSetAttribute     MessageType = "SetAttribute"
	RequestGetVoterList     MessageType = "GetVoterList"
	RequestGetRoomList      MessageType = "GetRoomList"
	RequestGetVoteStatus    MessageType = "GetVoteStatus"
	RequestStartVote        MessageType = "StartVote"
	RequestPauseVote        MessageType = "PauseVote"
	RequestStopVote         MessageType = "StopVote"
	RequestSetVoteSpan      MessageType = "SetVoteSpan"
	RequestAddVoteSpan      MessageType = "AddVoteSpan"
	RequestSetTotalVoteSpan MessageType = "SetTotalVoteSpan"
	RequestAddTotalVoteSpan MessageType = "AddTotalVoteSpan"
	RequestSetBroadcast     MessageType = "SetBroadcast"
	RequestSendNotification MessageType = "SendNotification"
)

// Commands (one-way, client to server and echoed server to clients).
const (
	CommandStartEndRoll MessageType = "StartEndRoll"
	CommandStopEndRoll  MessageType = "StopEndRoll"
)

// Pushes (server to client).
const (
	PushNotification        MessageType = "Notification"
	PushVoteStatus          MessageType = "VoteStatus"
	PushVoteResult          MessageType = "VoteResult"
	PushParticipantsChanged MessageType = "ParticipantsChanged"
	PushCommandFailed       MessageType = "CommandFailed"
)

// Request is an inbound request already decoded from the transport.
type Request struct {
	ID      int64           `json:"id"`
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response answers a Request. Code is empty on success.
type Response struct {
	ID      int64       `json:"id"`
	Type    MessageType `json:"type"`
	Code    ErrorCode   `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Payload any         `json:"payload,omitempty"`
}

// Command is a one-way message in either direction.
type Command struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CommandFailure reports a rejected one-way command back to its sender.
type CommandFailure struct {
	Type    MessageType `json:"type"`
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
}

// Outbound is a server-originated message: a response or a command/push.
type Outbound struct {
	Response *Response
	Type     MessageType
	Payload  any
}
