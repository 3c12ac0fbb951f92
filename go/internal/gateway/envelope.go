package gateway

import (
	"encoding/json"

	"github.com/mcdev12/voteroom/go/internal/models"
)

// Envelope kinds on the websocket.
const (
	KindRequest  = "request"
	KindResponse = "response"
	KindCommand  = "command"
)

// InboundMessage is a client frame.
type InboundMessage struct {
	Kind    string             `json:"kind"`
	ID      int64              `json:"id,omitempty"`
	Type    models.MessageType `json:"type"`
	Payload json.RawMessage    `json:"payload,omitempty"`
}

// ErrorBody carries a failed response's code.
type ErrorBody struct {
	Code    models.ErrorCode `json:"code"`
	Message string           `json:"message,omitempty"`
}

// OutboundMessage is a server frame: a response or a pushed command.
type OutboundMessage struct {
	Kind    string             `json:"kind"`
	ID      int64              `json:"id,omitempty"`
	Type    models.MessageType `json:"type"`
	Error   *ErrorBody         `json:"error,omitempty"`
	Payload any                `json:"payload,omitempty"`
}

func encodeOutbound(msg models.Outbound) ([]byte, error) {
	if resp := msg.Response; resp != nil {
		out := OutboundMessage{Kind: KindResponse, ID: resp.ID, Type: resp.Type, Payload: resp.Payload}
		if resp.Code != models.CodeOK {
			out.Error = &ErrorBody{Code: resp.Code, Message: resp.Message}
			out.Payload = nil
		}
		return json.Marshal(out)
	}
	return json.Marshal(OutboundMessage{Kind: KindCommand, Type: msg.Type, Payload: msg.Payload})
}

func errorResponse(id int64, msgType models.MessageType, code models.ErrorCode, message string) models.Outbound {
	return models.Outbound{Response: &models.Response{ID: id, Type: msgType, Code: code, Message: message}}
}
