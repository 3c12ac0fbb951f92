package room

import (
	"encoding/json"
	"fmt"

	"github.com/mcdev12/voteroom/go/internal/models"
	"github.com/rs/zerolog/log"
)

type ack struct {
	OK bool `json:"ok"`
}

// HandleRequest decodes and runs one request and always produces a response.
// Errors map to their code; anything uncoded or a panic becomes Unhandled.
func (s *Session) HandleRequest(req models.Request) (resp models.Response) {
	resp = models.Response{ID: req.ID, Type: req.Type}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Str("session_id", s.id.String()).
				Str("type", string(req.Type)).
				Interface("panic", rec).
				Msg("request handler panicked")
			resp.Code = models.CodeUnhandled
			resp.Message = models.ErrUnhandled.Message
			resp.Payload = nil
		}
		s.registry.metrics.Request(string(req.Type), string(resp.Code))
	}()

	payload, err := s.dispatchRequest(req)
	if err != nil {
		resp.Code = models.CodeOf(err)
		resp.Message = err.Error()
		if resp.Code == models.CodeUnhandled {
			log.Error().Err(err).Str("session_id", s.id.String()).Str("type", string(req.Type)).Msg("request failed")
			resp.Message = models.ErrUnhandled.Message
		} else {
			log.Debug().Err(err).Str("session_id", s.id.String()).Str("type", string(req.Type)).Msg("request rejected")
		}
		return resp
	}
	resp.Payload = payload
	return resp
}

func (s *Session) dispatchRequest(req models.Request) (any, error) {
	switch req.Type {
	case models.RequestCreateRoom:
		return handle(req.Payload, s.CreateRoom)
	case models.RequestEnterRoom:
		return handle(req.Payload, s.EnterRoom)
	case models.RequestLeaveRoom:
		return ack{OK: true}, s.LeaveRoom()
	case models.RequestSetAttribute:
		return handle(req.Payload, s.SetAttribute)
	case models.RequestGetVoterList:
		return s.GetVoterList()
	case models.RequestGetRoomList:
		return handle(req.Payload, s.GetRoomList)
	case models.RequestGetVoteStatus:
		return s.GetVoteStatus()
	case models.RequestStartVote:
		return handle(req.Payload, s.StartVote)
	case models.RequestPauseVote:
		return s.PauseVote()
	case models.RequestStopVote:
		return s.StopVote()
	case models.RequestSetVoteSpan:
		return handle(req.Payload, s.SetVoteSpan)
	case models.RequestAddVoteSpan:
		return handle(req.Payload, s.AddVoteSpan)
	case models.RequestSetTotalVoteSpan:
		return handle(req.Payload, s.SetTotalVoteSpan)
	case models.RequestAddTotalVoteSpan:
		return handle(req.Payload, s.AddTotalVoteSpan)
	case models.RequestSetBroadcast:
		return handle(req.Payload, s.SetBroadcast)
	case models.RequestSendNotification:
		return handle(req.Payload, func(p models.SendNotificationRequest) (ack, error) {
			return ack{OK: true}, s.SendNotification(p)
		})
	default:
		return nil, fmt.Errorf("request %q: %w", req.Type, models.ErrUnknownMessage)
	}
}

// HandleCommand runs a one-way command. A rejected command is reported back
// to this session only.
func (s *Session) HandleCommand(cmd models.Command) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Str("session_id", s.id.String()).
				Str("type", string(cmd.Type)).
				Interface("panic", rec).
				Msg("command handler panicked")
			err = fmt.Errorf("command %s: %v: %w", cmd.Type, rec, models.ErrUnhandled)
		}
		s.registry.metrics.Request(string(cmd.Type), string(models.CodeOf(err)))
		if err != nil {
			s.send(models.Outbound{
				Type: models.PushCommandFailed,
				Payload: models.CommandFailure{
					Type:    cmd.Type,
					Code:    models.CodeOf(err),
					Message: err.Error(),
				},
			})
		}
	}()

	switch cmd.Type {
	case models.CommandStartEndRoll:
		var p models.EndRollCommand
		if err := decodePayload(cmd.Payload, &p); err != nil {
			return err
		}
		return s.StartEndRoll(p)
	case models.CommandStopEndRoll:
		return s.StopEndRoll()
	default:
		return fmt.Errorf("command %q: %w", cmd.Type, models.ErrUnknownMessage)
	}
}

func handle[T, R any](raw json.RawMessage, fn func(T) (R, error)) (any, error) {
	var p T
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}
	out, err := fn(p)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, models.ErrArgument)
	}
	return nil
}
