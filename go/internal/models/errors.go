package models

import "errors"

// ErrorCode is the stable code returned to remote callers.
type ErrorCode string

const (
	CodeOK                     ErrorCode = ""
	CodeArgument               ErrorCode = "Argument"
	CodeNotEnteringVoteRoom    ErrorCode = "NotEnteringVoteRoom"
	CodeAlreadyEnteredVoteRoom ErrorCode = "AlreadyEnteredVoteRoom"
	CodeVoteRoomNotFound       ErrorCode = "VoteRoomNotFound"
	CodePasswordUnmatched      ErrorCode = "PasswordUnmatched"
	CodeCreateVoteRoomFailed   ErrorCode = "CreateVoteRoomFailed"
	CodeInvalidVoteState       ErrorCode = "InvalidVoteState"
	CodePermissionDenied       ErrorCode = "PermissionDenied"
	CodeUnknownMessage         ErrorCode = "UnknownMessage"
	CodeUnhandled              ErrorCode = "Unhandled"
)

// Error is a coded error. Sentinels below are compared with errors.Is and
// usually wrapped with extra context.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// NewError creates a coded sentinel.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

var (
	ErrArgument               = NewError(CodeArgument, "invalid argument")
	ErrNotEnteringVoteRoom    = NewError(CodeNotEnteringVoteRoom, "not entering a vote room")
	ErrAlreadyEnteredVoteRoom = NewError(CodeAlreadyEnteredVoteRoom, "already entered a vote room")
	ErrVoteRoomNotFound       = NewError(CodeVoteRoomNotFound, "vote room not found")
	ErrPasswordUnmatched      = NewError(CodePasswordUnmatched, "password unmatched")
	ErrCreateVoteRoomFailed   = NewError(CodeCreateVoteRoomFailed, "failed to create vote room")
	ErrPermissionDenied       = NewError(CodePermissionDenied, "only the room owner may do this")
	ErrUnknownMessage         = NewError(CodeUnknownMessage, "unknown message type")
	ErrUnhandled              = NewError(CodeUnhandled, "internal error")
)

// CodeOf extracts the code from err. Nil maps to CodeOK and anything uncoded
// to CodeUnhandled.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeUnhandled
}
