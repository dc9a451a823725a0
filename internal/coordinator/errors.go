package coordinator

import (
	"errors"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/domain"
)

// Policy rejections and lookup failures. Returned synchronously, no state
// mutated, no audit entry.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomInactive        = errors.New("room is not active")
	ErrRoomFull            = errors.New("room is full")
	ErrBanned              = errors.New("you are banned from this room")
	ErrMuted               = errors.New("you are muted")
	ErrSlowMode            = errors.New("slow mode is active, wait before sending again")
	ErrChatDisabled        = errors.New("chat is disabled in this room")
	ErrNotInRoom           = errors.New("not a member of this room")
	ErrForbidden           = errors.New("you are not allowed to do that")
	ErrInvalidSessionState = errors.New("invalid session state for this transition")
	ErrSessionNotFound     = errors.New("no session for this room")
	ErrAlreadyBroadcasting = errors.New("room already has an active broadcast")
	ErrMessageNotFound     = errors.New("message not found")
	ErrInvalidAction       = errors.New("unknown moderation action")
)

// errRetired is returned by a coordinator that has been retired; the registry
// transparently recreates one and retries.
var errRetired = errors.New("coordinator retired")

// ErrorCode maps a coordinator error to its wire error code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return domain.ErrCodeRoomNotFound
	case errors.Is(err, ErrRoomInactive):
		return domain.ErrCodeRoomInactive
	case errors.Is(err, ErrRoomFull):
		return domain.ErrCodeRoomFull
	case errors.Is(err, ErrBanned):
		return domain.ErrCodeBanned
	case errors.Is(err, ErrMuted):
		return domain.ErrCodeMuted
	case errors.Is(err, ErrSlowMode):
		return domain.ErrCodeSlowMode
	case errors.Is(err, ErrChatDisabled):
		return domain.ErrCodeChatDisabled
	case errors.Is(err, ErrNotInRoom):
		return domain.ErrCodeNotInRoom
	case errors.Is(err, ErrForbidden):
		return domain.ErrCodeForbidden
	case errors.Is(err, ErrInvalidSessionState):
		return domain.ErrCodeInvalidSessionState
	case errors.Is(err, ErrSessionNotFound):
		return domain.ErrCodeSessionNotFound
	case errors.Is(err, ErrAlreadyBroadcasting):
		return domain.ErrCodeAlreadyBroadcasting
	case errors.Is(err, ErrMessageNotFound):
		return domain.ErrCodeMessageNotFound
	case errors.Is(err, ErrInvalidAction):
		return domain.ErrCodeBadRequest
	default:
		return domain.ErrCodeInternalError
	}
}
