package audit

import (
	"context"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/log"
)

// Audit actions for the room coordination core.
const (
	ActionJoinRoom       = "room.join"
	ActionLeaveRoom      = "room.leave"
	ActionDisconnect     = "room.disconnect"
	ActionModerate       = "room.moderate"
	ActionSessionStart   = "session.start"
	ActionSessionPause   = "session.pause"
	ActionSessionResume  = "session.resume"
	ActionSessionEnd     = "session.end"
	ActionBroadcastStart = "broadcast.start"
	ActionBroadcastStop  = "broadcast.stop"
	ActionPinMessage     = "message.pin"
	ActionDeleteMessage  = "message.delete"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, roomID, userID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldRoomID, roomID).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithTarget emits an audit log naming the target of a moderation action.
func LogWithTarget(ctx context.Context, action, roomID, userID, targetID, detail, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldRoomID, roomID).
		Str(log.FieldUserID, userID).
		Str(log.FieldTargetID, targetID).
		Str(FieldDetail, detail).
		Msg(msg)
}
