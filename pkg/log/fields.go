package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches pkg/middleware/auth.go keys)
	FieldUserID      = "user_id"
	FieldDisplayName = "display_name"

	// Room coordination
	FieldRoomID    = "room_id"
	FieldSessionID = "session_id"
	FieldMessageID = "message_id"
	FieldClientID  = "client_id"
	FieldTargetID  = "target_id"
	FieldEvent     = "event"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
