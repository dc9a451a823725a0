package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/config"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/coordinator"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/domain"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/hub"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/jwt"
	pkglog "github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler accepts websocket connections and dispatches client verbs to the
// coordinator registry. Every verb except auth and ping requires a prior
// successful auth on the connection.
type WSHandler struct {
	hub      *hub.Hub
	registry *coordinator.Registry
	verifier *jwt.Verifier
	wsCfg    config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, registry *coordinator.Registry, verifier *jwt.Verifier, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:      h,
		registry: registry,
		verifier: verifier,
		wsCfg:    wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l := pkglog.L()
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)
	client.SetDisconnectHandler(func(c *hub.Client) {
		h.registry.HandleDisconnect(context.Background(), c.ID)
	})

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.handleMessage)
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid message format"))
		return
	}

	ctx := context.Background()

	switch base.Type {
	case domain.MsgTypeAuth:
		h.handleAuth(client, message)
		return
	case domain.MsgTypePing:
		client.SendMessage(map[string]string{"type": domain.MsgTypePong})
		return
	}

	id := client.Identity()
	if id == nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeUnauthorized, "Authenticate first"))
		return
	}

	switch base.Type {
	case domain.MsgTypeJoinRoom:
		var msg domain.JoinRoomMessage
		if !h.decode(client, message, &msg) {
			return
		}
		h.reply(client, h.registry.Join(ctx, msg.RoomID, client.ID, *id, msg.Mood))

	case domain.MsgTypeLeaveRoom:
		var msg domain.LeaveRoomMessage
		if !h.decode(client, message, &msg) {
			return
		}
		h.reply(client, h.registry.Leave(ctx, msg.RoomID, id.UserID))

	case domain.MsgTypeSendMessage:
		var msg domain.SendMessageMessage
		if !h.decode(client, message, &msg) {
			return
		}
		_, err := h.registry.SendMessage(ctx, msg.RoomID, id.UserID, msg.Content)
		h.reply(client, err)

	case domain.MsgTypeTyping:
		var msg domain.TypingMessage
		if !h.decode(client, message, &msg) {
			return
		}
		h.reply(client, h.registry.Typing(ctx, msg.RoomID, id.UserID, msg.IsTyping))

	case domain.MsgTypeReact:
		var msg domain.ReactMessage
		if !h.decode(client, message, &msg) {
			return
		}
		h.reply(client, h.registry.React(ctx, msg.RoomID, id.UserID, msg.MessageID, msg.Emoji))

	case domain.MsgTypeStartSession:
		var msg domain.SessionControlMessage
		if !h.decode(client, message, &msg) {
			return
		}
		h.reply(client, h.registry.StartSession(ctx, msg.RoomID, id.UserID))

	case domain.MsgTypePauseSession:
		var msg domain.SessionControlMessage
		if !h.decode(client, message, &msg) {
			return
		}
		h.reply(client, h.registry.PauseSession(ctx, msg.RoomID, id.UserID))

	case domain.MsgTypeResumeSession:
		var msg domain.SessionControlMessage
		if !h.decode(client, message, &msg) {
			return
		}
		h.reply(client, h.registry.ResumeSession(ctx, msg.RoomID, id.UserID))

	case domain.MsgTypeEndSession:
		var msg domain.SessionControlMessage
		if !h.decode(client, message, &msg) {
			return
		}
		h.reply(client, h.registry.EndSession(ctx, msg.RoomID, id.UserID))

	case domain.MsgTypeModerateUser:
		var msg domain.ModerateUserMessage
		if !h.decode(client, message, &msg) {
			return
		}
		h.reply(client, h.registry.Moderate(ctx, msg.RoomID, coordinator.ModerateRequest{
			ModeratorID:     id.UserID,
			TargetID:        msg.TargetID,
			Action:          domain.ModerationAction(msg.Action),
			Reason:          msg.Reason,
			DurationMinutes: msg.DurationMinutes,
		}))

	case domain.MsgTypeDeleteMessage:
		var msg domain.MessageControlMessage
		if !h.decode(client, message, &msg) {
			return
		}
		h.reply(client, h.registry.DeleteMessage(ctx, msg.RoomID, id.UserID, msg.MessageID))

	case domain.MsgTypePinMessage:
		var msg domain.MessageControlMessage
		if !h.decode(client, message, &msg) {
			return
		}
		h.reply(client, h.registry.PinMessage(ctx, msg.RoomID, id.UserID, msg.MessageID))

	case domain.MsgTypeStartBroadcast:
		var msg domain.StartBroadcastMessage
		if !h.decode(client, message, &msg) {
			return
		}
		h.reply(client, h.registry.StartBroadcast(ctx, msg.RoomID, client.ID, id.UserID, msg.StreamConfig))

	case domain.MsgTypeStopBroadcast:
		var msg domain.StopBroadcastMessage
		if !h.decode(client, message, &msg) {
			return
		}
		h.reply(client, h.registry.StopBroadcast(ctx, msg.RoomID, id.UserID))

	case domain.MsgTypeRequestStream:
		var msg domain.RequestStreamMessage
		if !h.decode(client, message, &msg) {
			return
		}
		h.reply(client, h.registry.RequestStream(ctx, msg.RoomID, id.UserID))

	case domain.MsgTypeOffer, domain.MsgTypeAnswer, domain.MsgTypeICECandidate, domain.MsgTypeQualityChange:
		var env domain.SignalEnvelope
		if !h.decode(client, message, &env) {
			return
		}
		h.reply(client, h.registry.RelaySignal(ctx, env.RoomID, id.UserID, env))

	default:
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Unknown message type"))
	}
}

func (h *WSHandler) handleAuth(client *hub.Client, message []byte) {
	var msg domain.AuthMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid auth message"))
		return
	}

	claims, err := h.verifier.Verify(msg.Token)
	if err != nil {
		l := pkglog.L()
		l.Debug().Err(err).Str(pkglog.FieldClientID, client.ID).Msg("websocket auth rejected")
		client.SendMessage(&domain.AuthResultMessage{
			Type:    domain.MsgTypeAuthResult,
			Success: false,
			Message: "Invalid token",
		})
		return
	}

	client.Authenticate(domain.Identity{
		UserID:      claims.UserID,
		DisplayName: claims.DisplayName,
		Tier:        claims.Tier,
	})
	client.SendMessage(&domain.AuthResultMessage{
		Type:        domain.MsgTypeAuthResult,
		Success:     true,
		UserID:      claims.UserID,
		DisplayName: claims.DisplayName,
	})
}

// decode unmarshals a verb payload, replying with a bad-request error on
// failure.
func (h *WSHandler) decode(client *hub.Client, message []byte, v interface{}) bool {
	if err := json.Unmarshal(message, v); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid message payload"))
		return false
	}
	return true
}

// reply sends the mapped error message when an operation is rejected.
// Successful operations answer through their room events.
func (h *WSHandler) reply(client *hub.Client, err error) {
	if err == nil {
		return
	}
	client.SendMessage(domain.NewErrorMessage(coordinator.ErrorCode(err), err.Error()))
}

// RegisterRoutes mounts the websocket endpoint.
func (h *WSHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/rooms/ws", h.HandleWebSocket)
}
