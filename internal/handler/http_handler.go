package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/coordinator"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/log"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/middleware"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/response"
)

const defaultHistoryLimit = 50

// HTTPHandler serves the read-only HTTP surface alongside the websocket
// endpoint: health plus room presence and recent messages.
type HTTPHandler struct {
	registry       *coordinator.Registry
	authMiddleware *middleware.AuthMiddleware
}

// NewHTTPHandler creates the HTTP handler.
func NewHTTPHandler(registry *coordinator.Registry, authMiddleware *middleware.AuthMiddleware) *HTTPHandler {
	return &HTTPHandler{
		registry:       registry,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all routes.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	{
		rooms := api.Group("/rooms")
		{
			rooms.GET("/:id/presence", h.authMiddleware.RequireAuth(), h.GetPresence)
			rooms.GET("/:id/messages", h.authMiddleware.RequireAuth(), h.GetMessages)
		}
	}
}

// Health reports liveness.
func (h *HTTPHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// GetPresence returns the live view of a room.
func (h *HTTPHandler) GetPresence(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	roomID := c.Param("id")
	presence, err := h.registry.Presence(ctx, roomID)
	if err != nil {
		if errors.Is(err, coordinator.ErrRoomNotFound) {
			response.NotFound(c, "room not found")
			return
		}
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to read room presence")
		response.InternalError(c, "failed to read room presence")
		return
	}

	response.Success(c, presence)
}

// GetMessages returns a room's recent messages, newest last.
func (h *HTTPHandler) GetMessages(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	roomID := c.Param("id")
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}

	messages, err := h.registry.History(ctx, roomID, limit)
	if err != nil {
		if errors.Is(err, coordinator.ErrRoomNotFound) {
			response.NotFound(c, "room not found")
			return
		}
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to read room messages")
		response.InternalError(c, "failed to read room messages")
		return
	}

	response.Success(c, gin.H{"messages": messages})
}
