package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/coordinator"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/domain"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/jwt"
	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/middleware"
)

type httpEnv struct {
	router   *gin.Engine
	registry *coordinator.Registry
	verifier *jwt.Verifier
}

func newHTTPEnv(t *testing.T) *httpEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	room := domain.Room{
		ID:              "room-1",
		CreatorID:       "creator-1",
		Title:           "focus hour",
		IsActive:        true,
		ChatEnabled:     true,
		MaxParticipants: 10,
	}
	registry := coordinator.NewRegistry(&stubReader{room: room}, coordinator.Deps{
		Transport: noopTransport{},
		Persist:   nullPersister{},
	})

	verifier := jwt.NewVerifier("test-secret", "looprooms")
	h := NewHTTPHandler(registry, middleware.NewAuthMiddleware(verifier))

	r := gin.New()
	h.RegisterRoutes(r)
	return &httpEnv{router: r, registry: registry, verifier: verifier}
}

// noopTransport satisfies the coordinator transport for HTTP-only tests.
type noopTransport struct{}

func (noopTransport) JoinRoom(clientID, roomID string)  {}
func (noopTransport) LeaveRoom(clientID, roomID string) {}
func (noopTransport) RoomsOf(clientID string) []string  { return nil }
func (noopTransport) BroadcastToRoom(roomID string, message interface{}, exclude string) error {
	return nil
}
func (noopTransport) SendToClient(clientID string, message interface{}) error { return nil }
func (noopTransport) SendToUser(roomID, userID string, message interface{}) bool {
	return false
}
func (noopTransport) DisconnectUser(roomID, userID string) {}

func (e *httpEnv) get(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *httpEnv) token(t *testing.T) string {
	t.Helper()
	token, err := e.verifier.Sign("user-1", "Ava", "", time.Hour)
	require.NoError(t, err)
	return token
}

func TestHealth(t *testing.T) {
	e := newHTTPEnv(t)

	w := e.get(t, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPresenceRequiresAuth(t *testing.T) {
	e := newHTTPEnv(t)

	w := e.get(t, "/api/v1/rooms/room-1/presence", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.get(t, "/api/v1/rooms/room-1/presence", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPresenceReturnsRoomView(t *testing.T) {
	e := newHTTPEnv(t)

	require.NoError(t, e.registry.Join(context.Background(), "room-1", "conn-1",
		domain.Identity{UserID: "user-1", DisplayName: "Ava"}, "calm"))

	w := e.get(t, "/api/v1/rooms/room-1/presence", e.token(t))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Room struct {
				ID               string `json:"id"`
				ParticipantCount int    `json:"participant_count"`
			} `json:"room"`
			Participants []struct {
				UserID string `json:"user_id"`
				Mood   string `json:"mood"`
			} `json:"participants"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "room-1", body.Data.Room.ID)
	assert.Equal(t, 1, body.Data.Room.ParticipantCount)
	require.Len(t, body.Data.Participants, 1)
	assert.Equal(t, "user-1", body.Data.Participants[0].UserID)
	assert.Equal(t, "calm", body.Data.Participants[0].Mood)
}

func TestPresenceUnknownRoom(t *testing.T) {
	e := newHTTPEnv(t)

	w := e.get(t, "/api/v1/rooms/room-missing/presence", e.token(t))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessagesReturnsHistory(t *testing.T) {
	e := newHTTPEnv(t)
	ctx := context.Background()

	require.NoError(t, e.registry.Join(ctx, "room-1", "conn-1",
		domain.Identity{UserID: "user-1", DisplayName: "Ava"}, ""))
	_, err := e.registry.SendMessage(ctx, "room-1", "user-1", "first")
	require.NoError(t, err)
	_, err = e.registry.SendMessage(ctx, "room-1", "user-1", "second")
	require.NoError(t, err)

	w := e.get(t, "/api/v1/rooms/room-1/messages?limit=1", e.token(t))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Messages, 1)
	assert.Equal(t, "second", body.Data.Messages[0].Content)
}

func TestMessagesBadLimit(t *testing.T) {
	e := newHTTPEnv(t)

	w := e.get(t, "/api/v1/rooms/room-1/messages?limit=zero", e.token(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
