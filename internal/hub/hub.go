package hub

import (
	"encoding/json"
	"sync"

	"github.com/VYBE-Looprooms/looprooms-technologies-sub000/internal/config"
	pkglog "github.com/VYBE-Looprooms/looprooms-technologies-sub000/pkg/log"
)

// Hub manages all WebSocket connections and per-room fan-out. It is pure
// transport: room policy lives in the coordinators, which drive the hub.
type Hub struct {
	clients    map[string]*Client            // clientID -> client
	rooms      map[string]map[string]*Client // roomID -> clientID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *RoomMessage
	mu         sync.RWMutex
	config     config.WebSocketConfig
}

// RoomMessage is a message to be fanned out to a room.
type RoomMessage struct {
	RoomID  string
	Message []byte
	Exclude string // client ID to exclude
}

// NewHub creates a new Hub.
func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *RoomMessage, 256),
		config:     cfg,
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	l := pkglog.L()
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l.Debug().Str(pkglog.FieldClientID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for roomID, roomClients := range h.rooms {
					delete(roomClients, client.ID)
					if len(roomClients) == 0 {
						delete(h.rooms, roomID)
					}
				}
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			l.Debug().Str(pkglog.FieldClientID, client.ID).Msg("client unregistered")

		case msg := <-h.broadcast:
			h.mu.RLock()
			if roomClients, ok := h.rooms[msg.RoomID]; ok {
				for clientID, client := range roomClients {
					if clientID == msg.Exclude {
						continue
					}
					select {
					case client.Send <- msg.Message:
					default:
						// Slow consumer; a failed delivery to one recipient
						// must not abort delivery to the rest.
						go h.removeClient(client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// JoinRoom adds a client's connection to a room's fan-out set.
func (h *Hub) JoinRoom(clientID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return
	}
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[string]*Client)
	}
	h.rooms[roomID][client.ID] = client
}

// LeaveRoom removes a client's connection from a room's fan-out set.
func (h *Hub) LeaveRoom(clientID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if roomClients, ok := h.rooms[roomID]; ok {
		delete(roomClients, clientID)
		if len(roomClients) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// RoomsOf returns the ids of every room the connection currently belongs to.
// Used by the disconnect sweep.
func (h *Hub) RoomsOf(clientID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var roomIDs []string
	for roomID, roomClients := range h.rooms {
		if _, ok := roomClients[clientID]; ok {
			roomIDs = append(roomIDs, roomID)
		}
	}
	return roomIDs
}

// BroadcastToRoom sends a message to all clients in a room.
func (h *Hub) BroadcastToRoom(roomID string, message interface{}, exclude string) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.broadcast <- &RoomMessage{
		RoomID:  roomID,
		Message: data,
		Exclude: exclude,
	}
	return nil
}

// SendToClient sends a message to a specific connection.
func (h *Hub) SendToClient(clientID string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.mu.RLock()
	client, ok := h.clients[clientID]
	h.mu.RUnlock()

	if !ok {
		return nil
	}

	select {
	case client.Send <- data:
	default:
		go h.removeClient(client)
	}
	return nil
}

// SendToUser delivers a message to every connection the user has in the room.
// Returns false when the user has no connection there; signaling treats that
// as a routing miss, not an error.
func (h *Hub) SendToUser(roomID, userID string, message interface{}) bool {
	data, err := json.Marshal(message)
	if err != nil {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := false
	if roomClients, ok := h.rooms[roomID]; ok {
		for _, client := range roomClients {
			if client.UserID() != userID {
				continue
			}
			select {
			case client.Send <- data:
				delivered = true
			default:
				go h.removeClient(client)
			}
		}
	}
	return delivered
}

// DisconnectUser force-closes every connection the user has in the room.
// Used by kick and ban; the close unwinds through the normal disconnect path.
func (h *Hub) DisconnectUser(roomID, userID string) {
	h.mu.RLock()
	var targets []*Client
	if roomClients, ok := h.rooms[roomID]; ok {
		for _, client := range roomClients {
			if client.UserID() == userID {
				targets = append(targets, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		client.Conn.Close()
	}
}

func (h *Hub) removeClient(client *Client) {
	h.unregister <- client
}
