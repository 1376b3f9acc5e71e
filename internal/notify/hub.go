// Package notify pushes appointment changes to connected doctors over
// websockets.
package notify

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"hospital-management-api/internal/model"
)

type Event struct {
	Type        string             `json:"type"`
	Appointment *model.Appointment `json:"appointment"`
}

// Client is one websocket connection owned by a user.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

type message struct {
	userID  string
	payload []byte
}

// Hub keeps the clients per user. All map access happens in Run.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	publish    chan message
	done       chan struct{}
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan message, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run serves register/unregister/publish until ctx is done, then closes every
// client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					close(c.Send)
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			return
		case c := <-h.register:
			set, ok := h.clients[c.UserID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[c.UserID] = set
			}
			set[c] = true
			h.log.Debug().Str("user_id", c.UserID).Msg("ws client registered")
		case c := <-h.unregister:
			h.remove(c)
		case m := <-h.publish:
			for c := range h.clients[m.userID] {
				select {
				case c.Send <- m.payload:
				default:
					// slow reader
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	set, ok := h.clients[c.UserID]
	if !ok || !set[c] {
		return
	}
	delete(set, c)
	close(c.Send)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	h.log.Debug().Str("user_id", c.UserID).Msg("ws client unregistered")
}

// Notify queues an event for every connection of userID. It never blocks; when
// the queue is full the event is dropped.
func (h *Hub) Notify(userID, kind string, a *model.Appointment) {
	payload, err := json.Marshal(Event{Type: kind, Appointment: a})
	if err != nil {
		h.log.Error().Err(err).Msg("marshal event")
		return
	}
	select {
	case h.publish <- message{userID: userID, payload: payload}:
	default:
		h.log.Warn().Str("user_id", userID).Str("type", kind).Msg("notify queue full, event dropped")
	}
}
