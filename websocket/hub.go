package websocket

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Client struct {
	ID      uuid.UUID
	RouteID uuid.UUID
	Conn    Conn
}

// LocationFrame is pushed to every subscriber of a route.
type LocationFrame struct {
	Type      string    `json:"type"`
	RouteID   uuid.UUID `json:"route_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     *float64  `json:"speed,omitempty"`
	Heading   *float64  `json:"heading,omitempty"`
	IsOnline  bool      `json:"is_online"`
	UpdatedAt string    `json:"updated_at"`
}

type Hub struct {
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan *LocationFrame

	mu     sync.RWMutex
	routes map[uuid.UUID]map[uuid.UUID]*Client
}

func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan *LocationFrame, 64),
		routes:     make(map[uuid.UUID]map[uuid.UUID]*Client),
	}
}

var Default = NewHub()

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			subs, ok := h.routes[client.RouteID]
			if !ok {
				subs = make(map[uuid.UUID]*Client)
				h.routes[client.RouteID] = subs
			}
			subs[client.ID] = client
			h.mu.Unlock()
			log.Printf("Tracking client %s subscribed to route %s", client.ID, client.RouteID)
		case client := <-h.Unregister:
			h.remove(client)
		case frame := <-h.Broadcast:
			h.deliver(frame)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.routes[client.RouteID]
	if !ok {
		return
	}
	if c, ok := subs[client.ID]; ok && c == client {
		delete(subs, client.ID)
	}
	if len(subs) == 0 {
		delete(h.routes, client.RouteID)
	}
}

func (h *Hub) deliver(frame *LocationFrame) {
	h.mu.RLock()
	var failed []*Client
	for _, c := range h.routes[frame.RouteID] {
		if err := c.Conn.WriteJSON(frame); err != nil {
			log.Printf("Error sending location to client %s: %v", c.ID, err)
			failed = append(failed, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range failed {
		c.Conn.Close()
		h.remove(c)
	}
}

func (h *Hub) Subscribers(routeID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.routes[routeID])
}
