package ws

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Event is a WebSocket message broadcast to a room.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// roomEvent routes an event to one room.
type roomEvent struct {
	Room  string
	Event Event
}

// CartRoom is the feed room for one shared table cart.
func CartRoom(restaurantID uuid.UUID, tableNumber string) string {
	return fmt.Sprintf("cart:%s:%s", restaurantID, tableNumber)
}

// OrdersRoom is the feed room for a restaurant's kitchen queue.
func OrdersRoom(restaurantID uuid.UUID) string {
	return fmt.Sprintf("orders:%s", restaurantID)
}

// Hub maintains the set of active clients and broadcasts messages to them,
// one room per subscription scope.
type Hub struct {
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomEvent

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomEvent, 256),
	}
}

// Run starts the hub's main loop. Call as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.room] == nil {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.room]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.room)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.Room]

			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					close(client.send)
					delete(h.rooms[event.Room], client)
					if len(h.rooms[event.Room]) == 0 {
						delete(h.rooms, event.Room)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends an event to every client subscribed to the room.
func (h *Hub) Broadcast(room string, event Event) {
	h.broadcast <- &roomEvent{Room: room, Event: event}
}
