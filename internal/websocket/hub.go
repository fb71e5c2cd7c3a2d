package websocket

import (
	"encoding/json"
	"log/slog"

	"github.com/hoangdanh165/devplanner/internal/event"
	"github.com/hoangdanh165/devplanner/internal/model"
)

// rosterEvent is the single event name the web client subscribes to.
const rosterEvent = "getOnlineUsers"

type presenceRecorder interface {
	SetOnlineUsers(count int)
}

type outboundMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub owns the set of connected presence clients. Every join and leave
// re-broadcasts the full roster; clients replace their copy wholesale.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Event bus carrying generation status events to forward.
	bus event.Bus

	metrics presenceRecorder
}

func NewHub(bus event.Bus, metrics presenceRecorder) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		bus:        bus,
		metrics:    metrics,
	}
}

func (h *Hub) Run() {
	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.broadcastRoster()
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.broadcastRoster()
			}
		case e := <-events:
			h.forwardEvent(e)
		}
	}
}

// broadcastRoster sends the current online roster to every client. A user
// with several connections appears once.
func (h *Hub) broadcastRoster() {
	seen := make(map[string]bool, len(h.clients))
	roster := make([]model.PresenceUser, 0, len(h.clients))
	for client := range h.clients {
		if seen[client.identity.UserID] {
			continue
		}
		seen[client.identity.UserID] = true
		roster = append(roster, client.identity)
	}

	if h.metrics != nil {
		h.metrics.SetOnlineUsers(len(roster))
	}

	message, err := json.Marshal(outboundMessage{Event: rosterEvent, Data: roster})
	if err != nil {
		slog.Error("failed to marshal roster", "error", err)
		return
	}

	for client := range h.clients {
		h.deliver(client, message)
	}
}

// forwardEvent routes a generation event to the connections of the user that
// triggered it. Events with no actor are dropped.
func (h *Hub) forwardEvent(e event.Event) {
	if e.ActorID == "" {
		return
	}

	message, err := json.Marshal(outboundMessage{Event: string(e.Type), Data: e.Payload})
	if err != nil {
		slog.Error("failed to marshal event", "error", err, "type", e.Type)
		return
	}

	for client := range h.clients {
		if client.identity.UserID == e.ActorID {
			h.deliver(client, message)
		}
	}
}

func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		close(client.send)
		delete(h.clients, client)
	}
}
