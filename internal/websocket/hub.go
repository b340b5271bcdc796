package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ikkim/littlelemon-backend/internal/app/service"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
)

const sendBufferSize = 64

// Client is one websocket session of a user
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID uint
	Send   chan []byte
}

// NewClient builds a session with its outbound buffer
func NewClient(hub *Hub, conn *Conn, userID uint) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, sendBufferSize),
	}
}

type delivery struct {
	recipients []uint
	data       []byte
}

// Hub tracks connected sessions per user and fans order events out to them
type Hub struct {
	// UserID -> sessions, one per device
	clients map[uint][]*Client

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		deliver:    make(chan delivery, 1024),
	}
}

// Run processes registrations and deliveries until ctx is cancelled, then
// closes every remaining session.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			sessions := len(h.clients[client.UserID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.deliver:
			h.mu.RLock()
			var slow []*Client
			for _, userID := range d.recipients {
				for _, client := range h.clients[userID] {
					select {
					case client.Send <- d.data:
					default:
						slow = append(slow, client)
					}
				}
			}
			h.mu.RUnlock()

			for _, client := range slow {
				logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
					"user_id": client.UserID,
				})
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	kept := make([]*Client, 0, len(list))
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return
	}
	if len(kept) == 0 {
		delete(h.clients, client.UserID)
	} else {
		h.clients[client.UserID] = kept
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"remaining_sessions": len(kept),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, list := range h.clients {
		for _, c := range list {
			close(c.Send)
		}
		delete(h.clients, userID)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// IsUserOnline reports whether the user has at least one session
func (h *Hub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// Sessions counts the user's open sessions
func (h *Hub) Sessions(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// SendToUsers queues a JSON message for every session of the given users.
// A full queue drops the message.
func (h *Hub) SendToUsers(userIDs []uint, message interface{}) error {
	if len(userIDs) == 0 {
		return nil
	}
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal message", err)
		return err
	}

	select {
	case h.deliver <- delivery{recipients: userIDs, data: data}:
	default:
		logger.Warn("Delivery queue full, message dropped", map[string]interface{}{
			"recipients": userIDs,
		})
	}
	return nil
}

// PublishOrderEvent pushes an order event to the customer and the assigned
// delivery crew member.
func (h *Hub) PublishOrderEvent(event service.OrderEvent) {
	if err := h.SendToUsers(event.Recipients(), event); err != nil {
		logger.Error("Failed to publish order event", err, map[string]interface{}{
			"order_id": event.OrderID,
			"type":     event.Type,
		})
	}
}

var _ service.OrderNotifier = (*Hub)(nil)
