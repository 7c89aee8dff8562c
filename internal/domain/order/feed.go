package order

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/lavka/lavka-api/internal/middleware"
	"github.com/lavka/lavka-api/internal/pkg/response"
)

// EventType for order feed messages
type EventType string

const (
	EventOrderCreated  EventType = "order_created"
	EventOrderPaid     EventType = "order_paid"
	EventStatusChanged EventType = "status_changed"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Event is a single feed entry pushed to connected admins
type Event struct {
	Type    EventType `json:"type"`
	OrderID string    `json:"order_id"`
	UserID  string    `json:"user_id"`
	Status  Status    `json:"status"`
	Total   string    `json:"total"`
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Feed broadcasts order lifecycle events to connected admin clients.
// Slow clients get events dropped rather than stalling the publisher.
type Feed struct {
	mu      sync.RWMutex
	clients map[*feedClient]bool

	register   chan *feedClient
	unregister chan *feedClient
	done       chan struct{}
	closeOnce  sync.Once

	upgrader websocket.Upgrader
}

// NewFeed creates an order event feed
func NewFeed() *Feed {
	return &Feed{
		clients:    make(map[*feedClient]bool),
		register:   make(chan *feedClient),
		unregister: make(chan *feedClient),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Run starts the feed loop (call in goroutine)
func (f *Feed) Run() {
	for {
		select {
		case <-f.done:
			return

		case client := <-f.register:
			f.mu.Lock()
			f.clients[client] = true
			f.mu.Unlock()
			log.Debug().Int("clients", f.ClientCount()).Msg("admin connected to order feed")

		case client := <-f.unregister:
			f.mu.Lock()
			if _, ok := f.clients[client]; ok {
				delete(f.clients, client)
				close(client.send)
			}
			f.mu.Unlock()
			log.Debug().Int("clients", f.ClientCount()).Msg("admin disconnected from order feed")
		}
	}
}

// Shutdown stops the feed loop
func (f *Feed) Shutdown() {
	f.closeOnce.Do(func() { close(f.done) })
}

// ClientCount returns the number of connected clients
func (f *Feed) ClientCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// Publish sends an event to every connected client without blocking
func (f *Feed) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal order feed event")
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for client := range f.clients {
		select {
		case client.send <- data:
		default:
			log.Warn().Msg("order feed send buffer full, event dropped")
		}
	}
}

// PublishOrder is a convenience wrapper building the event from an order
func (f *Feed) PublishOrder(eventType EventType, o *Order) {
	if f == nil || o == nil {
		return
	}
	f.Publish(Event{
		Type:    eventType,
		OrderID: o.ID.String(),
		UserID:  o.UserID.String(),
		Status:  o.Status,
		Total:   o.TotalAmount.StringFixed(2),
	})
}

// ServeWS upgrades an admin connection and streams feed events. Mount it
// behind auth and the admin guard.
func (f *Feed) ServeWS(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.GetUserID(r.Context()); err != nil {
		response.Unauthorized(w, "authentication required")
		return
	}

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("order feed upgrade failed")
		return
	}

	client := &feedClient{
		conn: conn,
		send: make(chan []byte, 64),
	}
	select {
	case f.register <- client:
	case <-f.done:
		conn.Close()
		return
	}

	go f.writer(client)
	go f.reader(client)
}

// reader discards client frames and detects the close
func (f *Feed) reader(client *feedClient) {
	defer func() {
		select {
		case f.unregister <- client:
		case <-f.done:
		}
		client.conn.Close()
	}()

	client.conn.SetReadLimit(512)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Msg("order feed read error")
			}
			return
		}
	}
}

func (f *Feed) writer(client *feedClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
