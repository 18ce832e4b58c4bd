package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; restrict in production
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type   string      `json:"type"`
	Ticker string      `json:"ticker,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

// WSClient represents a single WebSocket connection.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage
}

// WSHub manages WebSocket connections and per-ticker spot subscriptions.
type WSHub struct {
	mu       sync.RWMutex
	clients  map[*WSClient]map[string]bool // client -> subscribed tickers
	byTicker map[string]map[*WSClient]bool
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:  make(map[*WSClient]map[string]bool),
		byTicker: make(map[string]map[*WSClient]bool),
	}
}

// BroadcastTicker sends a message only to clients subscribed to ticker.
func (h *WSHub) BroadcastTicker(ticker string, msg WSMessage) {
	msg.Ticker = ticker
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.byTicker[ticker] {
		select {
		case client.send <- msg:
		default:
		}
	}
}

// Subscribe adds a ticker subscription and reports whether this is the
// ticker's first subscriber.
func (h *WSHub) Subscribe(client *WSClient, ticker string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.clients[client]
	if !ok {
		return false
	}
	subs[ticker] = true
	if h.byTicker[ticker] == nil {
		h.byTicker[ticker] = make(map[*WSClient]bool)
	}
	h.byTicker[ticker][client] = true
	return len(h.byTicker[ticker]) == 1
}

// Unsubscribe removes a ticker subscription and reports whether the
// ticker is now without subscribers.
func (h *WSHub) Unsubscribe(client *WSClient, ticker string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.clients[client]; ok {
		delete(subs, ticker)
	}
	if set, ok := h.byTicker[ticker]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.byTicker, ticker)
			return true
		}
	}
	return false
}

// RemoveClient drops a client, closes its send channel so the write pump
// exits, and returns the tickers left without any subscriber.
func (h *WSHub) RemoveClient(client *WSClient) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.clients[client]
	if !ok {
		return nil
	}
	var ended []string
	for ticker := range subs {
		if set, ok := h.byTicker[ticker]; ok {
			delete(set, client)
			if len(set) == 0 {
				delete(h.byTicker, ticker)
				ended = append(ended, ticker)
			}
		}
	}
	delete(h.clients, client)
	close(client.send)
	return ended
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SubscriberCount returns the number of clients watching a ticker.
func (h *WSHub) SubscriberCount(ticker string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byTicker[ticker])
}

// Register adds a client to the hub.
func (h *WSHub) Register(client *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = make(map[string]bool)
}

// handleWebSocket upgrades HTTP connections to WebSocket and manages
// per-ticker spot subscriptions.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := &WSClient{
		hub:  s.wsHub,
		send: make(chan WSMessage, 256),
	}

	s.wsHub.Register(client)

	// Start reader and writer goroutines
	go s.wsWritePump(conn, client)
	go s.wsReadPump(conn, client)
}

// wsReadPump pumps messages from the WebSocket connection to the hub.
func (s *Server) wsReadPump(conn *websocket.Conn, client *WSClient) {
	defer func() {
		for _, ticker := range client.hub.RemoveClient(client) {
			s.streams.Stop(ticker)
		}
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug().Err(err).Msg("WebSocket read error")
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "subscribe":
			ticker := normalizeWSTicker(msg)
			if ticker == "" {
				continue
			}
			if first := client.hub.Subscribe(client, ticker); first {
				s.streams.Start(ticker)
			}
			client.send <- WSMessage{Type: "subscribed", Ticker: ticker}
		case "unsubscribe":
			ticker := normalizeWSTicker(msg)
			if ticker == "" {
				continue
			}
			if last := client.hub.Unsubscribe(client, ticker); last {
				s.streams.Stop(ticker)
			}
			client.send <- WSMessage{Type: "unsubscribed", Ticker: ticker}
		case "ping":
			client.send <- WSMessage{Type: "pong"}
		}
	}
}

// wsWritePump pumps messages from the hub to the WebSocket connection.
func (s *Server) wsWritePump(conn *websocket.Conn, client *WSClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

			// Flush queued messages
			n := len(client.send)
			for i := 0; i < n; i++ {
				nextMsg := <-client.send
				nextData, err := json.Marshal(nextMsg)
				if err != nil {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, nextData); err != nil {
					return
				}
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func normalizeWSTicker(msg WSMessage) string {
	if msg.Ticker != "" {
		return strings.ToUpper(strings.TrimSpace(msg.Ticker))
	}
	if m, ok := msg.Data.(map[string]interface{}); ok {
		if t, ok := m["ticker"].(string); ok {
			return strings.ToUpper(strings.TrimSpace(t))
		}
	}
	return ""
}
