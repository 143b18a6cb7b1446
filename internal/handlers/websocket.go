package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"casino-engine/internal/logger"
	"casino-engine/internal/services"
)

const (
	sendBuffer      = 32
	broadcastBuffer = 256
	writeWait       = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Message struct {
	Type   string `json:"type"`
	UserID string `json:"user_id,omitempty"`
	GameID string `json:"game_id,omitempty"`
	Data   any    `json:"data"`
}

type Client struct {
	UserID string
	Conn   *websocket.Conn

	send chan *Message

	mu    sync.Mutex
	games map[string]struct{}
}

func (c *Client) subscribe(gameID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.games[gameID] = struct{}{}
}

func (c *Client) unsubscribe(gameID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.games, gameID)
}

func (c *Client) watching(gameID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.games[gameID]
	return ok
}

// wants reports whether an event concerns the client: its own actions,
// games it subscribed to, and casino wide changes.
func (c *Client) wants(e services.Event) bool {
	return e.Actor == c.UserID || e.Subject == e.Casino || c.watching(e.Subject)
}

// enqueue never blocks; a client that cannot keep up misses the message.
func (c *Client) enqueue(msg *Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) writePump(done <-chan struct{}) {
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteJSON(msg); err != nil {
				logger.Log.Debug("websocket write failed", zap.String("user", c.UserID), zap.Error(err))
				return
			}
		case <-done:
			return
		}
	}
}

// WebSocketHub fans committed engine events out to connected clients. It
// implements services.Broadcaster.
type WebSocketHub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan services.Event
	done       chan struct{}
	closeOnce  sync.Once
}

func NewWebSocketHub() *WebSocketHub {
	hub := &WebSocketHub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan services.Event, broadcastBuffer),
		done:       make(chan struct{}),
	}

	go hub.run()

	return hub
}

// Broadcast queues e for delivery. Engine operations never wait on slow
// clients, so a full queue drops the event.
func (hub *WebSocketHub) Broadcast(e services.Event) {
	select {
	case hub.broadcast <- e:
	default:
		logger.Log.Warn("websocket broadcast queue full", zap.String("type", e.Type), zap.String("subject", e.Subject))
	}
}

func (hub *WebSocketHub) Close() {
	hub.closeOnce.Do(func() { close(hub.done) })
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client] = struct{}{}
			logger.Log.Debug("client registered", zap.String("user", client.UserID))

		case client := <-hub.unregister:
			if _, ok := hub.clients[client]; ok {
				delete(hub.clients, client)
				close(client.send)
				logger.Log.Debug("client unregistered", zap.String("user", client.UserID))
			}

		case event := <-hub.broadcast:
			hub.broadcastEvent(event)

		case <-hub.done:
			// Closing the connection ends the read loop; send stays open
			// because the handler may still enqueue a reply.
			for client := range hub.clients {
				delete(hub.clients, client)
				client.Conn.Close()
			}
			return
		}
	}
}

func (hub *WebSocketHub) broadcastEvent(e services.Event) {
	msg := &Message{Type: e.Type, GameID: e.Subject, Data: e}
	for client := range hub.clients {
		if !client.wants(e) {
			continue
		}
		if !client.enqueue(msg) {
			logger.Log.Warn("websocket client lagging", zap.String("user", client.UserID), zap.String("type", e.Type))
		}
	}
}

type WebSocketHandler struct {
	engine *services.Engine
	hub    *WebSocketHub
}

func NewWebSocketHandler(engine *services.Engine, hub *WebSocketHub) *WebSocketHandler {
	return &WebSocketHandler{engine: engine, hub: hub}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetString("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Warn("failed to upgrade to websocket", zap.Error(err))
		return
	}

	client := &Client{
		UserID: userID,
		Conn:   conn,
		send:   make(chan *Message, sendBuffer),
		games:  make(map[string]struct{}),
	}

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}
	go client.writePump(h.hub.done)

	defer func() {
		select {
		case h.hub.unregister <- client:
		case <-h.hub.done:
		}
		conn.Close()
	}()

	h.sendBalance(c, client)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Debug("websocket error", zap.String("user", userID), zap.Error(err))
			}
			break
		}

		h.handleMessage(client, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case "PING":
		client.enqueue(&Message{
			Type: "PONG",
			Data: gin.H{"timestamp": time.Now().Unix()},
		})
	case "SUBSCRIBE_GAME":
		if gameID, ok := msg.Data.(string); ok && gameID != "" {
			client.subscribe(gameID)
			client.enqueue(&Message{Type: "SUBSCRIBED", GameID: gameID})
		}
	case "UNSUBSCRIBE_GAME":
		if gameID, ok := msg.Data.(string); ok {
			client.unsubscribe(gameID)
			client.enqueue(&Message{Type: "UNSUBSCRIBED", GameID: gameID})
		}
	default:
		client.enqueue(&Message{Type: "ERROR", Data: gin.H{"error": "unknown message type"}})
	}
}

func (h *WebSocketHandler) sendBalance(c *gin.Context, client *Client) {
	balance, err := h.engine.Balance(c.Request.Context(), client.UserID)
	if err != nil {
		logger.Log.Warn("failed to get balance for websocket", zap.String("user", client.UserID), zap.Error(err))
		return
	}

	client.enqueue(&Message{
		Type:   "BALANCE_UPDATE",
		UserID: client.UserID,
		Data:   gin.H{"balance": balance},
	})
}
