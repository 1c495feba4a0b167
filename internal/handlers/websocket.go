package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"sportsbook-backend/internal/models"
	"sportsbook-backend/internal/services"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type outgoing struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// send is owned and closed by the hub; replies carries answers from the read
// loop and is never closed.
type wsClient struct {
	username string
	conn     *websocket.Conn
	send     chan []byte
	replies  chan []byte
}

// Hub fans balance updates out to every socket open for the affected user.
// It implements services.Broadcaster.
type Hub struct {
	clients    map[string]map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan models.BalanceUpdate
	done       chan struct{}
	logger     *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	hub := &Hub{
		clients:    make(map[string]map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan models.BalanceUpdate, 100),
		done:       make(chan struct{}),
		logger:     logger,
	}

	go hub.run()

	return hub
}

func (hub *Hub) Close() {
	close(hub.done)
}

// BroadcastBalance never blocks the ledger; when the queue is full the update
// is dropped and clients catch up on the next one or on /user/sync.
func (hub *Hub) BroadcastBalance(update models.BalanceUpdate) {
	select {
	case hub.broadcast <- update:
	default:
		hub.logger.WithField("username", update.Username).Warn("balance broadcast queue full, dropping update")
	}
}

func (hub *Hub) run() {
	for {
		select {
		case client := <-hub.register:
			set, ok := hub.clients[client.username]
			if !ok {
				set = make(map[*wsClient]bool)
				hub.clients[client.username] = set
			}
			set[client] = true
			hub.logger.WithField("username", client.username).Debug("websocket client registered")

		case client := <-hub.unregister:
			hub.remove(client)

		case update := <-hub.broadcast:
			hub.deliver(update)

		case <-hub.done:
			for _, set := range hub.clients {
				for client := range set {
					close(client.send)
				}
			}
			hub.clients = nil
			return
		}
	}
}

func (hub *Hub) remove(client *wsClient) {
	set, ok := hub.clients[client.username]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(hub.clients, client.username)
	}
	hub.logger.WithField("username", client.username).Debug("websocket client unregistered")
}

func (hub *Hub) deliver(update models.BalanceUpdate) {
	set := hub.clients[update.Username]
	if len(set) == 0 {
		return
	}

	payload, err := json.Marshal(balanceMessage(update))
	if err != nil {
		hub.logger.WithError(err).Error("failed to encode balance update")
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			// A client that cannot keep up is disconnected.
			hub.remove(client)
		}
	}
}

func balanceMessage(update models.BalanceUpdate) outgoing {
	return outgoing{
		Type: "BALANCE_UPDATE",
		Data: gin.H{
			"username": update.Username,
			"balance":  update.Balance,
			"reason":   update.Reason,
		},
	}
}

type WebSocketHandler struct {
	ledger *services.LedgerService
	hub    *Hub
	logger *logrus.Logger
}

func NewWebSocketHandler(ledger *services.LedgerService, hub *Hub, logger *logrus.Logger) *WebSocketHandler {
	return &WebSocketHandler{ledger: ledger, hub: hub, logger: logger}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	user, err := h.ledger.Sync(c.Request.Context(), username)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("failed to upgrade to websocket")
		return
	}

	client := &wsClient{
		username: user.Username,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		replies:  make(chan []byte, sendBufferSize),
	}

	initial, _ := json.Marshal(balanceMessage(models.BalanceUpdate{
		Username: user.Username,
		Balance:  user.Balance,
		Reason:   "connect",
	}))
	client.send <- initial

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	h.readPump(client)
}

func (h *WebSocketHandler) readPump(client *wsClient) {
	defer func() {
		select {
		case h.hub.unregister <- client:
		case <-h.hub.done:
		}
		client.conn.Close()
	}()

	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := client.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.WithError(err).WithField("username", client.username).Warn("websocket read failed")
			}
			return
		}

		if msg.Type == "PING" {
			pong, _ := json.Marshal(outgoing{
				Type: "PONG",
				Data: gin.H{"timestamp": time.Now().Unix()},
			})
			select {
			case client.replies <- pong:
			default:
			}
		}
	}
}

// writePump is the only writer on the connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case payload := <-c.replies:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
