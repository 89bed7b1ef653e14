// Package realtime держит websocket-подключения клиентов UI и рассылает им сообщения по пользователю.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Типы сообщений для клиентов UI
const (
	MessageTypeToast           = "toast"
	MessageTypeSoundCue        = "sound_cue"
	MessageTypeIncidentMatched = "incident_matched"
	MessageTypeBroadcast       = "broadcast"
	MessageTypeStatus          = "connection_status"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

// Message - сообщение для клиента UI
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
	once   sync.Once
}

// Hub хранит подключения клиентов, сгруппированные по пользователю
type Hub struct {
	mu       sync.RWMutex
	users    map[string]map[*client]struct{}
	upgrader websocket.Upgrader
	logger   *logrus.Logger
	closed   bool
}

// NewHub создает Hub
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		users: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Origin проверяется на уровне API-ключа
				return true
			},
		},
		logger: logger,
	}
}

// ServeWS переводит HTTP-запрос в websocket и регистрирует клиента пользователя
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBufferSize), hub: h}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return nil
	}
	if h.users[userID] == nil {
		h.users[userID] = make(map[*client]struct{})
	}
	h.users[userID][c] = struct{}{}
	h.mu.Unlock()

	h.logger.WithField("user_id", userID).Info("Realtime client connected")

	go c.writePump()
	go c.readPump()
	return nil
}

// SendToUser отправляет сообщение всем клиентам пользователя и возвращает число получателей.
// Клиенты с переполненным буфером пропускаются.
func (h *Hub) SendToUser(userID string, msg Message) int {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).WithField("type", msg.Type).Error("Failed to marshal realtime message")
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for c := range h.users[userID] {
		select {
		case c.send <- data:
			sent++
		default:
			h.logger.WithField("user_id", userID).Warn("Realtime client send buffer is full, message dropped")
		}
	}
	return sent
}

// HasUser сообщает, есть ли у пользователя подключенные клиенты
func (h *Hub) HasUser(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

// Close закрывает все подключения
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*client
	for _, set := range h.users {
		for c := range set {
			all = append(all, c)
		}
	}
	h.users = make(map[string]map[*client]struct{})
	h.mu.Unlock()

	for _, c := range all {
		c.close()
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if set, ok := h.users[c.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.users, c.userID)
		}
	}
	h.mu.Unlock()
	c.close()
	h.logger.WithField("user_id", c.userID).Info("Realtime client disconnected")
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// readPump читает только управляющие кадры, клиент UI ничего не присылает
func (c *client) readPump() {
	defer c.hub.remove(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).Warn("Realtime client read error")
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
