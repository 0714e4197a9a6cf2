package service

import (
	"accounting_academy_backend/pkg/logger"
	"accounting_academy_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	shardCount     = 32
	onlineTTL      = 2 * time.Minute

	notificationChannel = "notification_channel"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage is the envelope pushed over the socket. The hub is push-only:
// clients receive notifications and timer ticks, they never send application
// messages upstream.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type Client struct {
	Hub     *NotificationHub
	Conn    *websocket.Conn
	Send    chan []byte
	UserID  uint
	Limiter *rate.Limiter
}

// readPump exists to service control frames and detect disconnects. Any
// application payload from the client beyond the rate limit is dropped.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.Uint("userId", c.UserID))
			}
			break
		}
		if !c.Limiter.Allow() {
			continue
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if n := len(c.Send); n > 0 {
				for i := 0; i < n; i++ {
					w.Write(<-c.Send)
				}
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type shard struct {
	clients map[uint]*Client
	mu      sync.RWMutex
}

// NotificationHub fans notifications out to connected browsers. Connections
// are sharded by user id; cross-instance delivery goes through a Redis
// pub/sub channel so any instance can notify a user connected to another.
type NotificationHub struct {
	shards     [shardCount]*shard
	register   chan *Client
	unregister chan *Client
	Redis      *redis.Client
	ctx        context.Context
}

func NewNotificationHub(rdb *redis.Client) *NotificationHub {
	h := &NotificationHub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		Redis:      rdb,
		ctx:        context.Background(),
	}
	for i := 0; i < shardCount; i++ {
		h.shards[i] = &shard{
			clients: make(map[uint]*Client),
		}
	}
	return h
}

func (h *NotificationHub) getShard(userID uint) *shard {
	return h.shards[userID%shardCount]
}

type PubSubMessage struct {
	TargetUsers []uint          `json:"targetUsers"`
	Payload     json.RawMessage `json:"payload"`
}

func (h *NotificationHub) Run() {
	if h.Redis != nil {
		pubsub := h.Redis.Subscribe(h.ctx, notificationChannel)
		go func() {
			ch := pubsub.Channel()
			for msg := range ch {
				var psMsg PubSubMessage
				if err := json.Unmarshal([]byte(msg.Payload), &psMsg); err != nil {
					logger.Log.Error("PubSub unmarshal error", zap.Error(err))
					continue
				}
				h.pushToLocalUsers(psMsg.TargetUsers, psMsg.Payload)
			}
		}()
	}

	heartbeatTicker := time.NewTicker(1 * time.Minute)
	defer heartbeatTicker.Stop()

	for {
		select {
		case client := <-h.register:
			s := h.getShard(client.UserID)
			s.mu.Lock()
			s.clients[client.UserID] = client
			s.mu.Unlock()
			h.setOnline(client.UserID, true)
			monitoring.WSConnectedClients.Inc()

		case client := <-h.unregister:
			s := h.getShard(client.UserID)
			s.mu.Lock()
			if _, ok := s.clients[client.UserID]; ok {
				delete(s.clients, client.UserID)
				close(client.Send)
				monitoring.WSConnectedClients.Dec()
			}
			s.mu.Unlock()
			h.setOnline(client.UserID, false)

		case <-heartbeatTicker.C:
			h.refreshOnlineStatus()
		}
	}
}

func (h *NotificationHub) setOnline(userID uint, online bool) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf("user:online:%d", userID)
	if online {
		h.Redis.Set(h.ctx, key, "true", onlineTTL)
	} else {
		h.Redis.Del(h.ctx, key)
	}
}

// refreshOnlineStatus extends the TTL of every locally connected user.
func (h *NotificationHub) refreshOnlineStatus() {
	if h.Redis == nil {
		return
	}
	pipe := h.Redis.Pipeline()
	count := 0
	for i := 0; i < shardCount; i++ {
		s := h.shards[i]
		s.mu.RLock()
		for userID := range s.clients {
			pipe.Expire(h.ctx, fmt.Sprintf("user:online:%d", userID), onlineTTL)
			count++
		}
		s.mu.RUnlock()
	}
	if count > 0 {
		pipe.Exec(h.ctx)
		logger.Log.Debug("Refreshed online status", zap.Int("count", count))
	}
}

// Stop closes all connections and clears the online markers.
func (h *NotificationHub) Stop() {
	logger.Log.Info("NotificationHub stopping: clearing online status and closing connections...")

	var allUserIDs []uint
	for i := 0; i < shardCount; i++ {
		s := h.shards[i]
		s.mu.Lock()
		for userID, client := range s.clients {
			allUserIDs = append(allUserIDs, userID)
			close(client.Send)
			delete(s.clients, userID)
		}
		s.mu.Unlock()
	}

	if h.Redis != nil && len(allUserIDs) > 0 {
		pipe := h.Redis.Pipeline()
		for _, userID := range allUserIDs {
			pipe.Del(h.ctx, fmt.Sprintf("user:online:%d", userID))
		}
		pipe.Exec(h.ctx)
	}

	monitoring.WSConnectedClients.Set(0)
	logger.Log.Info("NotificationHub stopped", zap.Int("closedConnections", len(allUserIDs)))
}

// PushToUsers delivers a message to the given users wherever they are
// connected. With Redis present the payload goes through pub/sub so other
// instances see it too; without it delivery is local only.
func (h *NotificationHub) PushToUsers(userIDs []uint, msg WSMessage) {
	msgBytes, _ := json.Marshal(msg)
	monitoring.WSPushedMessages.WithLabelValues(msg.Type).Inc()

	if h.Redis == nil {
		h.pushToLocalUsers(userIDs, msgBytes)
		return
	}

	psMsg := PubSubMessage{
		TargetUsers: userIDs,
		Payload:     msgBytes,
	}
	payload, _ := json.Marshal(psMsg)
	h.Redis.Publish(h.ctx, notificationChannel, payload)
}

func (h *NotificationHub) pushToLocalUsers(userIDs []uint, payload []byte) {
	if len(userIDs) == 0 {
		for i := 0; i < shardCount; i++ {
			s := h.shards[i]
			s.mu.RLock()
			for _, client := range s.clients {
				select {
				case client.Send <- payload:
				default:
				}
			}
			s.mu.RUnlock()
		}
		return
	}

	for _, id := range userIDs {
		s := h.getShard(id)
		s.mu.RLock()
		if client, ok := s.clients[id]; ok {
			select {
			case client.Send <- payload:
			default:
			}
		}
		s.mu.RUnlock()
	}
}

func (h *NotificationHub) IsUserOnline(userID uint) bool {
	s := h.getShard(userID)
	s.mu.RLock()
	_, ok := s.clients[userID]
	s.mu.RUnlock()
	if ok {
		return true
	}

	if h.Redis == nil {
		return false
	}
	val, err := h.Redis.Get(h.ctx, fmt.Sprintf("user:online:%d", userID)).Result()
	return err == nil && val == "true"
}

func ServeWs(hub *NotificationHub, w http.ResponseWriter, r *http.Request, userID uint) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.Uint("userId", userID))
		return
	}
	client := &Client{
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		UserID:  userID,
		Limiter: rate.NewLimiter(rate.Limit(30), 50),
	}
	client.Hub.register <- client

	go client.writePump()
	go client.readPump()
}
