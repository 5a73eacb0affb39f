package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"regen-advisor-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const progressChannel = "advisor_progress"

// progressPayload is the frame delivered to watchers of one session.
type progressPayload struct {
	SessionId string    `json:"session_id"`
	Stage     string    `json:"stage"`
	At        time.Time `json:"at"`
}

// Hub fans pipeline stage transitions out to the websocket watchers of each
// session. Redis pub/sub relays frames across instances, so a watcher
// connected to one instance still sees a pipeline running on another.
type Hub struct {
	// Watchers per session id (one session can have several tabs open).
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionId] = append(h.clients[client.SessionId], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Watcher registered", map[string]interface{}{"session_id": client.SessionId})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.SessionId]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.SessionId] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.SessionId]) == 0 {
					delete(h.clients, client.SessionId)
				}
			}
			h.mu.Unlock()
		}
	}
}

// NotifyProgress implements the pipeline's progress callback. Local watchers
// get the frame directly; other instances get it through Redis.
func (h *Hub) NotifyProgress(sessionId string, stage string) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "progress",
		"data": progressPayload{SessionId: sessionId, Stage: stage, At: time.Now()},
	})

	h.deliver(sessionId, data)

	if h.rdb != nil {
		relay, _ := json.Marshal(map[string]interface{}{
			"session_id": sessionId,
			"message":    json.RawMessage(data),
		})
		h.rdb.Publish(context.Background(), progressChannel, relay)
	}
}

func (h *Hub) deliver(sessionId string, data []byte) {
	h.mu.RLock()
	clients := h.clients[sessionId]
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Watcher buffer full, dropping", map[string]interface{}{"session_id": sessionId})
			close(client.Send)
			h.unregister <- client
		}
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, progressChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			SessionId string          `json:"session_id"`
			Message   json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Bad relay frame", map[string]interface{}{"error": err.Error()})
			continue
		}
		h.deliver(payload.SessionId, payload.Message)
	}
}
