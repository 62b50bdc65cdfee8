package websocket

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"riceinspector/internal/dto"
	"riceinspector/internal/logger"
	"riceinspector/internal/model"
)

const writeWait = 5 * time.Second

// HubService fans rendered frames out to dashboard viewers.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 1),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves register, unregister and broadcast requests until ctx is done,
// then closes every viewer connection.
func (h *HubService) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return nil

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client connected. Total: %d", count)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client disconnected. Total: %d", count)

		case message := <-h.broadcast:
			h.send(message)
		}
	}
}

// send writes outside the lock so a viewer that stops reading delays only the
// hub goroutine, never GetClientCount callers.
func (h *HubService) send(message []byte) {
	h.mutex.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.RUnlock()

	var failed []*websocket.Conn
	for _, client := range clients {
		_ = client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Error("Error sending message: %v", err)
			failed = append(failed, client)
		}
	}
	if len(failed) == 0 {
		return
	}

	h.mutex.Lock()
	for _, client := range failed {
		delete(h.clients, client)
		client.Close()
	}
	h.mutex.Unlock()
}

// Register adds a viewer. It is a no-op once the hub has stopped.
func (h *HubService) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues a message for all viewers. If the previous message has not
// been sent yet it is replaced, so a slow viewer never stalls the caller.
func (h *HubService) Broadcast(message []byte) {
	for {
		select {
		case h.broadcast <- message:
			return
		default:
		}
		select {
		case <-h.broadcast:
		default:
		}
	}
}

// BroadcastFrame publishes a rendered JPEG frame with its statistics.
func (h *HubService) BroadcastFrame(jpeg []byte, stats model.FrameStatistics) error {
	if h.GetClientCount() == 0 {
		return nil
	}

	msg, err := json.Marshal(dto.FrameMessage{
		Image:        base64.StdEncoding.EncodeToString(jpeg),
		Stats:        stats,
		Total:        stats.Total(),
		Contaminated: stats.Contaminated(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal frame message: %w", err)
	}

	h.Broadcast(msg)
	return nil
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
