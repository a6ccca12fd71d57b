package hub

import (
	"errors"
	"sync"

	"FaceSignal/internal/entity"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

var ErrHubStopped = errors.New("signal hub is not running")

// Client is the write side of a websocket connection. Both gorilla and
// gofiber connections satisfy it.
type Client interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type IHub interface {
	Run(ctx context.Context)
	Register(client Client) error
	Unregister(client Client)
	Publish(ctx context.Context, update entity.SignalUpdate) error
	ClientCount() int
}

type Hub struct {
	clients    map[Client]bool
	broadcast  chan []byte
	register   chan Client
	unregister chan Client
	done       chan struct{}
	mutex      sync.RWMutex
	log        *logrus.Logger
}

func New(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan Client),
		unregister: make(chan Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run owns the client set until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
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
			h.log.Info("Signal hub stopped")
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.WithField("clients", total).Info("Signal client connected")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.WithField("clients", total).Info("Signal client disconnected")

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.log.WithError(err).Warn("Error sending signal update, dropping client")
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *Hub) Register(client Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

func (h *Hub) Unregister(client Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues the update for every connected client. It only blocks
// while the broadcast queue is full.
func (h *Hub) Publish(ctx context.Context, update entity.SignalUpdate) error {
	message, err := jsoniter.Marshal(update)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- message:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
