package ws

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type message struct {
	userID  uuid.UUID
	payload []byte
}

// Hub tracks websocket clients per user and delivers messages to them.
type Hub struct {
	clients map[uuid.UUID]map[*Client]struct{}
	mutex   sync.RWMutex

	outbox chan message
	logger logrus.FieldLogger
}

func NewHub(logger logrus.FieldLogger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		clients: make(map[uuid.UUID]map[*Client]struct{}),
		outbox:  make(chan message, 1024),
		logger:  logger,
	}
}

// Run delivers queued messages until ctx is done, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil
		case msg := <-h.outbox:
			h.deliver(msg)
		}
	}
}

// deliver sends while holding the read lock. Unregister closes send channels
// under the write lock, so a send never races a close.
func (h *Hub) deliver(msg message) {
	var slow []*Client
	h.mutex.RLock()
	for client := range h.clients[msg.userID] {
		select {
		case client.send <- msg.payload:
		default:
			slow = append(slow, client)
		}
	}
	h.mutex.RUnlock()

	for _, client := range slow {
		h.logger.WithField("user_id", msg.userID.String()).Warn("ws client too slow, disconnecting")
		h.Unregister(client)
	}
}

func (h *Hub) Register(client *Client) {
	if h == nil || client == nil {
		return
	}
	h.mutex.Lock()
	set, ok := h.clients[client.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[client.userID] = set
	}
	set[client] = struct{}{}
	total := h.countLocked()
	h.mutex.Unlock()

	h.logger.WithFields(logrus.Fields{"user_id": client.userID.String(), "total_clients": total}).Debug("ws connected")
}

func (h *Hub) Unregister(client *Client) {
	if h == nil || client == nil {
		return
	}
	h.mutex.Lock()
	set := h.clients[client.userID]
	if _, ok := set[client]; ok {
		delete(set, client)
		close(client.send)
		if len(set) == 0 {
			delete(h.clients, client.userID)
		}
	}
	total := h.countLocked()
	h.mutex.Unlock()

	h.logger.WithFields(logrus.Fields{"user_id": client.userID.String(), "total_clients": total}).Debug("ws disconnected")
}

// Publish queues payload for every connection of userID. It never blocks;
// when the queue is full the message is dropped.
func (h *Hub) Publish(userID uuid.UUID, payload []byte) {
	if h == nil {
		return
	}
	select {
	case h.outbox <- message{userID: userID, payload: payload}:
	default:
		h.logger.Warn("ws publish dropped, buffer full")
	}
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.countLocked()
}

func (h *Hub) countLocked() int {
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for id, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, id)
	}
}
