package websocket

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	KindContactRequested = "contact_requested"
	KindContactResponded = "contact_responded"
)

// Notification is pushed to every socket an account has open.
type Notification struct {
	Kind      string `json:"kind"`
	RequestID string `json:"request_id"`
	ListingID string `json:"listing_id"`
	FromID    string `json:"from_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Title     string `json:"title,omitempty"`
}

// Hub tracks open notification sockets per account.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		log:     log,
	}
}

func (h *Hub) Register(accountID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[accountID] == nil {
		h.clients[accountID] = make(map[*Client]struct{})
	}
	h.clients[accountID][client] = struct{}{}
}

// Unregister drops the client and stops its write loop. Unknown clients are
// ignored.
func (h *Hub) Unregister(accountID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[accountID][client]; !ok {
		return
	}
	client.stop()
	delete(h.clients[accountID], client)
	if len(h.clients[accountID]) == 0 {
		delete(h.clients, accountID)
	}
}

// Connected reports how many sockets accountID has open.
func (h *Hub) Connected(accountID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[accountID])
}

// Notify never blocks: a client whose buffer is full misses the message.
func (h *Hub) Notify(accountID string, n Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		h.log.Error("encode notification", zap.String("kind", n.Kind), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[accountID] {
		select {
		case client.send <- payload:
		default:
			h.log.Debug("notification dropped, client buffer full",
				zap.String("account_id", accountID),
				zap.String("request_id", n.RequestID))
		}
	}
}
