package hub

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	TopicRequests = "requests"
	TopicSpares   = "spares"
)

type Subscription struct {
	Topic string
}

type Client struct {
	ID           string
	Send         chan []byte
	Subscription Subscription
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
	now     func() time.Time
}

type SubscribeMessage struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

type Envelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func New(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) UpdateSubscription(client *Client, sub Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.Subscription = sub
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Broadcast(payload []byte, topic string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if !match(client.Subscription, topic) {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			h.logger.Warn("drop message for slow client", zap.String("client_id", client.ID))
		}
	}
}

// Publish wraps payload in an envelope and fans it out on the topic taken
// from the event type prefix, e.g. "request.created" goes to "requests".
func (h *Hub) Publish(eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal event payload", zap.String("type", eventType), zap.Error(err))
		return
	}
	env, err := json.Marshal(Envelope{Type: eventType, Payload: raw, CreatedAt: h.now()})
	if err != nil {
		h.logger.Error("marshal event envelope", zap.String("type", eventType), zap.Error(err))
		return
	}
	h.Broadcast(env, TopicFor(eventType))
}

func TopicFor(eventType string) string {
	prefix, _, _ := strings.Cut(eventType, ".")
	switch prefix {
	case "request":
		return TopicRequests
	case "spare":
		return TopicSpares
	default:
		return prefix
	}
}

func match(sub Subscription, topic string) bool {
	return sub.Topic == "" || sub.Topic == topic
}

func ParseSubscribe(data []byte) (SubscribeMessage, bool) {
	var msg SubscribeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return SubscribeMessage{}, false
	}
	if msg.Action != "subscribe" && msg.Action != "unsubscribe" {
		return SubscribeMessage{}, false
	}
	return msg, true
}
