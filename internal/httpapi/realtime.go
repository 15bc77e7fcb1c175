package httpapi

import (
	"net/http"

	"github.com/Fahmy112/Al-Rayan-Service/internal/hub"

	"github.com/google/uuid"
	"github.com/igm/sockjs-go/sockjs"
	"go.uber.org/zap"
)

// session is the part of sockjs.Session the stream uses.
type session interface {
	Recv() (string, error)
	Send(string) error
}

// NewRealtimeHandler streams hub events to sockjs clients mounted at
// /realtime. Clients narrow the stream with a subscribe message.
func NewRealtimeHandler(h *hub.Hub, logger *zap.Logger) http.Handler {
	return sockjs.NewHandler("/realtime", sockjs.DefaultOptions, func(s sockjs.Session) {
		serveSession(h, s, logger)
	})
}

// serveSession registers a client for the lifetime of the session. Without a
// subscribe message it receives every topic.
func serveSession(h *hub.Hub, s session, logger *zap.Logger) {
	client := &hub.Client{ID: uuid.NewString(), Send: make(chan []byte, 16)}
	h.Register(client)
	defer h.Unregister(client)
	logger.Debug("realtime client connected", zap.String("client_id", client.ID))

	go func() {
		for msg := range client.Send {
			if err := s.Send(string(msg)); err != nil {
				return
			}
		}
	}()

	for {
		msg, err := s.Recv()
		if err != nil {
			logger.Debug("realtime client gone", zap.String("client_id", client.ID), zap.Error(err))
			return
		}
		parsed, ok := hub.ParseSubscribe([]byte(msg))
		if !ok {
			continue
		}
		if parsed.Action == "unsubscribe" {
			h.UpdateSubscription(client, hub.Subscription{})
			continue
		}
		h.UpdateSubscription(client, hub.Subscription{Topic: parsed.Topic})
	}
}
