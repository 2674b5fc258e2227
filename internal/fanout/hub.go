package fanout

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Broker relays events to peer server instances, per spec §4.6
// "cross-process broadcast". Local delivery happens synchronously
// before the broker publish (lower local latency); cross-node delivery
// is best-effort.
type Broker interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topic string, handler func(payload []byte))
}

// Hub maintains the set of locally-connected clients and fans out
// events to subscribers, generalizing the teacher's Hub
// (pkg/api/websocket.go) from a flat client set with string channels to
// typed Events over named topics, plus a Broker for cross-process
// relay.
type Hub struct {
	id     string
	broker Broker

	mu      sync.RWMutex
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
}

func NewHub(broker Broker) *Hub {
	return &Hub{
		id:         uuid.NewString(),
		broker:     broker,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes register/unregister requests until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	if h.broker != nil {
		h.broker.Subscribe(ctx, TopicWSBroadcast, h.onBrokerMessage)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		}
	}
}

// Publish delivers evt to every locally-subscribed client, then relays
// it to the broker so peer processes can do the same for their own
// local subscribers (spec §4.6: "local delivery happens before broker
// publish").
func (h *Hub) Publish(ctx context.Context, topic string, kind EventKind, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("fanout: failed to marshal event payload")
		return
	}
	evt := Event{Kind: kind, Topic: topic, Payload: raw, Origin: h.id}
	encoded, err := json.Marshal(evt)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("fanout: failed to marshal event envelope")
		return
	}

	h.deliverLocal(evt, encoded)

	if h.broker != nil {
		if err := h.broker.Publish(ctx, TopicWSBroadcast, encoded); err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("fanout: broker publish failed, cross-node delivery skipped")
		}
	}
}

// onBrokerMessage handles events relayed by peer hubs. A message whose
// Origin matches this hub was already delivered locally by Publish, so
// it is skipped here to preserve at-most-once local delivery.
func (h *Hub) onBrokerMessage(encoded []byte) {
	var evt Event
	if err := json.Unmarshal(encoded, &evt); err != nil {
		return
	}
	if evt.Origin == h.id {
		return
	}
	h.deliverLocal(evt, encoded)
}

func (h *Hub) deliverLocal(evt Event, encoded []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.IsSubscribed(evt.Topic) {
			continue
		}
		select {
		case c.send <- encoded:
		default:
			// Slow consumer: per spec §5, backpressure stays local to
			// this connection. Drop and let the client reconcile via
			// a snapshot REST call on reconnect.
		}
	}
}
