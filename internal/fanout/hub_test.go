package fanout

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBroker is an in-process stand-in for a real Redis-backed broker,
// letting tests exercise Hub's broker-relay path without a network
// dependency.
type fakeBroker struct {
	mu       sync.Mutex
	handlers map[string][]func([]byte)
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{handlers: make(map[string][]func([]byte))}
}

func (b *fakeBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	handlers := append([]func([]byte){}, b.handlers[topic]...)
	b.mu.Unlock()
	for _, h := range handlers {
		h(payload)
	}
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, topic string, handler func(payload []byte)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

func newTestClient(topics ...string) *Client {
	c := &Client{
		send:   make(chan []byte, 8),
		topics: make(map[string]bool),
	}
	for _, t := range topics {
		c.topics[t] = true
	}
	return c
}

func TestHub_PublishDeliversOnlyToSubscribedClients(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	subscribed := newTestClient(TopicMarkets)
	unsubscribed := newTestClient("price_feed")

	h.register <- subscribed
	h.register <- unsubscribed
	time.Sleep(10 * time.Millisecond)

	h.Publish(ctx, TopicMarkets, MarketUpdated, map[string]string{"reason": "created"})

	select {
	case msg := <-subscribed.send:
		var evt Event
		require.NoError(t, json.Unmarshal(msg, &evt))
		assert.Equal(t, MarketUpdated, evt.Kind)
		assert.Equal(t, TopicMarkets, evt.Topic)
	case <-time.After(time.Second):
		t.Fatal("subscribed client did not receive event")
	}

	select {
	case <-unsubscribed.send:
		t.Fatal("unsubscribed client should not receive event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_BrokerRelaySkipsSelfOrigin(t *testing.T) {
	broker := newFakeBroker()
	h := NewHub(broker)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)
	time.Sleep(10 * time.Millisecond)

	client := newTestClient(TopicMarkets)
	h.register <- client
	time.Sleep(10 * time.Millisecond)

	h.Publish(ctx, TopicMarkets, MarketUpdated, map[string]string{"reason": "created"})

	// Exactly one delivery: the local synchronous one. The broker echo
	// of this hub's own publish must be suppressed by origin-matching.
	select {
	case <-client.send:
	case <-time.After(time.Second):
		t.Fatal("expected one local delivery")
	}
	select {
	case <-client.send:
		t.Fatal("received a duplicate delivery via broker echo")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_CrossProcessDeliveryFromPeer(t *testing.T) {
	broker := newFakeBroker()
	h1 := NewHub(broker)
	h2 := NewHub(broker)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h1.Run(ctx)
	go h2.Run(ctx)
	time.Sleep(10 * time.Millisecond)

	client := newTestClient(TopicMarkets)
	h2.register <- client
	time.Sleep(10 * time.Millisecond)

	h1.Publish(ctx, TopicMarkets, MarketUpdated, map[string]string{"reason": "created"})

	select {
	case msg := <-client.send:
		var evt Event
		require.NoError(t, json.Unmarshal(msg, &evt))
		assert.Equal(t, TopicMarkets, evt.Topic)
	case <-time.After(time.Second):
		t.Fatal("peer hub's subscriber did not receive the relayed event")
	}
}
