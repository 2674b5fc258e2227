// Package fanout is C6: typed event routing to currently-connected
// subscribers, surviving horizontal scale-out via a broker-backed
// cross-process relay. The Hub/Client shape is grounded on the
// teacher's pkg/api/websocket.go (register/unregister/broadcast
// channels, per-connection send buffer, ping/pong heartbeat); the
// cross-process broker is grounded on rishavpaul-system-design's
// redis-backed rate limiter, repurposed here from token-bucket state
// to pub/sub fan-out (spec §4.6 "cross-process broadcast").
package fanout

import "encoding/json"

// EventKind is the typed envelope discriminator, per spec §4.6.
type EventKind string

const (
	OrderBookUpdate EventKind = "ORDER_BOOK_UPDATE"
	TradeExecuted   EventKind = "TRADE_EXECUTED"
	MarketUpdated   EventKind = "MARKET_UPDATED"
	AgentUpdated    EventKind = "AGENT_UPDATED"
	PriceUpdate     EventKind = "PRICE_UPDATE"
	SubscribeError  EventKind = "SUBSCRIBE_ERROR"
)

// MarketUpdateReason enumerates the reasons a MARKET_UPDATED event was
// published, per spec §4.6.
type MarketUpdateReason string

const (
	ReasonCreated   MarketUpdateReason = "created"
	ReasonUpdated   MarketUpdateReason = "updated"
	ReasonDeleted   MarketUpdateReason = "deleted"
	ReasonStats     MarketUpdateReason = "stats"
	ReasonPosition  MarketUpdateReason = "position"
	ReasonOrderbook MarketUpdateReason = "orderbook"
)

// Event is the envelope published to a topic and delivered to every
// currently-subscribed client, or relayed to the broker for
// cross-process delivery.
type Event struct {
	Kind    EventKind       `json:"kind"`
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
	// Origin identifies the publishing hub instance, so a hub that
	// receives its own publish back from the broker can skip
	// re-delivering it to local clients a second time.
	Origin string `json:"origin"`
}

// ClientMessage is the structured inbound message a client may send:
// SUBSCRIBE or UNSUBSCRIBE a set of topics.
type ClientMessage struct {
	Op     string   `json:"op"`
	Topics []string `json:"topics"`
}

// Topic name helpers, per spec §4.6.
const (
	TopicMarkets     = "markets"
	TopicPriceFeed   = "price_feed"
	TopicWSBroadcast = "ws:broadcast"
)

// MarketTopic returns the per-market topic name.
func MarketTopic(marketID string) string { return "market:" + marketID }

// AgentTopic returns the per-agent topic name.
func AgentTopic(agentID string) string { return "agent:" + agentID }
