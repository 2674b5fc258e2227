// Package domain holds the shared value types of the trading core: Market,
// Order, ExecutedTrade, Position, and the OutcomeQuantities vector, per
// spec §3. It generalizes the teacher's internal/common package (plain
// structs with a String() method, shared by the wire protocol and the
// matching engine) from a single-asset-class equities model to the
// (marketID, outcomeIndex) prediction-market model. Decimal fields carry
// xdecimal.Decimal in memory; only wire/DB boundary code renders or
// parses the canonical string form (spec §9 "decimal strings across
// boundaries").
package domain

import (
	"fmt"
	"time"

	"github.com/saiputravu/predictex/internal/xdecimal"
)

// Side is which side of the book an order rests on, or a trade's taker
// came from.
type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "BID"
	}
	return "ASK"
}

// OrderType controls how an order crosses the book per spec §4.2.
type OrderType int

const (
	Limit OrderType = iota
	Market
	IOC
)

func (t OrderType) String() string {
	switch t {
	case Limit:
		return "LIMIT"
	case Market:
		return "MARKET"
	case IOC:
		return "IOC"
	default:
		return "UNKNOWN"
	}
}

// OrderStatus is the order state machine of spec §4.2:
// PENDING -> {LIVE | PARTIALLY_FILLED | FILLED | CANCELLED | REJECTED}.
type OrderStatus int

const (
	Pending OrderStatus = iota
	Live
	PartiallyFilled
	Filled
	Cancelled
	Rejected
)

func (s OrderStatus) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Live:
		return "LIVE"
	case PartiallyFilled:
		return "PARTIALLY_FILLED"
	case Filled:
		return "FILLED"
	case Cancelled:
		return "CANCELLED"
	case Rejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal reports whether the status is immutable once reached.
func (s OrderStatus) IsTerminal() bool {
	return s == Filled || s == Cancelled || s == Rejected
}

// IsResting reports whether an order in this status lives in a book ladder.
func (s OrderStatus) IsResting() bool {
	return s == Live || s == PartiallyFilled
}

// SettlementEnvelope is an opaque, externally-supplied settlement payload
// carried through to persistence without interpretation by the core. The
// spec's §9 open question about a MARKET settlement bypass is resolved
// here: this field is metadata only, never a distinct execution path.
type SettlementEnvelope struct {
	Kind    string
	Payload string
}

// Order is an intent to trade, per spec §3.
type Order struct {
	ID           string
	MarketID     string
	OutcomeIndex int
	Side         Side
	Type         OrderType
	Price        xdecimal.Decimal // zero value for MARKET orders
	Quantity     xdecimal.Decimal
	RemainingQty xdecimal.Decimal
	Status       OrderStatus
	CreatedAt    time.Time
	UserID       string // at most one of UserID/AgentID set
	AgentID      string
	Settlement   *SettlementEnvelope
}

func (o Order) String() string {
	return fmt.Sprintf(
		"Order{id=%s market=%s outcome=%d side=%s type=%s price=%s qty=%s remaining=%s status=%s}",
		o.ID, o.MarketID, o.OutcomeIndex, o.Side, o.Type, o.Price, o.Quantity, o.RemainingQty, o.Status,
	)
}

// Owner returns the single owning identity (user or agent), or "" if the
// order is a system order.
func (o Order) Owner() string {
	if o.UserID != "" {
		return o.UserID
	}
	return o.AgentID
}
