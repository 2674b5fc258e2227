// Package book implements the price-time priority matching engine for a
// single (marketID, outcomeIndex) ladder pair. It generalizes the
// teacher's internal/engine/orderbook.go (a single-instrument equities
// book keyed on a ticker, float64 prices, two btree.BTreeG ladders) to
// the prediction-market domain: decimal prices via xdecimal.Decimal,
// orders scoped to one outcome of one market, and MARKET/IOC order
// types that never rest.
package book

import (
	"time"

	"github.com/saiputravu/predictex/internal/domain"
	"github.com/saiputravu/predictex/internal/xdecimal"
	"github.com/saiputravu/predictex/internal/xerr"
)

// OrderBook holds the resting bid and ask ladders for one
// (marketID, outcomeIndex) pair. Not safe for concurrent use by more
// than one goroutine at a time; internal/dispatch serializes access per
// key (spec §5 C4).
type OrderBook struct {
	MarketID     string
	OutcomeIndex int

	bids *ladder
	asks *ladder

	tradeSeq uint64
}

// NewOrderBook returns an empty book for the given market outcome.
func NewOrderBook(marketID string, outcomeIndex int) *OrderBook {
	return &OrderBook{
		MarketID:     marketID,
		OutcomeIndex: outcomeIndex,
		bids:         newBidLadder(),
		asks:         newAskLadder(),
	}
}

// ProcessOrder validates, matches, and (for LIMIT orders with remaining
// quantity) rests the incoming order, per spec §4.2. It returns the
// order's final state, the trades it produced (oldest first), and the
// resulting snapshot. A validation failure returns a *xerr.Error of kind
// Validation and a REJECTED order; no book state changes in that case.
func (b *OrderBook) ProcessOrder(in domain.Order) (domain.Order, []domain.ExecutedTrade, Snapshot, error) {
	if err := validateIncoming(in); err != nil {
		in.Status = domain.Rejected
		in.RemainingQty = in.Quantity
		return in, nil, b.Snapshot(), err
	}

	in.RemainingQty = in.Quantity
	in.Status = domain.Pending

	var trades []domain.ExecutedTrade
	now := time.Now().UTC()

	opposite := b.asks
	if in.Side == domain.Ask {
		opposite = b.bids
	}

	for in.RemainingQty.IsPositive() {
		lvl, ok := opposite.best()
		if !ok {
			break
		}
		if in.Type == domain.Limit && !crosses(in, lvl.Price) {
			break
		}

		for len(lvl.Orders) > 0 && in.RemainingQty.IsPositive() {
			maker := lvl.Orders[0]
			fillQty := xdecimal.Min(in.RemainingQty, maker.RemainingQty)

			b.tradeSeq++
			trades = append(trades, domain.ExecutedTrade{
				ID:           nextTradeID(b.MarketID, b.OutcomeIndex, b.tradeSeq, now.UnixNano()),
				MarketID:     b.MarketID,
				OutcomeIndex: b.OutcomeIndex,
				Price:        lvl.Price,
				Quantity:     fillQty,
				MakerOrderID: maker.ID,
				TakerOrderID: in.ID,
				TakerSide:    in.Side,
				TakerOwner:   in.Owner(),
				MakerOwner:   maker.Owner(),
				ExecutedAt:   now,
			})

			maker.RemainingQty = maker.RemainingQty.Sub(fillQty)
			in.RemainingQty = in.RemainingQty.Sub(fillQty)

			if maker.RemainingQty.IsZero() {
				maker.Status = domain.Filled
				lvl.Orders = lvl.Orders[1:]
			} else {
				maker.Status = domain.PartiallyFilled
			}
		}

		opposite.dropIfEmpty(lvl)
	}

	in = terminalStatus(in)

	if in.Status == domain.Live || in.Status == domain.PartiallyFilled {
		same := b.bids
		if in.Side == domain.Ask {
			same = b.asks
		}
		resting := in
		same.appendOrder(&resting)
	}

	return in, trades, b.Snapshot(), nil
}

// CancelOrder removes a resting order from its ladder. Callers supply
// the side and price the order is known to rest at (tracked by
// whichever component holds the order's current state, per spec §4.2
// "cancellation acts on the book's current state, not the caller's
// stale copy"). Returns false if no matching resting order is found.
func (b *OrderBook) CancelOrder(side domain.Side, price xdecimal.Decimal, orderID string) bool {
	l := b.bids
	if side == domain.Ask {
		l = b.asks
	}
	lvl, ok := l.levelAt(price)
	if !ok {
		return false
	}
	for i, o := range lvl.Orders {
		if o.ID == orderID {
			lvl.Orders = append(lvl.Orders[:i], lvl.Orders[i+1:]...)
			l.dropIfEmpty(lvl)
			return true
		}
	}
	return false
}

// terminalStatus implements spec §4.2's terminal-status table:
//
//	remaining == 0                        -> FILLED
//	remaining > 0, LIMIT, any fill         -> PARTIALLY_FILLED (rests)
//	remaining > 0, LIMIT, no fill          -> LIVE (rests)
//	remaining > 0, IOC                     -> CANCELLED
//	remaining > 0, MARKET, any fill        -> CANCELLED
//	remaining > 0, MARKET, no fill         -> REJECTED
func terminalStatus(o domain.Order) domain.Order {
	anyFill := !o.RemainingQty.Equal(o.Quantity)
	switch {
	case o.RemainingQty.IsZero():
		o.Status = domain.Filled
	case o.Type == domain.Limit:
		if anyFill {
			o.Status = domain.PartiallyFilled
		} else {
			o.Status = domain.Live
		}
	case o.Type == domain.IOC:
		o.Status = domain.Cancelled
	default: // MARKET
		if anyFill {
			o.Status = domain.Cancelled
		} else {
			o.Status = domain.Rejected
		}
	}
	return o
}

// crosses reports whether an incoming LIMIT order at in.Price is willing
// to trade against a resting level at levelPrice.
func crosses(in domain.Order, levelPrice xdecimal.Decimal) bool {
	if in.Side == domain.Bid {
		return in.Price.GreaterThanOrEqual(levelPrice)
	}
	return in.Price.LessThanOrEqual(levelPrice)
}

func validateIncoming(in domain.Order) error {
	if !in.Quantity.IsPositive() {
		return xerr.New(xerr.Validation, "order quantity must be positive")
	}
	if in.Type == domain.Limit && !in.Price.IsPositive() {
		return xerr.New(xerr.Validation, "limit order price must be positive")
	}
	if in.OutcomeIndex < 0 {
		return xerr.New(xerr.Validation, "outcome index must be non-negative")
	}
	return nil
}

// Snapshot returns the current aggregated view of both ladders.
func (b *OrderBook) Snapshot() Snapshot {
	return Snapshot{
		MarketID:     b.MarketID,
		OutcomeIndex: b.OutcomeIndex,
		Bids:         aggregateLevels(b.bids.items()),
		Asks:         aggregateLevels(b.asks.items()),
		AsOf:         time.Now().UTC(),
	}
}
