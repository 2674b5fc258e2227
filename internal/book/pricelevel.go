package book

import (
	"github.com/tidwall/btree"

	"github.com/saiputravu/predictex/internal/domain"
	"github.com/saiputravu/predictex/internal/xdecimal"
)

// PriceLevel is one price point in a ladder: the FIFO queue of resting
// orders at that price. Generalizes the teacher's
// internal/engine/orderbook.go PriceLevel (float64 priceLevel + []*Order)
// to xdecimal.Decimal prices.
type PriceLevel struct {
	Price  xdecimal.Decimal
	Orders []*domain.Order
}

// ladder wraps a btree.BTreeG[*PriceLevel] the way the teacher's
// OrderBook.bids/asks do: bids sorted price-descending, asks
// price-ascending, each price present in the tree at most once.
type ladder struct {
	tree *btree.BTreeG[*PriceLevel]
}

func newBidLadder() *ladder {
	return &ladder{tree: btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price.GreaterThan(b.Price)
	})}
}

func newAskLadder() *ladder {
	return &ladder{tree: btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price.LessThan(b.Price)
	})}
}

// best returns the top-of-book level (highest bid / lowest ask given the
// ladder's comparator), or false if the ladder is empty. Uses the Mut
// accessor (per the teacher's MinMut/GetMut usage) since the caller
// mutates the returned level's Orders slice in place.
func (l *ladder) best() (*PriceLevel, bool) {
	return l.tree.MinMut()
}

// levelAt returns the level at exactly price, creating nothing.
func (l *ladder) levelAt(price xdecimal.Decimal) (*PriceLevel, bool) {
	return l.tree.GetMut(&PriceLevel{Price: price})
}

// appendOrder adds o to the tail of the price level at o.Price, creating
// the level if absent (time-priority tail insert, spec §4.2).
func (l *ladder) appendOrder(o *domain.Order) {
	if lvl, ok := l.tree.GetMut(&PriceLevel{Price: o.Price}); ok {
		lvl.Orders = append(lvl.Orders, o)
		return
	}
	l.tree.Set(&PriceLevel{Price: o.Price, Orders: []*domain.Order{o}})
}

// dropIfEmpty removes lvl from the tree once its order slice has been
// fully consumed (invariant ii: "a level is non-empty or the level is
// absent").
func (l *ladder) dropIfEmpty(lvl *PriceLevel) {
	if len(lvl.Orders) == 0 {
		l.tree.Delete(lvl)
	}
}

// items returns all levels in ladder order (best first).
func (l *ladder) items() []*PriceLevel {
	return l.tree.Items()
}

func (l *ladder) len() int {
	return l.tree.Len()
}
