package book

import (
	"time"

	"github.com/saiputravu/predictex/internal/xdecimal"
)

// PriceLevelView is one aggregated rung of a Snapshot: a price, the total
// resting quantity at that price, and the number of orders contributing
// to it. Individual order identities are never exposed in a snapshot
// (spec §4.2 "a snapshot never reveals order ownership").
type PriceLevelView struct {
	Price      xdecimal.Decimal
	Quantity   xdecimal.Decimal
	OrderCount int
}

// Snapshot is the read-only view of a book at a point in time, per spec
// §3: marketId, outcomeIndex, the bid and ask ladders aggregated by
// price, and the timestamp the snapshot was produced.
type Snapshot struct {
	MarketID     string
	OutcomeIndex int
	Bids         []PriceLevelView
	Asks         []PriceLevelView
	AsOf         time.Time
}

func aggregateLevels(levels []*PriceLevel) []PriceLevelView {
	out := make([]PriceLevelView, 0, len(levels))
	for _, lvl := range levels {
		qty := xdecimal.Zero
		for _, o := range lvl.Orders {
			qty = qty.Add(o.RemainingQty)
		}
		out = append(out, PriceLevelView{
			Price:      lvl.Price,
			Quantity:   qty,
			OrderCount: len(lvl.Orders),
		})
	}
	return out
}
