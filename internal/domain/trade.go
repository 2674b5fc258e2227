package domain

import (
	"fmt"
	"time"

	"github.com/saiputravu/predictex/internal/xdecimal"
)

// ExecutedTrade is one maker/taker fill, per spec §3. Trades produced
// from one ProcessOrder call are monotonically non-decreasing in price
// for a BID taker and non-increasing for an ASK taker (enforced by the
// book's match loop in internal/book, not here).
type ExecutedTrade struct {
	ID            string
	MarketID      string
	OutcomeIndex  int
	Price         xdecimal.Decimal // the maker's price
	Quantity      xdecimal.Decimal
	MakerOrderID  string
	TakerOrderID  string
	TakerSide     Side
	TakerOwner    string // optional
	MakerOwner    string // optional
	ExecutedAt    time.Time
}

func (t ExecutedTrade) String() string {
	return fmt.Sprintf(
		"Trade{id=%s market=%s outcome=%d price=%s qty=%s maker=%s taker=%s side=%s}",
		t.ID, t.MarketID, t.OutcomeIndex, t.Price, t.Quantity, t.MakerOrderID, t.TakerOrderID, t.TakerSide,
	)
}

// Notional returns price*quantity, the contribution this trade makes to
// a market's volume per spec §9 ("volume is strictly Σ(price·quantity)").
func (t ExecutedTrade) Notional() xdecimal.Decimal {
	return t.Price.Mul(t.Quantity)
}
