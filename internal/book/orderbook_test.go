package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiputravu/predictex/internal/domain"
	"github.com/saiputravu/predictex/internal/xdecimal"
)

func limitOrder(id string, side domain.Side, price, qty string) domain.Order {
	return domain.Order{
		ID:       id,
		MarketID: "m1",
		Side:     side,
		Type:     domain.Limit,
		Price:    xdecimal.MustParse(price),
		Quantity: xdecimal.MustParse(qty),
	}
}

// S1: Equal-price crossing.
func TestProcessOrder_S1_EqualPriceCrossing(t *testing.T) {
	b := NewOrderBook("m1", 0)

	a, trades, snap, err := b.ProcessOrder(limitOrder("A", domain.Ask, "100", "10"))
	require.NoError(t, err)
	assert.Equal(t, domain.Live, a.Status)
	assert.Empty(t, trades)

	bOrder, trades, snap, err := b.ProcessOrder(limitOrder("B", domain.Bid, "100", "10"))
	require.NoError(t, err)
	assert.Equal(t, domain.Filled, bOrder.Status)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(xdecimal.MustParse("100")))
	assert.True(t, trades[0].Quantity.Equal(xdecimal.MustParse("10")))
	assert.Empty(t, snap.Bids)
	assert.Empty(t, snap.Asks)
}

// S2: Partial maker.
func TestProcessOrder_S2_PartialMaker(t *testing.T) {
	b := NewOrderBook("m1", 0)

	_, _, _, err := b.ProcessOrder(limitOrder("A", domain.Ask, "100", "10"))
	require.NoError(t, err)

	bOrder, trades, snap, err := b.ProcessOrder(limitOrder("B", domain.Bid, "100", "5"))
	require.NoError(t, err)
	assert.Equal(t, domain.Filled, bOrder.Status)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Quantity.Equal(xdecimal.MustParse("5")))

	require.Len(t, snap.Asks, 1)
	assert.True(t, snap.Asks[0].Price.Equal(xdecimal.MustParse("100")))
	assert.True(t, snap.Asks[0].Quantity.Equal(xdecimal.MustParse("5")))
	assert.Empty(t, snap.Bids)
}

// S3: Two-level fill.
func TestProcessOrder_S3_TwoLevelFill(t *testing.T) {
	b := NewOrderBook("m1", 0)

	_, _, _, err := b.ProcessOrder(limitOrder("A1", domain.Ask, "101", "10"))
	require.NoError(t, err)
	_, _, _, err = b.ProcessOrder(limitOrder("A2", domain.Ask, "100", "10"))
	require.NoError(t, err)

	taker, trades, snap, err := b.ProcessOrder(limitOrder("B", domain.Bid, "101", "15"))
	require.NoError(t, err)
	assert.Equal(t, domain.Filled, taker.Status)
	require.Len(t, trades, 2)
	assert.True(t, trades[0].Price.Equal(xdecimal.MustParse("100")))
	assert.True(t, trades[0].Quantity.Equal(xdecimal.MustParse("10")))
	assert.True(t, trades[1].Price.Equal(xdecimal.MustParse("101")))
	assert.True(t, trades[1].Quantity.Equal(xdecimal.MustParse("5")))

	require.Len(t, snap.Asks, 1)
	assert.True(t, snap.Asks[0].Price.Equal(xdecimal.MustParse("101")))
	assert.True(t, snap.Asks[0].Quantity.Equal(xdecimal.MustParse("5")))
}

// S4: Time priority.
func TestProcessOrder_S4_TimePriority(t *testing.T) {
	b := NewOrderBook("m1", 0)

	_, _, _, err := b.ProcessOrder(limitOrder("A1", domain.Ask, "100", "5"))
	require.NoError(t, err)
	_, _, _, err = b.ProcessOrder(limitOrder("A2", domain.Ask, "100", "5"))
	require.NoError(t, err)

	_, trades, _, err := b.ProcessOrder(limitOrder("B", domain.Bid, "100", "7"))
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "A1", trades[0].MakerOrderID)
	assert.True(t, trades[0].Quantity.Equal(xdecimal.MustParse("5")))
	assert.Equal(t, "A2", trades[1].MakerOrderID)
	assert.True(t, trades[1].Quantity.Equal(xdecimal.MustParse("2")))
}

func TestProcessOrder_MarketNoLiquidity_Rejected(t *testing.T) {
	b := NewOrderBook("m1", 0)
	o := domain.Order{ID: "X", MarketID: "m1", Side: domain.Bid, Type: domain.Market, Quantity: xdecimal.MustParse("1")}
	out, trades, snap, err := b.ProcessOrder(o)
	require.NoError(t, err)
	assert.Equal(t, domain.Rejected, out.Status)
	assert.Empty(t, trades)
	assert.Empty(t, snap.Bids)
	assert.Empty(t, snap.Asks)
}

func TestProcessOrder_IOCPartialFill_Cancelled(t *testing.T) {
	b := NewOrderBook("m1", 0)
	_, _, _, err := b.ProcessOrder(limitOrder("A", domain.Ask, "100", "3"))
	require.NoError(t, err)

	o := domain.Order{ID: "X", MarketID: "m1", Side: domain.Bid, Type: domain.IOC, Quantity: xdecimal.MustParse("10")}
	out, trades, snap, err := b.ProcessOrder(o)
	require.NoError(t, err)
	assert.Equal(t, domain.Cancelled, out.Status)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Quantity.Equal(xdecimal.MustParse("3")))
	assert.Empty(t, snap.Asks)
}

func TestProcessOrder_ValidationRejectsNonPositiveQuantity(t *testing.T) {
	b := NewOrderBook("m1", 0)
	o := limitOrder("A", domain.Ask, "100", "0")
	out, trades, _, err := b.ProcessOrder(o)
	require.Error(t, err)
	assert.Equal(t, domain.Rejected, out.Status)
	assert.Empty(t, trades)
	assert.Equal(t, 0, b.bids.len())
	assert.Equal(t, 0, b.asks.len())
}

func TestProcessOrder_NeverCrossesBook(t *testing.T) {
	b := NewOrderBook("m1", 0)
	_, _, _, err := b.ProcessOrder(limitOrder("A", domain.Ask, "100", "10"))
	require.NoError(t, err)
	_, _, snap, err := b.ProcessOrder(limitOrder("B", domain.Bid, "99", "10"))
	require.NoError(t, err)

	require.Len(t, snap.Bids, 1)
	require.Len(t, snap.Asks, 1)
	assert.True(t, snap.Bids[0].Price.LessThan(snap.Asks[0].Price))
}

func TestCancelOrder(t *testing.T) {
	b := NewOrderBook("m1", 0)
	resting, _, _, err := b.ProcessOrder(limitOrder("A", domain.Ask, "100", "10"))
	require.NoError(t, err)
	assert.Equal(t, domain.Live, resting.Status)

	ok := b.CancelOrder(domain.Ask, xdecimal.MustParse("100"), "A")
	assert.True(t, ok)
	assert.Empty(t, b.Snapshot().Asks)

	ok = b.CancelOrder(domain.Ask, xdecimal.MustParse("100"), "A")
	assert.False(t, ok)
}
