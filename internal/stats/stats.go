// Package stats is C7: a pure read-side aggregator over a set of
// market ids, batching persisted-state queries to avoid N+1 and
// merging in live in-memory depth from the book registry. Grounded on
// web3guy0-polybot's internal/database/database.go GetStats/GetArbTradeStats
// (aggregate COUNT/SUM queries via a thin *gorm.DB wrapper), generalized
// from a single global stats row to a batch keyed by market id.
package stats

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/saiputravu/predictex/internal/persistence"
	"github.com/saiputravu/predictex/internal/registry"
	"github.com/saiputravu/predictex/internal/xdecimal"
)

// MarketStats is the aggregated view for one market: persisted figures
// plus live in-memory depth, per spec §4.7.
type MarketStats struct {
	MarketID             string
	TotalTradedValue     xdecimal.Decimal
	LastTradeAt          *time.Time
	TotalTradeCount      int64
	UniqueCounterparties int64
	DistinctAgents       int64
	NewsItemCount        int64

	// Live depth, derived from the in-memory book if one exists.
	ActiveOrderCount int
	BidLiquidity     xdecimal.Decimal
	AskLiquidity     xdecimal.Decimal
}

// Aggregator serves C7's Stats contract over a GORM connection and a
// book registry.
type Aggregator struct {
	db  *gorm.DB
	reg *registry.Registry
}

func NewAggregator(db *gorm.DB, reg *registry.Registry) *Aggregator {
	return &Aggregator{db: db, reg: reg}
}

// Stats returns one MarketStats per requested market id, batching all
// persisted-state lookups across the full id set rather than issuing
// one query per market (spec §4.7 "must batch by id to avoid N+1").
func (a *Aggregator) Stats(ctx context.Context, marketIDs ...string) ([]MarketStats, error) {
	if len(marketIDs) == 0 {
		return nil, nil
	}

	byMarket := make(map[string]*MarketStats, len(marketIDs))
	for _, id := range marketIDs {
		byMarket[id] = &MarketStats{MarketID: id}
	}

	if err := a.loadTradeAggregates(ctx, marketIDs, byMarket); err != nil {
		return nil, err
	}
	if err := a.loadNewsCounts(ctx, marketIDs, byMarket); err != nil {
		return nil, err
	}

	out := make([]MarketStats, len(marketIDs))
	for i, id := range marketIDs {
		s := *byMarket[id]
		a.mergeLiveDepth(&s)
		out[i] = s
	}
	return out, nil
}

type tradeAggregateRow struct {
	MarketID     string
	TotalValue   xdecimal.Decimal
	TradeCount   int64
	LastTradeAt  time.Time
	Counterparts int64
}

func (a *Aggregator) loadTradeAggregates(ctx context.Context, marketIDs []string, byMarket map[string]*MarketStats) error {
	var rows []tradeAggregateRow
	err := a.db.WithContext(ctx).Model(&persistence.TradeRow{}).
		Select(`market_id,
			COALESCE(SUM(price * quantity), 0) as total_value,
			COUNT(*) as trade_count,
			MAX(executed_at) as last_trade_at,
			COUNT(DISTINCT taker_owner) + COUNT(DISTINCT maker_owner) as counterparts`).
		Where("market_id IN ?", marketIDs).
		Group("market_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	for _, row := range rows {
		s, ok := byMarket[row.MarketID]
		if !ok {
			continue
		}
		s.TotalTradedValue = row.TotalValue
		s.TotalTradeCount = row.TradeCount
		s.UniqueCounterparties = row.Counterparts
		if !row.LastTradeAt.IsZero() {
			t := row.LastTradeAt
			s.LastTradeAt = &t
		}
	}

	var agentRows []struct {
		MarketID string
		Count    int64
	}
	err = a.db.WithContext(ctx).Model(&persistence.OrderRow{}).
		Select("market_id, COUNT(DISTINCT agent_id) as count").
		Where("market_id IN ? AND agent_id <> ''", marketIDs).
		Group("market_id").
		Scan(&agentRows).Error
	if err != nil {
		return err
	}
	for _, row := range agentRows {
		if s, ok := byMarket[row.MarketID]; ok {
			s.DistinctAgents = row.Count
		}
	}
	return nil
}

func (a *Aggregator) loadNewsCounts(ctx context.Context, marketIDs []string, byMarket map[string]*MarketStats) error {
	var rows []struct {
		MarketID string
		Count    int64
	}
	err := a.db.WithContext(ctx).Model(&persistence.NewsItemRow{}).
		Select("market_id, COUNT(*) as count").
		Where("market_id IN ?", marketIDs).
		Group("market_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}
	for _, row := range rows {
		if s, ok := byMarket[row.MarketID]; ok {
			s.NewsItemCount = row.Count
		}
	}
	return nil
}

// mergeLiveDepth fills in active order count and per-side liquidity
// from the in-memory book for every outcome currently registered for
// this market. Depth is computed from the live book only; all other
// figures come from persisted state (spec §4.7).
func (a *Aggregator) mergeLiveDepth(s *MarketStats) {
	s.BidLiquidity = xdecimal.Zero
	s.AskLiquidity = xdecimal.Zero

	for _, key := range a.reg.Keys() {
		if key.MarketID != s.MarketID {
			continue
		}
		b, ok := a.reg.Get(key)
		if !ok {
			continue
		}
		snap := b.Snapshot()
		for _, lvl := range snap.Bids {
			s.ActiveOrderCount += lvl.OrderCount
			s.BidLiquidity = s.BidLiquidity.Add(lvl.Quantity.Mul(lvl.Price))
		}
		for _, lvl := range snap.Asks {
			s.ActiveOrderCount += lvl.OrderCount
			s.AskLiquidity = s.AskLiquidity.Add(lvl.Quantity.Mul(lvl.Price))
		}
	}
}
