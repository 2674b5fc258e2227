// Package persistence is C5: the durable record of orders and trades,
// and the sole writer of Market.volume. It is grounded on the teacher's
// internal/worker.go pool (its tomb-supervised worker loop) and on
// web3guy0-polybot's internal/database/database.go (GORM model shape:
// plain structs with gorm struct tags, a thin *gorm.DB-backed type with
// one method per operation), generalized from that bot's decimal(10,6)
// price columns to xdecimal.Decimal throughout.
package persistence

import (
	"time"

	"gorm.io/gorm"

	"github.com/saiputravu/predictex/internal/xdecimal"
)

// OrderRow is the durable record of one domain.Order. Only
// RemainingQty, Status, and UpdatedAt may change on re-processing
// (spec §4.5 step 1).
type OrderRow struct {
	ID            string `gorm:"primaryKey"`
	MarketID      string `gorm:"index"`
	OutcomeIndex  int
	Side          string
	Type          string
	Price         xdecimal.Decimal `gorm:"type:decimal(38,18)"`
	Quantity      xdecimal.Decimal `gorm:"type:decimal(38,18)"`
	RemainingQty  xdecimal.Decimal `gorm:"type:decimal(38,18)"`
	Status        string
	UserID        string
	AgentID       string
	// SettlementKind/SettlementPayload persist domain.Order.Settlement
	// verbatim, as opaque fields the core never interprets (spec §3's
	// "optional externally-supplied settlement envelope").
	SettlementKind    string
	SettlementPayload string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TradeRow is the durable record of one domain.ExecutedTrade. ID
// carries a unique constraint so idempotent inserts can skip
// duplicates (spec §4.5 step 2).
type TradeRow struct {
	ID           string `gorm:"primaryKey"`
	MarketID     string `gorm:"index"`
	OutcomeIndex int
	Price        xdecimal.Decimal `gorm:"type:decimal(38,18)"`
	Quantity     xdecimal.Decimal `gorm:"type:decimal(38,18)"`
	MakerOrderID string
	TakerOrderID string
	TakerSide    string
	TakerOwner   string
	MakerOwner   string
	ExecutedAt   time.Time
	CreatedAt    time.Time
}

// MarketRow is the durable record backing domain.Market, read by C7 and
// written by C5's volume increment.
type MarketRow struct {
	ID                 string `gorm:"primaryKey"`
	Name               string
	Creator            string
	CollateralToken    string
	OutcomesJSON       string `gorm:"column:outcomes_json"`
	ResolutionTime     time.Time
	Status             string
	Volume             xdecimal.Decimal `gorm:"type:decimal(38,18)"`
	LiquidityB         xdecimal.Decimal `gorm:"type:decimal(38,18)"`
	OnChainConditionID string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PositionRow is the durable record backing domain.Position.
type PositionRow struct {
	ID               string `gorm:"primaryKey"`
	MarketID         string `gorm:"index"`
	OutcomeIndex     int
	Owner            string `gorm:"index"`
	Side             string
	CollateralLocked xdecimal.Decimal `gorm:"type:decimal(38,18)"`
	Status           string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewsItemRow backs C7's news-item count; the core never interprets its
// content, only counts rows per market.
type NewsItemRow struct {
	ID        string `gorm:"primaryKey"`
	MarketID  string `gorm:"index"`
	Headline  string
	CreatedAt time.Time
}

// DeadLetterRow is a persistence job that failed all retries, kept for
// operator inspection and manual replay (spec §4.5 "terminal failure
// surfaces as a dead-letter entry and an operator alarm").
type DeadLetterRow struct {
	ID        uint `gorm:"primaryKey;autoIncrement"`
	MarketID  string
	Reason    string
	Attempts  int
	CreatedAt time.Time
}

// AutoMigrate creates/updates all C5 tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&OrderRow{},
		&TradeRow{},
		&MarketRow{},
		&PositionRow{},
		&NewsItemRow{},
		&DeadLetterRow{},
	)
}
