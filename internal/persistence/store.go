package persistence

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/saiputravu/predictex/internal/domain"
	"github.com/saiputravu/predictex/internal/xdecimal"
)

// Store wraps a *gorm.DB with the C5 write path: idempotent order
// upsert, idempotent trade insert, and the volume increment that must
// ride in the same transaction so a retried job never double-counts
// (spec §4.5).
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// VolumeDelta is one market's worth of persisted trades from a single
// processOrder call (spec §4.5: "trades belong to one market").
type VolumeDelta struct {
	MarketID string
	Amount   xdecimal.Decimal
}

// PersistResult reports what actually changed, so the caller can decide
// whether a market-stats-changed event is warranted (spec §4.5 step 4:
// "one event per market with the new volume").
type PersistResult struct {
	TradesInserted int
	VolumeDeltas   []VolumeDelta
}

// PersistMatch upserts order and idempotently inserts trades, then
// atomically increments each affected market's volume by the notional
// of the rows it actually inserted (never a read-modify-write). All of
// this runs in one transaction so a retried job with the same trade ids
// is a no-op end to end.
func (s *Store) PersistMatch(order domain.Order, trades []domain.ExecutedTrade) (PersistResult, error) {
	var result PersistResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if order.ID != "" {
			if err := upsertOrder(tx, order); err != nil {
				return err
			}
		}

		byMarket := make(map[string]xdecimal.Decimal)
		for _, trd := range trades {
			row := toTradeRow(trd)
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue // already persisted by an earlier attempt; skip its volume contribution
			}
			result.TradesInserted++
			byMarket[trd.MarketID] = byMarket[trd.MarketID].Add(trd.Notional())
		}

		for marketID, amount := range byMarket {
			if !amount.IsPositive() {
				continue
			}
			if err := incrementVolume(tx, marketID, amount); err != nil {
				return err
			}
			result.VolumeDeltas = append(result.VolumeDeltas, VolumeDelta{MarketID: marketID, Amount: amount})
		}
		return nil
	})

	return result, err
}

func upsertOrder(tx *gorm.DB, o domain.Order) error {
	row := toOrderRow(o)
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"remaining_qty", "status", "updated_at"}),
	}).Create(&row).Error
}

// incrementVolume performs the SQL-level atomic increment spec §9
// requires ("a single SQL-level increment, not a read-modify-write").
func incrementVolume(tx *gorm.DB, marketID string, amount xdecimal.Decimal) error {
	return tx.Model(&MarketRow{}).
		Where("id = ?", marketID).
		UpdateColumn("volume", gorm.Expr("volume + ?", amount)).Error
}

func toOrderRow(o domain.Order) OrderRow {
	now := time.Now().UTC()
	row := OrderRow{
		ID:           o.ID,
		MarketID:     o.MarketID,
		OutcomeIndex: o.OutcomeIndex,
		Side:         o.Side.String(),
		Type:         o.Type.String(),
		Price:        o.Price,
		Quantity:     o.Quantity,
		RemainingQty: o.RemainingQty,
		Status:       o.Status.String(),
		UserID:       o.UserID,
		AgentID:      o.AgentID,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    now,
	}
	if o.Settlement != nil {
		row.SettlementKind = o.Settlement.Kind
		row.SettlementPayload = o.Settlement.Payload
	}
	return row
}

func toTradeRow(t domain.ExecutedTrade) TradeRow {
	return TradeRow{
		ID:           t.ID,
		MarketID:     t.MarketID,
		OutcomeIndex: t.OutcomeIndex,
		Price:        t.Price,
		Quantity:     t.Quantity,
		MakerOrderID: t.MakerOrderID,
		TakerOrderID: t.TakerOrderID,
		TakerSide:    t.TakerSide.String(),
		TakerOwner:   t.TakerOwner,
		MakerOwner:   t.MakerOwner,
		ExecutedAt:   t.ExecutedAt,
		CreatedAt:    time.Now().UTC(),
	}
}
