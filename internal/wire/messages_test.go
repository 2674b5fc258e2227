package wire

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiputravu/predictex/internal/domain"
	"github.com/saiputravu/predictex/internal/xdecimal"
)

func TestEncodeDecodeNewOrder_Limit(t *testing.T) {
	in := domain.Order{
		MarketID:     "mkt-1",
		OutcomeIndex: 2,
		Side:         domain.Bid,
		Type:         domain.Limit,
		Price:        xdecimal.MustParse("0.42"),
		Quantity:     xdecimal.MustParse("15.5"),
		UserID:       "alice",
	}

	frame := EncodeNewOrder(in)
	out, err := DecodeNewOrder(frame)
	require.NoError(t, err)

	assert.Equal(t, in.MarketID, out.MarketID)
	assert.Equal(t, in.OutcomeIndex, out.OutcomeIndex)
	assert.Equal(t, in.Side, out.Side)
	assert.Equal(t, in.Type, out.Type)
	assert.True(t, in.Price.Equal(out.Price))
	assert.True(t, in.Quantity.Equal(out.Quantity))
	assert.Equal(t, in.UserID, out.UserID)
	assert.NotEmpty(t, out.ID)
}

func TestEncodeDecodeNewOrder_MarketHasNoPrice(t *testing.T) {
	in := domain.Order{
		MarketID:     "mkt-2",
		OutcomeIndex: 0,
		Side:         domain.Ask,
		Type:         domain.Market,
		Quantity:     xdecimal.MustParse("3"),
		UserID:       "bob",
	}

	out, err := DecodeNewOrder(EncodeNewOrder(in))
	require.NoError(t, err)
	assert.True(t, out.Price.IsZero())
}

func TestDecodeNewOrder_TooShortFrame(t *testing.T) {
	_, err := DecodeNewOrder([]byte{0, 0, 1})
	assert.ErrorIs(t, err, ErrMessageTooShort)
}

func TestDecodeNewOrder_WrongMessageType(t *testing.T) {
	frame := EncodeCancelOrder("mkt-1", 0, "order-1")
	_, err := DecodeNewOrder(frame)
	assert.ErrorIs(t, err, ErrInvalidMessageType)
}

func TestEncodeDecodeCancelOrder(t *testing.T) {
	frame := EncodeCancelOrder("mkt-3", 1, "order-abc")
	out, err := DecodeCancelOrder(frame)
	require.NoError(t, err)
	assert.Equal(t, "mkt-3", out.MarketID)
	assert.Equal(t, 1, out.OutcomeIndex)
	assert.Equal(t, "order-abc", out.OrderID)
}

func TestEncodeExecutionReport_RoundTripsThroughLength(t *testing.T) {
	o := domain.Order{
		ID: "ord-1", MarketID: "mkt-1", OutcomeIndex: 0,
		Side: domain.Bid, Status: domain.Filled,
		Price: xdecimal.MustParse("0.6"), Quantity: xdecimal.MustParse("10"),
	}
	frame := EncodeExecutionReport(o, "bob", "")
	assert.NotEmpty(t, frame)
	assert.Equal(t, uint16(ExecutionReport), binary.BigEndian.Uint16(frame[0:2]))
}
