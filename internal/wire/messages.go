// Package wire is a framed binary message format for order submission
// and execution reports, adapted from the teacher's internal/net
// (messages.go/server.go): fixed-width integer headers followed by
// variable-length string fields, encoded big-endian. The teacher framed
// a single fixed `Equities` asset/ticker model with float64 price; this
// version frames the (marketID, outcomeIndex) model with decimal-string
// price/quantity fields, since float64 cannot carry the exact decimal
// values the rest of the system requires (spec §2 "no binary float").
//
// Encode/decode lives in this file; server.go pairs it with a minimal
// framed-TCP listener (Server) so the frames have somewhere to land —
// HTTP routing is out of scope (Non-goals), but this raw submission
// transport is the literal mapping of the teacher's net.Conn server.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/saiputravu/predictex/internal/domain"
	"github.com/saiputravu/predictex/internal/xdecimal"
)

// PeekType reads the leading message-type header without decoding the
// rest of the frame, so a listener can dispatch to the right Decode*
// call before committing to a type.
func PeekType(frame []byte) (MessageType, error) {
	if len(frame) < headerLen {
		return 0, ErrMessageTooShort
	}
	return MessageType(binary.BigEndian.Uint16(frame[0:2])), nil
}

func parseDecimalField(s string) (xdecimal.Decimal, error) {
	if s == "" {
		return xdecimal.Zero, nil
	}
	return xdecimal.Parse(s)
}

var (
	ErrInvalidMessageType = errors.New("wire: invalid message type")
	ErrMessageTooShort    = errors.New("wire: message shorter than its declared field lengths")
)

// MessageType identifies the frame's payload, mirroring the teacher's
// MessageType enum.
type MessageType uint16

const (
	NewOrderMessage MessageType = iota
	CancelOrderMessage
)

// ReportType identifies an outbound report frame.
type ReportType uint16

const (
	ExecutionReport ReportType = iota
	ErrorReport
)

const headerLen = 2 // MessageType, uint16

// EncodeNewOrder frames a new-order request. Layout:
//
//	u16 type | u8 side | u8 orderType | u16 outcomeIndex |
//	u16 marketIdLen | u16 priceLen | u16 qtyLen | u16 ownerLen |
//	marketId | price (decimal string, empty for MARKET) | qty | owner
func EncodeNewOrder(o domain.Order) []byte {
	priceStr := ""
	if o.Type == domain.Limit {
		priceStr = o.Price.String()
	}
	qtyStr := o.Quantity.String()

	buf := make([]byte, 0, headerLen+2+2+2+2+2+2+2+len(o.MarketID)+len(priceStr)+len(qtyStr)+len(o.Owner()))
	put16 := func(v uint16) { buf = binary.BigEndian.AppendUint16(buf, v) }

	put16(uint16(NewOrderMessage))
	buf = append(buf, byte(o.Side), byte(o.Type))
	put16(uint16(o.OutcomeIndex))
	put16(uint16(len(o.MarketID)))
	put16(uint16(len(priceStr)))
	put16(uint16(len(qtyStr)))
	put16(uint16(len(o.Owner())))
	buf = append(buf, o.MarketID...)
	buf = append(buf, priceStr...)
	buf = append(buf, qtyStr...)
	buf = append(buf, o.Owner()...)
	return buf
}

// DecodeNewOrder parses a frame produced by EncodeNewOrder into an
// Order ready for Dispatcher.Submit. It assigns a fresh order id, the
// way the teacher's NewOrderMessage.Order() does.
func DecodeNewOrder(msg []byte) (domain.Order, error) {
	const fixedLen = headerLen + 1 + 1 + 2 + 2 + 2 + 2 + 2
	if len(msg) < fixedLen {
		return domain.Order{}, ErrMessageTooShort
	}

	typeOf := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	if typeOf != NewOrderMessage {
		return domain.Order{}, ErrInvalidMessageType
	}

	side := domain.Side(msg[2])
	orderType := domain.OrderType(msg[3])
	outcomeIndex := int(binary.BigEndian.Uint16(msg[4:6]))
	marketIDLen := int(binary.BigEndian.Uint16(msg[6:8]))
	priceLen := int(binary.BigEndian.Uint16(msg[8:10]))
	qtyLen := int(binary.BigEndian.Uint16(msg[10:12]))
	ownerLen := int(binary.BigEndian.Uint16(msg[12:14]))

	total := fixedLen + marketIDLen + priceLen + qtyLen + ownerLen
	if len(msg) < total {
		return domain.Order{}, ErrMessageTooShort
	}

	offset := fixedLen
	marketID := string(msg[offset : offset+marketIDLen])
	offset += marketIDLen
	priceStr := string(msg[offset : offset+priceLen])
	offset += priceLen
	qtyStr := string(msg[offset : offset+qtyLen])
	offset += qtyLen
	owner := string(msg[offset : offset+ownerLen])

	qty, err := parseDecimalField(qtyStr)
	if err != nil {
		return domain.Order{}, fmt.Errorf("wire: invalid quantity: %w", err)
	}

	order := domain.Order{
		ID:           uuid.NewString(),
		MarketID:     marketID,
		OutcomeIndex: outcomeIndex,
		Side:         side,
		Type:         orderType,
		Quantity:     qty,
		RemainingQty: qty,
		UserID:       owner,
	}

	if orderType == domain.Limit {
		price, err := parseDecimalField(priceStr)
		if err != nil {
			return domain.Order{}, fmt.Errorf("wire: invalid price: %w", err)
		}
		order.Price = price
	}

	return order, nil
}

// EncodeCancelOrder frames a cancel request. Layout:
//
//	u16 type | u16 outcomeIndex | u16 marketIdLen | u16 orderIdLen | marketId | orderId
func EncodeCancelOrder(marketID string, outcomeIndex int, orderID string) []byte {
	buf := make([]byte, 0, headerLen+2+2+2+len(marketID)+len(orderID))
	buf = binary.BigEndian.AppendUint16(buf, uint16(CancelOrderMessage))
	buf = binary.BigEndian.AppendUint16(buf, uint16(outcomeIndex))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(marketID)))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(orderID)))
	buf = append(buf, marketID...)
	buf = append(buf, orderID...)
	return buf
}

// CancelOrderRequest is the decoded form of a cancel frame.
type CancelOrderRequest struct {
	MarketID     string
	OutcomeIndex int
	OrderID      string
}

func DecodeCancelOrder(msg []byte) (CancelOrderRequest, error) {
	const fixedLen = headerLen + 2 + 2 + 2
	if len(msg) < fixedLen {
		return CancelOrderRequest{}, ErrMessageTooShort
	}
	if MessageType(binary.BigEndian.Uint16(msg[0:2])) != CancelOrderMessage {
		return CancelOrderRequest{}, ErrInvalidMessageType
	}

	outcomeIndex := int(binary.BigEndian.Uint16(msg[2:4]))
	marketIDLen := int(binary.BigEndian.Uint16(msg[4:6]))
	orderIDLen := int(binary.BigEndian.Uint16(msg[6:8]))

	total := fixedLen + marketIDLen + orderIDLen
	if len(msg) < total {
		return CancelOrderRequest{}, ErrMessageTooShort
	}

	offset := fixedLen
	marketID := string(msg[offset : offset+marketIDLen])
	offset += marketIDLen
	orderID := string(msg[offset : offset+orderIDLen])

	return CancelOrderRequest{MarketID: marketID, OutcomeIndex: outcomeIndex, OrderID: orderID}, nil
}

// EncodeExecutionReport frames a fill or rejection notice for a single
// order, mirroring the teacher's Report/Serialize but keyed by
// marketID/outcomeIndex and carrying decimal-string price/quantity.
func EncodeExecutionReport(o domain.Order, counterpartyOwner string, errMsg string) []byte {
	priceStr := o.Price.String()
	qtyStr := o.Quantity.String()

	buf := make([]byte, 0, 64+len(o.MarketID)+len(o.ID)+len(counterpartyOwner)+len(errMsg))
	put16 := func(v uint16) { buf = binary.BigEndian.AppendUint16(buf, v) }

	put16(uint16(ExecutionReport))
	buf = append(buf, byte(o.Side), byte(o.Status))
	put16(uint16(o.OutcomeIndex))
	put16(uint16(len(o.MarketID)))
	put16(uint16(len(o.ID)))
	put16(uint16(len(priceStr)))
	put16(uint16(len(qtyStr)))
	put16(uint16(len(counterpartyOwner)))
	put16(uint16(len(errMsg)))
	buf = append(buf, o.MarketID...)
	buf = append(buf, o.ID...)
	buf = append(buf, priceStr...)
	buf = append(buf, qtyStr...)
	buf = append(buf, counterpartyOwner...)
	buf = append(buf, errMsg...)
	return buf
}
