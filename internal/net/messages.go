package net

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"matchbook/internal/engine"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short for specified username length")
)

type MessageType uint16

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
	ModifyOrder
	LogBook
)

type ReportMessageType uint8

const (
	ExecutionReport ReportMessageType = iota
	ErrorReport
)

type Message interface {
	GetType() MessageType
}

// Message format constants. Each per-message header length covers only
// the fixed body after the 2-byte BaseMessageHeaderLen; senders add
// BaseMessageHeaderLen on top of it.
const (
	BaseMessageHeaderLen        = 2
	NewOrderMessageHeaderLen    = 2 + 2 + 8 + 8 + 1 + 1
	CancelOrderMessageHeaderLen = 2 + 16
	ModifyOrderMessageHeaderLen = 2 + 16 + 8 + 8
)

// BaseMessage is the common header every wire message starts with.
type BaseMessage struct {
	TypeOf MessageType
}

func (m BaseMessage) GetType() MessageType { return m.TypeOf }

func parseMessage(msg []byte) (Message, error) {
	if len(msg) < BaseMessageHeaderLen {
		return nil, errors.New("message too short to contain header")
	}

	typeOf := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	body := msg[2:]
	switch typeOf {
	case NewOrder:
		return parseNewOrder(body)
	case CancelOrder:
		return parseCancelOrder(body)
	case ModifyOrder:
		return parseModifyOrder(body)
	case LogBook:
		return BaseMessage{TypeOf: LogBook}, nil
	default:
		return nil, ErrInvalidMessageType
	}
}

// NewOrderMessage carries a new order onto the wire. AssetType is
// presently always engine.Equities; the field is kept so the front-end
// can grow additional instruments without a wire format change.
type NewOrderMessage struct {
	BaseMessage
	AssetType   engine.AssetType // 2 bytes
	OrderType   engine.OrderType // 2 bytes
	Price       int64            // 8 bytes, engine.Price ticks
	Quantity    uint64           // 8 bytes
	Side        engine.Side      // 1 byte
	UsernameLen uint8            // 1 byte
	Username    string           // n bytes
}

// Order converts the wire message into an engine.Order, minting a fresh
// id at the wire boundary the way SPEC_FULL.md §6 describes — ids never
// come from the client, only from the server accepting the submission.
func (m NewOrderMessage) Order() (engine.Order, error) {
	id := engine.OrderID(uuid.New().String())
	order, err := engine.NewOrder(id, m.Side, m.OrderType, engine.Price(m.Price), engine.Quantity(m.Quantity))
	if err != nil {
		return engine.Order{}, err
	}
	order.Owner = m.Username
	return order, nil
}

func parseNewOrder(msg []byte) (NewOrderMessage, error) {
	const fixedLen = 2 + 2 + 8 + 8 + 1 + 1
	if len(msg) < fixedLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}

	m := NewOrderMessage{BaseMessage: BaseMessage{TypeOf: NewOrder}}
	m.AssetType = engine.AssetType(binary.BigEndian.Uint16(msg[0:2]))
	m.OrderType = engine.OrderType(binary.BigEndian.Uint16(msg[2:4]))
	m.Price = int64(binary.BigEndian.Uint64(msg[4:12]))
	m.Quantity = binary.BigEndian.Uint64(msg[12:20])
	m.Side = engine.Side(msg[20])
	m.UsernameLen = uint8(msg[21])

	expectedTotalLen := fixedLen + int(m.UsernameLen)
	if len(msg) < expectedTotalLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	m.Username = string(msg[22 : 22+m.UsernameLen])

	return m, nil
}

// CancelOrderMessage requests cancellation of a resting order.
type CancelOrderMessage struct {
	BaseMessage
	AssetType engine.AssetType // 2 bytes
	OrderID   engine.OrderID   // 16 bytes, zero-padded/truncated uuid text
}

func parseCancelOrder(msg []byte) (CancelOrderMessage, error) {
	const fixedLen = 2 + 16
	if len(msg) < fixedLen {
		return CancelOrderMessage{}, ErrMessageTooShort
	}
	m := CancelOrderMessage{BaseMessage: BaseMessage{TypeOf: CancelOrder}}
	m.AssetType = engine.AssetType(binary.BigEndian.Uint16(msg[0:2]))
	m.OrderID = engine.OrderID(msg[2:18])
	return m, nil
}

// ModifyOrderMessage requests replacing a resting order's price and
// quantity in place, losing time priority (engine.OrderBook.Modify).
// The teacher's draft wire protocol never defined this message;
// SPEC_FULL.md §10 adds it so the reference client can exercise
// OrderBook.Modify end to end.
type ModifyOrderMessage struct {
	BaseMessage
	AssetType   engine.AssetType // 2 bytes
	OrderID     engine.OrderID   // 16 bytes
	NewPrice    int64            // 8 bytes
	NewQuantity uint64           // 8 bytes
}

func parseModifyOrder(msg []byte) (ModifyOrderMessage, error) {
	const fixedLen = 2 + 16 + 8 + 8
	if len(msg) < fixedLen {
		return ModifyOrderMessage{}, ErrMessageTooShort
	}
	m := ModifyOrderMessage{BaseMessage: BaseMessage{TypeOf: ModifyOrder}}
	m.AssetType = engine.AssetType(binary.BigEndian.Uint16(msg[0:2]))
	m.OrderID = engine.OrderID(msg[2:18])
	m.NewPrice = int64(binary.BigEndian.Uint64(msg[18:26]))
	m.NewQuantity = binary.BigEndian.Uint64(msg[26:34])
	return m, nil
}

// Report is a server-to-client execution or error notification.
type Report struct {
	MessageType     ReportMessageType // 1 byte
	AssetType       engine.AssetType  // 1 byte
	Side            engine.Side       // 1 byte
	Timestamp       uint64            // 8 bytes
	Quantity        uint64            // 8 bytes
	Price           int64             // 8 bytes
	CounterpartyLen uint16            // 2 bytes
	ErrStrLen       uint32            // 4 bytes
	OrderID         string            // 16 bytes, zero-padded/truncated
	Err             string            // n bytes
	Counterparty    string            // n bytes
}

const reportFixedHeaderLen = 1 + 1 + 1 + 8 + 8 + 8 + 2 + 4 + 16

// Serialize converts the report to be sent on the wire.
func (r *Report) Serialize() ([]byte, error) {
	totalSize := reportFixedHeaderLen + len(r.Err) + len(r.Counterparty)

	buf := make([]byte, totalSize)
	buf[0] = byte(r.MessageType)
	buf[1] = byte(r.AssetType)
	buf[2] = byte(r.Side)
	binary.BigEndian.PutUint64(buf[3:11], r.Timestamp)
	binary.BigEndian.PutUint64(buf[11:19], r.Quantity)
	binary.BigEndian.PutUint64(buf[19:27], uint64(r.Price))
	binary.BigEndian.PutUint16(buf[27:29], r.CounterpartyLen)
	binary.BigEndian.PutUint32(buf[29:33], r.ErrStrLen)

	idBuf := make([]byte, 16)
	copy(idBuf, r.OrderID)
	copy(buf[33:49], idBuf)

	offset := reportFixedHeaderLen
	if r.ErrStrLen > 0 {
		copy(buf[offset:], r.Err)
	}
	offset += int(r.ErrStrLen)
	if r.CounterpartyLen > 0 {
		copy(buf[offset:], r.Counterparty)
	}
	return buf, nil
}

// tradeLegReport builds the Report addressed to one side of a trade.
func tradeLegReport(assetType engine.AssetType, leg, counterLeg engine.TradeLeg, side engine.Side, ts time.Time, counterparty string) Report {
	return Report{
		MessageType:     ExecutionReport,
		AssetType:       assetType,
		Side:            side,
		Timestamp:       uint64(ts.Unix()),
		Quantity:        uint64(leg.Quantity),
		Price:           int64(leg.Price),
		CounterpartyLen: uint16(len(counterparty)),
		OrderID:         string(leg.OrderID),
		Counterparty:    counterparty,
	}
}

// generateWireTradeReports builds the pair of execution reports for a
// trade, one addressed to each side's owner.
func generateWireTradeReports(assetType engine.AssetType, trade engine.Trade, bidOwner, askOwner string) ([]byte, []byte, error) {
	bidReport := tradeLegReport(assetType, trade.BidLeg, trade.AskLeg, engine.Buy, trade.Timestamp, askOwner)
	askReport := tradeLegReport(assetType, trade.AskLeg, trade.BidLeg, engine.Sell, trade.Timestamp, bidOwner)

	b1, err := bidReport.Serialize()
	if err != nil {
		return nil, nil, err
	}
	b2, err := askReport.Serialize()
	if err != nil {
		return nil, nil, err
	}
	return b1, b2, nil
}

func generateWireErrorReport(err error) ([]byte, error) {
	errStr := fmt.Sprintf("%v", err)
	report := Report{
		MessageType: ErrorReport,
		Timestamp:   uint64(time.Now().UnixNano()),
		ErrStrLen:   uint32(len(errStr)),
		Err:         errStr,
	}
	return report.Serialize()
}
