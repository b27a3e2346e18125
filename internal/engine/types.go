package engine

import (
	"errors"
	"math"
)

// OrderID is the externally assigned, unique identity of an order. Callers
// (the ingestion edge) are responsible for uniqueness; the engine only
// rejects a submission whose id already rests in the book.
type OrderID string

// Price is expressed in integer ticks. Ticks are the unit of quote for
// whatever instrument an OrderBook was constructed for; the engine never
// interprets tick size or currency.
type Price int64

// Quantity is unsigned; zero is never a valid quantity on input.
type Quantity uint64

// Sentinel prices a Market order is promoted to for the duration of
// matching: a market buy crosses every resting ask, a market sell crosses
// every resting bid.
const (
	marketBuySentinel  Price = math.MaxInt64
	marketSellSentinel Price = 0
)

// AssetType distinguishes the instrument an OrderBook was built for. The
// core OrderBook itself is single-instrument; AssetType exists only so the
// ambient Engine router (engine.go) can multiplex several OrderBooks.
type AssetType int

const (
	Equities AssetType = iota
)

// Side identifies which side of the book an order rests on.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "Buy"
	}
	return "Sell"
}

// OrderType selects the policy applied when an order is submitted.
type OrderType int

const (
	// GoodTillCancel rests indefinitely until explicitly cancelled.
	GoodTillCancel OrderType = iota
	// FillAndKill executes immediately against available liquidity; any
	// residual quantity is cancelled rather than left resting.
	FillAndKill
	// FillOrKill executes fully immediately or is rejected entirely
	// without resting.
	FillOrKill
	// GoodForDay rests until externally expired at session close.
	GoodForDay
	// Market executes against any available liquidity at any price and
	// never rests.
	Market
)

// OrderStatus tracks an order's position in its lifecycle.
type OrderStatus int

const (
	New OrderStatus = iota
	PartiallyFilled
	Filled
	Cancelled
)

var (
	// ErrInvalidOrder is returned by NewOrder for a non-positive quantity
	// or a non-positive price on a non-Market order. It never reaches the
	// book: validation happens at construction.
	ErrInvalidOrder = errors.New("engine: invalid order")

	// ErrUnknownAsset is returned by Engine when asked to route an
	// operation to an AssetType it was not constructed with.
	ErrUnknownAsset = errors.New("engine: unknown asset type")
)

// ErrOverfill indicates a violated matching invariant: an attempt to fill
// an order for more than its remaining quantity. This can only happen if
// the matching loop itself is broken, so Order.fill raises it via panic
// rather than returning it as a soft error.
type ErrOverfill struct {
	ID        OrderID
	Remaining Quantity
	Requested Quantity
}

func (e ErrOverfill) Error() string {
	return "engine: overfill of order " + string(e.ID)
}
