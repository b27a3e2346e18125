package engine

import "time"

// TradeLeg is one side's view of a trade: the order that participated,
// the price at which its side of the book was resting, and the matched
// quantity.
type TradeLeg struct {
	OrderID  OrderID
	Price    Price
	Quantity Quantity
}

// Trade pairs the bid-side and ask-side legs of a single match. The two
// legs share Quantity but may carry different Price values: each leg
// records the price its own order was resting at, and because the
// earlier-resting order sets the book's quote while the aggressor merely
// has to cross it, an aggressor with a strictly better limit produces two
// different leg prices. This is intentional, not a bug.
type Trade struct {
	BidLeg    TradeLeg
	AskLeg    TradeLeg
	Timestamp time.Time
}

// Clock produces the instant used to stamp trades. It is a pure
// collaborator: nothing about matching correctness depends on it, so
// tests can supply a fixed clock without affecting outcomes.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock, backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
