package engine

import "time"

// Order is the engine's mutable resting-order record. Only the matching
// engine mutates Remaining/Status/Price once an Order has been constructed;
// everything else in the system observes it through the read-only views
// returned by snapshots and trades.
type Order struct {
	ID        OrderID
	Side      Side
	Type      OrderType
	Price     Price
	Initial   Quantity
	Remaining Quantity
	Status    OrderStatus

	// Owner and Timestamp are ambient passthrough metadata: the matching
	// loop never reads them. Owner lets a front-end route execution
	// reports back to the submitting session; Timestamp records arrival
	// time for audit/logging. Both are optional.
	Owner     string
	Timestamp time.Time
}

// NewOrder validates and constructs an Order. This is the only
// constructor external callers should use — it is the boundary at which
// ErrInvalidOrder is raised, so a malformed order never reaches a book.
func NewOrder(id OrderID, side Side, typ OrderType, price Price, qty Quantity) (Order, error) {
	if qty == 0 {
		return Order{}, ErrInvalidOrder
	}
	if typ != Market && price <= 0 {
		return Order{}, ErrInvalidOrder
	}
	return Order{
		ID:        id,
		Side:      side,
		Type:      typ,
		Price:     price,
		Initial:   qty,
		Remaining: qty,
		Status:    New,
	}, nil
}

// Filled returns the quantity already matched away.
func (o Order) Filled() Quantity {
	return o.Initial - o.Remaining
}

// fill decrements Remaining by q and advances Status. It panics with
// ErrOverfill if q exceeds Remaining: that can only happen if the
// matching loop computed an impossible fill quantity, which is an engine
// bug, not a user error.
func (o *Order) fill(q Quantity) {
	if q > o.Remaining {
		panic(ErrOverfill{ID: o.ID, Remaining: o.Remaining, Requested: q})
	}
	o.Remaining -= q
	if o.Remaining == 0 {
		o.Status = Filled
	} else {
		o.Status = PartiallyFilled
	}
}

// cancel marks the order Cancelled. Called only by the book once the
// order has already been spliced out of its PriceLevel queue.
func (o *Order) cancel() {
	o.Status = Cancelled
}

// promoteToLimit assigns price to a Market order and retypes it to
// GoodTillCancel for the duration of matching. It is only ever called
// from Submit on a freshly-constructed Market order and panics on misuse,
// since calling it on anything else is an engine bug, not a runtime
// condition a caller can trigger.
func (o *Order) promoteToLimit(price Price) {
	if o.Type != Market {
		panic("engine: promoteToLimit called on a non-Market order")
	}
	o.Price = price
	o.Type = GoodTillCancel
}
