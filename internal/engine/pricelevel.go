package engine

import "container/list"

// PriceLevel is the FIFO queue of resting orders at one price on one side.
// It is backed by a doubly linked list rather than a slice so that a
// handle captured at insertion time (see orderHandle in orderindex.go)
// can splice its order out again in O(1), without shifting anything else
// in the queue — the same shape as the original engine's std::list-based
// level, ported to Go's container/list. List order equals acceptance
// order: the head is always the earliest still-resting order at this
// price (time priority). No empty PriceLevel may exist in a SideBook —
// callers are responsible for deleting a level once it drains.
type PriceLevel struct {
	Price  Price
	orders *list.List
}

func newPriceLevel(price Price) *PriceLevel {
	return &PriceLevel{Price: price, orders: list.New()}
}

// Append adds an order to the tail of the queue in O(1) and returns the
// list element backing it, which the caller stores in the OrderIndex
// handle for later O(1) removal.
func (l *PriceLevel) Append(o *Order) *list.Element {
	return l.orders.PushBack(o)
}

// Peek returns the head of the queue without mutating it.
func (l *PriceLevel) Peek() (*Order, bool) {
	front := l.orders.Front()
	if front == nil {
		return nil, false
	}
	return front.Value.(*Order), true
}

// Empty reports whether the level has no resting orders left.
func (l *PriceLevel) Empty() bool {
	return l.orders.Len() == 0
}

// removeElem splices elem out of the queue in O(1).
func (l *PriceLevel) removeElem(elem *list.Element) {
	l.orders.Remove(elem)
}

// popHeadIfFilled removes the head order if it has no remaining quantity.
// Used by the matching loop after each fill.
func (l *PriceLevel) popHeadIfFilled() {
	front := l.orders.Front()
	if front != nil && front.Value.(*Order).Remaining == 0 {
		l.orders.Remove(front)
	}
}

// VisibleQuantity sums Remaining across the whole queue. It is computed
// on demand rather than cached: callers asking for deep snapshots pay
// O(level size), and no other code path needs a running total, so there
// is no shadow total to let drift out of sync.
func (l *PriceLevel) VisibleQuantity() Quantity {
	var total Quantity
	for e := l.orders.Front(); e != nil; e = e.Next() {
		total += e.Value.(*Order).Remaining
	}
	return total
}

// Orders returns the resting orders from head to tail. Used by tests
// (snapshots use VisibleQuantity instead); it allocates a fresh slice so callers cannot mutate the
// level's internal list through it.
func (l *PriceLevel) Orders() []*Order {
	out := make([]*Order, 0, l.orders.Len())
	for e := l.orders.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*Order))
	}
	return out
}
