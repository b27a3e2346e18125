package engine

import "container/list"

// orderHandle is a non-owning lookup into the queue that owns an order:
// enough to splice it out of its PriceLevel in O(1) without scanning any
// side of the book. The Order itself is owned by the PriceLevel's list
// element; OrderIndex never holds the only reference to it.
type orderHandle struct {
	order *Order
	side  Side
	price Price
	elem  *list.Element
}

// OrderIndex maps OrderID to the handle needed to reach it in O(1). Every
// id present here is resting in exactly one PriceLevel queue on the
// matching side and price recorded in its handle; conversely every
// resting order is reachable through this map. OrderBook keeps both sides
// of that invariant in sync within a single mutating call, so no external
// observer ever sees them disagree.
type OrderIndex map[OrderID]*orderHandle

func (idx OrderIndex) lookup(id OrderID) (*orderHandle, bool) {
	h, ok := idx[id]
	return h, ok
}

func (idx OrderIndex) register(id OrderID, h *orderHandle) {
	idx[id] = h
}

func (idx OrderIndex) forget(id OrderID) {
	delete(idx, id)
}

// goodForDayIDs returns every id currently indexed whose order carries
// the GoodForDay policy, in map iteration order (unspecified order is
// acceptable per the session controller's contract: it just cancels all
// of them).
func (idx OrderIndex) goodForDayIDs() []OrderID {
	var ids []OrderID
	for id, h := range idx {
		if h.order.Type == GoodForDay {
			ids = append(ids, id)
		}
	}
	return ids
}
