package engine

// OrderBook is the core of the engine: a two-sided, price-time priority
// book for a single instrument. It is the only exported type that
// mutates matching state, and every mutating method — Submit, Cancel,
// Modify — runs to completion before returning: there is no suspension
// point inside any of them, so a caller observing the book before and
// after a call never sees a partial mutation (see the engine's
// concurrency notes; serialization across goroutines is the caller's
// responsibility, e.g. funneling calls through one session-handler
// goroutine the way internal/net does).
type OrderBook struct {
	bids  *SideBook
	asks  *SideBook
	index OrderIndex
	clock Clock

	// onTrade, if set, is invoked once per trade produced by a Submit or
	// Modify call in generation order, from inside the matching loop right
	// after both orders have been filled and before any filled order is
	// popped from its level or any emptied level is deleted, so the book
	// is still mid-update while it runs. It exists purely so the ambient Engine
	// router (engine.go) can forward trades to a reporter without the
	// core OrderBook depending on anything outside this package; matching
	// correctness never depends on it running.
	onTrade func(Trade)
}

// LevelView is the read-only snapshot of one price level: its price and
// the total remaining quantity resting there.
type LevelView struct {
	Price    Price
	Quantity Quantity
}

// NewOrderBook constructs an empty book. A nil clock defaults to
// SystemClock.
func NewOrderBook(clock Clock) *OrderBook {
	if clock == nil {
		clock = SystemClock{}
	}
	return &OrderBook{
		bids:  newBidSideBook(),
		asks:  newAskSideBook(),
		index: make(OrderIndex),
		clock: clock,
	}
}

// sideBook returns the SideBook an order of the given side rests on.
func (book *OrderBook) sideBook(side Side) *SideBook {
	if side == Buy {
		return book.bids
	}
	return book.asks
}

// oppositeSideBook returns the SideBook on the other side of the market
// from side — the side a resting order of side crosses against.
func (book *OrderBook) oppositeSideBook(side Side) *SideBook {
	if side == Buy {
		return book.asks
	}
	return book.bids
}

// Submit accepts a new order. See SPEC_FULL.md §4.4 for the full policy;
// in short:
//   - a duplicate id is a silent no-op (nil, nil)
//   - FillOrKill is rejected without mutating the book unless it can be
//     fully satisfied immediately
//   - Market orders are promoted to a sentinel-priced GoodTillCancel for
//     the duration of matching and never rest
//   - FillAndKill residual after matching is cancelled, not left resting
//
// Returned trades are in the order they were generated.
func (book *OrderBook) Submit(order Order) ([]Trade, error) {
	if _, exists := book.index.lookup(order.ID); exists {
		return nil, nil
	}

	if order.Type == FillOrKill {
		if !book.canFullyFill(order) {
			return nil, nil
		}
	}

	if order.Type == Market {
		if order.Side == Buy {
			order.promoteToLimit(marketBuySentinel)
		} else {
			order.promoteToLimit(marketSellSentinel)
		}
		trades := book.restAndMatch(order, true)
		return trades, nil
	}

	trades := book.restAndMatch(order, false)
	return trades, nil
}

// canFullyFill reports whether the opposite side of the book can satisfy
// order.Remaining entirely at prices acceptable to order, without
// mutating anything. It is the FillOrKill pre-check: only once this
// returns true does Submit run the real matching loop.
func (book *OrderBook) canFullyFill(order Order) bool {
	opposite := book.oppositeSideBook(order.Side)
	var available Quantity
	for _, lvl := range opposite.Items() {
		if order.Side == Buy && lvl.Price > order.Price {
			break
		}
		if order.Side == Sell && lvl.Price < order.Price {
			break
		}
		available += lvl.VisibleQuantity()
		if available >= order.Remaining {
			return true
		}
	}
	return false
}

// restAndMatch appends order to the tail of its destination level,
// registers it in the index, and runs the matching loop. If neverRest is
// true (Market orders), any quantity left over once matching stops is
// discarded rather than left resting.
func (book *OrderBook) restAndMatch(order Order, neverRest bool) []Trade {
	resting := order
	side := book.sideBook(resting.Side)
	lvl := side.Level(resting.Price)
	elem := lvl.Append(&resting)
	book.index.register(resting.ID, &orderHandle{
		order: &resting,
		side:  resting.Side,
		price: resting.Price,
		elem:  elem,
	})

	trades := book.match()

	if neverRest {
		book.removeResidual(resting.ID)
	} else if resting.Type == FillAndKill {
		book.cancelIfResting(resting.ID)
	}

	return trades
}

// removeResidual drops id from the book unconditionally if it is still
// resting, without flipping it through Cancelled — used for Market
// orders, which the spec defines as never resting at all rather than
// resting-then-cancelled.
func (book *OrderBook) removeResidual(id OrderID) {
	h, ok := book.index.lookup(id)
	if !ok {
		return
	}
	lvl := book.sideBook(h.side).Level(h.price)
	lvl.removeElem(h.elem)
	if lvl.Empty() {
		book.sideBook(h.side).Delete(h.price)
	}
	book.index.forget(id)
}

// cancelIfResting cancels id if it is still present in the book, marking
// it Cancelled. Used for FillAndKill residuals.
func (book *OrderBook) cancelIfResting(id OrderID) {
	h, ok := book.index.lookup(id)
	if !ok {
		return
	}
	h.order.cancel()
	book.removeResidual(id)
}

// match runs the cross-and-fill loop until a side empties or the book no
// longer crosses. The outer loop picks the current best bid/ask level
// pair; the inner loop drains pairs within that pair until one side's
// level empties, at which point the outer loop re-reads Best() (which
// now reflects the next price level, since an emptied level is deleted
// immediately). See SPEC_FULL.md §4.4 for the full contract.
//
// A FillAndKill order's own residual is not cancelled in here: it can
// only ever be the order that triggered this Submit (a FillAndKill order
// never survives past the Submit call that created it, so none can be
// sitting pre-existing at a level head), and restAndMatch cancels it once
// match returns. Cancelling it mid-loop instead would stop a FillAndKill
// aggressor from sweeping a second price level after the first one
// drains, which the aggressor is otherwise entitled to do.
func (book *OrderBook) match() []Trade {
	var trades []Trade

	for {
		bestBid, bidOK := book.bids.Best()
		bestAsk, askOK := book.asks.Best()
		if !bidOK || !askOK || bestBid.Price < bestAsk.Price {
			break
		}

		for !bestBid.Empty() && !bestAsk.Empty() {
			b, _ := bestBid.Peek()
			a, _ := bestAsk.Peek()

			qty := min(b.Remaining, a.Remaining)
			b.fill(qty)
			a.fill(qty)

			trade := Trade{
				BidLeg:    TradeLeg{OrderID: b.ID, Price: bestBid.Price, Quantity: qty},
				AskLeg:    TradeLeg{OrderID: a.ID, Price: bestAsk.Price, Quantity: qty},
				Timestamp: book.clock.Now(),
			}
			trades = append(trades, trade)
			if book.onTrade != nil {
				book.onTrade(trade)
			}

			if b.Remaining == 0 {
				book.index.forget(b.ID)
				bestBid.popHeadIfFilled()
			}
			if a.Remaining == 0 {
				book.index.forget(a.ID)
				bestAsk.popHeadIfFilled()
			}
		}

		if bestBid.Empty() {
			book.bids.Delete(bestBid.Price)
		}
		if bestAsk.Empty() {
			book.asks.Delete(bestAsk.Price)
		}
	}

	return trades
}

// Cancel removes id from the book if present. Unknown ids are a silent
// no-op. Cancel never produces trades.
func (book *OrderBook) Cancel(id OrderID) error {
	h, ok := book.index.lookup(id)
	if !ok {
		return nil
	}
	h.order.cancel()
	book.removeResidual(id)
	return nil
}

// Modify cancels the resting order at id, if any, and resubmits it with
// newPrice and newQuantity, preserving id, side, and type but losing time
// priority (it rejoins its destination level's tail). An unknown id
// yields empty trades.
func (book *OrderBook) Modify(id OrderID, newPrice Price, newQuantity Quantity) ([]Trade, error) {
	h, ok := book.index.lookup(id)
	if !ok {
		return nil, nil
	}
	side := h.order.Side
	typ := h.order.Type
	owner := h.order.Owner

	if err := book.Cancel(id); err != nil {
		return nil, err
	}

	replacement, err := NewOrder(id, side, typ, newPrice, newQuantity)
	if err != nil {
		return nil, err
	}
	replacement.Owner = owner

	return book.Submit(replacement)
}

// SnapshotBids returns up to n bid levels from best (highest) outward.
func (book *OrderBook) SnapshotBids(n int) []LevelView {
	return snapshot(book.bids, n)
}

// SnapshotAsks returns up to n ask levels from best (lowest) outward.
func (book *OrderBook) SnapshotAsks(n int) []LevelView {
	return snapshot(book.asks, n)
}

func snapshot(side *SideBook, n int) []LevelView {
	items := side.Items()
	if n < len(items) {
		items = items[:n]
	}
	views := make([]LevelView, len(items))
	for i, lvl := range items {
		views[i] = LevelView{Price: lvl.Price, Quantity: lvl.VisibleQuantity()}
	}
	return views
}

// GoodForDayIDs returns every currently-resting id whose order carries
// the GoodForDay policy. The session controller collaborator (§6) calls
// this at session close and then Cancels each id; the engine itself
// never expires a GoodForDay order on its own.
func (book *OrderBook) GoodForDayIDs() []OrderID {
	return book.index.goodForDayIDs()
}
