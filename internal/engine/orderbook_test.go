package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a deterministic Clock collaborator for tests that care
// about Trade.Timestamp without depending on wall-clock time.
type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

func newTestBook() *OrderBook {
	return NewOrderBook(fakeClock{now: time.Unix(0, 0)})
}

func mustOrder(t *testing.T, id OrderID, side Side, typ OrderType, price Price, qty Quantity) Order {
	t.Helper()
	o, err := NewOrder(id, side, typ, price, qty)
	require.NoError(t, err)
	return o
}

// --- §8 scenario 1: simple full cross -------------------------------------

func TestSubmit_SimpleFullCross(t *testing.T) {
	book := newTestBook()

	_, err := book.Submit(mustOrder(t, "1", Buy, GoodTillCancel, 100, 10))
	require.NoError(t, err)

	trades, err := book.Submit(mustOrder(t, "2", Sell, GoodTillCancel, 100, 10))
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.Equal(t, TradeLeg{OrderID: "1", Price: 100, Quantity: 10}, trades[0].BidLeg)
	assert.Equal(t, TradeLeg{OrderID: "2", Price: 100, Quantity: 10}, trades[0].AskLeg)

	assert.Empty(t, book.SnapshotBids(10))
	assert.Empty(t, book.SnapshotAsks(10))
}

// --- §8 scenario 2: partial fill leaves residual on the passive side ------

func TestSubmit_PartialFillLeavesResidual(t *testing.T) {
	book := newTestBook()

	_, err := book.Submit(mustOrder(t, "1", Buy, GoodTillCancel, 100, 10))
	require.NoError(t, err)
	_, err = book.Submit(mustOrder(t, "2", Buy, GoodTillCancel, 100, 5))
	require.NoError(t, err)

	trades, err := book.Submit(mustOrder(t, "3", Sell, GoodTillCancel, 100, 12))
	require.NoError(t, err)

	require.Len(t, trades, 2)
	assert.Equal(t, TradeLeg{OrderID: "1", Price: 100, Quantity: 10}, trades[0].BidLeg)
	assert.Equal(t, TradeLeg{OrderID: "3", Price: 100, Quantity: 10}, trades[0].AskLeg)
	assert.Equal(t, TradeLeg{OrderID: "2", Price: 100, Quantity: 2}, trades[1].BidLeg)
	assert.Equal(t, TradeLeg{OrderID: "3", Price: 100, Quantity: 2}, trades[1].AskLeg)

	bids := book.SnapshotBids(10)
	require.Len(t, bids, 1)
	assert.Equal(t, LevelView{Price: 100, Quantity: 3}, bids[0])
	assert.Empty(t, book.SnapshotAsks(10))
}

// --- §8 scenario 3: FillAndKill sweeps two levels then kills residual -----

func TestSubmit_FillAndKillSweepsAndKillsResidual(t *testing.T) {
	book := newTestBook()

	_, err := book.Submit(mustOrder(t, "1", Sell, GoodTillCancel, 101, 5))
	require.NoError(t, err)
	_, err = book.Submit(mustOrder(t, "2", Sell, GoodTillCancel, 102, 5))
	require.NoError(t, err)

	trades, err := book.Submit(mustOrder(t, "3", Buy, FillAndKill, 103, 8))
	require.NoError(t, err)

	require.Len(t, trades, 2)
	assert.Equal(t, TradeLeg{OrderID: "3", Price: 103, Quantity: 5}, trades[0].BidLeg)
	assert.Equal(t, TradeLeg{OrderID: "1", Price: 101, Quantity: 5}, trades[0].AskLeg)
	assert.Equal(t, TradeLeg{OrderID: "3", Price: 103, Quantity: 3}, trades[1].BidLeg)
	assert.Equal(t, TradeLeg{OrderID: "2", Price: 102, Quantity: 3}, trades[1].AskLeg)

	asks := book.SnapshotAsks(10)
	require.Len(t, asks, 1)
	assert.Equal(t, LevelView{Price: 102, Quantity: 2}, asks[0])

	_, stillResting := book.index.lookup("3")
	assert.False(t, stillResting, "FillAndKill order must not rest after Submit returns")
}

// --- §8 scenario 4: FillOrKill atomicity -----------------------------------

func TestSubmit_FillOrKillRejectedLeavesBookUnchanged(t *testing.T) {
	book := newTestBook()

	_, err := book.Submit(mustOrder(t, "1", Sell, GoodTillCancel, 100, 5))
	require.NoError(t, err)
	_, err = book.Submit(mustOrder(t, "2", Sell, GoodTillCancel, 101, 5))
	require.NoError(t, err)

	before := append([]LevelView{}, book.SnapshotAsks(10)...)

	trades, err := book.Submit(mustOrder(t, "3", Buy, FillOrKill, 101, 11))
	require.NoError(t, err)
	assert.Empty(t, trades)

	after := book.SnapshotAsks(10)
	assert.Equal(t, before, after)

	_, ok := book.index.lookup("3")
	assert.False(t, ok, "a rejected FillOrKill must not rest")
}

func TestSubmit_FillOrKillAcceptedWhenFullyAchievable(t *testing.T) {
	book := newTestBook()

	_, err := book.Submit(mustOrder(t, "1", Sell, GoodTillCancel, 100, 5))
	require.NoError(t, err)
	_, err = book.Submit(mustOrder(t, "2", Sell, GoodTillCancel, 101, 5))
	require.NoError(t, err)

	trades, err := book.Submit(mustOrder(t, "3", Buy, FillOrKill, 101, 10))
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Empty(t, book.SnapshotAsks(10))
}

// --- §8 scenario 5: cancel ---------------------------------------------

func TestCancel_KnownAndUnknown(t *testing.T) {
	book := newTestBook()

	_, err := book.Submit(mustOrder(t, "1", Buy, GoodTillCancel, 100, 10))
	require.NoError(t, err)

	require.NoError(t, book.Cancel("1"))
	assert.Empty(t, book.SnapshotBids(10))

	require.NoError(t, book.Cancel("99"))
}

// --- §8 scenario 6: modify loses time priority --------------------------

func TestModify_LosesTimePriority(t *testing.T) {
	book := newTestBook()

	_, err := book.Submit(mustOrder(t, "1", Buy, GoodTillCancel, 100, 10))
	require.NoError(t, err)
	_, err = book.Submit(mustOrder(t, "2", Buy, GoodTillCancel, 100, 5))
	require.NoError(t, err)

	trades, err := book.Modify("1", 100, 10)
	require.NoError(t, err)
	assert.Empty(t, trades)

	lvl := book.bids.Level(100)
	ids := make([]OrderID, 0, 2)
	for _, o := range lvl.Orders() {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []OrderID{"2", "1"}, ids)
}

func TestModify_UnknownIDYieldsEmptyTrades(t *testing.T) {
	book := newTestBook()
	trades, err := book.Modify("404", 100, 1)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

// --- Market orders never rest --------------------------------------------

func TestSubmit_MarketOrderNeverRests(t *testing.T) {
	book := newTestBook()

	_, err := book.Submit(mustOrder(t, "1", Sell, GoodTillCancel, 100, 10))
	require.NoError(t, err)

	market, err := NewOrder("2", Buy, Market, 1, 10)
	require.NoError(t, err)
	trades, err := book.Submit(market)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, Quantity(10), trades[0].AskLeg.Quantity)

	_, ok := book.index.lookup("2")
	assert.False(t, ok)
}

func TestSubmit_MarketOrderPartialLiquidityDiscardsResidual(t *testing.T) {
	book := newTestBook()

	_, err := book.Submit(mustOrder(t, "1", Sell, GoodTillCancel, 100, 4))
	require.NoError(t, err)

	market, err := NewOrder("2", Buy, Market, 1, 10)
	require.NoError(t, err)
	trades, err := book.Submit(market)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, Quantity(4), trades[0].AskLeg.Quantity)

	_, ok := book.index.lookup("2")
	assert.False(t, ok, "market order residual is discarded, not left resting")
}

// --- Submission with a duplicate id is a silent no-op ---------------------

func TestSubmit_DuplicateIDIsSilentNoOp(t *testing.T) {
	book := newTestBook()

	_, err := book.Submit(mustOrder(t, "1", Buy, GoodTillCancel, 100, 10))
	require.NoError(t, err)

	trades, err := book.Submit(mustOrder(t, "1", Buy, GoodTillCancel, 100, 5))
	require.NoError(t, err)
	assert.Empty(t, trades)

	bids := book.SnapshotBids(10)
	require.Len(t, bids, 1)
	assert.Equal(t, Quantity(10), bids[0].Quantity)
}

// --- Invalid orders are rejected at construction --------------------------

func TestNewOrder_RejectsInvalidInput(t *testing.T) {
	_, err := NewOrder("1", Buy, GoodTillCancel, 100, 0)
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, err = NewOrder("1", Buy, GoodTillCancel, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidOrder)

	// Market orders are exempt from the positive-price check: their price
	// is a placeholder replaced with a sentinel at acceptance.
	_, err = NewOrder("1", Buy, Market, 0, 10)
	assert.NoError(t, err)
}

// --- Conservation: initial = remaining + sum(trade quantities) -----------

func TestConservation_AcrossPartialFills(t *testing.T) {
	book := newTestBook()

	_, err := book.Submit(mustOrder(t, "1", Buy, GoodTillCancel, 100, 10))
	require.NoError(t, err)

	trades, err := book.Submit(mustOrder(t, "2", Sell, GoodTillCancel, 100, 4))
	require.NoError(t, err)
	require.Len(t, trades, 1)

	h, ok := book.index.lookup("1")
	require.True(t, ok)
	var filled Quantity
	for _, tr := range trades {
		filled += tr.BidLeg.Quantity
	}
	assert.Equal(t, h.order.Initial, h.order.Remaining+filled)
}

// --- Price crossing invariant: book never rests in a crossed state -------

func TestInvariant_BookNeverRestsCrossed(t *testing.T) {
	book := newTestBook()

	_, err := book.Submit(mustOrder(t, "1", Buy, GoodTillCancel, 105, 10))
	require.NoError(t, err)
	_, err = book.Submit(mustOrder(t, "2", Sell, GoodTillCancel, 100, 4))
	require.NoError(t, err)

	bids := book.SnapshotBids(1)
	asks := book.SnapshotAsks(1)
	if len(bids) > 0 && len(asks) > 0 {
		assert.Less(t, int64(bids[0].Price), int64(asks[0].Price))
	}
}

// --- GoodForDay expiry is driven externally, never by the engine itself ---

func TestGoodForDayIDs_ReturnsRestingGoodForDayOrders(t *testing.T) {
	book := newTestBook()

	_, err := book.Submit(mustOrder(t, "1", Buy, GoodForDay, 100, 10))
	require.NoError(t, err)
	_, err = book.Submit(mustOrder(t, "2", Buy, GoodTillCancel, 99, 5))
	require.NoError(t, err)

	ids := book.GoodForDayIDs()
	assert.Equal(t, []OrderID{"1"}, ids)

	for _, id := range ids {
		require.NoError(t, book.Cancel(id))
	}
	assert.Empty(t, book.GoodForDayIDs())
	bids := book.SnapshotBids(10)
	require.Len(t, bids, 1)
	assert.Equal(t, Price(99), bids[0].Price)
}
