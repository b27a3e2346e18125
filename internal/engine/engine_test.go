package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	trades []Trade
	errs   []error
}

func (r *recordingReporter) ReportTrade(assetType AssetType, trade Trade) {
	r.trades = append(r.trades, trade)
}

func (r *recordingReporter) ReportError(assetType AssetType, owner string, err error) {
	r.errs = append(r.errs, err)
}

func TestEngine_RoutesToCorrectBook(t *testing.T) {
	eng := New(Equities)

	require.NoError(t, eng.PlaceOrder(Equities, mustOrder(t, "1", Buy, GoodTillCancel, 100, 10)))
	require.NoError(t, eng.PlaceOrder(Equities, mustOrder(t, "2", Sell, GoodTillCancel, 100, 10)))

	bids := eng.Books[Equities].SnapshotBids(10)
	assert.Empty(t, bids)
}

func TestEngine_UnknownAssetIsRejected(t *testing.T) {
	eng := New(Equities)
	err := eng.PlaceOrder(AssetType(99), mustOrder(t, "1", Buy, GoodTillCancel, 100, 10))
	assert.ErrorIs(t, err, ErrUnknownAsset)
}

func TestEngine_ReporterReceivesTrades(t *testing.T) {
	eng := New(Equities)
	reporter := &recordingReporter{}
	eng.SetReporter(reporter)

	require.NoError(t, eng.PlaceOrder(Equities, mustOrder(t, "1", Buy, GoodTillCancel, 100, 10)))
	require.NoError(t, eng.PlaceOrder(Equities, mustOrder(t, "2", Sell, GoodTillCancel, 100, 10)))

	require.Len(t, reporter.trades, 1)
	assert.Equal(t, OrderID("1"), reporter.trades[0].BidLeg.OrderID)
}

func TestEngine_CancelAndModifyRouteThroughBook(t *testing.T) {
	eng := New(Equities)
	require.NoError(t, eng.PlaceOrder(Equities, mustOrder(t, "1", Buy, GoodTillCancel, 100, 10)))

	require.NoError(t, eng.ModifyOrder(Equities, "1", 101, 5))
	bids := eng.Books[Equities].SnapshotBids(10)
	require.Len(t, bids, 1)
	assert.Equal(t, LevelView{Price: 101, Quantity: 5}, bids[0])

	require.NoError(t, eng.CancelOrder(Equities, "1"))
	assert.Empty(t, eng.Books[Equities].SnapshotBids(10))
}

func TestEngine_GoodForDayIDs(t *testing.T) {
	eng := New(Equities)
	require.NoError(t, eng.PlaceOrder(Equities, mustOrder(t, "1", Buy, GoodForDay, 100, 10)))

	ids, err := eng.GoodForDayIDs(Equities)
	require.NoError(t, err)
	assert.Equal(t, []OrderID{"1"}, ids)
}
