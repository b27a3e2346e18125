package engine

import "github.com/rs/zerolog/log"

// logBookSummary logs the top few levels of one asset's book. It exists
// purely for operator visibility (the CLI client's "log" action drives
// it via Engine.LogBook) and never affects matching state.
func logBookSummary(assetType AssetType, book *OrderBook) {
	bids := book.SnapshotBids(5)
	asks := book.SnapshotAsks(5)

	event := log.Info().Int("assetType", int(assetType))
	if len(bids) > 0 {
		event = event.Int64("bestBid", int64(bids[0].Price)).Uint64("bestBidQty", uint64(bids[0].Quantity))
	}
	if len(asks) > 0 {
		event = event.Int64("bestAsk", int64(asks[0].Price)).Uint64("bestAskQty", uint64(asks[0].Quantity))
	}
	event.Int("bidLevels", len(bids)).Int("askLevels", len(asks)).Msg("book snapshot")
}
