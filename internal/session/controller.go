// Package session supervises the engine-external lifecycle events the
// core order book deliberately knows nothing about — presently, the
// daily sweep that expires resting GoodForDay orders. SPEC_FULL.md §5
// defines GoodForDay as driven by something outside the book; this is
// that something for the reference front-end.
package session

import (
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"matchbook/internal/engine"
)

// Engine is the subset of engine.Engine the sweep controller drives.
type Engine interface {
	GoodForDayIDs(assetType engine.AssetType) ([]engine.OrderID, error)
	CancelOrder(assetType engine.AssetType, id engine.OrderID) error
}

// Controller periodically cancels every resting GoodForDay order across
// a fixed set of assets, simulating end-of-day session close.
type Controller struct {
	eng      Engine
	assets   []engine.AssetType
	interval time.Duration
}

// NewController constructs a sweep controller for eng covering assets,
// firing every interval.
func NewController(eng Engine, interval time.Duration, assets ...engine.AssetType) *Controller {
	return &Controller{eng: eng, assets: assets, interval: interval}
}

// Run blocks, sweeping on every tick until t starts dying.
func (c *Controller) Run(t *tomb.Tomb) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.Dying():
			return nil
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep cancels every resting GoodForDay order for every tracked asset.
func (c *Controller) sweep() {
	for _, assetType := range c.assets {
		ids, err := c.eng.GoodForDayIDs(assetType)
		if err != nil {
			log.Error().Err(err).Int("assetType", int(assetType)).Msg("failed listing good-for-day orders")
			continue
		}
		for _, id := range ids {
			if err := c.eng.CancelOrder(assetType, id); err != nil {
				log.Error().Err(err).Str("orderID", string(id)).Msg("failed cancelling expired good-for-day order")
			}
		}
		if len(ids) > 0 {
			log.Info().Int("assetType", int(assetType)).Int("count", len(ids)).Msg("swept expired good-for-day orders")
		}
	}
}
