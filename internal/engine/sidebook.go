package engine

import "github.com/tidwall/btree"

// SideBook is a sorted associative container from price to PriceLevel,
// ordered the way its side needs: bids descending (best = highest), asks
// ascending (best = lowest). It is backed by github.com/tidwall/btree,
// whose BTreeG.Min always returns the comparator-least element — which is
// exactly "best" once each side supplies its own less-than.
type SideBook struct {
	tree *btree.BTreeG[*PriceLevel]
}

func newBidSideBook() *SideBook {
	return &SideBook{tree: btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price > b.Price // descending: highest bid sorts first
	})}
}

func newAskSideBook() *SideBook {
	return &SideBook{tree: btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price < b.Price // ascending: lowest ask sorts first
	})}
}

// Best returns the first (best-priced) level, or (nil, false) if the side
// is empty.
func (s *SideBook) Best() (*PriceLevel, bool) {
	return s.tree.Min()
}

// Level returns the existing PriceLevel at price, creating it if absent.
// Callers that drain a level to empty must call Delete themselves — an
// empty level is never left in the tree.
func (s *SideBook) Level(price Price) *PriceLevel {
	key := &PriceLevel{Price: price}
	if lvl, ok := s.tree.Get(key); ok {
		return lvl
	}
	lvl := newPriceLevel(price)
	s.tree.Set(lvl)
	return lvl
}

// Delete removes the level at price, if present.
func (s *SideBook) Delete(price Price) {
	s.tree.Delete(&PriceLevel{Price: price})
}

// Len returns the number of distinct price levels on this side.
func (s *SideBook) Len() int {
	return s.tree.Len()
}

// Items returns every level from best outward. Used by snapshots and
// tests; it allocates, so it is not on any matching hot path.
func (s *SideBook) Items() []*PriceLevel {
	out := make([]*PriceLevel, 0, s.tree.Len())
	s.tree.Scan(func(lvl *PriceLevel) bool {
		out = append(out, lvl)
		return true
	})
	return out
}
