package auction

import (
	"context"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
)

const bidPageSize = 100

// HighestBid returns the definitive top bid of an auction: greatest amount,
// ties broken by earliest timestamp. Returns (nil, nil) when no bids exist.
func (m *Manager) HighestBid(ctx context.Context, auctionID int64) (*models.Bid, error) {
	if _, err := m.store.AuctionByID(ctx, auctionID); err != nil {
		return nil, err
	}
	return m.store.HighestBid(ctx, auctionID)
}

// AllBids returns a lazy cursor over an auction's full bid ledger, ordered
// by amount descending then timestamp ascending. Used for audit and for
// recomputing a winner when the top bid is invalidated.
func (m *Manager) AllBids(auctionID int64) *BidCursor {
	return &BidCursor{
		store:     m.store,
		auctionID: auctionID,
		pageSize:  bidPageSize,
	}
}

// BidCursor pages through a bid ledger with keyset pagination, fetching one
// batch at a time. Reset rewinds it to the start.
type BidCursor struct {
	store     Store
	auctionID int64
	pageSize  int

	batch     []*models.Bid
	idx       int
	last      *models.Bid
	exhausted bool
}

// Next returns the next bid in order, or (nil, nil) once the ledger is
// exhausted.
func (c *BidCursor) Next(ctx context.Context) (*models.Bid, error) {
	if c.idx >= len(c.batch) {
		if c.exhausted {
			return nil, nil
		}
		batch, err := c.store.BidsPage(ctx, c.auctionID, c.last, c.pageSize)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			c.exhausted = true
			return nil, nil
		}
		if len(batch) < c.pageSize {
			c.exhausted = true
		}
		c.batch = batch
		c.idx = 0
		c.last = batch[len(batch)-1]
	}

	bid := c.batch[c.idx]
	c.idx++
	return bid, nil
}

// Reset rewinds the cursor so the sequence can be replayed from the top.
func (c *BidCursor) Reset() {
	c.batch = nil
	c.idx = 0
	c.last = nil
	c.exhausted = false
}
