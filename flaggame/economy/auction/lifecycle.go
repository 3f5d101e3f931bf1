package auction

import (
	"time"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
)

// Lifecycle: pending -> active -> closing -> settled, with cancelled
// reachable from every non-terminal state by administrative action.

var legalTransitions = map[models.AuctionStatus][]models.AuctionStatus{
	models.AuctionStatusPending: {models.AuctionStatusActive, models.AuctionStatusCancelled},
	models.AuctionStatusActive:  {models.AuctionStatusClosing, models.AuctionStatusCancelled},
	models.AuctionStatusClosing: {models.AuctionStatusSettled, models.AuctionStatusCancelled},
}

func canTransition(from, to models.AuctionStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// initialStatus picks the starting state for a new auction: immediately
// active unless its opening time is in the future.
func initialStatus(openAt, now time.Time) models.AuctionStatus {
	if openAt.After(now) {
		return models.AuctionStatusPending
	}
	return models.AuctionStatusActive
}

// openDue reports whether a pending auction's opening time has been reached.
func openDue(a *models.Auction, now time.Time) bool {
	return a.Status == models.AuctionStatusPending && !now.Before(a.OpenAt)
}

// closeDue reports whether an active auction's closing time has been
// reached. The comparison is inclusive: a bid stamped exactly at the closing
// time is already too late.
func closeDue(a *models.Auction, now time.Time) bool {
	return a.Status == models.AuctionStatusActive && !now.Before(a.CloseAt)
}
