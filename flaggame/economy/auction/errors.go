package auction

import "errors"

// Domain errors returned to callers. Layers wrap them with context via
// fmt.Errorf("...: %w", err); discriminate with errors.Is.
var (
	ErrUnknownAuction = errors.New("auction not found")
	ErrUnknownFlag    = errors.New("flag not found")
	ErrUnknownUser    = errors.New("user not found")

	// ErrAuctionNotActive is returned when a bid targets an auction that is
	// pending, settled, or cancelled.
	ErrAuctionNotActive = errors.New("auction is not active")

	// ErrAuctionClosed is returned when a bid's acceptance timestamp is at or
	// after the auction's closing time, regardless of amount.
	ErrAuctionClosed = errors.New("auction is closed for bidding")

	// ErrBidTooLow is returned when an amount does not meet the reserve price
	// or does not strictly exceed the current highest bid.
	ErrBidTooLow = errors.New("bid amount too low")

	// ErrSelfOwnedAsset is returned when the bidder already owns the
	// auctioned flag, or owns its pair mate while the pair-completion-bid
	// policy forbids that.
	ErrSelfOwnedAsset = errors.New("bidder already owns the asset")

	// ErrAuctionExists is returned when creating an auction for a flag that
	// is already under an unfinished auction.
	ErrAuctionExists = errors.New("flag already has an open auction")

	ErrIllegalStateTransition = errors.New("illegal auction state transition")

	// ErrInconsistentPairState is returned when the ownership write succeeded
	// but the pair completeness recompute did not. The settlement transaction
	// rolls back as a whole, so the auction stays in closing and a retry is
	// safe.
	ErrInconsistentPairState = errors.New("pair completeness recompute failed")
)
