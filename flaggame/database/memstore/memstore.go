// Package memstore is an in-memory implementation of the auction engine's
// store and the interest repository. It backs tests and local experiments;
// transaction semantics are clone-and-swap, so a failed callback leaves the
// visible state untouched exactly like a rolled-back database transaction.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/economy/auction"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/economy/interest"
)

type state struct {
	auctions   map[int64]*models.Auction
	bids       map[int64][]*models.Bid
	flags      map[int64]*models.Flag
	ownerships map[int64]*models.FlagOwnership
	users      map[string]*models.User
	interests  map[string]*models.FlagInterest

	nextAuctionID  int64
	nextBidID      int64
	nextFlagID     int64
	nextOwnerID    int64
	nextInterestID int64
}

func newState() *state {
	return &state{
		auctions:   make(map[int64]*models.Auction),
		bids:       make(map[int64][]*models.Bid),
		flags:      make(map[int64]*models.Flag),
		ownerships: make(map[int64]*models.FlagOwnership),
		users:      make(map[string]*models.User),
		interests:  make(map[string]*models.FlagInterest),
	}
}

func (st *state) clone() *state {
	c := newState()
	c.nextAuctionID = st.nextAuctionID
	c.nextBidID = st.nextBidID
	c.nextFlagID = st.nextFlagID
	c.nextOwnerID = st.nextOwnerID
	c.nextInterestID = st.nextInterestID

	for id, a := range st.auctions {
		cp := *a
		c.auctions[id] = &cp
	}
	for id, bids := range st.bids {
		cp := make([]*models.Bid, len(bids))
		for i, b := range bids {
			bc := *b
			cp[i] = &bc
		}
		c.bids[id] = cp
	}
	for id, f := range st.flags {
		cp := *f
		c.flags[id] = &cp
	}
	for id, o := range st.ownerships {
		cp := *o
		c.ownerships[id] = &cp
	}
	for id, u := range st.users {
		cp := *u
		c.users[id] = &cp
	}
	for key, fi := range st.interests {
		cp := *fi
		c.interests[key] = &cp
	}
	return c
}

// Store holds all game state behind a single mutex. RunInTx holds the lock
// for the whole callback, which serializes transactions the way the
// database's serializable isolation does.
type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: newState()}
}

var (
	_ auction.Store       = (*Store)(nil)
	_ interest.Repository = (*Store)(nil)
)

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx auction.TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := s.st.clone()
	if err := fn(ctx, &txView{st: clone}); err != nil {
		return err
	}
	s.st = clone
	return nil
}

// txView operates on a transaction's private state clone. The owning
// Store's mutex is held for its whole lifetime, so no locking here.
type txView struct {
	st *state
}

var _ auction.TxStore = (*txView)(nil)

// Seeding helpers for tests.

// SeedUser registers a user and returns its ID.
func (s *Store) SeedUser(id, username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.st.users[id] = &models.User{ID: id, Username: username, CreatedAt: now, UpdatedAt: now}
	return id
}

// SeedPair creates both flag variants of a municipality and returns their IDs.
func (s *Store) SeedPair(municipalityID int64, firstName, secondName string) (int64, int64) {
	first := s.SeedFlag(municipalityID, models.FlagVariantFirst, firstName)
	second := s.SeedFlag(municipalityID, models.FlagVariantSecond, secondName)
	return first, second
}

func (s *Store) SeedFlag(municipalityID int64, variant int, name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.nextFlagID++
	now := time.Now()
	s.st.flags[s.st.nextFlagID] = &models.Flag{
		ID:             s.st.nextFlagID,
		MunicipalityID: municipalityID,
		Variant:        variant,
		Name:           name,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return s.st.nextFlagID
}

// Auction operations. The Store methods take the lock and delegate to the
// same per-state implementations the transactional view uses.

func (s *Store) InsertAuction(ctx context.Context, a *models.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&txView{st: s.st}).InsertAuction(ctx, a)
}

func (v *txView) InsertAuction(_ context.Context, a *models.Auction) error {
	for _, existing := range v.st.auctions {
		if existing.Code == a.Code {
			return fmt.Errorf("auction code %s already exists", a.Code)
		}
	}
	v.st.nextAuctionID++
	a.ID = v.st.nextAuctionID
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	cp := *a
	v.st.auctions[a.ID] = &cp
	return nil
}

func (s *Store) AuctionByID(ctx context.Context, id int64) (*models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&txView{st: s.st}).AuctionByID(ctx, id)
}

func (v *txView) AuctionByID(_ context.Context, id int64) (*models.Auction, error) {
	a, ok := v.st.auctions[id]
	if !ok {
		return nil, fmt.Errorf("auction %d: %w", id, auction.ErrUnknownAuction)
	}
	cp := *a
	return &cp, nil
}

func (s *Store) AuctionByCode(ctx context.Context, code string) (*models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&txView{st: s.st}).AuctionByCode(ctx, code)
}

func (v *txView) AuctionByCode(_ context.Context, code string) (*models.Auction, error) {
	for _, a := range v.st.auctions {
		if a.Code == code {
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("auction %s: %w", code, auction.ErrUnknownAuction)
}

func (s *Store) AuctionForUpdate(ctx context.Context, id int64) (*models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&txView{st: s.st}).AuctionForUpdate(ctx, id)
}

func (v *txView) AuctionForUpdate(ctx context.Context, id int64) (*models.Auction, error) {
	// The store mutex already serializes transactions, so no row lock is
	// needed beyond the plain read.
	return v.AuctionByID(ctx, id)
}

func (s *Store) UpdateAuctionStatus(ctx context.Context, id int64, from, to models.AuctionStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&txView{st: s.st}).UpdateAuctionStatus(ctx, id, from, to)
}

func (v *txView) UpdateAuctionStatus(_ context.Context, id int64, from, to models.AuctionStatus) (bool, error) {
	a, ok := v.st.auctions[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	return true, nil
}

func (s *Store) MarkAuctionSettled(ctx context.Context, id int64, winnerID string, settledAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&txView{st: s.st}).MarkAuctionSettled(ctx, id, winnerID, settledAt)
}

func (v *txView) MarkAuctionSettled(_ context.Context, id int64, winnerID string, settledAt time.Time) (bool, error) {
	a, ok := v.st.auctions[id]
	if !ok || a.Status != models.AuctionStatusClosing {
		return false, nil
	}
	a.Status = models.AuctionStatusSettled
	a.WinnerID = winnerID
	a.SettledAt = settledAt
	a.UpdatedAt = settledAt
	return true, nil
}

func (s *Store) RecordBid(ctx context.Context, bid *models.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&txView{st: s.st}).RecordBid(ctx, bid)
}

func (v *txView) RecordBid(_ context.Context, bid *models.Bid) error {
	a, ok := v.st.auctions[bid.AuctionID]
	if !ok {
		return fmt.Errorf("auction %d: %w", bid.AuctionID, auction.ErrUnknownAuction)
	}
	v.st.nextBidID++
	bid.ID = v.st.nextBidID
	bid.CreatedAt = time.Now()
	cp := *bid
	v.st.bids[bid.AuctionID] = append(v.st.bids[bid.AuctionID], &cp)

	a.CurrentPrice = bid.Amount
	a.TopBidderID = bid.BidderID
	a.LastBidTime = bid.Timestamp
	a.BidCount++
	a.UpdatedAt = time.Now()
	return nil
}

func sortedBids(bids []*models.Bid) []*models.Bid {
	out := make([]*models.Bid, len(bids))
	for i, b := range bids {
		cp := *b
		out[i] = &cp
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) HighestBid(ctx context.Context, auctionID int64) (*models.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&txView{st: s.st}).HighestBid(ctx, auctionID)
}

func (v *txView) HighestBid(_ context.Context, auctionID int64) (*models.Bid, error) {
	bids := sortedBids(v.st.bids[auctionID])
	if len(bids) == 0 {
		return nil, nil
	}
	return bids[0], nil
}

func (s *Store) BidsPage(ctx context.Context, auctionID int64, after *models.Bid, limit int) ([]*models.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&txView{st: s.st}).BidsPage(ctx, auctionID, after, limit)
}

func (v *txView) BidsPage(_ context.Context, auctionID int64, after *models.Bid, limit int) ([]*models.Bid, error) {
	bids := sortedBids(v.st.bids[auctionID])
	if after != nil {
		start := 0
		for i, b := range bids {
			if b.ID == after.ID {
				start = i + 1
				break
			}
		}
		bids = bids[start:]
	}
	if limit > 0 && len(bids) > limit {
		bids = bids[:limit]
	}
	return bids, nil
}

func (s *Store) OpenAuctionByFlag(ctx context.Context, flagID int64) (*models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&txView{st: s.st}).OpenAuctionByFlag(ctx, flagID)
}

func (v *txView) OpenAuctionByFlag(_ context.Context, flagID int64) (*models.Auction, error) {
	for _, a := range v.st.auctions {
		if a.FlagID == flagID && !a.Status.Terminal() {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) OpenDueAuctions(ctx context.Context, now time.Time) ([]*models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&txView{st: s.st}).OpenDueAuctions(ctx, now)
}

func (v *txView) OpenDueAuctions(_ context.Context, now time.Time) ([]*models.Auction, error) {
	var due []*models.Auction
	for _, a := range v.st.auctions {
		if a.Status == models.AuctionStatusPending && !a.OpenAt.After(now) {
			cp := *a
			due = append(due, &cp)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].OpenAt.Before(due[j].OpenAt) })
	return due, nil
}

func (s *Store) CloseDueAuctions(ctx context.Context, now time.Time) ([]*models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&txView{st: s.st}).CloseDueAuctions(ctx, now)
}

func (v *txView) CloseDueAuctions(_ context.Context, now time.Time) ([]*models.Auction, error) {
	var due []*models.Auction
	for _, a := range v.st.auctions {
		closing := a.Status == models.AuctionStatusClosing
		pastClose := a.Status == models.AuctionStatusActive && !a.CloseAt.After(now)
		if closing || pastClose {
			cp := *a
			due = append(due, &cp)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].CloseAt.Before(due[j].CloseAt) })
	return due, nil
}

func (s *Store) Flag(ctx context.Context, id int64) (*models.Flag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&txView{st: s.st}).Flag(ctx, id)
}

func (v *txView) Flag(_ context.Context, id int64) (*models.Flag, error) {
	f, ok := v.st.flags[id]
	if !ok {
		return nil, fmt.Errorf("flag %d: %w", id, auction.ErrUnknownFlag)
	}
	cp := *f
	return &cp, nil
}

func (s *Store) PairMate(ctx context.Context, flag *models.Flag) (*models.Flag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&txView{st: s.st}).PairMate(ctx, flag)
}

func (v *txView) PairMate(_ context.Context, flag *models.Flag) (*models.Flag, error) {
	for _, f := range v.st.flags {
		if f.MunicipalityID == flag.MunicipalityID && f.Variant == flag.MateVariant() && f.ID != flag.ID {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) SetPairComplete(ctx context.Context, flagID int64, complete bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&txView{st: s.st}).SetPairComplete(ctx, flagID, complete)
}

func (v *txView) SetPairComplete(_ context.Context, flagID int64, complete bool) error {
	f, ok := v.st.flags[flagID]
	if !ok {
		return fmt.Errorf("flag %d: %w", flagID, auction.ErrUnknownFlag)
	}
	f.IsPairComplete = complete
	f.UpdatedAt = time.Now()
	return nil
}

func (s *Store) Ownership(ctx context.Context, flagID int64) (*models.FlagOwnership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&txView{st: s.st}).Ownership(ctx, flagID)
}

func (v *txView) Ownership(_ context.Context, flagID int64) (*models.FlagOwnership, error) {
	o, ok := v.st.ownerships[flagID]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *Store) UpsertOwnership(ctx context.Context, o *models.FlagOwnership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&txView{st: s.st}).UpsertOwnership(ctx, o)
}

func (v *txView) UpsertOwnership(_ context.Context, o *models.FlagOwnership) error {
	now := time.Now()
	if existing, ok := v.st.ownerships[o.FlagID]; ok {
		existing.UserID = o.UserID
		existing.AuctionID = o.AuctionID
		existing.AcquiredAt = o.AcquiredAt
		existing.UpdatedAt = now
		return nil
	}
	v.st.nextOwnerID++
	o.ID = v.st.nextOwnerID
	o.CreatedAt = now
	o.UpdatedAt = now
	cp := *o
	v.st.ownerships[o.FlagID] = &cp
	return nil
}

func (s *Store) UserExists(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&txView{st: s.st}).UserExists(ctx, id)
}

func (v *txView) UserExists(_ context.Context, id string) (bool, error) {
	_, ok := v.st.users[id]
	return ok, nil
}

// Interest repository.

func interestKey(userID string, flagID int64) string {
	return fmt.Sprintf("%s|%d", userID, flagID)
}

func (s *Store) Upsert(_ context.Context, userID string, flagID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := interestKey(userID, flagID)
	if _, ok := s.st.interests[key]; ok {
		return nil
	}
	s.st.nextInterestID++
	now := time.Now()
	s.st.interests[key] = &models.FlagInterest{
		ID:        s.st.nextInterestID,
		UserID:    userID,
		FlagID:    flagID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (s *Store) Remove(_ context.Context, userID string, flagID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.st.interests, interestKey(userID, flagID))
	return nil
}

func (s *Store) Exists(_ context.Context, userID string, flagID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.st.interests[interestKey(userID, flagID)]
	return ok, nil
}

func (s *Store) GetByUserID(_ context.Context, userID string) ([]*models.FlagInterest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.FlagInterest
	for _, fi := range s.st.interests {
		if fi.UserID == userID {
			cp := *fi
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CountByFlag(_ context.Context, flagID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, fi := range s.st.interests {
		if fi.FlagID == flagID {
			count++
		}
	}
	return count, nil
}

func (s *Store) TopFlags(_ context.Context, limit int) ([]interest.FlagCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[int64]int)
	for _, fi := range s.st.interests {
		counts[fi.FlagID]++
	}
	out := make([]interest.FlagCount, 0, len(counts))
	for flagID, count := range counts {
		out = append(out, interest.FlagCount{FlagID: flagID, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].FlagID < out[j].FlagID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
