package auction

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/models"
)

const (
	defaultSweepInterval = 15 * time.Second
	sweepTimeout         = 30 * time.Second
	settleConcurrency    = 4
)

// Scheduler drives clock-based transitions in the background: opening
// pending auctions and settling auctions past their closing time. Bid
// placement performs the same transitions lazily, so the sweep is a safety
// net, not the authority.
type Scheduler struct {
	manager     *Manager
	sweepTicker *time.Ticker
	shutdown    chan struct{}
}

func NewScheduler(manager *Manager, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Scheduler{
		manager:     manager,
		sweepTicker: time.NewTicker(interval),
		shutdown:    make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go s.run()
}

func (s *Scheduler) run() {
	for {
		select {
		case <-s.sweepTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
			if err := s.Sweep(ctx); err != nil {
				slog.Error("Auction sweep failed",
					slog.String("type", "auction"),
					slog.String("error", err.Error()))
			}
			cancel()
		case <-s.shutdown:
			return
		}
	}
}

// Sweep performs one pass: activate due pending auctions, then settle due
// auctions concurrently. A failure on one auction is logged and never
// affects the others.
func (s *Scheduler) Sweep(ctx context.Context) error {
	now := s.manager.now()

	due, err := s.manager.store.OpenDueAuctions(ctx, now)
	if err != nil {
		return err
	}
	for _, auction := range due {
		changed, err := s.manager.store.UpdateAuctionStatus(ctx, auction.ID, models.AuctionStatusPending, models.AuctionStatusActive)
		if err != nil {
			slog.Error("Failed to open pending auction",
				slog.String("type", "auction"),
				slog.Int64("auction_id", auction.ID),
				slog.String("error", err.Error()))
			continue
		}
		if changed {
			slog.Info("Auction opened",
				slog.String("type", "auction"),
				slog.String("code", auction.Code))
		}
	}

	closing, err := s.manager.store.CloseDueAuctions(ctx, now)
	if err != nil {
		return err
	}
	if len(closing) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(settleConcurrency)
	for _, auction := range closing {
		auction := auction
		g.Go(func() error {
			if _, err := s.manager.Settle(gctx, auction.ID); err != nil {
				slog.Error("Failed to settle auction",
					slog.String("type", "auction"),
					slog.Int64("auction_id", auction.ID),
					slog.String("code", auction.Code),
					slog.String("error", err.Error()))
			}
			return nil
		})
	}
	return g.Wait()
}

// Shutdown stops the background sweep.
func (s *Scheduler) Shutdown() {
	close(s.shutdown)
	s.sweepTicker.Stop()
	slog.Info("Auction scheduler shutdown completed", slog.String("type", "sys"))
}
