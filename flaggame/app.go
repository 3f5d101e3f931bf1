package flaggame

import (
	"log/slog"
	"time"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database/repositories"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/economy/auction"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/economy/interest"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/economy/pairing"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/services"
)

func New(cfg Config, version string, commit string) *App {
	return &App{
		Cfg:     cfg,
		Version: version,
		Commit:  commit,
	}
}

type App struct {
	Cfg     Config
	Version string
	Commit  string

	DB               *database.DB
	FlagRepository   repositories.FlagRepository
	UserRepository   repositories.UserRepository
	StatsRepository  repositories.StatsRepository
	AuctionManager   *auction.Manager
	AuctionScheduler *auction.Scheduler
	InterestRegistry *interest.Registry
	RankingService   *services.RankingService
	AdminService     *services.AdminService
	SpacesService    *services.SpacesService
}

// Setup wires the engine, repositories and services on top of an already
// connected database.
func (a *App) Setup(db *database.DB) error {
	a.DB = db

	rule, err := pairing.ParseRule(a.Cfg.Game.PairRule)
	if err != nil {
		return err
	}

	store := repositories.NewAuctionStore(db.BunDB())
	tracker := pairing.NewTracker(rule)
	a.AuctionManager = auction.NewManager(store, tracker, auction.Policy{
		PairRule:                rule,
		AllowPairCompletionBids: a.Cfg.Game.AllowPairCompletionBids,
	})
	a.AuctionScheduler = auction.NewScheduler(a.AuctionManager,
		time.Duration(a.Cfg.Game.SweepIntervalSeconds)*time.Second)

	a.FlagRepository = repositories.NewFlagRepository(db.BunDB())
	a.UserRepository = repositories.NewUserRepository(db.BunDB())
	a.StatsRepository = repositories.NewStatsRepository(db.BunDB())
	a.InterestRegistry = interest.NewRegistry(repositories.NewInterestRepository(db.BunDB()))
	a.RankingService = services.NewRankingService(db.BunDB(), a.InterestRegistry, a.FlagRepository)

	if a.Cfg.Admin.Key != "" {
		a.AdminService = services.NewAdminService(a.Cfg.Admin.Key, db, a.StatsRepository, a.AuctionManager)
	} else {
		slog.Warn("Admin key not configured, admin operations disabled",
			slog.String("type", "sys"))
	}

	if a.Cfg.Spaces.Key != "" {
		a.SpacesService = services.NewSpacesService(
			a.Cfg.Spaces.Key,
			a.Cfg.Spaces.Secret,
			a.Cfg.Spaces.Region,
			a.Cfg.Spaces.Bucket,
			a.Cfg.Spaces.FlagRoot,
		)
	}

	return nil
}

func (a *App) Close() {
	if a.AuctionScheduler != nil {
		a.AuctionScheduler.Shutdown()
	}
	if a.DB != nil {
		a.DB.Close()
	}

	slog.Info("Shutdown complete",
		slog.String("type", "sys"),
		slog.String("version", a.Version))
}
