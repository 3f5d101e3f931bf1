package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/database"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/logger"
	"github.com/andrii-lazarenko67/NFT-municipal-flag-game-backend/flaggame/migration"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting FlagGame backend",
		slog.String("version", version),
		slog.String("commit", commit))

	path := flag.String("config", "config.toml", "path to config")
	shouldSeed := flag.Bool("seed", false, "load the demo catalog into an empty database")
	shouldImportLegacy := flag.Bool("import-legacy", false, "import the legacy Mongo catalog")
	flag.Parse()

	cfg, err := flaggame.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := database.New(ctx, database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	})
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	slog.Info("Initializing database schema...")
	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	slog.Info("Database schema initialized successfully")

	app := flaggame.New(*cfg, version, commit)
	if err := app.Setup(db); err != nil {
		slog.Error("Failed to set up application", slog.Any("error", err))
		db.Close()
		os.Exit(-1)
	}
	defer app.Close()

	if *shouldImportLegacy {
		slog.Info("Importing legacy catalog...",
			slog.String("type", "migration"))
		migrator, err := migration.NewMigrator(db.BunDB(), cfg.Legacy.MongoURI, cfg.Legacy.Database)
		if err != nil {
			slog.Error("Failed to connect to legacy catalog", slog.Any("error", err))
			os.Exit(-1)
		}
		if err := migrator.MigrateAll(ctx); err != nil {
			slog.Error("Legacy import failed", slog.Any("error", err))
			_ = migrator.Close(ctx)
			os.Exit(-1)
		}
		_ = migrator.Close(ctx)
	}

	if *shouldSeed {
		if _, err := database.SeedDemoCatalog(ctx, db); err != nil {
			slog.Error("Failed to seed demo catalog", slog.Any("error", err))
			os.Exit(-1)
		}
	}

	app.AuctionScheduler.Start()
	slog.Info("Auction scheduler running",
		slog.String("type", "auction"),
		slog.Int("sweep_interval_seconds", cfg.Game.SweepIntervalSeconds))

	slog.Info("FlagGame backend is now ready",
		slog.String("version", version),
		slog.String("commit", commit))

	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s

	slog.Info("Shutting down...")
}
