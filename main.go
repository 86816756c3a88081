package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openlot/auctionhouse/auctionhouse"
	"github.com/openlot/auctionhouse/auctionhouse/database"
	"github.com/openlot/auctionhouse/auctionhouse/database/repositories"
	"github.com/openlot/auctionhouse/auctionhouse/engine"
	"github.com/openlot/auctionhouse/auctionhouse/logger"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting AuctionHouse engine",
		slog.String("version", version),
		slog.String("commit", commit))

	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := auctionhouse.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	dbConfig := database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	}

	db, err := database.New(ctx, dbConfig)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer db.Close()

	if err := db.InitTables(ctx); err != nil {
		slog.Error("Failed to initialize database tables",
			slog.String("error", err.Error()))
		os.Exit(-1)
	}

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	bunDB := db.BunDB()
	auctionRepo := repositories.NewAuctionRepository(bunDB)
	balanceRepo := repositories.NewBalanceRepository(bunDB)
	itemRepo := repositories.NewItemRepository(bunDB)
	ledgerRepo := repositories.NewLedgerRepository(bunDB)

	clock := engine.NewBlockClock(cfg.Chain.StartBlock)
	notifier := engine.NewNotifier()
	defer notifier.Close()

	eng := engine.New(auctionRepo, balanceRepo, itemRepo, ledgerRepo, clock, notifier, cfg.Engine.EscrowAccount)
	settler := engine.NewSettler(eng, cfg.Engine.SettleInterval.Std())

	// Settle anything that closed while the service was down.
	if err := settler.Sweep(ctx); err != nil {
		logger.LogError("Startup settlement sweep failed", err)
	}

	blockInterval := cfg.Chain.BlockInterval.Std()
	if blockInterval <= 0 {
		blockInterval = time.Second
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return clock.Run(gctx, blockInterval)
	})
	g.Go(func() error {
		return settler.Run(gctx)
	})

	slog.Info("AuctionHouse engine is running",
		slog.Int64("start_block", clock.Now()),
		slog.Duration("block_interval", blockInterval))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Engine stopped with error", slog.Any("error", err))
		os.Exit(-1)
	}

	slog.Info("Shutting down AuctionHouse engine")
}
