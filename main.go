package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
	"github.com/hyeworks/aucbot/aucbot"
	"github.com/hyeworks/aucbot/aucbot/commands"
	"github.com/hyeworks/aucbot/aucbot/database"
	"github.com/hyeworks/aucbot/aucbot/database/repositories"
	"github.com/hyeworks/aucbot/aucbot/economy/auction"
	"github.com/hyeworks/aucbot/aucbot/economy/effects"
	"github.com/hyeworks/aucbot/aucbot/logger"
	"github.com/hyeworks/aucbot/aucbot/services"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting AucBot",
		slog.String("version", version),
		slog.String("commit", commit))

	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := aucbot.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	customHandler.SetLevel(cfg.Log.Level)
	slog.Info("Configuration loaded successfully")

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

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

	defer db.Close()

	b := aucbot.New(*cfg, version, commit)
	b.DB = db

	spacesService, err := services.NewSpacesService(
		cfg.Spaces.Key,
		cfg.Spaces.Secret,
		cfg.Spaces.Region,
		cfg.Spaces.Bucket,
		cfg.Spaces.CardRoot,
	)
	if err != nil {
		slog.Error("Failed to initialize spaces service", slog.Any("error", err))
		os.Exit(-1)
	}
	b.SpacesService = spacesService

	b.UserRepository = repositories.NewUserRepository(db.BunDB())
	b.UserCardRepository = repositories.NewUserCardRepository(db.BunDB())

	// Empty non-favorite stacks accumulate from listings; sweep them on boot.
	if err := b.UserCardRepository.CleanupZeroAmountCards(ctx); err != nil {
		slog.Warn("Failed to clean up empty card stacks", slog.Any("error", err))
	}
	b.CardRepository = repositories.NewCardRepository(db.BunDB())
	b.TransactionRepository = repositories.NewTransactionRepository(db.BunDB())
	auctionRepo := repositories.NewAuctionRepository(db.BunDB())

	cardValueService, err := services.NewCardValueService(b.CardRepository)
	if err != nil {
		slog.Error("Failed to initialize card value service", slog.Any("error", err))
		os.Exit(-1)
	}
	b.CardValueService = cardValueService
	b.CardSearchService = services.NewCardSearchService(b.CardRepository, b.UserCardRepository)

	hooks := effects.NewHooks()
	notifier := auction.NewDMNotifier(nil)

	b.AuctionManager = auction.NewManager(
		auctionRepo,
		b.UserRepository,
		b.UserCardRepository,
		b.CardRepository,
		hooks,
		cardValueService,
		notifier,
	)

	b.AuctionSweeper = auction.NewSweeper(
		auctionRepo,
		b.UserRepository,
		b.CardRepository,
		hooks,
		notifier,
		cfg.Auction.SweepInterval(),
	)

	h := handler.New()

	auctionHandler := commands.NewAuctionHandler(
		b.AuctionManager,
		b.CardRepository,
		b.UserCardRepository,
		b.TransactionRepository,
		b.CardSearchService,
		b.SpacesService,
		b.Paginator,
	)
	auctionHandler.Register(h)

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)),
		)
		os.Exit(-1)
	}

	// DMs go out through the gateway client, which only exists after setup.
	notifier.SetClient(b.Client)

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds),
		)
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
			)
		}
	}

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = b.Client.OpenGateway(ctx); err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err),
		)
		os.Exit(-1)
	}

	b.AuctionSweeper.Start()
	defer b.AuctionSweeper.Shutdown()

	slog.Info("Bot is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down bot...")
}
