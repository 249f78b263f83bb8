package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/hyeworks/aucbot/aucbot"
	"github.com/hyeworks/aucbot/aucbot/database"
	"github.com/hyeworks/aucbot/aucbot/logger"
	"github.com/hyeworks/aucbot/aucbot/migration"
)

func main() {
	slog.SetDefault(slog.New(logger.NewHandler()))

	path := flag.String("config", "config.toml", "path to config")
	dataDir := flag.String("data", "data", "directory holding the legacy .bson dump files")
	batchSize := flag.Int("batch-size", 1000, "rows per insert batch")
	useCopy := flag.Bool("copy", false, "use COPY FROM for bulk inserts")
	flag.Parse()

	cfg, err := aucbot.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
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
		slog.Error("Failed to connect to database", slog.Any("error", err))
		os.Exit(-1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema", slog.Any("error", err))
		os.Exit(-1)
	}

	migrator := migration.NewMigrator(db.BunDB(), *dataDir)
	migrator.SetBatchSize(*batchSize)
	if *useCopy {
		migrator.SetUseCopy(true)
		migrator.UsePool(db.GetPool())
	}

	if err := migrator.MigrateAll(ctx); err != nil {
		logger.LogError("Migration failed", err)
		os.Exit(-1)
	}

	logger.LogSystem("Migration completed successfully!")
}
