package aucbot

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"
	"github.com/hyeworks/aucbot/aucbot/database"
	"github.com/hyeworks/aucbot/aucbot/database/repositories"
	"github.com/hyeworks/aucbot/aucbot/economy/auction"
	"github.com/hyeworks/aucbot/aucbot/services"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Version:   version,
		Commit:    commit,
	}
}

type Bot struct {
	Cfg                   Config
	Client                bot.Client
	Paginator             *paginator.Manager
	Version               string
	Commit                string
	DB                    *database.DB
	UserRepository        repositories.UserRepository
	CardRepository        repositories.CardRepository
	UserCardRepository    repositories.UserCardRepository
	TransactionRepository repositories.TransactionRepository
	SpacesService         *services.SpacesService
	CardValueService      *services.CardValueService
	CardSearchService     *services.CardSearchService
	AuctionManager        *auction.Manager
	AuctionSweeper        *auction.Sweeper
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds, gateway.IntentGuildMessages, gateway.IntentMessageContent)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds)),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	return nil
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("AucBot is now ready",
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithListeningActivity("the auction house"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.Any("error", err))
	}
}
