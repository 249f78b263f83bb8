package auction

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/hyeworks/aucbot/aucbot/database/models"
)

// Notifier delivers auction events to participants. Delivery is
// fire-and-forget: a failed DM is logged and never fails the operation that
// triggered it.
type Notifier interface {
	NotifyOutbid(ctx context.Context, userID string, auction *models.Auction, card *models.Card, nextMin int64)
	NotifyFirstBid(ctx context.Context, sellerID string, auction *models.Auction, card *models.Card)
	NotifyWinner(ctx context.Context, userID string, auction *models.Auction, card *models.Card, rebate int64)
	NotifySold(ctx context.Context, sellerID string, auction *models.Auction, card *models.Card)
	NotifyReturned(ctx context.Context, sellerID string, auction *models.Auction, card *models.Card)
}

const embedColor = 0x2b2d31

// DMNotifier sends auction events as direct messages.
type DMNotifier struct {
	client bot.Client
	mu     sync.RWMutex
}

func NewDMNotifier(client bot.Client) *DMNotifier {
	return &DMNotifier{client: client}
}

func (n *DMNotifier) SetClient(client bot.Client) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.client = client
}

func (n *DMNotifier) NotifyOutbid(ctx context.Context, userID string, auction *models.Auction, card *models.Card, nextMin int64) {
	price := fmt.Sprintf("%d", auction.Price)
	next := fmt.Sprintf("To remain in the auction, you should bid more than **%d** flakes.", nextMin)
	if auction.HideBid {
		price = "???"
		next = "The next required bid is hidden by a hero effect."
	}

	desc := fmt.Sprintf(
		"Another player has outbid you on **%s** with a bid of **%s** flakes.\n%s\nUse `/auction bid %s` to bid again.\nThis auction ends in **%s**.",
		CardDisplayName(card), price, next, auction.AuctionID, FormatRemaining(auction, time.Now()))

	n.sendEmbed(userID, "Oh no!", desc)
}

func (n *DMNotifier) NotifyFirstBid(ctx context.Context, sellerID string, auction *models.Auction, card *models.Card) {
	price := fmt.Sprintf("%d", auction.Price)
	hiddenNote := ""
	if auction.HideBid {
		price = "???"
		hiddenNote = "\nThe bid is hidden by a hero effect."
	}

	desc := fmt.Sprintf(
		"A player has bid on your card **%s** with a bid of **%s** flakes.%s\nThis auction ends in **%s**.",
		CardDisplayName(card), price, hiddenNote, FormatRemaining(auction, time.Now()))

	n.sendEmbed(sellerID, "Yay!", desc)
}

func (n *DMNotifier) NotifyWinner(ctx context.Context, userID string, auction *models.Auction, card *models.Card, rebate int64) {
	desc := fmt.Sprintf("You won the auction for **%s**!\nThe card is now yours.", CardDisplayName(card))
	if rebate > 0 {
		desc += fmt.Sprintf("\nYou got **%d** flakes back from that transaction.", rebate)
	}
	n.sendEmbed(userID, "Auction won", desc)
}

func (n *DMNotifier) NotifySold(ctx context.Context, sellerID string, auction *models.Auction, card *models.Card) {
	n.sendEmbed(sellerID, "Auction finished",
		fmt.Sprintf("Your auction for **%s** finished!\nYou got **%d** flakes for it.",
			CardDisplayName(card), auction.Price))
}

func (n *DMNotifier) NotifyReturned(ctx context.Context, sellerID string, auction *models.Auction, card *models.Card) {
	n.sendEmbed(sellerID, "Auction finished",
		fmt.Sprintf("Your auction for **%s** finished, but nobody bid on it.\nYou got your card back.",
			CardDisplayName(card)))
}

func (n *DMNotifier) sendEmbed(userID string, title string, description string) {
	n.mu.RLock()
	client := n.client
	n.mu.RUnlock()

	if client == nil {
		slog.Debug("Notifier has no client, dropping notification",
			slog.String("user_id", userID))
		return
	}

	id, err := snowflake.Parse(userID)
	if err != nil {
		slog.Error("Invalid user id for notification",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return
	}

	channel, err := client.Rest().CreateDMChannel(id)
	if err != nil {
		slog.Error("Failed to create DM channel",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return
	}

	embed := discord.NewEmbedBuilder().
		SetTitle(title).
		SetDescription(description).
		SetColor(embedColor).
		Build()

	if _, err := client.Rest().CreateMessage(channel.ID(), discord.MessageCreate{
		Embeds: []discord.Embed{embed},
	}); err != nil {
		slog.Error("Failed to send notification",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}
}
