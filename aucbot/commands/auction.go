package commands

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
	"github.com/hyeworks/aucbot/aucbot/database/models"
	"github.com/hyeworks/aucbot/aucbot/database/repositories"
	"github.com/hyeworks/aucbot/aucbot/economy/auction"
	"github.com/hyeworks/aucbot/aucbot/handlers"
	"github.com/hyeworks/aucbot/aucbot/services"
)

const auctionsPerPage = 10

var AuctionCommand = discord.SlashCommandCreate{
	Name:        "auction",
	Description: "Auction house commands",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "sell",
			Description: "Put one of your cards up for auction",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "card_name",
					Description: "The name of the card to auction",
					Required:    true,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "price",
					Description: "Starting price (defaults to the card's evaluated worth)",
					Required:    false,
					MinValue:    intPtr(1),
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "bid",
			Description: "Place a bid on an auction",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "auction_id",
					Description: "The ID of the auction (e.g. abc4)",
					Required:    true,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "amount",
					Description: "Bid amount",
					Required:    true,
					MinValue:    intPtr(1),
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "info",
			Description: "Show details for a single auction",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "auction_id",
					Description: "The ID of the auction",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "history",
			Description: "Show your recently settled auctions",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "list",
			Description: "List active auctions",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "scope",
					Description: "Which auctions to show",
					Required:    false,
					Choices: []discord.ApplicationCommandOptionChoiceString{
						{Name: "all", Value: "all"},
						{Name: "mine", Value: "me"},
						{Name: "my bids", Value: "bid"},
						{Name: "missing from my collection", Value: "diff"},
					},
				},
			},
		},
	},
}

type AuctionHandler struct {
	manager      *auction.Manager
	cardRepo     repositories.CardRepository
	userCardRepo repositories.UserCardRepository
	txRepo       repositories.TransactionRepository
	search       *services.CardSearchService
	spaces       *services.SpacesService
	paginator    *paginator.Manager
}

func NewAuctionHandler(
	manager *auction.Manager,
	cardRepo repositories.CardRepository,
	userCardRepo repositories.UserCardRepository,
	txRepo repositories.TransactionRepository,
	search *services.CardSearchService,
	spaces *services.SpacesService,
	pag *paginator.Manager,
) *AuctionHandler {
	return &AuctionHandler{
		manager:      manager,
		cardRepo:     cardRepo,
		userCardRepo: userCardRepo,
		txRepo:       txRepo,
		search:       search,
		spaces:       spaces,
		paginator:    pag,
	}
}

func (h *AuctionHandler) Register(r handler.Router) {
	r.Route("/auction", func(r handler.Router) {
		r.Command("/sell", handlers.WrapWithLogging("auction-sell", h.HandleSell))
		r.Command("/bid", handlers.WrapWithLogging("auction-bid", h.HandleBid))
		r.Command("/info", handlers.WrapWithLogging("auction-info", h.HandleInfo))
		r.Command("/list", handlers.WrapWithLogging("auction-list", h.HandleList))
		r.Command("/history", handlers.WrapWithLogging("auction-history", h.HandleHistory))
	})

	// Component patterns must start with /
	r.Component("/auction/confirm", handlers.WrapComponentWithLogging("auction-confirm", h.HandleConfirmation))
	r.Component("/auction/cancel", handlers.WrapComponentWithLogging("auction-cancel", h.HandleCancel))
}

func (h *AuctionHandler) HandleSell(event *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data := event.SlashCommandInteractionData()
	cardName := data.String("card_name")
	askingPrice := int64(data.Int("price"))

	card, _, err := h.search.FindOwnedCard(ctx, event.User().ID.String(), cardName)
	if err != nil {
		if errors.Is(err, services.ErrNoCardMatch) {
			return ephemeral(event, fmt.Sprintf("❌ No card matching `%s` found in your collection", cardName))
		}
		return ephemeral(event, "Failed to look up your cards")
	}

	quote, err := h.manager.PrepareListing(ctx, event.User().ID.String(), card.ID, askingPrice)
	if err != nil {
		return ephemeral(event, friendlySellError(err))
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("🏛️ Confirm Auction").
		SetDescription(fmt.Sprintf("Please confirm that you want to auction **%s**", auction.CardDisplayName(quote.Card))).
		AddField("Card", fmt.Sprintf("%s %s", strings.Repeat("★", quote.Card.Level), quote.Card.Name), false).
		AddField("Evaluated Worth", fmt.Sprintf("%d 💰", quote.Value), true).
		AddField("Start Price", fmt.Sprintf("%d 💰", quote.Price), true).
		AddField("Listing Fee", fmt.Sprintf("%d 💰", quote.Fee), true).
		AddField("Duration", "5h", true).
		AddField("Collection", strings.ToUpper(quote.Card.ColID), true).
		SetColor(0x2b2d31).
		SetFooter("The fee is charged when you confirm and is not refunded", "").
		Build()

	components := []discord.ContainerComponent{
		discord.NewActionRow(
			discord.NewSuccessButton(
				"Confirm",
				fmt.Sprintf("/auction/confirm/%d/%d", quote.Card.ID, quote.Price),
			),
			discord.NewDangerButton(
				"Cancel",
				"/auction/cancel",
			),
		),
	}

	return event.CreateMessage(discord.MessageCreate{
		Embeds:     []discord.Embed{embed},
		Components: components,
		Flags:      discord.MessageFlagEphemeral,
	})
}

func (h *AuctionHandler) HandleConfirmation(event *handler.ComponentEvent) error {
	parts := strings.Split(event.Data.CustomID(), "/")
	if len(parts) != 5 { // /auction/confirm/cardID/price
		return fmt.Errorf("invalid confirmation ID format")
	}

	cardID, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return err
	}
	price, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	auc, err := h.manager.ListAuction(ctx, event.User().ID.String(), cardID, price)
	if err != nil {
		return event.UpdateMessage(discord.MessageUpdate{
			Embeds: &[]discord.Embed{
				discord.NewEmbedBuilder().
					SetTitle("❌ Auction Creation Failed").
					SetDescription(friendlySellError(err)).
					SetColor(0xFF0000).
					Build(),
			},
			Components: &[]discord.ContainerComponent{},
		})
	}

	return event.UpdateMessage(discord.MessageUpdate{
		Embeds: &[]discord.Embed{
			discord.NewEmbedBuilder().
				SetTitle("✅ Auction Created").
				SetDescription(fmt.Sprintf("Your card is now up for auction as **`%s`**", auc.AuctionID)).
				AddField("Start Price", fmt.Sprintf("%d 💰", auc.Price), true).
				AddField("Ends In", auction.FormatRemaining(auc, time.Now()), true).
				SetColor(0x57F287).
				Build(),
		},
		Components: &[]discord.ContainerComponent{},
	})
}

func (h *AuctionHandler) HandleCancel(event *handler.ComponentEvent) error {
	return event.UpdateMessage(discord.MessageUpdate{
		Embeds: &[]discord.Embed{
			discord.NewEmbedBuilder().
				SetTitle("❌ Auction Cancelled").
				SetDescription("The auction creation was cancelled.").
				SetColor(0xFF0000).
				Build(),
		},
		Components: &[]discord.ContainerComponent{},
	})
}

func (h *AuctionHandler) HandleBid(event *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data := event.SlashCommandInteractionData()
	auctionID := strings.ToLower(strings.TrimSpace(data.String("auction_id")))
	amount := int64(data.Int("amount"))

	receipt, err := h.manager.PlaceBid(ctx, auctionID, event.User().ID.String(), amount)
	if err != nil {
		return ephemeral(event, friendlyBidError(err))
	}

	shown := fmt.Sprintf("%d 💰", receipt.Amount)
	if receipt.Hidden {
		shown = "??? 💰"
	}
	return ephemeral(event, fmt.Sprintf("✅ Placed a bid of %s on **%s** (`%s`)",
		shown, auction.CardDisplayName(receipt.Card), receipt.Auction.AuctionID))
}

func (h *AuctionHandler) HandleInfo(event *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data := event.SlashCommandInteractionData()
	auctionID := strings.ToLower(strings.TrimSpace(data.String("auction_id")))
	viewerID := event.User().ID.String()

	auc, err := h.manager.GetByAuctionID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, auction.ErrNotFound) {
			return ephemeral(event, fmt.Sprintf("❌ Auction `%s` not found", auctionID))
		}
		return ephemeral(event, "Failed to look up the auction")
	}

	card, err := h.cardRepo.GetByID(ctx, auc.CardID)
	if err != nil {
		return ephemeral(event, "Failed to get card details")
	}

	status := "Active"
	if auc.Finished {
		status = "Finished"
	}

	bidField := "No bids yet"
	if auc.HasBids() {
		bidField = fmt.Sprintf("%s 💰 by <@%s>", auction.DisplayPrice(auc, viewerID), auc.LastBidderID)
	}

	embed := discord.NewEmbedBuilder().
		SetTitle(fmt.Sprintf("🏛️ Auction `%s`", auc.AuctionID)).
		AddField("Card", auction.CardDisplayName(card), false).
		AddField("Seller", fmt.Sprintf("<@%s>", auc.SellerID), true).
		AddField("Status", status, true).
		AddField("Time Left", auction.FormatRemaining(auc, time.Now()), true).
		AddField("Current Bid", bidField, false).
		SetColor(0x2b2d31)

	if h.spaces.CardImageExists(ctx, card) {
		embed.SetImage(h.spaces.CardImageURL(card))
	}

	if !auc.Finished {
		if minNext, err := auction.MinimumNextBid(auc, time.Now()); err == nil {
			hint := fmt.Sprintf("more than %d 💰", minNext)
			if auc.HideBid && auc.LastBidderID != viewerID {
				hint = "hidden by a hero effect"
			}
			embed.AddField("Next Bid", hint, true)
		}
	}

	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{embed.Build()},
	})
}

func (h *AuctionHandler) HandleList(event *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data := event.SlashCommandInteractionData()
	scope := data.String("scope")
	viewerID := event.User().ID.String()

	filter := repositories.ListFilter{}
	switch scope {
	case "me":
		filter.Author = viewerID
	case "bid":
		filter.Bidder = viewerID
	}

	auctions, err := h.manager.List(ctx, filter)
	if err != nil {
		return ephemeral(event, "Failed to get auctions")
	}

	cardIDs := make([]int64, 0, len(auctions))
	for _, a := range auctions {
		cardIDs = append(cardIDs, a.CardID)
	}
	cards, err := h.cardRepo.GetByIDs(ctx, cardIDs)
	if err != nil {
		return ephemeral(event, "Failed to get card details")
	}

	if scope == "diff" {
		owned, err := h.userCardRepo.GetAllByUserID(ctx, viewerID)
		if err != nil {
			return ephemeral(event, "Failed to get your collection")
		}
		ownedSet := make(map[int64]struct{}, len(owned))
		for _, uc := range owned {
			ownedSet[uc.CardID] = struct{}{}
		}
		filtered := auctions[:0]
		for _, a := range auctions {
			if _, ok := ownedSet[a.CardID]; !ok {
				filtered = append(filtered, a)
			}
		}
		auctions = filtered
	}

	if len(auctions) == 0 {
		return ephemeral(event, "No active auctions found.")
	}

	totalPages := int(math.Ceil(float64(len(auctions)) / float64(auctionsPerPage)))

	return h.paginator.Create(event.Respond, paginator.Pages{
		ID:      event.ID().String(),
		Creator: event.User().ID,
		PageFunc: func(page int, embed *discord.EmbedBuilder) {
			startIdx := page * auctionsPerPage
			endIdx := min(startIdx+auctionsPerPage, len(auctions))
			pageAuctions := auctions[startIdx:endIdx]

			var description strings.Builder
			for _, a := range pageAuctions {
				card := cards[a.CardID]
				if card == nil {
					continue
				}
				description.WriteString(fmt.Sprintf("%s `[%s]` `%s` %s **%s**\n",
					rowMarker(a, viewerID),
					auction.FormatRemaining(a, time.Now()),
					a.AuctionID,
					auction.DisplayPrice(a, viewerID),
					auction.CardDisplayName(card)))
			}

			embed.
				SetTitle("🏛️ Auction House").
				SetDescription(description.String()).
				SetColor(0x2b2d31).
				SetFooter(fmt.Sprintf("Page %d/%d • Use /auction bid to place bids", page+1, totalPages), "")
		},
		Pages:      totalPages,
		ExpireMode: paginator.ExpireModeAfterLastUsage,
	}, false)
}

func (h *AuctionHandler) HandleHistory(event *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	viewerID := event.User().ID.String()

	transactions, err := h.txRepo.GetRecentByUser(ctx, viewerID, auctionsPerPage)
	if err != nil {
		return ephemeral(event, "Failed to get your auction history")
	}
	if len(transactions) == 0 {
		return ephemeral(event, "You have no settled auctions yet.")
	}

	cardIDs := make([]int64, 0, len(transactions))
	for _, tx := range transactions {
		cardIDs = append(cardIDs, tx.CardID)
	}
	cards, err := h.cardRepo.GetByIDs(ctx, cardIDs)
	if err != nil {
		return ephemeral(event, "Failed to get card details")
	}

	var description strings.Builder
	for _, tx := range transactions {
		role := "🔸 Won"
		other := tx.SellerName
		if tx.SellerID == viewerID {
			role = "🔹 Sold"
			other = tx.WinnerName
		}

		name := fmt.Sprintf("card #%d", tx.CardID)
		if card := cards[tx.CardID]; card != nil {
			name = auction.CardDisplayName(card)
		}

		description.WriteString(fmt.Sprintf("%s **%s** for %d 💰 (`%s`, with %s, <t:%d:R>)\n",
			role, name, tx.Price, tx.AuctionID, other, tx.Time.Unix()))
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("🏛️ Your Auction History").
		SetDescription(description.String()).
		SetColor(0x2b2d31).
		Build()

	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{embed},
		Flags:  discord.MessageFlagEphemeral,
	})
}

// rowMarker shows the viewer's relationship to an auction at a glance.
func rowMarker(a *models.Auction, viewerID string) string {
	switch {
	case a.SellerID == viewerID:
		return "🔹"
	case a.HasBids() && a.LastBidderID == viewerID:
		return "🔸"
	case a.HideBid:
		return "🔷"
	default:
		return "▪️"
	}
}

func ephemeral(event *handler.CommandEvent, content string) error {
	return event.CreateMessage(discord.MessageCreate{
		Content: content,
		Flags:   discord.MessageFlagEphemeral,
	})
}

func friendlySellError(err error) string {
	var thresholdErr *auction.ThresholdError
	if errors.As(err, &thresholdErr) && errors.Is(err, auction.ErrPriceOutOfRange) {
		return fmt.Sprintf("❌ Start price is out of range, the nearest allowed price is %d 💰", thresholdErr.Threshold)
	}

	switch {
	case errors.Is(err, auction.ErrMissingHero):
		return "❌ You need a hero to use the auction house"
	case errors.Is(err, auction.ErrNotFound):
		return "❌ You don't own a copy of that card"
	case errors.Is(err, auction.ErrProtectedCard):
		return "❌ That card is your last favorited copy and cannot be auctioned"
	case errors.Is(err, auction.ErrInsufficientFunds):
		return "❌ You cannot afford the listing fee"
	default:
		return fmt.Sprintf("❌ %v", err)
	}
}

func friendlyBidError(err error) string {
	var thresholdErr *auction.ThresholdError
	if errors.As(err, &thresholdErr) {
		switch {
		case errors.Is(err, auction.ErrTooLow):
			if thresholdErr.Hidden {
				return "❌ Your bid was too low. Try a higher amount!"
			}
			return fmt.Sprintf("❌ Your bid must be higher than %d 💰", thresholdErr.Threshold)
		case errors.Is(err, auction.ErrTooHigh):
			if thresholdErr.Hidden {
				return "❌ Your bid was too high for this auction. Try a lower amount!"
			}
			return fmt.Sprintf("❌ Your bid cannot exceed %d 💰", thresholdErr.Threshold)
		}
	}

	switch {
	case errors.Is(err, auction.ErrNotFound):
		return "❌ Auction not found"
	case errors.Is(err, auction.ErrSelfBid):
		return "❌ You cannot bid on your own auction"
	case errors.Is(err, auction.ErrAlreadyFinished):
		return "❌ This auction has already finished"
	case errors.Is(err, auction.ErrMissingHero):
		return "❌ You need a hero to use the auction house"
	case errors.Is(err, auction.ErrInsufficientFunds):
		return "❌ You don't have enough money for that bid"
	case errors.Is(err, auction.ErrAlreadyLeading):
		return "❌ You already hold the leading bid"
	case errors.Is(err, auction.ErrInvalidAmount):
		return "❌ Bid amount must be positive"
	case errors.Is(err, auction.ErrBidConflict):
		return "❌ Someone bid at the same time, check the new price and try again"
	default:
		return fmt.Sprintf("❌ Failed to place bid: %v", err)
	}
}

func intPtr(v int) *int {
	return &v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
