package auction

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hyeworks/aucbot/aucbot/database/models"
)

// CardDisplayName renders a card as "★★★ Hoot Taeyeon [GG]".
func CardDisplayName(card *models.Card) string {
	if card == nil {
		return "unknown card"
	}

	name := formatCardName(card.Name)
	if card.Level >= 1 && card.Level <= 5 {
		return fmt.Sprintf("%s %s [%s]", strings.Repeat("★", card.Level), name, strings.ToUpper(card.ColID))
	}
	if card.ColID != "" {
		return fmt.Sprintf("%s [%s]", name, strings.ToUpper(card.ColID))
	}
	return name
}

// formatCardName converts stored names like "hoot_taeyeon" to "Hoot Taeyeon".
func formatCardName(name string) string {
	if name == "" {
		return ""
	}

	parts := strings.Split(name, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		r := []rune(part)
		r[0] = unicode.ToUpper(r[0])
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}

// DisplayPrice masks the auction price for everyone but the current leader
// while a hide-bid effect is active.
func DisplayPrice(a *models.Auction, viewerID string) string {
	if a.HideBid && viewerID != a.LastBidderID {
		return "???"
	}
	return fmt.Sprintf("%d", a.Price)
}
