package extractor

import (
	"strings"

	"tender-scraper/models"
)

var (
	lotNumberRule    = Rule{Pattern: re(`Lot\s*raqami:\s*(\d+)`), Group: 1}
	startPriceRule   = Rule{Pattern: re(`(?:Boshlang.?ich\s*narx|Начальная\s*стоимость|Стартовая\s*стоимость|Начальная\s*цена)[^\d]*([\d\s,.]+)`), Group: 1}
	currentPriceRule = Rule{
		Pattern: re(`(?:Joriy\s*narx|Текущая\s*цена|Лучшее\s*предложение)[^\d\n]{0,20}([\d\s,.]+)`),
		Group:   1,
		// Two or more dots is a date that followed the label, not a price.
		Valid: func(v string) bool { return strings.Count(v, ".") < 2 },
	}
)

const categoryLabel = "Toifa:"

// AuctionCard is the summary read from an auction listing card.
type AuctionCard struct {
	Text       string
	LotID      string
	StartRaw   string
	CurrentRaw string
	Category   string
}

// ParseAuctionCard reads a card's rendered text without visiting the lot.
func ParseAuctionCard(raw string) AuctionCard {
	card := AuctionCard{
		Text:     Collapse(raw),
		StartRaw: "0",
		Category: models.UnspecifiedFem,
	}
	if v, ok := lotNumberRule.Match(card.Text); ok {
		card.LotID = v
	}
	if v, ok := startPriceRule.Match(card.Text); ok {
		card.StartRaw = v
	}
	if v, ok := currentPriceRule.Match(card.Text); ok {
		card.CurrentRaw = v
	}
	if _, after, ok := strings.Cut(raw, categoryLabel); ok {
		line, _, _ := strings.Cut(after, "\n")
		if line = strings.TrimSpace(line); line != "" {
			card.Category = line
		}
	}
	return card
}

// OrderCard is the summary read from an order listing card.
type OrderCard struct {
	Company   string
	Status    string
	Title     string
	BudgetRaw string
}

const budgetLabel = "Бюджет"

// budgetOffset is the distance in lines from the budget label to its amount;
// the lines in between hold the label's decorations.
const budgetOffset = 3

// ParseOrderCard reads company, status and title from the first three lines
// and the budget amount relative to its label. Cards with fewer than three
// lines are not orders.
func ParseOrderCard(raw string) (OrderCard, bool) {
	lines := SplitLines(raw)
	if len(lines) < 3 {
		return OrderCard{}, false
	}
	card := OrderCard{Company: lines[0], Status: lines[1], Title: lines[2]}
	for k, line := range lines {
		if strings.Contains(line, budgetLabel) && k+budgetOffset < len(lines) {
			card.BudgetRaw = lines[k+budgetOffset]
			break
		}
	}
	return card, true
}
