package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tender-scraper/models"
)

func TestParseAuctionCard(t *testing.T) {
	raw := "Lot raqami: 24123456\nToifa: Kompyuter uskunalari\nПродукты программные\n" +
		"Boshlang'ich narx: 7 500 000,00 so'm\nJoriy narx: 7 000 000,00 so'm\nManzil: Andijan"

	card := ParseAuctionCard(raw)

	assert.Equal(t, "24123456", card.LotID)
	assert.Equal(t, "7 500 000,00", card.StartRaw)
	assert.Equal(t, "7 000 000,00", card.CurrentRaw)
	assert.Equal(t, "Kompyuter uskunalari", card.Category)
	assert.Contains(t, card.Text, "Продукты программные Boshlang'ich")
}

func TestParseAuctionCardIgnoresDateAsCurrentPrice(t *testing.T) {
	card := ParseAuctionCard("Lot raqami: 1\nНачальная цена: 9 000 000\nТекущая цена: 25.12.2025")

	assert.Equal(t, "9 000 000", card.StartRaw)
	assert.Empty(t, card.CurrentRaw)
	assert.Equal(t, models.UnspecifiedFem, card.Category)
}

func TestParseAuctionCardWithoutLabels(t *testing.T) {
	card := ParseAuctionCard("just a card")

	assert.Empty(t, card.LotID)
	assert.Equal(t, "0", card.StartRaw)
}

func TestParseOrderCard(t *testing.T) {
	raw := "ООО Альфа\nОткрыт\nРазработка CRM\nБюджет\nсум\nот\n15 000 000\nПодробнее"

	card, ok := ParseOrderCard(raw)

	assert.True(t, ok)
	assert.Equal(t, "ООО Альфа", card.Company)
	assert.Equal(t, "Открыт", card.Status)
	assert.Equal(t, "Разработка CRM", card.Title)
	assert.Equal(t, "15 000 000", card.BudgetRaw)
}

func TestParseOrderCardNegotiable(t *testing.T) {
	card, ok := ParseOrderCard("ООО Бета\n\nЗакрыт\nЛендинг\nБюджет")

	assert.True(t, ok)
	assert.Empty(t, card.BudgetRaw)
}

func TestParseOrderCardTooShort(t *testing.T) {
	_, ok := ParseOrderCard("only\ntwo")
	assert.False(t, ok)
}
