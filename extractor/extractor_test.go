package extractor

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tender-scraper/models"
)

const etenderPage = `<html><head><title>Lot</title><script>var x = 1;</script></head><body>
<h1>Лот № 555</h1>
<div class="lot__products__item"><div>1 - Ноутбук Lenovo ThinkPad</div><div>Цена за единицу</div></div>
<div class="lot__products__item"><div>2 - Монитор Dell 24</div></div>
<h4>1 - Ноутбук Lenovo ThinkPad</h4>
<h5>3 - x</h5>
<table><tr><td>1</td><td>x</td><td>y</td><td>Продукты программные</td></tr></table>
<p>Наименование заказчика: ООО Тест Компани Telefon: +998 71 123-45-67</p>
<p>ИНН: 123456789</p>
<p>Начало: 01.02.2025 10:00</p>
<p>Окончание: 10.02.2025 18:00</p>
<p>Начальная цена 6 000 000,00 UZS</p>
<p>Yetkazib berish muddati: 30 kun</p>
</body></html>`

func TestExtractEtender(t *testing.T) {
	doc, err := NewDocument(etenderPage, "")
	require.NoError(t, err)

	f := New().Extract(doc, models.SourceEtender)

	assert.Equal(t, "1 - Ноутбук Lenovo ThinkPad\n2 - Монитор Dell 24", f.Items)
	assert.Equal(t, "Продукты программные", f.Category)
	assert.Equal(t, "ООО Тест Компани", f.Customer)
	assert.Equal(t, "123456789", f.TaxID)
	assert.Equal(t, "+998 71 123-45-67", f.Contact)
	assert.Equal(t, "01.02.2025 10:00", f.StartDate)
	assert.Equal(t, "10.02.2025 18:00", f.EndDate)
	assert.Equal(t, "6 000 000,00", f.PriceText)
	assert.Equal(t, "UZS", f.Currency)
	assert.Equal(t, "muddati: 30 kun", f.DeliveryTerm)
}

func TestExtractEtenderFallsBackToHeading(t *testing.T) {
	doc, err := NewDocument(`<html><body><h1> Поставка оборудования </h1><h4>Описание</h4></body></html>`, "")
	require.NoError(t, err)

	f := New().Extract(doc, models.SourceEtender)
	assert.Equal(t, "Поставка оборудования", f.Items)
	assert.Equal(t, models.UnspecifiedFem, f.Category)
}

func TestExtractEtenderForeignCurrency(t *testing.T) {
	doc := NewTextDocument("Лот 7\nБюджет лота: 12,500.00 USD\nПрочее 100 сум")
	f := New().Extract(doc, models.SourceEtender)

	assert.Equal(t, "12,500.00", f.PriceText)
	assert.Equal(t, "USD", f.Currency)
}

const xaridPage = `Lot raqami: 123456
Buyurtmachining nomi: Toshkent shahar IIB Manzil: Toshkent
Bog'lanish uchun: +998 90 123 45 67
Boshlanish sanasi 01.03.2025 09:00
Tugash sanasi 05.03.2025 18:00:00
Yetkazib berish muddati: 30 kun Status: faol
Ishtirokchilar soni: 4
1. Noutbuk HP (01.03.25)
2. Printer Canon (01.03.25-05.03.25)
Texnik yordam: +998 71 000 00 00
Участники: 99`

func TestExtractXarid(t *testing.T) {
	f := New().Extract(NewTextDocument(xaridPage), models.SourceXarid)

	assert.Equal(t, "1. Noutbuk HP\n2. Printer Canon", f.Items)
	assert.Equal(t, "Toshkent shahar IIB", f.Customer)
	assert.Equal(t, "+998 90 123 45 67", f.Contact)
	assert.Equal(t, "30 kun", f.DeliveryTerm)
	assert.Equal(t, "01.03.2025 09:00", f.StartDate)
	assert.Equal(t, "05.03.2025 18:00:00", f.EndDate)
	assert.Equal(t, 4, f.Participants)
}

func TestExtractDefaultsWithoutLabels(t *testing.T) {
	ex := New()
	html, err := NewDocument(`<html><body><p>nothing useful here</p></body></html>`, "")
	require.NoError(t, err)

	assert.Equal(t, models.NewExtractedFields(), ex.Extract(html, models.SourceEtender))
	assert.Equal(t, models.NewExtractedFields(), ex.Extract(NewTextDocument("random words only"), models.SourceXarid))
	assert.Equal(t, models.NewExtractedFields(), ex.Extract(nil, models.SourceXarid))
}

func TestFieldPanicKeepsDefault(t *testing.T) {
	doc := NewTextDocument("Customer: ACME")
	out := models.NewExtractedFields()

	fd := Field{
		Chain: Chain{{Pattern: regexp.MustCompile(`Customer: (\w+)`), Group: 1}},
		Set:   func(*models.ExtractedFields, string) { panic("boom") },
	}
	assert.NotPanics(t, func() { fd.apply(doc, &out) })
	assert.Equal(t, models.Unspecified, out.Customer)
}

func TestChainFirstMatchWins(t *testing.T) {
	c := Chain{
		{Pattern: regexp.MustCompile(`Phone: (\d+)`), Group: 1},
		{Pattern: regexp.MustCompile(`Tel: (\d+)`), Group: 1},
	}
	v, ok := c.Apply("Tel: 222 Phone: 111")
	assert.True(t, ok)
	assert.Equal(t, "111", v)

	_, ok = c.Apply("no numbers")
	assert.False(t, ok)
}

func TestCapRunes(t *testing.T) {
	assert.Equal(t, "Прив", capRunes("Привет", 4))
	assert.Equal(t, "abc", capRunes("abc", 0))
}
