package sinks

import (
	"fmt"
	"html"
	"math"
	"strings"

	"tender-scraper/models"
	"tender-scraper/services"
)

const sheetTimeLayout = "02.01.2006 15:04"

var sheetHeaders = map[models.Source][]string{
	models.SourceEtender: {
		"Дата парсинга", "Тип анкеты", "Номер лота", "Описание товаров",
		"Квалификация (Toifa)", "ИНН Заказчика", "Заказчик", "Начальная цена",
		"Валюта", "Регион", "Дата начала", "Срок окончания", "Срок доставки",
		"Контакты", "Ссылка",
	},
	models.SourceXarid: {
		"Дата парсинга", "Тип анкеты", "Номер лота", "Описание товаров",
		"Название/Квалификация", "Заказчик", "Начальная цена", "Текущая цена",
		"Регион", "Дата начала", "Срок окончания", "Срок доставки",
		"Участников", "Контакты", "Ссылка",
	},
	models.SourceITMarket: {
		"Дата парсинга", "Заказчик", "Статус", "Задача", "Бюджет", "Ссылка",
	},
}

// SheetHeader is the fixed first row of a source's worksheet.
func SheetHeader(source models.Source) []string {
	return sheetHeaders[source]
}

// SheetRow renders a tender in its source's column order.
func SheetRow(t *models.Tender) []any {
	parsed := t.ParsedAt.Format(sheetTimeLayout)
	f := t.Fields

	switch t.Source {
	case models.SourceEtender:
		return []any{
			parsed, t.Kind, t.LotID, f.Items, f.Category, f.TaxID, f.Customer,
			math.Trunc(t.Amount), t.Currency, t.Region, t.StartDate, t.EndDate,
			f.DeliveryTerm, f.Contact, t.URL,
		}
	case models.SourceXarid:
		return []any{
			parsed, t.Kind, t.LotID, f.Items, f.Category, f.Customer,
			math.Trunc(t.Amount), math.Trunc(t.CurrentValue), t.Region,
			t.StartDate, t.EndDate, f.DeliveryTerm, f.Participants, f.Contact, t.URL,
		}
	default:
		return []any{parsed, f.Customer, t.Status, t.Title, t.Price, t.URL}
	}
}

// Message is the HTML notification body for a tender.
func Message(t *models.Tender) string {
	e := html.EscapeString
	f := t.Fields
	var b strings.Builder

	switch t.Source {
	case models.SourceEtender:
		fmt.Fprintf(&b, "<b>Тип анкеты: %s</b>\nИсточник: etender.uzex.uz\n\n", e(t.Kind))
		fmt.Fprintf(&b, "🔢 <b>Номер лота:</b> %s\n", e(t.LotID))
		fmt.Fprintf(&b, "📂 <b>Описание:</b> %s...\n", e(prefix(f.Items, 200)))
		fmt.Fprintf(&b, "📁 <b>Квалификация:</b> %s\n", e(f.Category))
		fmt.Fprintf(&b, "📍 <b>Район:</b> %s\n", e(t.Region))
		fmt.Fprintf(&b, "📅 <b>Дата начала:</b> %s\n", e(t.StartDate))
		fmt.Fprintf(&b, "⏳ <b>Срок окончания:</b> %s\n", e(t.EndDate))
		fmt.Fprintf(&b, "💰 <b>Бюджет:</b> %s %s\n", amount(t.Amount), e(t.Currency))
		fmt.Fprintf(&b, "🔗 <b>Ссылка:</b> %s\n\n", e(t.URL))
		fmt.Fprintf(&b, "🏢 <b>Заказчик:</b> %s\n", e(f.Customer))
		fmt.Fprintf(&b, "🔢 <b>ИНН:</b> %s\n", e(f.TaxID))
		fmt.Fprintf(&b, "📞 <b>Контакты:</b> %s", e(f.Contact))

	case models.SourceXarid:
		fmt.Fprintf(&b, "<b>Тип анкеты: %s</b>\nИсточник: xarid.uz\n\n", e(t.Kind))
		fmt.Fprintf(&b, "🔢 <b>Номер лота:</b> %s\n", e(t.LotID))
		fmt.Fprintf(&b, "📂 <b>Квалификация:</b> %s\n", e(f.Category))
		fmt.Fprintf(&b, "📍 <b>Район:</b> %s\n", e(t.Region))
		fmt.Fprintf(&b, "📅 <b>Дата начала:</b> %s\n", e(t.StartDate))
		fmt.Fprintf(&b, "⏳ <b>Срок окончания:</b> %s\n", e(t.EndDate))
		fmt.Fprintf(&b, "🚚 <b>Срок доставки:</b> %s\n", e(f.DeliveryTerm))
		fmt.Fprintf(&b, "💰 <b>Начальная цена:</b> %s %s\n", amount(t.Amount), e(t.Currency))
		fmt.Fprintf(&b, "📉 <b>Текущая цена:</b> %s\n", e(t.CurrentPrice))
		fmt.Fprintf(&b, "🔗 <b>Ссылка:</b> %s\n\n", e(t.URL))
		fmt.Fprintf(&b, "🏢 <b>Заказчик:</b> %s\n", e(f.Customer))
		fmt.Fprintf(&b, "📞 <b>Контакты:</b> %s\n", e(f.Contact))
		fmt.Fprintf(&b, "👥 <b>Участников:</b> %d\n", f.Participants)
		fmt.Fprintf(&b, "📦 <b>Товары:</b>\n%s...", e(prefix(f.Items, 300)))

	default:
		fmt.Fprintf(&b, "<b>Тип анкеты: %s</b>\n\n", e(t.Kind))
		fmt.Fprintf(&b, "🏢 <b>Заказчик:</b> %s\n", e(f.Customer))
		fmt.Fprintf(&b, "ℹ️ <b>Статус:</b> %s\n", e(t.Status))
		fmt.Fprintf(&b, "🛠 <b>Задача:</b> %s\n", e(t.Title))
		fmt.Fprintf(&b, "💰 <b>Бюджет:</b> %s\n", e(t.Price))
		fmt.Fprintf(&b, "🔗 <b>Ссылка:</b> %s", e(t.URL))
	}
	return b.String()
}

func amount(v float64) string {
	if v == 0 {
		return models.UnspecifiedNeut
	}
	return services.FormatAmount(v)
}

// prefix keeps at most n runes.
func prefix(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
