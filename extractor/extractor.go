package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"tender-scraper/models"
	"tender-scraper/services"
)

const (
	maxCustomerLen  = 150
	maxEtenderItems = 10
)

// Selectors for structural lookups on tender detail pages.
const (
	etenderItemSelector = ".lot__products__item, h4, h5, .card-title, .lot-title"
	etenderCategoryCell = "td:nth-child(4)"
)

var (
	numberedItemRegexp = regexp.MustCompile(`^\d+\s*-\s+`)
	datedItemRegexp    = regexp.MustCompile(`(?:^|\n)\s*(?:\d+[.\s]*)?([^\n]+?)\s*\(\d{2}\.\d{2}\.\d{2}[.\d-]*\)`)

	pricedAmountPattern = `(\d[\d\s,.]+)\s*(UZS|USD|RUB|EUR|so.?m|сум|ye)`
	contextPriceRegexp  = re(`(?:Boshlang|Start|Начальная|Бюджет)[\w\W]{0,50}?` + pricedAmountPattern)
	plainPriceRegexp    = regexp.MustCompile(pricedAmountPattern)
)

// Footer markers after which auction pages only carry support contacts.
var auctionFooterMarkers = []string{"Texnik yordam", "Call-markaz", "Ishonch telefoni", "Техническая поддержка"}

// Extractor holds the compiled field sets for every source. Build it once
// with New and share it.
type Extractor struct {
	fields map[models.Source][]Field
}

// New compiles the field rules.
func New() *Extractor {
	return &Extractor{
		fields: map[models.Source][]Field{
			models.SourceEtender: etenderFields(),
			models.SourceXarid:   xaridFields(),
		},
	}
}

// Extract fills ExtractedFields for a detail page. Fields that cannot be
// found keep their placeholder; extraction itself never fails.
func (e *Extractor) Extract(doc *Document, source models.Source) models.ExtractedFields {
	out := models.NewExtractedFields()
	if doc == nil {
		return out
	}

	switch source {
	case models.SourceEtender:
		guard(func() { etenderStructure(doc, &out) })
		guard(func() { etenderPrice(doc.Text, &out) })
	case models.SourceXarid:
		guard(func() { xaridItems(doc.Raw, &out) })
		doc = stripAuctionFooter(doc)
	}

	for _, fd := range e.fields[source] {
		fd.apply(doc, &out)
	}
	return out
}

func guard(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

func etenderFields() []Field {
	return []Field{
		{
			Chain: Chain{{
				Pattern: re(`(?:Buyurtmachi nomi|Name of the customer|Наименование заказчика)[\s:]+([^\n\r]+?)(?:Buyurtmachi|Telefon|Manzil|Address|Stir|Rasmiylashtirish|Takliflarni|Ishtirokchi|Eng yaxshi|$)`),
				Group:   1,
			}},
			MaxLen: maxCustomerLen,
			Set:    func(f *models.ExtractedFields, v string) { f.Customer = v },
		},
		{
			Chain: Chain{{Pattern: re(`(?:STIR|INN|ИНН)[\s:]+(\d{9})`), Group: 1}},
			Set:   func(f *models.ExtractedFields, v string) { f.TaxID = v },
		},
		{
			Chain: Chain{{Pattern: re(`(?:Boshlanish|Start|Начало)[\w\W]{0,60}?(\d{2}[.-]\d{2}[.-]\d{4}(?:\s*\d{2}:\d{2})?)`), Group: 1}},
			Set:   func(f *models.ExtractedFields, v string) { f.StartDate = v },
		},
		{
			Chain: Chain{{Pattern: re(`(?:Tugash|End|Окончани|Muddat)[\w\W]{0,60}?(\d{2}[.-]\d{2}[.-]\d{4}(?:\s*\d{2}:\d{2})?)`), Group: 1}},
			Set:   func(f *models.ExtractedFields, v string) { f.EndDate = v },
		},
		{
			Chain: Chain{{Pattern: re(`(?:Telefon|Phone|Телефон)[\s:]+([+\d()\s-]{9,20})`), Group: 1}},
			Set:   func(f *models.ExtractedFields, v string) { f.Contact = v },
		},
		{
			Chain: Chain{{Pattern: re(`(?:Muddati|Yetkazib|Delivery|Срок)[\s:]+([\p{L}\p{N}_\s]+?)(?:kun|day|oy|мес|$)`)}},
			Set:   func(f *models.ExtractedFields, v string) { f.DeliveryTerm = v },
		},
	}
}

func xaridFields() []Field {
	return []Field{
		{
			Chain:  Chain{{Pattern: re(`(?:Buyurtmachining\s*nomi|Наименование\s*заказчика)\s*:?\s*(.*?)(?:Boshlanish|Start|Дата|Manzil|Адрес)`), Group: 1}},
			MaxLen: maxCustomerLen,
			Set:    func(f *models.ExtractedFields, v string) { f.Customer = v },
		},
		{
			Chain: Chain{{Pattern: re(`Bog.?lanish\s*uchun\s*:?\s*([+\d()\s-]{7,25})`), Group: 1, Valid: hasDigit}},
			Set:   func(f *models.ExtractedFields, v string) { f.Contact = v },
		},
		{
			Chain: Chain{{Pattern: re(`(?:Yetkazib\s*berish\s*muddati|Срок\s*поставки)\s*:?\s*(.*?)(?:Fayl|Status|Статус)`), Group: 1}},
			Set:   func(f *models.ExtractedFields, v string) { f.DeliveryTerm = v },
		},
		{
			Chain: Chain{{Pattern: re(`(?:Boshlanish\s*sanasi|Дата\s*начала).*?(\d{2}\.\d{2}\.\d{4}\s*\d{2}:\d{2}(?::\d{2})?)`), Group: 1}},
			Set:   func(f *models.ExtractedFields, v string) { f.StartDate = v },
		},
		{
			Chain: Chain{{Pattern: re(`(?:Tugash\s*sanasi|Дата\s*окончания).*?(\d{2}\.\d{2}\.\d{4}\s*\d{2}:\d{2}(?::\d{2})?)`), Group: 1}},
			Set:   func(f *models.ExtractedFields, v string) { f.EndDate = v },
		},
		{
			Chain: Chain{{Pattern: re(`(?:Ishtirokchilar\s*soni|Участники).*?(\d+)`), Group: 1}},
			Set: func(f *models.ExtractedFields, v string) {
				if n, err := strconv.Atoi(v); err == nil {
					f.Participants = n
				}
			},
		},
	}
}

// etenderStructure reads the numbered item list and the qualification cell.
func etenderStructure(doc *Document, out *models.ExtractedFields) {
	var items []string
	seen := make(map[string]struct{})
	for _, block := range doc.Texts(etenderItemSelector) {
		for _, line := range SplitLines(block) {
			if !numberedItemRegexp.MatchString(line) || utf8.RuneCountInString(line) <= 5 {
				continue
			}
			if _, dup := seen[line]; dup {
				continue
			}
			seen[line] = struct{}{}
			items = append(items, line)
		}
	}

	switch {
	case len(items) > 0:
		if len(items) > maxEtenderItems {
			items = items[:maxEtenderItems]
		}
		out.Items = strings.Join(items, "\n")
	default:
		if h1, ok := doc.FirstText("h1"); ok {
			out.Items = h1
		}
	}

	if cat, ok := doc.FirstText(etenderCategoryCell); ok {
		out.Category = cat
	}
}

// etenderPrice prefers an amount near a price label and falls back to the
// first amount with a currency anywhere on the page.
func etenderPrice(text string, out *models.ExtractedFields) {
	m := contextPriceRegexp.FindStringSubmatch(text)
	if m == nil {
		m = plainPriceRegexp.FindStringSubmatch(text)
	}
	if m == nil {
		return
	}
	out.PriceText = strings.TrimSpace(m[1])
	out.Currency = services.NormalizeCurrency(m[2])
}

// xaridItems builds a numbered list from "name (dd.mm.yy...)" lines.
func xaridItems(raw string, out *models.ExtractedFields) {
	var items []string
	for _, m := range datedItemRegexp.FindAllStringSubmatch(raw, -1) {
		name := strings.TrimSpace(m[1])
		if utf8.RuneCountInString(name) > 2 {
			items = append(items, strconv.Itoa(len(items)+1)+". "+name)
		}
	}
	if len(items) > 0 {
		out.Items = strings.Join(items, "\n")
	}
}

func stripAuctionFooter(doc *Document) *Document {
	raw := doc.Raw
	for _, marker := range auctionFooterMarkers {
		if i := strings.Index(raw, marker); i >= 0 {
			raw = raw[:i]
		}
	}
	if raw == doc.Raw {
		return doc
	}
	return &Document{Raw: raw, Text: Collapse(raw), dom: doc.dom}
}
