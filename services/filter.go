package services

import (
	"strings"

	"tender-scraper/models"
)

// Rules is the immutable business-rule set handed to a Filter.
type Rules struct {
	Keywords        []string
	Qualifications  []string
	Regions         []string
	MinPrice        float64
	MinForeignPrice float64
	LocalCurrency   string
}

// DefaultRules returns the production category, region and price rules.
func DefaultRules() Rules {
	return Rules{
		Keywords: []string{
			"Услуги печатные",
			"звуко- и видеозаписей",
			"программных средств",
			"Оборудование компьютерное",
			"электронное и оптическое",
			"Оборудование электрическое",
			"Услуги телекоммуникационные",
			"Продукты программные",
			"разработке программного обеспечения",
			"информационных технологий",
			"Услуги головных офисов",
			"услуги консультативные",
			"научными исследованиями",
			"экспериментальными разработками",
			"Услуги рекламные",
			"исследованию конъюнктуры рынка",
			"Услуги профессиональные, научные и технические",
			"государственного управления",
			"военной безопасности",
			"социального обеспечения",
			"Услуги в области образования",
			"Услуги в области здравоохранения",
		},
		Qualifications: []string{
			"Оборудование компьютерное, электронное и оптическое",
			"Оборудование электрическое",
			"Продукты программные",
			"услуги по разработке программного обеспечения",
			"Консультационные и аналогические услуги в области информационных технологий",
			"Услуги в области информационных технологий",
		},
		Regions: []string{
			"Respublika Karakalpakstan", "Andijan", "Bukhara", "Jizzakh", "Qashqadaryo",
			"Navoiy", "Namangan", "Samarkand", "Surxondaryo", "Sirdaryo", "Tashkent",
			"Fergana", "Xorazm", "Toshkent shahri",
			"Бухарская", "Ташкентская", "Самаркандская", "Ферганская", "Андижанская",
			"Наманганская", "Джизакская", "Кашкадарьинская", "Навоийская", "Сырдарьинская",
			"Сурхандарьинская", "Хорезмская", "Республика Каракалпакстан",
			"г.Ташкент", "г. Ташкент", "Toshkent viloyati", "Tashkent region",
		},
		MinPrice:        5_000_000,
		MinForeignPrice: 100,
		LocalCurrency:   models.LocalCurrency,
	}
}

// CategoryCheck selects how a source's category is matched.
type CategoryCheck int

const (
	// CategoryAny accepts every category.
	CategoryAny CategoryCheck = iota
	// CategoryKeywords looks for any allow-listed keyword in free text.
	CategoryKeywords
	// CategoryQualification requires an allow-listed phrase inside the
	// qualification label.
	CategoryQualification
)

// Policy is the per-source combination of checks.
type Policy struct {
	Category   CategoryCheck
	CheckPrice bool
}

// Candidate is the minimum a Filter needs to decide.
type Candidate struct {
	Category string
	Price    float64
	Currency string
}

// Filter applies Rules. It holds lower-cased copies of the lists and is safe
// for concurrent use.
type Filter struct {
	rules          Rules
	keywords       []string
	qualifications []string
	regions        []string
}

// NewFilter prepares a Filter for the given rules.
func NewFilter(rules Rules) *Filter {
	if rules.LocalCurrency == "" {
		rules.LocalCurrency = models.LocalCurrency
	}
	return &Filter{
		rules:          rules,
		keywords:       lowerAll(rules.Keywords),
		qualifications: lowerAll(rules.Qualifications),
		regions:        lowerAll(rules.Regions),
	}
}

// MatchesKeywords reports whether text contains any keyword, ignoring case.
func (f *Filter) MatchesKeywords(text string) bool {
	return containsAny(strings.ToLower(text), f.keywords)
}

// MatchesQualification reports whether the qualification label contains any
// allow-listed phrase, ignoring case.
func (f *Filter) MatchesQualification(label string) bool {
	return containsAny(strings.ToLower(label), f.qualifications)
}

// ResolveRegion returns the first configured region found in text, or the
// placeholder. The result is informational and never filters.
func (f *Filter) ResolveRegion(text string) string {
	lower := strings.ToLower(text)
	for i, r := range f.regions {
		if strings.Contains(lower, r) {
			return f.rules.Regions[i]
		}
	}
	return models.Unspecified
}

// PriceAccepted applies the currency-sensitive minimum.
func (f *Filter) PriceAccepted(price float64, currency string) bool {
	limit := f.rules.MinPrice
	if currency != "" && !strings.EqualFold(currency, f.rules.LocalCurrency) {
		limit = f.rules.MinForeignPrice
	}
	return price >= limit
}

// MatchesCategory applies the category part of a policy.
func (f *Filter) MatchesCategory(check CategoryCheck, category string) bool {
	switch check {
	case CategoryKeywords:
		return f.MatchesKeywords(category)
	case CategoryQualification:
		return f.MatchesQualification(category)
	default:
		return true
	}
}

// Accepts reports whether a candidate passes every check in the policy.
func (f *Filter) Accepts(p Policy, c Candidate) bool {
	if !f.MatchesCategory(p.Category, c.Category) {
		return false
	}
	if p.CheckPrice && !f.PriceAccepted(c.Price, c.Currency) {
		return false
	}
	return true
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
