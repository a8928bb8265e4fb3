package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"tender-scraper/models"
)

// maxIntegerDigits bounds a believable price. Longer integer parts come from
// concatenated numbers (dates, phone numbers) and are discarded.
const maxIntegerDigits = 15

var nonNumericRegexp = regexp.MustCompile(`[^\d.]`)

// NormalizePrice converts a price written in any of the marketplace locales
// into a number. Unparseable input yields 0.
//
//	"1.234,56"   → 1234.56
//	"1,234.56"   → 1234.56
//	"5 000 000"  → 5000000
//	"12,5"       → 12.5
func NormalizePrice(raw string) float64 {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	if strings.HasSuffix(clean, ".00") || strings.HasSuffix(clean, ",00") {
		clean = clean[:len(clean)-3]
	}

	comma := strings.Index(clean, ",")
	dot := strings.Index(clean, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma < dot {
			clean = strings.ReplaceAll(clean, ",", "")
		} else {
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.ReplaceAll(clean, ",", ".")
		}
	case comma >= 0:
		// Exactly three digits after the last comma means a thousands group.
		if utf8.RuneCountInString(clean[strings.LastIndex(clean, ","):]) == 4 {
			clean = strings.ReplaceAll(clean, ",", "")
		} else {
			clean = strings.ReplaceAll(clean, ",", ".")
		}
	}

	clean = nonNumericRegexp.ReplaceAllString(clean, "")
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || v < 0 {
		return 0
	}
	if len(strconv.FormatFloat(math.Trunc(v), 'f', 0, 64)) > maxIntegerDigits {
		return 0
	}
	return v
}

// DisplayPrice renders raw price text as "1 234 567,89". Missing prices and
// explicit "нет" markers become the neutral placeholder.
func DisplayPrice(raw string) string {
	if strings.TrimSpace(raw) == "" || strings.Contains(strings.ToLower(raw), "нет") {
		return models.UnspecifiedNeut
	}
	v := NormalizePrice(raw)
	if v == 0 {
		return models.UnspecifiedNeut
	}
	return FormatAmount(v)
}

// FormatAmount groups thousands with spaces and uses a decimal comma.
func FormatAmount(v float64) string {
	s := strconv.FormatFloat(math.Abs(v), 'f', 2, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if v < 0 {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

// NormalizeCurrency maps local spellings onto ISO codes.
func NormalizeCurrency(token string) string {
	up := strings.ToUpper(strings.TrimSpace(token))
	switch {
	case up == "":
		return models.LocalCurrency
	case strings.Contains(up, "SO"), strings.Contains(up, "СУМ"):
		return models.LocalCurrency
	case strings.Contains(up, "YE"):
		return "USD"
	}
	return up
}

// PriceWithCurrency is the stored price form, e.g. "6000000 UZS".
func PriceWithCurrency(v float64, currency string) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + currency
}
