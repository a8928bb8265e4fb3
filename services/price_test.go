package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tender-scraper/models"
)

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"1.234,56", 1234.56},
		{"1,234.56", 1234.56},
		{"5 000 000", 5000000},
		{"5 000 000,00", 5000000},
		{"6 000 000.00", 6000000},
		{"1,234", 1234},
		{"1,234,567", 1234567},
		{"12,5", 12.5},
		{"250.75", 250.75},
		{"garbage", 0},
		{"", 0},
		{"1234567890123456", 0},
		{"123456789012345", 123456789012345},
	}

	for _, tt := range tests {
		got := NormalizePrice(tt.raw)
		assert.InDelta(t, tt.want, got, 1e-9, "NormalizePrice(%q)", tt.raw)
	}
}

func TestNormalizePriceIdempotentOnDisplayForm(t *testing.T) {
	values := []float64{1234.56, 5000000, 0.5, 987654321.1, 100}
	for _, v := range values {
		assert.InDelta(t, v, NormalizePrice(FormatAmount(v)), 1e-9, "round trip of %v", v)
	}
}

func TestDisplayPrice(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1234567.89", "1 234 567,89"},
		{"5 000 000", "5 000 000,00"},
		{"999", "999,00"},
		{"", models.UnspecifiedNeut},
		{"Нет ставок", models.UnspecifiedNeut},
		{"abc", models.UnspecifiedNeut},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayPrice(tt.raw), "DisplayPrice(%q)", tt.raw)
	}
}

func TestNormalizeCurrency(t *testing.T) {
	tests := map[string]string{
		"so'm": "UZS",
		"сум":  "UZS",
		"UZS":  "UZS",
		"ye":   "USD",
		"usd":  "USD",
		"eur":  "EUR",
		"":     "UZS",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeCurrency(in), "NormalizeCurrency(%q)", in)
	}
}

func TestPriceWithCurrency(t *testing.T) {
	assert.Equal(t, "6000000 UZS", PriceWithCurrency(6000000, "UZS"))
	assert.Equal(t, "150.5 USD", PriceWithCurrency(150.5, "USD"))
}
