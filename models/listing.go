package models

import (
	"strings"
	"time"
)

// Source identifies the marketplace a listing was harvested from.
type Source string

const (
	SourceXarid    Source = "Xarid.uz"
	SourceEtender  Source = "Etender"
	SourceITMarket Source = "IT-Market"
)

// AllSources lists the marketplaces in the order they are swept.
var AllSources = []Source{SourceXarid, SourceEtender, SourceITMarket}

func (s Source) String() string { return string(s) }

// ParseSource maps a configured name back to a Source.
func ParseSource(name string) (Source, bool) {
	for _, s := range AllSources {
		if strings.EqualFold(string(s), strings.TrimSpace(name)) {
			return s, true
		}
	}
	return "", false
}

// Listing is the persisted record. The URL is its identity: once stored it is
// never updated or deleted by the pipeline.
type Listing struct {
	ID          int64
	Source      Source
	Title       string
	Description string
	Price       string
	StartDate   string
	EndDate     string
	URL         string
	CreatedAt   time.Time
}

const descriptionSeparator = "||"

// Description is the structured form of Listing.Description.
// Secondary carries the currency (tender-style) or live price (auction-style).
type Description struct {
	Category  string
	Region    string
	Secondary string
}

// Pack joins the parts with "||". A description without region and secondary
// parts is stored as the bare category.
func (d Description) Pack() string {
	if d.Region == "" && d.Secondary == "" {
		return d.Category
	}
	return strings.Join([]string{d.Category, d.Region, d.Secondary}, descriptionSeparator)
}

// ParseDescription reverses Pack. Missing parts stay empty.
func ParseDescription(s string) Description {
	parts := strings.SplitN(s, descriptionSeparator, 3)
	var d Description
	d.Category = parts[0]
	if len(parts) > 1 {
		d.Region = parts[1]
	}
	if len(parts) > 2 {
		d.Secondary = parts[2]
	}
	return d
}
