package models

import "time"

// Placeholders used when a field could not be found on the page.
const (
	Unspecified     = "Не указан"
	UnspecifiedFem  = "Не указана"
	UnspecifiedNeut = "Не указано"

	NoBids     = "Нет ставок"
	Negotiable = "Договорная"
	NoDate     = "-"

	LocalCurrency = "UZS"
)

// ExtractedFields is the per-candidate result of heuristic extraction.
// Every field always holds either a value or its placeholder.
type ExtractedFields struct {
	Customer     string
	TaxID        string
	Contact      string
	StartDate    string
	EndDate      string
	DeliveryTerm string
	Items        string
	Category     string
	Participants int
	PriceText    string
	Currency     string
}

// NewExtractedFields returns a value with every field at its placeholder.
func NewExtractedFields() ExtractedFields {
	return ExtractedFields{
		Customer:     Unspecified,
		TaxID:        Unspecified,
		Contact:      Unspecified,
		StartDate:    UnspecifiedFem,
		EndDate:      UnspecifiedFem,
		DeliveryTerm: Unspecified,
		Items:        UnspecifiedNeut,
		Category:     UnspecifiedFem,
		Participants: 0,
		PriceText:    "0",
		Currency:     LocalCurrency,
	}
}

// Tender is an accepted candidate on its way to the sinks.
type Tender struct {
	Listing

	Fields       ExtractedFields
	LotID        string
	Kind         string
	Region       string
	Amount       float64
	Currency     string
	CurrentPrice string
	CurrentValue float64
	Status       string
	ParsedAt     time.Time
}

// Outcome is the fate of a single candidate within a sweep.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeKnown    Outcome = "known"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
)

// Outcomes lists every outcome in report order.
var Outcomes = []Outcome{OutcomeAccepted, OutcomeKnown, OutcomeRejected, OutcomeFailed}

// User is a chat user of the browsing layer.
type User struct {
	ID       int64
	Phone    string
	Username string
}

// Favorite is a listing a user saved, newest first when listed.
type Favorite struct {
	TenderID int64
	Title    string
	Price    string
	URL      string
	Source   Source
	SavedAt  time.Time
}
