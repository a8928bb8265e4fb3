// Package xarid crawls the auction marketplace at xarid.uzex.uz.
package xarid

import (
	"context"
	"time"

	"tender-scraper/extractor"
	"tender-scraper/models"
	"tender-scraper/scraper"
	"tender-scraper/services"
)

const (
	indexURL     = "https://xarid.uzex.uz/auction"
	detailURL    = "https://xarid.uzex.uz/auction/detail/"
	cardSelector = ".lot-item"
	nextSelector = ".pagination-next, .ui-paginator-next"
	kind         = "Аукцион"
)

var policy = services.Policy{Category: services.CategoryKeywords, CheckPrice: true}

// Adapter walks auction cards. Category and starting price are judged from
// the card itself so that rejected lots never cost a detail page load.
type Adapter struct {
	deps *scraper.Deps
}

// New creates an Adapter.
func New(deps *scraper.Deps) *Adapter {
	return &Adapter{deps: deps}
}

func (a *Adapter) Source() models.Source { return models.SourceXarid }

// Run performs one pass over the auction index.
func (a *Adapter) Run(ctx context.Context, session scraper.Session) *models.SourceReport {
	started := time.Now()
	pass := scraper.NewPass(a.deps, models.SourceXarid)
	pass.Log.Info("checking %s", indexURL)
	return pass.Finish(started, a.run(ctx, session, pass))
}

func (a *Adapter) run(ctx context.Context, session scraper.Session, pass *scraper.Pass) error {
	index := session.Index()
	if err := index.Navigate(ctx, indexURL); err != nil {
		return err
	}

	visit := func(page int) (int, error) {
		if err := pass.WaitForListings(ctx, index, cardSelector, page); err != nil {
			return 0, err
		}
		cards, err := index.Cards(ctx, cardSelector, "")
		if err != nil {
			return 0, err
		}
		if len(cards) == 0 {
			return 0, scraper.ErrLastPage
		}
		pass.Log.Debug("page %d: %d cards", page, len(cards))

		accepted := 0
		for _, card := range cards {
			if err := ctx.Err(); err != nil {
				return accepted, err
			}
			if a.candidate(ctx, session, pass, card.Text) == models.OutcomeAccepted {
				accepted++
			}
		}
		return accepted, nil
	}
	next := func() (bool, error) {
		return pass.Advance(ctx, index, nextSelector)
	}
	return pass.Paginate(ctx, visit, next)
}

func (a *Adapter) candidate(ctx context.Context, session scraper.Session, pass *scraper.Pass, raw string) models.Outcome {
	card := extractor.ParseAuctionCard(raw)
	url := DetailURL(card.LotID)

	return pass.Candidate(url, func() (models.Outcome, error) {
		start := services.NormalizePrice(card.StartRaw)
		if card.LotID == "" || !pass.Filter.Accepts(policy, services.Candidate{
			Category: card.Text,
			Price:    start,
			Currency: models.LocalCurrency,
		}) {
			return models.OutcomeRejected, nil
		}
		if pass.Sink.IsKnown(ctx, url) {
			return models.OutcomeKnown, nil
		}

		doc, err := pass.Detail(ctx, session, url)
		if err != nil {
			return models.OutcomeFailed, err
		}
		fields := pass.Extractor.Extract(doc, models.SourceXarid)
		fields.Category = card.Category

		current, currentValue := models.NoBids, 0.0
		if card.CurrentRaw != "" {
			current = services.DisplayPrice(card.CurrentRaw)
			currentValue = services.NormalizePrice(card.CurrentRaw)
		}
		region := pass.Filter.ResolveRegion(card.Text)
		startDate, endDate := orDash(fields.StartDate), orDash(fields.EndDate)

		return pass.Sink.Deliver(ctx, &models.Tender{
			Listing: models.Listing{
				Source: models.SourceXarid,
				Title:  "Лот №" + card.LotID,
				Description: models.Description{
					Category:  card.Category,
					Region:    region,
					Secondary: current,
				}.Pack(),
				Price:     services.PriceWithCurrency(start, models.LocalCurrency),
				StartDate: startDate,
				EndDate:   endDate,
				URL:       url,
			},
			Fields:       fields,
			LotID:        card.LotID,
			Kind:         kind,
			Region:       region,
			Amount:       start,
			Currency:     models.LocalCurrency,
			CurrentPrice: current,
			CurrentValue: currentValue,
			ParsedAt:     pass.Time(),
		})
	})
}

// DetailURL builds the detail page address from a lot number. The site
// routes by the last six digits.
func DetailURL(lotID string) string {
	if len(lotID) > 6 {
		lotID = lotID[len(lotID)-6:]
	}
	return detailURL + lotID
}

func orDash(date string) string {
	if date == models.UnspecifiedFem {
		return models.NoDate
	}
	return date
}
