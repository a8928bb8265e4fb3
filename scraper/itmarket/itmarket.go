// Package itmarket crawls the order board at it-market.uz.
package itmarket

import (
	"context"
	"time"

	"tender-scraper/extractor"
	"tender-scraper/models"
	"tender-scraper/scraper"
	"tender-scraper/services"
	"tender-scraper/utils"
)

const (
	baseURL      = "https://it-market.uz"
	indexURL     = baseURL + "/order/"
	cardSelector = ".animated-card"
	linkSelector = ".stretched-link"
	kind         = "IT Заказ"
)

// Adapter reads orders straight from their cards. Orders are not filtered
// by category or budget and have no detail page.
type Adapter struct {
	deps *scraper.Deps
	// NextSelector enables pagination when the board grows a next control.
	NextSelector string
}

// New creates an Adapter that reads only the first page.
func New(deps *scraper.Deps) *Adapter {
	return &Adapter{deps: deps}
}

func (a *Adapter) Source() models.Source { return models.SourceITMarket }

// Run performs one pass over the order board.
func (a *Adapter) Run(ctx context.Context, session scraper.Session) *models.SourceReport {
	started := time.Now()
	pass := scraper.NewPass(a.deps, models.SourceITMarket)
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
		cards, err := index.Cards(ctx, cardSelector, linkSelector)
		if err != nil {
			return 0, err
		}
		if len(cards) == 0 {
			return 0, scraper.ErrLastPage
		}

		accepted := 0
		for _, card := range cards {
			if err := ctx.Err(); err != nil {
				return accepted, err
			}
			if a.candidate(ctx, pass, card) == models.OutcomeAccepted {
				accepted++
			}
		}
		return accepted, nil
	}
	next := func() (bool, error) {
		if a.NextSelector == "" {
			return false, nil
		}
		return pass.Advance(ctx, index, a.NextSelector)
	}
	return pass.Paginate(ctx, visit, next)
}

func (a *Adapter) candidate(ctx context.Context, pass *scraper.Pass, card scraper.Card) models.Outcome {
	url := utils.ResolveURL(baseURL, card.Href)

	return pass.Candidate(url, func() (models.Outcome, error) {
		// Without its own link an order has no identity to deduplicate on.
		if url == "" {
			return models.OutcomeRejected, nil
		}
		if pass.Sink.IsKnown(ctx, url) {
			return models.OutcomeKnown, nil
		}
		order, ok := extractor.ParseOrderCard(card.Text)
		if !ok {
			return models.OutcomeRejected, nil
		}

		price := models.Negotiable
		if order.BudgetRaw != "" {
			price = services.DisplayPrice(order.BudgetRaw)
		}
		fields := models.NewExtractedFields()
		fields.Customer = order.Company
		fields.PriceText = order.BudgetRaw

		return pass.Sink.Deliver(ctx, &models.Tender{
			Listing: models.Listing{
				Source:      models.SourceITMarket,
				Title:       order.Title,
				Description: models.Description{Category: order.Company}.Pack(),
				Price:       price,
				StartDate:   models.NoDate,
				EndDate:     models.NoDate,
				URL:         url,
			},
			Fields:   fields,
			Kind:     kind,
			Region:   models.Unspecified,
			Amount:   services.NormalizePrice(order.BudgetRaw),
			Currency: models.LocalCurrency,
			Status:   order.Status,
			ParsedAt: pass.Time(),
		})
	})
}
