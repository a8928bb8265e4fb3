// Package etender crawls the tender marketplace at etender.uzex.uz.
package etender

import (
	"context"
	"path"
	"time"

	"tender-scraper/models"
	"tender-scraper/scraper"
	"tender-scraper/services"
	"tender-scraper/utils"
)

const (
	baseURL      = "https://etender.uzex.uz"
	indexURL     = baseURL + "/lots/1/0"
	linkSelector = "a[href^='/lot/']"
	nextSelector = "li.pagination-next a"
	kind         = "Тендер"
)

var policy = services.Policy{Category: services.CategoryQualification, CheckPrice: true}

// Adapter walks lot links. The qualification and the budget only appear on
// the lot page, so every unknown lot costs one detail load.
type Adapter struct {
	deps *scraper.Deps
}

// New creates an Adapter.
func New(deps *scraper.Deps) *Adapter {
	return &Adapter{deps: deps}
}

func (a *Adapter) Source() models.Source { return models.SourceEtender }

// Run performs one pass over the lot index.
func (a *Adapter) Run(ctx context.Context, session scraper.Session) *models.SourceReport {
	started := time.Now()
	pass := scraper.NewPass(a.deps, models.SourceEtender)
	pass.Log.Info("checking %s", indexURL)
	return pass.Finish(started, a.run(ctx, session, pass))
}

func (a *Adapter) run(ctx context.Context, session scraper.Session, pass *scraper.Pass) error {
	index := session.Index()
	if err := index.Navigate(ctx, indexURL); err != nil {
		return err
	}

	visit := func(page int) (int, error) {
		if err := pass.WaitForListings(ctx, index, linkSelector, page); err != nil {
			return 0, err
		}
		hrefs, err := index.Attrs(ctx, linkSelector, "href")
		if err != nil {
			return 0, err
		}

		// A lot is usually linked more than once per card.
		seen := utils.NewURLSet()
		var links []string
		for _, href := range hrefs {
			if link := utils.ResolveURL(baseURL, href); link != "" && seen.Add(link) {
				links = append(links, link)
			}
		}
		if len(links) == 0 {
			return 0, scraper.ErrLastPage
		}
		pass.Log.Debug("page %d: %d lots", page, len(links))

		accepted := 0
		for _, link := range links {
			if err := ctx.Err(); err != nil {
				return accepted, err
			}
			if a.candidate(ctx, session, pass, link) == models.OutcomeAccepted {
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

func (a *Adapter) candidate(ctx context.Context, session scraper.Session, pass *scraper.Pass, url string) models.Outcome {
	return pass.Candidate(url, func() (models.Outcome, error) {
		if pass.Sink.IsKnown(ctx, url) {
			return models.OutcomeKnown, nil
		}

		doc, err := pass.Detail(ctx, session, url)
		if err != nil {
			return models.OutcomeFailed, err
		}
		fields := pass.Extractor.Extract(doc, models.SourceEtender)

		amount := services.NormalizePrice(fields.PriceText)
		if !pass.Filter.Accepts(policy, services.Candidate{
			Category: fields.Category,
			Price:    amount,
			Currency: fields.Currency,
		}) {
			return models.OutcomeRejected, nil
		}

		lotID := path.Base(url)
		region := pass.Filter.ResolveRegion(doc.Text)

		return pass.Sink.Deliver(ctx, &models.Tender{
			Listing: models.Listing{
				Source: models.SourceEtender,
				Title:  "Лот №" + lotID,
				Description: models.Description{
					Category:  fields.Category,
					Region:    region,
					Secondary: fields.Currency,
				}.Pack(),
				Price:     services.PriceWithCurrency(amount, fields.Currency),
				StartDate: fields.StartDate,
				EndDate:   fields.EndDate,
				URL:       url,
			},
			Fields:   fields,
			LotID:    lotID,
			Kind:     kind,
			Region:   region,
			Amount:   amount,
			Currency: fields.Currency,
			ParsedAt: pass.Time(),
		})
	})
}
