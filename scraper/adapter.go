package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tender-scraper/extractor"
	"tender-scraper/metrics"
	"tender-scraper/models"
	"tender-scraper/services"
	"tender-scraper/utils"
)

// Adapter crawls one marketplace. Run never panics and never returns an
// error; failures end up in the report.
type Adapter interface {
	Source() models.Source
	Run(ctx context.Context, session Session) *models.SourceReport
}

// Sink is where accepted candidates go. IsKnown is the early check made
// before a detail page is opened; Deliver is authoritative.
type Sink interface {
	IsKnown(ctx context.Context, url string) bool
	Deliver(ctx context.Context, t *models.Tender) (models.Outcome, error)
}

// Limits bounds one adapter pass.
type Limits struct {
	MaxPages      int
	ListTimeout   time.Duration
	DetailTimeout time.Duration
	PageSettle    time.Duration
	DetailSettle  time.Duration
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxPages:      5,
		ListTimeout:   20 * time.Second,
		DetailTimeout: 45 * time.Second,
		PageSettle:    3 * time.Second,
		DetailSettle:  2500 * time.Millisecond,
	}
}

// Deps are shared by every adapter.
type Deps struct {
	Extractor *extractor.Extractor
	Filter    *services.Filter
	Sink      Sink
	Pacer     *utils.Pacer
	Metrics   *metrics.Metrics
	Logger    *utils.Logger
	Limits    Limits
	Now       func() time.Time
}

// Time returns the current time through Now when set.
func (d *Deps) Time() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Pass carries the state of one adapter run.
type Pass struct {
	*Deps
	Report *models.SourceReport
	Log    *utils.Logger
}

// NewPass starts the report for source.
func NewPass(d *Deps, source models.Source) *Pass {
	return &Pass{
		Deps:   d,
		Report: models.NewSourceReport(source),
		Log:    d.Logger.ForSource(source.String()),
	}
}

// Finish stamps the duration and logs the navigation error, if any.
func (p *Pass) Finish(started time.Time, err error) *models.SourceReport {
	p.Report.Duration = time.Since(started)
	if err != nil {
		p.Report.Err = err
		p.Metrics.IncNavigationError(ErrorKind(err))
		p.Log.Warn("pass ended early: %v", err)
	}
	return p.Report
}

// Candidate processes one listing handle, recovering from panics. Errors
// and panics count as failed and never stop the pass.
func (p *Pass) Candidate(url string, fn func() (models.Outcome, error)) (outcome models.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			p.Log.Error("candidate %s panicked: %v", url, r)
			outcome = models.OutcomeFailed
		}
		p.Report.Record(outcome)
		p.Metrics.IncCandidate(p.Report.Source, outcome)
	}()

	outcome, err := fn()
	if err != nil {
		p.Log.Warn("candidate %s failed: %v", url, err)
		if outcome == "" || outcome == models.OutcomeAccepted {
			outcome = models.OutcomeFailed
		}
	}
	return outcome
}

// Paginate visits up to MaxPages index pages. visit returns how many
// candidates on the page were accepted, or ErrLastPage when the page is
// empty; a page after the first with no accepted candidates ends the pass.
// advance moves to the next page and reports false when there is none.
func (p *Pass) Paginate(ctx context.Context, visit func(page int) (int, error), advance func() (bool, error)) error {
	maxPages := p.Limits.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}

	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		accepted, err := visit(page)
		if errors.Is(err, ErrLastPage) {
			return nil
		}
		if err != nil {
			return err
		}
		p.Report.Pages++
		p.Metrics.IncPage(p.Report.Source)
		p.Log.Debug("page %d: %d accepted", page, accepted)

		if accepted == 0 && page > 1 {
			p.Log.Debug("page %d had nothing new, stopping", page)
			return nil
		}
		if page == maxPages {
			return nil
		}

		more, err := advance()
		if err != nil {
			p.Log.Debug("pagination stopped: %v", err)
			return nil
		}
		if !more {
			return nil
		}
	}
	return nil
}

// Advance clicks the next-page control on the index and lets the new page
// settle.
func (p *Pass) Advance(ctx context.Context, index Page, selector string) (bool, error) {
	clicked, err := index.ClickNext(ctx, selector)
	if err != nil || !clicked {
		return false, err
	}
	if err := utils.Sleep(ctx, p.Limits.PageSettle); err != nil {
		return false, err
	}
	return true, nil
}

// WaitForListings waits for the listing container. On the first page a
// timeout is an error; on later pages it just ends pagination.
func (p *Pass) WaitForListings(ctx context.Context, index Page, selector string, page int) error {
	err := index.WaitVisible(ctx, selector, p.Limits.ListTimeout)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if page == 1 {
		return fmt.Errorf("%w: %v", ErrNoListings, err)
	}
	return ErrLastPage
}

// Detail opens url in a new tab and prepares it for extraction. Detail
// loads are spaced by the pacer.
func (p *Pass) Detail(ctx context.Context, session Session, url string) (*extractor.Document, error) {
	if err := p.Pacer.Wait(ctx); err != nil {
		return nil, err
	}
	page, err := session.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if p.Limits.DetailTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Limits.DetailTimeout)
		defer cancel()
	}

	if err := page.Navigate(ctx, url); err != nil {
		return nil, err
	}
	if err := utils.Sleep(ctx, p.Limits.DetailSettle); err != nil {
		return nil, err
	}

	htmlSrc, text, err := page.Content(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := extractor.NewDocument(htmlSrc, text)
	if err != nil {
		return nil, fmt.Errorf("detail %s: %w", url, err)
	}
	return doc, nil
}
