package sinks

import (
	"context"
	"fmt"
	"time"

	"tender-scraper/dedup"
	"tender-scraper/metrics"
	"tender-scraper/models"
	"tender-scraper/storage"
	"tender-scraper/utils"
)

// Sink labels used in logs and metrics.
const (
	SinkStore    = "store"
	SinkTelegram = "telegram"
	SinkSheet    = "sheet"
)

// FanoutConfig wires the sinks. Notifier and Sheets are optional.
type FanoutConfig struct {
	Gate       *dedup.Gate
	Notifier   Notifier
	Sheets     storage.SheetWriter
	SheetRetry utils.RetryConfig
	Metrics    *metrics.Metrics
	Logger     *utils.Logger
}

// Fanout persists accepted tenders and forwards new ones to the chat channel
// and the spreadsheet.
type Fanout struct {
	gate     *dedup.Gate
	notifier Notifier
	sheets   storage.SheetWriter
	retry    utils.RetryConfig
	metrics  *metrics.Metrics
	logger   *utils.Logger
}

// NewFanout builds a Fanout. A zero SheetRetry means three attempts starting
// at two seconds.
func NewFanout(cfg FanoutConfig) *Fanout {
	logger := cfg.Logger.Component("fanout")
	retry := cfg.SheetRetry
	if retry.MaxAttempts == 0 {
		retry = utils.RetryConfig{MaxAttempts: 3, BaseDelay: 2 * time.Second}
	}
	if retry.Logger == nil {
		retry.Logger = logger
	}
	return &Fanout{
		gate:     cfg.Gate,
		notifier: cfg.Notifier,
		sheets:   cfg.Sheets,
		retry:    retry,
		metrics:  cfg.Metrics,
		logger:   logger,
	}
}

// IsKnown is the early dedup check made before opening a detail page.
func (f *Fanout) IsKnown(ctx context.Context, url string) bool {
	return f.gate.IsKnown(ctx, url)
}

// Deliver records t and, when it is new, notifies and logs it. Only a store
// failure is returned; notification and sheet failures are logged and
// counted.
func (f *Fanout) Deliver(ctx context.Context, t *models.Tender) (models.Outcome, error) {
	isNew, err := f.gate.RecordIfNew(ctx, &t.Listing)
	if err != nil {
		f.metrics.IncSinkError(SinkStore)
		return models.OutcomeFailed, fmt.Errorf("persist %s: %w", t.URL, err)
	}
	if !isNew {
		return models.OutcomeKnown, nil
	}

	log := f.logger.ForSource(t.Source.String())
	log.Info("new listing %s (%s)", t.Title, t.Price)

	if f.notifier != nil {
		if err := f.notifier.Notify(ctx, t.Source, Message(t)); err != nil {
			f.metrics.IncSinkError(SinkTelegram)
			log.Warn("notification for %s failed: %v", t.URL, err)
		}
	}

	if f.sheets != nil {
		sheet := t.Source.String()
		err := f.retry.Do(ctx, "append to sheet "+sheet, func() error {
			return f.sheets.Append(ctx, sheet, SheetHeader(t.Source), SheetRow(t))
		})
		if err != nil {
			f.metrics.IncSinkError(SinkSheet)
			log.Warn("sheet row for %s not written: %v", t.URL, err)
		}
	}

	return models.OutcomeAccepted, nil
}
