package sinks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tender-scraper/dedup"
	"tender-scraper/metrics"
	"tender-scraper/models"
	"tender-scraper/services"
	"tender-scraper/utils"
)

type memStore struct {
	mu   sync.Mutex
	rows map[string]models.Listing
	err  error
}

func (m *memStore) Exists(_ context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[url]
	return ok, m.err
}

func (m *memStore) InsertIfAbsent(_ context.Context, l *models.Listing) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.rows[l.URL]; ok {
		return false, nil
	}
	m.rows[l.URL] = *l
	return true, nil
}

type recordingNotifier struct {
	texts []string
	err   error
}

func (r *recordingNotifier) Notify(_ context.Context, _ models.Source, text string) error {
	r.texts = append(r.texts, text)
	return r.err
}

type recordingSheets struct {
	rows     map[string][][]any
	attempts int
	failFor  int
}

func (r *recordingSheets) Append(_ context.Context, sheet string, _ []string, row []any) error {
	r.attempts++
	if r.attempts <= r.failFor {
		return errors.New("quota exceeded")
	}
	r.rows[sheet] = append(r.rows[sheet], row)
	return nil
}

type fanoutFixture struct {
	fanout   *Fanout
	store    *memStore
	notifier *recordingNotifier
	sheets   *recordingSheets
	metrics  *metrics.Metrics
}

func newFanoutFixture(t *testing.T) *fanoutFixture {
	t.Helper()
	store := &memStore{rows: map[string]models.Listing{}}
	gate, err := dedup.NewGate(store, nil, 8, utils.NopLogger())
	require.NoError(t, err)

	fx := &fanoutFixture{
		store:    store,
		notifier: &recordingNotifier{},
		sheets:   &recordingSheets{rows: map[string][][]any{}},
		metrics:  metrics.New(),
	}
	fx.fanout = NewFanout(FanoutConfig{
		Gate:       gate,
		Notifier:   fx.notifier,
		Sheets:     fx.sheets,
		SheetRetry: utils.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond},
		Metrics:    fx.metrics,
		Logger:     utils.NopLogger(),
	})
	return fx
}

func etenderTender() *models.Tender {
	f := models.NewExtractedFields()
	f.Category = "Услуги в области информационных технологий"
	f.Customer = "ООО Тест"
	return &models.Tender{
		Listing: models.Listing{
			Source:    models.SourceEtender,
			Title:     "Лот №555",
			Price:     services.PriceWithCurrency(6000000, "UZS"),
			StartDate: f.StartDate,
			EndDate:   f.EndDate,
			URL:       "https://etender.uzex.uz/lot/555",
		},
		Fields:   f,
		LotID:    "555",
		Kind:     "Тендер",
		Region:   "Ташкент",
		Amount:   6000000,
		Currency: "UZS",
		ParsedAt: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestDeliverAcceptsOnceThenKnown(t *testing.T) {
	fx := newFanoutFixture(t)
	ctx := context.Background()

	outcome, err := fx.fanout.Deliver(ctx, etenderTender())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAccepted, outcome)

	assert.Len(t, fx.store.rows, 1)
	assert.Len(t, fx.notifier.texts, 1)
	assert.Len(t, fx.sheets.rows["Etender"], 1)
	assert.True(t, fx.fanout.IsKnown(ctx, "https://etender.uzex.uz/lot/555"))

	outcome, err = fx.fanout.Deliver(ctx, etenderTender())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeKnown, outcome)

	assert.Len(t, fx.store.rows, 1)
	assert.Len(t, fx.notifier.texts, 1)
	assert.Len(t, fx.sheets.rows["Etender"], 1)
}

func TestDeliverNotifyFailureKeepsGoing(t *testing.T) {
	fx := newFanoutFixture(t)
	fx.notifier.err = errors.New("telegram down")

	outcome, err := fx.fanout.Deliver(context.Background(), etenderTender())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAccepted, outcome)
	assert.Len(t, fx.store.rows, 1)
	assert.Len(t, fx.sheets.rows["Etender"], 1)
}

func TestDeliverRetriesSheet(t *testing.T) {
	fx := newFanoutFixture(t)
	fx.sheets.failFor = 2

	outcome, err := fx.fanout.Deliver(context.Background(), etenderTender())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAccepted, outcome)
	assert.Equal(t, 3, fx.sheets.attempts)
	assert.Len(t, fx.sheets.rows["Etender"], 1)
}

func TestDeliverSheetGivesUp(t *testing.T) {
	fx := newFanoutFixture(t)
	fx.sheets.failFor = 10

	outcome, err := fx.fanout.Deliver(context.Background(), etenderTender())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAccepted, outcome)
	assert.Equal(t, 3, fx.sheets.attempts)
	assert.Len(t, fx.notifier.texts, 1)
}

func TestDeliverStoreFailure(t *testing.T) {
	fx := newFanoutFixture(t)
	fx.store.err = errors.New("connection refused")

	outcome, err := fx.fanout.Deliver(context.Background(), etenderTender())
	assert.Error(t, err)
	assert.Equal(t, models.OutcomeFailed, outcome)
	assert.Empty(t, fx.notifier.texts)
	assert.Zero(t, fx.sheets.attempts)
}

func TestDeliverWithoutOptionalSinks(t *testing.T) {
	store := &memStore{rows: map[string]models.Listing{}}
	gate, err := dedup.NewGate(store, nil, 8, utils.NopLogger())
	require.NoError(t, err)
	f := NewFanout(FanoutConfig{Gate: gate, Logger: utils.NopLogger()})

	outcome, err := f.Deliver(context.Background(), etenderTender())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAccepted, outcome)
}
