package etender

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tender-scraper/dedup"
	"tender-scraper/models"
	"tender-scraper/scraper/scrapertest"
	"tender-scraper/sinks"
	"tender-scraper/utils"
)

type memStore struct {
	mu   sync.Mutex
	rows map[string]models.Listing
}

func (m *memStore) Exists(_ context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[url]
	return ok, nil
}

func (m *memStore) InsertIfAbsent(_ context.Context, l *models.Listing) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[l.URL]; ok {
		return false, nil
	}
	m.rows[l.URL] = *l
	return true, nil
}

type countingNotifier struct{ sent int }

func (c *countingNotifier) Notify(context.Context, models.Source, string) error {
	c.sent++
	return nil
}

type countingSheets struct{ rows map[string]int }

func (c *countingSheets) Append(_ context.Context, sheet string, _ []string, _ []any) error {
	c.rows[sheet]++
	return nil
}

func TestRunThroughFanoutDeliversOnce(t *testing.T) {
	session := scrapertest.NewSession()
	session.Indexes[indexURL] = []scrapertest.IndexPage{{Links: map[string][]string{
		linkSelector: {"/lot/555"},
	}}}
	session.Details[baseURL+"/lot/555"] = lotPage("Продукты программные", "Начальная цена 6 000 000,00 UZS")

	store := &memStore{rows: map[string]models.Listing{}}
	gate, err := dedup.NewGate(store, nil, 16, utils.NopLogger())
	require.NoError(t, err)
	notifier := &countingNotifier{}
	sheet := &countingSheets{rows: map[string]int{}}
	fanout := sinks.NewFanout(sinks.FanoutConfig{
		Gate:       gate,
		Notifier:   notifier,
		Sheets:     sheet,
		SheetRetry: utils.RetryConfig{MaxAttempts: 1, BaseDelay: time.Millisecond},
		Logger:     utils.NopLogger(),
	})
	adapter := New(newDeps(fanout))

	first := adapter.Run(context.Background(), session)
	require.NoError(t, first.Err)
	assert.Equal(t, 1, first.Counts[models.OutcomeAccepted])
	assert.Len(t, store.rows, 1)
	assert.Equal(t, 1, notifier.sent)
	assert.Equal(t, 1, sheet.rows[models.SourceEtender.String()])
	assert.Equal(t, "6000000 UZS", store.rows[baseURL+"/lot/555"].Price)

	second := adapter.Run(context.Background(), session)
	require.NoError(t, second.Err)
	assert.Zero(t, second.Counts[models.OutcomeAccepted])
	assert.Equal(t, 1, second.Counts[models.OutcomeKnown])
	assert.Len(t, store.rows, 1)
	assert.Equal(t, 1, notifier.sent)
	assert.Equal(t, 1, sheet.rows[models.SourceEtender.String()])
}
