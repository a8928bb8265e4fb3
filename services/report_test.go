package services

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"tender-scraper/models"
	"tender-scraper/utils"
)

func sampleSweep() *models.SweepReport {
	xarid := models.NewSourceReport(models.SourceXarid)
	xarid.Pages = 2
	xarid.Record(models.OutcomeAccepted)
	xarid.Record(models.OutcomeKnown)
	xarid.Record(models.OutcomeKnown)

	etender := models.NewSourceReport(models.SourceEtender)
	etender.Record(models.OutcomeRejected)
	etender.Err = errors.New("index timeout")

	start := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	return &models.SweepReport{
		Number:     3,
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Sources:    []*models.SourceReport{xarid, etender},
	}
}

func TestSweepTotals(t *testing.T) {
	r := sampleSweep()
	assert.Equal(t, 1, r.Total(models.OutcomeAccepted))
	assert.Equal(t, 2, r.Total(models.OutcomeKnown))
	assert.Equal(t, 1, r.Total(models.OutcomeRejected))
	assert.Equal(t, 0, r.Total(models.OutcomeFailed))
}

func TestReportPrint(t *testing.T) {
	var buf bytes.Buffer
	svc := NewReportService(utils.NopLogger(), &buf)
	svc.Print(sampleSweep())

	out := buf.String()
	assert.Contains(t, out, "SWEEP #3")
	assert.Contains(t, out, "Xarid.uz")
	assert.Contains(t, out, "index timeout")
}

func TestReportColumnsFollowOutcomes(t *testing.T) {
	var buf bytes.Buffer
	NewReportService(utils.NopLogger(), &buf).Print(sampleSweep())
	out := buf.String()

	last := -1
	for _, o := range models.Outcomes {
		i := strings.Index(out, titleCase(string(o)))
		assert.Greater(t, i, last, "column %s out of order", o)
		last = i
	}
	assert.Contains(t, out, fmt.Sprintf("  %-12s %5d %9d %9d %9d %9d", "Xarid.uz", 2, 1, 2, 0, 0))
	assert.Contains(t, out, fmt.Sprintf("  %-12s %5s %9d %9d %9d %9d", "Total", "", 1, 2, 1, 0))
}

func TestReportLog(t *testing.T) {
	var buf bytes.Buffer
	NewReportService(utils.NewLoggerTo(&buf, zerolog.DebugLevel), nil).Log(sampleSweep())
	out := buf.String()

	assert.Contains(t, out, "Xarid.uz: pages=2 accepted=1 known=2 rejected=0 failed=0")
	assert.Contains(t, out, "Etender: pages=0 accepted=0 known=0 rejected=1 failed=0")
	assert.Contains(t, out, "stopped: index timeout")
}

func TestReportPrintWithoutWriter(t *testing.T) {
	svc := NewReportService(utils.NopLogger(), nil)
	assert.NotPanics(t, func() {
		svc.Print(sampleSweep())
		svc.Log(sampleSweep())
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Проду...", truncate("Продукты программные", 8))
}
