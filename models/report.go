package models

import "time"

// SourceReport summarises one adapter pass.
type SourceReport struct {
	Source   Source
	Pages    int
	Counts   map[Outcome]int
	Err      error
	Duration time.Duration
}

// NewSourceReport returns an empty report for s.
func NewSourceReport(s Source) *SourceReport {
	return &SourceReport{Source: s, Counts: make(map[Outcome]int)}
}

// Record counts one candidate outcome.
func (r *SourceReport) Record(o Outcome) {
	r.Counts[o]++
}

// Accepted is the number of candidates that reached the sinks.
func (r *SourceReport) Accepted() int { return r.Counts[OutcomeAccepted] }

// SweepReport holds the results of one full pass over all sources.
type SweepReport struct {
	Number     int
	StartedAt  time.Time
	FinishedAt time.Time
	Sources    []*SourceReport
}

// Total sums one outcome across sources.
func (r *SweepReport) Total(o Outcome) int {
	n := 0
	for _, s := range r.Sources {
		n += s.Counts[o]
	}
	return n
}
