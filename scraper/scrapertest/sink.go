package scrapertest

import (
	"context"
	"sync"

	"tender-scraper/models"
)

// Sink records deliveries and treats a URL as known once delivered.
type Sink struct {
	mu        sync.Mutex
	known     map[string]bool
	Delivered []*models.Tender
	Checked   []string
	Err       error
}

// NewSink returns a Sink that already knows the given URLs.
func NewSink(known ...string) *Sink {
	s := &Sink{known: map[string]bool{}}
	for _, u := range known {
		s.known[u] = true
	}
	return s
}

func (s *Sink) IsKnown(_ context.Context, url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Checked = append(s.Checked, url)
	return s.known[url]
}

func (s *Sink) Deliver(_ context.Context, t *models.Tender) (models.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return models.OutcomeFailed, s.Err
	}
	if s.known[t.URL] {
		return models.OutcomeKnown, nil
	}
	s.known[t.URL] = true
	s.Delivered = append(s.Delivered, t)
	return models.OutcomeAccepted, nil
}
