package utils

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Pacer enforces a minimum interval between consecutive page loads.
type Pacer struct {
	interval time.Duration
	mu       sync.Mutex
	last     time.Time
}

// NewPacer creates a Pacer. A zero interval never waits.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Wait blocks until the interval since the previous call has elapsed. A nil
// Pacer never waits.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		if elapsed := time.Since(p.last); elapsed < p.interval {
			if err := Sleep(ctx, p.interval-elapsed); err != nil {
				return err
			}
		}
	}
	p.last = time.Now()
	return nil
}

// URLSet is a thread-safe set of canonical URLs seen within one page pass.
type URLSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(rawURL string) bool {
	key := CanonicalURL(rawURL)
	if key == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// CanonicalURL trims whitespace and drops the fragment. The path and query
// are kept as-is since they carry the listing identity.
func CanonicalURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	return u.String()
}

// ResolveURL joins a possibly relative href onto base and canonicalises it.
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return CanonicalURL(href)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return CanonicalURL(b.ResolveReference(ref).String())
}
