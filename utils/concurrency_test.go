package utils

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	added := s.Add("https://etender.uzex.uz/lot/1")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("https://ETENDER.uzex.uz/lot/1#details")
	if added {
		t.Error("second Add of the same canonical URL should return false")
	}

	if s.Add(" https://etender.uzex.uz/lot/1 ") {
		t.Error("surrounding whitespace should not make a new URL")
	}
}

func TestURLSetRejectsEmpty(t *testing.T) {
	s := NewURLSet()
	if s.Add("   ") {
		t.Error("empty URL must not be added")
	}
}

func TestURLSetConcurrency(t *testing.T) {
	s := NewURLSet()
	var added int64
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Add("https://example.com/same") {
				atomic.AddInt64(&added, 1)
			}
		}()
	}
	wg.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base, href, want string
	}{
		{"https://etender.uzex.uz/lots/1/0", "/lot/123", "https://etender.uzex.uz/lot/123"},
		{"https://it-market.uz/order/", "/order/55/", "https://it-market.uz/order/55/"},
		{"https://it-market.uz/order/", "https://other.uz/x", "https://other.uz/x"},
		{"https://it-market.uz/order/", "", ""},
	}

	for _, tt := range tests {
		got := ResolveURL(tt.base, tt.href)
		if got != tt.want {
			t.Errorf("ResolveURL(%q, %q) = %q; want %q", tt.base, tt.href, got, tt.want)
		}
	}
}

func TestPacerInterval(t *testing.T) {
	interval := 50 * time.Millisecond
	p := NewPacer(interval)
	ctx := context.Background()

	var stamps []time.Time
	for i := 0; i < 3; i++ {
		if err := p.Wait(ctx); err != nil {
			t.Fatalf("wait: %v", err)
		}
		stamps = append(stamps, time.Now())
	}

	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		if gap < interval-5*time.Millisecond {
			t.Errorf("gap between call %d and %d: %v < minimum %v", i-1, i, gap, interval)
		}
	}
}

func TestPacerHonoursCancel(t *testing.T) {
	p := NewPacer(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	if err := p.Wait(ctx); err != nil {
		t.Fatalf("first wait should not block: %v", err)
	}
	cancel()
	if err := p.Wait(ctx); err == nil {
		t.Error("expected cancellation error")
	}
}
