package dedup

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"tender-scraper/models"
	"tender-scraper/storage"
	"tender-scraper/utils"
)

// DefaultRecentSize bounds the in-process memory of known URLs.
const DefaultRecentSize = 4096

// SeenCache is an optional shared tier between the process and the store.
type SeenCache interface {
	Seen(ctx context.Context, url string) (bool, error)
	Mark(ctx context.Context, url string) error
}

// Gate decides whether a listing URL has been accepted before.
//
// Caches only ever answer "known"; a miss always falls through to the store,
// and only the store's conditional insert decides that a listing is new.
type Gate struct {
	store  storage.ListingStore
	recent *lru.Cache[string, struct{}]
	cache  SeenCache
	logger *utils.Logger
}

// NewGate builds a Gate. cache may be nil.
func NewGate(store storage.ListingStore, cache SeenCache, recentSize int, logger *utils.Logger) (*Gate, error) {
	if recentSize <= 0 {
		recentSize = DefaultRecentSize
	}
	recent, err := lru.New[string, struct{}](recentSize)
	if err != nil {
		return nil, fmt.Errorf("dedup: lru: %w", err)
	}
	return &Gate{
		store:  store,
		recent: recent,
		cache:  cache,
		logger: logger.Component("dedup"),
	}, nil
}

// IsKnown is the cheap pre-check made before any detail page is opened.
// Lookup failures report "not known"; the insert in RecordIfNew still
// protects against duplicates.
func (g *Gate) IsKnown(ctx context.Context, url string) bool {
	if g.recent.Contains(url) {
		return true
	}

	if g.cache != nil {
		seen, err := g.cache.Seen(ctx, url)
		if err != nil {
			g.logger.Debug("seen-cache lookup failed for %s: %v", url, err)
		} else if seen {
			g.recent.Add(url, struct{}{})
			return true
		}
	}

	exists, err := g.store.Exists(ctx, url)
	if err != nil {
		g.logger.Warn("store lookup failed for %s: %v", url, err)
		return false
	}
	if exists {
		g.remember(ctx, url)
	}
	return exists
}

// RecordIfNew atomically inserts the listing. It returns true for exactly one
// caller per URL, however many race.
func (g *Gate) RecordIfNew(ctx context.Context, l *models.Listing) (bool, error) {
	isNew, err := g.store.InsertIfAbsent(ctx, l)
	if err != nil {
		return false, err
	}
	g.remember(ctx, l.URL)
	return isNew, nil
}

func (g *Gate) remember(ctx context.Context, url string) {
	g.recent.Add(url, struct{}{})
	if g.cache == nil {
		return
	}
	if err := g.cache.Mark(ctx, url); err != nil {
		g.logger.Debug("seen-cache mark failed for %s: %v", url, err)
	}
}
