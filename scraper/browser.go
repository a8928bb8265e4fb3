package scraper

import (
	"context"
	"time"
)

// Card is one listing element on an index page: its rendered text and the
// href of its link, if it has one.
type Card struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Page is a single browser tab.
type Page interface {
	// Navigate loads url and waits for the load event, bounded by the
	// session's load timeout.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until selector matches a visible element.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// Cards returns the elements matching cardSelector. When linkSelector is
	// set, Href is taken from the first match inside each card.
	Cards(ctx context.Context, cardSelector, linkSelector string) ([]Card, error)
	// Attrs returns attribute values of every element matching selector.
	Attrs(ctx context.Context, selector, attr string) ([]string, error)
	// Content returns the document HTML and the rendered body text.
	Content(ctx context.Context) (html, text string, err error)
	// ClickNext clicks the first visible element matching selector and
	// reports whether there was one.
	ClickNext(ctx context.Context, selector string) (bool, error)
	Close() error
}

// Session owns the browser for the duration of a sweep. Index is the
// long-lived tab used for listing pages; detail pages get their own tab.
type Session interface {
	Index() Page
	NewPage(ctx context.Context) (Page, error)
	Close()
}
