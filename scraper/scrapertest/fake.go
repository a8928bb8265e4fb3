// Package scrapertest provides an in-memory browser for adapter tests.
package scrapertest

import (
	"context"
	"errors"
	"sync"
	"time"

	"tender-scraper/scraper"
)

// IndexPage is one page of a listing index. Links maps a selector to the
// href values Attrs returns for it.
type IndexPage struct {
	Cards []scraper.Card
	Links map[string][]string
}

func (p IndexPage) empty() bool {
	return len(p.Cards) == 0 && len(p.Links) == 0
}

// Detail is a detail page. Err is returned by Navigate.
type Detail struct {
	HTML string
	Text string
	Err  error
}

// Session is a fake scraper.Session. Index URLs map to a sequence of pages
// reached by clicking next.
type Session struct {
	Indexes map[string][]IndexPage
	Details map[string]Detail
	// OpenErr makes NewPage fail.
	OpenErr error
	// PanicOn makes Navigate panic for a URL.
	PanicOn string

	mu        sync.Mutex
	index     *Page
	navigated []string
	clicks    int
	closed    int
}

// NewSession returns an empty Session.
func NewSession() *Session {
	return &Session{
		Indexes: map[string][]IndexPage{},
		Details: map[string]Detail{},
	}
}

func (s *Session) Index() scraper.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		s.index = &Page{session: s}
	}
	return s.index
}

func (s *Session) NewPage(ctx context.Context) (scraper.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	return &Page{session: s}, nil
}

func (s *Session) Close() {}

// Navigated lists every URL passed to Navigate, in order.
func (s *Session) Navigated() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigated...)
}

// Clicks counts successful next-page clicks.
func (s *Session) Clicks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clicks
}

// ClosedTabs counts closed detail tabs.
func (s *Session) ClosedTabs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Page is a fake scraper.Page.
type Page struct {
	session *Session
	url     string
	pageNo  int
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := p.session
	if s.PanicOn == url {
		panic("navigate " + url)
	}

	s.mu.Lock()
	s.navigated = append(s.navigated, url)
	_, isIndex := s.Indexes[url]
	d, isDetail := s.Details[url]
	s.mu.Unlock()

	switch {
	case isIndex:
	case isDetail && d.Err != nil:
		return &scraper.NavigationError{Op: "navigate", URL: url, Err: d.Err}
	case !isDetail:
		return &scraper.NavigationError{Op: "navigate", URL: url, Err: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	}
	p.url = url
	p.pageNo = 0
	return nil
}

func (p *Page) current() (IndexPage, bool) {
	s := p.session
	s.mu.Lock()
	defer s.mu.Unlock()
	pages, ok := s.Indexes[p.url]
	if !ok || p.pageNo >= len(pages) {
		return IndexPage{}, false
	}
	return pages[p.pageNo], true
}

func (p *Page) WaitVisible(ctx context.Context, selector string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if page, ok := p.current(); ok && !page.empty() {
		return nil
	}
	return &scraper.NavigationError{Op: "wait for " + selector, Err: context.DeadlineExceeded}
}

func (p *Page) Cards(ctx context.Context, _, _ string) ([]scraper.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, _ := p.current()
	return page.Cards, nil
}

func (p *Page) Attrs(ctx context.Context, selector, _ string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, _ := p.current()
	return page.Links[selector], nil
}

func (p *Page) Content(ctx context.Context) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	s := p.session
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.Details[p.url]
	if !ok {
		return "", "", errors.New("no document loaded")
	}
	return d.HTML, d.Text, nil
}

func (p *Page) ClickNext(ctx context.Context, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s := p.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.pageNo+1 >= len(s.Indexes[p.url]) {
		return false, nil
	}
	p.pageNo++
	s.clicks++
	return true, nil
}

func (p *Page) Close() error {
	s := p.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if p != s.index {
		s.closed++
	}
	return nil
}
