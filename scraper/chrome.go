package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// BrowserConfig configures the headless Chrome session.
type BrowserConfig struct {
	ChromeBin   string
	Headless    bool
	UserAgent   string
	LoadTimeout time.Duration
}

// ChromeSession is a Session backed by a local Chrome driven over CDP.
type ChromeSession struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	loadTimeout   time.Duration
	index         *chromePage
}

// NewChromeSession starts the browser. The first tab becomes the index page.
func NewChromeSession(cfg BrowserConfig) (*ChromeSession, error) {
	bin := cfg.ChromeBin
	if bin == "" {
		bin = FindChromeBinary()
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	load := cfg.LoadTimeout
	if load <= 0 {
		load = 90 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(ua),
	)
	if bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("browser: start %q: %w", bin, err)
	}

	s := &ChromeSession{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		loadTimeout:   load,
	}
	// Closing the first tab would close the browser, so the index page
	// lives as long as the session.
	s.index = &chromePage{ctx: browserCtx, cancel: func() {}, loadTimeout: load}
	return s, nil
}

func (s *ChromeSession) Index() Page { return s.index }

// NewPage opens a new tab.
func (s *ChromeSession) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tabCtx, cancel := chromedp.NewContext(s.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("browser: open tab: %w", err)
	}
	return &chromePage{ctx: tabCtx, cancel: cancel, loadTimeout: s.loadTimeout}, nil
}

// Close shuts the browser down.
func (s *ChromeSession) Close() {
	s.browserCancel()
	s.allocCancel()
}

type chromePage struct {
	ctx         context.Context
	cancel      context.CancelFunc
	loadTimeout time.Duration
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx.
func (p *chromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, p.loadTimeout, chromedp.Navigate(url)); err != nil {
		return &NavigationError{Op: "navigate", URL: url, Err: err}
	}
	return nil
}

func (p *chromePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := p.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return &NavigationError{Op: "wait for " + selector, Err: err}
	}
	return nil
}

const cardsJS = `(function(cardSel, linkSel) {
	return Array.from(document.querySelectorAll(cardSel)).map(function(c) {
		var a = linkSel ? c.querySelector(linkSel) : null;
		return {text: c.innerText || "", href: a ? (a.getAttribute("href") || "") : ""};
	});
})(%s, %s)`

func (p *chromePage) Cards(ctx context.Context, cardSelector, linkSelector string) ([]Card, error) {
	var cards []Card
	js := fmt.Sprintf(cardsJS, jsString(cardSelector), jsString(linkSelector))
	if err := p.run(ctx, p.loadTimeout, chromedp.Evaluate(js, &cards)); err != nil {
		return nil, &NavigationError{Op: "read cards " + cardSelector, Err: err}
	}
	return cards, nil
}

const attrsJS = `(function(sel, attr) {
	return Array.from(document.querySelectorAll(sel)).map(function(e) {
		return e.getAttribute(attr) || "";
	});
})(%s, %s)`

func (p *chromePage) Attrs(ctx context.Context, selector, attr string) ([]string, error) {
	var values []string
	js := fmt.Sprintf(attrsJS, jsString(selector), jsString(attr))
	if err := p.run(ctx, p.loadTimeout, chromedp.Evaluate(js, &values)); err != nil {
		return nil, &NavigationError{Op: "read " + attr + " of " + selector, Err: err}
	}
	return values, nil
}

func (p *chromePage) Content(ctx context.Context) (string, string, error) {
	var html, text string
	err := p.run(ctx, p.loadTimeout,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text),
	)
	if err != nil {
		return "", "", &NavigationError{Op: "read content", Err: err}
	}
	return html, text, nil
}

const clickJS = `(function(sel) {
	var e = document.querySelector(sel);
	if (!e) return false;
	var r = e.getBoundingClientRect();
	if (r.width === 0 || r.height === 0 || getComputedStyle(e).visibility === "hidden") return false;
	e.click();
	return true;
})(%s)`

func (p *chromePage) ClickNext(ctx context.Context, selector string) (bool, error) {
	var clicked bool
	if err := p.run(ctx, p.loadTimeout, chromedp.Evaluate(fmt.Sprintf(clickJS, jsString(selector)), &clicked)); err != nil {
		return false, &NavigationError{Op: "click " + selector, Err: err}
	}
	return clicked, nil
}

func (p *chromePage) Close() error {
	p.cancel()
	return nil
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// FindChromeBinary looks for a Chrome or Chromium executable. An empty result
// lets chromedp fall back to its own search.
func FindChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
