package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoListings means the listing container never appeared on the first
	// index page.
	ErrNoListings = errors.New("listing container not found")
	// ErrLastPage ends pagination without counting as a failure.
	ErrLastPage = errors.New("no more listings")
)

// NavigationError wraps a failed browser step with the page it targeted.
type NavigationError struct {
	Op  string
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ErrorKind maps an error to a short metrics label.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "unknown"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrNoListings):
		return "no_listings"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "net::err_"), strings.Contains(msg, "connection"):
		return "connection"
	case strings.Contains(msg, "not found"), strings.Contains(msg, "no such"):
		return "not_found"
	}
	return "other"
}
