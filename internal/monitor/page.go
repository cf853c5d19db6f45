package monitor

import (
	"context"
	"time"
)

// Page is the interaction surface of one authenticated browser page. The
// monitor drives the page through this boundary only; the concrete driver
// lives in internal/browser.
type Page interface {
	// Navigate loads url and waits for the page to settle.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until the CSS selector is visible or the timeout
	// elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// Text returns the trimmed text content of the first element matching
	// the CSS selector.
	Text(ctx context.Context, selector string) (string, error)
	// TextByPath returns the trimmed text content of the first node
	// matching the XPath expression.
	TextByPath(ctx context.Context, expr string) (string, error)
	// Type fills the element matching the CSS selector with text.
	Type(ctx context.Context, selector, text string) error
	// Click clicks the element matching the CSS selector.
	Click(ctx context.Context, selector string) error
	// Content returns the full page HTML.
	Content(ctx context.Context) (string, error)
	// Close releases the page and its browser resources.
	Close() error
}

// Browser launches fresh pages. One page is opened per scrape cycle and
// closed when the cycle ends; sessions are never carried across cycles.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
}
