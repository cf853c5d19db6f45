package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t)
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return ts
}

// fastRetrier retries immediately so tests never sleep on backoff.
func fastRetrier(t *testing.T, maxRetries int) *Retrier {
	t.Helper()
	return NewRetrier(maxRetries, time.Microsecond, time.Microsecond, 1.0, nil, testLogger(t))
}

// fakePage scripts Page behaviour per selector/expression. The zero value
// succeeds at everything and returns empty text, which extraction treats as
// a miss, so tests set texts explicitly.
type fakePage struct {
	mu sync.Mutex

	// texts maps a CSS selector or XPath expression to the text to return.
	// Missing keys return errSelectorMiss.
	texts map[string]string
	// visible maps a selector to whether WaitVisible succeeds. Missing keys
	// succeed.
	visible map[string]bool
	// failNavigate counts how many Navigate calls fail before succeeding.
	failNavigate int

	html string

	navigations []string
	typed       map[string]string
	clicks      []string
	closed      bool

	// textCalls counts Text/TextByPath lookups per query.
	textCalls map[string]int
}

var errSelectorMiss = errors.New("no element matched")

func newFakePage() *fakePage {
	return &fakePage{
		texts:     map[string]string{},
		visible:   map[string]bool{},
		typed:     map[string]string{},
		textCalls: map[string]int{},
		html:      "<html><body>ok</body></html>",
	}
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failNavigate > 0 {
		p.failNavigate--
		return errors.New("net::ERR_CONNECTION_REFUSED")
	}
	p.navigations = append(p.navigations, url)
	return nil
}

func (p *fakePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ok, scripted := p.visible[selector]; scripted && !ok {
		return errSelectorMiss
	}
	return nil
}

func (p *fakePage) lookup(query string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.textCalls[query]++
	text, ok := p.texts[query]
	if !ok {
		return "", errSelectorMiss
	}
	return text, nil
}

func (p *fakePage) Text(ctx context.Context, selector string) (string, error) {
	return p.lookup(selector)
}

func (p *fakePage) TextByPath(ctx context.Context, expr string) (string, error) {
	return p.lookup(expr)
}

func (p *fakePage) Type(ctx context.Context, selector, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.typed[selector] = text
	return nil
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, selector)
	return nil
}

func (p *fakePage) Content(ctx context.Context) (string, error) {
	return p.html, nil
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// fakeBrowser hands out a fixed page, or fails launching when launchErr is
// set.
type fakeBrowser struct {
	page      *fakePage
	launchErr error
}

func (b *fakeBrowser) NewPage(ctx context.Context) (Page, error) {
	if b.launchErr != nil {
		return nil, b.launchErr
	}
	return b.page, nil
}

// fakeNotifier records every alert it is asked to deliver.
type fakeNotifier struct {
	mu     sync.Mutex
	alerts []*Alert
	err    error
}

func (n *fakeNotifier) Notify(ctx context.Context, alert *Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.alerts = append(n.alerts, alert)
	return nil
}

func (n *fakeNotifier) Type() string { return "fake" }

func (n *fakeNotifier) sent() []*Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Alert, len(n.alerts))
	copy(out, n.alerts)
	return out
}
