// Package browser drives a headless Chrome instance behind the monitor's
// page boundary.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/Michael-ctrl-eng/radio-monitor/internal/config"
	"github.com/Michael-ctrl-eng/radio-monitor/internal/monitor"
)

// Compile-time interface guards.
var (
	_ monitor.Browser = (*Driver)(nil)
	_ monitor.Page    = (*chromePage)(nil)
)

// stealthScript masks the automation fingerprint before any page script runs.
const stealthScript = `Object.defineProperty(navigator, 'webdriver', { get: () => false });`

// Driver launches a fresh Chrome process per page. Teardown of the page
// tears down the whole browser, so no session state survives a cycle.
type Driver struct {
	cfg    config.BrowserConfig
	logger *zap.Logger
}

// New creates a driver from browser configuration.
func New(cfg config.BrowserConfig, logger *zap.Logger) *Driver {
	return &Driver{cfg: cfg, logger: logger}
}

// NewPage launches Chrome and returns a configured page. A launch failure
// here means the browser binary could not start at all, as opposed to an
// in-page action failing later.
func (d *Driver) NewPage(ctx context.Context) (monitor.Page, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", d.cfg.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-accelerated-2d-canvas", true),
		chromedp.DisableGPU,
		chromedp.UserAgent(d.cfg.UserAgent),
	)
	if d.cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	pageCtx, pageCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		d.logger.Debug(fmt.Sprintf(format, args...))
	}))

	p := &chromePage{
		ctx:            pageCtx,
		cancel:         pageCancel,
		allocCancel:    allocCancel,
		navTimeout:     d.cfg.NavTimeout,
		requestTimeout: d.cfg.RequestTimeout,
	}

	// The first Run starts the browser process; failure here is a launch
	// failure, not a page-action failure.
	err := chromedp.Run(pageCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": "en-US,en;q=0.9"}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
	)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return p, nil
}

// chromePage implements monitor.Page on a chromedp context.
type chromePage struct {
	ctx            context.Context
	cancel         context.CancelFunc
	allocCancel    context.CancelFunc
	navTimeout     time.Duration
	requestTimeout time.Duration
}

func (p *chromePage) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	if err := p.run(p.navTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *chromePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := p.run(timeout, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	return nil
}

func (p *chromePage) Text(ctx context.Context, selector string) (string, error) {
	var text string
	if err := p.run(p.requestTimeout, chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("text of %q: %w", selector, err)
	}
	return strings.TrimSpace(text), nil
}

func (p *chromePage) TextByPath(ctx context.Context, expr string) (string, error) {
	var text string
	if err := p.run(p.requestTimeout, chromedp.Text(expr, &text, chromedp.BySearch)); err != nil {
		return "", fmt.Errorf("text of xpath %q: %w", expr, err)
	}
	return strings.TrimSpace(text), nil
}

func (p *chromePage) Type(ctx context.Context, selector, text string) error {
	if err := p.run(p.requestTimeout,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("type into %q: %w", selector, err)
	}
	return nil
}

func (p *chromePage) Click(ctx context.Context, selector string) error {
	if err := p.run(p.requestTimeout, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}

func (p *chromePage) Content(ctx context.Context) (string, error) {
	var html string
	if err := p.run(p.requestTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("page content: %w", err)
	}
	return html, nil
}

// Close shuts the browser down. Safe to call more than once.
func (p *chromePage) Close() error {
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	p.allocCancel()
	return err
}
