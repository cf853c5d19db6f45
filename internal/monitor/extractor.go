package monitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Michael-ctrl-eng/radio-monitor/internal/config"
	"go.uber.org/zap"
)

// Strategy is one way of locating a field on the page. Strategies for a
// field are tried in order until one yields text; only when every strategy
// has failed does the surrounding retry kick in (fallback-then-retry).
type Strategy struct {
	Name  string
	Query string
	Kind  StrategyKind
}

// StrategyKind selects the lookup mechanism for a Strategy.
type StrategyKind int

const (
	// BySelector locates the field with a CSS selector.
	BySelector StrategyKind = iota
	// ByXPath locates the field with an XPath expression.
	ByXPath
)

// FieldSpec names a field and its ordered extraction strategies.
type FieldSpec struct {
	Name       string
	Strategies []Strategy
}

// Extractor runs the authenticated navigation and field-extraction sequence
// for one cycle.
type Extractor struct {
	loginURL  string
	statusURL string

	session   *SessionManager
	retrier   *Retrier
	selectors config.SelectorsConfig

	statusField    FieldSpec
	lastLoginField FieldSpec

	snapshotDir    string
	snapshotPrefix string

	logger *zap.Logger
}

// NewExtractor builds an extractor. loginURL and statusURL are pre-resolved
// absolute URLs.
func NewExtractor(loginURL, statusURL string, selectors config.SelectorsConfig, session *SessionManager, retrier *Retrier, snapshotDir, snapshotPrefix string, logger *zap.Logger) *Extractor {
	return &Extractor{
		loginURL:       loginURL,
		statusURL:      statusURL,
		session:        session,
		retrier:        retrier,
		selectors:      selectors,
		snapshotDir:    snapshotDir,
		snapshotPrefix: snapshotPrefix,
		logger:         logger,
		statusField: FieldSpec{
			Name: "on/off status",
			Strategies: []Strategy{
				{Name: "status selector", Query: selectors.OnOffStatus, Kind: BySelector},
				{Name: "status xpath", Query: selectors.OnOffStatusXPath, Kind: ByXPath},
			},
		},
		lastLoginField: FieldSpec{
			Name: "last login time",
			Strategies: []Strategy{
				{Name: "last-login xpath", Query: selectors.LastLoginTimeXPath, Kind: ByXPath},
			},
		},
	}
}

// Run executes one full scrape cycle on an open page and always returns an
// Observation, successful or not. A failed cycle ends with one best-effort
// re-authentication probe so the next cycle starts from a clean session.
func (e *Extractor) Run(ctx context.Context, pg Page) *Observation {
	obs := NewObservation(time.Now())

	if err := e.run(ctx, pg, obs); err != nil {
		obs.RecordError(err)
		e.logger.Error("scrape cycle failed", zap.String("timestamp", obs.Timestamp), zap.Error(err))

		// Recovery probe for the next cycle; its outcome cannot fix this one.
		if _, probeErr := e.session.EnsureAuthenticated(ctx, pg); probeErr != nil {
			e.logger.Warn("session recovery probe failed", zap.Error(probeErr))
		}
		return obs
	}

	obs.Success = true
	return obs
}

// run is the linear per-cycle pipeline; the first unrecovered error aborts it.
func (e *Extractor) run(ctx context.Context, pg Page, obs *Observation) error {
	if err := e.retrier.Do(ctx, "navigate to login", func(ctx context.Context) error {
		return pg.Navigate(ctx, e.loginURL)
	}); err != nil {
		return err
	}

	// Full login every cycle; stale sessions are never trusted.
	if err := e.session.Login(ctx, pg); err != nil {
		return err
	}

	if err := e.retrier.Do(ctx, "navigate to status page", func(ctx context.Context) error {
		if err := pg.Navigate(ctx, e.statusURL); err != nil {
			return err
		}
		return pg.WaitVisible(ctx, e.selectors.OnOffStatus, 15*time.Second)
	}); err != nil {
		return err
	}

	status, err := e.extractRequired(ctx, pg, e.statusField)
	if err != nil {
		return err
	}
	obs.OnOffStatus = status

	lastLogin, err := e.extractRequired(ctx, pg, e.lastLoginField)
	if err != nil {
		return err
	}
	obs.LastLoginTime = lastLogin

	obs.SignalStrength = e.extractOptional(ctx, pg, "signal strength", e.selectors.SignalStrength)
	obs.BatteryLevel = e.extractOptional(ctx, pg, "battery level", e.selectors.BatteryLevel)

	// Coerce out-of-vocabulary values to sentinels before storage.
	obs.OnOffStatus = NormalizeStatus(obs.OnOffStatus)
	obs.LastLoginTime = NormalizeLastLogin(obs.LastLoginTime)

	e.saveSnapshot(ctx, pg, obs.Timestamp)
	return nil
}

// extractRequired tries the field's strategies in order inside one retried
// unit of work. Exhaustion fails the cycle.
func (e *Extractor) extractRequired(ctx context.Context, pg Page, field FieldSpec) (string, error) {
	return RetryValue(ctx, e.retrier, "extract "+field.Name, func(ctx context.Context) (string, error) {
		return extractWithStrategies(ctx, pg, field.Strategies)
	})
}

// extractOptional is a single best-effort pass: no retry, and failure only
// degrades the field to its sentinel. An empty selector disables the field.
func (e *Extractor) extractOptional(ctx context.Context, pg Page, name, selector string) string {
	if selector == "" {
		return FieldUnavail
	}
	text, err := pg.Text(ctx, selector)
	if err != nil || text == "" {
		e.logger.Warn("optional field extraction failed, using sentinel",
			zap.String("field", name),
			zap.Error(err),
		)
		return FieldUnavail
	}
	return text
}

func extractWithStrategies(ctx context.Context, pg Page, strategies []Strategy) (string, error) {
	var lastErr error
	for _, st := range strategies {
		if st.Query == "" {
			continue
		}
		var (
			text string
			err  error
		)
		switch st.Kind {
		case ByXPath:
			text, err = pg.TextByPath(ctx, st.Query)
		default:
			text, err = pg.Text(ctx, st.Query)
		}
		if err == nil && text != "" {
			return text, nil
		}
		if err == nil {
			err = errors.New("empty text content")
		}
		lastErr = fmt.Errorf("%s: %w", st.Name, err)
	}
	if lastErr == nil {
		lastErr = errors.New("no extraction strategy configured")
	}
	return "", lastErr
}

// saveSnapshot writes the full page HTML for diagnostics. Failure is logged
// and ignored; snapshots never fail a cycle.
func (e *Extractor) saveSnapshot(ctx context.Context, pg Page, timestamp string) {
	html, err := pg.Content(ctx)
	if err != nil {
		e.logger.Warn("page snapshot failed", zap.Error(err))
		return
	}
	path := filepath.Join(e.snapshotDir, fmt.Sprintf("%s-%s.html", e.snapshotPrefix, timestamp))
	if err := os.WriteFile(path, []byte(html), 0o640); err != nil {
		e.logger.Warn("page snapshot write failed", zap.String("path", path), zap.Error(err))
	}
}
