package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Michael-ctrl-eng/radio-monitor/internal/config"
	"go.uber.org/zap"
)

// pruneInterval bounds how often retention pruning runs; it piggybacks on
// the scrape loop rather than owning a timer.
const pruneInterval = 1 * time.Hour

// Monitor owns the repeat-forever cadence and wires every component of one
// scrape cycle: browser, extractor, grading, alerting, persistence, and the
// self-health bookkeeping.
type Monitor struct {
	cfg *config.Config

	browser   Browser
	extractor *Extractor
	alerter   *Alerter
	store     *ObservationStore
	errlog    *ErrorLog
	probe     *ReachabilityProbe

	perf      *PerformanceTracker
	resources *ResourceMonitor

	lastPrune time.Time
	logger    *zap.Logger
}

// NewMonitor assembles the scheduler. probe may be nil when the target host
// cannot be derived from configuration.
func NewMonitor(cfg *config.Config, browser Browser, extractor *Extractor, alerter *Alerter, store *ObservationStore, errlog *ErrorLog, probe *ReachabilityProbe, logger *zap.Logger) *Monitor {
	return &Monitor{
		cfg:       cfg,
		browser:   browser,
		extractor: extractor,
		alerter:   alerter,
		store:     store,
		errlog:    errlog,
		probe:     probe,
		perf:      NewPerformanceTracker(),
		resources: NewResourceMonitor(logger.Named("resources")),
		logger:    logger,
	}
}

// Run starts the monitoring loop and blocks until ctx is cancelled. Cycles
// never overlap: the loop waits for one full cycle, including persistence
// and alert dispatch, before sleeping until the next.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitoring service starting",
		zap.Duration("interval", m.cfg.Scrape.Interval),
		zap.Bool("alerting", m.alerter.Enabled()),
	)

	m.resources.Start(ctx)
	defer m.resources.Stop()

	state := NewFailureState(time.Now())

	for {
		if state.MaybeExpire(time.Now()) {
			m.logger.Info("failure counter window expired, reset to zero")
		}

		graded := m.runCycle(ctx)
		state.Observe(graded.Success)

		if graded.Success {
			m.alerter.CycleSucceeded(ctx, graded)
		} else {
			m.alerter.CycleFailed(ctx, state, &graded.Observation)
		}

		m.persist(ctx, graded)
		m.maybePrune(ctx)

		m.logger.Info("scrape cycle finished",
			zap.String("timestamp", graded.Timestamp),
			zap.Bool("success", graded.Success),
			zap.Int("consecutive_failures", state.Consecutive),
			zap.Duration("avg_cycle", m.perf.Average()),
		)

		select {
		case <-ctx.Done():
			m.logger.Info("monitoring service stopping")
			return nil
		case <-time.After(m.cfg.Scrape.Interval):
		}
	}
}

// runCycle performs one scrape attempt and grades the result. A browser
// launch failure bypasses the retry ladder entirely: retrying a broken
// launch would burn the whole backoff budget for nothing.
func (m *Monitor) runCycle(ctx context.Context) *GradedObservation {
	start := time.Now()

	reachable := true
	if m.probe != nil {
		reachable = m.probe.Check(ctx)
	}

	var obs *Observation
	pg, err := m.browser.NewPage(ctx)
	if err != nil {
		obs = NewObservation(start)
		obs.RecordError(fmt.Errorf("browser launch failed (target reachable: %t): %w", reachable, err))
		m.logger.Error("browser launch failed",
			zap.Bool("target_reachable", reachable),
			zap.Error(err),
		)
	} else {
		obs = m.extractor.Run(ctx, pg)
		if closeErr := pg.Close(); closeErr != nil {
			m.logger.Warn("page close failed", zap.Error(closeErr))
		}
	}

	m.perf.Record(time.Since(start))

	graded := Grade(obs, m.cfg.Thresholds, m.cfg.Alerts.SignalLow, m.cfg.Alerts.BatteryLow)
	return &graded
}

// persist writes the graded row. A store failure is dumped to the fallback
// error log with the raw payload and never changes the cycle outcome.
func (m *Monitor) persist(ctx context.Context, g *GradedObservation) {
	if err := m.store.Insert(ctx, g); err != nil {
		payload, mErr := json.Marshal(g)
		if mErr != nil {
			payload = []byte(fmt.Sprintf("%+v", g))
		}
		m.errlog.StoreFailure(g.Timestamp, err, payload)
		m.logger.Warn("observation persistence failed",
			zap.String("timestamp", g.Timestamp),
			zap.Error(err),
		)
	}
}

// maybePrune applies the database retention policy at most once per
// pruneInterval.
func (m *Monitor) maybePrune(ctx context.Context) {
	if m.cfg.Database.Retention <= 0 || time.Since(m.lastPrune) < pruneInterval {
		return
	}
	m.lastPrune = time.Now()

	cutoff := time.Now().Add(-m.cfg.Database.Retention)
	deleted, err := m.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		m.logger.Warn("retention pruning failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		m.logger.Info("pruned old observations", zap.Int64("deleted", deleted))
	}
}
