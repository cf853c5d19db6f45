package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Michael-ctrl-eng/radio-monitor/internal/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Alerter decides whether a cycle outcome warrants an alert and fans it out
// to the configured notifiers. Delivery failures are logged and absorbed;
// alerting problems must never take the monitor down.
type Alerter struct {
	cfg       config.AlertsConfig
	notifiers []Notifier
	logger    *zap.Logger

	// Optional per-field cooldown for threshold alerts. Nil when cooldown
	// is disabled, in which case every qualifying cycle re-alerts.
	signalGate  *rate.Sometimes
	batteryGate *rate.Sometimes
}

// NewAlerter builds the dispatcher. When alerting is disabled or no
// recipients are configured, it is a permanent no-op and no transport is
// constructed.
func NewAlerter(cfg config.AlertsConfig, logger *zap.Logger) *Alerter {
	a := &Alerter{cfg: cfg, logger: logger}

	if !cfg.Enabled || len(cfg.Recipients) == 0 {
		return a
	}

	if cfg.SMTP.Host != "" {
		a.notifiers = append(a.notifiers, NewEmailNotifier(cfg.SMTP, cfg.Recipients))
	}
	if cfg.Webhook.URL != "" {
		a.notifiers = append(a.notifiers, NewWebhookNotifier(cfg.Webhook))
	}

	if cfg.DataCooldown > 0 {
		a.signalGate = &rate.Sometimes{Interval: cfg.DataCooldown}
		a.batteryGate = &rate.Sometimes{Interval: cfg.DataCooldown}
	}

	return a
}

// Enabled reports whether any notifier is wired.
func (a *Alerter) Enabled() bool {
	return len(a.notifiers) > 0
}

// CycleFailed is called after every failed cycle. An alert is sent only once
// the consecutive-failure count reaches the threshold; sending does not
// reset the counter.
func (a *Alerter) CycleFailed(ctx context.Context, state FailureState, obs *Observation) {
	if !a.Enabled() || state.Consecutive < a.cfg.FailureThreshold {
		return
	}

	details, err := json.MarshalIndent(obs.Errors, "", "  ")
	if err != nil {
		details = []byte(fmt.Sprintf("%+v", obs.Errors))
	}

	a.send(ctx, &Alert{
		ID:      uuid.NewString(),
		Kind:    KindScrapeFailure,
		Subject: "[CRITICAL] Radio Monitoring Failure Alert",
		Body: fmt.Sprintf("Radio monitoring scrape failed consecutively %d times.\nTimestamp: %s\nError Details:\n%s",
			state.Consecutive, time.Now().UTC().Format(time.RFC3339), details),
		TriggeredAt:         time.Now().UTC(),
		ConsecutiveFailures: state.Consecutive,
	})
}

// CycleSucceeded is called after every successful cycle and raises one alert
// per triggered data flag. Without a cooldown these are stateless per-cycle
// checks that re-alert every time.
func (a *Alerter) CycleSucceeded(ctx context.Context, graded *GradedObservation) {
	if !a.Enabled() {
		return
	}

	if graded.SignalAlertTrigger {
		a.gated(a.signalGate, func() {
			a.send(ctx, &Alert{
				ID:      uuid.NewString(),
				Kind:    KindSignalLow,
				Subject: "[WARNING] Radio Signal Strength Low",
				Body: fmt.Sprintf("Signal strength is below threshold!\nCurrent Signal Strength: %s\nThreshold: %d dBm\nTimestamp: %s",
					graded.SignalStrength, a.cfg.SignalLow.Threshold, time.Now().UTC().Format(time.RFC3339)),
				TriggeredAt: time.Now().UTC(),
			})
		})
	}

	if graded.BatteryAlertTrigger {
		a.gated(a.batteryGate, func() {
			a.send(ctx, &Alert{
				ID:      uuid.NewString(),
				Kind:    KindBatteryLow,
				Subject: "[WARNING] Radio Battery Level Low",
				Body: fmt.Sprintf("Battery level is below threshold!\nCurrent Battery Level: %s\nThreshold: %d%%\nTimestamp: %s",
					graded.BatteryLevel, a.cfg.BatteryLow.Threshold, time.Now().UTC().Format(time.RFC3339)),
				TriggeredAt: time.Now().UTC(),
			})
		})
	}
}

// gated applies the optional cooldown. A nil gate means no cooldown.
func (a *Alerter) gated(gate *rate.Sometimes, send func()) {
	if gate == nil {
		send()
		return
	}
	gate.Do(send)
}

// send fans the alert out to every notifier, logging and absorbing delivery
// failures.
func (a *Alerter) send(ctx context.Context, alert *Alert) {
	for _, n := range a.notifiers {
		if err := n.Notify(ctx, alert); err != nil {
			a.logger.Warn("alert delivery failed",
				zap.String("channel", n.Type()),
				zap.String("alert_id", alert.ID),
				zap.String("kind", string(alert.Kind)),
				zap.Error(err),
			)
			continue
		}
		a.logger.Info("alert sent",
			zap.String("channel", n.Type()),
			zap.String("alert_id", alert.ID),
			zap.String("kind", string(alert.Kind)),
		)
	}
}
