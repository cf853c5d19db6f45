package monitor

import (
	"context"
	"time"
)

// AlertKind distinguishes the alert families; subjects and bodies differ
// per kind.
type AlertKind string

const (
	// KindScrapeFailure is raised when consecutive cycle failures reach the
	// configured threshold.
	KindScrapeFailure AlertKind = "scrape_failure"
	// KindSignalLow is raised after a successful cycle whose signal reading
	// fell below the signal alert threshold.
	KindSignalLow AlertKind = "signal_low"
	// KindBatteryLow is raised after a successful cycle whose battery
	// reading fell below the battery alert threshold.
	KindBatteryLow AlertKind = "battery_low"
)

// Alert is one outbound notification, ready for delivery on any channel.
type Alert struct {
	ID                  string    `json:"id"`
	Kind                AlertKind `json:"kind"`
	Subject             string    `json:"subject"`
	Body                string    `json:"body"`
	TriggeredAt         time.Time `json:"triggered_at"`
	ConsecutiveFailures int       `json:"consecutive_failures,omitempty"`
}

// Notifier delivers alerts through one channel type. Implementations:
// EmailNotifier, WebhookNotifier.
type Notifier interface {
	Notify(ctx context.Context, alert *Alert) error
	// Type returns the notifier type identifier (e.g., "email", "webhook").
	Type() string
}
