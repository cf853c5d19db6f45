// Package monitor implements the scrape-validate-alert-persist pipeline for
// a single remote device status page.
package monitor

import (
	"strings"
	"time"
)

// Placeholder values an Observation carries until extraction fills them in.
const (
	StatusUnknown  = "Unknown"
	FieldUnavail   = "N/A"
	InvalidStatus  = "Invalid Status"
	InvalidTime    = "Invalid Time"
)

// ObservationError records one failure captured during a cycle.
type ObservationError struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// Observation is the raw record of one scrape cycle. It is created with
// placeholder values at cycle start, mutated in place as extraction steps
// succeed, and persisted exactly once.
type Observation struct {
	Timestamp      string             `json:"timestamp"`
	OnOffStatus    string             `json:"on_off_status"`
	LastLoginTime  string             `json:"last_login_time"`
	SignalStrength string             `json:"signal_strength"`
	BatteryLevel   string             `json:"battery_level"`
	Success        bool               `json:"success"`
	Errors         []ObservationError `json:"errors"`
}

// NewObservation creates an Observation keyed by the given wall-clock time.
func NewObservation(now time.Time) *Observation {
	return &Observation{
		Timestamp:      TimestampKey(now),
		OnOffStatus:    StatusUnknown,
		LastLoginTime:  StatusUnknown,
		SignalStrength: FieldUnavail,
		BatteryLevel:   FieldUnavail,
	}
}

// RecordError appends a failure to the observation and marks it unsuccessful.
func (o *Observation) RecordError(err error) {
	o.Success = false
	o.Errors = append(o.Errors, ObservationError{Message: err.Error()})
}

// GradedObservation is an Observation augmented with validity flags (data
// quality against the operational minimums) and alert triggers (separately
// configured thresholds gating alert dispatch).
type GradedObservation struct {
	Observation

	SignalValid        bool `json:"signal_valid"`
	BatteryValid       bool `json:"battery_valid"`
	LastLoginTimeValid bool `json:"last_login_time_valid"`
	OnOffStatusValid   bool `json:"on_off_status_valid"`

	SignalAlertTrigger  bool `json:"signal_alert_trigger"`
	BatteryAlertTrigger bool `json:"battery_alert_trigger"`
}

// timestampReplacer makes RFC 3339 timestamps filesystem- and key-safe,
// matching the historical key format of the status log table.
var timestampReplacer = strings.NewReplacer(":", "-", ".", "-")

// TimestampKey formats t as a UTC ISO-8601 string with ':' and '.' replaced
// by '-', e.g. "2026-08-29T12-34-56-789Z". Used as the observation primary
// key and in diagnostic file names.
func TimestampKey(t time.Time) string {
	return timestampReplacer.Replace(t.UTC().Format("2006-01-02T15:04:05.000Z"))
}
