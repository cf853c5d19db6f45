package monitor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Michael-ctrl-eng/radio-monitor/internal/config"
)

// validStatuses is the accepted on/off status vocabulary. Anything else is
// coerced to "Invalid Status" before storage.
var validStatuses = map[string]struct{}{
	"Online":   {},
	"Offline":  {},
	"Active":   {},
	"Inactive": {},
	"Idle":     {},
	"Ready":    {},
	"Error":    {},
	"Unknown":  {},
}

var lastLoginPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)

// NormalizeStatus returns the status text unchanged when it is in the
// accepted vocabulary and "Invalid Status" otherwise.
func NormalizeStatus(text string) string {
	if _, ok := validStatuses[text]; ok {
		return text
	}
	return InvalidStatus
}

// NormalizeLastLogin returns the login-time text unchanged when it matches
// "YYYY-MM-DD HH:MM:SS" exactly (after trimming) and "Invalid Time" otherwise.
func NormalizeLastLogin(text string) string {
	if lastLoginPattern.MatchString(strings.TrimSpace(text)) {
		return text
	}
	return InvalidTime
}

// parseUnitInt strips a unit suffix, trims, and parses an integer.
// Non-numeric content is a value-level failure, never an error.
func parseUnitInt(text, suffix string) (int, bool) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(text, suffix, ""))
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SignalAcceptable reports whether a raw signal reading like "-70dBm" parses
// and is at or above the given minimum. Parse failure is not acceptable.
func SignalAcceptable(text string, minDBM int) bool {
	n, ok := parseUnitInt(text, "dBm")
	return ok && n >= minDBM
}

// BatteryAcceptable reports whether a raw battery reading like "42%" parses
// and is at or above the given minimum percentage.
func BatteryAcceptable(text string, minPercent int) bool {
	n, ok := parseUnitInt(text, "%")
	return ok && n >= minPercent
}

// Grade derives validity flags and alert triggers from a raw observation.
// Validity uses the data-quality thresholds; the alert triggers use their
// own enable flags and thresholds (strictly below triggers). Pure function:
// the same observation always grades identically.
func Grade(obs *Observation, thresholds config.ThresholdsConfig, signalAlert, batteryAlert config.DataAlertConfig) GradedObservation {
	_, statusOK := validStatuses[obs.OnOffStatus]
	g := GradedObservation{
		Observation:        *obs,
		SignalValid:        SignalAcceptable(obs.SignalStrength, thresholds.MinSignal),
		BatteryValid:       BatteryAcceptable(obs.BatteryLevel, thresholds.MinBattery),
		LastLoginTimeValid: lastLoginPattern.MatchString(strings.TrimSpace(obs.LastLoginTime)),
		OnOffStatusValid:   statusOK,
	}

	if signalAlert.Enabled {
		if n, ok := parseUnitInt(obs.SignalStrength, "dBm"); ok && n < signalAlert.Threshold {
			g.SignalAlertTrigger = true
		}
	}
	if batteryAlert.Enabled {
		if n, ok := parseUnitInt(obs.BatteryLevel, "%"); ok && n < batteryAlert.Threshold {
			g.BatteryAlertTrigger = true
		}
	}

	return g
}
