package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Michael-ctrl-eng/radio-monitor/internal/config"
)

func TestNormalizeStatus(t *testing.T) {
	for _, valid := range []string{"Online", "Offline", "Active", "Inactive", "Idle", "Ready", "Error", "Unknown"} {
		assert.Equal(t, valid, NormalizeStatus(valid))
	}

	assert.Equal(t, InvalidStatus, NormalizeStatus("banana"))
	assert.Equal(t, InvalidStatus, NormalizeStatus(""))
	assert.Equal(t, InvalidStatus, NormalizeStatus("online"), "vocabulary is case-sensitive")
	assert.Equal(t, InvalidStatus, NormalizeStatus(" Online "))
}

func TestNormalizeLastLogin(t *testing.T) {
	assert.Equal(t, "2024-01-05 13:00:00", NormalizeLastLogin("2024-01-05 13:00:00"))

	assert.Equal(t, InvalidTime, NormalizeLastLogin("yesterday"))
	assert.Equal(t, InvalidTime, NormalizeLastLogin(""))
	assert.Equal(t, InvalidTime, NormalizeLastLogin("2024-01-05T13:00:00"))
	assert.Equal(t, InvalidTime, NormalizeLastLogin("2024-1-5 13:00:00"))
}

func TestNormalizeLastLogin_TrimsBeforeMatching(t *testing.T) {
	// Surrounding whitespace is tolerated; the original text is preserved.
	assert.Equal(t, " 2024-01-05 13:00:00 ", NormalizeLastLogin(" 2024-01-05 13:00:00 "))
}

func TestSignalAcceptable(t *testing.T) {
	assert.True(t, SignalAcceptable("-70dBm", -80))
	assert.True(t, SignalAcceptable("-80dBm", -80), "threshold itself is acceptable")
	assert.False(t, SignalAcceptable("-95dBm", -80))
	assert.False(t, SignalAcceptable("n/a", -80))
	assert.False(t, SignalAcceptable("", -80))
	assert.True(t, SignalAcceptable(" -70 dBm ", -80), "whitespace and suffix are stripped")
}

func TestBatteryAcceptable(t *testing.T) {
	assert.True(t, BatteryAcceptable("42%", 20))
	assert.True(t, BatteryAcceptable("20%", 20))
	assert.False(t, BatteryAcceptable("10%", 20))
	assert.False(t, BatteryAcceptable("N/A", 20))
	assert.False(t, BatteryAcceptable("full", 20))
}

func testThresholds() config.ThresholdsConfig {
	return config.ThresholdsConfig{MinSignal: -80, MinBattery: 20}
}

func TestGrade_EndToEndScenario(t *testing.T) {
	obs := &Observation{
		Timestamp:      "2024-03-01T09-00-00-000Z",
		OnOffStatus:    "Online",
		LastLoginTime:  "2024-03-01 09:00:00",
		SignalStrength: "-70dBm",
		BatteryLevel:   "55%",
		Success:        true,
	}

	g := Grade(obs, testThresholds(),
		config.DataAlertConfig{Enabled: false, Threshold: -95},
		config.DataAlertConfig{Enabled: false, Threshold: 10},
	)

	assert.True(t, g.Success)
	assert.True(t, g.SignalValid)
	assert.True(t, g.BatteryValid)
	assert.True(t, g.LastLoginTimeValid)
	assert.True(t, g.OnOffStatusValid)
	assert.False(t, g.SignalAlertTrigger)
	assert.False(t, g.BatteryAlertTrigger)
}

func TestGrade_AlertThresholdsAreDistinctFromQualityThresholds(t *testing.T) {
	obs := &Observation{
		OnOffStatus:    "Online",
		LastLoginTime:  "2024-03-01 09:00:00",
		SignalStrength: "-85dBm",
		BatteryLevel:   "15%",
		Success:        true,
	}

	// Quality says invalid (-85 < -80, 15 < 20) but the alert thresholds
	// (-95, 10) are not crossed: flags differ, triggers stay off.
	g := Grade(obs, testThresholds(),
		config.DataAlertConfig{Enabled: true, Threshold: -95},
		config.DataAlertConfig{Enabled: true, Threshold: 10},
	)

	assert.False(t, g.SignalValid)
	assert.False(t, g.BatteryValid)
	assert.False(t, g.SignalAlertTrigger)
	assert.False(t, g.BatteryAlertTrigger)
}

func TestGrade_TriggersBelowAlertThreshold(t *testing.T) {
	obs := &Observation{
		OnOffStatus:    "Online",
		LastLoginTime:  "2024-03-01 09:00:00",
		SignalStrength: "-96dBm",
		BatteryLevel:   "9%",
		Success:        true,
	}

	g := Grade(obs, testThresholds(),
		config.DataAlertConfig{Enabled: true, Threshold: -95},
		config.DataAlertConfig{Enabled: true, Threshold: 10},
	)

	assert.True(t, g.SignalAlertTrigger)
	assert.True(t, g.BatteryAlertTrigger)
}

func TestGrade_DisabledAlertNeverTriggers(t *testing.T) {
	obs := &Observation{
		SignalStrength: "-120dBm",
		BatteryLevel:   "1%",
	}

	g := Grade(obs, testThresholds(),
		config.DataAlertConfig{Enabled: false, Threshold: -95},
		config.DataAlertConfig{Enabled: false, Threshold: 10},
	)

	assert.False(t, g.SignalAlertTrigger)
	assert.False(t, g.BatteryAlertTrigger)
}

func TestGrade_UnparsableValuesNeverTrigger(t *testing.T) {
	obs := &Observation{
		SignalStrength: FieldUnavail,
		BatteryLevel:   FieldUnavail,
	}

	g := Grade(obs, testThresholds(),
		config.DataAlertConfig{Enabled: true, Threshold: -95},
		config.DataAlertConfig{Enabled: true, Threshold: 10},
	)

	assert.False(t, g.SignalValid)
	assert.False(t, g.BatteryValid)
	assert.False(t, g.SignalAlertTrigger)
	assert.False(t, g.BatteryAlertTrigger)
}

func TestGrade_Idempotent(t *testing.T) {
	obs := &Observation{
		Timestamp:      "2024-03-01T09-00-00-000Z",
		OnOffStatus:    "Offline",
		LastLoginTime:  "not a time",
		SignalStrength: "-99dBm",
		BatteryLevel:   "5%",
		Errors:         []ObservationError{{Message: "boom"}},
	}
	sig := config.DataAlertConfig{Enabled: true, Threshold: -95}
	bat := config.DataAlertConfig{Enabled: true, Threshold: 10}

	first := Grade(obs, testThresholds(), sig, bat)
	second := Grade(obs, testThresholds(), sig, bat)

	assert.Equal(t, first, second)
}

func TestTimestampKey(t *testing.T) {
	key := TimestampKey(mustTime(t, "2026-08-29T12:34:56.789Z"))
	assert.Equal(t, "2026-08-29T12-34-56-789Z", key)
	assert.NotContains(t, key, ":")
	assert.NotContains(t, key, ".")
}
