package monitor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// ObservationStore persists graded observations, one row per cycle, keyed
// by the cycle timestamp.
type ObservationStore struct {
	db *sql.DB
}

// NewObservationStore creates a store backed by the given database.
func NewObservationStore(db *sql.DB) *ObservationStore {
	return &ObservationStore{db: db}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Insert writes one graded observation. A duplicate timestamp violates the
// primary key and surfaces as an error for the caller to absorb.
func (s *ObservationStore) Insert(ctx context.Context, g *GradedObservation) error {
	errsJSON, err := json.Marshal(g.Errors)
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO radio_status_log (
			timestamp, on_off_status, last_login_time, signal_strength, battery_level,
			scrape_success, errors,
			signal_valid, battery_valid, last_login_time_valid, on_off_status_valid,
			signal_alert_trigger, battery_alert_trigger
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Timestamp, g.OnOffStatus, g.LastLoginTime, g.SignalStrength, g.BatteryLevel,
		boolInt(g.Success), string(errsJSON),
		boolInt(g.SignalValid), boolInt(g.BatteryValid),
		boolInt(g.LastLoginTimeValid), boolInt(g.OnOffStatusValid),
		boolInt(g.SignalAlertTrigger), boolInt(g.BatteryAlertTrigger),
	)
	if err != nil {
		return fmt.Errorf("insert observation %s: %w", g.Timestamp, err)
	}
	return nil
}

// ListRecent returns the newest observations first. If limit <= 0, defaults
// to 100.
func (s *ObservationStore) ListRecent(ctx context.Context, limit int) ([]GradedObservation, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, on_off_status, last_login_time, signal_strength, battery_level,
		       scrape_success, errors,
		       signal_valid, battery_valid, last_login_time_valid, on_off_status_valid,
		       signal_alert_trigger, battery_alert_trigger
		FROM radio_status_log ORDER BY timestamp DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	defer rows.Close()

	var out []GradedObservation
	for rows.Next() {
		var (
			g        GradedObservation
			success  int
			errsJSON string
			sv, bv   int
			lv, ov   int
			sat, bat int
		)
		if err := rows.Scan(
			&g.Timestamp, &g.OnOffStatus, &g.LastLoginTime, &g.SignalStrength, &g.BatteryLevel,
			&success, &errsJSON,
			&sv, &bv, &lv, &ov, &sat, &bat,
		); err != nil {
			return nil, fmt.Errorf("scan observation row: %w", err)
		}
		g.Success = success != 0
		g.SignalValid = sv != 0
		g.BatteryValid = bv != 0
		g.LastLoginTimeValid = lv != 0
		g.OnOffStatusValid = ov != 0
		g.SignalAlertTrigger = sat != 0
		g.BatteryAlertTrigger = bat != 0
		if errsJSON != "" {
			if err := json.Unmarshal([]byte(errsJSON), &g.Errors); err != nil {
				return nil, fmt.Errorf("unmarshal errors for %s: %w", g.Timestamp, err)
			}
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// DeleteOlderThan prunes observations whose timestamp key sorts before the
// cutoff. Timestamp keys are lexicographically ordered by construction.
// Returns the number of rows deleted.
func (s *ObservationStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM radio_status_log WHERE timestamp < ?`,
		TimestampKey(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("delete old observations: %w", err)
	}
	return result.RowsAffected()
}
