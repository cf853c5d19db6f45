package monitor

import (
	"database/sql"

	"github.com/Michael-ctrl-eng/radio-monitor/internal/store"
)

// Migrations returns the schema for the observation log, applied idempotently
// at startup.
func Migrations() []store.Migration {
	return []store.Migration{
		{
			Version:     1,
			Description: "create radio status log",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS radio_status_log (
						timestamp TEXT PRIMARY KEY,
						on_off_status TEXT,
						last_login_time TEXT,
						signal_strength TEXT,
						battery_level TEXT,
						scrape_success INTEGER NOT NULL,
						errors TEXT,
						signal_valid INTEGER NOT NULL DEFAULT 0,
						battery_valid INTEGER NOT NULL DEFAULT 0,
						last_login_time_valid INTEGER NOT NULL DEFAULT 0,
						on_off_status_valid INTEGER NOT NULL DEFAULT 0,
						signal_alert_trigger INTEGER NOT NULL DEFAULT 0,
						battery_alert_trigger INTEGER NOT NULL DEFAULT 0
					)`,
					`CREATE INDEX IF NOT EXISTS idx_radio_status_success ON radio_status_log(scrape_success, timestamp)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
