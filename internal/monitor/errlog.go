package monitor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// ErrorLog writes durable per-failure log files so failed attempts remain
// observable even if the process is killed mid-backoff.
type ErrorLog struct {
	dir    string
	prefix string
	logger *zap.Logger
}

// NewErrorLog creates the sink, ensuring the target directory exists.
func NewErrorLog(dir, prefix string, logger *zap.Logger) (*ErrorLog, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create log dir %q: %w", dir, err)
	}
	return &ErrorLog{dir: dir, prefix: prefix, logger: logger}, nil
}

// ActionFailure records one failed retry attempt, before any backoff delay.
func (l *ErrorLog) ActionFailure(description string, attempt int, cause error) {
	ts := TimestampKey(time.Now())
	body := fmt.Sprintf("[%s] Action failed: %s (attempt %d)\nError: %v\n", ts, description, attempt, cause)
	l.write(fmt.Sprintf("%s-action-error-%s.log", l.prefix, ts), body)
}

// StoreFailure records a persistence error together with the observation
// payload that could not be written.
func (l *ErrorLog) StoreFailure(timestamp string, cause error, payload []byte) {
	body := fmt.Sprintf("DB Error: %v\n%s\n", cause, payload)
	l.write(fmt.Sprintf("%s-db-error-%s.log", l.prefix, timestamp), body)
}

func (l *ErrorLog) write(name, body string) {
	path := filepath.Join(l.dir, name)
	if err := os.WriteFile(path, []byte(body), 0o640); err != nil {
		// The durable sink itself failing must never escalate.
		l.logger.Warn("failed to write error log file",
			zap.String("path", path),
			zap.Error(err),
		)
	}
}
