package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/Michael-ctrl-eng/radio-monitor/internal/config"
	"go.uber.org/zap"
)

// loginProbeTimeout bounds the login-form presence check. Absence of the
// form within this window is read as "session still valid" -- a heuristic,
// not a guarantee.
const loginProbeTimeout = 5 * time.Second

// SessionManager performs the login sequence and detects session expiry by
// probing for the reappearance of the login form.
type SessionManager struct {
	creds     config.CredentialsConfig
	selectors config.SelectorsConfig
	retrier   *Retrier
	settle    time.Duration
	logger    *zap.Logger
}

// NewSessionManager creates a session manager. settle is how long to wait
// for post-login navigation before probing for the dashboard marker.
func NewSessionManager(creds config.CredentialsConfig, selectors config.SelectorsConfig, retrier *Retrier, settle time.Duration, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		creds:     creds,
		selectors: selectors,
		retrier:   retrier,
		settle:    settle,
		logger:    logger,
	}
}

// EnsureAuthenticated probes for the login form and re-authenticates when it
// is present. Returns true if a login was performed. Callable both
// proactively at cycle start and reactively after an extraction failure.
func (s *SessionManager) EnsureAuthenticated(ctx context.Context, pg Page) (bool, error) {
	if err := pg.WaitVisible(ctx, s.selectors.LoginForm, loginProbeTimeout); err != nil {
		// No login form within the probe window: session presumed valid.
		return false, nil
	}

	s.logger.Info("session expired or login required, re-authenticating")
	if err := s.Login(ctx, pg); err != nil {
		return false, err
	}
	return true, nil
}

// Login enters credentials and waits for the dashboard. The two phases are
// retried independently so a flaky post-login wait does not force the
// credentials to be re-entered.
func (s *SessionManager) Login(ctx context.Context, pg Page) error {
	err := s.retrier.Do(ctx, "enter credentials", func(ctx context.Context) error {
		if err := pg.Type(ctx, s.selectors.Username, s.creds.Username); err != nil {
			return fmt.Errorf("type username: %w", err)
		}
		if err := pg.Type(ctx, s.selectors.Password, s.creds.Password); err != nil {
			return fmt.Errorf("type password: %w", err)
		}
		if err := pg.Click(ctx, s.selectors.Submit); err != nil {
			return fmt.Errorf("click submit: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.retrier.Do(ctx, "post-login navigation", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.settle):
		}
		if err := pg.WaitVisible(ctx, s.selectors.Dashboard, 15*time.Second); err != nil {
			return fmt.Errorf("dashboard marker: %w", err)
		}
		return nil
	})
}
