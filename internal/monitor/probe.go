package monitor

import (
	"context"
	"fmt"
	"net/url"
	"runtime"
	"time"

	probing "github.com/prometheus-community/pro-bing"
	"go.uber.org/zap"
)

// ReachabilityProbe pings the target host before a cycle so that a browser
// launch failure can be told apart from a dead network. It never fails a
// cycle on its own.
type ReachabilityProbe struct {
	host    string
	timeout time.Duration
	logger  *zap.Logger
}

// NewReachabilityProbe extracts the host from the target base URL.
func NewReachabilityProbe(baseURL string, timeout time.Duration, logger *zap.Logger) (*ReachabilityProbe, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("base url %q has no host", baseURL)
	}
	return &ReachabilityProbe{host: u.Hostname(), timeout: timeout, logger: logger}, nil
}

// Check sends a single echo request and reports whether the host answered.
func (p *ReachabilityProbe) Check(ctx context.Context) bool {
	pinger, err := probing.NewPinger(p.host)
	if err != nil {
		p.logger.Debug("failed to create pinger", zap.String("host", p.host), zap.Error(err))
		return false
	}

	pinger.Count = 1
	pinger.Timeout = p.timeout
	pinger.SetPrivileged(runtime.GOOS == "windows")

	if err := pinger.RunWithContext(ctx); err != nil {
		p.logger.Debug("ping failed", zap.String("host", p.host), zap.Error(err))
		return false
	}

	return pinger.Statistics().PacketsRecv > 0
}
