// Package connectivity tracks whether the catalog host is reachable.
//
// Status reads a cached value and never blocks. The value is kept current by
// Monitor.Serve, which runs under a suture supervisor and probes the host on
// an interval.
package connectivity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/mmcdole/moviefan/internal/domain"
	"github.com/mmcdole/moviefan/internal/metrics"
)

const (
	defaultInterval = 30 * time.Second
	defaultTimeout  = 5 * time.Second
)

// Monitor implements domain.ReachabilityProvider with a background HTTP probe
type Monitor struct {
	status atomic.Int32

	probeURL string
	interval time.Duration
	timeout  time.Duration
	client   *http.Client
	logger   *slog.Logger
}

// NewMonitor creates a monitor for probeURL. Status is Unknown until the
// first probe completes.
func NewMonitor(probeURL string, interval, timeout time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Monitor{
		probeURL: probeURL,
		interval: interval,
		timeout:  timeout,
		client: &http.Client{
			Timeout: timeout,
			// A redirect is already proof of reachability
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}
}

// Status returns the last observed reachability
func (m *Monitor) Status() domain.Reachability {
	return domain.Reachability(m.status.Load())
}

// Set overrides the observed status
func (m *Monitor) Set(r domain.Reachability) {
	old := domain.Reachability(m.status.Swap(int32(r)))
	metrics.Reachability.Set(float64(r))
	if old != r {
		m.logger.Info("reachability changed", "from", old.String(), "to", r.String())
	}
}

// Serve implements suture.Service. It probes immediately, then every
// interval until ctx is cancelled.
func (m *Monitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		m.Probe(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Probe issues one HEAD request and records the result. Any HTTP response
// counts as reachable; only a transport failure is unreachable.
func (m *Monitor) Probe(ctx context.Context) domain.Reachability {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.probeURL, nil)
	if err != nil {
		m.logger.Error("invalid probe url", "url", m.probeURL, "error", err)
		return m.Status()
	}

	resp, err := m.client.Do(req)
	if err != nil {
		// Shutdown is not an observation
		if errors.Is(ctx.Err(), context.Canceled) {
			return m.Status()
		}
		m.logger.Debug("probe failed", "error", err)
		m.Set(domain.Unreachable)
		return domain.Unreachable
	}
	resp.Body.Close()

	m.Set(domain.Reachable)
	return domain.Reachable
}

func (m *Monitor) String() string {
	return "connectivity-monitor"
}

// Static is a fixed ReachabilityProvider
type Static domain.Reachability

// Status returns the fixed value
func (s Static) Status() domain.Reachability {
	return domain.Reachability(s)
}
