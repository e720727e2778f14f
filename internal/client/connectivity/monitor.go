// Package connectivity tracks whether the backend is reachable.
package connectivity

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/weelo-captain/internal/client/state"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

const (
	PathHealth   = "/health"
	probeTimeout = 3 * time.Second
)

type Checker interface {
	Online() bool
}

// Static is a Checker with a fixed answer.
type Static bool

func (s Static) Online() bool { return bool(s) }

type CheckerFunc func() bool

func (f CheckerFunc) Online() bool { return f() }

// Monitor probes GET {baseURL}/health on an interval. It starts optimistic
// (online) so the first requests are not forced to the cache.
type Monitor struct {
	url    string
	client *http.Client
	log    logging.Logger
	status *state.Flow[bool]
}

func NewMonitor(baseURL string, client *http.Client, log logging.Logger) *Monitor {
	if client == nil {
		client = &http.Client{Timeout: probeTimeout}
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Monitor{
		url:    baseURL + PathHealth,
		client: client,
		log:    log,
		status: state.NewFlow(true),
	}
}

func (m *Monitor) Online() bool { return m.status.Value() }

func (m *Monitor) Status() *state.Flow[bool] { return m.status }

// Check runs one probe and records the outcome.
func (m *Monitor) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	online := m.probe(ctx)
	prev := m.status.Value()
	if online != prev {
		if online {
			m.log.Info(ctx, "backend reachable again")
		} else {
			m.log.Warn(ctx, "backend unreachable, switching to offline mode")
		}
		m.status.Set(online)
	}
	return online
}

func (m *Monitor) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		return false
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

// Run probes every interval until ctx ends.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	m.Check(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}
