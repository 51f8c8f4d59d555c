package monitoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Status is the last known outcome of an agent
type Status struct {
	Agent       string    `json:"agent"`
	Healthy     bool      `json:"healthy"`
	LastRun     time.Time `json:"last_run"`
	LastSuccess bool      `json:"last_success"`
	LastSummary string    `json:"last_summary,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	Runs        int       `json:"runs"`
	Partial     int       `json:"partial_failures"`
	Critical    int       `json:"critical_failures"`
}

type Monitor struct {
	mu     sync.RWMutex
	agent  string
	status Status
	log    zerolog.Logger
	now    func() time.Time
}

func NewMonitor(agent string, log zerolog.Logger) *Monitor {
	return &Monitor{
		agent:  agent,
		status: Status{Agent: agent},
		log:    log,
		now:    time.Now,
	}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.status.Runs++
	m.status.LastSuccess = true
	m.status.LastRun = m.now()
	m.status.LastSummary = summary
	m.status.LastError = ""
	m.mu.Unlock()

	m.log.Info().Str("summary", summary).Dur("duration", duration).Msg("run completed")
}

// RecordPartialFailure does not change health
func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.status.Partial++
	m.mu.Unlock()

	m.log.Warn().Err(err).Dur("duration", duration).Msg("partial failure")
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.status.Runs++
	m.status.Critical++
	m.status.LastSuccess = false
	m.status.LastRun = m.now()
	m.status.LastError = err.Error()
	m.mu.Unlock()

	m.log.Error().Err(err).Dur("duration", duration).Msg("critical failure")
}

// IsHealthy is true before the first run and after a successful one
func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.LastRun.IsZero() || m.status.LastSuccess
}

func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.status
	s.Healthy = s.LastRun.IsZero() || s.LastSuccess
	return s
}

func (m *Monitor) GetStatusSummary() string {
	s := m.Status()
	if s.LastRun.IsZero() {
		return "No runs yet"
	}
	if s.LastSuccess {
		return fmt.Sprintf("Last run: %s", s.LastRun.Format("Jan 2 15:04"))
	}
	return fmt.Sprintf("Last run failed: %s", s.LastRun.Format("Jan 2 15:04"))
}
