package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"cinema-agent/shared/config"
	"cinema-agent/shared/logging"
)

type summary string

func (s summary) GetSummary() string { return string(s) }

type fakeAgent struct {
	err   error
	runID string
}

func (f *fakeAgent) Name() string      { return "fake agent" }
func (f *fakeAgent) Initialize() error { return nil }

func (f *fakeAgent) RunOnce(ctx context.Context, events *AgentEvents) error {
	f.runID = logging.RunIDFromContext(ctx)
	if f.err != nil {
		events.OnCriticalFailure(f.err, time.Millisecond)
		return f.err
	}
	events.OnSuccess(summary("all good"), time.Millisecond)
	return nil
}

func TestRunOnceRecordsSuccess(t *testing.T) {
	agent := &fakeAgent{}
	s := New(config.MonitoringConfig{HealthPort: 0}, "@every 1h", agent)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if agent.runID == "" {
		t.Error("agent ran without a run id in its context")
	}

	status := s.Monitor().Status()
	if !status.Healthy || status.LastSummary != "all good" {
		t.Errorf("Status() = %+v, want healthy with summary", status)
	}
}

func TestRunOnceFailure(t *testing.T) {
	agent := &fakeAgent{err: errors.New("cache unavailable")}
	s := New(config.MonitoringConfig{}, "@every 1h", agent)

	err := s.RunOnce(context.Background())
	if !errors.Is(err, agent.err) {
		t.Errorf("RunOnce() error = %v, want wrapped agent error", err)
	}
	if s.Monitor().IsHealthy() {
		t.Error("monitor healthy after a critical failure")
	}
	if n := s.Monitor().Status().Critical; n != 1 {
		t.Errorf("critical failures = %d, want 1", n)
	}
}
