package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cinema-agent/shared/config"
	"cinema-agent/shared/logging"
	"cinema-agent/shared/monitoring"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Metrics defines the common interface for agent metrics
type Metrics interface {
	// GetSummary returns a human-readable summary of the run
	GetSummary() string
}

// AgentEvents provides callbacks for monitoring agent execution
type AgentEvents struct {
	OnSuccess         func(metrics Metrics, duration time.Duration)
	OnPartialFailure  func(err error, duration time.Duration)
	OnCriticalFailure func(err error, duration time.Duration)
}

// Agent defines the interface that all agents must implement
type Agent interface {
	Name() string
	RunOnce(ctx context.Context, events *AgentEvents) error
	Initialize() error
}

// Scheduler runs one agent on a cron schedule and reports to a monitor
type Scheduler struct {
	monitor    *monitoring.Monitor
	agent      Agent
	cron       *cron.Cron
	schedule   string
	healthPort int
	log        zerolog.Logger
}

func New(cfg config.MonitoringConfig, schedule string, agent Agent) *Scheduler {
	log := logging.Component("scheduler").With().Str("agent", agent.Name()).Logger()
	cronLog := cron.PrintfLogger(&log)

	return &Scheduler{
		monitor:    monitoring.NewMonitor(agent.Name(), log),
		agent:      agent,
		schedule:   schedule,
		healthPort: cfg.HealthPort,
		log:        log,
		// Prevent overlapping runs
		cron: cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog))),
	}
}

func (s *Scheduler) Monitor() *monitoring.Monitor {
	return s.monitor
}

func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.agent.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	healthServer := monitoring.NewHealthServer(s.monitor, strconv.Itoa(s.healthPort), s.log)
	healthServer.Start(ctx)

	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Error().Err(err).Msg("scheduled run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.log.Info().Str("schedule", s.schedule).Msg("scheduler started")
	s.cron.Start()

	<-ctx.Done()
	s.log.Info().Msg("scheduler stopping")
	<-s.cron.Stop().Done()
	return ctx.Err()
}

// RunOnce executes a single run tagged with a fresh run id
func (s *Scheduler) RunOnce(ctx context.Context) error {
	startTime := time.Now()
	agentName := s.agent.Name()

	runID := logging.NewRunID()
	ctx = logging.ContextWithRunID(ctx, runID)
	log := s.log.With().Str("run_id", runID).Logger()
	log.Info().Msg("run starting")

	events := &AgentEvents{
		OnSuccess: func(metrics Metrics, duration time.Duration) {
			s.monitor.RecordSuccess(metrics.GetSummary(), duration)
		},
		OnPartialFailure: func(err error, duration time.Duration) {
			s.monitor.RecordPartialFailure(fmt.Errorf("%s partial failure: %w", agentName, err), duration)
		},
		OnCriticalFailure: func(err error, duration time.Duration) {
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s critical failure: %w", agentName, err), duration)
		},
	}

	if err := s.agent.RunOnce(ctx, events); err != nil {
		return fmt.Errorf("%s run failed: %w", agentName, err)
	}

	log.Info().Dur("duration", time.Since(startTime)).Msg("run finished")
	return nil
}
