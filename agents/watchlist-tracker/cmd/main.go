package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	watchlisttracker "cinema-agent/agents/watchlist-tracker"
	"cinema-agent/internal/models"
	"cinema-agent/shared/config"
	"cinema-agent/shared/logging"
	"cinema-agent/shared/scheduler"
)

func main() {
	var (
		once    = flag.Bool("once", false, "check the watchlist once and exit")
		suggest = flag.Bool("suggest", false, "suggest a watchlist title streaming on a subscribed service")
	)
	flag.Parse()

	log := logging.Component("main")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log = logging.Component("main")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	agent := watchlisttracker.NewTrackerAgent(cfg)
	if err := agent.Initialize(); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize agent")
	}
	defer agent.Close()

	s := scheduler.New(cfg.Monitoring, cfg.Tracker.Schedule, agent)
	switch {
	case *suggest:
		err = printSuggestion(ctx, agent)
	case *once:
		err = s.RunOnce(ctx)
	default:
		log.Info().Str("schedule", cfg.Tracker.Schedule).Msg("starting scheduler")
		if err = s.Start(ctx); errors.Is(err, context.Canceled) {
			err = nil
		}
	}
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		agent.Close()
		os.Exit(1)
	}
}

func printSuggestion(ctx context.Context, agent *watchlisttracker.TrackerAgent) error {
	suggestion, err := agent.Suggest(ctx)
	if err != nil {
		return err
	}
	writeSuggestion(os.Stdout, suggestion)
	return nil
}

func writeSuggestion(w io.Writer, suggestion *models.WatchSuggestion) {
	if !suggestion.Found {
		fmt.Fprintln(w, "Nothing on your watchlist is streaming on your services right now.")
		return
	}

	fmt.Fprintf(w, "Tonight: %s on %s\n", suggestion.Title, strings.Join(suggestion.Providers, ", "))
	if suggestion.Link != "" {
		fmt.Fprintf(w, "Watch here: %s\n", suggestion.Link)
	}
}
