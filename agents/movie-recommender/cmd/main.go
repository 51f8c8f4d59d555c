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

	movierecommender "cinema-agent/agents/movie-recommender"
	"cinema-agent/internal/models"
	"cinema-agent/shared/batch"
	"cinema-agent/shared/config"
	"cinema-agent/shared/history"
	"cinema-agent/shared/logging"
	"cinema-agent/shared/scheduler"
)

func main() {
	var (
		once      = flag.Bool("once", false, "run a single recommendation pass and exit")
		random    = flag.Bool("random", false, "suggest one random movie with the reasons it fits")
		where     = flag.String("where", "", "look up where a title is streaming")
		providers = flag.Bool("providers", false, "list the streaming services of the configured region")
		stats     = flag.Bool("stats", false, "print watch history counts")
		watchlist = flag.Bool("watchlist", false, "list every movie on the watchlist")
		year      = flag.Int("year", 0, "list the movies watched in a year")
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

	agent := movierecommender.NewRecommenderAgent(cfg)
	if err := agent.Initialize(); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize agent")
	}
	defer agent.Close()

	switch {
	case *watchlist:
		err = printWatchlist(agent)
	case *stats || *year != 0:
		err = printHistory(agent, *stats, *year)
	case *where != "":
		err = printWhereToWatch(ctx, agent, *where)
	case *providers:
		err = printProviders(ctx, agent, cfg.Streaming.RegionCode())
	case *random:
		err = printRandom(ctx, agent)
	case *once:
		s := scheduler.New(cfg.Monitoring, cfg.Recommend.Schedule, agent)
		err = s.RunOnce(ctx)
	default:
		s := scheduler.New(cfg.Monitoring, cfg.Recommend.Schedule, agent)
		log.Info().Str("schedule", cfg.Recommend.Schedule).Msg("starting scheduler")
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

func printHistory(agent *movierecommender.RecommenderAgent, withStats bool, year int) error {
	h, err := agent.History()
	if err != nil {
		return err
	}

	if withStats {
		s := h.Stats()
		fmt.Printf("You have watched %d movies.\n", s.Watched)
		fmt.Printf("You have rated %d movies, %d of them %.0f stars or more.\n", s.Rated, s.HighlyRated, history.HighRating)
		fmt.Printf("You have %d movies on your watchlist.\n", s.Watchlist)
	}

	if year != 0 {
		watched := history.WatchedIn(h.Diary, year)
		if len(watched) == 0 {
			fmt.Printf("No movies found for the year %d.\n", year)
			return nil
		}
		fmt.Printf("Movies watched in %d:\n", year)
		for _, d := range watched {
			fmt.Printf("- %s\n", d.Title)
		}
	}
	return nil
}

func printWhereToWatch(ctx context.Context, agent *movierecommender.RecommenderAgent, title string) error {
	answer, err := agent.Engine().WhereToWatch(ctx, title)
	if err != nil {
		return err
	}
	if !answer.Found {
		fmt.Printf("No movie found matching %q.\n", title)
		return nil
	}

	fmt.Printf("Found movie: %s%s\n", answer.Movie.Title, releaseYear(answer.Movie))
	if len(answer.Offers) == 0 {
		fmt.Printf("Not streaming on any service in %s.\n", answer.Region)
		return nil
	}

	fmt.Printf("Streaming in %s on:\n", answer.Region)
	for _, offer := range answer.Offers {
		marker := ""
		if offer.Subscribed {
			marker = " (subscribed)"
		}
		fmt.Printf("- %s%s\n", offer.Name, marker)
	}
	if answer.Link != "" {
		fmt.Printf("Watch here: %s\n", answer.Link)
	}
	return nil
}

func printProviders(ctx context.Context, agent *movierecommender.RecommenderAgent, region string) error {
	names, err := agent.Client().ProviderNames(ctx, region)
	if err != nil {
		return err
	}
	fmt.Printf("Streaming services in %s:\n", region)
	for _, name := range names {
		fmt.Printf("- %s\n", name)
	}
	return nil
}

func printRandom(ctx context.Context, agent *movierecommender.RecommenderAgent) error {
	h, err := agent.History()
	if err != nil {
		return err
	}
	pick, outcomes, err := agent.Engine().Random(ctx, h)
	if err != nil {
		return err
	}
	writeRandom(os.Stdout, pick, outcomes)
	return nil
}

func writeRandom(w io.Writer, pick *models.RandomPick, outcomes *batch.Batch) {
	if outcomes != nil && outcomes.Failed() > 0 {
		fmt.Fprintf(w, "Skipped %d rated movies that could not be resolved.\n", outcomes.Failed())
	}
	if !pick.Found {
		fmt.Fprintf(w, "Could not find a movie you haven't seen after %d attempts.\n", pick.Attempts)
		return
	}

	fmt.Fprintf(w, "How about %s%s?\n", pick.Movie.Title, releaseYear(pick.Movie))
	fmt.Fprintln(w, strings.Join(pick.Reasons, "\n"))
}

func printWatchlist(agent *movierecommender.RecommenderAgent) error {
	h, err := agent.History()
	if err != nil {
		return err
	}
	writeWatchlist(os.Stdout, h.Watchlist)
	return nil
}

func writeWatchlist(w io.Writer, entries []models.WatchlistEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Your watchlist is empty.")
		return
	}
	fmt.Fprintf(w, "Your watchlist (%d movies):\n", len(entries))
	for _, e := range entries {
		if e.Year > 0 {
			fmt.Fprintf(w, "- %s (%d)\n", e.Title, e.Year)
			continue
		}
		fmt.Fprintf(w, "- %s\n", e.Title)
	}
}

func releaseYear(m models.MovieSummary) string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	return " (" + m.ReleaseDate[:4] + ")"
}
