package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const runIDKey contextKey = "run_id"

// NewRunID returns a short id identifying one agent run
func NewRunID() string {
	return uuid.New().String()[:8]
}

func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns "" when ctx carries no run id
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns base with the run id of ctx attached, if any
//
//	log := logging.Ctx(ctx, logging.Component("recommender"))
//	log.Info().Msg("run started") // {"component":"recommender","run_id":"1a2b3c4d",...}
func Ctx(ctx context.Context, base zerolog.Logger) zerolog.Logger {
	if id := RunIDFromContext(ctx); id != "" {
		return base.With().Str("run_id", id).Logger()
	}
	return base
}
