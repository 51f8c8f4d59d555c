package monitoring

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type HealthServer struct {
	monitor *Monitor
	port    string
	server  *http.Server
	log     zerolog.Logger
}

func NewHealthServer(monitor *Monitor, port string, log zerolog.Logger) *HealthServer {
	if port == "" {
		port = "8080"
	}
	return &HealthServer{
		monitor: monitor,
		port:    port,
		log:     log,
	}
}

// Handler exposes /health and /status
func (h *HealthServer) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.healthHandler)
	router.GET("/status", h.statusHandler)
	return router
}

// Start serves in the background until ctx is done
func (h *HealthServer) Start(ctx context.Context) {
	h.server = &http.Server{
		Addr:              ":" + h.port,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	h.log.Info().Str("port", h.port).Msg("health server starting")
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.log.Error().Err(err).Msg("health server error")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.server.Shutdown(shutdownCtx)
	}()
}

func (h *HealthServer) healthHandler(c *gin.Context) {
	if h.monitor.IsHealthy() {
		c.String(http.StatusOK, "OK - %s", h.monitor.GetStatusSummary())
		return
	}
	c.String(http.StatusServiceUnavailable, "Service unhealthy - %s", h.monitor.GetStatusSummary())
}

func (h *HealthServer) statusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.Status())
}
