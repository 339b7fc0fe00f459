package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/mr1hm/resqlink/internal/api"
	"github.com/mr1hm/resqlink/internal/backend"
	"github.com/mr1hm/resqlink/internal/config"
	"github.com/mr1hm/resqlink/internal/feed"
	"github.com/mr1hm/resqlink/internal/fetch"
	"github.com/mr1hm/resqlink/internal/gdacs"
	"github.com/mr1hm/resqlink/internal/livefeed"
	"github.com/mr1hm/resqlink/internal/logging"
	"github.com/mr1hm/resqlink/internal/metrics"
	"github.com/mr1hm/resqlink/internal/models"
	"github.com/mr1hm/resqlink/internal/repository"
	"github.com/mr1hm/resqlink/internal/sink"
	"github.com/mr1hm/resqlink/internal/stream"
	"github.com/mr1hm/resqlink/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize snapshot store: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	m := metrics.NewMetrics()
	httpClient := fetch.NewClient()

	// New events fan out to the sink and SSE subscribers
	broadcaster := stream.NewBroadcaster()
	eventSink := sink.New(cfg.Kafka)
	notifier := feed.NewNotifier(eventSink, broadcaster, m)
	pool := worker.NewPool[models.DisasterEvent]("notify", cfg.Worker.Count, cfg.Worker.BufferSize, notifier.Process)
	pool.Start(ctx)

	feedSvc := feed.NewService(gdacs.NewClient(httpClient, cfg.Feed.GDACSURL), db, clock, m, pool)
	backendClient := backend.NewClient(httpClient, cfg.Backend.BaseURL, clock)

	var live *livefeed.Poller
	if cfg.LiveFeed.Enabled {
		live = livefeed.NewPoller(backendClient, clock, cfg.LiveFeed.PollInterval, m)
		live.Start(ctx)
	}

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestIDMiddleware())
	router.Use(api.LoggingMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var liveFeed api.LiveFeed
	if live != nil {
		liveFeed = live
	}
	handler := api.NewHandler(feedSvc, liveFeed, backendClient, broadcaster)
	handler.RegisterRoutes(router, api.ClientRateLimitMiddleware(1, 5))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return feedSvc.Run(gctx, cfg.Feed.RefreshInterval)
	})
	g.Go(func() error {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		if live != nil {
			live.Stop()
		}
		broadcaster.Close() // Close all streams gracefully

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "error", err)
	}

	pool.Stop()
	if err := eventSink.Close(); err != nil {
		slog.Error("error closing event sink", "error", err)
	}

	slog.Info("shutdown complete")
}
