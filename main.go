package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/lobbybot/internal/authority"
	"github.com/mauv0809/lobbybot/internal/config"
	"github.com/mauv0809/lobbybot/internal/database"
	"github.com/mauv0809/lobbybot/internal/games"
	"github.com/mauv0809/lobbybot/internal/gateway"
	server "github.com/mauv0809/lobbybot/internal/http"
	"github.com/mauv0809/lobbybot/internal/leaderboard"
	"github.com/mauv0809/lobbybot/internal/metrics"
	"github.com/mauv0809/lobbybot/internal/notifier/slack"
	"github.com/mauv0809/lobbybot/internal/pubsub"
	"github.com/mauv0809/lobbybot/internal/reports"
	"github.com/mauv0809/lobbybot/internal/transport"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	cfg := config.Load()
	setupLogging(cfg.Log)

	db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
	}()

	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()
	counters := metrics.New(db)
	board := leaderboard.New(leaderboard.NewStore(db), metricsSvc)

	// Without Slack credentials announcements run in dry-run mode and are only logged.
	slackDryRun := !cfg.SlackEnabled()
	if slackDryRun {
		log.Info("Slack is not configured, announcements will only be logged")
	}
	announcer := slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, metricsSvc)

	publisher := pubsub.NewNop()
	if cfg.PubSubEnabled() {
		publisher, err = pubsub.New(cfg.PubSub.ProjectID, cfg.PubSub.TopicID)
		if err != nil {
			log.Fatalf("Failed to initialize pubsub: %s", err)
		}
	}
	defer publisher.Close()

	hub := transport.NewHub()
	directory := games.NewDirectory()
	gatewayID := cfg.Identity(cfg.Gateway.Nick)
	ratingsID := cfg.Identity(cfg.Ratings.Nick)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	var bots sync.WaitGroup

	gatewayEP, err := hub.Join(gatewayID, cfg.Gateway.Nick)
	if err != nil {
		log.Fatalf("Failed to join the lobby room: %s", err)
	}
	gw := gateway.New(gateway.Config{Identity: gatewayID, Nick: cfg.Gateway.Nick, Authority: ratingsID}, gatewayEP, directory, metricsSvc)
	runBot(ctx, &bots, "gateway", func(ctx context.Context) error { return gw.Run(ctx, gatewayEP) })

	if cfg.Ratings.Enabled {
		ratingsEP, err := hub.Join(ratingsID, cfg.Ratings.Nick)
		if err != nil {
			log.Fatalf("Failed to join the lobby room: %s", err)
		}
		auth := authority.New(
			authority.Config{Identity: ratingsID, Nick: cfg.Ratings.Nick, Gateway: gatewayID, DryRun: slackDryRun},
			authority.Deps{
				Sender:      ratingsEP,
				Reports:     reports.New(cfg.Ratings.QueueCapacity, metricsSvc),
				Leaderboard: board,
				Notifier:    announcer,
				PubSub:      publisher,
				Counters:    counters,
				Metrics:     metricsSvc,
			},
		)
		runBot(ctx, &bots, "authority", func(ctx context.Context) error { return auth.Run(ctx, ratingsEP) })
	} else {
		log.Info("Rating authority disabled")
	}

	s := server.NewServer(hub, directory, board, counters, metricsHandler, announcer, cfg)

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		log.Info("Server started", "port", cfg.Port, "domain", cfg.Domain)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", "error", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	stop()
	bots.Wait()
	log.Info("Server process shutting down")
}

// runBot runs a room member until ctx ends.
func runBot(ctx context.Context, wg *sync.WaitGroup, name string, run func(context.Context) error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Bot stopped", "bot", name, "error", err)
		}
	}()
}

func setupLogging(cfg config.LogConfig) {
	switch cfg.Format {
	case "text":
		log.SetFormatter(log.TextFormatter)
	case "logfmt":
		log.SetFormatter(log.LogfmtFormatter)
	default:
		log.SetFormatter(log.JSONFormatter)
	}
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warn("Unknown log level, using info", "level", cfg.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
