package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/streamkit/stream-announcer-go/internal/config"
	"github.com/streamkit/stream-announcer-go/internal/db"
	"github.com/streamkit/stream-announcer-go/internal/db/repository"
	"github.com/streamkit/stream-announcer-go/internal/gateway"
	"github.com/streamkit/stream-announcer-go/internal/metrics"
	"github.com/streamkit/stream-announcer-go/internal/platform"
	"github.com/streamkit/stream-announcer-go/internal/queue"
	"github.com/streamkit/stream-announcer-go/internal/service"
	"github.com/streamkit/stream-announcer-go/pkg/logger"
)

func main() {
	// Bootstrap logger until the configured one is up
	boot := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(boot)

	cfg, err := config.Load()
	if err != nil {
		boot.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		boot.Error("invalid config", "error", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		boot.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Init()

	ctx := context.Background()

	pool, err := db.NewPool(ctx, &db.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxConnections),
		MinConns:        int32(cfg.Database.MinConnections),
		MaxConnLifetime: cfg.Database.MaxLifetime,
		MaxConnIdleTime: cfg.Database.MaxIdleTime,
	})
	if err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close(pool)

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		logger.Log.Fatal("Failed to create Discord session", zap.Error(err))
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	if err := session.Open(); err != nil {
		logger.Log.Fatal("Failed to open Discord session", zap.Error(err))
	}
	defer func() { _ = session.Close() }()

	discord := gateway.NewDiscord(session)

	registry := platform.NewRegistry()
	registry.Register(platform.Twitch, platform.NewTwitchClient(
		cfg.Twitch.ClientID, cfg.Twitch.ClientSecret,
	))
	registry.Register(platform.Kick, platform.NewKickClient(cfg.Kick.BaseURL))

	streamerRepo := repository.NewStreamerRepository(pool)
	subscriptionRepo := repository.NewSubscriptionRepository(pool)
	announcementRepo := repository.NewAnnouncementRepository(pool)
	sessionRepo := repository.NewStreamSessionRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	guildSettingsRepo := repository.NewGuildSettingsRepository(pool)
	blacklistRepo := repository.NewBlacklistRepository(pool)
	serverStatRepo := repository.NewServerStatRepository(pool)

	publisher, err := queue.NewOfflinePublisher(&cfg.RabbitMQ)
	if err != nil {
		logger.Log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer func() { _ = publisher.Close() }()

	poller := service.NewStreamPoller(
		streamerRepo, subscriptionRepo, announcementRepo, sessionRepo,
		teamRepo, guildSettingsRepo,
		registry, discord, discord, publisher,
		cfg.Poller.RequestTimeout, logger.Named("poller"),
	)
	offlineWorker := service.NewOfflineProcessor(
		streamerRepo, announcementRepo, sessionRepo,
		registry, discord, discord,
		cfg.Poller.RequestTimeout, logger.Named("offline"),
	)
	consolidator := service.NewIdentityConsolidator(
		streamerRepo, discord, registry,
		cfg.Poller.RequestTimeout, logger.Named("consolidator"),
	)
	teamSync := service.NewTeamSyncService(
		teamRepo, streamerRepo, subscriptionRepo, blacklistRepo,
		registry, cfg.Poller.RequestTimeout, logger.Named("teamsync"),
	)
	statsCollector := service.NewStatsCollector(serverStatRepo, discord, logger.Named("stats"))

	systemServer, err := queue.NewServer(cfg.Redis.URL, queue.Handlers{
		CheckStreams: poller.CheckStreams,
		SyncTeams:    teamSync.SyncTeams,
		SyncUsers: func(ctx context.Context) error {
			_, err := consolidator.Consolidate(ctx)
			return err
		},
		CollectServerStats: statsCollector.Collect,
	})
	if err != nil {
		logger.Log.Fatal("Failed to create system task server", zap.Error(err))
	}
	if err := systemServer.Start(); err != nil {
		logger.Log.Fatal("Failed to start system task server", zap.Error(err))
	}
	defer systemServer.Stop()

	scheduler, err := queue.NewScheduler(cfg.Redis.URL, &cfg.Poller)
	if err != nil {
		logger.Log.Fatal("Failed to create scheduler", zap.Error(err))
	}
	if err := scheduler.Start(); err != nil {
		logger.Log.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	consumer, err := queue.NewOfflineConsumer(&cfg.RabbitMQ, offlineWorker.Process)
	if err != nil {
		logger.Log.Fatal("Failed to create offline consumer", zap.Error(err))
	}
	if err := consumer.Start(cfg.Poller.OfflineConcurrency); err != nil {
		logger.Log.Fatal("Failed to start offline consumer", zap.Error(err))
	}
	defer func() { _ = consumer.Stop() }()

	httpServer := newHTTPServer(cfg, pool, publisher)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("HTTP server error", zap.Error(err))
		}
	}()

	logger.Log.Info("Worker started",
		zap.Int("port", cfg.Server.Port),
		zap.Duration("check_interval", cfg.Poller.CheckInterval),
	)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdown
	logger.Log.Info("Shutdown signal received", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("HTTP shutdown failed", zap.Error(err))
	}
}

func newHTTPServer(cfg *config.Config, pool *pgxpool.Pool, publisher *queue.OfflinePublisher) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "database": err.Error()})
			return
		}
		if !publisher.IsHealthy() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "rabbitmq": "disconnected"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}
}
