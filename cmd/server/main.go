package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/champsing/mercuryland/internal/adapter/discord"
	"github.com/champsing/mercuryland/internal/adapter/httpserver"
	"github.com/champsing/mercuryland/internal/adapter/postgres"
	"github.com/champsing/mercuryland/internal/adapter/redis"
	"github.com/champsing/mercuryland/internal/adapter/websocket"
	"github.com/champsing/mercuryland/internal/adapter/youtube"
	"github.com/champsing/mercuryland/internal/app"
	"github.com/champsing/mercuryland/internal/auth"
	"github.com/champsing/mercuryland/internal/coin"
	"github.com/champsing/mercuryland/internal/platform/config"
	"github.com/champsing/mercuryland/internal/platform/logging"
)

// Submit limiter sizing: a wheel page submits once per spin, so a small
// bucket per IP is plenty.
const (
	submitBucketCapacity = 10
	submitRefillPerMin   = 30
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(cfg *config.Config) *redis.Client {
	client, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to create Redis client", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	return client
}

func setupBot(cfg *config.Config, ledger *postgres.LedgerRepo) *discord.Bot {
	adminSet, err := cfg.AdminIDs()
	if err != nil {
		slog.Error("Failed to parse admin IDs", "error", err)
		os.Exit(1)
	}
	adminIDs := make([]string, 0, len(adminSet))
	for id := range adminSet {
		adminIDs = append(adminIDs, id)
	}

	bot, err := discord.NewBot(cfg.DiscordToken, ledger, adminIDs, cfg.DiscordGuildID, cfg.DiscordPublicChannelID)
	if err != nil {
		slog.Error("Failed to create Discord bot", "error", err)
		os.Exit(1)
	}

	if err := bot.Open(); err != nil {
		slog.Error("Failed to connect Discord bot", "error", err)
		os.Exit(1)
	}

	return bot
}

func runGracefulShutdown(srv *httpserver.Server, bot *discord.Bot, hub *websocket.Hub, cancelPoller context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		cancelPoller()
		hub.Stop()

		if err := bot.Close(); err != nil {
			slog.Error("Discord bot close error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.Init(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(cfg)
	defer func() { _ = redisClient.Close() }()

	// Repositories
	ledgerRepo := postgres.NewLedgerRepo(pool)
	penaltyRepo := postgres.NewPenaltyRepo(pool)
	videoRepo := postgres.NewVideoRepo(pool)
	wheelRepo := postgres.NewWheelRepo(pool)
	settingRepo := postgres.NewSettingRepo(pool)

	// Redis collaborators
	dedupe := redis.NewDedupe(redisClient)
	leaderboardCache := redis.NewLeaderboardCache(redisClient)
	submitLimiter := redis.NewRateLimiter(redisClient, clock, submitBucketCapacity, submitRefillPerMin)

	// Discord bot (also provides the purchase announcer)
	bot := setupBot(cfg, ledgerRepo)

	// Coin accrual pipeline
	limiter := coin.NewLimiter(clock)
	accruer := coin.NewAccruer(limiter, ledgerRepo, dedupe)

	pollerCtx, cancelPoller := context.WithCancel(context.Background())
	poller := youtube.NewPoller(youtube.NewClient(cfg.YouTubeAPIKey), accruer, cfg.YouTubeChannelID, cfg.LivePollInterval, clock)
	go func() {
		if err := poller.Run(pollerCtx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("YouTube poller stopped", "error", err)
		}
	}()

	// Web layer
	hub := websocket.NewHub()
	appSvc := app.NewService(penaltyRepo, videoRepo, wheelRepo, settingRepo, ledgerRepo, leaderboardCache, hub, clock)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL, clock)

	srv, err := httpserver.NewServer(cfg, appSvc, tokens, hub, submitLimiter)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		cancelPoller()
		os.Exit(1)
	}

	done := runGracefulShutdown(srv, bot, hub, cancelPoller)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
