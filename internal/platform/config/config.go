package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Config holds every runtime setting for the bot suite. Values come from the
// environment, optionally seeded from a .env file in development.
type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	DiscordToken        string `env:"DISCORD_TOKEN"`
	DiscordClientID     string `env:"DISCORD_CLIENT_ID"`
	DiscordClientSecret string `env:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURI  string `env:"DISCORD_REDIRECT_URI"`
	// Comma-separated Discord user IDs with admin rights (/give, dashboard).
	DiscordAdminIDs string `env:"DISCORD_ADMIN_IDS"`
	// Channel that receives purchase announcements.
	DiscordPublicChannelID string `env:"DISCORD_PUBLIC_CHANNEL_ID"`
	DiscordGuildID         string `env:"DISCORD_GUILD_ID"`

	YouTubeAPIKey    string `env:"YOUTUBE_API_KEY"`
	YouTubeChannelID string `env:"YOUTUBE_CHANNEL_ID"`

	JWTSecret     string        `env:"JWT_SECRET"`
	SessionSecret string        `env:"SESSION_SECRET"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" default:"30m"`

	LivePollInterval time.Duration `env:"LIVE_POLL_INTERVAL" default:"60s"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL":       cfg.DatabaseURL,
		"REDIS_URL":          cfg.RedisURL,
		"DISCORD_TOKEN":      cfg.DiscordToken,
		"YOUTUBE_API_KEY":    cfg.YouTubeAPIKey,
		"YOUTUBE_CHANNEL_ID": cfg.YouTubeChannelID,
		"JWT_SECRET":         cfg.JWTSecret,
		"SESSION_SECRET":     cfg.SessionSecret,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if len(cfg.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(cfg.JWTSecret))
	}

	if _, err := cfg.AdminIDs(); err != nil {
		return err
	}

	return nil
}

// AdminIDs parses DISCORD_ADMIN_IDS into a set of user IDs.
func (c *Config) AdminIDs() (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	if c.DiscordAdminIDs == "" {
		return ids, nil
	}
	for _, raw := range strings.Split(c.DiscordAdminIDs, ",") {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, err := strconv.ParseUint(id, 10, 64); err != nil {
			return nil, fmt.Errorf("DISCORD_ADMIN_IDS contains invalid ID %q", id)
		}
		ids[id] = struct{}{}
	}
	return ids, nil
}
