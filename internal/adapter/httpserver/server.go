// Package httpserver is the JSON API behind the dashboard SPA.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"

	"github.com/champsing/mercuryland/internal/adapter/redis"
	"github.com/champsing/mercuryland/internal/adapter/websocket"
	"github.com/champsing/mercuryland/internal/auth"
	"github.com/champsing/mercuryland/internal/domain"
	"github.com/champsing/mercuryland/internal/platform/config"
)

const discordIdentityURL = "https://discord.com/api/users/@me"

// discordEndpoint is Discord's OAuth2 authorization code flow endpoint.
var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/api/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

type appService interface {
	ListPenalties(ctx context.Context) ([]domain.Penalty, error)
	CreatePenalty(ctx context.Context, p *domain.Penalty) (int64, error)
	UpdatePenaltyState(ctx context.Context, id int64, state domain.PenaltyState) error
	UpdatePenaltyDetail(ctx context.Context, id int64, detail string) error

	ListVideos(ctx context.Context) ([]domain.Video, error)
	CreateVideo(ctx context.Context, v *domain.Video) (int64, error)
	UpdateVideo(ctx context.Context, v *domain.Video) error
	DeleteVideo(ctx context.Context, id int64) error

	GetWheel(ctx context.Context, id uuid.UUID) (*domain.Wheel, error)
	CreateWheel(ctx context.Context, entries []domain.WheelEntry) (*domain.Wheel, error)
	UpdateWheelEntries(ctx context.Context, id uuid.UUID, entries []domain.WheelEntry) error
	SubmitWheelOutcome(ctx context.Context, id uuid.UUID, secret, outcome string) error

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	AllSettings(ctx context.Context) (map[string]string, error)

	Leaderboard(ctx context.Context) ([]domain.CoinAccount, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app    appService
	tokens *auth.Manager
	hub    *websocket.Hub

	// Shared across instances, unlike the in-memory auth limiter.
	submitLimiter *redis.RateLimiter

	oauth        *oauth2.Config
	identityURL  string
	sessionStore *sessions.CookieStore
	adminIDs     map[string]struct{}
	startTime    time.Time
}

func NewServer(cfg *config.Config, app appService, tokens *auth.Manager, hub *websocket.Hub, submitLimiter *redis.RateLimiter) (*Server, error) {
	adminIDs, err := cfg.AdminIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to parse admin IDs: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:          e,
		config:        cfg,
		app:           app,
		tokens:        tokens,
		hub:           hub,
		submitLimiter: submitLimiter,
		oauth: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURI,
			Scopes:       []string{"identify"},
			Endpoint:     discordEndpoint,
		},
		identityURL:  discordIdentityURL,
		sessionStore: setupSessionStore(cfg),
		adminIDs:     adminIDs,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Session keys
const (
	sessionName          = "mercury-session"
	sessionKeyOAuthState = "oauth_state"
)

func setupSessionStore(cfg *config.Config) *sessions.CookieStore {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()), // only holds the OAuth state
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}
	return sessionStore
}
