package httpserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "github.com/champsing/mercuryland/internal/platform/errors"
)

const oauthTimeout = 10 * time.Second

type discordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username,omitempty"`
	Admin     bool      `json:"admin,omitempty"`
}

func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate OAuth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// handleAuthURL hands the SPA a Discord authorization URL. The state is
// pinned in the session cookie and checked again at login.
func (s *Server) handleAuthURL(c echo.Context) error {
	state, err := generateOAuthState()
	if err != nil {
		return apperrors.InternalError("failed to generate OAuth state", err)
	}

	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		slog.Error("Failed to get session for OAuth state", "error", err)
	}

	session.Values[sessionKeyOAuthState] = state
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save OAuth state session", err)
	}

	return c.JSON(http.StatusOK, map[string]string{"url": s.oauth.AuthCodeURL(state)})
}

// handleLogin exchanges a Discord OAuth code for a dashboard token.
func (s *Server) handleLogin(c echo.Context) error {
	var req struct {
		Code  string `json:"code"`
		State string `json:"state"`
	}
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Code == "" {
		return apperrors.ValidationError("missing code")
	}

	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return apperrors.ValidationError("invalid session")
	}
	expectedState, ok := session.Values[sessionKeyOAuthState].(string)
	if !ok || expectedState == "" || req.State != expectedState {
		return apperrors.ValidationError("invalid OAuth state")
	}

	// The state is single use.
	delete(session.Values, sessionKeyOAuthState)
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save session", err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), oauthTimeout)
	defer cancel()

	token, err := s.oauth.Exchange(ctx, req.Code)
	if err != nil {
		return apperrors.ExternalError("failed to authenticate with Discord", err)
	}

	user, err := s.fetchDiscordUser(ctx, token.AccessToken)
	if err != nil {
		return apperrors.ExternalError("failed to fetch Discord identity", err)
	}

	_, admin := s.adminIDs[user.ID]

	signed, expiresAt, err := s.tokens.Issue(user.ID, user.Username, admin)
	if err != nil {
		return apperrors.InternalError("failed to issue token", err)
	}

	slog.InfoContext(ctx, "Dashboard login", "discord_id", user.ID, "username", user.Username, "admin", admin)

	return c.JSON(http.StatusOK, tokenResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
		Username:  user.Username,
		Admin:     admin,
	})
}

// handleTick exchanges a still-valid token for a fresh one.
func (s *Server) handleTick(c echo.Context) error {
	raw := bearerToken(c)
	if raw == "" {
		return apperrors.UnauthorizedError("missing bearer token")
	}

	signed, expiresAt, err := s.tokens.Tick(raw)
	if err != nil {
		return apperrors.UnauthorizedError("invalid or expired token")
	}

	return c.JSON(http.StatusOK, tokenResponse{Token: signed, ExpiresAt: expiresAt})
}

func (s *Server) fetchDiscordUser(ctx context.Context, accessToken string) (*discordUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.identityURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity request returned status %d", resp.StatusCode)
	}

	var user discordUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode identity response: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("identity response missing user ID")
	}
	return &user, nil
}
