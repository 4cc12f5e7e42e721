// Package auth issues and verifies the dashboard session tokens.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the verified content of a session token.
type Claims struct {
	DiscordID string
	Username  string
	IsAdmin   bool
	ExpiresAt time.Time
}

type tokenClaims struct {
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Manager signs and verifies HS256 session tokens for the dashboard.
type Manager struct {
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
}

func NewManager(secret string, ttl time.Duration, clock clockwork.Clock) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, clock: clock}
}

// Issue signs a fresh token for the given Discord user.
func (m *Manager) Issue(discordID, username string, admin bool) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("jwt secret is empty")
	}
	if strings.TrimSpace(discordID) == "" {
		return "", time.Time{}, fmt.Errorf("discord ID is empty")
	}

	now := m.clock.Now().UTC()
	expiresAt := now.Add(m.ttl)
	claims := tokenClaims{
		Username: username,
		Admin:    admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   discordID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a token.
func (m *Manager) Verify(raw string) (Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return Claims{}, ErrInvalidToken
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(func() time.Time { return m.clock.Now() }),
	)
	if err != nil || token == nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.ExpiresAt == nil {
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		DiscordID: claims.Subject,
		Username:  claims.Username,
		IsAdmin:   claims.Admin,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Tick exchanges a still-valid token for a fresh one, sliding the session
// window without a new OAuth round trip.
func (m *Manager) Tick(raw string) (string, time.Time, error) {
	claims, err := m.Verify(raw)
	if err != nil {
		return "", time.Time{}, err
	}
	return m.Issue(claims.DiscordID, claims.Username, claims.IsAdmin)
}
