package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/champsing/mercuryland/internal/domain"
	apperrors "github.com/champsing/mercuryland/internal/platform/errors"
)

// claimsKey is the echo context key holding the verified token claims.
const claimsKey = "claims"

func ErrorHandlingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				return err
			}

			structuredErr := structureError(err)
			logError(c, structuredErr)

			if err := c.JSON(structuredErr.HTTPStatus(), structuredErr.ToResponse()); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

// structureError lifts well-known domain errors into structured errors so
// repository sentinels map to sensible status codes.
func structureError(err error) *apperrors.Error {
	switch {
	case errors.Is(err, domain.ErrPenaltyNotFound),
		errors.Is(err, domain.ErrVideoNotFound),
		errors.Is(err, domain.ErrWheelNotFound),
		errors.Is(err, domain.ErrSettingNotFound),
		errors.Is(err, domain.ErrAccountNotFound):
		return apperrors.NotFoundError(err.Error())
	case errors.Is(err, domain.ErrWrongSecret):
		return apperrors.ForbiddenError(err.Error())
	case errors.Is(err, domain.ErrAlreadyLinked):
		return apperrors.ConflictError(err.Error())
	}
	return apperrors.AsStructuredError(err)
}

func logError(c echo.Context, err *apperrors.Error) {
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
	}

	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}

	if claims, ok := c.Get(claimsKey).(authClaims); ok {
		attrs = append(attrs, "discord_id", claims.DiscordID)
	}

	switch err.Type {
	case apperrors.TypeValidation:
		slog.Info("Validation error", attrs...)
	case apperrors.TypeUnauthorized, apperrors.TypeForbidden:
		slog.Info("Auth error", attrs...)
	case apperrors.TypeNotFound:
		slog.Info("Not found", attrs...)
	case apperrors.TypeConflict:
		slog.Warn("Conflict", attrs...)
	case apperrors.TypeExternal:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.Error("External service error", attrs...)
	default:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.Error("Internal error", attrs...)
	}
}

// requireAuth verifies the bearer token and stores its claims on the context.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c)
		if raw == "" {
			return apperrors.UnauthorizedError("missing bearer token")
		}

		claims, err := s.tokens.Verify(raw)
		if err != nil {
			return apperrors.UnauthorizedError("invalid or expired token")
		}

		c.Set(claimsKey, authClaims{
			DiscordID: claims.DiscordID,
			Username:  claims.Username,
			IsAdmin:   claims.IsAdmin,
		})
		return next(c)
	}
}

// requireAdmin must run after requireAuth.
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := c.Get(claimsKey).(authClaims)
		if !ok {
			return apperrors.UnauthorizedError("missing bearer token")
		}
		if !claims.IsAdmin {
			return apperrors.ForbiddenError("admin rights required")
		}
		return next(c)
	}
}

type authClaims struct {
	DiscordID string
	Username  string
	IsAdmin   bool
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
