package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(ErrorHandlingMiddleware())
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         63072000, // 2 years; only sent over HTTPS
		HSTSPreloadEnabled: true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	authLimiter := newRateLimiter(1, 5)

	s.echo.GET("/api/ping", s.handlePing)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo.GET("/api/auth/url", s.handleAuthURL, authLimiter)
	s.echo.POST("/api/auth/login", s.handleLogin, authLimiter)
	s.echo.POST("/api/auth/tick", s.handleTick, authLimiter)

	s.echo.GET("/api/penalty", s.handleListPenalties)
	s.echo.POST("/api/penalty", s.handleCreatePenalty, s.requireAuth, s.requireAdmin)
	s.echo.PUT("/api/penalty", s.handleUpdatePenalty, s.requireAuth, s.requireAdmin)

	s.echo.GET("/api/video", s.handleListVideos)
	s.echo.POST("/api/video", s.handleCreateVideo, s.requireAuth, s.requireAdmin)
	s.echo.PUT("/api/video", s.handleUpdateVideo, s.requireAuth, s.requireAdmin)
	s.echo.DELETE("/api/video/:id", s.handleDeleteVideo, s.requireAuth, s.requireAdmin)

	s.echo.GET("/api/wheel/:id", s.handleGetWheel)
	s.echo.POST("/api/wheel", s.handleCreateWheel, s.requireAuth, s.requireAdmin)
	s.echo.PUT("/api/wheel", s.handleUpdateWheel, s.requireAuth, s.requireAdmin)
	s.echo.POST("/api/wheel/submit", s.handleSubmitWheel, s.submitRateLimit)

	s.echo.GET("/api/setting", s.handleAllSettings)
	s.echo.GET("/api/setting/:key", s.handleGetSetting)
	s.echo.PUT("/api/setting", s.handleSetSetting, s.requireAuth, s.requireAdmin)

	s.echo.GET("/api/leaderboard", s.handleLeaderboard)

	s.echo.GET("/ws/wheel", s.handleWheelSocket)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.Info("Request", attrs...)
			return nil
		},
	})
}
