package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/champsing/mercuryland/internal/domain"
)

func (s *Server) handleLeaderboard(c echo.Context) error {
	accounts, err := s.app.Leaderboard(c.Request().Context())
	if err != nil {
		return err
	}
	if accounts == nil {
		accounts = []domain.CoinAccount{}
	}
	return c.JSON(http.StatusOK, accounts)
}
