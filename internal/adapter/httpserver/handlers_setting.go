package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/champsing/mercuryland/internal/platform/errors"
)

func (s *Server) handleAllSettings(c echo.Context) error {
	settings, err := s.app.AllSettings(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

func (s *Server) handleGetSetting(c echo.Context) error {
	key := c.Param("key")
	value, err := s.app.GetSetting(c.Request().Context(), key)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"key": key, "value": value})
}

func (s *Server) handleSetSetting(c echo.Context) error {
	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if err := s.app.SetSetting(c.Request().Context(), req.Key, req.Value); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
