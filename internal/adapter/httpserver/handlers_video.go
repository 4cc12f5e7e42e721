package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/champsing/mercuryland/internal/domain"
	apperrors "github.com/champsing/mercuryland/internal/platform/errors"
)

func (s *Server) handleListVideos(c echo.Context) error {
	videos, err := s.app.ListVideos(c.Request().Context())
	if err != nil {
		return err
	}
	if videos == nil {
		videos = []domain.Video{}
	}
	return c.JSON(http.StatusOK, videos)
}

func (s *Server) handleCreateVideo(c echo.Context) error {
	var video domain.Video
	if err := c.Bind(&video); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	id, err := s.app.CreateVideo(c.Request().Context(), &video)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleUpdateVideo(c echo.Context) error {
	var video domain.Video
	if err := c.Bind(&video); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if err := s.app.UpdateVideo(c.Request().Context(), &video); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleDeleteVideo(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return apperrors.ValidationError("invalid video id")
	}

	if err := s.app.DeleteVideo(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
