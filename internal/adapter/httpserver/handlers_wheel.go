package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/champsing/mercuryland/internal/domain"
	apperrors "github.com/champsing/mercuryland/internal/platform/errors"
)

func (s *Server) handleGetWheel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid wheel id")
	}

	wheel, err := s.app.GetWheel(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wheel)
}

// handleCreateWheel opens a new wheel round. The response includes the
// submission secret; it is shown exactly once.
func (s *Server) handleCreateWheel(c echo.Context) error {
	var req struct {
		Entries []domain.WheelEntry `json:"entries"`
	}
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	wheel, err := s.app.CreateWheel(c.Request().Context(), req.Entries)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"id":      wheel.ID,
		"secret":  wheel.Secret,
		"entries": wheel.Entries,
	})
}

func (s *Server) handleUpdateWheel(c echo.Context) error {
	var req struct {
		ID      uuid.UUID           `json:"id"`
		Entries []domain.WheelEntry `json:"entries"`
	}
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.ID == uuid.Nil {
		return apperrors.ValidationError("wheel id is required")
	}

	if err := s.app.UpdateWheelEntries(c.Request().Context(), req.ID, req.Entries); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// handleSubmitWheel records a spin outcome. The wheel secret authorizes the
// submission, so no bearer token is required.
func (s *Server) handleSubmitWheel(c echo.Context) error {
	var req struct {
		ID      uuid.UUID `json:"id"`
		Secret  string    `json:"secret"`
		Outcome string    `json:"outcome"`
	}
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.ID == uuid.Nil || req.Secret == "" {
		return apperrors.ValidationError("wheel id and secret are required")
	}

	if err := s.app.SubmitWheelOutcome(c.Request().Context(), req.ID, req.Secret, req.Outcome); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// The dashboard SPA is served from its own origin, so cross-origin upgrades
// are expected here. The hub caps clients per wheel.
var wheelUpgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleWheelSocket subscribes a client to live updates for one wheel.
func (s *Server) handleWheelSocket(c echo.Context) error {
	id, err := uuid.Parse(c.QueryParam("id"))
	if err != nil {
		return apperrors.ValidationError("invalid wheel id")
	}

	if _, err := s.app.GetWheel(c.Request().Context(), id); err != nil {
		return err
	}

	conn, err := wheelUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the failure response.
		return nil
	}

	if err := s.hub.Register(id, conn); err != nil {
		return nil
	}

	// Hold the connection open until the client goes away. Clients never
	// send payloads; reads only surface the close.
	go func() {
		defer s.hub.Unregister(id, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}
