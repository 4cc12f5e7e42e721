package httpserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/champsing/mercuryland/internal/domain"
	apperrors "github.com/champsing/mercuryland/internal/platform/errors"
)

// handleListPenalties lists penalties, optionally filtered by state and a
// name substring.
func (s *Server) handleListPenalties(c echo.Context) error {
	penalties, err := s.app.ListPenalties(c.Request().Context())
	if err != nil {
		return err
	}

	if raw := c.QueryParam("state"); raw != "" {
		state, err := strconv.Atoi(raw)
		if err != nil || !domain.PenaltyState(state).Valid() {
			return apperrors.ValidationError("invalid state filter")
		}
		penalties = filterPenalties(penalties, func(p domain.Penalty) bool {
			return p.State == domain.PenaltyState(state)
		})
	}
	if name := c.QueryParam("name"); name != "" {
		penalties = filterPenalties(penalties, func(p domain.Penalty) bool {
			return strings.Contains(p.Name, name)
		})
	}

	if penalties == nil {
		penalties = []domain.Penalty{}
	}
	return c.JSON(http.StatusOK, penalties)
}

func filterPenalties(penalties []domain.Penalty, keep func(domain.Penalty) bool) []domain.Penalty {
	var out []domain.Penalty
	for _, p := range penalties {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Server) handleCreatePenalty(c echo.Context) error {
	var req struct {
		Name   string    `json:"name"`
		Detail string    `json:"detail"`
		Date   time.Time `json:"date"`
	}
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	id, err := s.app.CreatePenalty(c.Request().Context(), &domain.Penalty{
		Name:   req.Name,
		Detail: req.Detail,
		Date:   req.Date,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]int64{"id": id})
}

// handleUpdatePenalty updates a penalty's state and/or detail.
func (s *Server) handleUpdatePenalty(c echo.Context) error {
	var req struct {
		ID     int64   `json:"id"`
		State  *int    `json:"state"`
		Detail *string `json:"detail"`
	}
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.ID == 0 {
		return apperrors.ValidationError("penalty id is required")
	}
	if req.State == nil && req.Detail == nil {
		return apperrors.ValidationError("nothing to update")
	}

	ctx := c.Request().Context()
	if req.State != nil {
		if err := s.app.UpdatePenaltyState(ctx, req.ID, domain.PenaltyState(*req.State)); err != nil {
			return err
		}
	}
	if req.Detail != nil {
		if err := s.app.UpdatePenaltyDetail(ctx, req.ID, *req.Detail); err != nil {
			return err
		}
	}
	return c.NoContent(http.StatusNoContent)
}
