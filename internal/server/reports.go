package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/store"
	"github.com/labstack/echo/v4"
)

// ReportsHandler exposes the report archive.
type ReportsHandler struct {
	store ReportArchive
}

func (h *ReportsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.GET("/:id", h.get)
}

func (h *ReportsHandler) list(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}
	items, err := h.store.ListReports(c.Request().Context(), c.QueryParam("company"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"reports": items})
}

func (h *ReportsHandler) get(c echo.Context) error {
	rec, err := h.store.GetReport(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "report not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}
