package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	core "github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/agent/core"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/memory/vectorstore"
	"github.com/labstack/echo/v4"
)

const maxMemoryK = 50

type MemoryRetriever interface {
	Retrieve(ctx context.Context, query, company string, k int) ([]core.RetrievedDoc, error)
}

type IndexStats interface {
	Stats() vectorstore.Stats
}

// MemoryHandler exposes read-only vector memory inspection.
type MemoryHandler struct {
	memory MemoryRetriever
	index  IndexStats
}

func (h *MemoryHandler) Register(g *echo.Group) {
	g.GET("/search", h.search)
	if h.index != nil {
		g.GET("/stats", h.stats)
	}
}

func (h *MemoryHandler) search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	k := 8
	if raw := c.QueryParam("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "k must be a positive integer")
		}
		k = min(n, maxMemoryK)
	}
	docs, err := h.memory.Retrieve(c.Request().Context(), q, strings.TrimSpace(c.QueryParam("company")), k)
	if err != nil {
		return err
	}
	if docs == nil {
		docs = []core.RetrievedDoc{}
	}
	return c.JSON(http.StatusOK, map[string]any{"results": docs})
}

func (h *MemoryHandler) stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.index.Stats())
}
