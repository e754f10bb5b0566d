package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	core "github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/agent/core"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/store"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Researcher runs the research pipeline.
type Researcher interface {
	Run(ctx context.Context, req core.Request) (core.Report, error)
}

// ReportArchive stores and reads finished reports.
type ReportArchive interface {
	SaveReport(ctx context.Context, depth core.Depth, report core.Report) (store.ReportRecord, error)
	GetReport(ctx context.Context, id string) (store.ReportRecord, error)
	ListReports(ctx context.Context, company string, limit int) ([]store.ReportSummary, error)
}

type researchRequest struct {
	Company   string   `json:"company"`
	Focus     []string `json:"focus"`
	Depth     string   `json:"depth"`
	UseMemory *bool    `json:"use_memory"`
}

// ResearchHandler serves POST /research.
type ResearchHandler struct {
	orch    Researcher
	reports ReportArchive
	logger  *zap.SugaredLogger
	timeout time.Duration
}

func (h *ResearchHandler) Register(e *echo.Echo) {
	e.POST("/research", h.research)
}

func (h *ResearchHandler) research(c echo.Context) error {
	var body researchRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	if body.Company == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "company is required")
	}
	depth, err := core.ParseDepth(body.Depth)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	useMemory := true
	if body.UseMemory != nil {
		useMemory = *body.UseMemory
	}
	req := core.Request{Company: body.Company, Focus: body.Focus, Depth: depth, UseMemory: useMemory}
	h.logger.Infow("research request", "company", req.Company, "depth", req.Depth, "focus", req.Focus)

	// A started run is not cancelled by a client disconnect. Every external
	// call inside it carries its own timeout.
	ctx := context.WithoutCancel(c.Request().Context())
	report, err := h.orch.Run(ctx, req)
	if errors.Is(err, core.ErrInvalidRequest) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "research pipeline failed").SetInternal(err)
	}

	if h.reports != nil {
		saveCtx := ctx
		if h.timeout > 0 {
			var cancel context.CancelFunc
			saveCtx, cancel = context.WithTimeout(ctx, h.timeout)
			defer cancel()
		}
		rec, err := h.reports.SaveReport(saveCtx, depth, report)
		if err != nil {
			h.logger.Errorw("archive report failed", "company", report.Company, "error", err)
		} else {
			c.Response().Header().Set("X-Report-ID", rec.ID)
		}
	}
	return c.JSON(http.StatusOK, report)
}
