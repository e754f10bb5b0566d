package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the collaborators exposed over HTTP. Reports, Memory and Index
// are optional; their routes are only mounted when set.
type Deps struct {
	ServiceName    string
	Researcher     Researcher
	Reports        ReportArchive
	Memory         MemoryRetriever
	Index          IndexStats
	Gatherer       prometheus.Gatherer
	Logger         *zap.SugaredLogger
	RequestTimeout time.Duration // bounds the archive write after a run
}

// New builds the echo instance with every route registered.
func New(deps Deps) *echo.Echo {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	logger = logger.Named("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))
	e.HTTPErrorHandler = errorHandler(logger)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"ok": true, "service": deps.ServiceName})
	})
	if deps.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	rh := &ResearchHandler{orch: deps.Researcher, reports: deps.Reports, logger: logger, timeout: deps.RequestTimeout}
	rh.Register(e)
	if deps.Reports != nil {
		(&ReportsHandler{store: deps.Reports}).Register(e.Group("/reports"))
	}
	if deps.Memory != nil {
		(&MemoryHandler{memory: deps.Memory, index: deps.Index}).Register(e.Group("/memory"))
	}
	return e
}

// Run serves e on addr until ctx is cancelled, then drains in-flight
// requests for up to drain.
func Run(ctx context.Context, e *echo.Echo, addr string, drain time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// errorHandler renders every error as {"error": msg}.
func errorHandler(logger *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
			if he.Internal != nil {
				err = he.Internal
			}
		} else {
			msg = http.StatusText(code)
		}
		req := c.Request()
		if code >= http.StatusInternalServerError {
			logger.Errorw("request failed", "status", code, "method", req.Method, "path", req.URL.Path, "remote", c.RealIP(), "error", err)
		}
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]any{"error": msg})
		}
	}
}

// requestLogger logs method, path, status and elapsed milliseconds.
func requestLogger(logger *zap.SugaredLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			logger.Infow("request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"elapsed_ms", float64(time.Since(start).Microseconds())/1000,
			)
			return nil
		}
	}
}
