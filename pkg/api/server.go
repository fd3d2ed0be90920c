// Package api exposes a project over HTTP: a REST surface built on
// echo/v4, the way pyworkflow's web server exposes a project over a
// thin JSON layer. One Server wraps one open *project.Project.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/meridian-sci/meridian/pkg/log"
	"github.com/meridian-sci/meridian/pkg/metrics"
	"github.com/meridian-sci/meridian/pkg/project"
	"github.com/meridian-sci/meridian/pkg/scheduler"
	"github.com/meridian-sci/meridian/pkg/types"
)

// Server is the HTTP front of one open project.
type Server struct {
	echo   *echo.Echo
	proj   *project.Project
	logger zerolog.Logger
}

// NewServer builds a Server routing requests against proj. Routes are
// registered eagerly so Start only needs to bind a listener.
func NewServer(proj *project.Project) *Server {
	s := &Server{
		echo:   echo.New(),
		proj:   proj,
		logger: log.WithComponent("api"),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(s.requestLogger())
	s.echo.Use(readOnlyGuard(proj))

	s.echo.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	protocols := s.echo.Group("/api/v1/protocols")
	protocols.GET("", s.listProtocols)
	protocols.POST("", s.createProtocol)
	protocols.GET("/:id", s.getProtocol)
	protocols.DELETE("/:id", s.deleteProtocol)
	protocols.POST("/:id/launch", s.launchProtocol)
	protocols.POST("/:id/schedule", s.scheduleProtocol)
	protocols.POST("/:id/stop", s.stopProtocol)
	protocols.POST("/:id/reset", s.resetProtocol)
	protocols.POST("/:id/continue", s.continueProtocol)
	protocols.POST("/:id/copy", s.copyProtocol)

	workflow := s.echo.Group("/api/v1/workflow")
	workflow.GET("/export", s.exportWorkflow)
	workflow.POST("/import", s.importWorkflow)

	hosts := s.echo.Group("/api/v1/hosts")
	hosts.GET("", s.listHosts)
	hosts.GET("/:name", s.getHost)

	return s
}

// requestLogger mirrors the access-log middleware shape without pulling
// in echo's own logger, so every line goes through the shared zerolog
// sink the rest of the process uses.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			evt := s.logger.Info()
			if err != nil {
				evt = s.logger.Error().Err(err)
			}
			evt.Str("method", c.Request().Method).
				Str("path", c.Path()).
				Int("status", c.Response().Status).
				Msg("request")
			return err
		}
	}
}

// readOnlyGuard rejects mutating requests against a read-only project,
// the REST equivalent of the gRPC ReadOnlyInterceptor's allow-list.
func readOnlyGuard(proj *project.Project) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if proj.IsReadOnly() && !isSafeMethod(c.Request().Method) {
				return echo.NewHTTPError(http.StatusForbidden, "project is read-only")
			}
			return next(c)
		}
	}
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// Handler returns the server's http.Handler, for embedding in a test
// server or an outer mux.
func (s *Server) Handler() http.Handler { return s.echo }

// Start binds addr and serves until the context is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("shutdown")
		}
	}()
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func parseID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func (s *Server) loadProtocol(c echo.Context) (*types.Protocol, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid protocol id")
	}
	p, err := s.proj.Store().GetProtocol(id)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return p, nil
}

func statusFor(err error) int {
	var modErr *scheduler.ModificationNotAllowedError
	if errors.As(err, &modErr) {
		return http.StatusConflict
	}
	if errors.Is(err, scheduler.ErrReadOnly) {
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
