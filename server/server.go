// Package server exposes the AI registry, assistant and permission model
// over HTTP. It is a thin consumer of the core packages: every route checks
// permissions first, then delegates to the assistant or registry.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/otolabs/oto/ai"
	"github.com/otolabs/oto/ai/metrics"
	"github.com/otolabs/oto/internal/profile"
	"github.com/otolabs/oto/space"
)

// RoleLookup resolves a member's role within a space. Production wires this
// to the membership store; tests supply a func literal.
type RoleLookup func(ctx context.Context, spaceID, userID string) (space.Role, bool)

// Server hosts the HTTP surface over the AI core.
type Server struct {
	echo      *echo.Echo
	profile   *profile.Profile
	registry  *ai.Registry
	assistant *ai.Assistant
	roles     RoleLookup
	recorder  *metrics.Recorder
}

// New creates the server and registers all routes. The recorder is
// optional; pass nil to skip the metrics endpoint.
func New(p *profile.Profile, registry *ai.Registry, roles RoleLookup, recorder *metrics.Recorder) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI: true, LogStatus: true, LogMethod: true, LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			)
			return nil
		},
	}))

	s := &Server{
		echo:      e,
		profile:   p,
		registry:  registry,
		assistant: ai.NewAssistant(registry),
		roles:     roles,
		recorder:  recorder,
	}

	// Generation routes are rate limited; provider calls are the expensive
	// part of this service.
	chatLimiter := middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(5),
			Burst:     10,
			ExpiresIn: 3 * time.Minute,
		}),
	})

	api := e.Group("/api/v1")
	api.POST("/ai/chat", s.handleChat, chatLimiter)
	api.GET("/ai/providers", s.handleListProviders)
	api.POST("/spaces/:spaceID/messages", s.handlePostMessage, chatLimiter)
	api.GET("/spaces/:spaceID/permissions", s.handlePermissions)

	e.GET("/healthz", s.handleHealth)
	if recorder != nil {
		e.GET("/metrics", echo.WrapHandler(recorder.Handler()))
	}

	return s
}

// Start begins serving and blocks until Shutdown or failure.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	slog.Info("oto server starting", "addr", addr, "mode", s.profile.Mode)
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(ctx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	slog.Info("oto server stopped")
}

// Echo exposes the underlying router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) handleHealth(c echo.Context) error {
	results := s.registry.HealthCheck(c.Request().Context())
	healthy := false
	for _, ok := range results {
		if ok {
			healthy = true
			break
		}
	}
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]any{
		"providers": results,
		"version":   s.profile.Version,
	})
}
