// Package server provides the HTTP surface for the chat service.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chathub/internal/chat"
	"chathub/internal/providers"
	"chathub/internal/store"
)

// Server wraps the Echo server
type Server struct {
	echo    *echo.Echo
	handler *Handler
}

// Config holds server configuration options
type Config struct {
	MetricsEnabled bool   // Whether to expose the Prometheus metrics endpoint
	BodySizeLimit  string // Max request body size (default: 1M)
}

// New creates a new HTTP server
func New(st store.Store, svc *chat.Service, dispatcher *providers.Dispatcher, cfg *Config) *Server {
	e := echo.New()
	e.HideBanner = true

	handler := NewHandler(st, svc, dispatcher)

	// Global middleware stack (order matters)
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	bodyLimit := "1M"
	if cfg != nil && cfg.BodySizeLimit != "" {
		bodyLimit = cfg.BodySizeLimit
	}
	e.Use(middleware.BodyLimit(bodyLimit))

	// Public routes
	e.GET("/health", handler.Health)
	if cfg != nil && cfg.MetricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	// Auth routes
	e.POST("/api/auth/register", handler.Register)
	e.POST("/api/auth/login", handler.Login)
	e.POST("/api/auth/logout", handler.Logout)

	// Conversation CRUD
	e.GET("/api/conversations", handler.ListConversations)
	e.POST("/api/conversations", handler.CreateConversation)
	e.GET("/api/conversations/:id", handler.GetConversation)
	e.PATCH("/api/conversations/:id", handler.UpdateConversation)
	e.DELETE("/api/conversations/:id", handler.DeleteConversation)

	// Messages
	e.GET("/api/conversations/:id/messages", handler.ListMessages)
	e.POST("/api/conversations/:id/messages", handler.SendMessage)
	e.DELETE("/api/conversations/:id/messages", handler.ClearMessages)

	// Models and credential checks
	e.GET("/api/models", handler.ListModels)
	e.POST("/api/validate-key", handler.ValidateKey)

	return &Server{
		echo:    e,
		handler: handler,
	}
}

// Start starts the HTTP server on the given address
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP implements http.Handler, allowing Server to be used with httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
