// Package server exposes the bot over HTTP: a message endpoint for the
// chat transport and tick endpoints for the reconciliation sweeps.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/versal-platform/botlogic/pkg/bot"
	"github.com/versal-platform/botlogic/pkg/config"
	"github.com/versal-platform/botlogic/pkg/logging"
)

// Bot is the part of the bot service the HTTP boundary needs.
type Bot interface {
	Handle(ctx context.Context, chatID int64, text string) []string
	RunLoginSweep(ctx context.Context) []bot.Outbound
	RunNotificationSweep(ctx context.Context) []bot.Outbound
}

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	bot        Bot
	mux        *http.ServeMux
	logger     logging.Logger
	httpServer *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, b Bot, logger logging.Logger) *Server {
	s := &Server{
		config: cfg,
		bot:    b,
		logger: logger.WithModule("server"),
	}
	s.setupRouter()
	return s
}

// setupRouter configures the HTTP routes
func (s *Server) setupRouter() {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /message", s.handleMessage)
	mux.HandleFunc("POST /tick/check_login", s.handleTickCheckLogin)
	mux.HandleFunc("POST /tick/notifications", s.handleTickNotifications)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.mux = mux
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting server", "address", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Handler returns the HTTP handler (for testing)
func (s *Server) Handler() http.Handler {
	return s.mux
}
