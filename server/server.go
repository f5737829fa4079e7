// Package server exposes the assistant over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/switchboardhq/switchboard/internal/profile"
	"github.com/switchboardhq/switchboard/plugin/assistant/conversation"
	"github.com/switchboardhq/switchboard/plugin/assistant/orchestrator"
)

// AssistantService is the surface the HTTP layer needs from the
// orchestrator. *orchestrator.Orchestrator satisfies it; tests inject fakes.
type AssistantService interface {
	Handle(ctx context.Context, msg *orchestrator.Message) (*orchestrator.Reply, error)
	GetContext(ctx context.Context, channelID, threadID string) (*conversation.Context, error)
	Cleanup(ctx context.Context) (int64, error)
}

type Server struct {
	e         *echo.Echo
	profile   *profile.Profile
	assistant AssistantService
}

func NewServer(profile *profile.Profile, assistant AssistantService) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())

	s := &Server{
		e:         e,
		profile:   profile,
		assistant: assistant,
	}

	e.GET("/healthz", s.health)

	apiV1 := e.Group("/api/v1")
	apiV1.POST("/messages", s.postMessage)
	apiV1.GET("/contexts", s.getContext)
	apiV1.POST("/cleanup", s.postCleanup)

	return s
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	slog.Info("server started", slog.String("address", address), slog.String("mode", s.profile.Mode))
	return s.e.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.e.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down server", slog.Any("err", err))
	}
	slog.Info("server stopped")
}

// Echo exposes the underlying router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.e
}

type messageRequest struct {
	ChannelID string `json:"channelId"`
	ThreadID  string `json:"threadId"`
	UserID    string `json:"userId"`
	Text      string `json:"text"`
}

func (s *Server) postMessage(c echo.Context) error {
	request := &messageRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.ChannelID == "" || request.UserID == "" || request.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channelId, userId and text are required")
	}

	reply, err := s.assistant.Handle(c.Request().Context(), &orchestrator.Message{
		ChannelID: request.ChannelID,
		ThreadID:  request.ThreadID,
		UserID:    request.UserID,
		Text:      request.Text,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to handle message").SetInternal(err)
	}
	return c.JSON(http.StatusOK, reply)
}

func (s *Server) getContext(c echo.Context) error {
	channelID := c.QueryParam("channel")
	if channelID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channel is required")
	}

	conv, err := s.assistant.GetContext(c.Request().Context(), channelID, c.QueryParam("thread"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load context").SetInternal(err)
	}
	if conv == nil {
		return echo.NewHTTPError(http.StatusNotFound, "context not found")
	}
	return c.JSON(http.StatusOK, conv)
}

func (s *Server) postCleanup(c echo.Context) error {
	removed, err := s.assistant.Cleanup(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cleanup failed").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"removed": removed})
}

func (s *Server) health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
