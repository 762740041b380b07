package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/research/core"
)

// ResearchHandler exposes research runs over HTTP.
type ResearchHandler struct {
	cfg    *config.Config
	orch   *core.Orchestrator
	logger *log.Logger
}

// Register attaches the research routes to a group.
func (h *ResearchHandler) Register(g *echo.Group) {
	g.POST("", h.stream)
	g.GET("/runs", h.listRuns)
	g.GET("/runs/:run_id/status", h.runStatus)
}

type researchRequest struct {
	Query string `json:"query"`
}

// stream starts a research run and streams its progress via Server-Sent
// Events. The connection stays open until the run's final event.
func (h *ResearchHandler) stream(c echo.Context) error {
	if h.cfg != nil && !h.cfg.Server.RunStreamEnabled {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "run stream disabled")
	}

	var req researchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query required")
	}

	ctx := c.Request().Context()
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "streaming unsupported")
	}

	h.logger.Printf("starting research stream for %q", query)
	events := h.orch.Run(ctx, query)

	// On a write failure the channel must still be drained: the producer
	// blocks on the unbuffered channel until its final event is consumed.
	drain := func() {
		for range events {
		}
	}

	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			h.logger.Printf("marshal event: %v", err)
			continue
		}
		name := "progress"
		if ev.Final {
			name = "result"
		}
		if _, err := resp.Write([]byte("event: " + name + "\n")); err != nil {
			drain()
			return nil
		}
		if _, err := resp.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
			drain()
			return nil
		}
		flusher.Flush()
	}
	return nil
}

// listRuns returns snapshots of all tracked runs.
func (h *ResearchHandler) listRuns(c echo.Context) error {
	return c.JSON(http.StatusOK, h.orch.Runs())
}

// runStatus returns the snapshot of a single run.
func (h *ResearchHandler) runStatus(c echo.Context) error {
	runID := c.Param("run_id")
	st, ok := h.orch.Status(runID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	return c.JSON(http.StatusOK, st)
}
