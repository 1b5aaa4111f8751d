package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/geobrief/geobrief/internal/agent"
)

// QuestionHandler serves the research pipeline over HTTP.
type QuestionHandler struct {
	Orchestrator *agent.Orchestrator
	Timeout      time.Duration
	Logger       *log.Logger
}

// QuestionRequest is the body of POST /api/question.
type QuestionRequest struct {
	Question string `json:"question"`
}

func (h *QuestionHandler) Register(g *echo.Group) {
	g.POST("/question", h.handleQuestion)
}

// handleQuestion runs the full pipeline for one question. The response is
// always 200 with the uniform result envelope; pipeline failures are carried
// inside the envelope, not as HTTP errors.
func (h *QuestionHandler) handleQuestion(c echo.Context) error {
	var req QuestionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}

	ctx := c.Request().Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	started := time.Now()
	result := h.Orchestrator.ProcessQuestion(ctx, question)
	h.Logger.Printf("processed question in %v (success=%v)", time.Since(started), result.Success)

	return c.JSON(http.StatusOK, result)
}
