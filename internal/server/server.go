package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geobrief/geobrief/config"
	"github.com/geobrief/geobrief/internal/agent"
	"github.com/geobrief/geobrief/internal/agent/telemetry"
	"github.com/geobrief/geobrief/internal/provider"
)

// Run builds the HTTP server and blocks serving on the configured address.
func Run(cfg config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY not configured")
	}

	// Telemetry + orchestrator (single instance shared by all requests)
	tele := telemetry.NewTelemetry(cfg.Telemetry)
	orch := agent.NewOrchestrator(cfg, tele)
	llm := provider.NewOpenAIProvider(cfg.LLM)

	api := e.Group("/api")

	qh := &QuestionHandler{
		Orchestrator: orch,
		Timeout:      cfg.General.DefaultTimeout,
		Logger:       log.New(log.Writer(), "[QUESTION] ", log.LstdFlags),
	}
	qh.Register(api)

	ch := &ChatHandler{
		LLM:         llm,
		HistorySize: cfg.LLM.HistorySize,
		Logger:      log.New(log.Writer(), "[CHAT] ", log.LstdFlags),
	}
	ch.Register(api)

	oh := &OpsHandler{Telemetry: tele}
	oh.Register(api)

	addr := cfg.Server.Address
	if addr == "" {
		addr = ":8000"
	}
	baseLogger.Printf("listening on %s", addr)
	return e.Start(addr)
}
