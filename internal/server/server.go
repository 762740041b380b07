package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/research/core"
	"github.com/mohammad-safakhou/researcher/internal/research/telemetry"
)

// New builds the echo application around an already-wired pipeline.
func New(cfg *config.Config, orch *core.Orchestrator) *echo.Echo {
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
	e.GET("/", indexPage)

	rh := &ResearchHandler{
		cfg:    cfg,
		orch:   orch,
		logger: log.New(log.Writer(), "[RESEARCH] ", log.LstdFlags),
	}
	rh.Register(e.Group("/api/research"))

	return e
}

// Run wires the full pipeline from configuration and serves until the
// listener fails.
func Run(cfg *config.Config) error {
	tele := telemetry.NewTelemetry(cfg.Telemetry)
	orch, err := core.NewPipeline(cfg, tele)
	if err != nil {
		return err
	}

	e := New(cfg, orch)

	addr := cfg.Server.Address
	if addr == "" {
		addr = ":10010"
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

func indexPage(c echo.Context) error {
	const page = `<!doctype html>
<html>
<head><title>Researcher</title></head>
<body>
<h1>Researcher</h1>
<p>POST a JSON body {"query": "..."} to /api/research to stream a research run.</p>
<form onsubmit="run(event)">
  <input id="q" size="60" placeholder="What would you like to research?">
  <button>Run</button>
</form>
<pre id="out"></pre>
<script>
async function run(ev) {
  ev.preventDefault();
  const out = document.getElementById('out');
  out.textContent = '';
  const resp = await fetch('/api/research', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({query: document.getElementById('q').value})
  });
  const reader = resp.body.getReader();
  const dec = new TextDecoder();
  for (;;) {
    const {done, value} = await reader.read();
    if (done) break;
    out.textContent += dec.decode(value);
  }
}
</script>
</body>
</html>`
	return c.HTML(http.StatusOK, page)
}
