package server

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/research/core"
)

type fixedPlanner struct{ plan core.SearchPlan }

func (p fixedPlanner) Plan(ctx context.Context, query string) (core.SearchPlan, error) {
	return p.plan, nil
}

type fixedSearcher struct{ summary string }

func (s fixedSearcher) Search(ctx context.Context, item core.SearchItem) (string, error) {
	return s.summary, nil
}

type fixedWriter struct{}

func (fixedWriter) Write(ctx context.Context, query string, summaries []string) (core.ReportData, error) {
	return core.ReportData{
		ShortSummary:   "done",
		MarkdownReport: "# Report\n\n" + strings.Join(summaries, "\n"),
	}, nil
}

func testApp() (*httptest.Server, *core.Orchestrator) {
	cfg := &config.Config{
		Server:   config.ServerConfig{RunStreamEnabled: true},
		Research: config.ResearchConfig{NumSearches: 1, SummaryWordLimit: 300},
	}
	plan := core.SearchPlan{Searches: []core.SearchItem{{Query: "q", Reason: "r"}}}
	orch := core.NewOrchestrator(cfg, fixedPlanner{plan: plan}, fixedSearcher{summary: "a finding"}, fixedWriter{}, nil, nil)
	e := New(cfg, orch)
	return httptest.NewServer(e), orch
}

func TestStreamResearch(t *testing.T) {
	srv, _ := testApp()
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/research", "application/json", strings.NewReader(`{"query": "test topic"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type = %q", ct)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	text := string(body)
	for _, want := range []string{"event: progress", "Starting research...", "event: result", "a finding"} {
		if !strings.Contains(text, want) {
			t.Fatalf("stream missing %q:\n%s", want, text)
		}
	}
}

func TestStreamRejectsEmptyQuery(t *testing.T) {
	srv, _ := testApp()
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/research", "application/json", strings.NewReader(`{"query": "  "}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestStreamDisabled(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{RunStreamEnabled: false}}
	orch := core.NewOrchestrator(cfg, fixedPlanner{}, fixedSearcher{}, fixedWriter{}, nil, nil)
	srv := httptest.NewServer(New(cfg, orch))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/research", "application/json", strings.NewReader(`{"query": "x"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
}

// brokenWriter accepts the first write, then fails every subsequent one, as a
// client disconnecting mid-stream would.
type brokenWriter struct {
	header http.Header
	writes int
}

func (w *brokenWriter) Header() http.Header { return w.header }
func (w *brokenWriter) WriteHeader(int)     {}
func (w *brokenWriter) Flush()              {}
func (w *brokenWriter) Write(b []byte) (int, error) {
	w.writes++
	if w.writes > 1 {
		return 0, errors.New("broken pipe")
	}
	return len(b), nil
}

func TestStreamWriteFailureStillFinishesRun(t *testing.T) {
	cfg := &config.Config{
		Server:   config.ServerConfig{RunStreamEnabled: true},
		Research: config.ResearchConfig{NumSearches: 1, SummaryWordLimit: 300},
	}
	plan := core.SearchPlan{Searches: []core.SearchItem{{Query: "q", Reason: "r"}}}
	orch := core.NewOrchestrator(cfg, fixedPlanner{plan: plan}, fixedSearcher{summary: "a finding"}, fixedWriter{}, nil, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/research", strings.NewReader(`{"query": "x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, &brokenWriter{header: http.Header{}})

	rh := &ResearchHandler{cfg: cfg, orch: orch, logger: log.New(io.Discard, "", 0)}
	if err := rh.stream(c); err != nil {
		t.Fatalf("stream: %v", err)
	}

	runs := orch.Runs()
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].Stage != core.StageDone {
		t.Fatalf("run stage = %q, want done; producer was left blocked", runs[0].Stage)
	}
}

func TestRunStatusEndpoints(t *testing.T) {
	srv, orch := testApp()
	defer srv.Close()

	// Drive one run to completion so the status map has an entry.
	for range orch.Run(context.Background(), "status probe") {
	}

	resp, err := http.Get(srv.URL + "/api/research/runs")
	if err != nil {
		t.Fatalf("GET runs: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "status probe") {
		t.Fatalf("run listing missing run: %s", body)
	}

	missing, err := http.Get(srv.URL + "/api/research/runs/nope/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", missing.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := testApp()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
