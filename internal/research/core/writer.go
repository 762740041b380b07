package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/research/telemetry"
)

// Writer synthesizes the collected search summaries into a full report.
type Writer struct {
	cfg       *config.Config
	llm       LLMProvider
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

// NewWriter creates a report writer.
func NewWriter(cfg *config.Config, llm LLMProvider, tele *telemetry.Telemetry) *Writer {
	return &Writer{
		cfg:       cfg,
		llm:       llm,
		telemetry: tele,
		logger:    log.New(log.Writer(), "[WRITER] ", log.LstdFlags),
	}
}

func (w *Writer) buildPrompt(query string, summaries []string) string {
	research := "(no search results were available)"
	if len(summaries) > 0 {
		var b strings.Builder
		for i, s := range summaries {
			fmt.Fprintf(&b, "[%d] %s\n\n", i+1, s)
		}
		research = strings.TrimSpace(b.String())
	}
	return fmt.Sprintf(`You are a senior researcher tasked with writing a cohesive report for a
research query. You will be provided with the original query and some initial
research done by a research assistant.

First come up with an outline for the report that describes its structure and
flow. Then generate the report. The report should be in markdown format and it
should be lengthy and detailed. Aim for 5-10 pages of content, at least 1000
words.

ORIGINAL QUERY: %s

INITIAL RESEARCH:
%s

Return ONLY strict JSON with this shape:
{"short_summary": string (2-3 sentences), "markdown_report": string, "follow_up_questions": [string]}`, query, research)
}

// Write produces the final report from whatever summaries survived retrieval.
// An empty summary set still synthesizes; any failure to obtain a usable
// report is returned as a *SynthesisError.
func (w *Writer) Write(ctx context.Context, query string, summaries []string) (ReportData, error) {
	model := w.cfg.LLM.Routing.ModelFor("synthesis")

	start := time.Now()
	out, inTok, outTok, err := w.llm.GenerateWithTokens(ctx, w.buildPrompt(query, summaries), model, map[string]interface{}{
		"temperature": 0.4,
	})
	if w.telemetry != nil {
		w.telemetry.RecordLLMUsage(model, inTok, outTok, w.llm.CalculateCost(inTok, outTok, model), time.Since(start), err == nil)
	}
	if err != nil {
		return ReportData{}, &SynthesisError{Query: query, Err: err}
	}

	report, err := parseReportResponse(out)
	if err != nil {
		w.logger.Printf("rejecting report for %q: %v", query, err)
		return ReportData{}, &SynthesisError{Query: query, Err: err}
	}
	return report, nil
}

// parseReportResponse extracts the report JSON from an LLM response. Like the
// plan parse it fails closed: a report without markdown content is rejected.
func parseReportResponse(response string) (ReportData, error) {
	raw := extractFirstJSON(response)

	var report ReportData
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return ReportData{}, fmt.Errorf("unparseable report: %w", err)
	}
	if strings.TrimSpace(report.MarkdownReport) == "" {
		return ReportData{}, fmt.Errorf("report has no markdown content")
	}
	return report, nil
}
