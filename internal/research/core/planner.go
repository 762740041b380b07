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

// Planner asks the LLM for a fixed-size set of web searches answering a query.
type Planner struct {
	cfg       *config.Config
	llm       LLMProvider
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

// NewPlanner creates a search planner.
func NewPlanner(cfg *config.Config, llm LLMProvider, tele *telemetry.Telemetry) *Planner {
	return &Planner{
		cfg:       cfg,
		llm:       llm,
		telemetry: tele,
		logger:    log.New(log.Writer(), "[PLANNER] ", log.LstdFlags),
	}
}

func (p *Planner) buildPrompt(query string, howMany int) string {
	return fmt.Sprintf(`You are a helpful research assistant. Given a query, come up with a set of web
searches to perform to best answer the query. Output exactly %d terms to query for.

For each search provide the term to use and your reasoning for why this search
is important to the query.

QUERY: %s

Return ONLY strict JSON with this shape:
{"searches": [{"query": string, "reason": string}]}`, howMany, query)
}

// Plan generates the search plan for a query. Any failure to obtain a valid
// plan of the configured size is returned as a *PlanningError.
func (p *Planner) Plan(ctx context.Context, query string) (SearchPlan, error) {
	howMany := p.cfg.Research.NumSearches
	model := p.cfg.LLM.Routing.ModelFor("planning")

	start := time.Now()
	out, inTok, outTok, err := p.llm.GenerateWithTokens(ctx, p.buildPrompt(query, howMany), model, map[string]interface{}{
		"temperature": 0.2,
	})
	if p.telemetry != nil {
		p.telemetry.RecordLLMUsage(model, inTok, outTok, p.llm.CalculateCost(inTok, outTok, model), time.Since(start), err == nil)
	}
	if err != nil {
		return SearchPlan{}, &PlanningError{Query: query, Err: err}
	}

	plan, err := parsePlanningResponse(out, howMany)
	if err != nil {
		p.logger.Printf("rejecting plan for %q: %v", query, err)
		return SearchPlan{}, &PlanningError{Query: query, Err: err}
	}
	return plan, nil
}

// parsePlanningResponse extracts the plan JSON from an LLM response and
// validates it. The parse fails closed: a malformed plan, the wrong number of
// items or an empty query term all reject the whole response.
func parsePlanningResponse(response string, howMany int) (SearchPlan, error) {
	raw := extractFirstJSON(response)

	var plan SearchPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return SearchPlan{}, fmt.Errorf("unparseable plan: %w", err)
	}
	if len(plan.Searches) != howMany {
		return SearchPlan{}, fmt.Errorf("plan has %d searches, want %d", len(plan.Searches), howMany)
	}
	for i, item := range plan.Searches {
		if strings.TrimSpace(item.Query) == "" {
			return SearchPlan{}, fmt.Errorf("plan item %d has an empty query", i)
		}
		if strings.TrimSpace(item.Reason) == "" {
			return SearchPlan{}, fmt.Errorf("plan item %d has an empty reason", i)
		}
	}
	return plan, nil
}

// extractFirstJSON attempts to find the first top-level JSON object in a string
func extractFirstJSON(s string) string {
	start := -1
	depth := 0
	for i, ch := range s {
		if ch == '{' {
			if depth == 0 {
				start = i
			}
			depth++
		} else if ch == '}' {
			if depth > 0 {
				depth--
			}
			if depth == 0 && start != -1 {
				return s[start : i+1]
			}
		}
	}
	return s
}
