package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mohammad-safakhou/researcher/config"
)

// stubLLM returns a canned response for every call.
type stubLLM struct {
	response string
	err      error
	prompts  []string
}

func (s *stubLLM) Generate(ctx context.Context, prompt, model string, options map[string]interface{}) (string, error) {
	out, _, _, err := s.GenerateWithTokens(ctx, prompt, model, options)
	return out, err
}

func (s *stubLLM) GenerateWithTokens(ctx context.Context, prompt, model string, options map[string]interface{}) (string, int64, int64, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", 0, 0, s.err
	}
	return s.response, 10, 20, nil
}

func (s *stubLLM) GetAvailableModels() []string                  { return []string{"test"} }
func (s *stubLLM) GetModelInfo(string) (ModelInfo, error)        { return ModelInfo{Name: "test"}, nil }
func (s *stubLLM) CalculateCost(in, out int64, m string) float64 { return 0 }

func plannerConfig(n int) *config.Config {
	return &config.Config{
		Research: config.ResearchConfig{NumSearches: n, SummaryWordLimit: 300},
		LLM:      config.LLMConfig{Routing: config.LLMRoutingConfig{Fallback: "test"}},
	}
}

func planJSON(n int) string {
	out := `{"searches": [`
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"query": "query %d", "reason": "reason %d"}`, i, i)
	}
	return out + `]}`
}

func TestPlanParsesValidResponse(t *testing.T) {
	llm := &stubLLM{response: planJSON(5)}
	p := NewPlanner(plannerConfig(5), llm, nil)

	plan, err := p.Plan(context.Background(), "history of the transistor")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Searches) != 5 {
		t.Fatalf("got %d searches, want 5", len(plan.Searches))
	}
	for i, item := range plan.Searches {
		if item.Query == "" || item.Reason == "" {
			t.Fatalf("item %d has empty fields: %+v", i, item)
		}
	}
}

func TestPlanExtractsJSONFromProse(t *testing.T) {
	llm := &stubLLM{response: "Here is the plan you asked for:\n" + planJSON(3) + "\nLet me know if you need more."}
	p := NewPlanner(plannerConfig(3), llm, nil)

	plan, err := p.Plan(context.Background(), "q")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Searches) != 3 {
		t.Fatalf("got %d searches, want 3", len(plan.Searches))
	}
}

func TestPlanRejectsWrongCardinality(t *testing.T) {
	llm := &stubLLM{response: planJSON(4)}
	p := NewPlanner(plannerConfig(5), llm, nil)

	_, err := p.Plan(context.Background(), "q")
	var perr *PlanningError
	if !errors.As(err, &perr) {
		t.Fatalf("want *PlanningError, got %v", err)
	}
}

func TestPlanRejectsEmptyQueryItem(t *testing.T) {
	llm := &stubLLM{response: `{"searches": [{"query": "a", "reason": "r"}, {"query": "  ", "reason": "r"}]}`}
	p := NewPlanner(plannerConfig(2), llm, nil)

	_, err := p.Plan(context.Background(), "q")
	var perr *PlanningError
	if !errors.As(err, &perr) {
		t.Fatalf("want *PlanningError, got %v", err)
	}
}

func TestPlanRejectsEmptyReasonItem(t *testing.T) {
	llm := &stubLLM{response: `{"searches": [{"query": "a", "reason": ""}, {"query": "b", "reason": "  "}]}`}
	p := NewPlanner(plannerConfig(2), llm, nil)

	_, err := p.Plan(context.Background(), "q")
	var perr *PlanningError
	if !errors.As(err, &perr) {
		t.Fatalf("want *PlanningError, got %v", err)
	}
}

func TestPlanRejectsMalformedResponse(t *testing.T) {
	llm := &stubLLM{response: "I could not come up with a plan, sorry."}
	p := NewPlanner(plannerConfig(5), llm, nil)

	_, err := p.Plan(context.Background(), "q")
	var perr *PlanningError
	if !errors.As(err, &perr) {
		t.Fatalf("want *PlanningError, got %v", err)
	}
}

func TestPlanWrapsProviderError(t *testing.T) {
	sentinel := errors.New("provider down")
	llm := &stubLLM{err: sentinel}
	p := NewPlanner(plannerConfig(5), llm, nil)

	_, err := p.Plan(context.Background(), "q")
	var perr *PlanningError
	if !errors.As(err, &perr) {
		t.Fatalf("want *PlanningError, got %v", err)
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("want wrapped sentinel, got %v", err)
	}
}
