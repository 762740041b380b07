package core

import (
	"context"
	"time"
)

// SearchItem is a single planned web search: the query to run and the
// planner's reason for running it.
type SearchItem struct {
	Query  string `json:"query"`
	Reason string `json:"reason"`
}

// SearchPlan is the full set of searches produced for one research query.
type SearchPlan struct {
	Searches []SearchItem `json:"searches"`
}

// ReportData is the structured output of report synthesis.
type ReportData struct {
	ShortSummary      string   `json:"short_summary"`
	MarkdownReport    string   `json:"markdown_report"`
	FollowUpQuestions []string `json:"follow_up_questions"`
}

// Stage identifies where a run currently is in the pipeline.
type Stage string

const (
	StageIdle         Stage = "idle"
	StagePlanning     Stage = "planning"
	StageSearching    Stage = "searching"
	StageSynthesizing Stage = "synthesizing"
	StageNotifying    Stage = "notifying"
	StageDone         Stage = "done"
	StageFailed       Stage = "failed"
)

// ProgressEvent is one item on a run's progress stream. The last event of
// every stream has Final set; its Message is either the markdown report or a
// description of the fatal error.
type ProgressEvent struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
	Final   bool   `json:"final,omitempty"`
}

// RunStatus is the snapshot of a run exposed over the status endpoint.
type RunStatus struct {
	RunID            string        `json:"run_id"`
	Query            string        `json:"query"`
	Stage            Stage         `json:"stage"`
	CompletedQueries int           `json:"completed_queries"`
	TotalQueries     int           `json:"total_queries"`
	ElapsedTime      time.Duration `json:"elapsed_time"`
	Error            string        `json:"error,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	LastUpdated      time.Time     `json:"last_updated"`
}

// SearchSummary is the condensed outcome of one executed search item.
type SearchSummary struct {
	Item    SearchItem `json:"item"`
	Summary string     `json:"summary"`
}

// SearchPlanner turns a research query into a fixed-size set of web searches.
type SearchPlanner interface {
	Plan(ctx context.Context, query string) (SearchPlan, error)
}

// ItemSearcher executes one planned search and condenses the results.
type ItemSearcher interface {
	Search(ctx context.Context, item SearchItem) (string, error)
}

// ReportWriter synthesizes search summaries into a full report.
type ReportWriter interface {
	Write(ctx context.Context, query string, summaries []string) (ReportData, error)
}

// ReportNotifier delivers a finished report out of band.
type ReportNotifier interface {
	Notify(ctx context.Context, report ReportData) error
}

// LLMProvider interface defines the contract for LLM providers
type LLMProvider interface {
	// Generate generates text using the LLM
	Generate(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, error)

	// GenerateWithTokens generates text and returns token usage
	GenerateWithTokens(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, int64, int64, error)

	// GetAvailableModels returns available models
	GetAvailableModels() []string

	// GetModelInfo returns information about a specific model
	GetModelInfo(model string) (ModelInfo, error)

	// CalculateCost calculates the cost for a given number of tokens
	CalculateCost(inputTokens, outputTokens int64, model string) float64
}

// ModelInfo contains information about an LLM model
type ModelInfo struct {
	Name            string  `json:"name"`
	Provider        string  `json:"provider"`
	MaxTokens       int     `json:"max_tokens"`
	CostPer1KInput  float64 `json:"cost_per_1k_input"`
	CostPer1KOutput float64 `json:"cost_per_1k_output"`
	Description     string  `json:"description"`
}
