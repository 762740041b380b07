package telemetry

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mohammad-safakhou/researcher/config"
)

// Telemetry provides monitoring and cost tracking for research runs
type Telemetry struct {
	config      config.TelemetryConfig
	logger      *log.Logger
	metrics     *Metrics
	costTracker *CostTracker
	mu          sync.RWMutex
}

// Metrics holds various performance metrics
type Metrics struct {
	// Run metrics
	TotalRuns      int64
	SuccessfulRuns int64
	FailedRuns     int64
	AverageRunTime time.Duration

	// Stage metrics
	StageExecutions   map[string]int64
	StageSuccessRates map[string]float64
	StageAverageTimes map[string]time.Duration

	// LLM metrics
	LLMRequests   map[string]int64
	LLMTokensUsed map[string]int64

	// Search metrics
	SearchRequests     map[string]int64
	SearchSuccessRates map[string]float64
}

// CostTracker tracks costs across models and pipeline stages
type CostTracker struct {
	ModelCosts  map[string]float64
	StageCosts  map[string]float64
	TotalCost   float64
	TotalTokens int64
}

// CostSummary provides a snapshot of accumulated costs
type CostSummary struct {
	TotalCost   float64
	TotalTokens int64
	ModelCosts  map[string]float64
	StageCosts  map[string]float64
}

var (
	promRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "researcher_runs_total",
		Help: "Completed research runs by outcome.",
	}, []string{"outcome"})
	promRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "researcher_run_duration_seconds",
		Help:    "Wall-clock duration of complete research runs.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
	promStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "researcher_stage_duration_seconds",
		Help:    "Duration of individual pipeline stages.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"stage"})
	promLLMTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "researcher_llm_tokens_total",
		Help: "LLM tokens consumed by model and direction.",
	}, []string{"model", "direction"})
	promLLMCost = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "researcher_llm_cost_dollars_total",
		Help: "Estimated LLM spend in dollars by model.",
	}, []string{"model"})
	promSearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "researcher_searches_total",
		Help: "Web searches executed by provider and outcome.",
	}, []string{"provider", "outcome"})
)

// NewTelemetry creates a new telemetry instance
func NewTelemetry(config config.TelemetryConfig) *Telemetry {
	t := &Telemetry{
		config: config,
		logger: log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		metrics: &Metrics{
			StageExecutions:    make(map[string]int64),
			StageSuccessRates:  make(map[string]float64),
			StageAverageTimes:  make(map[string]time.Duration),
			LLMRequests:        make(map[string]int64),
			LLMTokensUsed:      make(map[string]int64),
			SearchRequests:     make(map[string]int64),
			SearchSuccessRates: make(map[string]float64),
		},
		costTracker: &CostTracker{
			ModelCosts: make(map[string]float64),
			StageCosts: make(map[string]float64),
		},
	}

	// Periodic logs can be disabled via config
	if config.Enabled && config.PeriodicLogs {
		go t.startMetricsReporting()
	}

	return t
}

// RecordRun records the completion of a research run
func (t *Telemetry) RecordRun(runID string, duration time.Duration, success bool) {
	if !t.config.Enabled {
		return
	}

	outcome := "success"
	if !success {
		outcome = "failure"
	}
	promRunsTotal.WithLabelValues(outcome).Inc()
	promRunDuration.Observe(duration.Seconds())

	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.TotalRuns++
	if success {
		t.metrics.SuccessfulRuns++
	} else {
		t.metrics.FailedRuns++
	}

	if t.metrics.TotalRuns == 1 {
		t.metrics.AverageRunTime = duration
	} else {
		total := t.metrics.AverageRunTime * time.Duration(t.metrics.TotalRuns-1)
		t.metrics.AverageRunTime = (total + duration) / time.Duration(t.metrics.TotalRuns)
	}

	t.logger.Printf("Run Event: ID=%s, Success=%t, Duration=%v", runID, success, duration)
}

// RecordStage records the execution of one pipeline stage
func (t *Telemetry) RecordStage(stage string, duration time.Duration, success bool) {
	if !t.config.Enabled {
		return
	}

	promStageDuration.WithLabelValues(stage).Observe(duration.Seconds())

	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.StageExecutions[stage]++
	executions := t.metrics.StageExecutions[stage]

	currentSuccess := t.metrics.StageSuccessRates[stage] * float64(executions-1)
	if success {
		currentSuccess += 1.0
	}
	t.metrics.StageSuccessRates[stage] = currentSuccess / float64(executions)

	currentAvg := t.metrics.StageAverageTimes[stage]
	if executions == 1 {
		t.metrics.StageAverageTimes[stage] = duration
	} else {
		total := currentAvg * time.Duration(executions-1)
		t.metrics.StageAverageTimes[stage] = (total + duration) / time.Duration(executions)
	}
}

// RecordLLMUsage records tokens and spend for a single LLM call
func (t *Telemetry) RecordLLMUsage(model string, inputTokens, outputTokens int64, cost float64, duration time.Duration, success bool) {
	if !t.config.Enabled {
		return
	}

	promLLMTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	promLLMTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	if t.config.CostTracking {
		promLLMCost.WithLabelValues(model).Add(cost)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.LLMRequests[model]++
	t.metrics.LLMTokensUsed[model] += inputTokens + outputTokens

	if t.config.CostTracking {
		t.costTracker.TotalCost += cost
		t.costTracker.TotalTokens += inputTokens + outputTokens
		t.costTracker.ModelCosts[model] += cost
	}

	t.logger.Printf("LLM Event: Model=%s, Success=%t, Duration=%v, Cost=$%.4f, Tokens=%d",
		model, success, duration, cost, inputTokens+outputTokens)
}

// RecordSearch records a web search by provider
func (t *Telemetry) RecordSearch(provider string, duration time.Duration, success bool, results int) {
	if !t.config.Enabled {
		return
	}

	outcome := "success"
	if !success {
		outcome = "failure"
	}
	promSearchesTotal.WithLabelValues(provider, outcome).Inc()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.SearchRequests[provider]++
	requests := t.metrics.SearchRequests[provider]

	currentSuccess := t.metrics.SearchSuccessRates[provider] * float64(requests-1)
	if success {
		currentSuccess += 1.0
	}
	t.metrics.SearchSuccessRates[provider] = currentSuccess / float64(requests)

	t.logger.Printf("Search Event: Provider=%s, Success=%t, Duration=%v, Results=%d",
		provider, success, duration, results)
}

// GetMetrics returns current metrics snapshot
func (t *Telemetry) GetMetrics() Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	metrics := *t.metrics
	metrics.StageExecutions = make(map[string]int64)
	metrics.StageSuccessRates = make(map[string]float64)
	metrics.StageAverageTimes = make(map[string]time.Duration)
	metrics.LLMRequests = make(map[string]int64)
	metrics.LLMTokensUsed = make(map[string]int64)
	metrics.SearchRequests = make(map[string]int64)
	metrics.SearchSuccessRates = make(map[string]float64)

	for k, v := range t.metrics.StageExecutions {
		metrics.StageExecutions[k] = v
	}
	for k, v := range t.metrics.StageSuccessRates {
		metrics.StageSuccessRates[k] = v
	}
	for k, v := range t.metrics.StageAverageTimes {
		metrics.StageAverageTimes[k] = v
	}
	for k, v := range t.metrics.LLMRequests {
		metrics.LLMRequests[k] = v
	}
	for k, v := range t.metrics.LLMTokensUsed {
		metrics.LLMTokensUsed[k] = v
	}
	for k, v := range t.metrics.SearchRequests {
		metrics.SearchRequests[k] = v
	}
	for k, v := range t.metrics.SearchSuccessRates {
		metrics.SearchSuccessRates[k] = v
	}

	return metrics
}

// GetCostSummary returns current cost summary
func (t *Telemetry) GetCostSummary() CostSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	summary := CostSummary{
		TotalCost:   t.costTracker.TotalCost,
		TotalTokens: t.costTracker.TotalTokens,
		ModelCosts:  make(map[string]float64),
		StageCosts:  make(map[string]float64),
	}
	for k, v := range t.costTracker.ModelCosts {
		summary.ModelCosts[k] = v
	}
	for k, v := range t.costTracker.StageCosts {
		summary.StageCosts[k] = v
	}
	return summary
}

// startMetricsReporting logs a metrics snapshot once a minute
func (t *Telemetry) startMetricsReporting() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		metrics := t.GetMetrics()
		costs := t.GetCostSummary()

		t.logger.Printf("Metrics Snapshot: Runs=%d/%d, AvgTime=%v, TotalCost=$%.4f, TotalTokens=%d",
			metrics.SuccessfulRuns, metrics.TotalRuns,
			metrics.AverageRunTime, costs.TotalCost, costs.TotalTokens)
	}
}

// Shutdown logs a final report
func (t *Telemetry) Shutdown() {
	metrics := t.GetMetrics()
	costs := t.GetCostSummary()
	if metrics.TotalRuns == 0 {
		return
	}

	t.logger.Printf("Final Report:")
	t.logger.Printf("  Total Runs: %d", metrics.TotalRuns)
	t.logger.Printf("  Success Rate: %.2f%%", float64(metrics.SuccessfulRuns)/float64(metrics.TotalRuns)*100)
	t.logger.Printf("  Average Run Time: %v", metrics.AverageRunTime)
	t.logger.Printf("  Total Cost: $%.4f", costs.TotalCost)
	t.logger.Printf("  Total Tokens: %d", costs.TotalTokens)
}

// GetPerformanceReport returns a human-readable performance report
func (t *Telemetry) GetPerformanceReport() string {
	metrics := t.GetMetrics()
	costs := t.GetCostSummary()
	if metrics.TotalRuns == 0 {
		return "no runs recorded\n"
	}

	report := fmt.Sprintf(`
=== PERFORMANCE REPORT ===
Overall:
  Total Runs: %d
  Successful: %d (%.2f%%)
  Failed: %d
  Average Run Time: %v
  Total Cost: $%.4f
  Total Tokens: %d

Stage Performance:
`, metrics.TotalRuns, metrics.SuccessfulRuns,
		float64(metrics.SuccessfulRuns)/float64(metrics.TotalRuns)*100,
		metrics.FailedRuns, metrics.AverageRunTime, costs.TotalCost, costs.TotalTokens)

	for stage, executions := range metrics.StageExecutions {
		report += fmt.Sprintf("  %s: %d executions, %.2f%% success, %v avg time\n",
			stage, executions, metrics.StageSuccessRates[stage]*100, metrics.StageAverageTimes[stage])
	}

	report += "\nLLM Usage:\n"
	for model, requests := range metrics.LLMRequests {
		report += fmt.Sprintf("  %s: %d requests, %d tokens, $%.4f\n",
			model, requests, metrics.LLMTokensUsed[model], costs.ModelCosts[model])
	}

	report += "\nSearch Providers:\n"
	for provider, requests := range metrics.SearchRequests {
		report += fmt.Sprintf("  %s: %d requests, %.2f%% success\n",
			provider, requests, metrics.SearchSuccessRates[provider]*100)
	}

	return report
}
