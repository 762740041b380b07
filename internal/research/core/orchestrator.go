package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/research/telemetry"
)

// Orchestrator drives one research run through its fixed pipeline: plan the
// searches, fan them out, synthesize a report, deliver it. Progress is
// exposed as a lazy stream of events.
type Orchestrator struct {
	cfg       *config.Config
	planner   SearchPlanner
	searcher  ItemSearcher
	writer    ReportWriter
	notifier  ReportNotifier // nil when delivery is disabled
	telemetry *telemetry.Telemetry
	logger    *log.Logger

	mu   sync.RWMutex
	runs map[string]*RunStatus
}

// NewOrchestrator wires the pipeline stages together. notifier may be nil.
func NewOrchestrator(cfg *config.Config, planner SearchPlanner, searcher ItemSearcher, writer ReportWriter, notifier ReportNotifier, tele *telemetry.Telemetry) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		planner:   planner,
		searcher:  searcher,
		writer:    writer,
		notifier:  notifier,
		telemetry: tele,
		logger:    log.New(log.Writer(), "[ORCH] ", log.LstdFlags),
		runs:      make(map[string]*RunStatus),
	}
}

// searchOutcome carries one finished retrieval back to the aggregator.
type searchOutcome struct {
	index   int
	summary string
	err     error
}

// Run starts a research run for query and returns its progress stream. The
// channel is unbuffered, so the pipeline advances only as fast as the
// consumer reads; it is closed after the final event.
func (o *Orchestrator) Run(ctx context.Context, query string) <-chan ProgressEvent {
	runID := uuid.NewString()
	events := make(chan ProgressEvent)

	o.trackRun(runID, query)

	go func() {
		defer close(events)
		start := time.Now()
		err := o.process(ctx, runID, query, events)
		if o.telemetry != nil {
			o.telemetry.RecordRun(runID, time.Since(start), err == nil)
		}
		if err != nil {
			o.logger.Printf("run %s failed: %v", runID, err)
		} else {
			o.logger.Printf("run %s completed in %v", runID, time.Since(start))
		}
	}()

	return events
}

// process executes the pipeline, emitting events as each stage advances. A
// returned error means the run ended with a fatal stage failure; the error
// description has already been emitted as the final event.
func (o *Orchestrator) process(ctx context.Context, runID, query string, events chan<- ProgressEvent) error {
	emit := func(ev ProgressEvent) {
		o.updateStatus(runID, func(st *RunStatus) { st.Stage = ev.Stage })
		events <- ev
	}

	emit(ProgressEvent{Stage: StagePlanning, Message: "Starting research..."})

	plan, err := o.plan(ctx, query)
	if err != nil {
		return o.fail(runID, events, err)
	}
	total := len(plan.Searches)
	o.updateStatus(runID, func(st *RunStatus) { st.TotalQueries = total })
	o.logger.Printf("run %s: planned %d searches for %q", runID, total, query)

	emit(ProgressEvent{Stage: StageSearching, Message: "Searches planned, starting to search..."})

	summaries := o.fanOut(ctx, runID, plan, events)

	emit(ProgressEvent{Stage: StageSynthesizing, Message: "Finished searching, starting writing report..."})

	report, err := o.synthesize(ctx, query, summaries)
	if err != nil {
		return o.fail(runID, events, err)
	}

	if o.notifier != nil {
		emit(ProgressEvent{Stage: StageNotifying, Message: "Finished writing report, starting email..."})
		if err := o.notify(ctx, report); err != nil {
			o.logger.Printf("run %s: %v", runID, err)
			reason := err
			var ne *NotificationError
			if errors.As(err, &ne) && ne.Err != nil {
				reason = ne.Err
			}
			emit(ProgressEvent{Stage: StageNotifying, Message: fmt.Sprintf("Email failed: %v (report still available below)", reason)})
		} else {
			emit(ProgressEvent{Stage: StageNotifying, Message: "Email sent"})
		}
	}

	o.updateStatus(runID, func(st *RunStatus) { st.Stage = StageDone })
	events <- ProgressEvent{Stage: StageDone, Message: report.MarkdownReport, Final: true}
	return nil
}

func (o *Orchestrator) plan(ctx context.Context, query string) (SearchPlan, error) {
	start := time.Now()
	plan, err := o.planner.Plan(ctx, query)
	if o.telemetry != nil {
		o.telemetry.RecordStage("planning", time.Since(start), err == nil)
	}
	return plan, err
}

// fanOut runs every planned search in its own goroutine and aggregates the
// summaries in completion order. Item failures are logged and dropped; all
// retrievals are awaited, failures never cancel their siblings.
func (o *Orchestrator) fanOut(ctx context.Context, runID string, plan SearchPlan, events chan<- ProgressEvent) []string {
	total := len(plan.Searches)
	outcomes := make(chan searchOutcome, total)

	start := time.Now()
	for i, item := range plan.Searches {
		go func(i int, item SearchItem) {
			summary, err := o.searcher.Search(ctx, item)
			outcomes <- searchOutcome{index: i, summary: summary, err: err}
		}(i, item)
	}

	var summaries []string
	for completed := 1; completed <= total; completed++ {
		out := <-outcomes
		if out.err != nil {
			o.logger.Printf("run %s: search %d failed: %v", runID, out.index, out.err)
		} else {
			summaries = append(summaries, out.summary)
		}
		o.updateStatus(runID, func(st *RunStatus) { st.CompletedQueries = completed })
		events <- ProgressEvent{
			Stage:   StageSearching,
			Message: fmt.Sprintf("Searching... %d/%d completed", completed, total),
		}
	}
	if o.telemetry != nil {
		o.telemetry.RecordStage("searching", time.Since(start), len(summaries) > 0)
	}
	return summaries
}

func (o *Orchestrator) synthesize(ctx context.Context, query string, summaries []string) (ReportData, error) {
	start := time.Now()
	report, err := o.writer.Write(ctx, query, summaries)
	if o.telemetry != nil {
		o.telemetry.RecordStage("synthesizing", time.Since(start), err == nil)
	}
	return report, err
}

func (o *Orchestrator) notify(ctx context.Context, report ReportData) error {
	start := time.Now()
	err := o.notifier.Notify(ctx, report)
	if o.telemetry != nil {
		o.telemetry.RecordStage("notifying", time.Since(start), err == nil)
	}
	return err
}

// fail records the fatal error and emits it as the run's final event.
func (o *Orchestrator) fail(runID string, events chan<- ProgressEvent, err error) error {
	o.updateStatus(runID, func(st *RunStatus) {
		st.Stage = StageFailed
		st.Error = err.Error()
	})
	events <- ProgressEvent{Stage: StageFailed, Message: err.Error(), Final: true}
	return err
}

func (o *Orchestrator) trackRun(runID, query string) {
	now := time.Now()
	o.mu.Lock()
	o.runs[runID] = &RunStatus{
		RunID:     runID,
		Query:     query,
		Stage:     StageIdle,
		CreatedAt: now,
	}
	o.mu.Unlock()
}

func (o *Orchestrator) updateStatus(runID string, fn func(*RunStatus)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.runs[runID]
	if !ok {
		return
	}
	fn(st)
	st.LastUpdated = time.Now()
	st.ElapsedTime = st.LastUpdated.Sub(st.CreatedAt)
}

// Runs returns snapshots of every tracked run.
func (o *Orchestrator) Runs() []RunStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]RunStatus, 0, len(o.runs))
	for _, st := range o.runs {
		out = append(out, *st)
	}
	return out
}

// Status returns a snapshot of a run's progress.
func (o *Orchestrator) Status(runID string) (RunStatus, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	st, ok := o.runs[runID]
	if !ok {
		return RunStatus{}, false
	}
	return *st, true
}
