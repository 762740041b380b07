package core

import "fmt"

// PlanningError means no usable search plan could be produced. It is fatal:
// the run cannot proceed without a plan.
type PlanningError struct {
	Query string
	Err   error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("planning failed for %q: %v", e.Query, e.Err)
}

func (e *PlanningError) Unwrap() error { return e.Err }

// SynthesisError means the report writer could not produce a report. It is
// fatal: without a report there is nothing to deliver.
type SynthesisError struct {
	Query string
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("report synthesis failed for %q: %v", e.Query, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// NotificationError means report delivery failed. It is recoverable: the
// report itself is intact and still reaches the caller.
type NotificationError struct {
	Err error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("report notification failed: %v", e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }
