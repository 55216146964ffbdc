package workflow

import "time"

// EventType identifies a workflow transition.
type EventType string

const (
	EventWorkflowStart    EventType = "workflow_start"
	EventWorkflowComplete EventType = "workflow_complete"
	EventWorkflowError    EventType = "workflow_error"
	EventStepStart        EventType = "step_start"
	EventStepComplete     EventType = "step_complete"
	EventStepError        EventType = "step_error"
	EventStepSkipped      EventType = "step_skipped"
	EventRouteSelected    EventType = "route_selected"
)

// Event is an observable transition during workflow execution.
type Event struct {
	Type      EventType
	StepName  string
	RouteName string
	Duration  time.Duration
	Error     error
	Timestamp time.Time
}

// TerminationReason indicates why the workflow stopped.
type TerminationReason string

const (
	// TerminationComplete indicates normal completion.
	TerminationComplete TerminationReason = "complete"

	// TerminationTimeout indicates the deadline was exceeded.
	TerminationTimeout TerminationReason = "timeout"

	// TerminationCancelled indicates context cancellation.
	TerminationCancelled TerminationReason = "cancelled"

	// TerminationError indicates a step failed.
	TerminationError TerminationReason = "error"
)

// Result represents the final outcome of workflow execution.
type Result[S any] struct {
	WorkflowName string

	// State is the last state produced, on success or failure.
	State S

	Termination TerminationReason

	// Path lists started steps in order; routers contribute
	// "router:key" entries.
	Path []string

	Duration time.Duration
	Error    error
}
