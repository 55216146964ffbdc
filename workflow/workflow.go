package workflow

import (
	"context"
	"errors"
	"time"
)

// Workflow is the top-level orchestrator that wraps a root step.
type Workflow[S any] struct {
	name string
	root Step[S]
}

// New creates a new workflow with a root step.
func New[S any](name string, root Step[S]) *Workflow[S] {
	return &Workflow[S]{name: name, root: root}
}

// Name returns the workflow name.
func (w *Workflow[S]) Name() string { return w.name }

// Run executes the workflow synchronously. The result is always non-nil and
// carries the final state, including on failure.
func (w *Workflow[S]) Run(ctx context.Context, state S, opts ...Option) (*Result[S], error) {
	options := ApplyOptions(opts...)

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	var path []string
	trace := func(ev Event) {
		switch ev.Type {
		case EventStepStart:
			path = append(path, ev.StepName)
		case EventRouteSelected:
			path = append(path, ev.StepName+":"+ev.RouteName)
		}
	}
	opts = append(opts, withTrace(trace))

	start := time.Now()
	options.emit(Event{Type: EventWorkflowStart, StepName: w.name})

	final, err := w.root.Run(ctx, state, opts...)
	result := &Result[S]{
		WorkflowName: w.name,
		State:        final,
		Path:         path,
		Duration:     time.Since(start),
		Termination:  TerminationComplete,
	}
	if err != nil {
		result.Error = err
		result.Termination = terminationFor(ctx, err)
		options.emit(Event{Type: EventWorkflowError, StepName: w.name, Duration: result.Duration, Error: err})
		return result, err
	}

	options.emit(Event{Type: EventWorkflowComplete, StepName: w.name, Duration: result.Duration})
	return result, nil
}

func terminationFor(ctx context.Context, err error) TerminationReason {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return TerminationTimeout
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return TerminationCancelled
	default:
		return TerminationError
	}
}
