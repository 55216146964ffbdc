package workflow

import (
	"context"
	"time"
)

// Chain executes steps sequentially, passing each step's output state to the
// next.
type Chain[S any] struct {
	name  string
	steps []Step[S]
}

// NewChain creates a sequential workflow.
func NewChain[S any](name string, steps ...Step[S]) *Chain[S] {
	return &Chain[S]{name: name, steps: steps}
}

// Name returns the chain name.
func (c *Chain[S]) Name() string { return c.name }

// Run executes steps in order. A cancelled context stops the chain before
// the next step starts.
func (c *Chain[S]) Run(ctx context.Context, state S, opts ...Option) (S, error) {
	options := ApplyOptions(opts...)

	for _, step := range c.steps {
		if err := ctx.Err(); err != nil {
			options.emit(Event{Type: EventStepSkipped, StepName: step.Name(), Error: err})
			return state, &StepError{StepName: step.Name(), Err: err}
		}

		next, err := c.runStep(ctx, step, state, options, opts)
		if err != nil {
			return next, err
		}
		state = next
	}
	return state, nil
}

func (c *Chain[S]) runStep(ctx context.Context, step Step[S], state S, options *Options, opts []Option) (S, error) {
	if options.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.StepTimeout)
		defer cancel()
	}

	start := time.Now()
	options.emit(Event{Type: EventStepStart, StepName: step.Name()})

	next, err := step.Run(ctx, state, opts...)
	if err != nil {
		options.emit(Event{Type: EventStepError, StepName: step.Name(), Duration: time.Since(start), Error: err})
		if _, nested := err.(*StepError); nested {
			return next, err
		}
		return next, &StepError{StepName: step.Name(), Err: err}
	}

	options.emit(Event{Type: EventStepComplete, StepName: step.Name(), Duration: time.Since(start)})
	return next, nil
}
