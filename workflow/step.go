package workflow

import "context"

// Step is a single unit of work over state S.
type Step[S any] interface {
	// Name returns a unique identifier for the step.
	Name() string

	// Run returns the next state. On error the returned state is the
	// state as far as the step got, which may equal the input.
	Run(ctx context.Context, state S, opts ...Option) (S, error)
}

// StepFunc is a function signature for simple step implementations.
type StepFunc[S any] func(ctx context.Context, state S) (S, error)

// FuncStep wraps a function as a Step.
type FuncStep[S any] struct {
	name string
	fn   StepFunc[S]
}

// NewFuncStep creates a step from a function.
func NewFuncStep[S any](name string, fn StepFunc[S]) *FuncStep[S] {
	return &FuncStep[S]{name: name, fn: fn}
}

// Name returns the step name.
func (f *FuncStep[S]) Name() string { return f.name }

// Run executes the function.
func (f *FuncStep[S]) Run(ctx context.Context, state S, opts ...Option) (S, error) {
	return f.fn(ctx, state)
}
