package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRouteMatched indicates the routing key has no step.
	ErrNoRouteMatched = errors.New("workflow: no route matched")

	// ErrMissingRoute indicates a router was built without a step for a
	// required key.
	ErrMissingRoute = errors.New("workflow: missing route")
)

// StepError wraps errors from step execution.
type StepError struct {
	StepName string
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("workflow: step %q failed: %v", e.StepName, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// RouteError reports a routing key with no step.
type RouteError struct {
	Router string
	Key    string
	Err    error
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("workflow: router %q: key %q: %v", e.Router, e.Key, e.Err)
}

func (e *RouteError) Unwrap() error {
	return e.Err
}
