package workflow

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// KeyFunc derives the routing key from state.
type KeyFunc[K comparable, S any] func(state S) K

// Router selects and executes exactly one step, keyed by a value derived
// from state.
type Router[K comparable, S any] struct {
	name   string
	key    KeyFunc[K, S]
	routes map[K]Step[S]
}

// NewRouter creates a router over routes. Every key in required must have a
// route; a gap fails construction with an error wrapping ErrMissingRoute, so
// a bad table is caught when the workflow is built rather than mid-run.
func NewRouter[K comparable, S any](name string, key KeyFunc[K, S], routes map[K]Step[S], required ...K) (*Router[K, S], error) {
	var missing []string
	for _, k := range required {
		if step, ok := routes[k]; !ok || step == nil {
			missing = append(missing, fmt.Sprint(k))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: router %q has no step for %s", ErrMissingRoute, name, strings.Join(missing, ", "))
	}
	return &Router[K, S]{name: name, key: key, routes: maps.Clone(routes)}, nil
}

// Name returns the router name.
func (r *Router[K, S]) Name() string { return r.name }

// Keys returns the routed keys as strings, sorted.
func (r *Router[K, S]) Keys() []string {
	keys := make([]string, 0, len(r.routes))
	for k := range r.routes {
		keys = append(keys, fmt.Sprint(k))
	}
	slices.Sort(keys)
	return keys
}

// Run evaluates the key and executes the matching step.
func (r *Router[K, S]) Run(ctx context.Context, state S, opts ...Option) (S, error) {
	options := ApplyOptions(opts...)

	k := r.key(state)
	step, ok := r.routes[k]
	if !ok {
		return state, &RouteError{Router: r.name, Key: fmt.Sprint(k), Err: ErrNoRouteMatched}
	}

	options.emit(Event{Type: EventRouteSelected, StepName: r.name, RouteName: fmt.Sprint(k)})

	return NewChain(r.name, step).Run(ctx, state, opts...)
}
