package workflow

import (
	"log/slog"
	"time"
)

// Options contains configuration for workflow execution.
type Options struct {
	// Timeout sets a deadline for the entire workflow.
	Timeout time.Duration

	// StepTimeout bounds each step run by a Chain. Zero means no bound.
	StepTimeout time.Duration

	// Events receives transitions. Sends never block.
	Events chan<- Event

	// Logger receives transitions at Debug level.
	Logger *slog.Logger

	trace []func(Event)
}

// Option is a functional option for workflow configuration.
type Option func(*Options)

// WithTimeout sets the overall workflow timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithStepTimeout sets the timeout for each step.
func WithStepTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.StepTimeout = d
	}
}

// WithEvents sends transitions to ch.
func WithEvents(ch chan<- Event) Option {
	return func(o *Options) {
		o.Events = ch
	}
}

// WithLogger logs transitions to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func withTrace(fn func(Event)) Option {
	return func(o *Options) {
		o.trace = append(o.trace, fn)
	}
}

// ApplyOptions applies functional options with defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Options) emit(ev Event) {
	ev.Timestamp = time.Now()
	for _, fn := range o.trace {
		fn(ev)
	}
	if o.Logger != nil {
		attrs := []any{"event", ev.Type, "step", ev.StepName}
		if ev.RouteName != "" {
			attrs = append(attrs, "route", ev.RouteName)
		}
		if ev.Duration > 0 {
			attrs = append(attrs, "duration", ev.Duration)
		}
		if ev.Error != nil {
			attrs = append(attrs, "error", ev.Error)
		}
		o.Logger.Debug("workflow transition", attrs...)
	}
	if o.Events == nil {
		return
	}
	select {
	case o.Events <- ev:
	default:
	}
}
