// Package engine assembles the PhantomMail workflow: dispatch picks a
// category, a router runs exactly one generator for it, and the send step
// delivers the result.
//
//	dispatch → generate_<category> → send
//
// Every run gets a fresh id and its own state; runs share nothing but the
// collaborators handed to New, so an Engine is safe for concurrent use as
// long as those are.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/branch"
	"github.com/spetersoncode/phantommail/delivery"
	"github.com/spetersoncode/phantommail/llm"
	"github.com/spetersoncode/phantommail/workflow"
)

// Config wires an Engine.
type Config struct {
	Run        phantommail.RunConfig
	Generators map[phantommail.Category]branch.Generator
	Sender     delivery.Sender

	// Rand drives selection of unspecified categories. Nil uses the
	// global source.
	Rand *rand.Rand

	// Timeout bounds a whole run; StepTimeout each step. Zero means no
	// bound.
	Timeout     time.Duration
	StepTimeout time.Duration

	// Events receives workflow transitions. Sends never block.
	Events chan<- workflow.Event

	Logger *slog.Logger
}

// Engine runs the workflow.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New validates cfg and returns an Engine. A generator table that does not
// cover every category fails with *phantommail.SelectionError.
func New(cfg Config) (*Engine, error) {
	if cfg.Sender == nil {
		return nil, errors.New("engine: sender is required")
	}
	for _, c := range phantommail.Categories() {
		if g, ok := cfg.Generators[c]; !ok || g == nil {
			return nil, &phantommail.SelectionError{Category: c, Err: workflow.ErrMissingRoute}
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	e := &Engine{cfg: cfg, rng: cfg.Rand, logger: cfg.Logger.With("component", "engine")}
	if _, err := e.build(new(llm.Usage)); err != nil {
		return nil, err
	}
	return e, nil
}

// Result describes one finished run. It is returned on failure too.
type Result struct {
	RunID    string
	State    phantommail.RunState
	Usage    llm.Usage
	Path     []string
	Duration time.Duration

	Termination workflow.TerminationReason
	Err         error
}

// Sent reports whether the run delivered its message.
func (r *Result) Sent() bool {
	return r.Err == nil && r.Termination == workflow.TerminationComplete
}

func (e *Engine) build(usage *llm.Usage) (*workflow.Workflow[phantommail.RunState], error) {
	routes := make(map[phantommail.Category]workflow.Step[phantommail.RunState], len(e.cfg.Generators))
	for c, g := range e.cfg.Generators {
		routes[c] = GenerateStep(g, usage)
	}
	router, err := workflow.NewRouter("generate",
		func(s phantommail.RunState) phantommail.Category { return s.Category },
		routes, phantommail.Categories()...)
	if err != nil {
		return nil, &phantommail.SelectionError{Err: err}
	}
	root := workflow.NewChain[phantommail.RunState]("phantommail",
		workflow.NewFuncStep("dispatch", e.dispatch),
		router,
		SendStep(e.cfg.Run, e.cfg.Sender),
	)
	return workflow.New[phantommail.RunState]("phantommail", root), nil
}

func (e *Engine) dispatch(_ context.Context, s phantommail.RunState) (phantommail.RunState, error) {
	e.mu.Lock()
	s.Category = phantommail.Select(s.Category, e.rng)
	e.mu.Unlock()
	return s, nil
}

// Send runs the workflow once for the requested category, which may be
// Unspecified.
func (e *Engine) Send(ctx context.Context, category phantommail.Category, recipients []string) (*Result, error) {
	return e.Run(ctx, phantommail.NewRunState(category, recipients...))
}

// Run runs the workflow from state. The returned error is the first domain
// error of the run (*phantommail.GenerationError, RenderError,
// DeliveryError or SelectionError) or the context error; it is also
// recorded in the Result.
func (e *Engine) Run(ctx context.Context, state phantommail.RunState) (*Result, error) {
	if len(state.Recipients) == 0 {
		return nil, delivery.ErrNoRecipients
	}

	var usage llm.Usage
	wf, err := e.build(&usage)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger := e.logger.With("run_id", id)
	logger.Info("run started", "requested", state.Category.String(), "recipients", len(state.Recipients))

	opts := []workflow.Option{workflow.WithLogger(logger)}
	if e.cfg.Timeout > 0 {
		opts = append(opts, workflow.WithTimeout(e.cfg.Timeout))
	}
	if e.cfg.StepTimeout > 0 {
		opts = append(opts, workflow.WithStepTimeout(e.cfg.StepTimeout))
	}
	if e.cfg.Events != nil {
		opts = append(opts, workflow.WithEvents(e.cfg.Events))
	}

	wr, err := wf.Run(ctx, state.Clone(), opts...)
	res := &Result{
		RunID:       id,
		State:       wr.State,
		Usage:       usage,
		Path:        wr.Path,
		Duration:    wr.Duration,
		Termination: wr.Termination,
	}
	if err != nil {
		res.Err = domainError(wr.State, err)
		logger.Error("run failed",
			"category", wr.State.Category.String(),
			"termination", wr.Termination,
			"error", res.Err)
		return res, res.Err
	}

	logger.Info("run complete",
		"category", wr.State.Category.String(),
		"subject", wr.State.Subject,
		"attachments", len(wr.State.Attachments),
		"duration", wr.Duration,
		"tokens", usage.Total())
	return res, nil
}

// domainError strips the workflow wrapping so callers see the branch or
// delivery error directly.
func domainError(s phantommail.RunState, err error) error {
	var re *workflow.RouteError
	if errors.As(err, &re) {
		return &phantommail.SelectionError{Category: s.Category, Err: re}
	}
	var (
		gen *phantommail.GenerationError
		ren *phantommail.RenderError
		del *phantommail.DeliveryError
		sel *phantommail.SelectionError
	)
	switch {
	case errors.As(err, &gen):
		return gen
	case errors.As(err, &ren):
		return ren
	case errors.As(err, &del):
		return del
	case errors.As(err, &sel):
		return sel
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("run aborted: %w", err)
	}
	return err
}
