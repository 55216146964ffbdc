// Package batch sends a number of generated emails one after another and
// summarizes the outcome. A failed run is counted and reported; it never
// stops the batch.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/engine"
	"github.com/spetersoncode/phantommail/llm"
)

// DefaultDelay is the pause between consecutive runs.
const DefaultDelay = 500 * time.Millisecond

// Runner executes one workflow run. *engine.Engine implements it.
type Runner interface {
	Send(ctx context.Context, category phantommail.Category, recipients []string) (*engine.Result, error)
}

// Recorder persists the outcome of a run.
type Recorder interface {
	Record(ctx context.Context, res *engine.Result) error
}

// Selection is what the user asked for.
type Selection struct {
	// Category is the requested category. Unspecified lets the engine
	// choose.
	Category phantommail.Category

	// AllRandom draws a fresh category for every run.
	AllRandom bool

	Count      int
	Recipients []string
}

// Label returns the selection's category label, "all_random" when
// AllRandom is set.
func (s Selection) Label() string {
	if s.AllRandom {
		return phantommail.AllRandom
	}
	return s.Category.String()
}

// ParseSelection builds a Selection from a category label, which may be
// "all_random".
func ParseSelection(label string, count int, recipients []string) (Selection, error) {
	sel := Selection{Count: count, Recipients: recipients}
	switch l := strings.ToLower(strings.TrimSpace(label)); l {
	case phantommail.AllRandom:
		sel.AllRandom = true
	default:
		sel.Category = phantommail.ParseCategory(l)
		if !sel.Category.Valid() {
			return Selection{}, fmt.Errorf("unknown email type %q", label)
		}
	}
	return sel, sel.Validate()
}

// Validate checks count and recipients.
func (s Selection) Validate() error {
	var errs []error
	if s.Count < 1 {
		errs = append(errs, fmt.Errorf("count must be positive, got %d", s.Count))
	}
	if len(s.Recipients) == 0 {
		errs = append(errs, errors.New("at least one recipient is required"))
	}
	return errors.Join(errs...)
}

// RunFailure is one failed run.
type RunFailure struct {
	Index    int
	Category phantommail.Category
	Err      error
}

func (f RunFailure) String() string {
	return fmt.Sprintf("Email %d (%s): %v", f.Index, f.Category, f.Err)
}

// Summary aggregates a batch.
type Summary struct {
	Total   int
	Success int
	Failed  int
	Errors  []RunFailure

	Usage    llm.Usage
	Cost     float64
	Duration time.Duration
}

// Driver runs batches.
type Driver struct {
	runner   Runner
	out      io.Writer
	delay    time.Duration
	rng      *rand.Rand
	cost     func(llm.Usage) float64
	recorder Recorder
	logger   *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithOutput sets where progress is printed. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(d *Driver) { d.out = w }
}

// WithDelay sets the pause between runs.
func WithDelay(delay time.Duration) Option {
	return func(d *Driver) { d.delay = delay }
}

// WithRand sets the source for all_random category draws.
func WithRand(rng *rand.Rand) Option {
	return func(d *Driver) { d.rng = rng }
}

// WithCost sets the function that prices token usage, typically a
// model.ChatModel's Cost method.
func WithCost(cost func(llm.Usage) float64) Option {
	return func(d *Driver) { d.cost = cost }
}

// WithRecorder records every run, successful or not.
func WithRecorder(r Recorder) Option {
	return func(d *Driver) { d.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// New returns a Driver over runner.
func New(runner Runner, opts ...Option) *Driver {
	d := &Driver{
		runner: runner,
		out:    os.Stdout,
		delay:  DefaultDelay,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "batch")
	return d
}

// Run sends sel.Count emails. It returns early only when ctx ends, with
// the summary so far and the context error.
func (d *Driver) Run(ctx context.Context, sel Selection) (*Summary, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	sum := &Summary{Total: sel.Count}
	fmt.Fprintf(d.out, "\nSending %d email(s)...\n\n", sel.Count)

	for i := range sel.Count {
		category := sel.Category
		if sel.AllRandom {
			category = phantommail.Select(phantommail.Unspecified, d.rng)
		}

		fmt.Fprintf(d.out, "[%d/%d] Generating %s email... ", i+1, sel.Count, category)
		res, err := d.runner.Send(ctx, category, sel.Recipients)
		if res != nil {
			sum.Usage = sum.Usage.Add(res.Usage)
			if !category.Valid() {
				category = res.State.Category
			}
			d.record(ctx, res)
		}
		if err != nil {
			fmt.Fprintf(d.out, "Failed: %v\n", err)
			sum.Failed++
			sum.Errors = append(sum.Errors, RunFailure{Index: i + 1, Category: category, Err: err})
			d.logger.Error("email failed", "index", i+1, "category", category.String(), "error", err)
		} else {
			fmt.Fprintln(d.out, "Sent!")
			sum.Success++
		}

		if ctx.Err() != nil {
			sum.Duration = time.Since(start)
			return d.finish(sum), ctx.Err()
		}
		if i < sel.Count-1 && d.delay > 0 {
			if err := sleep(ctx, d.delay); err != nil {
				sum.Duration = time.Since(start)
				return d.finish(sum), err
			}
		}
	}

	sum.Duration = time.Since(start)
	return d.finish(sum), nil
}

func (d *Driver) finish(sum *Summary) *Summary {
	if d.cost != nil {
		sum.Cost = d.cost(sum.Usage)
	}
	return sum
}

func (d *Driver) record(ctx context.Context, res *engine.Result) {
	if d.recorder == nil {
		return
	}
	// Record even when the run was cancelled.
	if err := d.recorder.Record(context.WithoutCancel(ctx), res); err != nil {
		d.logger.Warn("record run", "run_id", res.RunID, "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const divider = "=================================================="

// PrintSummary writes the summary block.
func PrintSummary(w io.Writer, s *Summary) {
	fmt.Fprintf(w, "\n%s\nSUMMARY\n%s\n", divider, divider)
	fmt.Fprintf(w, "Total: %d | Success: %d | Failed: %d\n", s.Total, s.Success, s.Failed)
	if s.Usage.Total() > 0 {
		fmt.Fprintf(w, "Tokens: %d in / %d out", s.Usage.InputTokens, s.Usage.OutputTokens)
		if s.Cost > 0 {
			fmt.Fprintf(w, " | Estimated cost: $%.4f", s.Cost)
		}
		fmt.Fprintln(w)
	}
	if len(s.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
	fmt.Fprintln(w, divider)
}
