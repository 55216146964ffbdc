package batch

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/engine"
	"github.com/spetersoncode/phantommail/llm"
)

type fakeRunner struct {
	failOn map[int]error
	onCall func(n int)

	mu         sync.Mutex
	calls      int
	categories []phantommail.Category
}

func (r *fakeRunner) Send(_ context.Context, c phantommail.Category, recipients []string) (*engine.Result, error) {
	r.mu.Lock()
	r.calls++
	n := r.calls
	r.categories = append(r.categories, c)
	r.mu.Unlock()
	if r.onCall != nil {
		r.onCall(n)
	}

	res := &engine.Result{
		RunID: "run-" + c.String(),
		State: phantommail.RunState{Category: c, Recipients: recipients},
		Usage: llm.Usage{InputTokens: 1000, OutputTokens: 500},
	}
	if err := r.failOn[n]; err != nil {
		res.Err = err
		return res, err
	}
	return res, nil
}

type memRecorder struct {
	ids []string
	err error
}

func (m *memRecorder) Record(_ context.Context, res *engine.Result) error {
	m.ids = append(m.ids, res.RunID)
	return m.err
}

var recipients = []string{"ops@vectrans.example"}

func perToken(u llm.Usage) float64 { return float64(u.Total()) * 1e-6 }

func TestRun_Fixed(t *testing.T) {
	var out bytes.Buffer
	runner := &fakeRunner{failOn: map[int]error{2: &phantommail.GenerationError{Category: phantommail.Order, Err: errors.New("quota exceeded")}}}
	rec := &memRecorder{}
	d := New(runner, WithOutput(&out), WithDelay(0), WithRecorder(rec), WithCost(perToken))

	sum, err := d.Run(context.Background(), Selection{Category: phantommail.Order, Count: 3, Recipients: recipients})
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.Success)
	assert.Equal(t, 1, sum.Failed)
	require.Len(t, sum.Errors, 1)
	assert.Equal(t, 2, sum.Errors[0].Index)
	assert.Equal(t, "Email 2 (order): generate order email: quota exceeded", sum.Errors[0].String())
	assert.Equal(t, llm.Usage{InputTokens: 3000, OutputTokens: 1500}, sum.Usage)
	assert.InDelta(t, 0.0045, sum.Cost, 1e-12)
	assert.Len(t, rec.ids, 3)

	lines := strings.Split(out.String(), "\n")
	assert.Contains(t, lines, "Sending 3 email(s)...")
	assert.Contains(t, lines, "[1/3] Generating order email... Sent!")
	assert.Contains(t, lines, "[2/3] Generating order email... Failed: generate order email: quota exceeded")
	assert.Contains(t, lines, "[3/3] Generating order email... Sent!")
}

func TestRun_AllRandom(t *testing.T) {
	runner := &fakeRunner{}
	d := New(runner, WithOutput(&bytes.Buffer{}), WithDelay(0), WithRand(rand.New(rand.NewPCG(3, 4))))

	sum, err := d.Run(context.Background(), Selection{AllRandom: true, Count: 200, Recipients: recipients})
	require.NoError(t, err)
	assert.Equal(t, 200, sum.Success)

	seen := map[phantommail.Category]bool{}
	for _, c := range runner.categories {
		require.True(t, c.Valid())
		seen[c] = true
	}
	assert.Len(t, seen, len(phantommail.Categories()))
}

func TestRun_Pacing(t *testing.T) {
	d := New(&fakeRunner{}, WithOutput(&bytes.Buffer{}), WithDelay(20*time.Millisecond))
	start := time.Now()
	_, err := d.Run(context.Background(), Selection{Category: phantommail.Question, Count: 3, Recipients: recipients})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestRun_CancelStopsBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := &fakeRunner{onCall: func(int) { cancel() }}
	rec := &memRecorder{}
	d := New(runner, WithOutput(&bytes.Buffer{}), WithDelay(time.Hour), WithRecorder(rec))

	sum, err := d.Run(ctx, Selection{Category: phantommail.Random, Count: 5, Recipients: recipients})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, sum)
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, 1, sum.Success)
	assert.Len(t, rec.ids, 1)
}

func TestRun_CancelDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := New(&fakeRunner{}, WithOutput(&bytes.Buffer{}), WithDelay(time.Hour))
	time.AfterFunc(20*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() {
		_, err := d.Run(ctx, Selection{Category: phantommail.Question, Count: 2, Recipients: recipients})
		done <- err
	}()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("batch did not stop")
	}
}

func TestRun_RecorderErrorIgnored(t *testing.T) {
	rec := &memRecorder{err: errors.New("disk full")}
	d := New(&fakeRunner{}, WithOutput(&bytes.Buffer{}), WithDelay(0), WithRecorder(rec))
	sum, err := d.Run(context.Background(), Selection{Category: phantommail.Complaint, Count: 1, Recipients: recipients})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Success)
}

func TestSelection(t *testing.T) {
	sel, err := ParseSelection("all_random", 2, recipients)
	require.NoError(t, err)
	assert.True(t, sel.AllRandom)
	assert.Equal(t, "all_random", sel.Label())

	sel, err = ParseSelection(" Price_Request ", 1, recipients)
	require.NoError(t, err)
	assert.Equal(t, phantommail.PriceRequest, sel.Category)
	assert.Equal(t, "price_request", sel.Label())

	_, err = ParseSelection("newsletter", 1, recipients)
	assert.EqualError(t, err, `unknown email type "newsletter"`)

	_, err = ParseSelection("order", 0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count must be positive")
	assert.Contains(t, err.Error(), "at least one recipient")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, &Summary{
		Total: 2, Success: 1, Failed: 1,
		Errors: []RunFailure{{Index: 2, Category: phantommail.Declaration, Err: errors.New("render failed")}},
		Usage:  llm.Usage{InputTokens: 1200, OutputTokens: 300},
		Cost:   0.0045,
	})

	want := `
==================================================
SUMMARY
==================================================
Total: 2 | Success: 1 | Failed: 1
Tokens: 1200 in / 300 out | Estimated cost: $0.0045

Errors:
  - Email 2 (declaration): render failed
==================================================
`
	assert.Equal(t, want, buf.String())
}
