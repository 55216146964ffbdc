package retry

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/spetersoncode/phantommail/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTransientError simulates a transient network error.
type mockTransientError struct {
	msg string
}

func (e *mockTransientError) Error() string   { return e.msg }
func (e *mockTransientError) Timeout() bool   { return true }
func (e *mockTransientError) Temporary() bool { return true }

var _ net.Error = (*mockTransientError)(nil)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDoSuccess(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), DefaultConfig(), func() (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientError(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastConfig(3), func() (string, error) {
		calls++
		if calls < 3 {
			return "", &mockTransientError{msg: "timeout"}
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := llm.NewPermanentError("unauthorized", 401, nil)

	_, err := Do(context.Background(), fastConfig(5), func() (int, error) {
		calls++
		return 0, permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	transient := &mockTransientError{msg: "timeout"}

	_, err := Do(context.Background(), fastConfig(4), func() (int, error) {
		calls++
		return 0, transient
	})

	assert.Equal(t, transient, err)
	assert.Equal(t, 4, calls)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 5, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 1}

	calls := 0
	_, err := Do(ctx, cfg, func() (int, error) {
		calls++
		cancel()
		return 0, &mockTransientError{msg: "timeout"}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Config{}, func() (int, error) {
		calls++
		return 0, errors.New("x")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoWithEvents(t *testing.T) {
	events := make(chan Event, 16)
	calls := 0

	_, err := DoWithEvents(context.Background(), fastConfig(2), events, func() (int, error) {
		calls++
		return 0, &mockTransientError{msg: "timeout"}
	})
	close(events)
	require.Error(t, err)

	var types []EventType
	for e := range events {
		assert.False(t, e.Timestamp.IsZero())
		types = append(types, e.Type)
	}
	assert.Equal(t, []EventType{
		EventAttemptStart, EventAttemptFailed, EventRetrying,
		EventAttemptStart, EventAttemptFailed,
		EventExhausted,
	}, types)
}

func TestDoWithEventsDropsWhenFull(t *testing.T) {
	events := make(chan Event)
	result, err := DoWithEvents(context.Background(), fastConfig(1), events, func() (int, error) {
		return 7, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 7, result)
}

func TestEffectiveDelay(t *testing.T) {
	tests := []struct {
		name       string
		configured time.Duration
		err        error
		expected   time.Duration
	}{
		{"server delay larger", 10 * time.Millisecond, llm.NewTransientErrorWithRetry("rl", 429, time.Second, nil), time.Second},
		{"configured delay larger", time.Second, llm.NewTransientErrorWithRetry("rl", 429, time.Millisecond, nil), time.Second},
		{"no retry-after", time.Second, llm.NewTransientError("5xx", 500, nil), time.Second},
		{"plain error", time.Second, errors.New("x"), time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, effectiveDelay(tt.configured, tt.err))
		})
	}
}
