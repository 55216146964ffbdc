package retry

import (
	"context"
	"time"

	"github.com/spetersoncode/phantommail/llm"
)

// effectiveDelay honors the server's Retry-After when it exceeds the backoff.
func effectiveDelay(configured time.Duration, err error) time.Duration {
	if server := llm.RetryAfterOf(err); server > configured {
		return server
	}
	return configured
}

// Do executes fn until it succeeds, returns a non-transient error, or the
// attempts run out. Backoff waits stop early when ctx is done.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	return DoWithEvents(ctx, cfg, nil, fn)
}

// DoWithEvents is like Do but reports each attempt on events. Sends never
// block; a full channel drops the event. A nil channel disables reporting.
func DoWithEvents[T any](ctx context.Context, cfg Config, events chan<- Event, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := max(cfg.MaxAttempts, 1)
	for attempt := range attempts {
		ev := Event{Attempt: attempt + 1, MaxAttempts: attempts}
		emit(events, ev.with(EventAttemptStart))

		result, err := fn()
		if err == nil {
			emit(events, ev.with(EventSuccess))
			return result, nil
		}
		lastErr = err

		retryable := IsTransient(err)
		failed := ev.with(EventAttemptFailed)
		failed.Error, failed.Retryable = err, retryable
		emit(events, failed)
		if !retryable {
			return zero, err
		}

		if attempt == attempts-1 {
			break
		}
		delay := effectiveDelay(cfg.Delay(attempt), err)
		retrying := ev.with(EventRetrying)
		retrying.Delay = delay
		emit(events, retrying)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	emit(events, Event{Type: EventExhausted, Attempt: attempts, MaxAttempts: attempts, Error: lastErr})
	return zero, lastErr
}
