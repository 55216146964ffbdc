package client

import (
	"log/slog"
	"time"

	"github.com/spetersoncode/phantommail/internal/retry"
	"github.com/spetersoncode/phantommail/llm"
)

// EventType identifies the kind of event occurring during client operations.
type EventType string

const (
	EventRequestStart    EventType = "request_start"
	EventRequestComplete EventType = "request_complete"
	EventRequestError    EventType = "request_error"

	// EventRetry wraps an event from the retry loop.
	EventRetry EventType = "retry"
)

// Event represents an observable occurrence during client operations.
type Event struct {
	Type      EventType
	Operation string
	Provider  llm.Provider
	Model     string

	// Duration is the elapsed time for completed or failed requests.
	Duration time.Duration

	// Usage is set on EventRequestComplete.
	Usage *llm.Usage

	// Error is set on EventRequestError.
	Error error

	// RetryEvent is set on EventRetry.
	RetryEvent *retry.Event

	Timestamp time.Time
}

func (e Event) with(t EventType) Event {
	e.Type = t
	return e
}

func emit(ch chan<- Event, event Event) {
	if ch == nil {
		return
	}
	event.Timestamp = time.Now()
	select {
	case ch <- event:
	default:
	}
}

// LogEvents writes events to logger until the channel is closed. Retry
// failures log at Warn, request failures at Error, everything else at Debug.
func LogEvents(logger *slog.Logger, events <-chan Event) {
	for ev := range events {
		attrs := []any{"provider", ev.Provider, "model", ev.Model}
		switch ev.Type {
		case EventRequestComplete:
			attrs = append(attrs, "duration", ev.Duration)
			if ev.Usage != nil {
				attrs = append(attrs, "input_tokens", ev.Usage.InputTokens, "output_tokens", ev.Usage.OutputTokens)
			}
			logger.Debug("model request complete", attrs...)
		case EventRequestError:
			logger.Error("model request failed", append(attrs, "duration", ev.Duration, "error", ev.Error)...)
		case EventRetry:
			re := ev.RetryEvent
			if re == nil || re.Type != retry.EventRetrying {
				continue
			}
			logger.Warn("retrying model request", append(attrs, "attempt", re.Attempt, "max_attempts", re.MaxAttempts, "delay", re.Delay)...)
		default:
			logger.Debug("model request started", attrs...)
		}
	}
}
