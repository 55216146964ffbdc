package delivery

import (
	"context"
	"log/slog"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/internal/retry"
)

type retryingSender struct {
	next   Sender
	cfg    retry.Config
	logger *slog.Logger
}

// WithRetry wraps s so transient transport failures (SMTP 4xx replies,
// throttling, network timeouts) are retried with backoff. Permanent
// failures return at once.
func WithRetry(s Sender, cfg retry.Config, logger *slog.Logger) Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &retryingSender{next: s, cfg: cfg, logger: logger.With("component", "delivery", "transport", s.Name())}
}

func (r *retryingSender) Name() string { return r.next.Name() }

func (r *retryingSender) Send(ctx context.Context, msg *phantommail.FinalMessage) error {
	events := make(chan retry.Event, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		var last error
		for ev := range events {
			switch ev.Type {
			case retry.EventAttemptFailed:
				last = ev.Error
			case retry.EventRetrying:
				r.logger.Warn("retrying delivery", "attempt", ev.Attempt, "delay", ev.Delay, "error", last)
			}
		}
	}()

	_, err := retry.DoWithEvents(ctx, r.cfg, events, func() (struct{}, error) {
		return struct{}{}, r.next.Send(ctx, msg)
	})
	close(events)
	<-done
	return err
}
