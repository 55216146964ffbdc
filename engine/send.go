package engine

import (
	"context"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/delivery"
	"github.com/spetersoncode/phantommail/workflow"
)

// SendStep assembles the final message and hands it to sender. It panics
// when the state has no subject or body, and wraps transport failures in
// *phantommail.DeliveryError. The returned state is the input state in
// every case.
func SendStep(cfg phantommail.RunConfig, sender delivery.Sender) workflow.Step[phantommail.RunState] {
	return workflow.NewFuncStep("send", func(ctx context.Context, s phantommail.RunState) (phantommail.RunState, error) {
		msg := phantommail.NewFinalMessage(cfg, s)
		if err := sender.Send(ctx, msg); err != nil {
			return s, &phantommail.DeliveryError{Transport: sender.Name(), Err: err}
		}
		return s, nil
	})
}
