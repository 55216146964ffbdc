package engine

import (
	"context"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/branch"
	"github.com/spetersoncode/phantommail/llm"
	"github.com/spetersoncode/phantommail/workflow"
)

// GenerateStep runs g and merges its output into the state. On failure the
// state is returned unchanged. A non-nil usage accumulates the model's
// token usage.
func GenerateStep(g branch.Generator, usage *llm.Usage) workflow.Step[phantommail.RunState] {
	return workflow.NewFuncStep("generate_"+g.Category().String(), func(ctx context.Context, s phantommail.RunState) (phantommail.RunState, error) {
		content, err := g.Generate(ctx, s)
		if usage != nil {
			*usage = usage.Add(content.Usage)
		}
		if err != nil {
			return s, err
		}
		return s.Merge(content), nil
	})
}
