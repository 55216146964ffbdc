// Package workflow runs typed, value-state pipelines.
//
// A Step[S] receives the prior state by value and returns the next one, so a
// step cannot reach back into state owned by an earlier step or another run.
// Steps compose:
//
//   - Chain runs steps in order, stopping at the first error or cancellation.
//   - Router picks exactly one step from a key derived from the state. Its
//     route table is checked against the required keys when it is built.
//
// A Workflow wraps a root step and reports how the run terminated and the
// path of steps it took:
//
//	router, err := workflow.NewRouter("dispatch", keyOf, routes, required...)
//	if err != nil {
//	    return err
//	}
//	wf := workflow.New[State]("email", workflow.NewChain[State]("run", router, send))
//	result, err := wf.Run(ctx, state, workflow.WithLogger(logger))
//	fmt.Println(result.Termination, result.Path)
//
// # Events
//
// Pass WithEvents to observe step and route transitions. Sends never block;
// a full channel drops the event.
package workflow
