// Package phantommail holds the domain types shared by every stage of a
// fake-email run: the category labels, the per-run state threaded through
// the workflow, the final message handed to delivery, and the error kinds
// a run can terminate with.
//
// The pieces that do the work live in subpackages:
//
//   - branch: one generator per category (fake data, prompt, model call, PDF)
//   - engine: dispatch, generate and send assembled into a workflow
//   - batch: repeated runs with pacing and a summary
//   - delivery: transports for the finished message
//   - render: HTML to PDF conversion
package phantommail
