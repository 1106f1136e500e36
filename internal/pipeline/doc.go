// Package pipeline provides the documentation pipeline core: the shared
// run state, the stage contract, and the runner that executes stages in a
// fixed order with one parallel fork.
//
// # Architecture
//
// A run executes nine stages:
//
//	repository-clone → code-parse → summarize → docstring-enhance →
//	{rag-query ∥ diagram-generate} → translate → format → build
//
// rag-query and diagram-generate both depend only on code-parse output, so
// they are launched together and joined before translate.
//
// # Key Components
//
// ## State
//
// State is the single record threaded through the run. Each top-level field
// has exactly one producer stage; stages return partial updates and the
// runner merges them serially, one stage result at a time. The error log is
// append-only.
//
// ## Stage
//
// A Stage declares its name, the fields it produces, a precondition on the
// current state, and a Run method returning one of three outcomes:
//
//   - Success: update is merged, stage recorded as completed
//   - Partial: update is merged, errors recorded, stage still completes
//   - Fatal: nothing is merged, the run halts
//
// A false precondition marks the stage skipped, which is not a failure.
//
// ## Runner
//
// The Runner owns the fixed stage plan, checks preconditions, applies
// per-stage timeouts, merges outcomes, emits progress events, and finalizes
// with a run status (succeeded, succeeded-with-warnings, failed, cancelled).
// Field ownership is validated once when the runner is constructed; a stage
// producing a field it does not own is rejected there, not at merge time.
//
// ## Reporter
//
// Reporter receives stage-transition events. Reporter panics are recovered
// and swallowed so a broken terminal can never affect the run outcome.
package pipeline
