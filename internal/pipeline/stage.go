package pipeline

import "context"

// StageStatus is the reported status of one stage within a run.
type StageStatus string

const (
	StatusStarted   StageStatus = "started"
	StatusSucceeded StageStatus = "succeeded"
	StatusPartial   StageStatus = "partial"
	StatusFailed    StageStatus = "failed"
	StatusSkipped   StageStatus = "skipped"
)

// OutcomeKind tags a stage result. The runner's handling policy is a pure
// function of this tag; it never inspects failure internals.
type OutcomeKind int

const (
	// OutcomeSuccess merges the update and marks the stage completed.
	OutcomeSuccess OutcomeKind = iota
	// OutcomePartial merges the update, records the errors, and still
	// marks the stage completed.
	OutcomePartial
	// OutcomeFatal merges nothing and halts the pipeline.
	OutcomeFatal
)

// Outcome is the tri-state result every stage returns.
type Outcome struct {
	kind   OutcomeKind
	update Update
	errs   []StageError
}

// Succeed returns a success outcome carrying the stage's update.
func Succeed(u Update) Outcome {
	return Outcome{kind: OutcomeSuccess, update: u}
}

// Degrade returns a partial-failure outcome: the produced output is still
// merged, but the errors are recorded in the run's error log.
func Degrade(u Update, errs ...StageError) Outcome {
	return Outcome{kind: OutcomePartial, update: u, errs: errs}
}

// Abort returns a fatal outcome that halts the pipeline. All errors are
// recorded so the log reflects the full failure, not just the first one.
func Abort(errs ...StageError) Outcome {
	return Outcome{kind: OutcomeFatal, errs: errs}
}

// Kind returns the outcome tag.
func (o Outcome) Kind() OutcomeKind { return o.kind }

// Errs returns the errors carried by a partial or fatal outcome.
func (o Outcome) Errs() []StageError { return o.errs }

// Stage is one unit of the documentation pipeline. Implementations are
// independent variants; new stages are added by implementing this
// interface and inserting into the static plan, not by embedding.
type Stage interface {
	// Name returns the stage identifier used in events and error records.
	Name() string

	// Produces declares the State fields this stage owns. Declarations
	// are checked against the ownership table when the runner is built.
	Produces() []Field

	// Precondition reports whether the stage can run against the current
	// state. A non-nil error skips the stage (recorded as skipped, not
	// failed) with the error text as the reason.
	Precondition(s *State) error

	// Run executes the stage. Implementations must observe ctx at their
	// suspension points and classify their own failures as partial or
	// fatal via the returned outcome.
	Run(ctx context.Context, s *State) Outcome
}
