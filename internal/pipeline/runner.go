package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/autodoc/internal/logging"
)

// RunStatus is the terminal status of a pipeline run.
type RunStatus string

const (
	RunSucceeded             RunStatus = "succeeded"
	RunSucceededWithWarnings RunStatus = "succeeded-with-warnings"
	RunFailed                RunStatus = "failed"
	RunCancelled             RunStatus = "cancelled"
)

// Stats aggregates counts for the final run summary.
type Stats struct {
	FilesProcessed      int `json:"files_processed"`
	FunctionsDocumented int `json:"functions_documented"`
	ClassesDocumented   int `json:"classes_documented"`
	DiagramsGenerated   int `json:"diagrams_generated"`
}

// Summary describes a finished run for reporting and notification.
type Summary struct {
	RunID     string        `json:"run_id"`
	RepoURL   string        `json:"repo_url"`
	Status    RunStatus     `json:"status"`
	BuildPath string        `json:"build_path,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
	Stats     Stats         `json:"stats"`
	Errors    []StageError  `json:"errors,omitempty"`
}

// Notifier receives the final run summary. Calls are fire-and-forget:
// failures are logged by the implementation and never affect the run.
type Notifier interface {
	Notify(ctx context.Context, summary Summary)
}

// Plan is the static pipeline topology: an ordered head, one parallel
// fork joined before the tail, and an ordered tail.
type Plan struct {
	Head []Stage
	Fork []Stage
	Tail []Stage
}

func (p Plan) all() []Stage {
	stages := make([]Stage, 0, len(p.Head)+len(p.Fork)+len(p.Tail))
	stages = append(stages, p.Head...)
	stages = append(stages, p.Fork...)
	stages = append(stages, p.Tail...)
	return stages
}

// Option configures a Runner.
type Option func(*Runner)

// WithStageTimeout bounds each stage execution. A stage exceeding the
// timeout observes context cancellation and reports its own failure.
func WithStageTimeout(d time.Duration) Option {
	return func(r *Runner) { r.stageTimeout = d }
}

// WithNotifier sets the run-completion notifier.
func WithNotifier(n Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

// Runner executes the stage plan against one State per run, merging stage
// results serially and emitting progress events.
type Runner struct {
	plan         Plan
	reporter     Reporter
	notifier     Notifier
	log          *logging.Logger
	stageTimeout time.Duration
}

// NewRunner builds a runner and validates field ownership: every field a
// stage declares must be owned by that stage in the static ownership
// table, and no field may have two producers in the plan. Violations are
// composition errors, rejected here before anything runs.
func NewRunner(plan Plan, reporter Reporter, log *logging.Logger, opts ...Option) (*Runner, error) {
	if reporter == nil {
		reporter = SilentReporter{}
	}

	produced := make(map[Field]string)
	for _, st := range plan.all() {
		for _, f := range st.Produces() {
			owner, ok := owners[f]
			if !ok {
				return nil, fmt.Errorf("stage %q declares unknown field %q", st.Name(), f)
			}
			if owner != st.Name() {
				return nil, fmt.Errorf("stage %q declares field %q owned by %q", st.Name(), f, owner)
			}
			if prev, dup := produced[f]; dup {
				return nil, fmt.Errorf("field %q produced by both %q and %q", f, prev, st.Name())
			}
			produced[f] = st.Name()
		}
	}

	r := &Runner{
		plan:         plan,
		reporter:     reporter,
		log:          log.Named("pipeline"),
		stageTimeout: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// control is the runner's internal verdict after processing a stage.
type control int

const (
	proceed control = iota
	haltFatal
	haltCancelled
)

// Execute runs the pipeline and returns the final state regardless of
// whether the run fully succeeded. The state's error log and completed-
// stage set describe any degradation.
func (r *Runner) Execute(ctx context.Context, params RunParams) (*State, RunStatus) {
	state := NewState(params)
	start := time.Now()

	// Stamp the run ID so every log line below correlates to this run.
	ctx = logging.WithRunID(ctx, state.RunID)

	r.log.Info(ctx, "run started",
		zap.String("repo_url", state.RepoURL),
		zap.Strings("languages", state.Languages),
	)

	verdict := r.run(ctx, state)

	status := RunSucceeded
	switch verdict {
	case haltCancelled:
		status = RunCancelled
	case haltFatal:
		status = RunFailed
	default:
		if len(state.Errors) > 0 {
			status = RunSucceededWithWarnings
		}
	}

	summary := Summary{
		RunID:     state.RunID,
		RepoURL:   state.RepoURL,
		Status:    status,
		BuildPath: state.BuildPath,
		Elapsed:   time.Since(start),
		Stats:     collectStats(state),
		Errors:    state.Errors,
	}

	r.emit(func() { r.reporter.RunCompleted(summary) })

	if r.notifier != nil {
		// Notification must still go out when the run context is already
		// cancelled, so it gets its own bounded context.
		notifyCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		r.notifier.Notify(notifyCtx, summary)
	}

	r.log.Info(ctx, "run finished",
		zap.String("status", string(status)),
		zap.Duration("elapsed", summary.Elapsed),
		zap.Int("errors", len(state.Errors)),
	)

	return state, status
}

func (r *Runner) run(ctx context.Context, state *State) control {
	for _, st := range r.plan.Head {
		if v := r.runStage(ctx, st, state); v != proceed {
			return v
		}
	}

	if v := r.runFork(ctx, state); v != proceed {
		return v
	}

	for _, st := range r.plan.Tail {
		if v := r.runStage(ctx, st, state); v != proceed {
			return v
		}
	}
	return proceed
}

// runStage executes one stage: precondition check, timed run, serial merge.
func (r *Runner) runStage(ctx context.Context, st Stage, state *State) control {
	if ctx.Err() != nil {
		return haltCancelled
	}

	if reason := st.Precondition(state); reason != nil {
		r.skip(ctx, st, state, reason)
		return proceed
	}

	r.emit(func() { r.reporter.StageStarted(st.Name()) })
	started := time.Now()

	outcome := r.invoke(ctx, st, state)
	return r.absorb(ctx, st, state, outcome, time.Since(started))
}

// runFork launches the fork stages together and joins before continuing.
// Preconditions are checked up front on the pre-fork state (fork inputs
// are independent of each other), outcomes are merged in plan order after
// the join, so completion timing cannot influence the merged state.
func (r *Runner) runFork(ctx context.Context, state *State) control {
	if len(r.plan.Fork) == 0 {
		return proceed
	}
	if ctx.Err() != nil {
		return haltCancelled
	}

	type forkRun struct {
		stage   Stage
		skipped error
		outcome Outcome
		elapsed time.Duration
	}

	runs := make([]*forkRun, len(r.plan.Fork))
	for i, st := range r.plan.Fork {
		runs[i] = &forkRun{stage: st, skipped: st.Precondition(state)}
		if runs[i].skipped == nil {
			r.emit(func() { r.reporter.StageStarted(st.Name()) })
		}
	}

	var wg conc.WaitGroup
	for _, fr := range runs {
		if fr.skipped != nil {
			continue
		}
		fr := fr
		wg.Go(func() {
			started := time.Now()
			fr.outcome = r.invoke(ctx, fr.stage, state)
			fr.elapsed = time.Since(started)
		})
	}
	wg.Wait()

	verdict := proceed
	for _, fr := range runs {
		if fr.skipped != nil {
			r.skip(ctx, fr.stage, state, fr.skipped)
			continue
		}
		if v := r.absorb(ctx, fr.stage, state, fr.outcome, fr.elapsed); v != proceed {
			verdict = v
		}
	}
	return verdict
}

// invoke runs the stage under the per-stage timeout. Stages read state but
// never write it; all writes go through the serial merge in absorb.
func (r *Runner) invoke(ctx context.Context, st Stage, state *State) Outcome {
	stageCtx := logging.WithStage(ctx, st.Name())
	if r.stageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(stageCtx, r.stageTimeout)
		defer cancel()
	}
	return st.Run(stageCtx, state)
}

// absorb merges a stage outcome into the state and reports the result.
func (r *Runner) absorb(ctx context.Context, st Stage, state *State, outcome Outcome, elapsed time.Duration) control {
	name := st.Name()

	switch outcome.Kind() {
	case OutcomeSuccess:
		state.merge(name, outcome.update)
		state.CompletedStages[name] = true
		r.finish(ctx, name, StatusSucceeded, elapsed)
		return proceed

	case OutcomePartial:
		state.merge(name, outcome.update)
		state.recordErrors(outcome.Errs()...)
		state.CompletedStages[name] = true
		r.finish(ctx, name, StatusPartial, elapsed)
		return proceed

	default: // OutcomeFatal
		state.recordErrors(outcome.Errs()...)
		r.finish(ctx, name, StatusFailed, elapsed)
		if ctx.Err() != nil {
			return haltCancelled
		}
		return haltFatal
	}
}

func (r *Runner) skip(ctx context.Context, st Stage, state *State, reason error) {
	state.SkippedStages[st.Name()] = true
	state.Notes = append(state.Notes, StageNote{
		Stage:   st.Name(),
		Level:   NoteInfo,
		Message: fmt.Sprintf("skipped: %v", reason),
		Time:    time.Now(),
	})
	r.log.Info(ctx, "stage skipped",
		zap.String("stage", st.Name()),
		zap.String("reason", reason.Error()),
	)
	r.emit(func() { r.reporter.StageFinished(st.Name(), StatusSkipped, 0) })
}

func (r *Runner) finish(ctx context.Context, name string, status StageStatus, elapsed time.Duration) {
	r.log.Info(ctx, "stage finished",
		zap.String("stage", name),
		zap.String("status", string(status)),
		zap.Duration("elapsed", elapsed),
	)
	r.emit(func() { r.reporter.StageFinished(name, status, elapsed) })
}

// emit delivers a reporter event. A panicking reporter must never affect
// the pipeline outcome, so panics are recovered and logged.
func (r *Runner) emit(f func()) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Warn(context.Background(), "reporter panicked", zap.Any("panic", p))
		}
	}()
	f()
}

func collectStats(state *State) Stats {
	stats := Stats{
		FilesProcessed:    len(state.ParsedModules),
		DiagramsGenerated: len(state.Diagrams),
	}
	for _, m := range state.ParsedModules {
		stats.FunctionsDocumented += len(m.Functions)
		stats.ClassesDocumented += len(m.Classes)
	}
	return stats
}
