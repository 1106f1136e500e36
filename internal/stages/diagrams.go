package stages

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/autodoc/internal/pipeline"
)

// DiagramStage renders Mermaid diagrams from the parsed structure.
// Diagrams are decorative: failed renders are recorded and the run
// continues with whatever rendered.
type DiagramStage struct {
	gen DiagramGenerator
}

// NewDiagramStage creates the diagram generation stage.
func NewDiagramStage(gen DiagramGenerator) *DiagramStage {
	return &DiagramStage{gen: gen}
}

func (s *DiagramStage) Name() string { return pipeline.StageDiagrams }

func (s *DiagramStage) Produces() []pipeline.Field {
	return []pipeline.Field{pipeline.FieldDiagrams}
}

func (s *DiagramStage) Precondition(st *pipeline.State) error {
	if !st.Completed(pipeline.StageParse) {
		return errors.New("code not parsed")
	}
	if len(st.ParsedModules) == 0 {
		return errors.New("no modules to diagram")
	}
	return nil
}

func (s *DiagramStage) Run(ctx context.Context, st *pipeline.State) pipeline.Outcome {
	diagrams, errs := s.gen.Generate(ctx, st.ParsedModules)
	if ctx.Err() != nil {
		return pipeline.Abort(pipeline.NewStageError(s.Name(), pipeline.ErrorInternal, ctx.Err()))
	}

	update := pipeline.Update{Diagrams: diagrams}
	if len(errs) == 0 {
		return pipeline.Succeed(update)
	}

	stageErrs := make([]pipeline.StageError, 0, len(errs))
	for _, err := range errs {
		stageErrs = append(stageErrs, pipeline.NewStageError(s.Name(), pipeline.ErrorRender, err))
	}
	return pipeline.Degrade(update, stageErrs...)
}
