package stages

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/autodoc/internal/pipeline"
)

// BuildStage compiles the formatted tree into a static site. A build
// failure is fatal: there is no deliverable without it.
type BuildStage struct {
	builder SiteBuilder
}

// NewBuildStage creates the site build stage.
func NewBuildStage(builder SiteBuilder) *BuildStage {
	return &BuildStage{builder: builder}
}

func (s *BuildStage) Name() string { return pipeline.StageBuild }

func (s *BuildStage) Produces() []pipeline.Field {
	return []pipeline.Field{pipeline.FieldBuildPath}
}

func (s *BuildStage) Precondition(st *pipeline.State) error {
	if !st.Completed(pipeline.StageFormat) {
		return errors.New("site not formatted")
	}
	if len(st.FormattedDocs) == 0 {
		return errors.New("no formatted documents")
	}
	return nil
}

func (s *BuildStage) Run(ctx context.Context, st *pipeline.State) pipeline.Outcome {
	buildPath, err := s.builder.Build(ctx, st.OutputDir)
	if err != nil {
		if ctx.Err() != nil {
			return pipeline.Abort(pipeline.NewStageError(s.Name(), pipeline.ErrorInternal, ctx.Err()))
		}
		return pipeline.Abort(pipeline.NewStageError(s.Name(), pipeline.ErrorBuild, err))
	}
	return pipeline.Succeed(pipeline.Update{BuildPath: buildPath})
}
