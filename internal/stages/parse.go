package stages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/autodoc/internal/codeparse"
	"github.com/fyrsmithlabs/autodoc/internal/pipeline"
)

// ParseStage extracts modules and symbols from the cloned tree.
//
// A repository with no recognizable source files is not a failure: the
// stage succeeds with an empty module list and downstream stages skip
// themselves. Unreadable individual files degrade the stage.
type ParseStage struct {
	parser Parser
}

// NewParseStage creates the parse stage.
func NewParseStage(parser Parser) *ParseStage {
	return &ParseStage{parser: parser}
}

func (s *ParseStage) Name() string { return pipeline.StageParse }

func (s *ParseStage) Produces() []pipeline.Field {
	return []pipeline.Field{pipeline.FieldParsedModules}
}

func (s *ParseStage) Precondition(st *pipeline.State) error {
	if st.LocalPath == "" {
		return errors.New("repository not cloned")
	}
	return nil
}

func (s *ParseStage) Run(ctx context.Context, st *pipeline.State) pipeline.Outcome {
	modules, fileErrs, err := s.parser.Parse(ctx, st.LocalPath)
	if err != nil {
		if errors.Is(err, codeparse.ErrNoSources) {
			return pipeline.Succeed(pipeline.Update{
				ParsedModules: []codeparse.Module{},
				Notes: []pipeline.StageNote{{
					Stage:   s.Name(),
					Level:   pipeline.NoteWarning,
					Message: "no recognizable source files found",
					Time:    time.Now(),
				}},
			})
		}
		if ctx.Err() != nil {
			return pipeline.Abort(pipeline.NewStageError(s.Name(), pipeline.ErrorInternal, ctx.Err()))
		}
		return pipeline.Abort(pipeline.NewStageError(s.Name(), pipeline.ErrorParse, err))
	}

	update := pipeline.Update{ParsedModules: modules}
	if len(fileErrs) == 0 {
		return pipeline.Succeed(update)
	}

	stageErrs := make([]pipeline.StageError, 0, len(fileErrs))
	for _, fe := range fileErrs {
		stageErrs = append(stageErrs, pipeline.StageError{
			Stage:   s.Name(),
			Kind:    pipeline.ErrorParse,
			Message: fmt.Sprintf("%s: %v", fe.Path, fe.Err),
		})
	}
	return pipeline.Degrade(update, stageErrs...)
}
