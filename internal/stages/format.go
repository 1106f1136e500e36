package stages

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/autodoc/internal/docsite"
	"github.com/fyrsmithlabs/autodoc/internal/pipeline"
)

// FormatStage renders the Docusaurus tree from all accumulated artifacts.
// It requires summaries and waits for translation to have either completed
// or been skipped, so it never races a pending language.
type FormatStage struct {
	formatter Formatter
}

// NewFormatStage creates the site formatting stage.
func NewFormatStage(formatter Formatter) *FormatStage {
	return &FormatStage{formatter: formatter}
}

func (s *FormatStage) Name() string { return pipeline.StageFormat }

func (s *FormatStage) Produces() []pipeline.Field {
	return []pipeline.Field{pipeline.FieldFormattedDocs}
}

func (s *FormatStage) Precondition(st *pipeline.State) error {
	if !st.Completed(pipeline.StageSummarize) {
		return errors.New("modules not summarized")
	}
	if !st.Completed(pipeline.StageTranslate) && !st.Skipped(pipeline.StageTranslate) {
		return errors.New("translation neither completed nor skipped")
	}
	return nil
}

func (s *FormatStage) Run(ctx context.Context, st *pipeline.State) pipeline.Outcome {
	docs, writeErrs, err := s.formatter.Format(ctx, st.OutputDir, docsite.Input{
		Meta:         st.RepoMetadata,
		Modules:      st.ParsedModules,
		Summaries:    st.Summaries,
		Docstrings:   st.EnhancedDocstrings,
		Overview:     st.ArchitectureOverview,
		Diagrams:     st.Diagrams,
		Translations: st.Translations,
		Languages:    st.Languages,
	})
	if err != nil {
		return pipeline.Abort(pipeline.NewStageError(s.Name(), pipeline.ErrorRender, err))
	}

	update := pipeline.Update{FormattedDocs: docs}
	if len(writeErrs) == 0 {
		return pipeline.Succeed(update)
	}

	stageErrs := make([]pipeline.StageError, 0, len(writeErrs))
	for _, werr := range writeErrs {
		stageErrs = append(stageErrs, pipeline.NewStageError(s.Name(), pipeline.ErrorRender, werr))
	}
	return pipeline.Degrade(update, stageErrs...)
}
