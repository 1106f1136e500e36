package stages

import (
	"github.com/fyrsmithlabs/autodoc/internal/config"
	"github.com/fyrsmithlabs/autodoc/internal/pipeline"
)

// Services bundles the collaborators the stages are built from.
type Services struct {
	Cloner     Cloner
	PAT        config.Secret
	Parser     Parser
	Summarizer Summarizer
	Enhancer   Enhancer
	Translator Translator
	Answerer   Answerer
	Index      KnowledgeIndex
	Diagrams   DiagramGenerator
	Formatter  Formatter
	Builder    SiteBuilder

	// ElementConcurrency bounds per-element parallelism inside the
	// summarize, docstring and translate stages.
	ElementConcurrency int
}

// NewPlan assembles the fixed pipeline topology: a serial head, one
// fork running the overview and diagram stages concurrently, and a
// serial tail.
func NewPlan(svc Services) pipeline.Plan {
	return pipeline.Plan{
		Head: []pipeline.Stage{
			NewCloneStage(svc.Cloner, svc.PAT),
			NewParseStage(svc.Parser),
			NewSummarizeStage(svc.Summarizer, svc.ElementConcurrency),
			NewDocstringStage(svc.Enhancer, svc.ElementConcurrency),
		},
		Fork: []pipeline.Stage{
			NewRAGStage(svc.Index, svc.Answerer),
			NewDiagramStage(svc.Diagrams),
		},
		Tail: []pipeline.Stage{
			NewTranslateStage(svc.Translator, svc.ElementConcurrency),
			NewFormatStage(svc.Formatter),
			NewBuildStage(svc.Builder),
		},
	}
}
