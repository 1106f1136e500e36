// Package stages implements the documentation pipeline stages.
//
// Each stage wraps one collaborator service behind a narrow interface and
// adapts its results to the pipeline's outcome model: succeed, degrade
// with recorded errors, or abort the run.
package stages

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/autodoc/internal/codeparse"
	"github.com/fyrsmithlabs/autodoc/internal/docsite"
	"github.com/fyrsmithlabs/autodoc/internal/gitrepo"
	"github.com/fyrsmithlabs/autodoc/internal/pipeline"
	"github.com/fyrsmithlabs/autodoc/pkg/llm"
	"github.com/fyrsmithlabs/autodoc/pkg/vectorstore"
)

// Cloner clones a repository and collects its metadata.
type Cloner interface {
	Clone(ctx context.Context, url, branch, pat string) (*gitrepo.CloneResult, error)
}

// Parser extracts modules and symbols from a source tree.
type Parser interface {
	Parse(ctx context.Context, root string) ([]codeparse.Module, []codeparse.FileError, error)
}

// Summarizer generates a module summary.
type Summarizer interface {
	Summarize(ctx context.Context, sn llm.Snippet) (string, error)
}

// Enhancer rewrites a symbol's docstring.
type Enhancer interface {
	EnhanceDocstring(ctx context.Context, sn llm.Snippet, summary string) (string, error)
}

// Translator translates documentation text into a target language.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// Answerer answers a question over retrieved context chunks.
type Answerer interface {
	Answer(ctx context.Context, question string, contextChunks []string) (string, error)
}

// KnowledgeIndex is the per-run vector index backing the RAG stage.
type KnowledgeIndex interface {
	AddDocuments(ctx context.Context, docs []vectorstore.Document) error
	Search(ctx context.Context, query string, k int) ([]vectorstore.SearchResult, error)
}

// DiagramGenerator renders Mermaid sources from parsed modules.
type DiagramGenerator interface {
	Generate(ctx context.Context, modules []codeparse.Module) (map[string]string, []error)
}

// Formatter renders the documentation site tree.
type Formatter interface {
	Format(ctx context.Context, outputDir string, in docsite.Input) (map[string]string, []error, error)
}

// SiteBuilder builds the static site from the rendered tree.
type SiteBuilder interface {
	Build(ctx context.Context, siteDir string) (string, error)
}

// classifyLLMError maps an LLM client failure to a stage error.
func classifyLLMError(stage string, err error) pipeline.StageError {
	switch {
	case errors.Is(err, llm.ErrRateLimited):
		return pipeline.NewStageError(stage, pipeline.ErrorRateLimited, err)
	case errors.Is(err, llm.ErrServiceUnavailable):
		return pipeline.NewStageError(stage, pipeline.ErrorServiceUnavailable, err)
	default:
		return pipeline.NewStageError(stage, pipeline.ErrorInternal, err)
	}
}
