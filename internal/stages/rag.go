package stages

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/autodoc/internal/pipeline"
	"github.com/fyrsmithlabs/autodoc/pkg/vectorstore"
)

// overviewQuestion drives the retrieval-augmented architecture overview.
const overviewQuestion = "Describe the overall architecture of this project: its main components, how they interact, and the key design decisions."

// retrievalK bounds how many summary chunks feed the overview prompt.
const retrievalK = 8

// RAGStage indexes module summaries into the per-run vector collection
// and asks the LLM for an architecture overview grounded on the most
// relevant ones. The overview is optional: any failure degrades the run
// and the site is built without it.
type RAGStage struct {
	index    KnowledgeIndex
	answerer Answerer
}

// NewRAGStage creates the architecture overview stage.
func NewRAGStage(index KnowledgeIndex, answerer Answerer) *RAGStage {
	return &RAGStage{index: index, answerer: answerer}
}

func (s *RAGStage) Name() string { return pipeline.StageRAG }

func (s *RAGStage) Produces() []pipeline.Field {
	return []pipeline.Field{pipeline.FieldArchitectureOverview}
}

func (s *RAGStage) Precondition(st *pipeline.State) error {
	if !st.Completed(pipeline.StageSummarize) {
		return errors.New("modules not summarized")
	}
	if len(st.Summaries) == 0 {
		return errors.New("no summaries to index")
	}
	return nil
}

func (s *RAGStage) Run(ctx context.Context, st *pipeline.State) pipeline.Outcome {
	docs := make([]vectorstore.Document, 0, len(st.ParsedModules))
	for _, mod := range st.ParsedModules {
		summary := st.Summaries[mod.Name]
		if summary == "" || summary == placeholderSummary {
			continue
		}
		docs = append(docs, vectorstore.Document{
			ID:      mod.Path,
			Content: fmt.Sprintf("Module %s (%s): %s", mod.Name, mod.Path, summary),
			Metadata: map[string]any{
				"module":   mod.Name,
				"language": mod.Language,
			},
		})
	}
	if len(docs) == 0 {
		return pipeline.Degrade(pipeline.Update{},
			pipeline.StageError{Stage: s.Name(), Kind: pipeline.ErrorInternal, Message: "no usable summaries to index"})
	}

	if err := s.index.AddDocuments(ctx, docs); err != nil {
		return s.degrade(ctx, fmt.Errorf("indexing summaries: %w", err))
	}

	results, err := s.index.Search(ctx, overviewQuestion, retrievalK)
	if err != nil {
		return s.degrade(ctx, fmt.Errorf("retrieving context: %w", err))
	}

	chunks := make([]string, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, r.Content)
	}

	overview, err := s.answerer.Answer(ctx, overviewQuestion, chunks)
	if err != nil {
		if ctx.Err() != nil {
			return pipeline.Abort(pipeline.NewStageError(s.Name(), pipeline.ErrorInternal, ctx.Err()))
		}
		return pipeline.Degrade(pipeline.Update{}, classifyLLMError(s.Name(), err))
	}

	return pipeline.Succeed(pipeline.Update{ArchitectureOverview: overview})
}

func (s *RAGStage) degrade(ctx context.Context, err error) pipeline.Outcome {
	if ctx.Err() != nil {
		return pipeline.Abort(pipeline.NewStageError(s.Name(), pipeline.ErrorInternal, ctx.Err()))
	}
	return pipeline.Degrade(pipeline.Update{},
		pipeline.NewStageError(s.Name(), pipeline.ErrorServiceUnavailable, err))
}
