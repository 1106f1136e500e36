package stages

import (
	"context"
	"errors"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/fyrsmithlabs/autodoc/internal/pipeline"
	"github.com/fyrsmithlabs/autodoc/pkg/llm"
)

// DocstringStage rewrites each symbol's docstring with the module summary
// as context. A symbol whose enhancement fails keeps its original
// docstring; the stage is fatal only when every symbol fails, which
// indicates the LLM service itself is down.
type DocstringStage struct {
	llm         Enhancer
	concurrency int
}

// NewDocstringStage creates the docstring enhancement stage.
func NewDocstringStage(llm Enhancer, concurrency int) *DocstringStage {
	if concurrency < 1 {
		concurrency = 1
	}
	return &DocstringStage{llm: llm, concurrency: concurrency}
}

func (s *DocstringStage) Name() string { return pipeline.StageDocstrings }

func (s *DocstringStage) Produces() []pipeline.Field {
	return []pipeline.Field{pipeline.FieldEnhancedDocstrings}
}

func (s *DocstringStage) Precondition(st *pipeline.State) error {
	if !st.Completed(pipeline.StageSummarize) {
		return errors.New("modules not summarized")
	}
	return nil
}

func (s *DocstringStage) Run(ctx context.Context, st *pipeline.State) pipeline.Outcome {
	enhanced := make(map[string]string)
	var (
		mu        sync.Mutex
		stageErrs []pipeline.StageError
	)

	p := pool.New().WithMaxGoroutines(s.concurrency)
	var total int
	for _, mod := range st.ParsedModules {
		summary := st.Summaries[mod.Name]
		for _, sym := range mod.Symbols() {
			total++
			sym := sym
			lang := mod.Language
			p.Go(func() {
				if ctx.Err() != nil {
					return
				}
				doc, err := s.llm.EnhanceDocstring(ctx, llm.Snippet{
					ID:        sym.ID,
					Name:      sym.Name,
					Kind:      string(sym.Kind),
					Language:  lang,
					Code:      sym.Code,
					Docstring: sym.Docstring,
				}, summary)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					stageErrs = append(stageErrs, classifyLLMError(s.Name(), err))
					return
				}
				if doc != "" {
					enhanced[sym.ID] = doc
				}
			})
		}
	}
	p.Wait()

	if ctx.Err() != nil {
		return pipeline.Abort(pipeline.NewStageError(s.Name(), pipeline.ErrorInternal, ctx.Err()))
	}
	if total > 0 && len(stageErrs) == total {
		return pipeline.Abort(stageErrs...)
	}
	if len(stageErrs) > 0 {
		return pipeline.Degrade(pipeline.Update{EnhancedDocstrings: enhanced}, stageErrs...)
	}
	return pipeline.Succeed(pipeline.Update{EnhancedDocstrings: enhanced})
}
