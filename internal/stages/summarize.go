package stages

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/fyrsmithlabs/autodoc/internal/codeparse"
	"github.com/fyrsmithlabs/autodoc/internal/pipeline"
	"github.com/fyrsmithlabs/autodoc/pkg/llm"
)

// placeholderSummary fills in for modules whose summarization failed so
// the generated site never has an empty page.
const placeholderSummary = "_Documentation for this module could not be generated._"

// snippetCodeLimit caps how much source is sent per summarization prompt.
const snippetCodeLimit = 8000

// SummarizeStage generates one summary per module. Modules are processed
// with bounded parallelism; a failed module gets a placeholder summary
// and a recorded error. The stage is fatal only when every module fails,
// which indicates the LLM service itself is down.
type SummarizeStage struct {
	llm         Summarizer
	concurrency int
}

// NewSummarizeStage creates the summarize stage.
func NewSummarizeStage(llm Summarizer, concurrency int) *SummarizeStage {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SummarizeStage{llm: llm, concurrency: concurrency}
}

func (s *SummarizeStage) Name() string { return pipeline.StageSummarize }

func (s *SummarizeStage) Produces() []pipeline.Field {
	return []pipeline.Field{pipeline.FieldSummaries}
}

func (s *SummarizeStage) Precondition(st *pipeline.State) error {
	if !st.Completed(pipeline.StageParse) {
		return errors.New("code not parsed")
	}
	if len(st.ParsedModules) == 0 {
		return errors.New("no modules to summarize")
	}
	return nil
}

func (s *SummarizeStage) Run(ctx context.Context, st *pipeline.State) pipeline.Outcome {
	summaries := make(map[string]string, len(st.ParsedModules))
	var (
		mu        sync.Mutex
		stageErrs []pipeline.StageError
	)

	p := pool.New().WithMaxGoroutines(s.concurrency)
	for _, mod := range st.ParsedModules {
		mod := mod
		p.Go(func() {
			if ctx.Err() != nil {
				return
			}
			summary, err := s.llm.Summarize(ctx, moduleSnippet(mod))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summaries[mod.Name] = placeholderSummary
				stageErrs = append(stageErrs, classifyLLMError(s.Name(), err))
				return
			}
			summaries[mod.Name] = summary
		})
	}
	p.Wait()

	if ctx.Err() != nil {
		return pipeline.Abort(pipeline.NewStageError(s.Name(), pipeline.ErrorInternal, ctx.Err()))
	}
	if len(stageErrs) == len(st.ParsedModules) {
		return pipeline.Abort(stageErrs...)
	}
	if len(stageErrs) > 0 {
		return pipeline.Degrade(pipeline.Update{Summaries: summaries}, stageErrs...)
	}
	return pipeline.Succeed(pipeline.Update{Summaries: summaries})
}

// moduleSnippet condenses a module into a prompt-sized snippet.
func moduleSnippet(mod codeparse.Module) llm.Snippet {
	var b strings.Builder
	for _, sym := range mod.Symbols() {
		if b.Len()+len(sym.Code) > snippetCodeLimit {
			break
		}
		b.WriteString(sym.Code)
		b.WriteString("\n\n")
	}
	return llm.Snippet{
		ID:        mod.Path,
		Name:      mod.Name,
		Kind:      "module",
		Language:  mod.Language,
		Code:      b.String(),
		Docstring: mod.Doc,
	}
}
