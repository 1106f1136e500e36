package stages

import (
	"context"
	"errors"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/fyrsmithlabs/autodoc/internal/pipeline"
)

// TranslateStage translates the overview and module summaries into every
// requested language beyond the default. A failed translation drops that
// document; the formatter falls back to the default-language text.
type TranslateStage struct {
	translator  Translator
	concurrency int
}

// NewTranslateStage creates the translation stage.
func NewTranslateStage(translator Translator, concurrency int) *TranslateStage {
	if concurrency < 1 {
		concurrency = 1
	}
	return &TranslateStage{translator: translator, concurrency: concurrency}
}

func (s *TranslateStage) Name() string { return pipeline.StageTranslate }

func (s *TranslateStage) Produces() []pipeline.Field {
	return []pipeline.Field{pipeline.FieldTranslations}
}

func (s *TranslateStage) Precondition(st *pipeline.State) error {
	if !st.Completed(pipeline.StageSummarize) {
		return errors.New("modules not summarized")
	}
	if len(st.Languages) < 2 {
		return errors.New("no additional output languages")
	}
	return nil
}

func (s *TranslateStage) Run(ctx context.Context, st *pipeline.State) pipeline.Outcome {
	// One job per (language, document) pair. Document keys mirror what
	// the formatter looks up: "overview" plus module names.
	type job struct {
		lang, key, text string
	}
	var jobs []job
	for _, lang := range st.Languages[1:] {
		if st.ArchitectureOverview != "" {
			jobs = append(jobs, job{lang, "overview", st.ArchitectureOverview})
		}
		for _, mod := range st.ParsedModules {
			if summary := st.Summaries[mod.Name]; summary != "" && summary != placeholderSummary {
				jobs = append(jobs, job{lang, mod.Name, summary})
			}
		}
	}

	translations := make(map[string]map[string]string, len(st.Languages)-1)
	var (
		mu        sync.Mutex
		stageErrs []pipeline.StageError
	)

	p := pool.New().WithMaxGoroutines(s.concurrency)
	for _, j := range jobs {
		j := j
		p.Go(func() {
			if ctx.Err() != nil {
				return
			}
			text, err := s.translator.Translate(ctx, j.text, j.lang)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stageErrs = append(stageErrs, classifyLLMError(s.Name(), err))
				return
			}
			if translations[j.lang] == nil {
				translations[j.lang] = make(map[string]string)
			}
			translations[j.lang][j.key] = text
		})
	}
	p.Wait()

	if ctx.Err() != nil {
		return pipeline.Abort(pipeline.NewStageError(s.Name(), pipeline.ErrorInternal, ctx.Err()))
	}
	if len(stageErrs) > 0 {
		return pipeline.Degrade(pipeline.Update{Translations: translations}, stageErrs...)
	}
	return pipeline.Succeed(pipeline.Update{Translations: translations})
}
