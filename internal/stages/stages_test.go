package stages

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/autodoc/internal/codeparse"
	"github.com/fyrsmithlabs/autodoc/internal/docsite"
	"github.com/fyrsmithlabs/autodoc/internal/gitrepo"
	"github.com/fyrsmithlabs/autodoc/internal/pipeline"
	"github.com/fyrsmithlabs/autodoc/pkg/llm"
	"github.com/fyrsmithlabs/autodoc/pkg/vectorstore"
)

// Function-backed fakes for the collaborator interfaces.

type fakeCloner func(ctx context.Context, url, branch, pat string) (*gitrepo.CloneResult, error)

func (f fakeCloner) Clone(ctx context.Context, url, branch, pat string) (*gitrepo.CloneResult, error) {
	return f(ctx, url, branch, pat)
}

type fakeParser func(ctx context.Context, root string) ([]codeparse.Module, []codeparse.FileError, error)

func (f fakeParser) Parse(ctx context.Context, root string) ([]codeparse.Module, []codeparse.FileError, error) {
	return f(ctx, root)
}

type fakeLLM struct {
	summarize func(llm.Snippet) (string, error)
	enhance   func(llm.Snippet, string) (string, error)
	translate func(text, lang string) (string, error)
	answer    func(question string, chunks []string) (string, error)
}

func (f *fakeLLM) Summarize(_ context.Context, sn llm.Snippet) (string, error) {
	return f.summarize(sn)
}

func (f *fakeLLM) EnhanceDocstring(_ context.Context, sn llm.Snippet, summary string) (string, error) {
	return f.enhance(sn, summary)
}

func (f *fakeLLM) Translate(_ context.Context, text, lang string) (string, error) {
	return f.translate(text, lang)
}

func (f *fakeLLM) Answer(_ context.Context, question string, chunks []string) (string, error) {
	return f.answer(question, chunks)
}

type fakeIndex struct {
	addErr    error
	searchErr error
	added     []vectorstore.Document
	results   []vectorstore.SearchResult
}

func (f *fakeIndex) AddDocuments(_ context.Context, docs []vectorstore.Document) error {
	f.added = append(f.added, docs...)
	return f.addErr
}

func (f *fakeIndex) Search(_ context.Context, _ string, _ int) ([]vectorstore.SearchResult, error) {
	return f.results, f.searchErr
}

// parsedState returns a state as it looks after clone and parse.
func parsedState(modules ...codeparse.Module) *pipeline.State {
	st := pipeline.NewState(pipeline.RunParams{
		RepoURL:   "https://github.com/acme/widgets",
		OutputDir: "/tmp/site",
		Languages: []string{"en", "vi"},
	})
	st.LocalPath = "/tmp/repo"
	st.ParsedModules = modules
	st.CompletedStages[pipeline.StageClone] = true
	st.CompletedStages[pipeline.StageParse] = true
	return st
}

func summarizedState(modules ...codeparse.Module) *pipeline.State {
	st := parsedState(modules...)
	st.Summaries = make(map[string]string, len(modules))
	for _, mod := range modules {
		st.Summaries[mod.Name] = "summary of " + mod.Name
	}
	st.CompletedStages[pipeline.StageSummarize] = true
	return st
}

var coreModule = codeparse.Module{
	Name:     "core",
	Path:     "internal/core/core.go",
	Language: "Go",
	Functions: []codeparse.Symbol{
		{ID: "internal/core/core.go#Run", Name: "Run", Kind: codeparse.KindFunction, Code: "func Run() {}"},
	},
}

func TestCloneStage(t *testing.T) {
	t.Run("success merges path and metadata", func(t *testing.T) {
		stage := NewCloneStage(fakeCloner(func(_ context.Context, url, branch, pat string) (*gitrepo.CloneResult, error) {
			assert.Equal(t, "main", branch)
			assert.Equal(t, "token", pat)
			return &gitrepo.CloneResult{
				LocalPath: "/tmp/repo",
				Metadata:  &gitrepo.Metadata{Name: "widgets"},
			}, nil
		}), "token")

		st := pipeline.NewState(pipeline.RunParams{RepoURL: "https://x", Branch: "main"})
		require.NoError(t, stage.Precondition(st))

		out := stage.Run(context.Background(), st)
		assert.Equal(t, pipeline.OutcomeSuccess, out.Kind())
	})

	t.Run("missing optional metadata is partial", func(t *testing.T) {
		stage := NewCloneStage(fakeCloner(func(context.Context, string, string, string) (*gitrepo.CloneResult, error) {
			return &gitrepo.CloneResult{
				LocalPath: "/tmp/repo",
				Metadata:  &gitrepo.Metadata{Name: "widgets"},
				Warnings:  []string{"repository description unavailable", "language statistics unavailable"},
			}, nil
		}), "")

		out := stage.Run(context.Background(), pipeline.NewState(pipeline.RunParams{RepoURL: "https://x"}))
		assert.Equal(t, pipeline.OutcomePartial, out.Kind())
		require.Len(t, out.Errs(), 2)
		assert.Contains(t, out.Errs()[0].Error(), "repository description unavailable")
	})

	t.Run("auth failure is fatal with auth kind", func(t *testing.T) {
		stage := NewCloneStage(fakeCloner(func(context.Context, string, string, string) (*gitrepo.CloneResult, error) {
			return nil, gitrepo.ErrAuth
		}), "")

		out := stage.Run(context.Background(), pipeline.NewState(pipeline.RunParams{RepoURL: "https://x"}))
		assert.Equal(t, pipeline.OutcomeFatal, out.Kind())
		require.Len(t, out.Errs(), 1)
		assert.Equal(t, pipeline.ErrorAuth, out.Errs()[0].Kind)
	})

	t.Run("missing URL fails precondition", func(t *testing.T) {
		stage := NewCloneStage(nil, "")
		assert.Error(t, stage.Precondition(pipeline.NewState(pipeline.RunParams{})))
	})
}

func TestParseStage(t *testing.T) {
	t.Run("no sources succeeds empty with a note", func(t *testing.T) {
		stage := NewParseStage(fakeParser(func(context.Context, string) ([]codeparse.Module, []codeparse.FileError, error) {
			return nil, nil, codeparse.ErrNoSources
		}))

		out := stage.Run(context.Background(), parsedState())
		assert.Equal(t, pipeline.OutcomeSuccess, out.Kind())
	})

	t.Run("file errors degrade", func(t *testing.T) {
		stage := NewParseStage(fakeParser(func(context.Context, string) ([]codeparse.Module, []codeparse.FileError, error) {
			return []codeparse.Module{coreModule}, []codeparse.FileError{{Path: "bad.go", Err: errors.New("unreadable")}}, nil
		}))

		out := stage.Run(context.Background(), parsedState())
		assert.Equal(t, pipeline.OutcomePartial, out.Kind())
		require.Len(t, out.Errs(), 1)
		assert.Equal(t, pipeline.ErrorParse, out.Errs()[0].Kind)
	})

	t.Run("walk failure is fatal", func(t *testing.T) {
		stage := NewParseStage(fakeParser(func(context.Context, string) ([]codeparse.Module, []codeparse.FileError, error) {
			return nil, nil, errors.New("root vanished")
		}))

		out := stage.Run(context.Background(), parsedState())
		assert.Equal(t, pipeline.OutcomeFatal, out.Kind())
	})
}

func TestSummarizeStage(t *testing.T) {
	other := coreModule
	other.Name = "other"
	other.Path = "internal/other/other.go"

	t.Run("preconditions", func(t *testing.T) {
		stage := NewSummarizeStage(nil, 2)
		assert.Error(t, stage.Precondition(pipeline.NewState(pipeline.RunParams{})), "parse not completed")
		assert.Error(t, stage.Precondition(parsedState()), "no modules")
		assert.NoError(t, stage.Precondition(parsedState(coreModule)))
	})

	t.Run("all modules summarized", func(t *testing.T) {
		stage := NewSummarizeStage(&fakeLLM{summarize: func(sn llm.Snippet) (string, error) {
			return "summary of " + sn.Name, nil
		}}, 2)

		out := stage.Run(context.Background(), parsedState(coreModule, other))
		assert.Equal(t, pipeline.OutcomeSuccess, out.Kind())
	})

	t.Run("partial failure leaves placeholder", func(t *testing.T) {
		stage := NewSummarizeStage(&fakeLLM{summarize: func(sn llm.Snippet) (string, error) {
			if sn.Name == "other" {
				return "", llm.ErrRateLimited
			}
			return "ok", nil
		}}, 1)

		st := parsedState(coreModule, other)
		out := stage.Run(context.Background(), st)
		assert.Equal(t, pipeline.OutcomePartial, out.Kind())
		require.Len(t, out.Errs(), 1)
		assert.Equal(t, pipeline.ErrorRateLimited, out.Errs()[0].Kind)
	})

	t.Run("total failure is fatal", func(t *testing.T) {
		stage := NewSummarizeStage(&fakeLLM{summarize: func(llm.Snippet) (string, error) {
			return "", llm.ErrServiceUnavailable
		}}, 2)

		out := stage.Run(context.Background(), parsedState(coreModule, other))
		assert.Equal(t, pipeline.OutcomeFatal, out.Kind())
		require.Len(t, out.Errs(), 2, "every failed module is recorded")
		assert.Equal(t, pipeline.ErrorServiceUnavailable, out.Errs()[0].Kind)
	})
}

func TestDocstringStage(t *testing.T) {
	t.Run("enhances every symbol", func(t *testing.T) {
		stage := NewDocstringStage(&fakeLLM{enhance: func(sn llm.Snippet, summary string) (string, error) {
			assert.Equal(t, "summary of core", summary)
			return "better docs for " + sn.Name, nil
		}}, 2)

		out := stage.Run(context.Background(), summarizedState(coreModule))
		assert.Equal(t, pipeline.OutcomeSuccess, out.Kind())
	})

	t.Run("partial failure degrades", func(t *testing.T) {
		twoSymbols := coreModule
		twoSymbols.Functions = append([]codeparse.Symbol{{
			ID: "internal/core/core.go#Stop", Name: "Stop", Kind: codeparse.KindFunction, Code: "func Stop() {}",
		}}, coreModule.Functions...)

		stage := NewDocstringStage(&fakeLLM{enhance: func(sn llm.Snippet, _ string) (string, error) {
			if sn.Name == "Stop" {
				return "", llm.ErrRateLimited
			}
			return "better docs for " + sn.Name, nil
		}}, 2)

		out := stage.Run(context.Background(), summarizedState(twoSymbols))
		assert.Equal(t, pipeline.OutcomePartial, out.Kind())
		require.Len(t, out.Errs(), 1)
	})

	t.Run("total failure is fatal", func(t *testing.T) {
		stage := NewDocstringStage(&fakeLLM{enhance: func(llm.Snippet, string) (string, error) {
			return "", llm.ErrServiceUnavailable
		}}, 2)

		out := stage.Run(context.Background(), summarizedState(coreModule))
		assert.Equal(t, pipeline.OutcomeFatal, out.Kind())
		require.Len(t, out.Errs(), 1)
		assert.Equal(t, pipeline.ErrorServiceUnavailable, out.Errs()[0].Kind)
	})
}

func TestRAGStage(t *testing.T) {
	t.Run("indexes summaries and answers", func(t *testing.T) {
		index := &fakeIndex{results: []vectorstore.SearchResult{{Content: "Module core: summary of core"}}}
		stage := NewRAGStage(index, &fakeLLM{answer: func(q string, chunks []string) (string, error) {
			require.NotEmpty(t, chunks)
			return "the architecture overview", nil
		}})

		out := stage.Run(context.Background(), summarizedState(coreModule))
		assert.Equal(t, pipeline.OutcomeSuccess, out.Kind())
		require.Len(t, index.added, 1)
		assert.Equal(t, coreModule.Path, index.added[0].ID)
	})

	t.Run("store failure degrades", func(t *testing.T) {
		stage := NewRAGStage(&fakeIndex{addErr: errors.New("connection refused")}, &fakeLLM{})

		out := stage.Run(context.Background(), summarizedState(coreModule))
		assert.Equal(t, pipeline.OutcomePartial, out.Kind())
		assert.Equal(t, pipeline.ErrorServiceUnavailable, out.Errs()[0].Kind)
	})

	t.Run("placeholder summaries are not indexed", func(t *testing.T) {
		st := summarizedState(coreModule)
		st.Summaries[coreModule.Name] = placeholderSummary

		stage := NewRAGStage(&fakeIndex{}, &fakeLLM{})
		out := stage.Run(context.Background(), st)
		assert.Equal(t, pipeline.OutcomePartial, out.Kind())
	})
}

func TestDiagramStage(t *testing.T) {
	gen := diagramFunc(func(_ context.Context, modules []codeparse.Module) (map[string]string, []error) {
		return map[string]string{"architecture": "flowchart TD"}, []error{errors.New("classes_core: nothing to render")}
	})
	stage := NewDiagramStage(gen)

	out := stage.Run(context.Background(), parsedState(coreModule))
	assert.Equal(t, pipeline.OutcomePartial, out.Kind())
	assert.Equal(t, pipeline.ErrorRender, out.Errs()[0].Kind)
}

type diagramFunc func(ctx context.Context, modules []codeparse.Module) (map[string]string, []error)

func (f diagramFunc) Generate(ctx context.Context, modules []codeparse.Module) (map[string]string, []error) {
	return f(ctx, modules)
}

func TestTranslateStage(t *testing.T) {
	t.Run("single language skips", func(t *testing.T) {
		stage := NewTranslateStage(nil, 2)
		st := summarizedState(coreModule)
		st.Languages = []string{"en"}
		assert.Error(t, stage.Precondition(st))
	})

	t.Run("translates overview and summaries", func(t *testing.T) {
		stage := NewTranslateStage(&fakeLLM{translate: func(text, lang string) (string, error) {
			return "[" + lang + "] " + text, nil
		}}, 2)

		st := summarizedState(coreModule)
		st.ArchitectureOverview = "overview text"

		out := stage.Run(context.Background(), st)
		assert.Equal(t, pipeline.OutcomeSuccess, out.Kind())
	})

	t.Run("failed documents degrade and are dropped", func(t *testing.T) {
		stage := NewTranslateStage(&fakeLLM{translate: func(text, lang string) (string, error) {
			return "", llm.ErrRateLimited
		}}, 2)

		out := stage.Run(context.Background(), summarizedState(coreModule))
		assert.Equal(t, pipeline.OutcomePartial, out.Kind())
	})
}

type formatterFunc func(ctx context.Context, outputDir string, in docsite.Input) (map[string]string, []error, error)

func (f formatterFunc) Format(ctx context.Context, outputDir string, in docsite.Input) (map[string]string, []error, error) {
	return f(ctx, outputDir, in)
}

func TestFormatStage(t *testing.T) {
	t.Run("waits for translate to settle", func(t *testing.T) {
		stage := NewFormatStage(nil)
		st := summarizedState(coreModule)
		require.Error(t, stage.Precondition(st), "translate pending")

		st.SkippedStages[pipeline.StageTranslate] = true
		assert.NoError(t, stage.Precondition(st))
	})

	t.Run("passes accumulated artifacts", func(t *testing.T) {
		var got docsite.Input
		stage := NewFormatStage(formatterFunc(func(_ context.Context, outputDir string, in docsite.Input) (map[string]string, []error, error) {
			assert.Equal(t, "/tmp/site", outputDir)
			got = in
			return map[string]string{"docs/intro.md": "# hi"}, nil, nil
		}))

		st := summarizedState(coreModule)
		st.ArchitectureOverview = "overview"
		st.CompletedStages[pipeline.StageTranslate] = true

		out := stage.Run(context.Background(), st)
		assert.Equal(t, pipeline.OutcomeSuccess, out.Kind())
		assert.Equal(t, "overview", got.Overview)
		assert.Equal(t, []string{"en", "vi"}, got.Languages)
	})

	t.Run("render failure is fatal", func(t *testing.T) {
		stage := NewFormatStage(formatterFunc(func(context.Context, string, docsite.Input) (map[string]string, []error, error) {
			return nil, nil, errors.New("mkdir: permission denied")
		}))

		out := stage.Run(context.Background(), summarizedState(coreModule))
		assert.Equal(t, pipeline.OutcomeFatal, out.Kind())
		assert.Equal(t, pipeline.ErrorRender, out.Errs()[0].Kind)
	})
}

type builderFunc func(ctx context.Context, siteDir string) (string, error)

func (f builderFunc) Build(ctx context.Context, siteDir string) (string, error) {
	return f(ctx, siteDir)
}

func TestBuildStage(t *testing.T) {
	t.Run("requires formatted docs", func(t *testing.T) {
		stage := NewBuildStage(nil)
		assert.Error(t, stage.Precondition(summarizedState(coreModule)))
	})

	t.Run("failure is fatal with build kind", func(t *testing.T) {
		stage := NewBuildStage(builderFunc(func(context.Context, string) (string, error) {
			return "", errors.New("npm exit 1")
		}))

		st := summarizedState(coreModule)
		st.FormattedDocs = map[string]string{"docs/intro.md": "# hi"}
		st.CompletedStages[pipeline.StageFormat] = true

		out := stage.Run(context.Background(), st)
		assert.Equal(t, pipeline.OutcomeFatal, out.Kind())
		assert.Equal(t, pipeline.ErrorBuild, out.Errs()[0].Kind)
	})
}

func TestNewPlanOwnership(t *testing.T) {
	// The assembled plan must satisfy the runner's ownership validation.
	plan := NewPlan(Services{ElementConcurrency: 2})

	names := make([]string, 0, 9)
	for _, st := range append(append(append([]pipeline.Stage{}, plan.Head...), plan.Fork...), plan.Tail...) {
		names = append(names, st.Name())
	}
	assert.Equal(t, []string{
		pipeline.StageClone, pipeline.StageParse, pipeline.StageSummarize, pipeline.StageDocstrings,
		pipeline.StageRAG, pipeline.StageDiagrams,
		pipeline.StageTranslate, pipeline.StageFormat, pipeline.StageBuild,
	}, names)
}
