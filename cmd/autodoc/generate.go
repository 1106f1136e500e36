package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/fyrsmithlabs/autodoc/internal/codeparse"
	"github.com/fyrsmithlabs/autodoc/internal/config"
	"github.com/fyrsmithlabs/autodoc/internal/diagram"
	"github.com/fyrsmithlabs/autodoc/internal/docsite"
	"github.com/fyrsmithlabs/autodoc/internal/gitrepo"
	"github.com/fyrsmithlabs/autodoc/internal/logging"
	"github.com/fyrsmithlabs/autodoc/internal/notify"
	"github.com/fyrsmithlabs/autodoc/internal/pipeline"
	"github.com/fyrsmithlabs/autodoc/internal/stages"
	"github.com/fyrsmithlabs/autodoc/pkg/embeddings"
	"github.com/fyrsmithlabs/autodoc/pkg/llm"
	"github.com/fyrsmithlabs/autodoc/pkg/vectorstore"
)

var (
	flagBranch    string
	flagOutput    string
	flagLanguages []string
	flagQuiet     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <repo-url>",
	Short: "Generate a documentation site for a repository",
	Long: `Generate clones the repository, parses its source, writes summaries
and docstrings with an LLM, renders diagrams and an architecture
overview, translates the docs and builds a static Docusaurus site.

Examples:
  # Document a repository in English
  autodoc generate https://github.com/acme/widgets

  # English and Vietnamese docs in a custom directory
  autodoc generate --languages en,vi --output ./site https://github.com/acme/widgets`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&flagBranch, "branch", "", "branch to document (default: repository default branch)")
	generateCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output directory for the site")
	generateCmd.Flags().StringSliceVar(&flagLanguages, "languages", nil, "output languages, first is the default locale")
	generateCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress per-stage progress output")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return err
	}
	cfg.Repo.URL = args[0]
	if flagBranch != "" {
		cfg.Repo.Branch = flagBranch
	}
	if flagOutput != "" {
		cfg.Output.Dir = flagOutput
	}
	if len(flagLanguages) > 0 {
		cfg.Output.Languages = flagLanguages
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if !cfg.LLM.APIKey.IsSet() {
		return fmt.Errorf("LLM API key required (set AUTODOC_LLM_API_KEY or llm.api_key in config)")
	}

	log, shutdownLogs, err := buildLogger(cmd.Context(), cfg.Logging)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck
	defer func() {
		// Flush exported log records even when the run context is gone.
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownLogs(flushCtx)
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := buildRunner(cfg, log)
	if err != nil {
		return err
	}

	ctx = logging.WithRepo(ctx, cfg.Repo.URL)
	state, status := runner.Execute(ctx, pipeline.RunParams{
		RepoURL:   cfg.Repo.URL,
		Branch:    cfg.Repo.Branch,
		OutputDir: cfg.Output.Dir,
		Languages: cfg.Output.Languages,
	})

	switch status {
	case pipeline.RunSucceeded, pipeline.RunSucceededWithWarnings:
		fmt.Fprintf(cmd.OutOrStdout(), "site built at %s\n", state.BuildPath)
		return nil
	case pipeline.RunCancelled:
		return fmt.Errorf("run cancelled")
	default:
		return fmt.Errorf("run failed with %d error(s)", len(state.Errors))
	}
}

// buildLogger constructs the run logger and, when OTEL export is enabled,
// an OTLP/HTTP log provider feeding the otelzap bridge. The returned
// shutdown function flushes pending records.
func buildLogger(ctx context.Context, cfg config.LoggingConfig) (*logging.Logger, func(context.Context) error, error) {
	level, err := logging.LevelFromString(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	logCfg := logging.NewDefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.Format
	logCfg.Output.OTEL = cfg.OTEL

	var provider otellog.LoggerProvider
	shutdown := func(context.Context) error { return nil }
	if cfg.OTEL {
		var opts []otlploghttp.Option
		if cfg.OTELEndpoint != "" {
			opts = append(opts, otlploghttp.WithEndpointURL(cfg.OTELEndpoint))
		}
		exporter, err := otlploghttp.New(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("creating OTLP log exporter: %w", err)
		}
		// Standalone resource: merging with resource.Default() conflicts
		// on schema URL across semconv versions.
		res := resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("autodoc"),
			semconv.ServiceVersion(version),
		)
		lp := sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
			sdklog.WithResource(res),
		)
		provider = lp
		shutdown = lp.Shutdown
	}

	logger, err := logging.NewLogger(logCfg, provider)
	if err != nil {
		return nil, nil, err
	}
	return logger, shutdown, nil
}

// buildRunner wires the collaborator services into the stage plan.
func buildRunner(cfg *config.Config, log *logging.Logger) (*pipeline.Runner, error) {
	llmService, err := llm.NewService(llm.Config{
		BaseURL:          cfg.LLM.BaseURL,
		APIKey:           cfg.LLM.APIKey.Value(),
		SummaryModel:     cfg.LLM.SummaryModel,
		DocstringModel:   cfg.LLM.DocstringModel,
		TranslationModel: cfg.LLM.TranslationModel,
		OverviewModel:    cfg.LLM.OverviewModel,
		Retry: llm.RetryConfig{
			MaxRetries:        cfg.LLM.Retry.MaxRetries,
			InitialBackoff:    cfg.LLM.Retry.InitialBackoff.Duration(),
			MaxBackoff:        cfg.LLM.Retry.MaxBackoff.Duration(),
			BackoffMultiplier: cfg.LLM.Retry.BackoffMultiplier,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating LLM service: %w", err)
	}

	embedService, err := embeddings.NewService(embeddings.Config{
		BaseURL: cfg.Embeddings.BaseURL,
		Model:   cfg.Embeddings.Model,
		APIKey:  cfg.Embeddings.APIKey.Value(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating embeddings service: %w", err)
	}

	// Each run indexes into its own throwaway collection.
	collection := "autodoc_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	index, err := vectorstore.NewService(vectorstore.Config{
		URL:            cfg.Qdrant.URL,
		CollectionName: collection,
		Embedder:       embedService.Embedder(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	plan := stages.NewPlan(stages.Services{
		Cloner:             gitrepo.NewCloner(cfg.Repo.WorkDir, log),
		PAT:                cfg.Repo.PAT,
		Parser:             codeparse.NewParser(codeparse.Options{}, log),
		Summarizer:         llmService,
		Enhancer:           llmService,
		Translator:         llmService,
		Answerer:           llmService,
		Index:              index,
		Diagrams:           diagram.NewGenerator(log),
		Formatter:          docsite.NewFormatter(log),
		Builder:            docsite.NewBuilder("", log),
		ElementConcurrency: cfg.Pipeline.ElementConcurrency,
	})

	var reporter pipeline.Reporter = pipeline.NewConsoleReporter(os.Stdout)
	if flagQuiet {
		reporter = pipeline.SilentReporter{}
	}

	opts := []pipeline.Option{
		pipeline.WithStageTimeout(cfg.Pipeline.StageTimeout.Duration()),
	}
	if cfg.Notify.Enabled {
		opts = append(opts, pipeline.WithNotifier(notify.NewMailer(cfg.Notify, log)))
	}

	return pipeline.NewRunner(plan, reporter, log, opts...)
}
