package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/autodoc/internal/codeparse"
	"github.com/fyrsmithlabs/autodoc/internal/gitrepo"
)

// Stage names in pipeline order.
const (
	StageClone      = "repository-clone"
	StageParse      = "code-parse"
	StageSummarize  = "summarize"
	StageDocstrings = "docstring-enhance"
	StageRAG        = "rag-query"
	StageDiagrams   = "diagram-generate"
	StageTranslate  = "translate"
	StageFormat     = "format"
	StageBuild      = "build"
)

// Field identifies a producer-owned top-level State attribute.
type Field string

const (
	FieldLocalPath            Field = "local_path"
	FieldRepoMetadata         Field = "repo_metadata"
	FieldParsedModules        Field = "parsed_modules"
	FieldSummaries            Field = "summaries"
	FieldEnhancedDocstrings   Field = "enhanced_docstrings"
	FieldArchitectureOverview Field = "architecture_overview"
	FieldDiagrams             Field = "diagrams"
	FieldTranslations         Field = "translations"
	FieldFormattedDocs        Field = "formatted_docs"
	FieldBuildPath            Field = "build_path"
)

// owners is the static field-ownership table: exactly one producer stage
// per field. Later stages only read. NewRunner validates every stage's
// declared fields against this table before the first run.
var owners = map[Field]string{
	FieldLocalPath:            StageClone,
	FieldRepoMetadata:         StageClone,
	FieldParsedModules:        StageParse,
	FieldSummaries:            StageSummarize,
	FieldEnhancedDocstrings:   StageDocstrings,
	FieldArchitectureOverview: StageRAG,
	FieldDiagrams:             StageDiagrams,
	FieldTranslations:         StageTranslate,
	FieldFormattedDocs:        StageFormat,
	FieldBuildPath:            StageBuild,
}

// NoteLevel categorizes a stage note for display.
type NoteLevel string

const (
	NoteInfo    NoteLevel = "info"
	NoteSuccess NoteLevel = "success"
	NoteWarning NoteLevel = "warning"
)

// StageNote is a human-readable message a stage attaches to the run.
type StageNote struct {
	Stage   string    `json:"stage"`
	Level   NoteLevel `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// RunParams are the validated initial inputs for a run.
type RunParams struct {
	RepoURL   string
	Branch    string
	OutputDir string
	Languages []string
}

// State is the record accumulating each stage's output over one run.
// One State exists per run; it is created at run start, mutated only by
// the runner's serial merges, and discarded after notification.
type State struct {
	RunID     string
	RepoURL   string
	Branch    string
	OutputDir string
	Languages []string

	LocalPath            string
	RepoMetadata         *gitrepo.Metadata
	ParsedModules        []codeparse.Module
	Summaries            map[string]string
	EnhancedDocstrings   map[string]string
	ArchitectureOverview string
	Diagrams             map[string]string
	Translations         map[string]map[string]string
	FormattedDocs        map[string]string
	BuildPath            string

	Errors          []StageError
	Notes           []StageNote
	CompletedStages map[string]bool
	SkippedStages   map[string]bool
}

// NewState creates the initial state for a run. Every field beyond the
// run parameters starts empty.
func NewState(params RunParams) *State {
	return &State{
		RunID:           uuid.NewString(),
		RepoURL:         params.RepoURL,
		Branch:          params.Branch,
		OutputDir:       params.OutputDir,
		Languages:       params.Languages,
		CompletedStages: make(map[string]bool),
		SkippedStages:   make(map[string]bool),
	}
}

// DefaultLanguage returns the run's primary output language.
func (s *State) DefaultLanguage() string {
	if len(s.Languages) == 0 {
		return "en"
	}
	return s.Languages[0]
}

// Completed reports whether the named stage finished without a fatal error.
func (s *State) Completed(stage string) bool {
	return s.CompletedStages[stage]
}

// Skipped reports whether the named stage was skipped.
func (s *State) Skipped(stage string) bool {
	return s.SkippedStages[stage]
}

// Update is the partial state a stage produces. The runner merges it into
// State, replacing only the fields the stage owns. Zero-valued fields are
// not merged.
type Update struct {
	LocalPath            string
	RepoMetadata         *gitrepo.Metadata
	ParsedModules        []codeparse.Module
	Summaries            map[string]string
	EnhancedDocstrings   map[string]string
	ArchitectureOverview string
	Diagrams             map[string]string
	Translations         map[string]map[string]string
	FormattedDocs        map[string]string
	BuildPath            string

	Notes []StageNote
}

// fields returns the set fields of the update, for ownership checks.
func (u *Update) fields() []Field {
	var set []Field
	if u.LocalPath != "" {
		set = append(set, FieldLocalPath)
	}
	if u.RepoMetadata != nil {
		set = append(set, FieldRepoMetadata)
	}
	if u.ParsedModules != nil {
		set = append(set, FieldParsedModules)
	}
	if u.Summaries != nil {
		set = append(set, FieldSummaries)
	}
	if u.EnhancedDocstrings != nil {
		set = append(set, FieldEnhancedDocstrings)
	}
	if u.ArchitectureOverview != "" {
		set = append(set, FieldArchitectureOverview)
	}
	if u.Diagrams != nil {
		set = append(set, FieldDiagrams)
	}
	if u.Translations != nil {
		set = append(set, FieldTranslations)
	}
	if u.FormattedDocs != nil {
		set = append(set, FieldFormattedDocs)
	}
	if u.BuildPath != "" {
		set = append(set, FieldBuildPath)
	}
	return set
}

// merge applies a stage's update. Only the runner calls merge, one stage
// result at a time, so no concurrent mutation is possible. Merging never
// drops error history. A stage writing a field it does not own is a
// programming error: ownership is validated at runner construction, so a
// violation here can only mean the update bypassed that check.
func (s *State) merge(stage string, u Update) {
	for _, f := range u.fields() {
		if owner := owners[f]; owner != stage {
			panic(fmt.Sprintf("pipeline: stage %q merged field %q owned by %q", stage, f, owner))
		}
	}

	if u.LocalPath != "" {
		s.LocalPath = u.LocalPath
	}
	if u.RepoMetadata != nil {
		s.RepoMetadata = u.RepoMetadata
	}
	if u.ParsedModules != nil {
		s.ParsedModules = u.ParsedModules
	}
	if u.Summaries != nil {
		s.Summaries = u.Summaries
	}
	if u.EnhancedDocstrings != nil {
		s.EnhancedDocstrings = u.EnhancedDocstrings
	}
	if u.ArchitectureOverview != "" {
		s.ArchitectureOverview = u.ArchitectureOverview
	}
	if u.Diagrams != nil {
		s.Diagrams = u.Diagrams
	}
	if u.Translations != nil {
		s.Translations = u.Translations
	}
	if u.FormattedDocs != nil {
		s.FormattedDocs = u.FormattedDocs
	}
	if u.BuildPath != "" {
		s.BuildPath = u.BuildPath
	}

	s.Notes = append(s.Notes, u.Notes...)
}

// recordErrors appends to the run's error log. Append-only: prior entries
// are never removed or rewritten.
func (s *State) recordErrors(errs ...StageError) {
	s.Errors = append(s.Errors, errs...)
}
