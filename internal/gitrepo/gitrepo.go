// Package gitrepo clones source repositories and extracts their metadata.
//
// Cloning goes through go-git with optional PAT authentication for private
// repositories. Auth and network failures are distinguished through
// sentinel errors so the clone stage can classify them.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/autodoc/internal/logging"
)

var (
	// ErrAuth indicates the remote rejected the provided credentials.
	ErrAuth = errors.New("repository authentication failed")

	// ErrNetwork indicates the remote could not be reached or the clone
	// failed for a non-auth reason.
	ErrNetwork = errors.New("repository clone failed")
)

// statsExtensions maps file extensions to language names for the
// repository language statistics.
var statsExtensions = map[string]string{
	".go":   "Go",
	".py":   "Python",
	".js":   "JavaScript",
	".jsx":  "JavaScript",
	".ts":   "TypeScript",
	".tsx":  "TypeScript",
	".rb":   "Ruby",
	".rs":   "Rust",
	".java": "Java",
	".c":    "C",
	".h":    "C",
	".cpp":  "C++",
	".cs":   "C#",
	".php":  "PHP",
	".sh":   "Shell",
}

// Metadata describes a cloned repository.
type Metadata struct {
	Name          string           `json:"name"`
	URL           string           `json:"url"`
	DefaultBranch string           `json:"default_branch"`
	Description   string           `json:"description,omitempty"`
	Languages     map[string]int64 `json:"languages"`
}

// MainLanguages returns languages ordered by descending byte count.
func (m *Metadata) MainLanguages() []string {
	langs := make([]string, 0, len(m.Languages))
	for lang := range m.Languages {
		langs = append(langs, lang)
	}
	for i := 0; i < len(langs); i++ {
		for j := i + 1; j < len(langs); j++ {
			if m.Languages[langs[j]] > m.Languages[langs[i]] {
				langs[i], langs[j] = langs[j], langs[i]
			}
		}
	}
	return langs
}

// CloneResult is the outcome of a successful clone. Warnings list optional
// metadata that could not be gathered; the clone itself still succeeded.
type CloneResult struct {
	LocalPath string
	Metadata  *Metadata
	Warnings  []string
}

// Cloner clones repositories into a working directory.
type Cloner struct {
	workDir string
	log     *logging.Logger
}

// NewCloner creates a cloner placing checkouts under workDir.
func NewCloner(workDir string, log *logging.Logger) *Cloner {
	return &Cloner{workDir: workDir, log: log.Named("gitrepo")}
}

// Clone fetches url at branch into the working directory. An empty branch
// clones the remote default. A non-empty pat authenticates as a GitHub-style
// token user. The checkout is shallow: history is not needed for
// documentation.
func (c *Cloner) Clone(ctx context.Context, url, branch, pat string) (*CloneResult, error) {
	name := repoName(url)
	if name == "" {
		return nil, fmt.Errorf("%w: cannot derive repository name from %q", ErrNetwork, url)
	}

	path := filepath.Join(c.workDir, name)
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("cleaning clone target: %w", err)
	}

	opts := &git.CloneOptions{
		URL:   url,
		Depth: 1,
	}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		opts.SingleBranch = true
	}
	if pat != "" {
		opts.Auth = &githttp.BasicAuth{Username: "git", Password: pat}
	}

	c.log.Info(ctx, "cloning repository", zap.String("url", url), zap.String("branch", branch))

	repo, err := git.PlainCloneContext(ctx, path, false, opts)
	if err != nil {
		return nil, classifyCloneError(err)
	}

	meta := &Metadata{
		Name:      name,
		URL:       url,
		Languages: map[string]int64{},
	}
	var warnings []string

	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		meta.DefaultBranch = head.Name().Short()
	} else {
		warnings = append(warnings, "default branch could not be determined")
	}

	if err := collectLanguageStats(path, meta.Languages); err != nil {
		warnings = append(warnings, fmt.Sprintf("language statistics unavailable: %v", err))
	}

	if desc := readDescription(path); desc != "" {
		meta.Description = desc
	} else {
		warnings = append(warnings, "repository description unavailable")
	}

	c.log.Info(ctx, "repository cloned",
		zap.String("path", path),
		zap.Strings("languages", meta.MainLanguages()),
	)

	return &CloneResult{LocalPath: path, Metadata: meta, Warnings: warnings}, nil
}

// classifyCloneError maps go-git transport errors onto the package
// sentinels.
func classifyCloneError(err error) error {
	if errors.Is(err, transport.ErrAuthenticationRequired) ||
		errors.Is(err, transport.ErrAuthorizationFailed) ||
		errors.Is(err, transport.ErrInvalidAuthMethod) {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

// collectLanguageStats accumulates per-language byte counts from the
// worktree.
func collectLanguageStats(root string, stats map[string]int64) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if filepath.Base(path) == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if lang, ok := statsExtensions[filepath.Ext(path)]; ok {
			stats[lang] += info.Size()
		}
		return nil
	})
}

// readDescription takes the first paragraph of the repository README as
// its description.
func readDescription(root string) string {
	for _, name := range []string{"README.md", "README.rst", "README.txt", "README"} {
		content, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(content), "\n") {
			line = strings.TrimSpace(strings.TrimLeft(line, "# "))
			if line != "" {
				return line
			}
		}
	}
	return ""
}

// repoName extracts the repository name from its URL.
func repoName(url string) string {
	trimmed := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	idx := strings.LastIndexAny(trimmed, "/:")
	if idx < 0 || idx == len(trimmed)-1 {
		return ""
	}
	return trimmed[idx+1:]
}
