package codeparse

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/autodoc/internal/logging"
)

// ErrNoSources indicates the repository contains no parseable source files.
var ErrNoSources = errors.New("no supported source files found")

// defaultSkipDirs are directories never walked: generated code,
// dependencies, and version control data.
var defaultSkipDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	".hg":          true,
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	".idea":        true,
	".vscode":      true,
	".cache":       true,
	"dist":         true,
	"build":        true,
	".next":        true,
	"target":       true,
}

// languageByExt maps source file extensions to language names.
var languageByExt = map[string]string{
	".go":  "go",
	".py":  "python",
	".js":  "javascript",
	".jsx": "javascript",
	".ts":  "typescript",
	".tsx": "typescript",
}

// Options tunes the tree walk.
type Options struct {
	// MaxFileSize caps the size of files considered, in bytes.
	// Defaults to 1MB.
	MaxFileSize int64
}

// Parser extracts module descriptors from a repository tree.
type Parser struct {
	opts Options
	log  *logging.Logger
}

// NewParser creates a parser with the given options.
func NewParser(opts Options, log *logging.Logger) *Parser {
	if opts.MaxFileSize == 0 {
		opts.MaxFileSize = 1024 * 1024
	}
	return &Parser{opts: opts, log: log.Named("codeparse")}
}

// Parse walks root and extracts one Module per supported source file,
// ordered by path. Per-file failures are returned as FileErrors alongside
// the successfully parsed modules. The returned error is non-nil only for
// fatal conditions: an unreadable root or a repository with no supported
// source files at all.
func (p *Parser) Parse(ctx context.Context, root string) ([]Module, []FileError, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, fmt.Errorf("stat repository root: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("repository root is not a directory: %s", root)
	}

	var (
		modules  []Module
		fileErrs []FileError
	)

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if defaultSkipDirs[filepath.Base(path)] {
				return filepath.SkipDir
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lang, ok := languageByExt[filepath.Ext(path)]
		if !ok || info.Size() > p.opts.MaxFileSize {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("computing relative path: %w", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			fileErrs = append(fileErrs, FileError{Path: relPath, Err: err})
			return nil
		}
		if !utf8.Valid(content) {
			// Binary file with a source extension, skip silently.
			return nil
		}

		mod, err := scanModule(relPath, lang, string(content))
		if err != nil {
			fileErrs = append(fileErrs, FileError{Path: relPath, Err: err})
			return nil
		}
		modules = append(modules, mod)
		return nil
	})
	if err != nil {
		return nil, fileErrs, fmt.Errorf("walking file tree: %w", err)
	}

	if len(modules) == 0 {
		return nil, fileErrs, ErrNoSources
	}

	sort.Slice(modules, func(i, j int) bool { return modules[i].Path < modules[j].Path })

	p.log.Info(ctx, "repository parsed",
		zap.String("root", root),
		zap.Int("modules", len(modules)),
		zap.Int("file_errors", len(fileErrs)),
	)

	return modules, fileErrs, nil
}

// scanModule dispatches to the language-specific declaration scanner.
func scanModule(relPath, lang, content string) (Module, error) {
	mod := Module{
		Name:     strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath)),
		Path:     relPath,
		Language: lang,
	}

	lines := strings.Split(content, "\n")
	switch lang {
	case "go":
		scanGo(&mod, lines)
	case "python":
		scanPython(&mod, lines)
	default:
		scanJavaScript(&mod, lines)
	}

	return mod, nil
}

func symbolID(path, name string) string {
	return path + "#" + name
}
