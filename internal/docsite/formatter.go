// Package docsite renders and builds the Docusaurus documentation site.
//
// The Formatter turns pipeline artifacts (summaries, enhanced docstrings,
// the architecture overview, diagrams, translations) into a Docusaurus
// project tree on disk. The Builder then shells out to npm to produce the
// static site.
package docsite

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/autodoc/internal/codeparse"
	"github.com/fyrsmithlabs/autodoc/internal/gitrepo"
	"github.com/fyrsmithlabs/autodoc/internal/logging"
)

// Input carries everything the formatter needs to render the site.
type Input struct {
	Meta         *gitrepo.Metadata
	Modules      []codeparse.Module
	Summaries    map[string]string            // module name -> summary markdown
	Docstrings   map[string]string            // symbol ID -> enhanced docstring
	Overview     string                       // architecture overview markdown
	Diagrams     map[string]string            // diagram name -> mermaid source
	Translations map[string]map[string]string // lang -> doc key -> markdown
	Languages    []string                     // first entry is the default locale
}

// Formatter writes a Docusaurus project tree.
type Formatter struct {
	log *logging.Logger
}

// NewFormatter creates a Formatter.
func NewFormatter(log *logging.Logger) *Formatter {
	return &Formatter{log: log.Named("docsite")}
}

// Format renders the site into outputDir and returns the rendered
// documents keyed by path relative to outputDir. Per-file write errors
// are collected; an error is returned only when the output directory
// itself cannot be created.
func (f *Formatter) Format(ctx context.Context, outputDir string, in Input) (map[string]string, []error, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	docs := f.render(in)

	var errs []error
	written := make(map[string]string, len(docs))
	paths := sortedKeys(docs)
	for _, rel := range paths {
		target := filepath.Join(outputDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rel, err))
			continue
		}
		if err := os.WriteFile(target, []byte(docs[rel]), 0o644); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rel, err))
			continue
		}
		written[rel] = docs[rel]
	}

	f.log.Info(ctx, "site formatted",
		zap.String("output_dir", outputDir),
		zap.Int("files", len(written)),
		zap.Int("failures", len(errs)),
	)
	return written, errs, nil
}

// render produces the full document set in memory.
func (f *Formatter) render(in Input) map[string]string {
	docs := make(map[string]string)

	defaultLang := "en"
	if len(in.Languages) > 0 {
		defaultLang = in.Languages[0]
	}

	docs["docusaurus.config.js"] = renderSiteConfig(in.Meta, in.Languages, defaultLang)
	docs["sidebars.js"] = sidebarsJS
	docs["package.json"] = packageJSON

	docs["docs/intro.md"] = renderIntro(in.Meta, in.Overview)
	if len(in.Diagrams) > 0 {
		docs["docs/architecture.md"] = renderArchitecture(in.Diagrams)
	}
	for _, mod := range in.Modules {
		docs["docs/modules/"+slugify(mod.Name)+".md"] = renderModule(mod, in.Summaries[mod.Name], in.Docstrings)
	}

	// Localized copies for every non-default language; untranslated
	// documents fall back to the default-language text.
	for _, lang := range in.Languages {
		if lang == defaultLang {
			continue
		}
		trans := in.Translations[lang]
		base := "i18n/" + lang + "/docusaurus-plugin-content-docs/current/"

		intro := in.Overview
		if t, ok := trans["overview"]; ok {
			intro = t
		}
		docs[base+"intro.md"] = renderIntro(in.Meta, intro)

		if src, ok := docs["docs/architecture.md"]; ok {
			docs[base+"architecture.md"] = src
		}
		for _, mod := range in.Modules {
			summary := in.Summaries[mod.Name]
			if t, ok := trans[mod.Name]; ok {
				summary = t
			}
			docs[base+"modules/"+slugify(mod.Name)+".md"] = renderModule(mod, summary, in.Docstrings)
		}
	}

	return docs
}

func renderIntro(meta *gitrepo.Metadata, overview string) string {
	var b strings.Builder
	b.WriteString("---\nsidebar_position: 1\n---\n\n")

	name := "Documentation"
	if meta != nil && meta.Name != "" {
		name = meta.Name
	}
	fmt.Fprintf(&b, "# %s\n\n", name)

	if meta != nil && meta.Description != "" {
		b.WriteString(meta.Description + "\n\n")
	}
	if overview != "" {
		b.WriteString("## Overview\n\n")
		b.WriteString(strings.TrimSpace(overview) + "\n")
	}
	if meta != nil && len(meta.Languages) > 0 {
		b.WriteString("\n## Languages\n\n")
		for _, lang := range meta.MainLanguages() {
			fmt.Fprintf(&b, "- %s\n", lang)
		}
	}
	return b.String()
}

func renderArchitecture(diagrams map[string]string) string {
	var b strings.Builder
	b.WriteString("---\nsidebar_position: 2\n---\n\n# Architecture\n\n")

	for _, name := range sortedKeys(diagrams) {
		fmt.Fprintf(&b, "## %s\n\n", titleize(name))
		b.WriteString("```mermaid\n")
		b.WriteString(strings.TrimRight(diagrams[name], "\n"))
		b.WriteString("\n```\n\n")
	}
	return b.String()
}

func renderModule(mod codeparse.Module, summary string, docstrings map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", mod.Name)
	fmt.Fprintf(&b, "`%s`\n\n", mod.Path)

	if summary != "" {
		b.WriteString(strings.TrimSpace(summary) + "\n\n")
	} else if mod.Doc != "" {
		b.WriteString(strings.TrimSpace(mod.Doc) + "\n\n")
	}

	writeSymbols := func(heading string, symbols []codeparse.Symbol) {
		if len(symbols) == 0 {
			return
		}
		fmt.Fprintf(&b, "## %s\n\n", heading)
		for _, sym := range symbols {
			fmt.Fprintf(&b, "### `%s`\n\n", sym.Name)
			doc := sym.Docstring
			if enhanced, ok := docstrings[sym.ID]; ok && enhanced != "" {
				doc = enhanced
			}
			if doc != "" {
				b.WriteString(strings.TrimSpace(doc) + "\n\n")
			}
		}
	}
	writeSymbols("Classes", mod.Classes)
	writeSymbols("Functions", mod.Functions)

	return b.String()
}

func renderSiteConfig(meta *gitrepo.Metadata, languages []string, defaultLang string) string {
	title := "Project Documentation"
	url := ""
	if meta != nil {
		if meta.Name != "" {
			title = meta.Name
		}
		url = meta.URL
	}
	if len(languages) == 0 {
		languages = []string{defaultLang}
	}
	locales, _ := json.Marshal(languages)

	return fmt.Sprintf(`// @ts-check
const config = {
  title: %q,
  url: 'https://localhost',
  baseUrl: '/',
  organizationName: 'autodoc',
  projectName: %q,
  onBrokenLinks: 'warn',
  onBrokenMarkdownLinks: 'warn',
  markdown: {
    mermaid: true,
  },
  themes: ['@docusaurus/theme-mermaid'],
  i18n: {
    defaultLocale: %q,
    locales: %s,
  },
  presets: [
    [
      'classic',
      {
        docs: {
          sidebarPath: require.resolve('./sidebars.js'),
          routeBasePath: '/',
        },
        blog: false,
      },
    ],
  ],
  customFields: {
    repositoryUrl: %q,
  },
};

module.exports = config;
`, title, slugify(title), defaultLang, locales, url)
}

const sidebarsJS = `// @ts-check
const sidebars = {
  docs: [{type: 'autogenerated', dirName: '.'}],
};

module.exports = sidebars;
`

const packageJSON = `{
  "name": "autodoc-site",
  "version": "0.0.0",
  "private": true,
  "scripts": {
    "start": "docusaurus start",
    "build": "docusaurus build"
  },
  "dependencies": {
    "@docusaurus/core": "^3.4.0",
    "@docusaurus/preset-classic": "^3.4.0",
    "@docusaurus/theme-mermaid": "^3.4.0",
    "react": "^18.0.0",
    "react-dom": "^18.0.0"
  }
}
`

func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "module"
	}
	return slug
}

func titleize(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
