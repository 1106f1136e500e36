package docsite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/autodoc/internal/codeparse"
	"github.com/fyrsmithlabs/autodoc/internal/gitrepo"
	"github.com/fyrsmithlabs/autodoc/internal/logging"
)

func testInput() Input {
	return Input{
		Meta: &gitrepo.Metadata{
			Name:        "widgets",
			URL:         "https://github.com/acme/widgets",
			Description: "A widget factory.",
			Languages:   map[string]int64{"Go": 1000},
		},
		Modules: []codeparse.Module{
			{
				Name: "factory",
				Path: "internal/factory/factory.go",
				Functions: []codeparse.Symbol{
					{ID: "internal/factory/factory.go#Build", Name: "Build", Kind: codeparse.KindFunction},
				},
			},
		},
		Summaries:  map[string]string{"factory": "Builds widgets."},
		Docstrings: map[string]string{"internal/factory/factory.go#Build": "Build assembles a widget."},
		Overview:   "Widgets are built by the factory.",
		Diagrams:   map[string]string{"architecture": "flowchart TD\n    a --> b"},
		Translations: map[string]map[string]string{
			"vi": {"overview": "Tổng quan.", "factory": "Xây dựng widget."},
		},
		Languages: []string{"en", "vi"},
	}
}

func TestFormatterFormat(t *testing.T) {
	dir := t.TempDir()
	f := NewFormatter(logging.NewTestLogger().Logger)

	docs, errs, err := f.Format(context.Background(), dir, testInput())
	require.NoError(t, err)
	require.Empty(t, errs)

	t.Run("scaffolding rendered", func(t *testing.T) {
		cfg := docs["docusaurus.config.js"]
		assert.Contains(t, cfg, `"widgets"`)
		assert.Contains(t, cfg, "@docusaurus/theme-mermaid")
		assert.Contains(t, cfg, `defaultLocale: "en"`)
		assert.Contains(t, cfg, `["en","vi"]`)
		assert.Contains(t, docs, "sidebars.js")
		assert.Contains(t, docs, "package.json")
	})

	t.Run("module page uses enhanced docstring", func(t *testing.T) {
		page := docs["docs/modules/factory.md"]
		assert.Contains(t, page, "Builds widgets.")
		assert.Contains(t, page, "Build assembles a widget.")
	})

	t.Run("architecture page fences mermaid", func(t *testing.T) {
		page := docs["docs/architecture.md"]
		assert.Contains(t, page, "```mermaid\nflowchart TD")
	})

	t.Run("translated tree rendered", func(t *testing.T) {
		intro := docs["i18n/vi/docusaurus-plugin-content-docs/current/intro.md"]
		assert.Contains(t, intro, "Tổng quan.")
		page := docs["i18n/vi/docusaurus-plugin-content-docs/current/modules/factory.md"]
		assert.Contains(t, page, "Xây dựng widget.")
	})

	t.Run("files written to disk", func(t *testing.T) {
		for rel := range docs {
			_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
			assert.NoError(t, err, rel)
		}
	})
}

func TestFormatterFallbacks(t *testing.T) {
	dir := t.TempDir()
	f := NewFormatter(logging.NewTestLogger().Logger)

	in := testInput()
	in.Translations = nil // translate stage skipped

	docs, errs, err := f.Format(context.Background(), dir, in)
	require.NoError(t, err)
	require.Empty(t, errs)

	intro := docs["i18n/vi/docusaurus-plugin-content-docs/current/intro.md"]
	assert.Contains(t, intro, "Widgets are built by the factory.", "untranslated docs fall back to default language")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "my-module", slugify("My Module"))
	assert.Equal(t, "a-b", slugify("a/b"))
	assert.Equal(t, "module", slugify("---"))
}
