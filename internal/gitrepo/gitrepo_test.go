package gitrepo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoName(t *testing.T) {
	cases := map[string]string{
		"https://github.com/acme/widgets.git": "widgets",
		"https://github.com/acme/widgets":     "widgets",
		"https://github.com/acme/widgets/":    "widgets",
		"git@github.com:acme/widgets.git":     "widgets",
		"https://gitlab.com/group/sub/tool":   "tool",
		"widgets":                             "",
		"":                                    "",
		"https://github.com/acme/":            "",
	}
	for url, want := range cases {
		assert.Equal(t, want, repoName(url), "url %q", url)
	}
}

func TestClassifyCloneError(t *testing.T) {
	err := classifyCloneError(transport.ErrAuthenticationRequired)
	assert.ErrorIs(t, err, ErrAuth)

	err = classifyCloneError(transport.ErrAuthorizationFailed)
	assert.ErrorIs(t, err, ErrAuth)

	err = classifyCloneError(errors.New("dial tcp: connection refused"))
	assert.ErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrAuth)
}

func TestMainLanguagesOrdering(t *testing.T) {
	meta := &Metadata{Languages: map[string]int64{
		"Go":         5000,
		"Python":     12000,
		"JavaScript": 300,
	}}
	assert.Equal(t, []string{"Python", "Go", "JavaScript"}, meta.MainLanguages())

	empty := &Metadata{Languages: map[string]int64{}}
	assert.Empty(t, empty.MainLanguages())
}

func TestCollectLanguageStats(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write("main.go", "package main\n")
	write("lib/util.go", "package lib\n")
	write("scripts/run.py", "print('hi')\n")
	write("notes.txt", "not counted\n")
	write(".git/config", "[core]\n")

	stats := map[string]int64{}
	require.NoError(t, collectLanguageStats(root, stats))

	assert.Equal(t, int64(len("package main\n")+len("package lib\n")), stats["Go"])
	assert.Equal(t, int64(len("print('hi')\n")), stats["Python"])
	_, counted := stats["Text"]
	assert.False(t, counted)
	assert.Len(t, stats, 2)
}

func TestReadDescription(t *testing.T) {
	root := t.TempDir()
	readme := "# Widgets\n\nAssembles widgets from parts.\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte(readme), 0o644))

	assert.Equal(t, "Widgets", readDescription(root))

	empty := t.TempDir()
	assert.Equal(t, "", readDescription(empty))
}
