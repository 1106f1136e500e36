package pipeline

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConsoleReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	r.StageStarted(StageClone)
	r.StageFinished(StageClone, StatusSucceeded, 120*time.Millisecond)
	r.StageFinished(StageSummarize, StatusPartial, time.Second)
	r.StageFinished(StageBuild, StatusFailed, time.Second)
	r.StageFinished(StageTranslate, StatusSkipped, 0)

	out := buf.String()
	assert.Contains(t, out, "repository-clone (120ms)")
	assert.Contains(t, out, "summarize (1s) completed with warnings")
	assert.Contains(t, out, "build failed")
	assert.Contains(t, out, "translate skipped")
}

func TestConsoleReporterRunCompleted(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	r.RunCompleted(Summary{
		RepoURL:   "https://github.com/acme/widgets",
		Status:    RunSucceededWithWarnings,
		BuildPath: "/tmp/site/build",
		Elapsed:   90 * time.Second,
		Stats:     Stats{FilesProcessed: 12, FunctionsDocumented: 40},
		Errors:    []StageError{{Stage: StageSummarize, Kind: ErrorRateLimited, Message: "429"}},
	})

	out := buf.String()
	assert.Contains(t, out, "Run succeeded-with-warnings")
	assert.Contains(t, out, "site: /tmp/site/build")
	assert.Contains(t, out, "files: 12")
	assert.Contains(t, out, "summarize: [rate_limited] 429")
}
