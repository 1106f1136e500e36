package pipeline

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Reporter is the sink for stage-transition and run-completion events.
// Implementations must tolerate any input; the runner swallows reporter
// panics so reporting can never change the run outcome.
type Reporter interface {
	StageStarted(name string)
	StageFinished(name string, status StageStatus, elapsed time.Duration)
	RunCompleted(summary Summary)
}

// SilentReporter discards all events.
type SilentReporter struct{}

func (SilentReporter) StageStarted(string)                              {}
func (SilentReporter) StageFinished(string, StageStatus, time.Duration) {}
func (SilentReporter) RunCompleted(Summary)                             {}

var (
	styleRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	styleOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleFail    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleSkip    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleHeading = lipgloss.NewStyle().Bold(true)
)

// ConsoleReporter prints human-readable progress lines.
type ConsoleReporter struct {
	w io.Writer
}

// NewConsoleReporter writes progress to w, defaulting to stdout.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleReporter{w: w}
}

func (c *ConsoleReporter) StageStarted(name string) {
	fmt.Fprintf(c.w, "%s %s\n", styleRunning.Render("▸"), name)
}

func (c *ConsoleReporter) StageFinished(name string, status StageStatus, elapsed time.Duration) {
	switch status {
	case StatusSucceeded:
		fmt.Fprintf(c.w, "%s %s (%s)\n", styleOK.Render("✓"), name, elapsed.Round(time.Millisecond))
	case StatusPartial:
		fmt.Fprintf(c.w, "%s %s (%s) completed with warnings\n", styleWarn.Render("⚠"), name, elapsed.Round(time.Millisecond))
	case StatusFailed:
		fmt.Fprintf(c.w, "%s %s failed (%s)\n", styleFail.Render("✗"), name, elapsed.Round(time.Millisecond))
	case StatusSkipped:
		fmt.Fprintf(c.w, "%s %s skipped\n", styleSkip.Render("-"), name)
	}
}

func (c *ConsoleReporter) RunCompleted(summary Summary) {
	fmt.Fprintf(c.w, "\n%s %s (%s)\n",
		styleHeading.Render("Run "+string(summary.Status)),
		summary.RepoURL,
		summary.Elapsed.Round(time.Millisecond),
	)
	if summary.BuildPath != "" {
		fmt.Fprintf(c.w, "  site: %s\n", summary.BuildPath)
	}
	fmt.Fprintf(c.w, "  files: %d  functions: %d  classes: %d  diagrams: %d\n",
		summary.Stats.FilesProcessed,
		summary.Stats.FunctionsDocumented,
		summary.Stats.ClassesDocumented,
		summary.Stats.DiagramsGenerated,
	)
	for _, e := range summary.Errors {
		fmt.Fprintf(c.w, "  %s %s\n", styleFail.Render("!"), e.Error())
	}
}
