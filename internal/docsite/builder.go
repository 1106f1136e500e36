package docsite

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/autodoc/internal/logging"
)

// ErrBuild indicates the npm build of the site failed.
var ErrBuild = errors.New("site build failed")

// outputTail limits how much npm output is attached to build errors.
const outputTail = 2048

// Builder runs the npm toolchain to produce the static site.
type Builder struct {
	npm string
	log *logging.Logger
}

// NewBuilder creates a Builder. npmPath overrides the npm binary used;
// empty means "npm" from PATH.
func NewBuilder(npmPath string, log *logging.Logger) *Builder {
	if npmPath == "" {
		npmPath = "npm"
	}
	return &Builder{npm: npmPath, log: log.Named("docsite")}
}

// Build installs dependencies and builds the site rooted at siteDir.
// It returns the path of the build output directory.
func (b *Builder) Build(ctx context.Context, siteDir string) (string, error) {
	if err := b.runNpm(ctx, siteDir, "install", "--no-audit", "--no-fund"); err != nil {
		return "", err
	}
	if err := b.runNpm(ctx, siteDir, "run", "build"); err != nil {
		return "", err
	}
	return filepath.Join(siteDir, "build"), nil
}

func (b *Builder) runNpm(ctx context.Context, dir string, args ...string) error {
	b.log.Info(ctx, "running npm",
		zap.String("dir", dir),
		zap.Strings("args", args),
	)

	cmd := exec.CommandContext(ctx, b.npm, args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: npm %s: %v: %s", ErrBuild, strings.Join(args, " "), err, tail(out.String()))
	}
	return nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= outputTail {
		return s
	}
	return "..." + s[len(s)-outputTail:]
}
