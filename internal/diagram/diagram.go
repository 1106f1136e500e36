// Package diagram renders Mermaid.js sources from parsed code structure.
//
// Three diagram families are produced: a module dependency graph, one
// class diagram per module that declares classes, and an architecture
// overview grouping modules by top-level directory. Each diagram renders
// independently; a render failure skips that diagram only.
package diagram

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/autodoc/internal/codeparse"
	"github.com/fyrsmithlabs/autodoc/internal/logging"
)

// ErrNothingToRender indicates the input had no structure to draw.
var ErrNothingToRender = errors.New("nothing to render")

var mermaidIDRe = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Generator renders Mermaid sources.
type Generator struct {
	log *logging.Logger
}

// NewGenerator creates a diagram generator.
func NewGenerator(log *logging.Logger) *Generator {
	return &Generator{log: log.Named("diagram")}
}

// Generate renders all diagrams for the parsed modules. Per-diagram
// failures are collected and returned alongside the diagrams that did
// render.
func (g *Generator) Generate(ctx context.Context, modules []codeparse.Module) (map[string]string, []error) {
	diagrams := make(map[string]string)
	var errs []error

	if src, err := g.ModuleDependencies(modules); err != nil {
		errs = append(errs, fmt.Errorf("module_dependencies: %w", err))
	} else {
		diagrams["module_dependencies"] = src
	}

	for _, mod := range modules {
		if len(mod.Classes) == 0 {
			continue
		}
		name := "classes_" + sanitizeID(mod.Name)
		src, err := g.ClassDiagram(mod)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		diagrams[name] = src
	}

	if src, err := g.Architecture(modules); err != nil {
		errs = append(errs, fmt.Errorf("architecture: %w", err))
	} else {
		diagrams["architecture"] = src
	}

	g.log.Info(ctx, "diagrams generated",
		zap.Int("diagrams", len(diagrams)),
		zap.Int("failures", len(errs)),
	)
	return diagrams, errs
}

// ModuleDependencies draws a graph of intra-repository import edges.
// Modules without internal dependencies are drawn as isolated nodes.
func (g *Generator) ModuleDependencies(modules []codeparse.Module) (string, error) {
	if len(modules) == 0 {
		return "", ErrNothingToRender
	}

	byName := make(map[string]bool, len(modules))
	for _, mod := range modules {
		byName[mod.Name] = true
	}

	var b strings.Builder
	b.WriteString("graph TD\n")

	edges := make(map[string]bool)
	for _, mod := range modules {
		for _, imp := range mod.Imports {
			target := path.Base(strings.ReplaceAll(imp, ".", "/"))
			if !byName[target] || target == mod.Name {
				continue
			}
			edge := fmt.Sprintf("    %s --> %s", sanitizeID(mod.Name), sanitizeID(target))
			edges[edge] = true
		}
	}

	if len(edges) == 0 {
		for _, mod := range modules {
			fmt.Fprintf(&b, "    %s[%s]\n", sanitizeID(mod.Name), mod.Name)
		}
		return b.String(), nil
	}

	sorted := make([]string, 0, len(edges))
	for edge := range edges {
		sorted = append(sorted, edge)
	}
	sort.Strings(sorted)
	for _, edge := range sorted {
		b.WriteString(edge + "\n")
	}
	return b.String(), nil
}

// ClassDiagram draws the module's classes with their methods.
func (g *Generator) ClassDiagram(mod codeparse.Module) (string, error) {
	if len(mod.Classes) == 0 {
		return "", ErrNothingToRender
	}

	var b strings.Builder
	b.WriteString("classDiagram\n")
	for _, class := range mod.Classes {
		id := sanitizeID(class.Name)
		fmt.Fprintf(&b, "    class %s\n", id)
		for _, fn := range mod.Functions {
			if fn.Kind != codeparse.KindMethod {
				continue
			}
			owner, method, found := strings.Cut(fn.Name, ".")
			if found && owner == class.Name {
				fmt.Fprintf(&b, "    %s : +%s()\n", id, method)
			}
		}
	}
	return b.String(), nil
}

// Architecture draws top-level directories and the modules inside them.
func (g *Generator) Architecture(modules []codeparse.Module) (string, error) {
	if len(modules) == 0 {
		return "", ErrNothingToRender
	}

	groups := make(map[string][]string)
	for _, mod := range modules {
		dir := topDir(mod.Path)
		groups[dir] = append(groups[dir], mod.Name)
	}

	dirs := make([]string, 0, len(groups))
	for dir := range groups {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	var b strings.Builder
	b.WriteString("flowchart TD\n")
	for _, dir := range dirs {
		fmt.Fprintf(&b, "    subgraph %s\n", sanitizeID(dir))
		sort.Strings(groups[dir])
		for _, name := range groups[dir] {
			fmt.Fprintf(&b, "        %s_%s[%s]\n", sanitizeID(dir), sanitizeID(name), name)
		}
		b.WriteString("    end\n")
	}
	return b.String(), nil
}

func sanitizeID(s string) string {
	id := mermaidIDRe.ReplaceAllString(s, "_")
	if id == "" {
		id = "unnamed"
	}
	return id
}

func topDir(relPath string) string {
	dir := path.Dir(strings.ReplaceAll(relPath, "\\", "/"))
	if dir == "." {
		return "root"
	}
	parts := strings.SplitN(dir, "/", 2)
	return parts[0]
}
