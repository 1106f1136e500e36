// Package codeparse extracts code structure from a cloned repository.
//
// It walks the file tree, filters files by language and size, and scans
// each supported source file for top-level declarations. The result is an
// ordered sequence of module descriptors consumed by the documentation
// pipeline. Per-file failures are collected and reported without aborting
// the walk.
package codeparse

import "fmt"

// Kind categorizes an extracted symbol.
type Kind string

const (
	KindFunction Kind = "function"
	KindClass    Kind = "class"
	KindMethod   Kind = "method"
)

// Symbol is one declared function, method, or class/type.
type Symbol struct {
	// ID uniquely identifies the symbol within the run: "<path>#<name>".
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      Kind   `json:"kind"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Code      string `json:"code"`
	Docstring string `json:"docstring,omitempty"`
}

// HasDocstring reports whether the symbol already carries documentation.
func (s Symbol) HasDocstring() bool { return s.Docstring != "" }

// Module describes one parsed source file.
type Module struct {
	// Name is the file basename without extension.
	Name string `json:"name"`
	// Path is the file path relative to the repository root.
	Path      string   `json:"path"`
	Language  string   `json:"language"`
	Doc       string   `json:"doc,omitempty"`
	Imports   []string `json:"imports,omitempty"`
	Functions []Symbol `json:"functions,omitempty"`
	Classes   []Symbol `json:"classes,omitempty"`
}

// Symbols returns all extracted symbols of the module, functions first.
func (m Module) Symbols() []Symbol {
	out := make([]Symbol, 0, len(m.Functions)+len(m.Classes))
	out = append(out, m.Functions...)
	out = append(out, m.Classes...)
	return out
}

// FileError records a per-file parse failure. These are non-fatal: the
// offending file is skipped and the walk continues.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error { return e.Err }
