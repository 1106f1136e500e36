package codeparse

import (
	"regexp"
	"strings"
)

// Declaration scanners. These are deliberately line-based: the pipeline
// needs names, ranges, and docstring presence, not a full AST. Files the
// scanners cannot make sense of simply yield fewer symbols.

var (
	goFuncRe    = regexp.MustCompile(`^func\s+(\([^)]+\)\s+)?([A-Za-z_]\w*)\s*[\(\[]`)
	goTypeRe    = regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s+(struct|interface)\b`)
	goImportRe  = regexp.MustCompile(`^import\s+(?:\w+\s+)?"(.+)"`)
	goImportIn  = regexp.MustCompile(`^\s+(?:\w+\s+)?"(.+)"`)
	pyDefRe     = regexp.MustCompile(`^def\s+([A-Za-z_]\w*)\s*\(`)
	pyClassRe   = regexp.MustCompile(`^class\s+([A-Za-z_]\w*)\s*[\(:]`)
	pyMethodRe  = regexp.MustCompile(`^(\s+)def\s+([A-Za-z_]\w*)\s*\(`)
	pyImportRe  = regexp.MustCompile(`^(?:import|from)\s+([\w.]+)`)
	jsFuncRe    = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s+([A-Za-z_$]\w*)\s*\(`)
	jsArrowRe   = regexp.MustCompile(`^(?:export\s+)?const\s+([A-Za-z_$]\w*)\s*=\s*(?:async\s*)?\(`)
	jsClassRe   = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?class\s+([A-Za-z_$]\w*)`)
	jsImportRe  = regexp.MustCompile(`^import\b.*from\s+['"](.+)['"]`)
	tripleQuote = regexp.MustCompile(`^\s*(?:[rRbBuU]{0,2})("""|''')`)
)

func scanGo(mod *Module, lines []string) {
	inImportBlock := false

	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "package "):
			mod.Doc = lineCommentAbove(lines, i, "//")

		case strings.HasPrefix(line, "import ("):
			inImportBlock = true

		case inImportBlock:
			if strings.HasPrefix(line, ")") {
				inImportBlock = false
			} else if m := goImportIn.FindStringSubmatch(line); m != nil {
				mod.Imports = append(mod.Imports, m[1])
			}

		default:
			if m := goImportRe.FindStringSubmatch(line); m != nil {
				mod.Imports = append(mod.Imports, m[1])
				continue
			}
			if m := goFuncRe.FindStringSubmatch(line); m != nil {
				kind := KindFunction
				if m[1] != "" {
					kind = KindMethod
				}
				end := braceBlockEnd(lines, i)
				mod.Functions = append(mod.Functions, Symbol{
					ID:        symbolID(mod.Path, m[2]),
					Name:      m[2],
					Kind:      kind,
					StartLine: i + 1,
					EndLine:   end + 1,
					Code:      strings.Join(lines[i:end+1], "\n"),
					Docstring: lineCommentAbove(lines, i, "//"),
				})
				continue
			}
			if m := goTypeRe.FindStringSubmatch(line); m != nil {
				end := braceBlockEnd(lines, i)
				mod.Classes = append(mod.Classes, Symbol{
					ID:        symbolID(mod.Path, m[1]),
					Name:      m[1],
					Kind:      KindClass,
					StartLine: i + 1,
					EndLine:   end + 1,
					Code:      strings.Join(lines[i:end+1], "\n"),
					Docstring: lineCommentAbove(lines, i, "//"),
				})
			}
		}
	}
}

func scanPython(mod *Module, lines []string) {
	mod.Doc = pythonDocstring(lines, 0)
	currentClass := ""

	for i, line := range lines {
		if m := pyImportRe.FindStringSubmatch(line); m != nil {
			mod.Imports = append(mod.Imports, m[1])
			continue
		}
		if m := pyClassRe.FindStringSubmatch(line); m != nil {
			currentClass = m[1]
			end := indentBlockEnd(lines, i, 0)
			mod.Classes = append(mod.Classes, Symbol{
				ID:        symbolID(mod.Path, m[1]),
				Name:      m[1],
				Kind:      KindClass,
				StartLine: i + 1,
				EndLine:   end + 1,
				Code:      strings.Join(lines[i:end+1], "\n"),
				Docstring: pythonDocstring(lines, i+1),
			})
			continue
		}
		if m := pyDefRe.FindStringSubmatch(line); m != nil {
			currentClass = ""
			end := indentBlockEnd(lines, i, 0)
			mod.Functions = append(mod.Functions, Symbol{
				ID:        symbolID(mod.Path, m[1]),
				Name:      m[1],
				Kind:      KindFunction,
				StartLine: i + 1,
				EndLine:   end + 1,
				Code:      strings.Join(lines[i:end+1], "\n"),
				Docstring: pythonDocstring(lines, i+1),
			})
			continue
		}
		if m := pyMethodRe.FindStringSubmatch(line); m != nil && currentClass != "" {
			name := currentClass + "." + m[2]
			end := indentBlockEnd(lines, i, len(m[1]))
			mod.Functions = append(mod.Functions, Symbol{
				ID:        symbolID(mod.Path, name),
				Name:      name,
				Kind:      KindMethod,
				StartLine: i + 1,
				EndLine:   end + 1,
				Code:      strings.Join(lines[i:end+1], "\n"),
				Docstring: pythonDocstring(lines, i+1),
			})
		}
	}
}

func scanJavaScript(mod *Module, lines []string) {
	for i, line := range lines {
		if m := jsImportRe.FindStringSubmatch(line); m != nil {
			mod.Imports = append(mod.Imports, m[1])
			continue
		}
		if m := jsClassRe.FindStringSubmatch(line); m != nil {
			end := braceBlockEnd(lines, i)
			mod.Classes = append(mod.Classes, Symbol{
				ID:        symbolID(mod.Path, m[1]),
				Name:      m[1],
				Kind:      KindClass,
				StartLine: i + 1,
				EndLine:   end + 1,
				Code:      strings.Join(lines[i:end+1], "\n"),
				Docstring: jsdocAbove(lines, i),
			})
			continue
		}
		name := ""
		if m := jsFuncRe.FindStringSubmatch(line); m != nil {
			name = m[1]
		} else if m := jsArrowRe.FindStringSubmatch(line); m != nil {
			name = m[1]
		}
		if name != "" {
			end := braceBlockEnd(lines, i)
			mod.Functions = append(mod.Functions, Symbol{
				ID:        symbolID(mod.Path, name),
				Name:      name,
				Kind:      KindFunction,
				StartLine: i + 1,
				EndLine:   end + 1,
				Code:      strings.Join(lines[i:end+1], "\n"),
				Docstring: jsdocAbove(lines, i),
			})
		}
	}
}

// lineCommentAbove collects the contiguous comment block directly above
// line i, trimmed of the comment marker.
func lineCommentAbove(lines []string, i int, marker string) string {
	var block []string
	for j := i - 1; j >= 0; j-- {
		trimmed := strings.TrimSpace(lines[j])
		if !strings.HasPrefix(trimmed, marker) {
			break
		}
		text := strings.TrimSpace(strings.TrimPrefix(trimmed, marker))
		block = append([]string{text}, block...)
	}
	return strings.TrimSpace(strings.Join(block, "\n"))
}

// jsdocAbove collects a /** ... */ block ending directly above line i.
func jsdocAbove(lines []string, i int) string {
	if i == 0 || !strings.HasSuffix(strings.TrimSpace(lines[i-1]), "*/") {
		return ""
	}
	var block []string
	for j := i - 1; j >= 0; j-- {
		trimmed := strings.TrimSpace(lines[j])
		text := strings.TrimSpace(strings.TrimLeft(trimmed, "/* "))
		text = strings.TrimSuffix(text, "*/")
		if text != "" {
			block = append([]string{strings.TrimSpace(text)}, block...)
		}
		if strings.HasPrefix(trimmed, "/*") {
			break
		}
	}
	return strings.TrimSpace(strings.Join(block, "\n"))
}

// pythonDocstring extracts a triple-quoted docstring starting at or just
// after line start, skipping blank lines.
func pythonDocstring(lines []string, start int) string {
	i := start
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i >= len(lines) {
		return ""
	}
	m := tripleQuote.FindStringSubmatch(lines[i])
	if m == nil {
		return ""
	}
	quote := m[1]
	first := lines[i]
	body := first[strings.Index(first, quote)+3:]

	// Single-line docstring
	if idx := strings.Index(body, quote); idx >= 0 {
		return strings.TrimSpace(body[:idx])
	}

	var block []string
	if strings.TrimSpace(body) != "" {
		block = append(block, strings.TrimSpace(body))
	}
	for j := i + 1; j < len(lines); j++ {
		if idx := strings.Index(lines[j], quote); idx >= 0 {
			if text := strings.TrimSpace(lines[j][:idx]); text != "" {
				block = append(block, text)
			}
			break
		}
		block = append(block, strings.TrimSpace(lines[j]))
	}
	return strings.TrimSpace(strings.Join(block, "\n"))
}

// braceBlockEnd finds the line closing the block opened at line start by
// tracking brace depth. Returns start for single-line declarations.
func braceBlockEnd(lines []string, start int) int {
	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		for _, ch := range lines[i] {
			switch ch {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			return i
		}
	}
	return len(lines) - 1
}

// indentBlockEnd finds the last line of an indentation-delimited block
// whose header sits at the given indent width.
func indentBlockEnd(lines []string, start, indent int) int {
	last := start
	for i := start + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		if leadingSpaces(lines[i]) <= indent {
			return last
		}
		last = i
	}
	return last
}

func leadingSpaces(line string) int {
	n := 0
	for _, ch := range line {
		switch ch {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}
