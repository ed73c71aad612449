package diagram

import (
	"regexp"
	"strings"
)

// maxFixes bounds how many distinct fix categories may fire before repair
// is abandoned. A source needing more than this is too garbled to trust:
// we substitute a known-good template instead of rendering the mutated
// result.
const maxFixes = 3

// fallbackTemplate is the known-good diagram substituted when repair gives
// up.
const fallbackTemplate = `flowchart TD
    A[Diagram could not be repaired] --> B[Showing placeholder]
`

// fixFunc is one independent repair heuristic. It returns the (possibly)
// fixed source and whether it changed anything. Each heuristic is pure so
// it can be tested property-by-property; Repair composes them in a fixed
// order.
type fixFunc func(string) (string, bool)

var fixes = []fixFunc{
	ensureHeader,
	fixDanglingEdges,
	fixDoubledEdges,
	fixSubgraphBrackets,
	reorderClassAssignments,
	dedupeClassDefs,
	fixCommentMarkers,
	normalizeIndent,
}

// Repair runs the syntax validation and auto-fix pipeline. Sources with
// nested grouping constructs are forwarded verbatim: destructive edits on
// nested subgraphs are worse than whatever the renderer makes of them.
// More than maxFixes distinct fix categories means the source is replaced
// with the fallback template.
func Repair(source string) (string, int) {
	if hasNestedSubgraphs(source) {
		return source, 0
	}

	fixed := source
	count := 0
	for _, fix := range fixes {
		var changed bool
		fixed, changed = fix(fixed)
		if changed {
			count++
		}
	}
	if count > maxFixes {
		return fallbackTemplate, count
	}
	return fixed, count
}

// hasNestedSubgraphs reports whether a subgraph opens before a previous
// one closed.
func hasNestedSubgraphs(source string) bool {
	depth := 0
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "subgraph"):
			depth++
			if depth > 1 {
				return true
			}
		case trimmed == "end":
			if depth > 0 {
				depth--
			}
		}
	}
	return false
}

var headerRe = regexp.MustCompile(`(?m)^\s*(graph|flowchart|sequenceDiagram|classDiagram|stateDiagram(-v2)?|erDiagram|gantt|pie|journey|mindmap|timeline)\b`)

var edgeSyntaxRe = regexp.MustCompile(`-->|---|==>|-\.->`)

// ensureHeader inserts a diagram-type declaration when edge syntax is
// present but no declaration leads the source.
func ensureHeader(source string) (string, bool) {
	first := strings.TrimSpace(source)
	if idx := strings.IndexByte(first, '\n'); idx >= 0 {
		first = first[:idx]
	}
	if headerRe.MatchString(first) {
		return source, false
	}
	if !edgeSyntaxRe.MatchString(source) {
		return source, false
	}
	return "flowchart TD\n" + source, true
}

var danglingEdgeRe = regexp.MustCompile(`(?m)(-->|---|==>|-\.->)\s*$`)

// fixDanglingEdges removes arrows that trail off with no target node.
func fixDanglingEdges(source string) (string, bool) {
	if !danglingEdgeRe.MatchString(source) {
		return source, false
	}
	return danglingEdgeRe.ReplaceAllString(source, ""), true
}

var doubledEdgeRe = regexp.MustCompile(`-->\s*-->`)

// fixDoubledEdges collapses accidentally repeated arrows.
func fixDoubledEdges(source string) (string, bool) {
	if !doubledEdgeRe.MatchString(source) {
		return source, false
	}
	out := source
	for doubledEdgeRe.MatchString(out) {
		out = doubledEdgeRe.ReplaceAllString(out, "-->")
	}
	return out, true
}

// fixSubgraphBrackets closes unbalanced brackets on subgraph declaration
// lines, e.g. `subgraph api[API Layer`.
func fixSubgraphBrackets(source string) (string, bool) {
	lines := strings.Split(source, "\n")
	changed := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "subgraph") {
			continue
		}
		opens := strings.Count(line, "[")
		closes := strings.Count(line, "]")
		if opens > closes {
			lines[i] = line + strings.Repeat("]", opens-closes)
			changed = true
		}
	}
	if !changed {
		return source, false
	}
	return strings.Join(lines, "\n"), true
}

var (
	classDefLineRe    = regexp.MustCompile(`^\s*classDef\s+([\w-]+)`)
	classAssignLineRe = regexp.MustCompile(`^\s*class\s+[\w,\s]+\s+([\w-]+)\s*;?\s*$`)
)

// reorderClassAssignments moves `class node style` assignment lines that
// appear before their `classDef` definition so the definition always comes
// first.
func reorderClassAssignments(source string) (string, bool) {
	lines := strings.Split(source, "\n")

	defined := map[string]int{}
	for i, line := range lines {
		if m := classDefLineRe.FindStringSubmatch(line); m != nil {
			defined[m[1]] = i
		}
	}
	if len(defined) == 0 {
		return source, false
	}

	var kept []string
	var moved []string
	for i, line := range lines {
		if m := classAssignLineRe.FindStringSubmatch(line); m != nil {
			if defIdx, ok := defined[m[1]]; ok && defIdx > i {
				moved = append(moved, line)
				continue
			}
		}
		kept = append(kept, line)
	}
	if len(moved) == 0 {
		return source, false
	}
	return strings.Join(append(kept, moved...), "\n"), true
}

// dedupeClassDefs drops duplicate classDef declarations, keeping the last
// occurrence (later declarations are treated as corrections).
func dedupeClassDefs(source string) (string, bool) {
	lines := strings.Split(source, "\n")

	last := map[string]int{}
	for i, line := range lines {
		if m := classDefLineRe.FindStringSubmatch(line); m != nil {
			last[m[1]] = i
		}
	}

	changed := false
	var out []string
	for i, line := range lines {
		if m := classDefLineRe.FindStringSubmatch(line); m != nil {
			if last[m[1]] != i {
				changed = true
				continue
			}
		}
		out = append(out, line)
	}
	if !changed {
		return source, false
	}
	return strings.Join(out, "\n"), true
}

// fixCommentMarkers rewrites `//` comments to the `%%` marker the grammar
// expects, moving inline comments to their own line. URLs are left alone.
func fixCommentMarkers(source string) (string, bool) {
	lines := strings.Split(source, "\n")
	changed := false
	var out []string
	for _, line := range lines {
		idx := findCommentSlash(line)
		if idx < 0 {
			out = append(out, line)
			continue
		}
		changed = true
		code := strings.TrimRight(line[:idx], " \t")
		comment := strings.TrimSpace(line[idx+2:])
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if code != "" {
			out = append(out, code)
		}
		out = append(out, indent+"%% "+comment)
	}
	if !changed {
		return source, false
	}
	return strings.Join(out, "\n"), true
}

// findCommentSlash locates a `//` comment marker, skipping `://` in URLs.
func findCommentSlash(line string) int {
	for i := 0; i+1 < len(line); i++ {
		if line[i] == '/' && line[i+1] == '/' {
			if i > 0 && line[i-1] == ':' {
				i++ // inside a URL scheme
				continue
			}
			return i
		}
	}
	return -1
}

// normalizeIndent re-indents subgraph bodies to a uniform four spaces and
// strips stray indentation from top-level edge lines.
func normalizeIndent(source string) (string, bool) {
	lines := strings.Split(source, "\n")
	changed := false
	depth := 0
	var out []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			out = append(out, "")
			continue
		}

		if trimmed == "end" && depth > 0 {
			depth--
		}

		want := strings.Repeat("    ", depth) + trimmed
		if headerRe.MatchString(trimmed) {
			want = trimmed
		}
		if want != line {
			changed = true
		}
		out = append(out, want)

		if strings.HasPrefix(trimmed, "subgraph") {
			depth++
		}
	}
	if !changed {
		return source, false
	}
	return strings.Join(out, "\n"), true
}
