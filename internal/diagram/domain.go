package diagram

import (
	"fmt"
	"regexp"
	"strings"
)

// Domain repairs run after the generic auto-fix pass. They rewrite valid
// but non-canonical constructs into the dialect the renderers accept, and
// do not count toward the repair abandon threshold.

// ApplyDomainRepairs composes the domain rewrites in a fixed order.
func ApplyDomainRepairs(source string) string {
	if looksLikeER(source) {
		return rewriteCrowsFoot(source)
	}
	s := expandBidirectionalEdges(source)
	s = rewriteParenEdgeLabels(s)
	s = normalizeSubgraphTitles(s)
	s = numberUnlabeledEdges(s)
	return s
}

var bidiEdgeRe = regexp.MustCompile(`(?m)^(\s*)([\w\[\]\(\)\{\}" ]+?)\s*<-->\s*(\|[^|]*\|\s*)?([\w\[\]\(\)\{\}" ]+?)\s*$`)

// expandBidirectionalEdges rewrites `A <--> B` into the two directed edges
// the flowchart grammar understands.
func expandBidirectionalEdges(source string) string {
	return bidiEdgeRe.ReplaceAllStringFunc(source, func(line string) string {
		m := bidiEdgeRe.FindStringSubmatch(line)
		indent, from, label, to := m[1], m[2], m[3], m[4]
		label = strings.TrimSpace(label)
		if label != "" {
			label = label + " "
		}
		return fmt.Sprintf("%s%s -->%s %s\n%s%s -->%s %s",
			indent, from, edgeLabelSuffix(label), to,
			indent, to, edgeLabelSuffix(label), from)
	})
}

func edgeLabelSuffix(label string) string {
	if label == "" {
		return ""
	}
	return strings.TrimSpace(label)
}

// The target must be a bare identifier and the parenthesized text must be
// separated from it by whitespace: round-node syntax like `B(Start)` and
// shaped targets like `B[Box]` are node definitions, not labels, and must
// never be rewritten.
var parenLabelRe = regexp.MustCompile(`(\S+)\s*-->\s*(\w+)[ \t]+\(([^()]+)\)`)

// rewriteParenEdgeLabels converts `A --> B (label)` into the canonical
// labeled-edge form `A -->|label| B`.
func rewriteParenEdgeLabels(source string) string {
	return parenLabelRe.ReplaceAllString(source, "$1 -->|$3| $2")
}

var subgraphTitleRe = regexp.MustCompile(`(?m)^(\s*)subgraph\s+([^\["\n]+?)\s*$`)

// normalizeSubgraphTitles rewrites bare multi-word subgraph titles into
// the id["Title"] form so titles with spaces survive rendering.
func normalizeSubgraphTitles(source string) string {
	return subgraphTitleRe.ReplaceAllStringFunc(source, func(line string) string {
		m := subgraphTitleRe.FindStringSubmatch(line)
		indent, title := m[1], strings.TrimSpace(m[2])
		if !strings.Contains(title, " ") {
			return line
		}
		id := strings.ReplaceAll(title, " ", "")
		id = nonIdentRe.ReplaceAllString(id, "")
		if id == "" {
			id = "group"
		}
		return fmt.Sprintf(`%ssubgraph %s["%s"]`, indent, id, title)
	})
}

var nonIdentRe = regexp.MustCompile(`[^\w]`)

var plainEdgeRe = regexp.MustCompile(`-->(\|[^|]*\|)?`)

// numberUnlabeledEdges injects sequential step numbers onto edges when the
// author labeled none of them, so step order shows visually. Diagrams with
// any hand-written edge label are left untouched.
func numberUnlabeledEdges(source string) string {
	if !isFlowchart(source) {
		return source
	}
	edges := plainEdgeRe.FindAllStringSubmatch(source, -1)
	if len(edges) < 2 {
		return source
	}
	for _, m := range edges {
		if m[1] != "" {
			return source
		}
	}

	step := 0
	return plainEdgeRe.ReplaceAllStringFunc(source, func(string) string {
		step++
		return fmt.Sprintf("-->|%d|", step)
	})
}

func isFlowchart(source string) bool {
	first := strings.TrimSpace(source)
	if idx := strings.IndexByte(first, '\n'); idx >= 0 {
		first = first[:idx]
	}
	return strings.HasPrefix(first, "graph") || strings.HasPrefix(first, "flowchart")
}

// --- entity-relationship rewriting ---

var crowsFootRe = regexp.MustCompile(`\|\|--|--\|\||o\{|\}o|\|o--|--o\||>o--|--o<`)

func looksLikeER(source string) bool {
	if strings.Contains(source, "erDiagram") {
		return true
	}
	return crowsFootRe.MatchString(source) && !strings.Contains(source, "-->")
}

var (
	relationRe = regexp.MustCompile(`(?m)^(\s*)(\w+)\s*([|}o<>][|o{}<>.-]*[|{o<>])\s*(\w+)\s*(:\s*\S.*)?$`)
	fieldRe    = regexp.MustCompile(`^(\s*)(\w+)\s+(\w+)\s*(pk|fk|uk|PK|FK|UK)?\s*$`)
)

// erTypes are field types recognized when normalizing `name type` order.
var erTypes = map[string]bool{
	"int": true, "bigint": true, "float": true, "double": true,
	"string": true, "varchar": true, "text": true, "char": true,
	"bool": true, "boolean": true, "date": true, "datetime": true,
	"timestamp": true, "uuid": true, "decimal": true, "json": true,
}

// rewriteCrowsFoot normalizes crow's-foot relationship notation and entity
// field declarations into the canonical ER grammar: an erDiagram header,
// `||--o{` style relation symbols, and `type name KEY` field lines.
func rewriteCrowsFoot(source string) string {
	s := source
	if !strings.Contains(s, "erDiagram") {
		s = "erDiagram\n" + s
	}

	s = relationRe.ReplaceAllStringFunc(s, func(line string) string {
		m := relationRe.FindStringSubmatch(line)
		indent, left, rel, right, label := m[1], m[2], m[3], m[4], m[5]
		rel = canonicalRelation(rel)
		if label == "" {
			label = ": has"
		}
		return fmt.Sprintf("%s%s %s %s %s", indent, left, rel, right, strings.TrimSpace(label))
	})

	var out []string
	inEntity := false
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasSuffix(trimmed, "{") && !strings.Contains(trimmed, "-") {
			inEntity = true
			out = append(out, line)
			continue
		}
		if trimmed == "}" {
			inEntity = false
			out = append(out, line)
			continue
		}
		if inEntity {
			out = append(out, normalizeERField(line))
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// canonicalRelation maps loose crow's-foot spellings onto the canonical
// symbols. Unrecognized symbols default to one-to-many.
func canonicalRelation(rel string) string {
	switch rel {
	case "||--||", "||--|", "|--|":
		return "||--||"
	case "||--o{", "||--{", "|--o{", ">o--", "--o<":
		return "||--o{"
	case "}o--||", "}--||", "}o--|":
		return "}o--||"
	case "|o--o|", "o--o":
		return "|o--o|"
	case "}o--o{", "o{--}o":
		return "}o--o{"
	}
	return "||--o{"
}

// normalizeERField rewrites `name type [key]` field lines into the
// canonical `type name KEY` order with the key marker uppercased.
func normalizeERField(line string) string {
	m := fieldRe.FindStringSubmatch(line)
	if m == nil {
		return line
	}
	indent, first, second, key := m[1], m[2], m[3], m[4]

	typ, name := first, second
	if !erTypes[strings.ToLower(first)] && erTypes[strings.ToLower(second)] {
		typ, name = second, first
	}

	out := indent + typ + " " + name
	if key != "" {
		out += " " + strings.ToUpper(key)
	}
	return out
}
