package diagram

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Answers sometimes arrive with diagram source contaminated by surrounding
// HTML, script blocks or stray CSS. None of it may reach a renderer.

var (
	scriptBlockRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleBlockRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)

	// A CSS rule needs a selector starting with . or # and a declaration
	// with a semicolon, which keeps flowchart decision nodes like
	// A{Done?} out of reach.
	cssRuleRe = regexp.MustCompile(`[.#][\w-]+\s*\{[^{}]*;[^{}]*\}`)

	stripPolicy = bluemonday.StrictPolicy()
)

// StripForeignMarkup removes HTML tags, script/style blocks and CSS rules
// from diagram source and decodes HTML entities.
func StripForeignMarkup(source string) string {
	s := scriptBlockRe.ReplaceAllString(source, "")
	s = styleBlockRe.ReplaceAllString(s, "")
	s = cssRuleRe.ReplaceAllString(s, "")

	// StrictPolicy drops every tag and entity-encodes the remaining text;
	// the unescape pass restores literal characters, which also covers
	// entities present in the original source.
	s = stripPolicy.Sanitize(s)
	s = html.UnescapeString(s)

	return strings.TrimSpace(s)
}

// structuralKeywords start statements that belong on their own line when a
// single-line diagram is re-flowed.
var structuralKeywords = []string{
	"subgraph ", "classDef ", "linkStyle ", "style ", "click ", "direction ",
}

var edgeStartRe = regexp.MustCompile(`(\s+)([A-Za-z0-9_]+(\[[^\]]*\]|\([^)]*\)|\{[^{}]*\})?\s*(-->|---|==>|-\.->))`)

// Reflow re-flows single-line diagram text into multi-line form. Complex
// diagrams (more than two newlines, or any block construct) pass through
// unchanged: automatic re-flow must never corrupt block boundaries.
func Reflow(source string) string {
	if strings.Count(source, "\n") > 2 {
		return source
	}
	if strings.Contains(source, "subgraph") ||
		strings.Contains(source, "classDef") ||
		classAssignRe.MatchString(source) {
		return source
	}

	s := strings.ReplaceAll(source, ";", "\n")
	for _, kw := range structuralKeywords {
		s = strings.ReplaceAll(s, " "+kw, "\n"+kw)
	}

	// Break before each edge statement: the whitespace preceding
	// `node --> ...` becomes a newline.
	s = edgeStartRe.ReplaceAllString(s, "\n$2")

	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

var classAssignRe = regexp.MustCompile(`(?m)^\s*class\s+\w`)
