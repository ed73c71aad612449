package blocks

import (
	"regexp"
	"strings"
	"unicode"
)

// titleMaxWords bounds the short title-case heading heuristic. The exact
// value is a tuning knob, not a contract; see promoteTitleLine.
const titleMaxWords = 8

// Parse classifies final (fully streamed) text into blocks. It is a pure
// function: it never panics and returns at least one Paragraph for any
// non-blank input.
func Parse(text string) []Block {
	return parse(text, false)
}

// ParseStreaming classifies text that is still growing. It differs from
// Parse in two ways: the tolerant partial-table detector is active so a
// growing table renders live, and an unclosed fence at the tail is emitted
// as an unterminated code/diagram block instead of prose.
func ParseStreaming(text string) []Block {
	return parse(text, true)
}

func parse(text string, streaming bool) []Block {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []Block
	for _, seg := range splitFenced(text) {
		if seg.code {
			if b, ok := codeSegmentBlock(seg); ok {
				out = append(out, b)
			}
			continue
		}
		out = append(out, parseProse(seg.text, streaming)...)
	}

	if len(out) == 0 {
		// Nothing classified; degrade to plain prose rather than dropping
		// the text on the floor.
		out = append(out, Paragraph{Text: strings.TrimSpace(text)})
	}
	return out
}

// segment is a fence-delimited slice of the input: prose between fences,
// or the interior of a fenced block.
type segment struct {
	code         bool
	lang         string
	text         string
	unterminated bool
}

// splitFenced splits text on fenced-code delimiters. The fence grammar
// follows the usual rules: an opening run of backticks or tildes with an
// optional info string, closed by a run of at least the same length of the
// same character. An unclosed fence swallows the rest of the input.
func splitFenced(text string) []segment {
	lines := strings.Split(text, "\n")
	var segs []segment

	var prose []string
	flushProse := func() {
		if len(prose) > 0 {
			segs = append(segs, segment{text: strings.Join(prose, "\n")})
			prose = nil
		}
	}

	i := 0
	for i < len(lines) {
		trimmed := strings.TrimLeft(lines[i], " \t")
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			flushProse()
			char, length, indent := parseFence(lines[i])
			lang := strings.TrimSpace(trimmed[length:])

			var body []string
			closed := false
			i++
			for i < len(lines) {
				if isClosingFence(lines[i], char, length, indent) {
					closed = true
					i++
					break
				}
				body = append(body, lines[i])
				i++
			}
			segs = append(segs, segment{
				code:         true,
				lang:         lang,
				text:         strings.Join(body, "\n"),
				unterminated: !closed,
			})
			continue
		}
		prose = append(prose, lines[i])
		i++
	}
	flushProse()
	return segs
}

// codeSegmentBlock converts a fenced segment into a CodeBlock or, when the
// language tag or content shape matches a diagram grammar, a DiagramBlock.
func codeSegmentBlock(seg segment) (Block, bool) {
	lang := seg.lang
	content := seg.text

	// Some answers put the language on the first line of the body instead
	// of the fence info string.
	if lang == "" {
		first, rest, _ := strings.Cut(content, "\n")
		if bareIdentRe.MatchString(strings.TrimSpace(first)) && rest != "" {
			lang = strings.TrimSpace(first)
			content = rest
		}
	}

	if content == "" && lang == "" {
		return nil, false
	}

	if isDiagramLanguage(lang) || startsWithDiagramKeyword(content) {
		return DiagramBlock{Source: content, Unterminated: seg.unterminated}, true
	}
	return CodeBlock{Language: lang, Content: content, Unterminated: seg.unterminated}, true
}

var bareIdentRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+#-]{0,19}$`)

// diagramKeywords are the grammar openers that mark text as diagram source
// even when no fence language was declared.
var diagramKeywords = []string{
	"graph", "flowchart", "sequenceDiagram", "classDiagram",
	"stateDiagram", "stateDiagram-v2", "erDiagram", "gantt",
	"pie", "journey", "mindmap", "timeline",
}

func isDiagramLanguage(lang string) bool {
	return strings.EqualFold(lang, "mermaid")
}

func startsWithDiagramKeyword(content string) bool {
	first, _, _ := strings.Cut(strings.TrimSpace(content), "\n")
	word, _, _ := strings.Cut(strings.TrimSpace(first), " ")
	word = strings.TrimSuffix(word, ";")
	for _, kw := range diagramKeywords {
		if word == kw {
			return true
		}
	}
	return false
}

// parseProse classifies a fence-free span line by line. A detected table
// region splits the span: text before and after is parsed recursively.
func parseProse(text string, streaming bool) []Block {
	lines := strings.Split(text, "\n")

	if region, ok := findTable(lines, streaming); ok {
		var out []Block
		if region.start > 0 {
			out = append(out, parseProse(strings.Join(lines[:region.start], "\n"), streaming)...)
		}
		out = append(out, Table{Headers: region.headers, Rows: region.rows})
		if region.end < len(lines) {
			out = append(out, parseProse(strings.Join(lines[region.end:], "\n"), streaming)...)
		}
		return out
	}

	return classifyLines(lines)
}

var (
	atxHeadingRe  = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*#*\s*$`)
	boldOnlyRe    = regexp.MustCompile(`^\*\*(.+?)\*\*:?\s*$`)
	orderedItemRe = regexp.MustCompile(`^\s*(\d{1,3})[.)]\s+(.*)$`)
	boldPrefixRe  = regexp.MustCompile(`^\*\*(.+?)\*\*[:.]?\s+(\S.*)$`)
	bulletItemRe  = regexp.MustCompile(`^(\s*)[-*]\s+(.*)$`)
)

// classifyLines runs the line heuristics in priority order and coalesces
// consecutive same-type lines into single blocks.
func classifyLines(lines []string) []Block {
	var out []Block
	var para []string
	var bullets []string
	var numbered []string

	flushPara := func() {
		if len(para) > 0 {
			out = append(out, Paragraph{Text: strings.Join(para, " ")})
			para = nil
		}
	}
	flushBullets := func() {
		if len(bullets) > 0 {
			out = append(out, BulletList{Items: bullets})
			bullets = nil
		}
	}
	flushNumbered := func() {
		if len(numbered) > 0 {
			out = append(out, NumberedList{Items: numbered})
			numbered = nil
		}
	}
	flushAll := func() {
		flushPara()
		flushBullets()
		flushNumbered()
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flushAll()
			continue
		}

		if m := atxHeadingRe.FindStringSubmatch(trimmed); m != nil {
			flushAll()
			out = append(out, Heading{Level: len(m[1]), Text: stripBold(m[2])})
			continue
		}

		if m := boldOnlyRe.FindStringSubmatch(trimmed); m != nil {
			flushAll()
			out = append(out, Heading{Level: 3, Text: m[1]})
			continue
		}

		if promoteTitleLine(trimmed) {
			flushAll()
			out = append(out, Heading{Level: 4, Text: trimmed})
			continue
		}

		if m := orderedItemRe.FindStringSubmatch(line); m != nil {
			flushPara()
			flushBullets()
			numbered = append(numbered, stripBold(m[2]))
			continue
		}

		if m := boldPrefixRe.FindStringSubmatch(trimmed); m != nil {
			flushAll()
			out = append(out, Heading{Level: 4, Text: m[1]})
			out = append(out, Paragraph{Text: m[2]})
			continue
		}

		if m := bulletItemRe.FindStringSubmatch(line); m != nil {
			flushPara()
			flushNumbered()
			bullets = append(bullets, m[1]+stripBold(m[2]))
			continue
		}

		flushBullets()
		flushNumbered()
		para = append(para, trimmed)
	}
	flushAll()
	return out
}

// promoteTitleLine reports whether a short Title-Case line should be
// promoted to a sub-heading. This is a best-effort heuristic and can
// misread a short declarative sentence; it is isolated here so it can be
// tuned or disabled without touching the classifier.
func promoteTitleLine(line string) bool {
	words := strings.Fields(line)
	if len(words) < 2 || len(words) > titleMaxWords {
		return false
	}

	first, _ := firstRune(line)
	if !unicode.IsUpper(first) {
		return false
	}

	last, _ := lastRune(line)
	switch last {
	case '.', '!', '?', ',', ';', ':':
		return false
	}

	// Most significant words should be capitalized for a title reading.
	capped := 0
	for _, w := range words {
		r, _ := firstRune(w)
		if unicode.IsUpper(r) || unicode.IsDigit(r) {
			capped++
		}
	}
	return capped*2 >= len(words)
}

// stripBold removes paired ** markers so heading and list text is stored
// unstyled. Unpaired markers are left alone (they may still be streaming).
func stripBold(s string) string {
	if strings.Count(s, "**")%2 != 0 {
		return s
	}
	return strings.ReplaceAll(s, "**", "")
}

func firstRune(s string) (rune, bool) {
	for _, r := range s {
		return r, true
	}
	return 0, false
}

func lastRune(s string) (rune, bool) {
	var out rune
	ok := false
	for _, r := range s {
		out = r
		ok = true
	}
	return out, ok
}

// parseFence extracts fence info from a fence opening line.
func parseFence(line string) (char rune, length int, indent int) {
	indent = countLeadingSpaces(line)
	trimmed := strings.TrimLeft(line, " \t")

	if len(trimmed) == 0 {
		return 0, 0, 0
	}

	char = rune(trimmed[0])
	for _, c := range trimmed {
		if c == char {
			length++
		} else {
			break
		}
	}
	return char, length, indent
}

// isClosingFence reports whether line closes a fence opened with the given
// character, length and indentation.
func isClosingFence(line string, openChar rune, openLen int, openIndent int) bool {
	indent := countLeadingSpaces(line)
	if indent > 3 && indent > openIndent+3 {
		return false
	}

	trimmed := strings.TrimLeft(line, " \t")
	if len(trimmed) == 0 || rune(trimmed[0]) != openChar {
		return false
	}

	fenceLen := 0
	for _, c := range trimmed {
		if c == openChar {
			fenceLen++
		} else if c == ' ' || c == '\t' || c == '\r' {
			break
		} else {
			return false
		}
	}
	return fenceLen >= openLen
}

// countLeadingSpaces treats tabs as single columns, which is good enough
// for fence indent comparison.
func countLeadingSpaces(line string) int {
	count := 0
	for _, c := range line {
		if c == ' ' || c == '\t' {
			count++
		} else {
			break
		}
	}
	return count
}
