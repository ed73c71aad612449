// Package highlight annotates code-block content with semantic token
// classes for display. Output is HTML-safe markup with class-tagged spans;
// the host decides the actual colors.
package highlight

import (
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// aliases maps the language tags LLM answers commonly emit onto lexer
// names chroma knows.
var aliases = map[string]string{
	"js":         "javascript",
	"ts":         "typescript",
	"py":         "python",
	"golang":     "go",
	"shell":      "bash",
	"sh":         "bash",
	"zsh":        "bash",
	"c++":        "cpp",
	"c#":         "csharp",
	"yml":        "yaml",
	"psql":       "postgresql",
	"node":       "javascript",
	"jsx":        "react",
	"tsx":        "typescript",
	"dockerfile": "docker",
}

// Highlight tokenizes code for the declared language and returns HTML-safe
// markup with class-annotated spans. Unknown languages and tokenizer
// failures degrade to escaped plain text, never an error.
func Highlight(code, language string) string {
	lexer := lookupLexer(language)
	if lexer == nil {
		return html.EscapeString(code)
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return html.EscapeString(code)
	}

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	// Classes instead of inline styles: the host stylesheet owns colors,
	// the formatter only assigns semantic class names.
	formatter := chromahtml.New(
		chromahtml.WithClasses(true),
		chromahtml.PreventSurroundingPre(true),
	)

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return html.EscapeString(code)
	}
	return buf.String()
}

// lookupLexer resolves a language tag, applying the alias table first.
func lookupLexer(language string) chroma.Lexer {
	lang := strings.ToLower(strings.TrimSpace(language))
	if lang == "" {
		return nil
	}
	if mapped, ok := aliases[lang]; ok {
		lang = mapped
	}
	return lexers.Get(lang)
}

// Supported reports whether a language tag resolves to a known lexer.
func Supported(language string) bool {
	return lookupLexer(language) != nil
}
