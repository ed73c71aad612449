package highlight

import (
	"strings"
	"testing"
)

func TestHighlightAnnotatesKnownLanguage(t *testing.T) {
	out := Highlight(`fmt.Println("hi")`, "go")
	if !strings.Contains(out, "<span class=") {
		t.Errorf("no class-annotated spans in %q", out)
	}
	if !strings.Contains(out, "Println") {
		t.Errorf("token text lost: %q", out)
	}
}

func TestHighlightEscapesUnknownLanguage(t *testing.T) {
	out := Highlight(`if x < 3 && y > 1 { "s" }`, "no-such-lang")
	if strings.Contains(out, "<span") {
		t.Errorf("unknown language should not be tokenized: %q", out)
	}
	for _, want := range []string{"&lt;", "&gt;", "&amp;&amp;", "&#34;s&#34;"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing escaped %q", out, want)
		}
	}
}

func TestHighlightEmptyLanguage(t *testing.T) {
	out := Highlight("<b>plain</b>", "")
	if out != "&lt;b&gt;plain&lt;/b&gt;" {
		t.Errorf("empty language = %q, want escaped plain text", out)
	}
}

func TestHighlightAliases(t *testing.T) {
	// Common LLM-emitted tags must resolve through the alias table.
	for _, lang := range []string{"js", "ts", "py", "golang", "shell", "sh", "yml", "c++"} {
		if !Supported(lang) {
			t.Errorf("alias %q did not resolve to a lexer", lang)
		}
	}
	if Supported("definitely-not-a-language") {
		t.Error("nonsense tag resolved to a lexer")
	}
}

func TestHighlightNoPreWrapper(t *testing.T) {
	out := Highlight("x = 1", "python")
	if strings.Contains(out, "<pre") {
		t.Errorf("formatter wrapped output in <pre>: %q", out)
	}
}

func TestHighlightCaseInsensitiveTag(t *testing.T) {
	a := Highlight("SELECT 1;", "SQL")
	b := Highlight("SELECT 1;", "sql")
	if a != b {
		t.Error("language tag lookup is case sensitive")
	}
	if !strings.Contains(a, "<span class=") {
		t.Errorf("sql not tokenized: %q", a)
	}
}
