package diagram

import (
	"strings"
	"testing"
)

func TestStripForeignMarkup(t *testing.T) {
	src := "<script>alert(1)</script>flowchart TD\n" +
		"<div class=\"x\">A --> B</div>\n" +
		"<style>.a { color: red; }</style>"

	got := StripForeignMarkup(src)
	if strings.Contains(got, "<script") || strings.Contains(got, "alert(1)") {
		t.Errorf("script content survived: %q", got)
	}
	if strings.Contains(got, "<div") || strings.Contains(got, "</div>") {
		t.Errorf("tags survived: %q", got)
	}
	if !strings.Contains(got, "A --> B") {
		t.Errorf("diagram content lost: %q", got)
	}
}

func TestStripForeignMarkup_DecodesEntities(t *testing.T) {
	got := StripForeignMarkup("flowchart TD\nA --&gt; B")
	if !strings.Contains(got, "A --> B") {
		t.Errorf("entity not decoded: %q", got)
	}
}

func TestStripForeignMarkup_RemovesCSSRules(t *testing.T) {
	got := StripForeignMarkup("flowchart TD\n.node { fill: #fff; stroke: #000; }\nA --> B")
	if strings.Contains(got, "fill: #fff") {
		t.Errorf("css rule survived: %q", got)
	}

	// Decision nodes use braces too; they must survive.
	got = StripForeignMarkup("flowchart TD\nA{Done?} --> B")
	if !strings.Contains(got, "A{Done?}") {
		t.Errorf("decision node eaten: %q", got)
	}
}

func TestReflow_SingleLine(t *testing.T) {
	got := Reflow("graph TD A --> B B --> C")
	lines := strings.Split(got, "\n")
	if len(lines) < 3 {
		t.Fatalf("expected multi-line output, got %q", got)
	}
	if strings.TrimSpace(lines[0]) != "graph TD" {
		t.Errorf("header line = %q", lines[0])
	}
}

func TestReflow_Semicolons(t *testing.T) {
	got := Reflow("graph TD; A --> B; B --> C")
	if strings.Contains(got, ";") {
		t.Errorf("semicolons survived: %q", got)
	}
	if len(strings.Split(got, "\n")) != 3 {
		t.Errorf("expected 3 lines, got %q", got)
	}
}

func TestReflow_ComplexPassesThrough(t *testing.T) {
	multi := "flowchart TD\nA --> B\nB --> C\nC --> D\nD --> E"
	if got := Reflow(multi); got != multi {
		t.Errorf("multi-line source mutated: %q", got)
	}

	withBlocks := "flowchart TD subgraph api A --> B end"
	if got := Reflow(withBlocks); got != withBlocks {
		t.Errorf("block construct source mutated: %q", got)
	}
}
