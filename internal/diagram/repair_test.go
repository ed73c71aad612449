package diagram

import (
	"strings"
	"testing"
)

func TestEnsureHeader(t *testing.T) {
	src := "A --> B\nB --> C"
	fixed, changed := ensureHeader(src)
	if !changed {
		t.Fatal("expected header insertion")
	}
	if !strings.HasPrefix(fixed, "flowchart TD\n") {
		t.Errorf("fixed = %q", fixed)
	}

	// Already declared: untouched.
	if _, changed := ensureHeader("flowchart LR\nA --> B"); changed {
		t.Error("declared header should not be touched")
	}

	// No edge syntax: nothing to declare for.
	if _, changed := ensureHeader("just some text"); changed {
		t.Error("no edges means no header insertion")
	}
}

func TestFixDanglingEdges(t *testing.T) {
	src := "flowchart TD\nA --> B\nB -->\nC --> D"
	fixed, changed := fixDanglingEdges(src)
	if !changed {
		t.Fatal("expected dangling edge fix")
	}
	for _, line := range strings.Split(fixed, "\n") {
		if strings.HasSuffix(strings.TrimSpace(line), "-->") {
			t.Errorf("dangling arrow survived: %q", line)
		}
	}
}

func TestFixDoubledEdges(t *testing.T) {
	fixed, changed := fixDoubledEdges("A --> --> B")
	if !changed || strings.Contains(fixed, "--> -->") {
		t.Errorf("fixed = %q, changed = %v", fixed, changed)
	}
}

func TestFixSubgraphBrackets(t *testing.T) {
	fixed, changed := fixSubgraphBrackets("subgraph api[API Layer\nA --> B\nend")
	if !changed {
		t.Fatal("expected bracket fix")
	}
	if !strings.Contains(fixed, "subgraph api[API Layer]") {
		t.Errorf("fixed = %q", fixed)
	}
}

func TestReorderClassAssignments(t *testing.T) {
	src := strings.Join([]string{
		"flowchart TD",
		"class A hot",
		"A --> B",
		"classDef hot fill:#f00",
	}, "\n")

	fixed, changed := reorderClassAssignments(src)
	if !changed {
		t.Fatal("expected reorder")
	}
	defIdx := strings.Index(fixed, "classDef hot")
	useIdx := strings.Index(fixed, "class A hot")
	if defIdx < 0 || useIdx < 0 || useIdx < defIdx {
		t.Errorf("assignment still precedes definition:\n%s", fixed)
	}
}

func TestDedupeClassDefs(t *testing.T) {
	src := "flowchart TD\nclassDef hot fill:#f00\nA --> B\nclassDef hot fill:#0f0"
	fixed, changed := dedupeClassDefs(src)
	if !changed {
		t.Fatal("expected dedupe")
	}
	if strings.Count(fixed, "classDef hot") != 1 {
		t.Errorf("fixed = %q", fixed)
	}
	if !strings.Contains(fixed, "fill:#0f0") {
		t.Error("dedupe should keep the last definition")
	}
}

func TestFixCommentMarkers(t *testing.T) {
	src := "flowchart TD\nA --> B // main path\n%% already fine"
	fixed, changed := fixCommentMarkers(src)
	if !changed {
		t.Fatal("expected comment rewrite")
	}
	if strings.Contains(fixed, "//") {
		t.Errorf("slash comment survived: %q", fixed)
	}
	if !strings.Contains(fixed, "%% main path") {
		t.Errorf("comment not rewritten: %q", fixed)
	}
	// The code before the inline comment stays on its own line.
	if !strings.Contains(fixed, "A --> B\n") {
		t.Errorf("code part lost: %q", fixed)
	}
}

func TestFixCommentMarkers_SkipsURLs(t *testing.T) {
	src := `click A "https://example.com/docs"`
	_, changed := fixCommentMarkers(src)
	if changed {
		t.Error("URL should not be treated as a comment")
	}
}

func TestRepair_NestedSubgraphsForwardedVerbatim(t *testing.T) {
	src := strings.Join([]string{
		"flowchart TD",
		"subgraph outer",
		"subgraph inner",
		"A --> --> B", // would normally be fixed
		"end",
		"end",
	}, "\n")

	fixed, count := Repair(src)
	if fixed != src || count != 0 {
		t.Errorf("nested subgraph source was edited (count=%d):\n%s", count, fixed)
	}
}

func TestRepair_AbandonsAfterTooManyFixes(t *testing.T) {
	// Missing header, dangling edge, doubled edge, broken bracket and a
	// slash comment: far past the threshold.
	src := strings.Join([]string{
		"A --> --> B",
		"B -->",
		"subgraph sg[Broken",
		"C --> D // step",
		"end",
	}, "\n")

	fixed, count := Repair(src)
	if count <= maxFixes {
		t.Fatalf("fix count = %d, want > %d", count, maxFixes)
	}
	if fixed != fallbackTemplate {
		t.Errorf("expected fallback template, got:\n%s", fixed)
	}
}

func TestRepair_CleanSourcePassesThrough(t *testing.T) {
	src := "flowchart TD\nA --> B\nB --> C"
	fixed, count := Repair(src)
	if count != 0 {
		t.Errorf("clean source incremented fix counter: %d", count)
	}
	if fixed != src {
		t.Errorf("clean source mutated:\n%s", fixed)
	}
}
