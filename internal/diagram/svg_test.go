package diagram

import (
	"strings"
	"testing"
)

func TestIsValidArtifact(t *testing.T) {
	if !IsValidArtifact(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`) {
		t.Error("svg root rejected")
	}
	if !IsValidArtifact("\n  <svg></svg>") {
		t.Error("leading whitespace rejected")
	}
	if IsValidArtifact("<html><body>error</body></html>") {
		t.Error("html accepted as artifact")
	}
	if IsValidArtifact("") {
		t.Error("empty accepted as artifact")
	}
}

func TestLooksLikeErrorArtifact(t *testing.T) {
	if looksLikeErrorArtifact("<svg><text>fine</text></svg>") {
		t.Error("healthy artifact flagged")
	}
	if !looksLikeErrorArtifact("<svg><text>Syntax error in text</text></svg>") {
		t.Error("syntax error artifact not flagged")
	}
	if !looksLikeErrorArtifact("not svg at all") {
		t.Error("non-svg not flagged")
	}
}

func TestPostProcess_StripsAriaAttributes(t *testing.T) {
	svg := `<svg aria-roledescription="error" role="graphics-document"><g aria-label="x"></g></svg>`
	got := PostProcess(svg, "#fff")
	if strings.Contains(got, "aria-") || strings.Contains(got, `role="`) {
		t.Errorf("accessibility attributes survived: %q", got)
	}
	// Stripping must keep the artifact healthy-looking to the error
	// detector afterwards.
	if looksLikeErrorArtifact(got) {
		t.Errorf("post-processed artifact misread as error: %q", got)
	}
}

func TestPostProcess_ForcesTextFill(t *testing.T) {
	svg := `<svg><text x="1">label</text><text fill="#000">kept</text></svg>`
	got := PostProcess(svg, "#e2e8f0")
	if !strings.Contains(got, `<text fill="#e2e8f0" x="1">`) {
		t.Errorf("missing fill not injected: %q", got)
	}
	if !strings.Contains(got, `<text fill="#000">`) {
		t.Errorf("existing fill overwritten: %q", got)
	}
}

func TestFitScale(t *testing.T) {
	wide := `<svg width="1000" height="400"></svg>`
	if got := FitScale(wide, 500); got != 0.5 {
		t.Errorf("FitScale(wide, 500) = %v, want 0.5", got)
	}

	narrow := `<svg width="300"></svg>`
	if got := FitScale(narrow, 500); got != 1 {
		t.Errorf("narrow artifact should never upscale, got %v", got)
	}

	viewBoxOnly := `<svg viewBox="0 0 800 600"></svg>`
	if got := FitScale(viewBoxOnly, 400); got != 0.5 {
		t.Errorf("FitScale(viewBox, 400) = %v, want 0.5", got)
	}

	if got := FitScale("<svg></svg>", 400); got != 1 {
		t.Errorf("unknown width should default to 1, got %v", got)
	}
	if got := FitScale(wide, 0); got != 1 {
		t.Errorf("no width hint should default to 1, got %v", got)
	}
}
