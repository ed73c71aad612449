package diagram

import (
	"regexp"
	"strconv"
	"strings"
)

// IsValidArtifact is the content-prefix validity test for a rendered
// artifact: the root element must be <svg>.
func IsValidArtifact(svg string) bool {
	trimmed := strings.TrimSpace(svg)
	return strings.HasPrefix(trimmed, "<svg") || strings.HasPrefix(trimmed, "<?xml")
}

// looksLikeErrorArtifact detects renderer error output that still parses
// as SVG. Some backends return a syntax-error picture with a 200 status;
// naive validity checks would accept it.
func looksLikeErrorArtifact(svg string) bool {
	if !IsValidArtifact(svg) {
		return true
	}
	lower := strings.ToLower(svg)
	return strings.Contains(lower, "syntax error") ||
		strings.Contains(lower, "parse error") ||
		strings.Contains(lower, "error-icon")
}

var (
	ariaAttrRe = regexp.MustCompile(`\s+(?:aria-[\w-]+|role)="[^"]*"`)
	textTagRe  = regexp.MustCompile(`<text(\s[^>]*)?>`)
	fillAttrRe = regexp.MustCompile(`fill="[^"]*"`)

	widthAttrRe   = regexp.MustCompile(`<svg[^>]*\swidth="([\d.]+)(?:px)?"`)
	viewBoxAttrRe = regexp.MustCompile(`<svg[^>]*\sviewBox="[\d.\s-]*?([\d.]+)\s+[\d.]+"`)
)

// PostProcess cleans a rendered artifact for display: accessibility
// attributes that trip error detection are stripped, and label text gets
// an explicit color (some renderers omit fill, which turns labels
// invisible on dark backgrounds).
func PostProcess(svg string, textColor string) string {
	out := ariaAttrRe.ReplaceAllString(svg, "")
	out = textTagRe.ReplaceAllStringFunc(out, func(tag string) string {
		if fillAttrRe.MatchString(tag) {
			return tag
		}
		return strings.Replace(tag, "<text", `<text fill="`+textColor+`"`, 1)
	})
	return out
}

// FitScale computes the display scale that fits the artifact's native
// width into the available width. Artifacts are never upscaled beyond
// native size.
func FitScale(svg string, availableWidth int) float64 {
	if availableWidth <= 0 {
		return 1
	}
	native := nativeWidth(svg)
	if native <= 0 || native <= float64(availableWidth) {
		return 1
	}
	return float64(availableWidth) / native
}

// nativeWidth reads the artifact's intrinsic width from its width
// attribute, falling back to the viewBox.
func nativeWidth(svg string) float64 {
	if m := widthAttrRe.FindStringSubmatch(svg); m != nil {
		if w, err := strconv.ParseFloat(m[1], 64); err == nil {
			return w
		}
	}
	if m := viewBoxAttrRe.FindStringSubmatch(svg); m != nil {
		if w, err := strconv.ParseFloat(m[1], 64); err == nil {
			return w
		}
	}
	return 0
}
