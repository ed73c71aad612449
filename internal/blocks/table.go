package blocks

import (
	"regexp"
	"strings"
)

// region describes a detected table: the half-open line range it occupies
// and the extracted cell matrix.
type region struct {
	start, end int
	headers    []string
	rows       [][]string
}

// findTable locates the first table region in lines. With streaming set,
// the tolerant detector is used so a growing table (no separator row yet,
// trailing half-rows) renders live; for final text only the strict
// header+separator form counts, which drops malformed tail rows.
func findTable(lines []string, streaming bool) (region, bool) {
	if streaming {
		return findLooseTable(lines)
	}
	return findStrictTable(lines)
}

// findStrictTable requires a pipe-delimited header row immediately
// followed by a separator row of dashes/colons.
func findStrictTable(lines []string) (region, bool) {
	for i := 0; i+1 < len(lines); i++ {
		if !isPipeRow(lines[i]) || !isSeparatorRow(lines[i+1]) {
			continue
		}
		headers := splitCells(lines[i])
		if len(headers) == 0 {
			continue
		}

		var rows [][]string
		end := i + 2
		for end < len(lines) && isPipeRow(lines[end]) && !isSeparatorRow(lines[end]) {
			rows = append(rows, normalizeRow(splitCells(lines[end]), len(headers)))
			end++
		}
		return region{start: i, end: end, headers: headers, rows: rows}, true
	}
	return region{}, false
}

// findLooseTable accepts at least two consecutive pipe-delimited rows,
// separator or not. The first row is taken as the header; a separator row,
// if present, is skipped; short rows are padded best-effort.
func findLooseTable(lines []string) (region, bool) {
	for i := 0; i < len(lines); i++ {
		if !isPipeRow(lines[i]) {
			continue
		}
		end := i
		for end < len(lines) && isPipeRow(lines[end]) {
			end++
		}
		if end-i < 2 {
			i = end
			continue
		}

		headers := splitCells(lines[i])
		var rows [][]string
		for _, line := range lines[i+1 : end] {
			if isSeparatorRow(line) {
				continue
			}
			rows = append(rows, normalizeRow(splitCells(line), len(headers)))
		}
		return region{start: i, end: end, headers: headers, rows: rows}, true
	}
	return region{}, false
}

var separatorCellRe = regexp.MustCompile(`^:?-+:?$`)

// isPipeRow reports whether the line looks like a table row.
func isPipeRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.Contains(trimmed, "|") && strings.Count(trimmed, "|") >= 2
}

// isSeparatorRow reports whether the line is a header/body separator such
// as `|---|:---:|`.
func isSeparatorRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.Contains(trimmed, "|") || !strings.Contains(trimmed, "-") {
		return false
	}
	for _, cell := range splitCells(trimmed) {
		if cell == "" {
			continue
		}
		if !separatorCellRe.MatchString(cell) {
			return false
		}
	}
	return true
}

// splitCells splits a pipe row into trimmed cell values, dropping the
// empty leading/trailing fields produced by boundary pipes.
func splitCells(line string) []string {
	parts := strings.Split(strings.TrimSpace(line), "|")
	if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}
	if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// normalizeRow pads or truncates a row to the header width so partially
// streamed rows still line up.
func normalizeRow(cells []string, width int) []string {
	if len(cells) == width {
		return cells
	}
	out := make([]string, width)
	copy(out, cells)
	return out
}
