package diagram

import "strings"

// Theme holds the typography and color tokens injected into diagrams that
// carry no init directive of their own, so rendered artifacts look
// consistent regardless of source.
type Theme struct {
	FontFamily string
	Primary    string
	Background string
	Text       string
	Line       string
}

// DefaultTheme matches the dark presentation the host UI uses.
func DefaultTheme() Theme {
	return Theme{
		FontFamily: "Inter, ui-sans-serif, system-ui",
		Primary:    "#6366f1",
		Background: "#1e1e2e",
		Text:       "#e2e8f0",
		Line:       "#94a3b8",
	}
}

// InjectTheme prepends an init directive with the theme tokens unless the
// source already declares one. Author directives always win.
func InjectTheme(source string, theme Theme) string {
	if strings.Contains(source, "%%{init") {
		return source
	}
	directive := `%%{init: {"theme": "base", "themeVariables": {` +
		`"fontFamily": "` + theme.FontFamily + `", ` +
		`"primaryColor": "` + theme.Primary + `", ` +
		`"primaryTextColor": "` + theme.Text + `", ` +
		`"background": "` + theme.Background + `", ` +
		`"lineColor": "` + theme.Line + `"}}}%%`
	return directive + "\n" + source
}
