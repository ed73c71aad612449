// render-poc streams a markdown file through the incremental answer
// renderer, the way a chat UI would: target text grows over time while the
// displayed text animates behind it, blocks re-parse live, and diagram
// fences resolve asynchronously through the render pipeline.
//
// Usage:
//
//	render-poc -file answer.md
//	render-poc -file answer.md -instant
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/varunaddh/streamdown/internal/answer"
	"github.com/varunaddh/streamdown/internal/blocks"
	"github.com/varunaddh/streamdown/internal/config"
	"github.com/varunaddh/streamdown/internal/debuglog"
	"github.com/varunaddh/streamdown/internal/diagram"
	"github.com/varunaddh/streamdown/internal/stream"
)

// produceChunk is how much target text "arrives" per producer tick,
// simulating token streaming from a backend.
const produceChunk = 24

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	bulletStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	codeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type model struct {
	renderer *answer.Renderer
	spin     spinner.Model
	tick     time.Duration

	full     string // entire file, the eventual target
	produced int    // how much of it has "arrived"

	snapshot answer.Snapshot
	done     bool
}

type produceMsg struct{}

func produceTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(time.Time) tea.Msg {
		return produceMsg{}
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(stream.TickEvery(m.tick), produceTick(), m.spin.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			retried := false
			for _, b := range m.snapshot.Blocks {
				if d, ok := b.(blocks.DiagramBlock); ok && d.Status == blocks.DiagramFailed {
					m.renderer.RetryDiagram(diagram.KeyFor(d.Source))
					retried = true
				}
			}
			if retried {
				m.done = false
				return m, tea.Batch(stream.TickEvery(m.tick), m.spin.Tick)
			}
		}

	case produceMsg:
		if m.produced < len(m.full) {
			m.produced += produceChunk
			if m.produced > len(m.full) {
				m.produced = len(m.full)
			}
		}
		producing := m.produced < len(m.full)
		m.renderer.Push("poc", m.full[:m.produced], producing)
		if producing {
			return m, produceTick()
		}
		return m, nil

	case stream.TickMsg:
		m.snapshot = m.renderer.Tick()
		if m.snapshot.Complete && !pendingDiagrams(m.snapshot) {
			m.done = true
			return m, nil
		}
		return m, stream.TickEvery(m.tick)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.done {
			return m, nil
		}
		return m, cmd
	}
	return m, nil
}

func pendingDiagrams(snap answer.Snapshot) bool {
	for _, b := range snap.Blocks {
		if d, ok := b.(blocks.DiagramBlock); ok {
			if d.Status == blocks.DiagramPending || d.Status == blocks.DiagramRendering {
				return true
			}
		}
	}
	return false
}

func (m model) View() string {
	var sb strings.Builder
	for _, b := range m.snapshot.Blocks {
		sb.WriteString(renderBlock(b, m.spin.View()))
		sb.WriteString("\n")
	}
	if m.done {
		sb.WriteString(faintStyle.Render("done — press q to quit"))
	} else {
		sb.WriteString(faintStyle.Render(m.spin.View() + " streaming"))
	}
	sb.WriteString("\n")
	return sb.String()
}

func renderBlock(b blocks.Block, spin string) string {
	switch b := b.(type) {
	case blocks.Paragraph:
		return b.Text + "\n"
	case blocks.Heading:
		return headingStyle.Render(strings.Repeat("#", b.Level)+" "+b.Text) + "\n"
	case blocks.BulletList:
		var sb strings.Builder
		for _, item := range b.Items {
			indent := item[:len(item)-len(strings.TrimLeft(item, " \t"))]
			sb.WriteString(indent + bulletStyle.Render("• ") + strings.TrimSpace(item) + "\n")
		}
		return sb.String()
	case blocks.NumberedList:
		var sb strings.Builder
		for i, item := range b.Items {
			sb.WriteString(fmt.Sprintf("%s %s\n", bulletStyle.Render(fmt.Sprintf("%d.", i+1)), item))
		}
		return sb.String()
	case blocks.Table:
		return renderTable(b)
	case blocks.CodeBlock:
		label := b.Language
		if label == "" {
			label = "code"
		}
		return faintStyle.Render("["+label+"]") + "\n" + codeStyle.Render(b.Content) + "\n"
	case blocks.DiagramBlock:
		switch b.Status {
		case blocks.DiagramRendered:
			return faintStyle.Render(fmt.Sprintf("[diagram rendered: %d bytes of svg]", len(b.SVG))) + "\n"
		case blocks.DiagramFailed:
			msg := "[diagram failed"
			if len(b.ErrorLog) > 0 {
				msg += ": " + b.ErrorLog[len(b.ErrorLog)-1]
			}
			return errStyle.Render(msg+" — press r to retry]") + "\n"
		default:
			return faintStyle.Render(spin+" [rendering diagram...]") + "\n"
		}
	}
	return ""
}

// renderTable lays the cell matrix out with columns padded to their widest
// cell. Widths are display widths, so wide runes line up too.
func renderTable(t blocks.Table) string {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && runewidth.StringWidth(cell) > widths[i] {
				widths[i] = runewidth.StringWidth(cell)
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string, style lipgloss.Style) {
		for i, cell := range cells {
			if i >= len(widths) {
				break
			}
			sb.WriteString(style.Render(runewidth.FillRight(cell, widths[i])))
			sb.WriteString("  ")
		}
		sb.WriteString("\n")
	}
	writeRow(t.Headers, headingStyle)
	for _, row := range t.Rows {
		writeRow(row, lipgloss.NewStyle())
	}
	return sb.String()
}

func main() {
	file := flag.String("file", "", "markdown file to stream")
	instant := flag.Bool("instant", false, "render without animation")
	debug := flag.Bool("debug", false, "write a render trace under the config dir")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: render-poc -file answer.md [-instant]")
		os.Exit(1)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading %s: %v\n", *file, err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	var trace *debuglog.TraceLogger
	if *debug {
		dir, err := config.GetConfigDir()
		if err == nil {
			trace, err = debuglog.NewTraceLogger(
				filepath.Join(dir, "traces"),
				time.Now().UTC().Format("20060102-150405"),
			)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "opening trace log: %v\n", err)
			os.Exit(1)
		}
		defer trace.Close()
	}

	pipeline := diagram.NewPipeline(
		diagram.DefaultRenderers(cfg.Render.KrokiURL, cfg.Render.MmdcPath, cfg.Render.MermaidInkURL),
		diagram.Options{
			Theme: diagram.Theme{
				FontFamily: cfg.Render.Theme.FontFamily,
				Primary:    cfg.Render.Theme.Primary,
				Background: cfg.Render.Theme.Background,
				Text:       cfg.Render.Theme.Text,
				Line:       cfg.Render.Theme.Line,
			},
			AttemptTimeout: time.Duration(cfg.Render.TimeoutSeconds) * time.Second,
			WidthHint:      cfg.Render.WidthHint,
			Trace:          trace,
			Persist:        cfg.Render.PersistSVG,
		},
	)
	defer pipeline.Close()

	renderer := answer.NewRenderer(pipeline, answer.NewSeenCache(cfg.Cache.MaxAnswers))

	if *instant {
		snap := renderer.RenderNow("poc", string(data))
		for _, b := range snap.Blocks {
			fmt.Print(renderBlock(b, ""))
		}
		return
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := model{
		renderer: renderer,
		spin:     sp,
		tick:     time.Duration(cfg.Stream.TickMillis) * time.Millisecond,
		full:     string(data),
	}
	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
