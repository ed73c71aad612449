// Package blocks turns a span of answer text into an ordered sequence of
// typed structural blocks. Parsing is a pure function of the text: it is
// safe to call repeatedly on partially streamed input, and re-parsing never
// mutates earlier results.
package blocks

// Kind identifies the concrete type of a Block.
type Kind int

const (
	KindParagraph Kind = iota
	KindHeading
	KindBulletList
	KindNumberedList
	KindTable
	KindCode
	KindDiagram
)

// Block is one structurally classified unit of output. The set of
// implementations is closed; consumers should switch exhaustively on the
// concrete type (or Kind) rather than on string tags.
type Block interface {
	Kind() Kind

	// sealed prevents implementations outside this package.
	sealed()
}

// Paragraph is a run of prose lines joined with single spaces.
type Paragraph struct {
	Text string
}

// Heading is an ATX heading or a heuristic promotion (bold-only line,
// short title-case line, bold-prefixed sub-heading).
type Heading struct {
	Level int // 1..6
	Text  string
}

// BulletList holds consecutive `-`/`*` items. Leading whitespace on an item
// is preserved as a nesting hint for the presenter.
type BulletList struct {
	Items []string
}

// NumberedList holds consecutive ordered-list items with markers stripped.
type NumberedList struct {
	Items []string
}

// Table is a parsed pipe-delimited table. Rows are normalized to the header
// width; cells missing from a partially streamed row are empty strings.
type Table struct {
	Headers []string
	Rows    [][]string
}

// CodeBlock is the content of a fenced code block.
type CodeBlock struct {
	Language string
	Content  string

	// Unterminated marks a fence whose closing delimiter has not arrived
	// yet. Only possible while streaming.
	Unterminated bool
}

// DiagramStatus tracks the rendering lifecycle of a DiagramBlock. The
// parser always emits DiagramPending; the owner of the render pipeline
// re-attaches live status after each parse, keyed on the source hash.
type DiagramStatus int

const (
	DiagramPending DiagramStatus = iota
	DiagramRendering
	DiagramRendered
	DiagramFailed
)

// DiagramBlock is diagram-description source destined for visual rendering.
type DiagramBlock struct {
	Source       string
	Status       DiagramStatus
	SVG          string   // set once Status == DiagramRendered
	ErrorLog     []string // accumulated per-tier failures
	Unterminated bool
}

func (Paragraph) Kind() Kind    { return KindParagraph }
func (Heading) Kind() Kind      { return KindHeading }
func (BulletList) Kind() Kind   { return KindBulletList }
func (NumberedList) Kind() Kind { return KindNumberedList }
func (Table) Kind() Kind        { return KindTable }
func (CodeBlock) Kind() Kind    { return KindCode }
func (DiagramBlock) Kind() Kind { return KindDiagram }

func (Paragraph) sealed()    {}
func (Heading) sealed()      {}
func (BulletList) sealed()   {}
func (NumberedList) sealed() {}
func (Table) sealed()        {}
func (CodeBlock) sealed()    {}
func (DiagramBlock) sealed() {}
