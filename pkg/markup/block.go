package markup

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	headerLine    = regexp.MustCompile(`^\s*(#{1,3})\s+(.*)$`)
	unorderedLine = regexp.MustCompile(`^\s*(?:-|\*|•)\s+(.*)$`)
	orderedLine   = regexp.MustCompile(`^\s*\d+[.)]\s+(.*)$`)
)

// headingBase is the HTML level used for "#". Answers render inside a panel
// that already carries its own page headings.
const headingBase = 3

// Spacer is emitted for each blank line.
const Spacer = "<br>"

type listState int

const (
	stateNone listState = iota
	stateUnordered
	stateOrdered
)

// FormatAnswer converts multi-line answer text into block markup in a single
// pass over its lines. It is pure and never fails.
//
// Lines are classified in priority order: heading (#, ##, ###), unordered item
// (-, *, •), ordered item (1. or 1)), blank line, paragraph. Switching between
// list kinds closes the open list first, and any list still open at the end of
// input is closed.
func FormatAnswer(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return ""
	}

	w := blockWriter{}
	for _, line := range strings.Split(text, "\n") {
		w.line(line)
	}
	w.closeList()
	return w.b.String()
}

type blockWriter struct {
	b     strings.Builder
	state listState
}

func (w *blockWriter) line(line string) {
	if m := headerLine.FindStringSubmatch(line); m != nil {
		w.closeList()
		level := strconv.Itoa(headingBase + len(m[1]) - 1)
		w.b.WriteString("<h" + level + ">")
		w.b.WriteString(ApplyInline(Escape(strings.TrimSpace(m[2]))))
		w.b.WriteString("</h" + level + ">")
		return
	}
	if m := unorderedLine.FindStringSubmatch(line); m != nil {
		w.openList(stateUnordered)
		w.item(m[1])
		return
	}
	if m := orderedLine.FindStringSubmatch(line); m != nil {
		w.openList(stateOrdered)
		w.item(m[1])
		return
	}
	w.closeList()
	if strings.TrimSpace(line) == "" {
		w.b.WriteString(Spacer)
		return
	}
	w.b.WriteString("<p>")
	w.b.WriteString(ApplyInline(Escape(strings.TrimSpace(line))))
	w.b.WriteString("</p>")
}

func (w *blockWriter) item(text string) {
	w.b.WriteString("<li>")
	w.b.WriteString(ApplyInline(Escape(strings.TrimSpace(text))))
	w.b.WriteString("</li>")
}

// openList makes kind the open list, closing a list of the other kind.
func (w *blockWriter) openList(kind listState) {
	if w.state == kind {
		return
	}
	w.closeList()
	switch kind {
	case stateUnordered:
		w.b.WriteString("<ul>")
	case stateOrdered:
		w.b.WriteString("<ol>")
	}
	w.state = kind
}

func (w *blockWriter) closeList() {
	switch w.state {
	case stateUnordered:
		w.b.WriteString("</ul>")
	case stateOrdered:
		w.b.WriteString("</ol>")
	}
	w.state = stateNone
}

// FormatPlain escapes text and turns line breaks into <br>, without any
// markdown handling.
func FormatPlain(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	return strings.ReplaceAll(Escape(text), "\n", Spacer)
}

// Formatter selects between the markdown and plain renderings. The zero value
// formats plain text.
type Formatter struct {
	markdown bool
}

// NewFormatter returns a Formatter; markdown enables FormatAnswer.
func NewFormatter(markdown bool) *Formatter {
	return &Formatter{markdown: markdown}
}

// Markdown reports whether the formatter renders markdown.
func (f *Formatter) Markdown() bool { return f != nil && f.markdown }

// Format renders text according to the formatter's mode.
func (f *Formatter) Format(text string) string {
	if f.Markdown() {
		return FormatAnswer(text)
	}
	return FormatPlain(text)
}
