// Package markup turns loosely structured answer text into HTML that is safe to
// insert into a page.
//
// All text reaching the output passes through Escape exactly once before any
// inline or block transform runs. Escape is not idempotent: escaping twice
// yields "&amp;amp;", so callers must never escape already escaped text.
package markup

import (
	"strings"
	"unicode"
)

// replacement is written for control characters. Numeric references to most
// control characters are parse errors in HTML, so they are replaced rather
// than encoded.
const replacement = "&#xFFFD;"

// Escape maps &, <, >, " and ' to character references and replaces control
// characters other than tab and newline. It never fails.
func Escape(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/8)
	for _, r := range text {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#39;")
		case '\t', '\n':
			b.WriteRune(r)
		default:
			if unicode.IsControl(r) {
				b.WriteString(replacement)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
