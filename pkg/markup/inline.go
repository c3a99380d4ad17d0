package markup

import "strings"

// ApplyInline converts inline markers in an escaped line into markup:
//
//	**x**        -> <strong>x</strong>
//	*x*          -> <em>x</em>
//	`x`          -> <code>x</code>
//	[label](url) -> <a href="url">label</a>
//	http(s)://.. -> <a href="..">..</a>
//
// The line must already have been passed through Escape. The transformer only
// adds tags it writes itself; everything else is copied through unchanged.
//
// Explicit links and bare URLs are recognised in the same left-to-right scan.
// A URL that is the target of an explicit link is consumed together with the
// link syntax, so it is never wrapped a second time. Every other bare URL gets
// exactly one anchor of its own, even when the same address already appeared
// as a link target earlier in the line.
func ApplyInline(escaped string) string {
	var b strings.Builder
	b.Grow(len(escaped) + 32)
	writeInline(&b, escaped, true)
	return b.String()
}

// writeInline scans s once. When links is false (inside an anchor label) no
// anchors are produced, which keeps anchors from nesting.
func writeInline(b *strings.Builder, s string, links bool) {
	for i := 0; i < len(s); {
		switch {
		case s[i] == '`':
			if j := strings.IndexByte(s[i+1:], '`'); j > 0 {
				b.WriteString("<code>")
				b.WriteString(s[i+1 : i+1+j])
				b.WriteString("</code>")
				i += j + 2
				continue
			}
		case s[i] == '[' && links:
			if label, href, n, ok := scanLink(s[i:]); ok {
				openAnchor(b, href)
				writeInline(b, label, false)
				b.WriteString("</a>")
				i += n
				continue
			}
		case strings.HasPrefix(s[i:], "**"):
			if j := strings.Index(s[i+2:], "**"); j > 0 {
				b.WriteString("<strong>")
				writeInline(b, s[i+2:i+2+j], links)
				b.WriteString("</strong>")
				i += j + 4
				continue
			}
		case s[i] == '*':
			if j := closingStar(s[i+1:]); j > 0 {
				b.WriteString("<em>")
				writeInline(b, s[i+1:i+1+j], links)
				b.WriteString("</em>")
				i += j + 2
				continue
			}
		case s[i] == 'h' && links && wordStart(s, i):
			if n := scanURL(s[i:]); n > 0 {
				openAnchor(b, s[i:i+n])
				b.WriteString(s[i : i+n])
				b.WriteString("</a>")
				i += n
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
}

func openAnchor(b *strings.Builder, href string) {
	b.WriteString(`<a href="`)
	b.WriteString(href)
	b.WriteString(`" target="_blank" rel="noopener noreferrer">`)
}

// scanLink matches [label](url) at the start of s. The target must be an
// http or https address without whitespace.
func scanLink(s string) (label, href string, n int, ok bool) {
	end := strings.IndexByte(s, ']')
	if end < 2 || strings.IndexByte(s[1:end], '[') >= 0 {
		return "", "", 0, false
	}
	if end+1 >= len(s) || s[end+1] != '(' {
		return "", "", 0, false
	}
	closeAt := strings.IndexByte(s[end+2:], ')')
	if closeAt <= 0 {
		return "", "", 0, false
	}
	href = s[end+2 : end+2+closeAt]
	if !hasScheme(href) || strings.ContainsAny(href, " \t") {
		return "", "", 0, false
	}
	return s[1:end], href, end + 3 + closeAt, true
}

// closingStar returns the offset of the star closing an emphasis span, or -1.
// The span must be non-empty and must not begin or end with a space. A
// complete **strong** pair inside the span is stepped over.
func closingStar(s string) int {
	if s == "" || s[0] == ' ' {
		return -1
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '*' {
			continue
		}
		if strings.HasPrefix(s[i:], "**") {
			if k := strings.Index(s[i+2:], "**"); k > 0 {
				i += k + 3
				continue
			}
		}
		if i == 0 || s[i-1] == ' ' {
			return -1
		}
		return i
	}
	return -1
}

var urlStops = []string{"&lt;", "&gt;", "&quot;", "&#39;"}

// scanURL returns the length of the bare URL at the start of s, or 0.
// Trailing sentence punctuation is left outside the link.
func scanURL(s string) int {
	if !hasScheme(s) {
		return 0
	}
	n := 0
scan:
	for n < len(s) {
		switch s[n] {
		case ' ', '\t', '`', '[', ']':
			break scan
		case '&':
			for _, stop := range urlStops {
				if strings.HasPrefix(s[n:], stop) {
					break scan
				}
			}
		}
		n++
	}
	for n > 0 && strings.IndexByte(".,;:!?)*", s[n-1]) >= 0 {
		n--
	}
	if n <= len(schemeOf(s)) {
		return 0
	}
	return n
}

func hasScheme(s string) bool { return schemeOf(s) != "" }

func schemeOf(s string) string {
	switch {
	case strings.HasPrefix(s, "https://"):
		return "https://"
	case strings.HasPrefix(s, "http://"):
		return "http://"
	default:
		return ""
	}
}

// wordStart reports whether s[i] does not continue a word, so "xhttp://" is
// left alone.
func wordStart(s string, i int) bool {
	if i == 0 {
		return true
	}
	c := s[i-1]
	return !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '/' || c == '=')
}
