package view

import (
	"fmt"
	"math"
	"strings"
)

// symbolDecorations are stripped for display only.
var symbolDecorations = []string{"=X", "-USD"}

// DisplaySymbol removes ticker decorations ("EURUSD=X" -> "EURUSD",
// "BTC-USD" -> "BTC", "^GSPC" -> "GSPC").
func DisplaySymbol(sym string) string {
	s := strings.TrimPrefix(sym, "^")
	for _, d := range symbolDecorations {
		s = strings.TrimSuffix(s, d)
	}
	if s == "" {
		return sym
	}
	return s
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	start := len(s) % 3
	if start > 0 {
		b.WriteString(s[:start])
	}
	for i := start; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatPrice shows FX-sized prices with four decimals and everything else
// with two, grouping thousands.
func FormatPrice(p float64) string {
	switch {
	case math.IsNaN(p) || math.IsInf(p, 0):
		return "—"
	case math.Abs(p) < 10:
		return fmt.Sprintf("%.4f", p)
	case math.Abs(p) >= 1000:
		whole := math.Trunc(p)
		cents := math.Round(math.Abs(p-whole) * 100)
		if cents == 100 {
			whole += math.Copysign(1, p)
			cents = 0
		}
		return fmt.Sprintf("%s.%02d", FormatInt(int(whole)), int(cents))
	default:
		return fmt.Sprintf("%.2f", p)
	}
}

// FormatChange formats a percent change as "+X.XX%" or "-X.XX%".
func FormatChange(pct float64) string {
	if pct > 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// ChangeClass is the CSS modifier for a percent change.
func ChangeClass(pct float64) string {
	switch {
	case pct > 0:
		return "up"
	case pct < 0:
		return "down"
	default:
		return "flat"
	}
}

// Percent renders a 0..1 ratio as a whole percent.
func Percent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", clampPct(ratio*100))
}

func clampPct(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
