package tabtext

import (
	"html"    // Escaping before markup insertion
	"regexp"  // Single-pass token scan
	"strconv" // Measure counter formatting
	"strings" // Newline normalization
)

// tokens matches, in priority order: multi-digit fret runs, single-digit
// frets, accent symbols, and measure bars. Multi-digit comes first so a
// two-digit fret is never split into two single-digit spans.
var tokens = regexp.MustCompile(`(\d{2,})|(\d)|(\^|>|~|b|p|h)|(\|)`)

// Highlight converts raw tab text into markup with lightweight highlighting:
// fret numbers get .tab-num (multi-digit runs additionally .multi), accents
// get .tab-accent, and each '|' becomes a .tab-bar followed by an
// auto-incrementing .measure-num starting at 1. The input is escaped before
// the single left-to-right pass, so the inserted markup is never rescanned.
// The measure counter is scoped to one invocation.
func Highlight(tabtext string) string {
	if tabtext == "" {
		return ""
	}
	// Normalize newlines, then escape everything
	s := strings.ReplaceAll(tabtext, "\r\n", "\n")
	s = html.EscapeString(s)

	measure := 0
	return tokens.ReplaceAllStringFunc(s, func(m string) string {
		switch {
		case m == "|":
			measure++
			return `<span class="tab-bar">|</span><span class="measure-num">` + strconv.Itoa(measure) + `</span>`
		case m[0] >= '0' && m[0] <= '9':
			if len(m) > 1 {
				return `<span class="tab-num multi">` + m + `</span>`
			}
			return `<span class="tab-num">` + m + `</span>`
		default:
			return `<span class="tab-accent">` + m + `</span>`
		}
	})
}

// AssembleContent lays the six string lines out in standard tuning order,
// high e first, the same shape the create form produces.
func AssembleContent(e, b, g, d, a, lowE string) string {
	return "e " + e + "\n" +
		"B " + b + "\n" +
		"G " + g + "\n" +
		"D " + d + "\n" +
		"A " + a + "\n" +
		"E " + lowE
}
