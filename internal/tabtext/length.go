package tabtext

import "strings"

// Length is the display category of a tab's content
type Length string

// Length categories by non-empty line count
const (
	Short  Length = "SHORT"  // At most 50 lines
	Medium Length = "MEDIUM" // 51 to 100 lines
	Long   Length = "LONG"   // More than 100 lines
)

// Classify buckets tab content by the number of lines whose trimmed form is
// non-empty and returns the category together with its display class tag.
// Deterministic, no state.
func Classify(content string) (Length, string) {
	lines := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			lines++
		}
	}
	var label Length
	switch {
	case lines > 100:
		label = Long
	case lines > 50:
		label = Medium
	default:
		label = Short
	}
	return label, "length-" + string(label)
}
