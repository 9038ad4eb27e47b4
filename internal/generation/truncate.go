package generation

import "unicode/utf8"

// TruncationMarker is appended to text cut down to its budget.
const TruncationMarker = "[content truncated]"

// Truncate cuts text to at most maxChars runes. It reports whether anything
// was removed. A non-positive maxChars disables truncation.
func Truncate(text string, maxChars int) (string, bool) {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text, false
	}

	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i], true
		}
		n++
	}
	return text, false
}
