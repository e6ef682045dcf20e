package engine

// HardMaxChars is the ceiling on any single returned text field. Caller
// budgets above it are clamped down, never up.
const HardMaxChars = 1500

const (
	ellipsisMarker  = "…"
	truncatedMarker = "\n…(truncated)"
)

// clampMaxChars normalizes a caller-supplied budget: non-positive or
// over-limit values fall back to the hard ceiling.
func clampMaxChars(maxChars int) int {
	if maxChars <= 0 || maxChars > HardMaxChars {
		return HardMaxChars
	}
	return maxChars
}

// truncateEllipsis cuts s to at most maxChars characters, appending an
// ellipsis when anything was removed. Counting is rune-based so multi-byte
// text is never split mid-character.
func truncateEllipsis(s string, maxChars int) string {
	limit := clampMaxChars(maxChars)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + ellipsisMarker
}

// truncateSource cuts source text to at most maxChars characters, marking
// the cut with a trailing "(truncated)" line.
func truncateSource(s string, maxChars int) string {
	limit := clampMaxChars(maxChars)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + truncatedMarker
}
