// Package utils provides shared utilities for text and logging.
package utils

// Truncate returns s shortened to at most maxRunes characters, with "..."
// appended when anything was cut. Counting runes keeps accented catalog
// names ("Pokémon") from being split mid-character. A maxRunes of 0 or
// less returns s unchanged.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}
