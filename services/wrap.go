package services

import (
	"iter"
	"strings"
)

// WrapText greedily breaks text into lines no wider than maxWidth, as
// reported by measure. Lines only break between words; a single word that
// is wider than maxWidth is placed alone on its own line. The sequence is
// lazy and can be ranged over any number of times.
func WrapText(text string, maxWidth float64, measure func(string) float64) iter.Seq[string] {
	return func(yield func(string) bool) {
		var line string
		for word := range strings.FieldsSeq(text) {
			if line == "" {
				line = word
				continue
			}
			candidate := line + " " + word
			if measure(candidate) <= maxWidth {
				line = candidate
				continue
			}
			if !yield(line) {
				return
			}
			line = word
		}
		if line != "" {
			yield(line)
		}
	}
}

// WrapLines collects WrapText into a slice.
func WrapLines(text string, maxWidth float64, measure func(string) float64) []string {
	var lines []string
	for line := range WrapText(text, maxWidth, measure) {
		lines = append(lines, line)
	}
	return lines
}
