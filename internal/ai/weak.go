package ai

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsWeak reports whether scraped text is too thin for automated
// categorization: empty, shorter than 10 characters after trimming, or
// fewer than 5 alphabetic characters. Lengths count characters, not bytes,
// so accented or non-Latin captions are measured the same as ASCII.
// Categorizing near-empty text wastes provider calls and produces garbage
// categories; asking the human via the MCQ flow is the better outcome.
func IsWeak(text string) bool {
	clean := strings.TrimSpace(text)
	if utf8.RuneCountInString(clean) < 10 {
		return true
	}
	alpha := 0
	for _, r := range clean {
		if unicode.IsLetter(r) {
			alpha++
		}
	}
	return alpha < 5
}
