// Package heuristics guesses a title and an effective date from plain text.
package heuristics

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// IngestTitleMax bounds titles guessed during ingestion.
	IngestTitleMax = 100
	// AnalyzeTitleMax bounds titles guessed by the analysis service.
	AnalyzeTitleMax = 120

	minTitleRunes = 3
)

// dateRE matches ISO-like (2024-01-31), day-first (31/01/2024) and month-name (January 5, 2024) dates.
var dateRE = regexp.MustCompile(`(?i)\b(20\d{2}|19\d{2})[-/.](0?[1-9]|1[0-2])[-/.](0?[1-9]|[12]\d|3[01])\b|` +
	`\b(0?[1-9]|[12]\d|3[01])[-/.](0?[1-9]|1[0-2])[-/.](20\d{2}|19\d{2})\b|` +
	`\b(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)[a-z]*\s+\d{1,2},\s+(20\d{2}|19\d{2})\b`)

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\v", "\n", "\f", "\n", "\u0085", "\n", "\u2028", "\n", "\u2029", "\n")

// GuessTitle returns the first line, trimmed, whose length is between 3 and maxLen runes.
// It returns "" when no line qualifies.
func GuessTitle(text string, maxLen int) string {
	for _, line := range strings.Split(lineBreaks.Replace(text), "\n") {
		s := strings.TrimSpace(line)
		if n := utf8.RuneCountInString(s); n >= minTitleRunes && n <= maxLen {
			return s
		}
	}
	return ""
}

// FirstDate returns the first date-looking substring exactly as written, or "".
func FirstDate(text string) string {
	return dateRE.FindString(text)
}
