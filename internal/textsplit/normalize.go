// Package textsplit turns extracted document text into ordered, size-bounded
// chunks suitable for per-chunk generation.
package textsplit

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// Standalone page numbers and "Page 3 of 12" furniture left behind by
	// PDF extraction.
	pageFurnitureRE = regexp.MustCompile(`(?mi)^[ \t]*(?:page[ \t]+\d+(?:[ \t]+of[ \t]+\d+)?|\d{1,4})[ \t]*$`)

	horizontalWSRE = regexp.MustCompile(`[ \t\x{00a0}]+`)
	lineTrailWSRE  = regexp.MustCompile(` +\n`)
	blankRunRE     = regexp.MustCompile(`\n{3,}`)
)

// Normalize strips extraction artifacts: whitespace runs collapse to single
// spaces, page-number furniture disappears, 3+ consecutive newlines collapse
// to exactly two. Empty input yields empty output; callers treat that as
// "no content available".
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	s := sanitizeUTF8(raw)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = pageFurnitureRE.ReplaceAllString(s, "")
	s = horizontalWSRE.ReplaceAllString(s, " ")
	s = lineTrailWSRE.ReplaceAllString(s, "\n")
	s = blankRunRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	// Invalid byte sequences become spaces so words stay separated.
	return strings.ToValidUTF8(s, " ")
}
