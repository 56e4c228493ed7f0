package chapterwise

import (
	"strings"
	"unicode"
)

// isBoundary reports whether r can close a sentence.
func isBoundary(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Segment splits text into an ordered list of sentences.
//
// A sentence closes at `.`, `!` or `?` unless the very next character is
// another boundary character, so runs like `...` or `?!` collapse into a
// single boundary that closes at the last character of the run. A `.` with a
// digit on both sides is part of a decimal number, not a boundary. Sentences
// are trimmed; empty or whitespace-only buffers are never emitted.
func Segment(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	var sentences []string
	var buf strings.Builder

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		buf.WriteRune(r)
		if !isBoundary(r) {
			continue
		}
		// Defer to the last character of a boundary run.
		if i+1 < len(runes) && isBoundary(runes[i+1]) {
			continue
		}
		// Decimal number protection: 3.14 stays whole.
		if r == '.' && i > 0 && i+1 < len(runes) &&
			unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(buf.String()); s != "" {
			sentences = append(sentences, s)
		}
		buf.Reset()
	}

	if s := strings.TrimSpace(buf.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
