// Package langdetect identifies the source language of book text.
package langdetect

import (
	"regexp"
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// Unknown is returned when no language reaches the confidence threshold.
const Unknown = "unknown"

const (
	confidenceThreshold = 0.7
	snippetLimit        = 1000
)

var whitespace = regexp.MustCompile(`\s+`)

// The detector builds large n-gram models; share one instance.
var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

func sharedDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			Build()
	})
	return detector
}

// Detect returns the lowercase ISO 639-1 code of the text's language, or
// Unknown. Book fronts are often noise (copyright pages, ASCII art), so
// detection retries on progressively later offsets of the text.
func Detect(text string) string {
	runes := []rune(text)

	candidates := []string{text}
	if len(runes) > 50 {
		candidates = append(candidates, string(runes[50:]))
	}
	if len(runes) > 100 {
		candidates = append(candidates, string(runes[100:]))
	}

	for _, candidate := range candidates {
		snippet := normalizeSnippet(candidate)
		if snippet == "" {
			continue
		}

		if code, ok := detectSnippet(snippet); ok {
			return code
		}
	}
	return Unknown
}

func detectSnippet(snippet string) (string, bool) {
	values := sharedDetector().ComputeLanguageConfidenceValues(snippet)
	if len(values) == 0 {
		return "", false
	}

	best := values[0]
	if best.Value() < confidenceThreshold {
		return "", false
	}

	return strings.ToLower(best.Language().IsoCode639_1().String()), true
}

func normalizeSnippet(s string) string {
	s = whitespace.ReplaceAllString(strings.TrimSpace(s), " ")
	runes := []rune(s)
	if len(runes) > snippetLimit {
		runes = runes[:snippetLimit]
	}
	return string(runes)
}
