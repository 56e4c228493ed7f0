package chapterwise

import (
	"regexp"
	"strings"
)

// Noise patterns stripped before segmentation: fenced code blocks, long
// hexadecimal hashes, base64-looking runs, and lines dense with box-drawing
// or shell symbols (ascii art, decorative rules).
var (
	codeBlockPattern = regexp.MustCompile("(?s)```.*?```")
	hexRunPattern    = regexp.MustCompile(`\b[a-fA-F0-9]{32,}\b`)
	base64RunPattern = regexp.MustCompile(`\b[A-Za-z0-9+/]{40,}={0,2}\b`)
	noiseCharPattern = regexp.MustCompile(`[\|/_\\~@#$%^&*]`)
)

// noiseLineDensity is the symbol count at which a line is treated as
// decoration rather than prose.
const noiseLineDensity = 6

// Clean removes code blocks, hash strings and ascii art from text.
func Clean(text string) string {
	cleaned, _ := CleanReport(text)
	return cleaned
}

// CleanReport removes noise like Clean and also returns the removed
// fragments so the caller can show what was dropped.
func CleanReport(text string) (string, []string) {
	if text == "" {
		return "", nil
	}

	var removed []string
	collect := func(match string) string {
		removed = append(removed, match)
		return ""
	}

	text = codeBlockPattern.ReplaceAllStringFunc(text, collect)
	text = hexRunPattern.ReplaceAllStringFunc(text, collect)
	text = base64RunPattern.ReplaceAllStringFunc(text, collect)

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if len(noiseCharPattern.FindAllString(line, -1)) >= noiseLineDensity {
			removed = append(removed, line)
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n"), removed
}
