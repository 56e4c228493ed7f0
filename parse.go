package chapterwise

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// PruneMarked returns the text strictly between the start and end markers.
// When either marker is missing the whole trimmed text is returned: backend
// output format is best-effort and a malformed response is degraded, never
// rejected.
func PruneMarked(text string, m Markers) string {
	start := strings.Index(text, m.Start)
	if start >= 0 {
		rest := text[start+len(m.Start):]
		if end := strings.Index(rest, m.End); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}
	return strings.TrimSpace(text)
}

// ParseResponse decodes one raw backend response into the cleaned translation
// and the validated glossary updates. The translation falls back to the
// trimmed raw text when the markers are absent; a missing glossary block
// yields no updates. Candidates that fail the acceptance rules are silently
// dropped. ParseResponse never fails.
func ParseResponse(raw string, existing *Glossary, m Markers) (string, []Term) {
	translation := PruneMarked(raw, m)
	block, ok := markedBlock(raw, GlossaryStartMark, GlossaryEndMark)
	if !ok {
		return translation, nil
	}

	var updates []Term
	seen := make(map[string]int)
	for _, line := range strings.Split(block, "\n") {
		src, dst, found := strings.Cut(line, "->")
		if !found {
			continue
		}
		src = strings.TrimSpace(src)
		dst = strings.TrimSpace(dst)
		if !acceptTerm(src, dst, existing) {
			continue
		}
		// A term repeated inside one block keeps its first position but the
		// later target wins, like successive map assignment.
		if i, dup := seen[src]; dup {
			updates[i].Target = dst
			continue
		}
		seen[src] = len(updates)
		updates = append(updates, Term{Source: src, Target: dst})
	}
	return translation, updates
}

// markedBlock returns the substring between the two markers, or false when
// either is absent.
func markedBlock(text, start, end string) (string, bool) {
	i := strings.Index(text, start)
	if i < 0 {
		return "", false
	}
	rest := text[i+len(start):]
	j := strings.Index(rest, end)
	if j < 0 {
		return "", false
	}
	return rest[:j], true
}

// acceptTerm applies the glossary candidate acceptance rules.
func acceptTerm(src, dst string, existing *Glossary) bool {
	if src == "" || dst == "" {
		return false
	}
	if strings.EqualFold(src, dst) {
		return false
	}
	if existing.Has(src) {
		return false
	}
	if utf8.RuneCountInString(src) <= 1 {
		return false
	}
	// ASCII terms must look like proper nouns; non-Latin scripts have no
	// case to check.
	if isASCII(src) {
		first, _ := utf8.DecodeRuneInString(src)
		if !unicode.IsUpper(first) {
			return false
		}
	}
	return true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
