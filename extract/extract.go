// Package extract reads e-books into ordered chapters and writes translated
// chapters back out as EPUB.
package extract

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/chapterwise/chapterwise"
)

// Chapter is a titled block of book text. Chapters keep document order.
type Chapter struct {
	Title string
	Text  string
}

// chapterHeading matches the heading conventions of western novels and
// CJK/Korean web fiction.
var chapterHeading = regexp.MustCompile(strings.Join([]string{
	`(?i)^(?:chapter|ch|prologue|epilogue)\b.*`,
	`^\d+\s*(?:화|章|节|回|卷)`,
	`^第\s*\d+\s*(?:章|节|回|卷)`,
}, "|"))

// Chapters extracts the chapters of a book file, dispatching on extension.
func Chapters(path string) ([]Chapter, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".epub":
		return epubChapters(path)
	case ".txt":
		return txtChapters(path)
	default:
		return nil, &chapterwise.ExtractError{
			Format:  filepath.Ext(path),
			Message: "unsupported format: " + path,
		}
	}
}

func txtChapters(path string) ([]Chapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &chapterwise.ExtractError{Format: "txt", Message: "reading file", Cause: err}
	}
	return SplitChapters(string(data)), nil
}

// SplitChapters splits raw text into chapters on heading lines. Text with no
// recognizable headings becomes a single "Text" chapter.
func SplitChapters(text string) []Chapter {
	var chapters []Chapter
	title := "Chapter 1"
	var buf []string

	flush := func() {
		if len(buf) > 0 {
			chapters = append(chapters, Chapter{
				Title: title,
				Text:  strings.TrimSpace(strings.Join(buf, "\n")),
			})
		}
	}

	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		if chapterHeading.MatchString(stripped) {
			flush()
			title = stripped
			buf = buf[:0]
		} else {
			buf = append(buf, line)
		}
	}
	flush()

	if len(chapters) == 0 {
		return []Chapter{{Title: "Text", Text: text}}
	}
	return chapters
}
